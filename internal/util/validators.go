package util

import (
	"fmt"
	"strings"
)

// ValidationErrors aggregates every structural problem found in a submission
// so the author can fix all of them in one pass.
type ValidationErrors struct {
	Problems []string
}

func (e *ValidationErrors) Add(format string, args ...interface{}) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *ValidationErrors) HasErrors() bool {
	return len(e.Problems) > 0
}

func (e *ValidationErrors) Error() string {
	return strings.Join(e.Problems, "; ")
}

// ErrOrNil returns the collector as an error only when something was found.
func (e *ValidationErrors) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

const (
	minOptions = 2
	maxOptions = 5
)

// ValidateOptionsText checks the raw options block: 2-5 options, letters
// contiguous starting at A.
func ValidateOptionsText(optionsText string, errs *ValidationErrors) []Option {
	if strings.TrimSpace(optionsText) == "" {
		errs.Add("options cannot be empty")
		return nil
	}

	options := ParseOptions(optionsText)
	if len(options) < minOptions {
		errs.Add("must have at least %d options", minOptions)
		return options
	}
	if len(options) > maxOptions {
		errs.Add("cannot have more than %d options", maxOptions)
		return options
	}

	letters := "ABCDE"[:len(options)]
	for i, opt := range options {
		if opt.Letter != string(letters[i]) {
			errs.Add("options must be sequential starting from A (expected %s)", strings.Join(strings.Split(letters, ""), ", "))
			break
		}
	}
	return options
}

// ValidateCorrectAnswer checks the answer string against the parsed options
// and response type rules.
func ValidateCorrectAnswer(correctAnswer string, options []Option, responseType string, expectedCount *int, errs *ValidationErrors) {
	if strings.TrimSpace(correctAnswer) == "" {
		errs.Add("correct answer cannot be empty")
		return
	}

	available := make(map[string]bool, len(options))
	for _, opt := range options {
		available[opt.Letter] = true
	}

	answers := AnswerSet(correctAnswer)

	if responseType == "single" {
		if len(answers) != 1 {
			errs.Add("single response must have exactly one answer (e.g. 'A')")
		}
		for a := range answers {
			if !available[a] {
				errs.Add("answer %q is not one of the available options", a)
			}
		}
		return
	}

	// multiple
	if len(answers) < 2 {
		errs.Add("multiple selection must have at least 2 correct answers")
	}
	for a := range answers {
		if !available[a] {
			errs.Add("invalid answer %q, must be one of the available options", a)
		}
	}
	if expectedCount != nil {
		if *expectedCount < 2 {
			errs.Add("expected count must be at least 2")
		}
		if *expectedCount > len(options) {
			errs.Add("expected count cannot exceed number of options (%d)", len(options))
		} else if *expectedCount == len(options) {
			errs.Add("expected count cannot equal total options (would make question trivial)")
		}
		if len(answers) != *expectedCount && len(answers) >= 2 {
			errs.Add("correct answer selects %d letters but expected count is %d", len(answers), *expectedCount)
		}
	}
}

// ValidateQuestionText enforces the minimum question length.
func ValidateQuestionText(questionText string, errs *ValidationErrors) {
	if strings.TrimSpace(questionText) == "" {
		errs.Add("question text cannot be empty")
		return
	}
	if len(strings.TrimSpace(questionText)) < 10 {
		errs.Add("question must be at least 10 characters")
	}
}

// ValidateQuizName enforces quiz name length limits.
func ValidateQuizName(quizName string) error {
	errs := &ValidationErrors{}
	name := strings.TrimSpace(quizName)
	if name == "" {
		errs.Add("quiz name cannot be empty")
	} else if len(name) < 3 {
		errs.Add("quiz name must be at least 3 characters")
	} else if len(name) > 200 {
		errs.Add("quiz name must be less than 200 characters")
	}
	return errs.ErrOrNil()
}

// ValidateUsername enforces username format rules.
func ValidateUsername(username string) error {
	errs := &ValidationErrors{}
	name := strings.TrimSpace(username)
	switch {
	case name == "":
		errs.Add("username cannot be empty")
	case len(name) < 3:
		errs.Add("username must be at least 3 characters")
	case len(name) > 50:
		errs.Add("username must be less than 50 characters")
	default:
		stripped := strings.NewReplacer("_", "", "-", "").Replace(name)
		for _, r := range stripped {
			if !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9') {
				errs.Add("username can only contain letters, numbers, underscore, and hyphen")
				break
			}
		}
		if stripped == "" {
			errs.Add("username can only contain letters, numbers, underscore, and hyphen")
		}
	}
	return errs.ErrOrNil()
}
