package util

import (
	"strings"
	"testing"
)

func intPtr(n int) *int { return &n }

func TestValidateOptionsText(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantProblem string
	}{
		{"valid two options", "A. yes\nB. no", ""},
		{"valid five options", "A. 1\nB. 2\nC. 3\nD. 4\nE. 5", ""},
		{"empty", "  ", "options cannot be empty"},
		{"single option", "A. only", "at least 2 options"},
		{"six options", "A. 1\nB. 2\nC. 3\nD. 4\nE. 5\nE. 6", "more than 5 options"},
		{"non-sequential", "A. 1\nC. 2", "sequential starting from A"},
		{"not starting at A", "B. 1\nC. 2", "sequential starting from A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := &ValidationErrors{}
			ValidateOptionsText(tt.text, errs)
			if tt.wantProblem == "" {
				if errs.HasErrors() {
					t.Errorf("unexpected problems: %v", errs.Problems)
				}
				return
			}
			if !strings.Contains(errs.Error(), tt.wantProblem) {
				t.Errorf("problems %v do not mention %q", errs.Problems, tt.wantProblem)
			}
		})
	}
}

func TestValidateCorrectAnswer(t *testing.T) {
	options := ParseOptions("A. 1\nB. 2\nC. 3\nD. 4")

	tests := []struct {
		name          string
		answer        string
		responseType  string
		expectedCount *int
		wantProblem   string
	}{
		{"valid single", "A", "single", nil, ""},
		{"single with two answers", "A,B", "single", nil, "exactly one answer"},
		{"single unknown letter", "E", "single", nil, "not one of the available options"},
		{"valid multiple", "A,C", "multiple", intPtr(2), ""},
		{"multiple with one answer", "A", "multiple", nil, "at least 2 correct answers"},
		{"multiple unknown letter", "A,E", "multiple", nil, `invalid answer "E"`},
		{"expected count too low", "A,B", "multiple", intPtr(1), "at least 2"},
		{"expected count equals options", "A,B,C,D", "multiple", intPtr(4), "cannot equal total options"},
		{"count mismatch", "A,B,C", "multiple", intPtr(2), "expected count is 2"},
		{"empty answer", "  ", "single", nil, "cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := &ValidationErrors{}
			ValidateCorrectAnswer(tt.answer, options, tt.responseType, tt.expectedCount, errs)
			if tt.wantProblem == "" {
				if errs.HasErrors() {
					t.Errorf("unexpected problems: %v", errs.Problems)
				}
				return
			}
			if !strings.Contains(errs.Error(), tt.wantProblem) {
				t.Errorf("problems %v do not mention %q", errs.Problems, tt.wantProblem)
			}
		})
	}
}

func TestValidationCollectsAllProblems(t *testing.T) {
	errs := &ValidationErrors{}
	ValidateQuestionText("short", errs)
	options := ValidateOptionsText("A. only", errs)
	ValidateCorrectAnswer("B", options, "single", nil, errs)

	if len(errs.Problems) < 3 {
		t.Errorf("expected every problem collected, got %v", errs.Problems)
	}
	if errs.ErrOrNil() == nil {
		t.Error("ErrOrNil should return the collector when problems exist")
	}
}

func TestValidateQuizName(t *testing.T) {
	if err := ValidateQuizName("AWS Fundamentals"); err != nil {
		t.Errorf("valid name rejected: %v", err)
	}
	if err := ValidateQuizName("ab"); err == nil {
		t.Error("two-char name accepted")
	}
	if err := ValidateQuizName(strings.Repeat("x", 201)); err == nil {
		t.Error("oversized name accepted")
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"alice", true},
		{"bob_smith-2", true},
		{"ab", false},
		{"has space", false},
		{"semi;colon", false},
		{"___", false},
	}

	for _, tt := range tests {
		err := ValidateUsername(tt.name)
		if tt.valid && err != nil {
			t.Errorf("ValidateUsername(%q) unexpectedly failed: %v", tt.name, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("ValidateUsername(%q) unexpectedly passed", tt.name)
		}
	}
}
