package util

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Option is one parsed answer choice, e.g. {"A", "Paris"}.
type Option struct {
	Letter string
	Text   string
}

var optionLineRe = regexp.MustCompile(`(?i)^([A-E])[.)]\s*(.+)$`)

// ParseOptions parses an options block like "A. Paris\nB. Lyon" into
// structured options. Lines that do not match the "A. text" / "A) text"
// shape are ignored.
func ParseOptions(optionsText string) []Option {
	var options []Option
	for _, line := range strings.Split(strings.TrimSpace(optionsText), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := optionLineRe.FindStringSubmatch(line); m != nil {
			options = append(options, Option{
				Letter: strings.ToUpper(m[1]),
				Text:   strings.TrimSpace(m[2]),
			})
		}
	}
	return options
}

// FormatOptions renders options back into the stored text form.
func FormatOptions(options []Option) string {
	lines := make([]string, len(options))
	for i, opt := range options {
		lines[i] = fmt.Sprintf("%s. %s", opt.Letter, opt.Text)
	}
	return strings.Join(lines, "\n")
}

// AnswerSet normalizes an answer string like "a, c" into a letter set.
func AnswerSet(answer string) map[string]bool {
	set := make(map[string]bool)
	normalized := strings.ReplaceAll(strings.ToUpper(answer), " ", "")
	for _, part := range strings.Split(normalized, ",") {
		if part != "" {
			set[part] = true
		}
	}
	return set
}

// NormalizeAnswer produces the canonical comma-joined form of an answer,
// uppercased, whitespace stripped, letters sorted.
func NormalizeAnswer(answer string) string {
	set := AnswerSet(answer)
	letters := make([]string, 0, len(set))
	for l := range set {
		letters = append(letters, l)
	}
	sort.Strings(letters)
	return strings.Join(letters, ",")
}

// AnswersEqual compares two answer strings by letter-set equality.
// Order-independent, no partial credit.
func AnswersEqual(a, b string) bool {
	sa, sb := AnswerSet(a), AnswerSet(b)
	if len(sa) != len(sb) {
		return false
	}
	for l := range sa {
		if !sb[l] {
			return false
		}
	}
	return true
}

// ScorePercentage returns the rounded percentage score for an attempt.
func ScorePercentage(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	pct := float64(correct) / float64(total) * 100
	return float64(int(pct*10+0.5)) / 10
}
