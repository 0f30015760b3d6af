package util

import (
	"reflect"
	"testing"
)

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Option
	}{
		{
			name: "dot separators",
			text: "A. Paris\nB. Lyon\nC. Nice",
			want: []Option{{"A", "Paris"}, {"B", "Lyon"}, {"C", "Nice"}},
		},
		{
			name: "paren separators and lowercase letters",
			text: "a) one\nb) two",
			want: []Option{{"A", "one"}, {"B", "two"}},
		},
		{
			name: "ignores non-matching lines",
			text: "Choose one:\nA. yes\n\nB. no\nnot an option",
			want: []Option{{"A", "yes"}, {"B", "no"}},
		},
		{
			name: "empty input",
			text: "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOptions(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseOptions(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestNormalizeAnswer(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"A", "A"},
		{"a", "A"},
		{"c,a,b", "A,B,C"},
		{" b , A ", "A,B"},
		{"A,A,B", "A,B"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeAnswer(tt.in); got != tt.want {
			t.Errorf("NormalizeAnswer(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAnswersEqual(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"A", "a", true},
		{"A,B", "B,A", true},
		{"A, C", "c,a", true},
		{"A", "B", false},
		{"A,B", "A", false},
		{"A", "A,B", false},
		{"", "", true},
	}

	for _, tt := range tests {
		if got := AnswersEqual(tt.a, tt.b); got != tt.want {
			t.Errorf("AnswersEqual(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestScorePercentage(t *testing.T) {
	tests := []struct {
		correct, total int
		want           float64
	}{
		{0, 0, 0},
		{5, 10, 50},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{10, 10, 100},
	}

	for _, tt := range tests {
		if got := ScorePercentage(tt.correct, tt.total); got != tt.want {
			t.Errorf("ScorePercentage(%d, %d) = %v, want %v", tt.correct, tt.total, got, tt.want)
		}
	}
}
