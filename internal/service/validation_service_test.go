package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai_quiz_backend/internal/model"
)

type fakeClient struct {
	name  string
	reply string
	err   error
}

func (f *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	return f.reply, f.err
}

func (f *fakeClient) Name() string { return f.name }

func geographyDraft() QuestionDraft {
	return QuestionDraft{
		QuestionText:  "What is the capital of France?",
		OptionsText:   "A. Paris\nB. Lyon\nC. Nice",
		ResponseType:  model.ResponseSingle,
		CorrectAnswer: "A",
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"bare object", `{"your_answer": "A"}`, `{"your_answer": "A"}`, true},
		{"surrounding prose", `Sure! Here it is: {"your_answer": "A"} Hope that helps.`, `{"your_answer": "A"}`, true},
		{"nested braces", `prefix {"a": {"b": 1}} suffix`, `{"a": {"b": 1}}`, true},
		{"leading whitespace", "  \n {\"x\": 1}", `{"x": 1}`, true},
		{"no object", "I cannot answer that.", "", false},
		{"unbalanced", `{"a": 1`, "", false},
		{"invalid candidate", `{not json}`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSON(tt.text)
			if ok != tt.ok || got != tt.want {
				t.Errorf("extractJSON(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestValidateBothAgreeWithStored(t *testing.T) {
	reply := `The answer is clear. {"your_answer": "A", "confidence": "high", "explanation": "Paris is the capital.", "key_concept": "European capitals", "references": ["https://example.org/france"]}`
	svc := NewValidationService(
		&fakeClient{name: "modelA", reply: reply},
		&fakeClient{name: "modelB", reply: reply},
	)

	result := svc.Validate(context.Background(), geographyDraft(), nil)

	if !result.AllAgree {
		t.Fatal("expected all_agree with two matching verdicts")
	}
	if result.AgreementCount != 2 {
		t.Errorf("agreement_count = %d, want 2", result.AgreementCount)
	}
	if result.ConsensusAnswer != "A" {
		t.Errorf("consensus_answer = %q, want A", result.ConsensusAnswer)
	}
	if result.BackendA.Data == nil || result.BackendA.Data.AgreesWithStored == nil || !*result.BackendA.Data.AgreesWithStored {
		t.Error("backendA agrees_with_stored should be true")
	}
	if result.ManualEntry || result.SkippedAI {
		t.Error("genuine validation must not be marked manual")
	}
}

func TestValidateDisagreementFlagsConflict(t *testing.T) {
	svc := NewValidationService(
		&fakeClient{name: "modelA", reply: `{"your_answer": "A"}`},
		&fakeClient{name: "modelB", reply: `{"your_answer": "B"}`},
	)

	result := svc.Validate(context.Background(), geographyDraft(), nil)

	if result.AllAgree {
		t.Fatal("disagreement must not report all_agree")
	}
	if result.AgreementCount != 1 {
		t.Errorf("agreement_count = %d, want 1 (only modelA matches stored)", result.AgreementCount)
	}
	if result.ConsensusAnswer != "A" {
		t.Errorf("consensus_answer = %q, want stored answer A", result.ConsensusAnswer)
	}
}

func TestValidateBackendFailure(t *testing.T) {
	svc := NewValidationService(
		&fakeClient{name: "modelA", reply: `{"your_answer": "A"}`},
		&fakeClient{name: "modelB", err: errors.New("connection refused")},
	)

	result := svc.Validate(context.Background(), geographyDraft(), nil)

	if result.AllAgree {
		t.Fatal("one failed backend can never produce all_agree")
	}
	if result.AgreementCount != 1 {
		t.Errorf("agreement_count = %d, want 1", result.AgreementCount)
	}
	if result.BackendB.Success {
		t.Error("failed backend marked successful")
	}
	if result.BackendB.Error != "connection refused" {
		t.Errorf("backendB error = %q", result.BackendB.Error)
	}
}

func TestValidateUnparseableResponseKeepsRaw(t *testing.T) {
	long := strings.Repeat("garbage ", 100)
	svc := NewValidationService(
		&fakeClient{name: "modelA", reply: long},
		&fakeClient{name: "modelB", reply: `{"your_answer": "A"}`},
	)

	result := svc.Validate(context.Background(), geographyDraft(), nil)

	if result.BackendA.Success {
		t.Fatal("unparseable response marked successful")
	}
	if result.BackendA.Error != "could not extract valid JSON from response" {
		t.Errorf("error = %q", result.BackendA.Error)
	}
	if len(result.BackendA.RawContent) != rawContentLimit {
		t.Errorf("raw content length = %d, want %d", len(result.BackendA.RawContent), rawContentLimit)
	}
}

func TestValidateNoStoredAnswerConsensus(t *testing.T) {
	draft := geographyDraft()
	draft.CorrectAnswer = ""

	agree := NewValidationService(
		&fakeClient{name: "modelA", reply: `{"your_answer": "b, a"}`},
		&fakeClient{name: "modelB", reply: `{"your_answer": "A,B"}`},
	)
	result := agree.Validate(context.Background(), draft, nil)
	if !result.AllAgree || result.AgreementCount != 2 || result.ConsensusAnswer != "A,B" {
		t.Errorf("normalized agreement not detected: %+v", result)
	}

	disagree := NewValidationService(
		&fakeClient{name: "modelA", reply: `{"your_answer": "A"}`},
		&fakeClient{name: "modelB", reply: `{"your_answer": "C"}`},
	)
	result = disagree.Validate(context.Background(), draft, nil)
	if result.AllAgree || result.AgreementCount != 0 {
		t.Errorf("disagreement misreported: %+v", result)
	}
	if result.ConsensusAnswer != "A" {
		t.Errorf("consensus should fall back to first success, got %q", result.ConsensusAnswer)
	}
}

func TestSkippedValidation(t *testing.T) {
	svc := NewValidationService(
		&fakeClient{name: "modelA"},
		&fakeClient{name: "modelB"},
	)

	result := svc.SkippedValidation(geographyDraft())

	if result.AllAgree {
		t.Fatal("skipped validation must flag the question")
	}
	if !result.ManualEntry || !result.SkippedAI {
		t.Error("skip markers not set")
	}
	if result.BackendA.Error != SkippedSentinel || result.BackendB.Error != SkippedSentinel {
		t.Errorf("both slots must carry the skip sentinel, got %q / %q", result.BackendA.Error, result.BackendB.Error)
	}
	if result.ConsensusAnswer != "A" {
		t.Errorf("consensus_answer = %q, want stored answer", result.ConsensusAnswer)
	}
	if !IsManualEntry(result) {
		t.Error("IsManualEntry should detect a skipped payload")
	}
}

func TestIsManualEntryDistinguishesDisagreement(t *testing.T) {
	svc := NewValidationService(
		&fakeClient{name: "modelA", reply: `{"your_answer": "A"}`},
		&fakeClient{name: "modelB", reply: `{"your_answer": "B"}`},
	)
	result := svc.Validate(context.Background(), geographyDraft(), nil)

	if IsManualEntry(result) {
		t.Error("genuine disagreement misclassified as manual entry")
	}
}

func TestValidatePromptCarriesQuizContext(t *testing.T) {
	prompt := buildValidationPrompt(geographyDraft(), &QuizContext{
		TopicDomain:   "Geography",
		TargetLevel:   "Beginner",
		CertReference: "GEO-101",
	})

	for _, want := range []string{"expert in Geography", "Beginner level", "GEO-101", "What is the capital of France?", "ONLY valid JSON"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
