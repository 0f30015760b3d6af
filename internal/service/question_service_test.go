package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai_quiz_backend/internal/model"
	"ai_quiz_backend/internal/util"
)

// scriptedValidator returns a canned consensus and records what it was asked.
type scriptedValidator struct {
	result    ConsensusResult
	calls     int
	skipCalls int
	lastQuiz  *QuizContext
}

func (v *scriptedValidator) Validate(ctx context.Context, draft QuestionDraft, quiz *QuizContext) ConsensusResult {
	v.calls++
	v.lastQuiz = quiz
	return v.result
}

func (v *scriptedValidator) SkippedValidation(draft QuestionDraft) ConsensusResult {
	v.skipCalls++
	return ConsensusResult{
		BackendA:        BackendResult{Error: SkippedSentinel},
		BackendB:        BackendResult{Error: SkippedSentinel},
		ConsensusAnswer: util.NormalizeAnswer(draft.CorrectAnswer),
		ManualEntry:     true,
		SkippedAI:       true,
	}
}

func agreeingResult() ConsensusResult {
	return ConsensusResult{
		BackendA:        BackendResult{Success: true, Model: "modelA", Data: &ModelVerdict{YourAnswer: "A"}},
		BackendB:        BackendResult{Success: true, Model: "modelB", Data: &ModelVerdict{YourAnswer: "A"}},
		AgreementCount:  2,
		ConsensusAnswer: "A",
		AllAgree:        true,
	}
}

func disagreeingResult() ConsensusResult {
	return ConsensusResult{
		BackendA:        BackendResult{Success: true, Model: "modelA", Data: &ModelVerdict{YourAnswer: "A"}},
		BackendB:        BackendResult{Success: true, Model: "modelB", Data: &ModelVerdict{YourAnswer: "B"}},
		AgreementCount:  1,
		ConsensusAnswer: "A",
		AllAgree:        false,
	}
}

func newTestQuestionService(v Validator) (*QuestionService, *fakeQuestionStore, *fakeQuizStore) {
	questions := &fakeQuestionStore{questions: make(map[uint]model.Question)}
	quizzes := newFakeQuizStore()
	quizzes.Create(&model.Quiz{QuizName: "French Geography", TopicDomain: "Geography", TargetLevel: "Beginner"})
	return NewQuestionService(questions, quizzes, v), questions, quizzes
}

func validInput() QuestionInput {
	return QuestionInput{
		QuestionText:  "What is the capital of France?",
		OptionsText:   "A. Paris\nB. Lyon\nC. Nice",
		ResponseType:  model.ResponseSingle,
		CorrectAnswer: "a",
		Difficulty:    model.DifficultyEasy,
	}
}

func TestCreateQuestionValidated(t *testing.T) {
	v := &scriptedValidator{result: agreeingResult()}
	svc, store, _ := newTestQuestionService(v)

	in := validInput()
	in.QuizID = 1
	question, result, err := svc.CreateQuestion(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}

	if !question.LLMValidated || question.LLMConflict {
		t.Errorf("agreeing validation: validated=%v conflict=%v", question.LLMValidated, question.LLMConflict)
	}
	if question.CorrectAnswer != "A" {
		t.Errorf("stored answer = %q, want normalized A", question.CorrectAnswer)
	}
	if len(question.ValidationData) == 0 {
		t.Error("validation payload not persisted")
	}
	if !result.AllAgree {
		t.Error("returned result should carry the consensus")
	}
	if v.lastQuiz == nil || v.lastQuiz.TopicDomain != "Geography" {
		t.Error("quiz context not passed to validator")
	}
	if _, ok := store.questions[question.ID]; !ok {
		t.Error("question not persisted")
	}
}

func TestCreateQuestionDisagreementFlags(t *testing.T) {
	v := &scriptedValidator{result: disagreeingResult()}
	svc, _, _ := newTestQuestionService(v)

	question, _, err := svc.CreateQuestion(context.Background(), validInput())
	if err != nil {
		t.Fatal(err)
	}
	if question.LLMValidated || !question.LLMConflict {
		t.Errorf("disagreement must flag: validated=%v conflict=%v", question.LLMValidated, question.LLMConflict)
	}
}

func TestCreateQuestionSkipValidation(t *testing.T) {
	v := &scriptedValidator{result: agreeingResult()}
	svc, _, _ := newTestQuestionService(v)

	in := validInput()
	in.SkipValidation = true
	question, result, err := svc.CreateQuestion(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}

	if v.calls != 0 || v.skipCalls != 1 {
		t.Errorf("skip must not invoke the backends: calls=%d skipCalls=%d", v.calls, v.skipCalls)
	}
	if !question.LLMConflict {
		t.Error("skipped validation must flag the question for review")
	}
	if !result.SkippedAI {
		t.Error("skip marker missing from the payload")
	}
}

func TestCreateQuestionStructuralFailure(t *testing.T) {
	v := &scriptedValidator{result: agreeingResult()}
	svc, store, _ := newTestQuestionService(v)

	in := QuestionInput{
		QuestionText:  "short",
		OptionsText:   "A. only",
		ResponseType:  model.ResponseSingle,
		CorrectAnswer: "B",
	}
	_, _, err := svc.CreateQuestion(context.Background(), in)
	if err == nil {
		t.Fatal("structurally invalid question accepted")
	}

	var verrs *util.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("err type %T, want *util.ValidationErrors", err)
	}
	if len(verrs.Problems) < 3 {
		t.Errorf("expected every problem collected, got %v", verrs.Problems)
	}
	if v.calls != 0 {
		t.Error("validator must not run on structural failure")
	}
	if len(store.questions) != 0 {
		t.Error("invalid question persisted")
	}
}

func TestFlaggedQueueReasonFilter(t *testing.T) {
	v := &scriptedValidator{result: disagreeingResult()}
	svc, _, _ := newTestQuestionService(v)

	// One disagreement, one manual skip.
	if _, _, err := svc.CreateQuestion(context.Background(), validInput()); err != nil {
		t.Fatal(err)
	}
	in := validInput()
	in.QuestionText = "Which river runs through Paris?"
	in.SkipValidation = true
	if _, _, err := svc.CreateQuestion(context.Background(), in); err != nil {
		t.Fatal(err)
	}

	all, total, err := svc.FlaggedQueue(QuestionFilter{}, "")
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(all) != 2 {
		t.Fatalf("flagged queue = %d/%d, want 2", len(all), total)
	}

	manual, total, err := svc.FlaggedQueue(QuestionFilter{}, FlagReasonManual)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(manual) != 1 || manual[0].Reason != FlagReasonManual {
		t.Errorf("manual filter returned %d (%v)", len(manual), manual)
	}

	disagreements, total, err := svc.FlaggedQueue(QuestionFilter{}, FlagReasonDisagreement)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(disagreements) != 1 || disagreements[0].Reason != FlagReasonDisagreement {
		t.Errorf("disagreement filter returned %d (%v)", len(disagreements), disagreements)
	}

	summary, err := svc.FlaggedStats()
	if err != nil {
		t.Fatal(err)
	}
	if summary.Total != 2 || summary.Manual != 1 || summary.Disagreement != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestResolveFlag(t *testing.T) {
	v := &scriptedValidator{result: disagreeingResult()}
	svc, _, _ := newTestQuestionService(v)

	question, _, err := svc.CreateQuestion(context.Background(), validInput())
	if err != nil {
		t.Fatal(err)
	}

	resolved, err := svc.ResolveFlag(question.ID, "b")
	if err != nil {
		t.Fatal(err)
	}
	if resolved.LLMConflict || !resolved.LLMValidated {
		t.Errorf("resolve left conflict=%v validated=%v", resolved.LLMConflict, resolved.LLMValidated)
	}
	if resolved.CorrectAnswer != "B" {
		t.Errorf("corrected answer = %q, want B", resolved.CorrectAnswer)
	}
}

func TestResolveFlagRejectsBadAnswer(t *testing.T) {
	v := &scriptedValidator{result: disagreeingResult()}
	svc, _, _ := newTestQuestionService(v)

	question, _, err := svc.CreateQuestion(context.Background(), validInput())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ResolveFlag(question.ID, "Z"); err == nil {
		t.Fatal("answer outside the option set accepted")
	} else if !strings.Contains(err.Error(), "not one of the available options") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRevalidateClearsFlag(t *testing.T) {
	v := &scriptedValidator{result: disagreeingResult()}
	svc, _, _ := newTestQuestionService(v)

	question, _, err := svc.CreateQuestion(context.Background(), validInput())
	if err != nil {
		t.Fatal(err)
	}

	v.result = agreeingResult()
	updated, result, err := svc.Revalidate(context.Background(), question.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !result.AllAgree || updated.LLMConflict || !updated.LLMValidated {
		t.Errorf("revalidate did not clear the flag: %+v", updated)
	}
}
