package service

import (
	"context"
	"encoding/json"
	"strings"

	"ai_quiz_backend/internal/model"
	"ai_quiz_backend/internal/util"
)

// Flagged-review reason filters.
const (
	FlagReasonManual       = "manual"
	FlagReasonDisagreement = "disagreement"
)

// QuestionFilter narrows and pages question listings. Zero values mean "no
// filter"; Limit < 0 disables pagination.
type QuestionFilter struct {
	Search       string
	Difficulty   model.Difficulty
	ResponseType model.ResponseType
	FlaggedOnly  bool
	SortBy       string
	Order        string
	Page         int
	Limit        int
}

// QuestionStore is the persistence contract for authored questions.
type QuestionStore interface {
	Create(question *model.Question) error
	FindByID(id uint) (*model.Question, error)
	FindByIDs(ids []uint) ([]model.Question, error)
	Update(question *model.Question) error
	Delete(id uint) error
	List(filter QuestionFilter) ([]model.Question, int64, error)
	CountFlagged() (int64, error)
}

// QuizTagger is the slice of quiz persistence the question flow needs:
// resolving prompt context and tagging a new question into a quiz.
type QuizTagger interface {
	FindByID(id uint) (*model.Quiz, error)
	AddTag(quizID, questionID uint) error
}

// Validator runs the dual-model consensus check.
type Validator interface {
	Validate(ctx context.Context, draft QuestionDraft, quiz *QuizContext) ConsensusResult
	SkippedValidation(draft QuestionDraft) ConsensusResult
}

type QuestionService struct {
	Questions QuestionStore
	Quizzes   QuizTagger
	Validator Validator
}

func NewQuestionService(questions QuestionStore, quizzes QuizTagger, validator Validator) *QuestionService {
	return &QuestionService{Questions: questions, Quizzes: quizzes, Validator: validator}
}

// QuestionInput is the authoring submission for create and update.
type QuestionInput struct {
	QuestionText   string             `json:"questionText" binding:"required"`
	OptionsText    string             `json:"optionsText" binding:"required"`
	ResponseType   model.ResponseType `json:"responseType"`
	CorrectAnswer  string             `json:"correctAnswer" binding:"required"`
	ExpectedCount  *int               `json:"expectedCount,omitempty"`
	Difficulty     model.Difficulty   `json:"difficulty"`
	QuizID         uint               `json:"quizId,omitempty"`
	SkipValidation bool               `json:"skipValidation,omitempty"`
}

func (in *QuestionInput) normalize() {
	if in.ResponseType == "" {
		in.ResponseType = model.ResponseSingle
	}
	if in.Difficulty == "" {
		in.Difficulty = model.DifficultyMedium
	}
}

// validateStructure runs every structural check and collects all problems.
func validateStructure(in *QuestionInput) error {
	errs := &util.ValidationErrors{}

	util.ValidateQuestionText(in.QuestionText, errs)
	options := util.ValidateOptionsText(in.OptionsText, errs)
	util.ValidateCorrectAnswer(in.CorrectAnswer, options, string(in.ResponseType), in.ExpectedCount, errs)

	if in.ResponseType != model.ResponseSingle && in.ResponseType != model.ResponseMultiple {
		errs.Add("response type must be 'single' or 'multiple'")
	}
	validDifficulty := false
	for _, d := range model.Difficulties {
		if in.Difficulty == d {
			validDifficulty = true
			break
		}
	}
	if !validDifficulty {
		errs.Add("difficulty must be Easy, Medium, or Hard")
	}

	return errs.ErrOrNil()
}

// CreateQuestion validates the submission, runs (or skips) the dual-model
// check, and persists the question with its flag state and raw consensus
// payload. A skipped or disagreeing validation always flags the question.
func (s *QuestionService) CreateQuestion(ctx context.Context, in QuestionInput) (*model.Question, *ConsensusResult, error) {
	in.normalize()
	if err := validateStructure(&in); err != nil {
		return nil, nil, err
	}

	draft := QuestionDraft{
		QuestionText:  in.QuestionText,
		OptionsText:   in.OptionsText,
		ResponseType:  in.ResponseType,
		ExpectedCount: in.ExpectedCount,
		CorrectAnswer: in.CorrectAnswer,
	}

	var quizCtx *QuizContext
	if in.QuizID != 0 {
		quiz, err := s.Quizzes.FindByID(in.QuizID)
		if err != nil {
			return nil, nil, err
		}
		quizCtx = &QuizContext{
			TopicDomain:   quiz.TopicDomain,
			TargetLevel:   quiz.TargetLevel,
			CertReference: quiz.CertReference,
		}
	}

	var result ConsensusResult
	if in.SkipValidation {
		result = s.Validator.SkippedValidation(draft)
	} else {
		result = s.Validator.Validate(ctx, draft, quizCtx)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, nil, err
	}

	question := &model.Question{
		QuestionText:   strings.TrimSpace(in.QuestionText),
		OptionsText:    strings.TrimSpace(in.OptionsText),
		ResponseType:   in.ResponseType,
		CorrectAnswer:  util.NormalizeAnswer(in.CorrectAnswer),
		ExpectedCount:  in.ExpectedCount,
		Difficulty:     in.Difficulty,
		LLMValidated:   result.AllAgree,
		LLMConflict:    !result.AllAgree,
		ValidationData: payload,
	}

	if err := s.Questions.Create(question); err != nil {
		return nil, nil, err
	}

	if in.QuizID != 0 {
		if err := s.Quizzes.AddTag(in.QuizID, question.ID); err != nil {
			return nil, nil, err
		}
	}

	return question, &result, nil
}

func (s *QuestionService) GetQuestion(id uint) (*model.Question, error) {
	return s.Questions.FindByID(id)
}

func (s *QuestionService) SearchQuestions(filter QuestionFilter) ([]model.Question, int64, error) {
	return s.Questions.List(filter)
}

func (s *QuestionService) DeleteQuestion(id uint) error {
	if _, err := s.Questions.FindByID(id); err != nil {
		return err
	}
	return s.Questions.Delete(id)
}

// UpdateQuestion rewrites the editable fields and, when revalidate is set,
// reruns the consensus check against the updated content.
func (s *QuestionService) UpdateQuestion(ctx context.Context, id uint, in QuestionInput, revalidate bool) (*model.Question, error) {
	question, err := s.Questions.FindByID(id)
	if err != nil {
		return nil, err
	}

	in.normalize()
	if err := validateStructure(&in); err != nil {
		return nil, err
	}

	question.QuestionText = strings.TrimSpace(in.QuestionText)
	question.OptionsText = strings.TrimSpace(in.OptionsText)
	question.ResponseType = in.ResponseType
	question.CorrectAnswer = util.NormalizeAnswer(in.CorrectAnswer)
	question.ExpectedCount = in.ExpectedCount
	question.Difficulty = in.Difficulty

	if revalidate {
		draft := QuestionDraft{
			QuestionText:  question.QuestionText,
			OptionsText:   question.OptionsText,
			ResponseType:  question.ResponseType,
			ExpectedCount: question.ExpectedCount,
			CorrectAnswer: question.CorrectAnswer,
		}
		result := s.Validator.Validate(ctx, draft, nil)
		payload, err := json.Marshal(result)
		if err != nil {
			return nil, err
		}
		question.LLMValidated = result.AllAgree
		question.LLMConflict = !result.AllAgree
		question.ValidationData = payload
	}

	if err := s.Questions.Update(question); err != nil {
		return nil, err
	}
	return question, nil
}

// FlaggedQuestion is one review-queue entry with its derived flag reason.
type FlaggedQuestion struct {
	Question model.Question `json:"question"`
	Reason   string         `json:"reason"`
}

// FlaggedQueue lists flagged questions for admin review. The reason filter
// ("manual" or "disagreement") inspects each stored payload, so filtering
// and pagination happen after the database fetch.
func (s *QuestionService) FlaggedQueue(filter QuestionFilter, reason string) ([]FlaggedQuestion, int64, error) {
	dbFilter := filter
	dbFilter.FlaggedOnly = true
	dbFilter.Page = 0
	dbFilter.Limit = -1

	questions, _, err := s.Questions.List(dbFilter)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]FlaggedQuestion, 0, len(questions))
	for _, q := range questions {
		r := flagReason(q.ValidationData)
		if reason != "" && r != reason {
			continue
		}
		entries = append(entries, FlaggedQuestion{Question: q, Reason: r})
	}
	total := int64(len(entries))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}
	start := (page - 1) * limit
	if start >= len(entries) {
		return []FlaggedQuestion{}, total, nil
	}
	end := start + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[start:end], total, nil
}

func flagReason(validationData json.RawMessage) string {
	var result ConsensusResult
	if err := json.Unmarshal(validationData, &result); err != nil {
		return FlagReasonDisagreement
	}
	if IsManualEntry(result) {
		return FlagReasonManual
	}
	return FlagReasonDisagreement
}

// FlaggedSummary reports the review queue's size split by reason.
type FlaggedSummary struct {
	Total        int64 `json:"total"`
	Manual       int64 `json:"manual"`
	Disagreement int64 `json:"disagreement"`
}

func (s *QuestionService) FlaggedStats() (*FlaggedSummary, error) {
	questions, _, err := s.Questions.List(QuestionFilter{FlaggedOnly: true, Limit: -1})
	if err != nil {
		return nil, err
	}

	summary := &FlaggedSummary{Total: int64(len(questions))}
	for _, q := range questions {
		if flagReason(q.ValidationData) == FlagReasonManual {
			summary.Manual++
		} else {
			summary.Disagreement++
		}
	}
	return summary, nil
}

// ResolveFlag clears a question's conflict flag after human review. When the
// reviewer supplies a corrected answer it replaces the stored one, checked
// against the question's options first.
func (s *QuestionService) ResolveFlag(id uint, correctedAnswer string) (*model.Question, error) {
	question, err := s.Questions.FindByID(id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(correctedAnswer) != "" {
		errs := &util.ValidationErrors{}
		options := util.ParseOptions(question.OptionsText)
		util.ValidateCorrectAnswer(correctedAnswer, options, string(question.ResponseType), question.ExpectedCount, errs)
		if err := errs.ErrOrNil(); err != nil {
			return nil, err
		}
		question.CorrectAnswer = util.NormalizeAnswer(correctedAnswer)
	}

	question.LLMConflict = false
	question.LLMValidated = true

	if err := s.Questions.Update(question); err != nil {
		return nil, err
	}
	return question, nil
}

// Revalidate reruns the consensus check on a stored question and updates its
// flag state and payload in place.
func (s *QuestionService) Revalidate(ctx context.Context, id uint) (*model.Question, *ConsensusResult, error) {
	question, err := s.Questions.FindByID(id)
	if err != nil {
		return nil, nil, err
	}

	draft := QuestionDraft{
		QuestionText:  question.QuestionText,
		OptionsText:   question.OptionsText,
		ResponseType:  question.ResponseType,
		ExpectedCount: question.ExpectedCount,
		CorrectAnswer: question.CorrectAnswer,
	}
	result := s.Validator.Validate(ctx, draft, nil)

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, nil, err
	}
	question.LLMValidated = result.AllAgree
	question.LLMConflict = !result.AllAgree
	question.ValidationData = payload

	if err := s.Questions.Update(question); err != nil {
		return nil, nil, err
	}
	return question, &result, nil
}
