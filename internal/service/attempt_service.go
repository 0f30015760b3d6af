package service

import (
	"encoding/json"
	"time"

	"ai_quiz_backend/internal/model"
	"ai_quiz_backend/internal/util"
	"ai_quiz_backend/pkg/monitoring"
)

// DefaultAttemptSize is the question count used when the caller asks for
// none.
const DefaultAttemptSize = 10

// AttemptStore is the persistence contract for quiz attempts and their
// per-question answer rows.
type AttemptStore interface {
	CreateAttempt(attempt *model.QuizAttempt) error
	FindBySession(sessionID string) (*model.QuizAttempt, error)
	UpdateAttempt(attempt *model.QuizAttempt) error
	UpsertAnswer(record *model.QuestionAttempt) error
	AnswersForAttempt(attemptID uint) ([]model.QuestionAttempt, error)
	ListByUser(userID uint, limit int) ([]model.QuizAttempt, error)
}

// QuestionSampler draws the question set for a new attempt.
type QuestionSampler interface {
	SelectQuestionsForAttempt(quizID uint, count int, preferred model.Difficulty, userID uint) ([]uint, error)
}

// QuizFinder resolves quiz metadata for attempt summaries.
type QuizFinder interface {
	FindByID(id uint) (*model.Quiz, error)
}

type AttemptService struct {
	Attempts  AttemptStore
	Questions QuestionStore
	Quizzes   QuizFinder
	Sampler   QuestionSampler
}

func NewAttemptService(attempts AttemptStore, questions QuestionStore, quizzes QuizFinder, sampler QuestionSampler) *AttemptService {
	return &AttemptService{Attempts: attempts, Questions: questions, Quizzes: quizzes, Sampler: sampler}
}

// AttemptQuestion is a question as delivered to the quiz taker: no correct
// answer, no validation payload.
type AttemptQuestion struct {
	ID            uint               `json:"id"`
	QuestionText  string             `json:"questionText"`
	OptionsText   string             `json:"optionsText"`
	ResponseType  model.ResponseType `json:"responseType"`
	ExpectedCount *int               `json:"expectedCount,omitempty"`
	Difficulty    model.Difficulty   `json:"difficulty"`
}

// StartAttempt samples a question set and opens a new in-progress attempt.
func (s *AttemptService) StartAttempt(userID, quizID uint, count int, difficulty model.Difficulty) (*model.QuizAttempt, []AttemptQuestion, error) {
	if _, err := s.Quizzes.FindByID(quizID); err != nil {
		return nil, nil, err
	}
	if count < 1 {
		count = DefaultAttemptSize
	}
	if difficulty == "" {
		difficulty = model.DifficultyMedium
	}

	ids, err := s.Sampler.SelectQuestionsForAttempt(quizID, count, difficulty, userID)
	if err != nil {
		return nil, nil, err
	}
	if len(ids) == 0 {
		return nil, nil, util.ErrEmptyQuestionPool
	}

	attempt := &model.QuizAttempt{
		UserID:             userID,
		QuizID:             quizID,
		SessionID:          model.GenerateSessionID(),
		DifficultySelected: difficulty,
		Status:             model.AttemptInProgress,
		TotalQuestions:     len(ids),
		StartedAt:          time.Now(),
	}
	if err := attempt.SetQuestions(ids); err != nil {
		return nil, nil, err
	}
	if err := s.Attempts.CreateAttempt(attempt); err != nil {
		return nil, nil, err
	}

	questions, err := s.questionsInOrder(ids)
	if err != nil {
		return nil, nil, err
	}
	return attempt, questions, nil
}

// questionsInOrder loads the drawn questions and preserves the sampler's
// ordering, stripped down to the delivery shape.
func (s *AttemptService) questionsInOrder(ids []uint) ([]AttemptQuestion, error) {
	loaded, err := s.Questions.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Question, len(loaded))
	for _, q := range loaded {
		byID[q.ID] = q
	}

	out := make([]AttemptQuestion, 0, len(ids))
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, AttemptQuestion{
			ID:            q.ID,
			QuestionText:  q.QuestionText,
			OptionsText:   q.OptionsText,
			ResponseType:  q.ResponseType,
			ExpectedCount: q.ExpectedCount,
			Difficulty:    q.Difficulty,
		})
	}
	return out, nil
}

// loadOpenAttempt fetches the attempt, checks ownership, and requires it to
// still be in progress. userID 0 bypasses the ownership check (admin paths).
func (s *AttemptService) loadOpenAttempt(sessionID string, userID uint) (*model.QuizAttempt, error) {
	attempt, err := s.Attempts.FindBySession(sessionID)
	if err != nil {
		return nil, err
	}
	if userID != 0 && attempt.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	if attempt.Status != model.AttemptInProgress {
		return nil, util.ErrAttemptFinished
	}
	return attempt, nil
}

func attemptContains(attempt *model.QuizAttempt, questionID uint) (bool, error) {
	ids, err := attempt.Questions()
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == questionID {
			return true, nil
		}
	}
	return false, nil
}

// AnswerResult is the immediate feedback for one recorded answer.
type AnswerResult struct {
	Correct       bool                `json:"correct"`
	CorrectAnswer string              `json:"correctAnswer"`
	Explanations  []StoredExplanation `json:"explanations,omitempty"`
}

// RecordAnswer grades one answer against the stored key and writes the
// answer row. Re-answering the same question overwrites the earlier row.
func (s *AttemptService) RecordAnswer(sessionID string, userID, questionID uint, answer string) (*AnswerResult, error) {
	attempt, err := s.loadOpenAttempt(sessionID, userID)
	if err != nil {
		return nil, err
	}
	ok, err := attemptContains(attempt, questionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrQuestionNotInSet
	}

	question, err := s.Questions.FindByID(questionID)
	if err != nil {
		return nil, err
	}

	correct := util.AnswersEqual(answer, question.CorrectAnswer)
	explanations := ExtractExplanations(question.ValidationData)

	normalized := util.NormalizeAnswer(answer)
	record := &model.QuestionAttempt{
		QuizAttemptID: attempt.ID,
		QuestionID:    questionID,
		UserAnswer:    &normalized,
		IsCorrect:     correct,
		Skipped:       false,
		AnsweredAt:    time.Now(),
	}
	if len(explanations) > 0 {
		record.Explanation = explanations[0].Explanation
		if refs, err := json.Marshal(explanations[0].References); err == nil {
			record.References = refs
		}
	}
	if err := s.Attempts.UpsertAnswer(record); err != nil {
		return nil, err
	}

	return &AnswerResult{
		Correct:       correct,
		CorrectAnswer: question.CorrectAnswer,
		Explanations:  explanations,
	}, nil
}

// RecordSkip marks a question as skipped. A later answer overwrites the
// skip; a later skip overwrites an earlier answer.
func (s *AttemptService) RecordSkip(sessionID string, userID, questionID uint) error {
	attempt, err := s.loadOpenAttempt(sessionID, userID)
	if err != nil {
		return err
	}
	ok, err := attemptContains(attempt, questionID)
	if err != nil {
		return err
	}
	if !ok {
		return util.ErrQuestionNotInSet
	}

	record := &model.QuestionAttempt{
		QuizAttemptID: attempt.ID,
		QuestionID:    questionID,
		UserAnswer:    nil,
		IsCorrect:     false,
		Skipped:       true,
		AnsweredAt:    time.Now(),
	}
	return s.Attempts.UpsertAnswer(record)
}

// currentRecords reduces the raw answer rows to one live record per
// question: latest answered_at wins, non-skipped preferred on a tie.
func currentRecords(records []model.QuestionAttempt) map[uint]model.QuestionAttempt {
	current := make(map[uint]model.QuestionAttempt, len(records))
	for _, r := range records {
		cur, ok := current[r.QuestionID]
		if !ok {
			current[r.QuestionID] = r
			continue
		}
		if r.AnsweredAt.After(cur.AnsweredAt) ||
			(r.AnsweredAt.Equal(cur.AnsweredAt) && cur.Skipped && !r.Skipped) {
			current[r.QuestionID] = r
		}
	}
	return current
}

// Complete scores and closes an attempt. Completing an already completed
// attempt is a no-op returning the stored result; an abandoned attempt
// cannot be completed.
func (s *AttemptService) Complete(sessionID string, userID uint) (*model.QuizAttempt, error) {
	attempt, err := s.Attempts.FindBySession(sessionID)
	if err != nil {
		return nil, err
	}
	if userID != 0 && attempt.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	switch attempt.Status {
	case model.AttemptCompleted:
		return attempt, nil
	case model.AttemptAbandoned:
		return nil, util.ErrAttemptFinished
	}

	records, err := s.Attempts.AnswersForAttempt(attempt.ID)
	if err != nil {
		return nil, err
	}

	correct := 0
	for _, r := range currentRecords(records) {
		if r.IsCorrect && !r.Skipped {
			correct++
		}
	}

	now := time.Now()
	attempt.CorrectCount = correct
	attempt.Status = model.AttemptCompleted
	attempt.CompletedAt = &now
	if err := s.Attempts.UpdateAttempt(attempt); err != nil {
		return nil, err
	}
	monitoring.AttemptsCompleted.Inc()
	return attempt, nil
}

// Abandon closes an attempt without scoring. Abandoning twice is a no-op;
// a completed attempt stays completed.
func (s *AttemptService) Abandon(sessionID string, userID uint) error {
	attempt, err := s.Attempts.FindBySession(sessionID)
	if err != nil {
		return err
	}
	if userID != 0 && attempt.UserID != userID {
		return util.ErrPermissionDenied
	}
	switch attempt.Status {
	case model.AttemptAbandoned:
		return nil
	case model.AttemptCompleted:
		return util.ErrAttemptFinished
	}

	now := time.Now()
	attempt.Status = model.AttemptAbandoned
	attempt.CompletedAt = &now
	return s.Attempts.UpdateAttempt(attempt)
}

// QuestionResult is one question's line in the attempt breakdown.
type QuestionResult struct {
	QuestionID    uint            `json:"questionId"`
	QuestionText  string          `json:"questionText"`
	UserAnswer    *string         `json:"userAnswer"`
	CorrectAnswer string          `json:"correctAnswer"`
	IsCorrect     bool            `json:"isCorrect"`
	Skipped       bool            `json:"skipped"`
	Explanation   string          `json:"explanation,omitempty"`
	References    json.RawMessage `json:"references,omitempty"`
}

// AttemptResult is the full scored outcome of an attempt.
type AttemptResult struct {
	SessionID      string              `json:"sessionId"`
	QuizID         uint                `json:"quizId"`
	Status         model.AttemptStatus `json:"status"`
	TotalQuestions int                 `json:"totalQuestions"`
	CorrectCount   int                 `json:"correctCount"`
	Score          float64             `json:"score"`
	Difficulty     model.Difficulty    `json:"difficulty"`
	StartedAt      time.Time           `json:"startedAt"`
	CompletedAt    *time.Time          `json:"completedAt,omitempty"`
	Breakdown      []QuestionResult    `json:"breakdown"`
}

// Results returns the scored outcome with a per-question breakdown. Reading
// results of an in-progress attempt completes it first.
func (s *AttemptService) Results(sessionID string, userID uint) (*AttemptResult, error) {
	attempt, err := s.Attempts.FindBySession(sessionID)
	if err != nil {
		return nil, err
	}
	if userID != 0 && attempt.UserID != userID {
		return nil, util.ErrPermissionDenied
	}

	if attempt.Status == model.AttemptInProgress {
		attempt, err = s.Complete(sessionID, userID)
		if err != nil {
			return nil, err
		}
	}

	records, err := s.Attempts.AnswersForAttempt(attempt.ID)
	if err != nil {
		return nil, err
	}
	current := currentRecords(records)

	ids, err := attempt.Questions()
	if err != nil {
		return nil, err
	}
	loaded, err := s.Questions.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Question, len(loaded))
	for _, q := range loaded {
		byID[q.ID] = q
	}

	breakdown := make([]QuestionResult, 0, len(ids))
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			continue
		}
		qr := QuestionResult{
			QuestionID:    q.ID,
			QuestionText:  q.QuestionText,
			CorrectAnswer: q.CorrectAnswer,
		}
		if r, answered := current[id]; answered {
			qr.UserAnswer = r.UserAnswer
			qr.IsCorrect = r.IsCorrect
			qr.Skipped = r.Skipped
			qr.Explanation = r.Explanation
			qr.References = r.References
		}
		breakdown = append(breakdown, qr)
	}

	return &AttemptResult{
		SessionID:      attempt.SessionID,
		QuizID:         attempt.QuizID,
		Status:         attempt.Status,
		TotalQuestions: attempt.TotalQuestions,
		CorrectCount:   attempt.CorrectCount,
		Score:          util.ScorePercentage(attempt.CorrectCount, attempt.TotalQuestions),
		Difficulty:     attempt.DifficultySelected,
		StartedAt:      attempt.StartedAt,
		CompletedAt:    attempt.CompletedAt,
		Breakdown:      breakdown,
	}, nil
}

// AttemptSummary is one history row.
type AttemptSummary struct {
	SessionID      string              `json:"sessionId"`
	QuizID         uint                `json:"quizId"`
	QuizName       string              `json:"quizName,omitempty"`
	Status         model.AttemptStatus `json:"status"`
	TotalQuestions int                 `json:"totalQuestions"`
	CorrectCount   int                 `json:"correctCount"`
	Score          float64             `json:"score"`
	Difficulty     model.Difficulty    `json:"difficulty"`
	StartedAt      time.Time           `json:"startedAt"`
	CompletedAt    *time.Time          `json:"completedAt,omitempty"`
}

// History lists a user's attempts, newest first.
func (s *AttemptService) History(userID uint, limit int) ([]AttemptSummary, error) {
	attempts, err := s.Attempts.ListByUser(userID, limit)
	if err != nil {
		return nil, err
	}

	quizNames := make(map[uint]string)
	summaries := make([]AttemptSummary, 0, len(attempts))
	for _, a := range attempts {
		name, ok := quizNames[a.QuizID]
		if !ok {
			if quiz, err := s.Quizzes.FindByID(a.QuizID); err == nil {
				name = quiz.QuizName
			}
			quizNames[a.QuizID] = name
		}
		summaries = append(summaries, AttemptSummary{
			SessionID:      a.SessionID,
			QuizID:         a.QuizID,
			QuizName:       name,
			Status:         a.Status,
			TotalQuestions: a.TotalQuestions,
			CorrectCount:   a.CorrectCount,
			Score:          util.ScorePercentage(a.CorrectCount, a.TotalQuestions),
			Difficulty:     a.DifficultySelected,
			StartedAt:      a.StartedAt,
			CompletedAt:    a.CompletedAt,
		})
	}
	return summaries, nil
}
