package repository

import (
	"errors"

	"ai_quiz_backend/internal/model"
	"ai_quiz_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) CreateAttempt(attempt *model.QuizAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *AttemptRepository) FindBySession(sessionID string) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	err := r.DB.Where("session_id = ?", sessionID).First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *AttemptRepository) UpdateAttempt(attempt *model.QuizAttempt) error {
	return r.DB.Save(attempt).Error
}

// UpsertAnswer writes the answer row for (attempt, question), overwriting any
// earlier row for the same pair. Last write wins.
func (r *AttemptRepository) UpsertAnswer(record *model.QuestionAttempt) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "quiz_attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_answer", "is_correct", "explanation", "references", "skipped", "answered_at", "updated_at",
		}),
	}).Create(record).Error
}

func (r *AttemptRepository) AnswersForAttempt(attemptID uint) ([]model.QuestionAttempt, error) {
	var records []model.QuestionAttempt
	err := r.DB.
		Where("quiz_attempt_id = ?", attemptID).
		Order("answered_at ASC, id ASC").
		Find(&records).Error
	return records, err
}

func (r *AttemptRepository) ListByUser(userID uint, limit int) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	query := r.DB.Where("user_id = ?", userID).Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&attempts).Error
	return attempts, err
}

// RecentQuestionIDs lists the questions this user most recently interacted
// with on a quiz, newest first, each question once.
func (r *AttemptRepository) RecentQuestionIDs(userID, quizID uint, limit int) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.QuestionAttempt{}).
		Select("question_attempts.question_id").
		Joins("JOIN quiz_attempts ON quiz_attempts.id = question_attempts.quiz_attempt_id").
		Where("quiz_attempts.user_id = ? AND quiz_attempts.quiz_id = ?", userID, quizID).
		Group("question_attempts.question_id").
		Order("MAX(question_attempts.answered_at) DESC").
		Limit(limit).
		Scan(&ids).Error
	return ids, err
}

// CompletedStats aggregates score percentages over the user's completed
// attempts. Attempts with zero questions are excluded from the averages.
func (r *AttemptRepository) CompletedStats(userID uint) (count int64, avgScore, bestScore float64, err error) {
	base := r.DB.Model(&model.QuizAttempt{}).
		Where("user_id = ? AND status = ?", userID, model.AttemptCompleted)

	if err = base.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, 0, 0, err
	}
	if count == 0 {
		return 0, 0, 0, nil
	}

	type agg struct {
		Avg  float64
		Best float64
	}
	var result agg
	err = r.DB.Model(&model.QuizAttempt{}).
		Select("AVG(correct_count * 100.0 / total_questions) as avg, MAX(correct_count * 100.0 / total_questions) as best").
		Where("user_id = ? AND status = ? AND total_questions > 0", userID, model.AttemptCompleted).
		Scan(&result).Error
	if err != nil {
		return 0, 0, 0, err
	}
	return count, result.Avg, result.Best, nil
}

// RecentScores returns score percentages of the user's latest completed
// attempts, newest first.
func (r *AttemptRepository) RecentScores(userID uint, limit int) ([]float64, error) {
	var scores []float64
	err := r.DB.Model(&model.QuizAttempt{}).
		Select("correct_count * 100.0 / total_questions").
		Where("user_id = ? AND status = ? AND total_questions > 0", userID, model.AttemptCompleted).
		Order("completed_at DESC").
		Limit(limit).
		Scan(&scores).Error
	return scores, err
}
