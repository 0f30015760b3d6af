package repository

import (
	"errors"

	"ai_quiz_backend/internal/model"
	"ai_quiz_backend/internal/service"
	"ai_quiz_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) FindByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.First(&quiz, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) FindByName(name string) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.Where("quiz_name = ?", name).First(&quiz).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) List() ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.DB.Order("quiz_name ASC").Find(&quizzes).Error
	return quizzes, err
}

// Delete removes the quiz and its tag rows. Question rows are untouched.
func (r *QuizRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", id).Delete(&model.QuizQuestion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Quiz{}, id).Error
	})
}

// AddTag tags a question into a quiz; tagging twice is a no-op.
func (r *QuizRepository) AddTag(quizID, questionID uint) error {
	tag := model.QuizQuestion{QuizID: quizID, QuestionID: questionID}
	return r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&tag).Error
}

func (r *QuizRepository) RemoveTag(quizID, questionID uint) error {
	return r.DB.
		Where("quiz_id = ? AND question_id = ?", quizID, questionID).
		Delete(&model.QuizQuestion{}).
		Error
}

func (r *QuizRepository) TaggedQuestions(quizID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.
		Joins("JOIN quiz_questions ON quiz_questions.question_id = questions.id").
		Where("quiz_questions.quiz_id = ?", quizID).
		Order("quiz_questions.added_at ASC").
		Find(&questions).Error
	return questions, err
}

// Pool returns the quiz's sampler-eligible questions: tagged and not flagged.
func (r *QuizRepository) Pool(quizID uint) ([]service.PoolQuestion, error) {
	var pool []service.PoolQuestion
	err := r.DB.Model(&model.Question{}).
		Select("questions.id, questions.difficulty").
		Joins("JOIN quiz_questions ON quiz_questions.question_id = questions.id").
		Where("quiz_questions.quiz_id = ? AND questions.llm_conflict = ?", quizID, false).
		Scan(&pool).Error
	return pool, err
}

func (r *QuizRepository) DifficultyCounts(quizID uint) (map[model.Difficulty]int64, error) {
	type row struct {
		Difficulty model.Difficulty
		Count      int64
	}
	var rows []row
	err := r.DB.Model(&model.Question{}).
		Select("questions.difficulty, COUNT(*) as count").
		Joins("JOIN quiz_questions ON quiz_questions.question_id = questions.id").
		Where("quiz_questions.quiz_id = ? AND questions.llm_conflict = ?", quizID, false).
		Group("questions.difficulty").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.Difficulty]int64, len(rows))
	for _, r := range rows {
		counts[r.Difficulty] = r.Count
	}
	return counts, nil
}
