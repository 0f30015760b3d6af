package repository

import (
	"errors"

	"ai_quiz_backend/internal/model"
	"ai_quiz_backend/internal/service"
	"ai_quiz_backend/internal/util"

	"gorm.io/gorm"
)

var questionSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"difficulty": "difficulty",
	"id":         "id",
}

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(question *model.Question) error {
	return r.DB.Create(question).Error
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var question model.Question
	err := r.DB.First(&question, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *QuestionRepository) FindByIDs(ids []uint) ([]model.Question, error) {
	var questions []model.Question
	if len(ids) == 0 {
		return questions, nil
	}
	err := r.DB.Where("id IN ?", ids).Find(&questions).Error
	return questions, err
}

func (r *QuestionRepository) Update(question *model.Question) error {
	return r.DB.Save(question).Error
}

// Delete removes the question and severs any quiz tags pointing at it.
func (r *QuestionRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&model.QuizQuestion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Question{}, id).Error
	})
}

func (r *QuestionRepository) List(filter service.QuestionFilter) ([]model.Question, int64, error) {
	query := r.DB.Model(&model.Question{})

	if filter.FlaggedOnly {
		query = query.Where("llm_conflict = ?", true)
	}
	if filter.Difficulty != "" {
		query = query.Where("difficulty = ?", filter.Difficulty)
	}
	if filter.ResponseType != "" {
		query = query.Where("response_type = ?", filter.ResponseType)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("question_text LIKE ? OR options_text LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortCol, ok := questionSortColumns[filter.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	direction := "DESC"
	if filter.Order == "asc" {
		direction = "ASC"
	}
	query = query.Order(sortCol + " " + direction)

	if filter.Limit >= 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		limit := filter.Limit
		if limit < 1 {
			limit = 20
		}
		query = query.Offset((page - 1) * limit).Limit(limit)
	}

	var questions []model.Question
	err := query.Find(&questions).Error
	return questions, total, err
}

func (r *QuestionRepository) CountFlagged() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Question{}).Where("llm_conflict = ?", true).Count(&count).Error
	return count, err
}
