package repository

import (
	"certprep_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(question *model.Question) error {
	return r.DB.Create(question).Error
}

func (r *QuestionRepository) Update(question *model.Question) error {
	return r.DB.Save(question).Error
}

// Delete soft-deletes; the question drops out of allocation pools but
// historical attempt answers keep resolving.
func (r *QuestionRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Question{}, id).Error
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var question model.Question
	if err := r.DB.Preload("Choices", func(db *gorm.DB) *gorm.DB {
		return db.Order("choices.order, choices.id")
	}).First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

// FindByIDs loads questions with choices, in no particular order.
func (r *QuestionRepository) FindByIDs(tx *gorm.DB, ids []uint) ([]model.Question, error) {
	if tx == nil {
		tx = r.DB
	}
	var questions []model.Question
	err := tx.Preload("Choices", func(db *gorm.DB) *gorm.DB {
		return db.Order("choices.order, choices.id")
	}).Where("id IN ?", ids).Find(&questions).Error
	return questions, err
}

func (r *QuestionRepository) ListByCategory(categoryID uint, page, limit int) ([]model.Question, int64, error) {
	var questions []model.Question
	var total int64

	query := r.DB.Model(&model.Question{}).Where("category_id = ?", categoryID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Preload("Choices").Order("id").Offset(offset).Limit(limit).Find(&questions).Error
	return questions, total, err
}

// ActiveIDsByCategories returns IDs of active, non-deleted questions in
// the given categories, ordered by ID so allocation pools are stable
// inputs to the seeded shuffle.
func (r *QuestionRepository) ActiveIDsByCategories(tx *gorm.DB, categoryIDs []uint) ([]uint, error) {
	if tx == nil {
		tx = r.DB
	}
	var ids []uint
	err := tx.Model(&model.Question{}).
		Where("is_active = ? AND category_id IN ?", true, categoryIDs).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

// ActiveIDs returns every active, non-deleted question ID, ordered by ID.
func (r *QuestionRepository) ActiveIDs(tx *gorm.DB) ([]uint, error) {
	if tx == nil {
		tx = r.DB
	}
	var ids []uint
	err := tx.Model(&model.Question{}).
		Where("is_active = ?", true).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *QuestionRepository) CreateChoices(choices []model.Choice) error {
	if len(choices) == 0 {
		return nil
	}
	return r.DB.Create(&choices).Error
}

func (r *QuestionRepository) DeleteChoicesByQuestion(questionID uint) error {
	return r.DB.Where("question_id = ?", questionID).Delete(&model.Choice{}).Error
}

func (r *QuestionRepository) FindChoice(choiceID, questionID uint) (*model.Choice, error) {
	var choice model.Choice
	if err := r.DB.Where("id = ? AND question_id = ?", choiceID, questionID).First(&choice).Error; err != nil {
		return nil, err
	}
	return &choice, nil
}
