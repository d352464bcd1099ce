package repository

import (
	"certprep_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerRepository struct {
	DB *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) *AnswerRepository {
	return &AnswerRepository{DB: db}
}

func (r *AnswerRepository) CreateBatch(tx *gorm.DB, answers []model.AttemptAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	if tx == nil {
		tx = r.DB
	}
	return tx.Create(&answers).Error
}

func (r *AnswerRepository) ListByAttempt(tx *gorm.DB, attemptID uint) ([]model.AttemptAnswer, error) {
	if tx == nil {
		tx = r.DB
	}
	var answers []model.AttemptAnswer
	err := tx.Where("attempt_id = ?", attemptID).Find(&answers).Error
	return answers, err
}

func (r *AnswerRepository) Find(attemptID, questionID uint) (*model.AttemptAnswer, error) {
	var answer model.AttemptAnswer
	err := r.DB.Where("attempt_id = ? AND question_id = ?", attemptID, questionID).First(&answer).Error
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

// FindOrCreateForUpdate resolves the answer row for (attempt, question)
// and returns it row-locked. Rows are created eagerly at attempt creation,
// but a missing row is created here rather than failing the save.
// Must run inside a transaction.
func (r *AnswerRepository) FindOrCreateForUpdate(tx *gorm.DB, attemptID, questionID uint) (*model.AttemptAnswer, error) {
	var answer model.AttemptAnswer
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&answer).Error
	if err == gorm.ErrRecordNotFound {
		answer = model.AttemptAnswer{AttemptID: attemptID, QuestionID: questionID}
		if err := tx.Create(&answer).Error; err != nil {
			return nil, err
		}
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
			First(&answer).Error
	}
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *AnswerRepository) Save(tx *gorm.DB, answer *model.AttemptAnswer) error {
	if tx == nil {
		tx = r.DB
	}
	return tx.Save(answer).Error
}
