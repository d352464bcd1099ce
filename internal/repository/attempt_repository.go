package repository

import (
	"certprep_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(tx *gorm.DB, attempt *model.ExamAttempt) error {
	if tx == nil {
		tx = r.DB
	}
	return tx.Create(attempt).Error
}

// UpdateCurrentIndex persists the navigation position for an attempt that
// is still open. The submitted_at guard keeps a stale navigation request
// from touching a row another request just finalized; a full Save here
// could resurrect a submitted attempt.
func (r *AttemptRepository) UpdateCurrentIndex(attemptID uint, index int) error {
	return r.DB.Model(&model.ExamAttempt{}).
		Where("id = ? AND submitted_at IS NULL", attemptID).
		UpdateColumn("current_index", index).Error
}

func (r *AttemptRepository) FindByID(id uint) (*model.ExamAttempt, error) {
	var attempt model.ExamAttempt
	if err := r.DB.First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// FindOpenForUpdate locks and returns the single open attempt for a
// (user, exam) pair, or nil when none exists. Must run inside a
// transaction; the row lock makes concurrent start requests converge on
// one attempt.
func (r *AttemptRepository) FindOpenForUpdate(tx *gorm.DB, userID, examID uint) (*model.ExamAttempt, error) {
	var attempt model.ExamAttempt
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND exam_id = ? AND submitted_at IS NULL", userID, examID).
		First(&attempt).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// FindByIDForUpdate locks the attempt row for a terminal transition.
func (r *AttemptRepository) FindByIDForUpdate(tx *gorm.DB, id uint) (*model.ExamAttempt, error) {
	var attempt model.ExamAttempt
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *AttemptRepository) ListByUser(userID uint, examID uint, page, limit int) ([]model.ExamAttempt, int64, error) {
	var attempts []model.ExamAttempt
	var total int64

	query := r.DB.Model(&model.ExamAttempt{}).Where("user_id = ?", userID)
	if examID > 0 {
		query = query.Where("exam_id = ?", examID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("started_at DESC").Offset(offset).Limit(limit).Find(&attempts).Error
	return attempts, total, err
}

func (r *AttemptRepository) CountMockAttempts(userID, examID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ExamAttempt{}).
		Where("user_id = ? AND exam_id = ? AND is_mock = ?", userID, examID, true).
		Count(&count).Error
	return count, err
}

// HasPassed reports whether the user has any passed attempt for the exam.
// Mock attempts never count: their passed column stays NULL.
func (r *AttemptRepository) HasPassed(userID, examID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.ExamAttempt{}).
		Where("user_id = ? AND exam_id = ? AND passed = ?", userID, examID, true).
		Count(&count).Error
	return count > 0, err
}
