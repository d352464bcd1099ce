package repository

import (
	"certprep_backend/internal/model"

	"gorm.io/gorm"
)

type SubscriptionRepository struct {
	DB *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{DB: db}
}

func (r *SubscriptionRepository) Create(sub *model.ExamSubscription) error {
	return r.DB.Create(sub).Error
}

func (r *SubscriptionRepository) Update(sub *model.ExamSubscription) error {
	return r.DB.Save(sub).Error
}

func (r *SubscriptionRepository) Find(userID, examID uint) (*model.ExamSubscription, error) {
	var sub model.ExamSubscription
	err := r.DB.Where("user_id = ? AND exam_id = ?", userID, examID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindActive returns the user's active subscription row for the exam,
// or nil when none exists. Expiry is checked by the caller.
func (r *SubscriptionRepository) FindActive(userID, examID uint) (*model.ExamSubscription, error) {
	var sub model.ExamSubscription
	err := r.DB.Where("user_id = ? AND exam_id = ? AND is_active = ?", userID, examID, true).
		Order("id DESC").First(&sub).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) ListByUser(userID uint) ([]model.ExamSubscription, error) {
	var subs []model.ExamSubscription
	err := r.DB.Where("user_id = ?", userID).Order("id").Find(&subs).Error
	return subs, err
}
