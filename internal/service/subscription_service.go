package service

import (
	"time"

	"certprep_backend/internal/model"
	"certprep_backend/internal/repository"
)

// SubscriptionService manages premium exam access grants. Payment flows
// live outside this service; it only records the resulting entitlement.
type SubscriptionService struct {
	SubscriptionRepo *repository.SubscriptionRepository
}

func NewSubscriptionService(subscriptionRepo *repository.SubscriptionRepository) *SubscriptionService {
	return &SubscriptionService{SubscriptionRepo: subscriptionRepo}
}

// Grant opens (or extends) the user's access to a premium exam. A nil
// expiresAt means the grant does not expire.
func (s *SubscriptionService) Grant(userID, examID uint, expiresAt *time.Time) (*model.ExamSubscription, error) {
	sub, err := s.SubscriptionRepo.FindActive(userID, examID)
	if err != nil {
		return nil, err
	}
	if sub != nil {
		sub.ExpiresAt = expiresAt
		sub.IsActive = true
		return sub, s.SubscriptionRepo.Update(sub)
	}
	sub = &model.ExamSubscription{
		UserID:    userID,
		ExamID:    examID,
		IsActive:  true,
		ExpiresAt: expiresAt,
	}
	return sub, s.SubscriptionRepo.Create(sub)
}

func (s *SubscriptionService) Revoke(userID, examID uint) error {
	sub, err := s.SubscriptionRepo.FindActive(userID, examID)
	if err != nil || sub == nil {
		return err
	}
	sub.IsActive = false
	return s.SubscriptionRepo.Update(sub)
}

func (s *SubscriptionService) ListForUser(userID uint) ([]model.ExamSubscription, error) {
	return s.SubscriptionRepo.ListByUser(userID)
}
