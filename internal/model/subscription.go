package model

import "time"

// ExamSubscription is a user's access permission to a premium exam. It is
// the narrow shape the access gate consumes; pricing and billing live
// outside this service.
type ExamSubscription struct {
	BaseModel

	UserID uint `gorm:"uniqueIndex:idx_subscription_user_exam;type:bigint unsigned" json:"userId"`
	ExamID uint `gorm:"uniqueIndex:idx_subscription_user_exam;type:bigint unsigned" json:"examId"`

	// Deactivate to revoke access without deleting history.
	IsActive  bool       `gorm:"default:true;index" json:"isActive"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func (ExamSubscription) TableName() string {
	return "exam_subscriptions"
}

// IsValid reports whether the subscription grants access right now.
func (s *ExamSubscription) IsValid(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	if s.ExpiresAt != nil && now.After(*s.ExpiresAt) {
		return false
	}
	return true
}
