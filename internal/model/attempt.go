package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

const (
	AttemptInProgress = "in_progress"
	AttemptSubmitted  = "submitted"
)

// ExamAttempt is one user's pass through an exam. QuestionOrder is fixed
// once at creation and never recomputed; Score and Passed are written
// exactly once at submission. Passed stays NULL for mock attempts.
//
// swagger:model ExamAttempt
type ExamAttempt struct {
	BaseModel

	UserID uint `gorm:"index:idx_attempt_user_exam;type:bigint unsigned" json:"userId"`
	ExamID uint `gorm:"index:idx_attempt_user_exam;type:bigint unsigned" json:"examId"`

	Status string `gorm:"size:20;default:'in_progress';index" json:"status"`
	IsMock bool   `gorm:"default:false" json:"isMock"`

	StartedAt   time.Time  `json:"startedAt"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`

	// Ordered list of question IDs, persisted verbatim from allocation.
	QuestionOrder datatypes.JSON `json:"questionOrder"`
	CurrentIndex  int            `gorm:"default:0" json:"currentIndex"`

	Score  *float64 `json:"score,omitempty"`
	Passed *bool    `json:"passed,omitempty"`
}

func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

// OrderIDs decodes QuestionOrder. A missing or malformed column yields nil.
func (a *ExamAttempt) OrderIDs() []uint {
	if len(a.QuestionOrder) == 0 {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal(a.QuestionOrder, &ids); err != nil {
		return nil
	}
	return ids
}

func (a *ExamAttempt) SetOrderIDs(ids []uint) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	a.QuestionOrder = raw
	return nil
}

// TimeRemaining returns whole seconds left on the attempt's time box,
// never negative.
func (a *ExamAttempt) TimeRemaining(durationSeconds int, now time.Time) int {
	elapsed := int(now.Sub(a.StartedAt).Seconds())
	remaining := durationSeconds - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
