package model

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// AttemptAnswer is one answer row per (attempt, question), created eagerly
// at attempt creation. Exactly one response column is populated per
// question type: ChoiceID for the single-choice family, Selections for
// multi (ID list) and match (pair-index map), RawAnswer for text types.
// IsCorrect is three-valued: NULL means ungraded or partial credit.
type AttemptAnswer struct {
	BaseModel

	AttemptID  uint `gorm:"uniqueIndex:idx_answer_attempt_question;type:bigint unsigned" json:"attemptId"`
	QuestionID uint `gorm:"uniqueIndex:idx_answer_attempt_question;type:bigint unsigned" json:"questionId"`

	ChoiceID   *uint          `gorm:"type:bigint unsigned" json:"choiceId,omitempty"`
	Selections datatypes.JSON `json:"selections,omitempty"`
	RawAnswer  string         `gorm:"type:text" json:"rawAnswer,omitempty"`

	IsCorrect *bool `json:"isCorrect,omitempty"`

	TimeSpent int `gorm:"default:0" json:"timeSpent"`
}

func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}

// Redacted returns a copy safe to hand back during an open attempt: the
// student's own response fields stay, the graded verdict does not.
// Autosave scores the single-choice family immediately, so an unredacted
// row would tell the student whether their pick was right before submit.
func (a *AttemptAnswer) Redacted() *AttemptAnswer {
	out := *a
	out.IsCorrect = nil
	return &out
}

// SelectedIDs decodes Selections as a multi-select ID list.
func (a *AttemptAnswer) SelectedIDs() []uint {
	if len(a.Selections) == 0 {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal(a.Selections, &ids); err != nil {
		return nil
	}
	return ids
}

func (a *AttemptAnswer) SetSelectedIDs(ids []uint) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	a.Selections = raw
	return nil
}

// MatchMap decodes Selections as a matching pair-index → value map.
// Keys are stringified pair indices for wire compatibility.
func (a *AttemptAnswer) MatchMap() map[string]string {
	if len(a.Selections) == 0 {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(a.Selections, &m); err != nil {
		return nil
	}
	return m
}

func (a *AttemptAnswer) SetMatchMap(m map[string]string) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	a.Selections = raw
	return nil
}
