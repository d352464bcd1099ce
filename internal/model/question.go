package model

import (
	"encoding/json"
	"sort"

	"gorm.io/datatypes"
)

// Question type tags. Each tag selects its own correctness payload:
// choices for the choice-based types, CorrectText for fill, NumericAnswer
// plus NumericTolerance for numeric, MatchingPairs for match and
// OrderingItems for order.
const (
	QuestionSingle    = "single"
	QuestionMulti     = "multi"
	QuestionTrueFalse = "tf"
	QuestionDropdown  = "dropdown"
	QuestionFillBlank = "fill"
	QuestionNumeric   = "numeric"
	QuestionMatching  = "match"
	QuestionOrdering  = "order"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// MatchPair is one canonical left→right mapping of a matching question.
type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// swagger:model Question
type Question struct {
	BaseModel

	CategoryID   *uint  `gorm:"index;type:bigint unsigned" json:"categoryId,omitempty"`
	Text         string `gorm:"type:text;not null" json:"text"`
	QuestionType string `gorm:"size:20;default:'single';index" json:"questionType"`
	Difficulty   string `gorm:"type:enum('easy','medium','hard');default:'easy'" json:"difficulty"`
	IsActive     bool   `gorm:"default:true;index" json:"isActive"`

	// Shown on the result page only.
	Explanation string `gorm:"type:text" json:"explanation,omitempty"`
	ImageURL    string `gorm:"size:255" json:"imageUrl,omitempty"`

	CorrectText      string         `gorm:"type:text" json:"correctText,omitempty"`
	NumericAnswer    *float64       `json:"numericAnswer,omitempty"`
	NumericTolerance float64        `gorm:"default:0" json:"numericTolerance"`
	MatchingPairs    datatypes.JSON `json:"matchingPairs,omitempty"`
	OrderingItems    datatypes.JSON `json:"orderingItems,omitempty"`

	Choices []Choice `gorm:"foreignKey:QuestionID" json:"choices,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// Pairs decodes MatchingPairs; a nil or malformed column yields nil.
func (q *Question) Pairs() []MatchPair {
	if len(q.MatchingPairs) == 0 {
		return nil
	}
	var pairs []MatchPair
	if err := json.Unmarshal(q.MatchingPairs, &pairs); err != nil {
		return nil
	}
	return pairs
}

// Ordering decodes OrderingItems; a nil or malformed column yields nil.
func (q *Question) Ordering() []string {
	if len(q.OrderingItems) == 0 {
		return nil
	}
	var items []string
	if err := json.Unmarshal(q.OrderingItems, &items); err != nil {
		return nil
	}
	return items
}

// CorrectChoiceIDs returns the IDs of choices flagged correct.
// Choices must be preloaded.
func (q *Question) CorrectChoiceIDs() map[uint]bool {
	ids := make(map[uint]bool)
	for _, c := range q.Choices {
		if c.IsCorrect {
			ids[c.ID] = true
		}
	}
	return ids
}

// Redacted returns a copy safe to send to a student mid-attempt: all
// correctness payloads stripped, choices kept but unflagged.
func (q *Question) Redacted() *Question {
	out := *q
	out.CorrectText = ""
	out.NumericAnswer = nil
	out.NumericTolerance = 0
	out.Explanation = ""

	// Ordering items must render, but their stored order is the answer
	// key. Present them alphabetically.
	if items := q.Ordering(); items != nil {
		sorted := make([]string, len(items))
		copy(sorted, items)
		sort.Strings(sorted)
		if raw, err := json.Marshal(sorted); err == nil {
			out.OrderingItems = raw
		} else {
			out.OrderingItems = nil
		}
	}

	// Matching questions still need the left labels to render.
	if pairs := q.Pairs(); pairs != nil {
		redacted := make([]MatchPair, len(pairs))
		for i, p := range pairs {
			redacted[i] = MatchPair{Left: p.Left}
		}
		if raw, err := json.Marshal(redacted); err == nil {
			out.MatchingPairs = raw
		} else {
			out.MatchingPairs = nil
		}
	}

	out.Choices = make([]Choice, len(q.Choices))
	for i, c := range q.Choices {
		c.IsCorrect = false
		out.Choices[i] = c
	}
	return &out
}

// swagger:model Choice
type Choice struct {
	BaseModel

	QuestionID uint   `gorm:"index;type:bigint unsigned" json:"questionId"`
	Text       string `gorm:"size:500;not null" json:"text"`
	IsCorrect  bool   `gorm:"default:false" json:"isCorrect"`
	Order      int    `gorm:"default:0" json:"order"`
}

func (Choice) TableName() string {
	return "choices"
}
