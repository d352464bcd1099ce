package service

import (
	"testing"

	"certprep_backend/internal/model"
)

func TestValidateQuestion(t *testing.T) {
	answer := 4.2
	choices := func(correct ...bool) []model.Choice {
		out := make([]model.Choice, len(correct))
		for i, c := range correct {
			out[i] = model.Choice{Text: "choice", IsCorrect: c}
		}
		return out
	}

	tests := []struct {
		name    string
		q       model.Question
		wantErr bool
	}{
		{
			name: "valid single",
			q:    model.Question{QuestionType: model.QuestionSingle, Choices: choices(true, false, false)},
		},
		{
			name:    "single with two correct",
			q:       model.Question{QuestionType: model.QuestionSingle, Choices: choices(true, true, false)},
			wantErr: true,
		},
		{
			name:    "single with one choice",
			q:       model.Question{QuestionType: model.QuestionSingle, Choices: choices(true)},
			wantErr: true,
		},
		{
			name: "valid true/false",
			q:    model.Question{QuestionType: model.QuestionTrueFalse, Choices: choices(true, false)},
		},
		{
			name:    "true/false with three choices",
			q:       model.Question{QuestionType: model.QuestionTrueFalse, Choices: choices(true, false, false)},
			wantErr: true,
		},
		{
			name: "valid multi with several correct",
			q:    model.Question{QuestionType: model.QuestionMulti, Choices: choices(true, true, false)},
		},
		{
			name:    "multi with none correct",
			q:       model.Question{QuestionType: model.QuestionMulti, Choices: choices(false, false)},
			wantErr: true,
		},
		{
			name: "valid fill",
			q:    model.Question{QuestionType: model.QuestionFillBlank, CorrectText: "answer"},
		},
		{
			name:    "fill with blank text",
			q:       model.Question{QuestionType: model.QuestionFillBlank, CorrectText: "  "},
			wantErr: true,
		},
		{
			name: "valid numeric",
			q:    model.Question{QuestionType: model.QuestionNumeric, NumericAnswer: &answer},
		},
		{
			name:    "numeric without answer",
			q:       model.Question{QuestionType: model.QuestionNumeric},
			wantErr: true,
		},
		{
			name:    "numeric with negative tolerance",
			q:       model.Question{QuestionType: model.QuestionNumeric, NumericAnswer: &answer, NumericTolerance: -1},
			wantErr: true,
		},
		{
			name: "valid matching",
			q:    model.Question{QuestionType: model.QuestionMatching, MatchingPairs: []byte(`[{"left":"a","right":"b"}]`)},
		},
		{
			name:    "matching without pairs",
			q:       model.Question{QuestionType: model.QuestionMatching},
			wantErr: true,
		},
		{
			name: "valid ordering",
			q:    model.Question{QuestionType: model.QuestionOrdering, OrderingItems: []byte(`["a","b","c"]`)},
		},
		{
			name:    "ordering with one item",
			q:       model.Question{QuestionType: model.QuestionOrdering, OrderingItems: []byte(`["a"]`)},
			wantErr: true,
		},
		{
			name:    "unknown type",
			q:       model.Question{QuestionType: "essay"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuestion(&tt.q)
			if (err != nil) != tt.wantErr {
				t.Fatalf("got err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}
