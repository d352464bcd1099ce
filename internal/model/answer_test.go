package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAnswerRedactedHidesVerdict(t *testing.T) {
	choice := uint(4)
	graded := true
	ans := &AttemptAnswer{
		AttemptID:  9,
		QuestionID: 12,
		ChoiceID:   &choice,
		RawAnswer:  "42",
		IsCorrect:  &graded,
	}

	red := ans.Redacted()
	if red.IsCorrect != nil {
		t.Fatalf("IsCorrect = %v, want nil", *red.IsCorrect)
	}
	if red.ChoiceID == nil || *red.ChoiceID != choice {
		t.Fatalf("ChoiceID = %v, want %d", red.ChoiceID, choice)
	}
	if red.RawAnswer != "42" {
		t.Fatalf("RawAnswer = %q, want 42", red.RawAnswer)
	}
	// The original row keeps its verdict for grading.
	if ans.IsCorrect == nil || !*ans.IsCorrect {
		t.Fatal("Redacted mutated the source row")
	}

	raw, err := json.Marshal(red)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "isCorrect") {
		t.Fatalf("redacted payload still carries the verdict: %s", raw)
	}
}

func TestAnswerRedactedMultiAndMatch(t *testing.T) {
	multi := &AttemptAnswer{QuestionID: 3}
	if err := multi.SetSelectedIDs([]uint{1, 2}); err != nil {
		t.Fatal(err)
	}
	partial := false
	multi.IsCorrect = &partial

	red := multi.Redacted()
	if red.IsCorrect != nil {
		t.Fatal("multi verdict not stripped")
	}
	if got := red.SelectedIDs(); len(got) != 2 {
		t.Fatalf("SelectedIDs = %v, want the saved pair", got)
	}
}
