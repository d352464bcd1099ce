package service

import (
	"fmt"
	"math"
	"testing"

	"certprep_backend/internal/model"
)

func multiQuestion(id uint, correct ...uint) *model.Question {
	q := &model.Question{QuestionType: model.QuestionMulti}
	q.ID = id
	correctSet := make(map[uint]bool)
	for _, c := range correct {
		correctSet[c] = true
	}
	for cid := uint(1); cid <= 5; cid++ {
		choice := model.Choice{IsCorrect: correctSet[cid]}
		choice.ID = cid
		q.Choices = append(q.Choices, choice)
	}
	return q
}

func formFor(qid uint, values ...string) AnswerForm {
	return AnswerForm{questionFieldKey(qid): values}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestGradeMulti(t *testing.T) {
	tests := []struct {
		name        string
		selected    []string
		wantScore   float64
		wantVerdict *bool
	}{
		{"exact match", []string{"1", "2", "3"}, 1.0, boolPtr(true)},
		{"subset is partial", []string{"1", "2"}, 2.0 / 3.0, nil},
		{"mixed with false positive", []string{"1", "2", "4"}, 0.5, nil},
		{"all wrong", []string{"4", "5"}, 0.0, boolPtr(false)},
		{"no selection", nil, 0.0, boolPtr(false)},
		{"one right one wrong", []string{"1", "4"}, 1.0 / 6.0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := multiQuestion(10, 1, 2, 3)
			ans := &model.AttemptAnswer{QuestionID: q.ID}
			form := AnswerForm{}
			if tt.selected != nil {
				form = formFor(q.ID, tt.selected...)
			}

			got := gradeAnswer(q, ans, form)
			if !approx(got, tt.wantScore) {
				t.Fatalf("score = %v, want %v", got, tt.wantScore)
			}
			assertVerdict(t, ans.IsCorrect, tt.wantVerdict)
		})
	}
}

func boolPtr(v bool) *bool { return &v }

func assertVerdict(t *testing.T, got, want *bool) {
	t.Helper()
	switch {
	case want == nil && got != nil:
		t.Fatalf("is_correct = %v, want nil (partial)", *got)
	case want != nil && got == nil:
		t.Fatalf("is_correct = nil, want %v", *want)
	case want != nil && got != nil && *want != *got:
		t.Fatalf("is_correct = %v, want %v", *got, *want)
	}
}

func TestGradeSingle(t *testing.T) {
	q := &model.Question{QuestionType: model.QuestionSingle}
	q.ID = 7
	right := model.Choice{IsCorrect: true}
	right.ID = 1
	wrong := model.Choice{}
	wrong.ID = 2
	q.Choices = []model.Choice{right, wrong}

	t.Run("correct choice", func(t *testing.T) {
		ans := &model.AttemptAnswer{QuestionID: q.ID}
		if got := gradeAnswer(q, ans, formFor(q.ID, "1")); got != 1.0 {
			t.Fatalf("score = %v, want 1", got)
		}
		assertVerdict(t, ans.IsCorrect, boolPtr(true))
		if ans.ChoiceID == nil || *ans.ChoiceID != 1 {
			t.Fatalf("ChoiceID = %v, want 1", ans.ChoiceID)
		}
	})

	t.Run("wrong choice", func(t *testing.T) {
		ans := &model.AttemptAnswer{QuestionID: q.ID}
		if got := gradeAnswer(q, ans, formFor(q.ID, "2")); got != 0.0 {
			t.Fatalf("score = %v, want 0", got)
		}
		assertVerdict(t, ans.IsCorrect, boolPtr(false))
	})

	t.Run("foreign choice id keeps autosaved verdict", func(t *testing.T) {
		saved := uint(1)
		ans := &model.AttemptAnswer{QuestionID: q.ID, ChoiceID: &saved, IsCorrect: boolPtr(true)}
		if got := gradeAnswer(q, ans, formFor(q.ID, "999")); got != 1.0 {
			t.Fatalf("score = %v, want 1 from the autosaved selection", got)
		}
	})

	t.Run("malformed id without prior answer", func(t *testing.T) {
		ans := &model.AttemptAnswer{QuestionID: q.ID}
		if got := gradeAnswer(q, ans, formFor(q.ID, "banana")); got != 0.0 {
			t.Fatalf("score = %v, want 0", got)
		}
		assertVerdict(t, ans.IsCorrect, boolPtr(false))
	})

	t.Run("never answered settles as incorrect", func(t *testing.T) {
		ans := &model.AttemptAnswer{QuestionID: q.ID}
		if got := gradeAnswer(q, ans, AnswerForm{}); got != 0.0 {
			t.Fatalf("score = %v, want 0", got)
		}
		assertVerdict(t, ans.IsCorrect, boolPtr(false))
	})

	t.Run("absent field uses autosaved correct choice", func(t *testing.T) {
		saved := uint(1)
		ans := &model.AttemptAnswer{QuestionID: q.ID, ChoiceID: &saved, IsCorrect: boolPtr(true)}
		if got := gradeAnswer(q, ans, AnswerForm{}); got != 1.0 {
			t.Fatalf("score = %v, want 1", got)
		}
	})
}

func TestGradeFill(t *testing.T) {
	q := &model.Question{QuestionType: model.QuestionFillBlank, CorrectText: "Virtual  Private Network"}
	q.ID = 3

	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"exact", "Virtual Private Network", 1.0},
		{"case and spacing normalized", "  virtual   private NETWORK ", 1.0},
		{"wrong", "local area network", 0.0},
		{"empty", "", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ans := &model.AttemptAnswer{QuestionID: q.ID}
			if got := gradeAnswer(q, ans, formFor(q.ID, tt.input)); !approx(got, tt.want) {
				t.Fatalf("score = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("empty canonical text never matches", func(t *testing.T) {
		blank := &model.Question{QuestionType: model.QuestionFillBlank}
		blank.ID = 4
		ans := &model.AttemptAnswer{QuestionID: blank.ID}
		if got := gradeAnswer(blank, ans, formFor(blank.ID, "")); got != 0.0 {
			t.Fatalf("score = %v, want 0", got)
		}
	})
}

func TestGradeNumeric(t *testing.T) {
	answer := 10.0
	q := &model.Question{
		QuestionType:     model.QuestionNumeric,
		NumericAnswer:    &answer,
		NumericTolerance: 0.5,
	}
	q.ID = 5

	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"exact", "10", 1.0},
		{"within tolerance", "10.4", 1.0},
		{"boundary", "10.5", 1.0},
		{"outside tolerance", "10.6", 0.0},
		{"not a number", "ten", 0.0},
		{"empty", "", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ans := &model.AttemptAnswer{QuestionID: q.ID}
			if got := gradeAnswer(q, ans, formFor(q.ID, tt.input)); !approx(got, tt.want) {
				t.Fatalf("score = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("nil canonical answer is incorrect", func(t *testing.T) {
		broken := &model.Question{QuestionType: model.QuestionNumeric}
		broken.ID = 6
		ans := &model.AttemptAnswer{QuestionID: broken.ID}
		if got := gradeAnswer(broken, ans, formFor(broken.ID, "10")); got != 0.0 {
			t.Fatalf("score = %v, want 0", got)
		}
	})
}

func matchingQuestion(t *testing.T, id uint, pairs ...model.MatchPair) *model.Question {
	t.Helper()
	q := &model.Question{QuestionType: model.QuestionMatching}
	q.ID = id
	raw := "["
	for i, p := range pairs {
		if i > 0 {
			raw += ","
		}
		raw += fmt.Sprintf(`{"left":%q,"right":%q}`, p.Left, p.Right)
	}
	raw += "]"
	q.MatchingPairs = []byte(raw)
	return q
}

func TestGradeMatching(t *testing.T) {
	q := matchingQuestion(t, 8,
		model.MatchPair{Left: "TCP", Right: "transport"},
		model.MatchPair{Left: "IP", Right: "network"},
		model.MatchPair{Left: "HTTP", Right: "application"},
		model.MatchPair{Left: "ARP", Right: "link"},
	)

	matchForm := func(vals ...string) AnswerForm {
		form := AnswerForm{}
		for i, v := range vals {
			form[matchFieldKey(q.ID, i)] = []string{v}
		}
		return form
	}

	t.Run("all correct", func(t *testing.T) {
		ans := &model.AttemptAnswer{QuestionID: q.ID}
		got := gradeAnswer(q, ans, matchForm("transport", "network", "application", "link"))
		if !approx(got, 1.0) {
			t.Fatalf("score = %v, want 1", got)
		}
		assertVerdict(t, ans.IsCorrect, boolPtr(true))
	})

	t.Run("half right is penalized", func(t *testing.T) {
		// 2 correct, 2 wrong: (2 - 0.5*2) / 4 = 0.25.
		ans := &model.AttemptAnswer{QuestionID: q.ID}
		got := gradeAnswer(q, ans, matchForm("transport", "network", "link", "application"))
		if !approx(got, 0.25) {
			t.Fatalf("score = %v, want 0.25", got)
		}
		assertVerdict(t, ans.IsCorrect, nil)
	})

	t.Run("empty pair counts against", func(t *testing.T) {
		// 3 correct, 1 blank: (3 - 0.5) / 4 = 0.625.
		ans := &model.AttemptAnswer{QuestionID: q.ID}
		got := gradeAnswer(q, ans, matchForm("transport", "network", "application", ""))
		if !approx(got, 0.625) {
			t.Fatalf("score = %v, want 0.625", got)
		}
	})

	t.Run("all wrong clamps at zero", func(t *testing.T) {
		ans := &model.AttemptAnswer{QuestionID: q.ID}
		got := gradeAnswer(q, ans, matchForm("link", "application", "transport", "network"))
		if got != 0.0 {
			t.Fatalf("score = %v, want 0", got)
		}
		assertVerdict(t, ans.IsCorrect, boolPtr(false))
	})

	t.Run("absent fields fall back to autosaved map", func(t *testing.T) {
		ans := &model.AttemptAnswer{QuestionID: q.ID}
		if err := ans.SetMatchMap(map[string]string{
			"0": "transport", "1": "network", "2": "application", "3": "link",
		}); err != nil {
			t.Fatal(err)
		}
		got := gradeAnswer(q, ans, AnswerForm{})
		if !approx(got, 1.0) {
			t.Fatalf("score = %v, want 1 from the autosaved pairs", got)
		}
	})
}

func TestGradeOrdering(t *testing.T) {
	q := &model.Question{QuestionType: model.QuestionOrdering}
	q.ID = 9
	q.OrderingItems = []byte(`["Physical","Data Link","Network","Transport"]`)

	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"perfect order", "Physical,Data Link,Network,Transport", 1.0},
		{"case insensitive", "physical, data link, NETWORK, transport", 1.0},
		{"two in place", "Physical,Data Link,Transport,Network", 0.5},
		{"fully shuffled", "Transport,Network,Data Link,Physical", 0.0},
		{"short submission", "Physical", 0.25},
		{"empty", "", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ans := &model.AttemptAnswer{QuestionID: q.ID}
			if got := gradeAnswer(q, ans, formFor(q.ID, tt.input)); !approx(got, tt.want) {
				t.Fatalf("score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGradeUnknownTypePreservesAutosave(t *testing.T) {
	q := &model.Question{QuestionType: "essay"}
	q.ID = 11

	ans := &model.AttemptAnswer{QuestionID: q.ID, IsCorrect: boolPtr(true)}
	if got := gradeAnswer(q, ans, AnswerForm{}); got != 1.0 {
		t.Fatalf("score = %v, want 1", got)
	}

	ans = &model.AttemptAnswer{QuestionID: q.ID}
	if got := gradeAnswer(q, ans, AnswerForm{}); got != 0.0 {
		t.Fatalf("score = %v, want 0", got)
	}
}

func TestVerdictNullable(t *testing.T) {
	if v := VerdictCorrect.Nullable(); v == nil || !*v {
		t.Fatalf("VerdictCorrect.Nullable() = %v, want true", v)
	}
	if v := VerdictIncorrect.Nullable(); v == nil || *v {
		t.Fatalf("VerdictIncorrect.Nullable() = %v, want false", v)
	}
	if v := VerdictPartial.Nullable(); v != nil {
		t.Fatalf("VerdictPartial.Nullable() = %v, want nil", v)
	}
}

func TestRound2(t *testing.T) {
	if got := round2(2.0 / 3.0 * 100); got != 66.67 {
		t.Fatalf("round2 = %v, want 66.67", got)
	}
	if got := round2(100.0); got != 100.0 {
		t.Fatalf("round2 = %v, want 100", got)
	}
}
