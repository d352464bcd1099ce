package service

import (
	"errors"
	"math/rand"
	"testing"

	"certprep_backend/internal/model"
	"certprep_backend/internal/util"
)

func idRange(from, to uint) []uint {
	ids := make([]uint, 0, to-from+1)
	for id := from; id <= to; id++ {
		ids = append(ids, id)
	}
	return ids
}

func countByPool(t *testing.T, selected []uint, pools map[string][]uint) map[string]int {
	t.Helper()
	membership := make(map[uint]string)
	for name, pool := range pools {
		for _, id := range pool {
			membership[id] = name
		}
	}
	counts := make(map[string]int)
	for _, id := range selected {
		name, ok := membership[id]
		if !ok {
			t.Fatalf("selected id %d belongs to no pool", id)
		}
		counts[name]++
	}
	return counts
}

func assertNoDuplicates(t *testing.T, selected []uint) {
	t.Helper()
	seen := make(map[uint]bool, len(selected))
	for _, id := range selected {
		if seen[id] {
			t.Fatalf("id %d selected twice", id)
		}
		seen[id] = true
	}
}

func TestPickQuestionsFixedCounts(t *testing.T) {
	rules := []allocationRule{
		{Position: 0, FixedCount: 4, Pool: idRange(1, 20)},
		{Position: 1, FixedCount: 6, Pool: idRange(21, 40)},
	}

	selected, err := pickQuestions(10, rules, nil, nil, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("pickQuestions: %v", err)
	}
	if len(selected) != 10 {
		t.Fatalf("got %d questions, want 10", len(selected))
	}
	assertNoDuplicates(t, selected)

	counts := countByPool(t, selected, map[string][]uint{
		"a": idRange(1, 20),
		"b": idRange(21, 40),
	})
	if counts["a"] != 4 || counts["b"] != 6 {
		t.Fatalf("got %d from a and %d from b, want 4 and 6", counts["a"], counts["b"])
	}
}

func TestPickQuestionsDeterministicForSeed(t *testing.T) {
	rules := []allocationRule{
		{Position: 0, FixedCount: 5, Pool: idRange(1, 50)},
		{Position: 1, Percentage: 100, Pool: idRange(51, 100)},
	}

	first, err := pickQuestions(12, rules, nil, idRange(1, 100), rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := pickQuestions(12, rules, nil, idRange(1, 100), rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("selection diverged at %d: %d vs %d", i, first[i], second[i])
		}
	}

	other, err := pickQuestions(12, rules, nil, idRange(1, 100), rand.New(rand.NewSource(43)))
	if err != nil {
		t.Fatalf("other seed: %v", err)
	}
	same := true
	for i := range first {
		if first[i] != other[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical order")
	}
}

func TestPickQuestionsOversubscribedFixed(t *testing.T) {
	rules := []allocationRule{
		{Position: 0, FixedCount: 7, Pool: idRange(1, 20)},
		{Position: 1, FixedCount: 6, Pool: idRange(21, 40)},
	}

	_, err := pickQuestions(10, rules, nil, idRange(1, 40), rand.New(rand.NewSource(1)))
	if !errors.Is(err, util.ErrExamMisconfigured) {
		t.Fatalf("got %v, want ErrExamMisconfigured", err)
	}
}

// Fixed rules claim their counts first and percentage rules split what is
// left: with 10 questions, 4 fixed plus a single 60% rule, the percentage
// rule is normalized to the whole remainder and yields 6.
func TestPickQuestionsFixedThenPercentage(t *testing.T) {
	poolA := idRange(1, 20)
	poolB := idRange(21, 40)
	rules := []allocationRule{
		{Position: 0, FixedCount: 4, Pool: poolA},
		{Position: 1, Percentage: 60, Pool: poolB},
	}

	selected, err := pickQuestions(10, rules, nil, nil, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("pickQuestions: %v", err)
	}
	counts := countByPool(t, selected, map[string][]uint{"a": poolA, "b": poolB})
	if counts["a"] != 4 || counts["b"] != 6 {
		t.Fatalf("got %d fixed and %d percentage, want 4 and 6", counts["a"], counts["b"])
	}
}

func TestPickQuestionsLargestRemainder(t *testing.T) {
	// 10 questions across 33/33/34: floors give 3+3+3, the leftover unit
	// goes to the largest remainder (the 34% rule).
	poolA := idRange(1, 20)
	poolB := idRange(21, 40)
	poolC := idRange(41, 60)
	rules := []allocationRule{
		{Position: 0, Percentage: 33, Pool: poolA},
		{Position: 1, Percentage: 33, Pool: poolB},
		{Position: 2, Percentage: 34, Pool: poolC},
	}

	selected, err := pickQuestions(10, rules, nil, nil, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("pickQuestions: %v", err)
	}
	counts := countByPool(t, selected, map[string][]uint{"a": poolA, "b": poolB, "c": poolC})
	if counts["a"] != 3 || counts["b"] != 3 || counts["c"] != 4 {
		t.Fatalf("got %d/%d/%d, want 3/3/4", counts["a"], counts["b"], counts["c"])
	}
}

func TestPickQuestionsRemainderTieBreaksByDeclarationOrder(t *testing.T) {
	// 50/50 over 5 questions: floors give 2+2, both remainders are 0.5,
	// so the earliest declared rule wins the leftover unit.
	poolA := idRange(1, 20)
	poolB := idRange(21, 40)
	rules := []allocationRule{
		{Position: 0, Percentage: 50, Pool: poolA},
		{Position: 1, Percentage: 50, Pool: poolB},
	}

	selected, err := pickQuestions(5, rules, nil, nil, rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatalf("pickQuestions: %v", err)
	}
	counts := countByPool(t, selected, map[string][]uint{"a": poolA, "b": poolB})
	if counts["a"] != 3 || counts["b"] != 2 {
		t.Fatalf("got %d/%d, want 3/2 (tie goes to the first rule)", counts["a"], counts["b"])
	}
}

func TestPickQuestionsLegacyFallback(t *testing.T) {
	// Rule pool holds only 3 questions for a fixed count of 5; the legacy
	// pool covers the shortfall before the global pool is touched.
	rulePool := idRange(1, 3)
	legacyPool := idRange(101, 150)
	globalPool := idRange(201, 250)
	rules := []allocationRule{
		{Position: 0, FixedCount: 5, Pool: rulePool},
	}

	selected, err := pickQuestions(5, rules, legacyPool, globalPool, rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatalf("pickQuestions: %v", err)
	}
	counts := countByPool(t, selected, map[string][]uint{
		"rule":   rulePool,
		"legacy": legacyPool,
		"global": globalPool,
	})
	if counts["rule"] != 3 || counts["legacy"] != 2 || counts["global"] != 0 {
		t.Fatalf("got rule=%d legacy=%d global=%d, want 3/2/0",
			counts["rule"], counts["legacy"], counts["global"])
	}
}

func TestPickQuestionsGlobalFallback(t *testing.T) {
	selected, err := pickQuestions(4, nil, nil, idRange(1, 10), rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatalf("pickQuestions: %v", err)
	}
	if len(selected) != 4 {
		t.Fatalf("got %d questions, want 4", len(selected))
	}
	assertNoDuplicates(t, selected)
}

func TestPickQuestionsInsufficient(t *testing.T) {
	_, err := pickQuestions(10, nil, idRange(1, 3), idRange(1, 6), rand.New(rand.NewSource(2)))
	if !errors.Is(err, util.ErrInsufficientQuestions) {
		t.Fatalf("got %v, want ErrInsufficientQuestions", err)
	}
}

func TestValidateExamConfig(t *testing.T) {
	fixed := func(n int) *int { return &n }

	tests := []struct {
		name    string
		exam    model.Exam
		wantErr bool
	}{
		{
			name: "valid mixed rules",
			exam: model.Exam{
				QuestionCount: 10,
				Allocations: []model.ExamCategoryAllocation{
					{CategoryID: 1, FixedCount: fixed(4)},
					{CategoryID: 2, Percentage: 60},
				},
			},
		},
		{
			name: "rule with both fixed and percentage",
			exam: model.Exam{
				QuestionCount: 10,
				Allocations: []model.ExamCategoryAllocation{
					{CategoryID: 1, FixedCount: fixed(4), Percentage: 40},
				},
			},
			wantErr: true,
		},
		{
			name: "fixed counts exceed question count",
			exam: model.Exam{
				QuestionCount: 10,
				Allocations: []model.ExamCategoryAllocation{
					{CategoryID: 1, FixedCount: fixed(7)},
					{CategoryID: 2, FixedCount: fixed(6)},
				},
			},
			wantErr: true,
		},
		{
			name: "percentages exceed 100",
			exam: model.Exam{
				QuestionCount: 10,
				Allocations: []model.ExamCategoryAllocation{
					{CategoryID: 1, Percentage: 60},
					{CategoryID: 2, Percentage: 50},
				},
			},
			wantErr: true,
		},
		{
			name: "single percentage above 100",
			exam: model.Exam{
				QuestionCount: 10,
				Allocations: []model.ExamCategoryAllocation{
					{CategoryID: 1, Percentage: 120},
				},
			},
			wantErr: true,
		},
		{
			name: "no rules at all",
			exam: model.Exam{QuestionCount: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExamConfig(&tt.exam)
			if (err != nil) != tt.wantErr {
				t.Fatalf("got err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}
