package service

import (
	"math"
	"math/rand"
	"sort"

	"certprep_backend/internal/model"
	"certprep_backend/internal/repository"
	"certprep_backend/internal/util"

	"gorm.io/gorm"
)

// AllocationService resolves an exam's question set ONCE per attempt. The
// result is persisted verbatim as the attempt's question_order and never
// recomputed. Seeding with the attempt ID makes a given attempt reproduce
// the same selection while different attempts diverge.
type AllocationService struct {
	QuestionRepo *repository.QuestionRepository
	CategoryRepo *repository.CategoryRepository
}

func NewAllocationService(questionRepo *repository.QuestionRepository, categoryRepo *repository.CategoryRepository) *AllocationService {
	return &AllocationService{
		QuestionRepo: questionRepo,
		CategoryRepo: categoryRepo,
	}
}

// allocationRule is one category quota with its resolved question pool.
type allocationRule struct {
	Position   int
	FixedCount int
	Percentage int
	Pool       []uint
}

// Allocate returns exactly exam.QuestionCount question IDs, or
// util.ErrExamMisconfigured when fixed counts oversubscribe the quota, or
// util.ErrInsufficientQuestions when even the global fallback pool cannot
// fill it. Pools are read through tx so attempt creation sees a
// consistent snapshot.
func (s *AllocationService) Allocate(tx *gorm.DB, exam *model.Exam, seed int64) ([]uint, error) {
	totalNeeded := exam.QuestionCount
	if totalNeeded <= 0 {
		return []uint{}, nil
	}

	rules := make([]allocationRule, 0, len(exam.Allocations))
	for i, alloc := range exam.Allocations {
		catIDs, err := s.CategoryRepo.DescendantIDs(tx, alloc.CategoryID)
		if err != nil {
			return nil, err
		}
		pool, err := s.QuestionRepo.ActiveIDsByCategories(tx, catIDs)
		if err != nil {
			return nil, err
		}
		fixed := 0
		if alloc.FixedCount != nil {
			fixed = *alloc.FixedCount
		}
		rules = append(rules, allocationRule{
			Position:   i,
			FixedCount: fixed,
			Percentage: alloc.Percentage,
			Pool:       pool,
		})
	}

	var legacyPool []uint
	if exam.CategoryID != nil {
		catIDs, err := s.CategoryRepo.DescendantIDs(tx, *exam.CategoryID)
		if err != nil {
			return nil, err
		}
		legacyPool, err = s.QuestionRepo.ActiveIDsByCategories(tx, catIDs)
		if err != nil {
			return nil, err
		}
	}

	globalPool, err := s.QuestionRepo.ActiveIDs(tx)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	return pickQuestions(totalNeeded, rules, legacyPool, globalPool, rng)
}

// pickQuestions is the allocation core, deterministic for a given rng
// state and pool contents. Fixed counts draw first, percentages split the
// remainder by largest-remainder apportionment, then the legacy and
// global pools backfill.
func pickQuestions(totalNeeded int, rules []allocationRule, legacyPool, globalPool []uint, rng *rand.Rand) ([]uint, error) {
	fixedTotal := 0
	for _, r := range rules {
		fixedTotal += r.FixedCount
	}
	if fixedTotal > totalNeeded {
		return nil, util.ErrExamMisconfigured
	}

	selected := make([]uint, 0, totalNeeded)
	selectedSet := make(map[uint]bool, totalNeeded)
	take := func(pool []uint, n int) {
		candidates := make([]uint, 0, len(pool))
		for _, id := range pool {
			if !selectedSet[id] {
				candidates = append(candidates, id)
			}
		}
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		if n > len(candidates) {
			n = len(candidates)
		}
		for _, id := range candidates[:n] {
			selected = append(selected, id)
			selectedSet[id] = true
		}
	}

	// Fixed counts first. A short pool under-fills without error; the
	// fallbacks cover the gap.
	remaining := totalNeeded
	percentRules := make([]allocationRule, 0, len(rules))
	percentSum := 0
	for _, r := range rules {
		if r.FixedCount > 0 {
			before := len(selected)
			take(r.Pool, r.FixedCount)
			remaining -= len(selected) - before
		} else if r.Percentage > 0 {
			percentRules = append(percentRules, r)
			percentSum += r.Percentage
		}
	}

	// Percentage rules split what the fixed rules left, normalized
	// against the declared percentage sum. Floor first, then hand the
	// leftover units to the largest fractional remainders; ties go to
	// the earliest declared rule.
	if len(percentRules) > 0 && remaining > 0 && percentSum > 0 {
		type share struct {
			rule      allocationRule
			count     int
			remainder float64
		}
		shares := make([]share, len(percentRules))
		allocated := 0
		for i, r := range percentRules {
			scaled := float64(r.Percentage) / float64(percentSum) * float64(remaining)
			count := int(math.Floor(scaled))
			shares[i] = share{rule: r, count: count, remainder: scaled - float64(count)}
			allocated += count
		}

		order := make([]int, len(shares))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return shares[order[a]].remainder > shares[order[b]].remainder
		})
		left := remaining - allocated
		for _, idx := range order {
			if left <= 0 {
				break
			}
			shares[idx].count++
			left--
		}

		for _, sh := range shares {
			if sh.count <= 0 {
				continue
			}
			before := len(selected)
			take(sh.rule.Pool, sh.count)
			remaining -= len(selected) - before
		}
	}

	// Fallbacks: legacy single category subtree, then the global pool.
	if len(selected) < totalNeeded {
		take(legacyPool, totalNeeded-len(selected))
	}
	if len(selected) < totalNeeded {
		take(globalPool, totalNeeded-len(selected))
	}

	// Never return a silently short list.
	if len(selected) < totalNeeded {
		return nil, util.ErrInsufficientQuestions
	}

	rng.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})
	return selected[:totalNeeded], nil
}

// ValidateExamConfig checks an exam's allocation rules at curation time so
// misconfiguration surfaces to the admin, not to the first student.
func ValidateExamConfig(exam *model.Exam) error {
	fixedTotal := 0
	percentTotal := 0
	for _, a := range exam.Allocations {
		if a.FixedCount != nil && *a.FixedCount > 0 && a.Percentage > 0 {
			return util.ErrExamMisconfigured
		}
		if a.Percentage > 100 {
			return util.ErrExamMisconfigured
		}
		if a.FixedCount != nil {
			fixedTotal += *a.FixedCount
		} else {
			percentTotal += a.Percentage
		}
	}
	if fixedTotal > exam.QuestionCount {
		return util.ErrExamMisconfigured
	}
	if percentTotal > 100 {
		return util.ErrExamMisconfigured
	}
	return nil
}
