package service

import (
	"math"
	"strconv"
	"strings"

	"certprep_backend/internal/model"
	"certprep_backend/internal/repository"

	"gorm.io/gorm"
)

// Verdict is the explicit three-valued grading outcome. Partial covers
// multi-select and matching answers that earned fractional credit; it maps
// to NULL in the persisted is_correct column.
type Verdict int

const (
	VerdictIncorrect Verdict = iota
	VerdictCorrect
	VerdictPartial
)

// Nullable converts a verdict to the persisted nullable-bool shape.
func (v Verdict) Nullable() *bool {
	switch v {
	case VerdictCorrect:
		t := true
		return &t
	case VerdictIncorrect:
		f := false
		return &f
	default:
		return nil
	}
}

// GradingService scores a whole attempt at submission time. It is the
// only place partial credit is computed; autosave never scores.
type GradingService struct {
	QuestionRepo *repository.QuestionRepository
	AnswerRepo   *repository.AnswerRepository
}

func NewGradingService(questionRepo *repository.QuestionRepository, answerRepo *repository.AnswerRepository) *GradingService {
	return &GradingService{
		QuestionRepo: questionRepo,
		AnswerRepo:   answerRepo,
	}
}

// GradeAttempt walks the attempt's immutable question order, grades every
// answer row under a row lock, and returns the percentage score and the
// pass verdict (nil for mock attempts). A malformed response for one
// question never aborts grading of its siblings. Must run inside the
// submission transaction.
func (s *GradingService) GradeAttempt(tx *gorm.DB, attempt *model.ExamAttempt, exam *model.Exam, form AnswerForm) (float64, *bool, error) {
	qids := attempt.OrderIDs()
	if len(qids) == 0 {
		// Legacy attempts without a stored order grade whatever answer
		// rows exist, in creation order.
		answers, err := s.AnswerRepo.ListByAttempt(tx, attempt.ID)
		if err != nil {
			return 0, nil, err
		}
		for _, a := range answers {
			qids = append(qids, a.QuestionID)
		}
	}

	questions, err := s.QuestionRepo.FindByIDs(tx, qids)
	if err != nil {
		return 0, nil, err
	}
	qmap := make(map[uint]*model.Question, len(questions))
	for i := range questions {
		qmap[questions[i].ID] = &questions[i]
	}

	total := 0
	scoreAcc := 0.0
	for _, qid := range qids {
		total++

		ans, err := s.AnswerRepo.FindOrCreateForUpdate(tx, attempt.ID, qid)
		if err != nil {
			return 0, nil, err
		}
		q, ok := qmap[qid]
		if !ok {
			// Question hard-deleted since allocation; counts against
			// the total but cannot score.
			continue
		}

		scoreAcc += gradeAnswer(q, ans, form)
		if err := s.AnswerRepo.Save(tx, ans); err != nil {
			return 0, nil, err
		}
	}

	scorePercent := 0.0
	if total > 0 {
		scorePercent = round2(scoreAcc / float64(total) * 100)
	}

	if attempt.IsMock {
		return scorePercent, nil, nil
	}
	passed := scorePercent >= exam.PassingScore
	return scorePercent, &passed, nil
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// normalizeText lowercases and collapses internal whitespace, the
// canonical fill-in comparison form.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// gradeAnswer grades one answer row in place and returns its fractional
// contribution in [0, 1]. A field missing from the form falls back to the
// autosaved state; a malformed field is coerced to "no answer".
func gradeAnswer(q *model.Question, ans *model.AttemptAnswer, form AnswerForm) float64 {
	switch q.QuestionType {
	case model.QuestionSingle, model.QuestionDropdown, model.QuestionTrueFalse:
		return gradeSingle(q, ans, form)
	case model.QuestionMulti:
		return gradeMulti(q, ans, form)
	case model.QuestionFillBlank:
		return gradeFill(q, ans, form)
	case model.QuestionNumeric:
		return gradeNumeric(q, ans, form)
	case model.QuestionMatching:
		return gradeMatching(q, ans, form)
	case model.QuestionOrdering:
		return gradeOrdering(q, ans, form)
	default:
		// Unknown type tag: preserve whatever the autosave path stored.
		if ans.IsCorrect != nil && *ans.IsCorrect {
			return 1.0
		}
		return 0.0
	}
}

func gradeSingle(q *model.Question, ans *model.AttemptAnswer, form AnswerForm) float64 {
	priorCorrect := ans.ChoiceID != nil && ans.IsCorrect != nil && *ans.IsCorrect

	// keepPrior retains the autosaved verdict; a row that was never
	// answered settles as incorrect, not ungraded.
	keepPrior := func() float64 {
		if priorCorrect {
			return 1.0
		}
		if ans.ChoiceID == nil {
			ans.IsCorrect = VerdictIncorrect.Nullable()
		}
		return 0.0
	}

	raw, posted := form.First(questionFieldKey(q.ID))
	if !posted {
		return keepPrior()
	}

	choiceID, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return keepPrior()
	}

	var chosen *model.Choice
	for i := range q.Choices {
		if q.Choices[i].ID == uint(choiceID) {
			chosen = &q.Choices[i]
			break
		}
	}
	if chosen == nil {
		// Choice does not belong to this question; treat as no answer.
		return keepPrior()
	}

	id := chosen.ID
	ans.ChoiceID = &id
	ans.Selections = nil
	ans.RawAnswer = ""
	if chosen.IsCorrect {
		ans.IsCorrect = VerdictCorrect.Nullable()
		return 1.0
	}
	ans.IsCorrect = VerdictIncorrect.Nullable()
	return 0.0
}

func gradeMulti(q *model.Question, ans *model.AttemptAnswer, form AnswerForm) float64 {
	vals := form.Values(questionFieldKey(q.ID))
	var selected []uint
	if len(vals) > 0 {
		selected = parseChoiceIDs(vals)
		ans.SetSelectedIDs(selected)
	} else {
		// Fall back to the autosaved selection set.
		selected = ans.SelectedIDs()
	}
	ans.ChoiceID = nil
	ans.RawAnswer = ""

	correctSet := q.CorrectChoiceIDs()
	selectedSet := make(map[uint]bool, len(selected))
	for _, id := range selected {
		selectedSet[id] = true
	}

	truePos, falsePos := 0, 0
	for id := range selectedSet {
		if correctSet[id] {
			truePos++
		} else {
			falsePos++
		}
	}

	switch {
	case len(selectedSet) == 0:
		ans.IsCorrect = VerdictIncorrect.Nullable()
		return 0.0
	case truePos == len(correctSet) && falsePos == 0:
		ans.IsCorrect = VerdictCorrect.Nullable()
		return 1.0
	case truePos == 0:
		ans.IsCorrect = VerdictIncorrect.Nullable()
		return 0.0
	default:
		// Partial credit: false positives penalized at half weight.
		ans.IsCorrect = VerdictPartial.Nullable()
		denom := len(correctSet)
		if denom < 1 {
			denom = 1
		}
		return math.Max(0, (float64(truePos)-0.5*float64(falsePos))/float64(denom))
	}
}

func gradeFill(q *model.Question, ans *model.AttemptAnswer, form AnswerForm) float64 {
	raw, posted := form.First(questionFieldKey(q.ID))
	if posted {
		ans.RawAnswer = strings.TrimSpace(raw)
	}
	ans.ChoiceID = nil
	ans.Selections = nil

	if q.CorrectText != "" && normalizeText(ans.RawAnswer) == normalizeText(q.CorrectText) {
		ans.IsCorrect = VerdictCorrect.Nullable()
		return 1.0
	}
	ans.IsCorrect = VerdictIncorrect.Nullable()
	return 0.0
}

func gradeNumeric(q *model.Question, ans *model.AttemptAnswer, form AnswerForm) float64 {
	raw, posted := form.First(questionFieldKey(q.ID))
	if posted {
		ans.RawAnswer = strings.TrimSpace(raw)
	}
	ans.ChoiceID = nil
	ans.Selections = nil

	val, err := strconv.ParseFloat(ans.RawAnswer, 64)
	if err != nil || q.NumericAnswer == nil {
		ans.IsCorrect = VerdictIncorrect.Nullable()
		return 0.0
	}
	if math.Abs(val-*q.NumericAnswer) <= q.NumericTolerance {
		ans.IsCorrect = VerdictCorrect.Nullable()
		return 1.0
	}
	ans.IsCorrect = VerdictIncorrect.Nullable()
	return 0.0
}

func gradeMatching(q *model.Question, ans *model.AttemptAnswer, form AnswerForm) float64 {
	pairs := q.Pairs()
	if len(pairs) == 0 {
		ans.IsCorrect = VerdictIncorrect.Nullable()
		return 0.0
	}

	saved := ans.MatchMap()
	userMap := make(map[string]string, len(pairs))
	truePos, falsePos := 0, 0

	for i, pair := range pairs {
		key := strconv.Itoa(i)
		val, posted := form.First(matchFieldKey(q.ID, i))
		if !posted {
			val = saved[key]
		}
		if val == "" {
			falsePos++
			continue
		}
		userMap[key] = val
		if strings.TrimSpace(val) == strings.TrimSpace(pair.Right) {
			truePos++
		} else {
			falsePos++
		}
	}

	ans.SetMatchMap(userMap)
	ans.ChoiceID = nil
	ans.RawAnswer = ""

	fraction := math.Max(0, (float64(truePos)-0.5*float64(falsePos))/float64(len(pairs)))
	switch {
	case truePos == len(pairs) && falsePos == 0:
		ans.IsCorrect = VerdictCorrect.Nullable()
	case fraction == 0:
		ans.IsCorrect = VerdictIncorrect.Nullable()
	default:
		ans.IsCorrect = VerdictPartial.Nullable()
	}
	return fraction
}

func gradeOrdering(q *model.Question, ans *model.AttemptAnswer, form AnswerForm) float64 {
	raw, posted := form.First(questionFieldKey(q.ID))
	if posted {
		ans.RawAnswer = strings.TrimSpace(raw)
	}
	ans.ChoiceID = nil
	ans.Selections = nil

	canonical := q.Ordering()
	if len(canonical) == 0 {
		ans.IsCorrect = VerdictIncorrect.Nullable()
		return 0.0
	}

	var submitted []string
	for _, part := range strings.Split(ans.RawAnswer, ",") {
		if p := strings.TrimSpace(part); p != "" {
			submitted = append(submitted, p)
		}
	}

	correctPositions := 0
	for i, val := range submitted {
		if i < len(canonical) && strings.EqualFold(strings.TrimSpace(canonical[i]), val) {
			correctPositions++
		}
	}

	fraction := float64(correctPositions) / float64(len(canonical))
	switch {
	case correctPositions == len(canonical):
		ans.IsCorrect = VerdictCorrect.Nullable()
	case correctPositions == 0:
		ans.IsCorrect = VerdictIncorrect.Nullable()
	default:
		ans.IsCorrect = VerdictPartial.Nullable()
	}
	return fraction
}
