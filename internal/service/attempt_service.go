package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"certprep_backend/internal/model"
	"certprep_backend/internal/repository"
	"certprep_backend/internal/util"
	"certprep_backend/pkg/logger"
	"certprep_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AttemptSubmittedChannel carries terminal-state events for external
// listeners (course completion, progress tracking). The attempt engine
// only publishes; it never calls listeners directly.
const AttemptSubmittedChannel = "certprep.attempt.submitted"

// AttemptService owns the attempt lifecycle: in_progress → submitted,
// with no way back. The time box is enforced lazily, on every read of an
// in-progress attempt; an abandoned attempt that nobody reads stays
// in_progress until a future request touches it.
type AttemptService struct {
	AttemptRepo *repository.AttemptRepository
	AnswerRepo  *repository.AnswerRepository
	ExamRepo    *repository.ExamRepository
	Allocation  *AllocationService
	Grading     *GradingService
	Autosave    *AutosaveService
	Redis       *redis.Client
	DB          *gorm.DB
}

func NewAttemptService(
	attemptRepo *repository.AttemptRepository,
	answerRepo *repository.AnswerRepository,
	examRepo *repository.ExamRepository,
	allocation *AllocationService,
	grading *GradingService,
	autosave *AutosaveService,
	rdb *redis.Client,
	db *gorm.DB,
) *AttemptService {
	return &AttemptService{
		AttemptRepo: attemptRepo,
		AnswerRepo:  answerRepo,
		ExamRepo:    examRepo,
		Allocation:  allocation,
		Grading:     grading,
		Autosave:    autosave,
		Redis:       rdb,
		DB:          db,
	}
}

// Start creates an attempt, fixes its question order, and eagerly creates
// one answer row per allocated question — all in one transaction. A
// concurrent start for the same (user, exam) converges on the existing
// open attempt via the row lock. Allocation failure rolls the whole
// creation back.
func (s *AttemptService) Start(userID, examID uint, isMock bool) (*model.ExamAttempt, error) {
	exam, err := s.ExamRepo.FindByID(examID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}

	var attempt *model.ExamAttempt
	created := false
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		existing, err := s.AttemptRepo.FindOpenForUpdate(tx, userID, examID)
		if err != nil {
			return err
		}
		if existing != nil {
			attempt = existing
			return nil
		}

		attempt = &model.ExamAttempt{
			UserID:    userID,
			ExamID:    examID,
			Status:    model.AttemptInProgress,
			IsMock:    isMock,
			StartedAt: time.Now(),
		}
		if err := s.AttemptRepo.Create(tx, attempt); err != nil {
			return err
		}

		// The attempt's own ID seeds allocation, so recomputing for this
		// attempt always reproduces the same selection.
		order, err := s.Allocation.Allocate(tx, exam, int64(attempt.ID))
		if err != nil {
			return err
		}
		if err := attempt.SetOrderIDs(order); err != nil {
			return err
		}
		attempt.CurrentIndex = 0
		if err := tx.Save(attempt).Error; err != nil {
			return err
		}

		answers := make([]model.AttemptAnswer, 0, len(order))
		for _, qid := range order {
			answers = append(answers, model.AttemptAnswer{
				AttemptID:  attempt.ID,
				QuestionID: qid,
			})
		}
		if err := s.AnswerRepo.CreateBatch(tx, answers); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if created {
		monitoring.AttemptsStarted.WithLabelValues(strconv.FormatBool(isMock)).Inc()
	}
	return attempt, nil
}

// AttemptQuestion is the navigation payload for one position in the
// attempt's fixed question order.
type AttemptQuestion struct {
	Attempt   *model.ExamAttempt   `json:"attempt"`
	Question  *model.Question      `json:"question"`
	Answer    *model.AttemptAnswer `json:"answer"`
	Index     int                  `json:"index"`
	Total     int                  `json:"total"`
	Remaining int                  `json:"remaining"`
	Progress  int                  `json:"progress"`
}

// Question returns the question at the given position together with its
// answer row. An out-of-range index falls back to the attempt's current
// index rather than erroring. Every call re-checks the time box and
// finalizes an expired attempt before returning ErrAttemptExpired.
func (s *AttemptService) Question(userID, attemptID uint, index int) (*AttemptQuestion, error) {
	attempt, exam, err := s.loadOwned(userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.SubmittedAt != nil {
		return nil, util.ErrAttemptSubmitted
	}

	remaining := attempt.TimeRemaining(exam.DurationSeconds, time.Now())
	if remaining <= 0 {
		if err := s.expire(attempt); err != nil {
			return nil, err
		}
		return nil, util.ErrAttemptExpired
	}

	qids := attempt.OrderIDs()
	if len(qids) == 0 {
		return nil, util.ErrAttemptNotFound
	}
	if index < 0 || index >= len(qids) {
		index = attempt.CurrentIndex
		if index < 0 || index >= len(qids) {
			index = 0
		}
	}

	qid := qids[index]
	question, err := s.Grading.QuestionRepo.FindByID(qid)
	if err != nil {
		return nil, err
	}
	question = question.Redacted()
	answer, err := s.AnswerRepo.Find(attempt.ID, qid)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	if answer != nil {
		answer = answer.Redacted()
	}

	attempt.CurrentIndex = index
	if err := s.AttemptRepo.UpdateCurrentIndex(attempt.ID, index); err != nil {
		return nil, err
	}

	return &AttemptQuestion{
		Attempt:   attempt,
		Question:  question,
		Answer:    answer,
		Index:     index,
		Total:     len(qids),
		Remaining: remaining,
		Progress:  (index + 1) * 100 / len(qids),
	}, nil
}

// SaveAnswers runs the autosave path for an in-progress attempt. It is
// also the interactive per-question save: both paths share one set of
// answer-shape rules so they cannot drift.
func (s *AttemptService) SaveAnswers(userID, attemptID uint, form AnswerForm) error {
	attempt, exam, err := s.loadOwned(userID, attemptID)
	if err != nil {
		return err
	}
	if attempt.SubmittedAt != nil {
		return util.ErrAttemptSubmitted
	}
	if attempt.TimeRemaining(exam.DurationSeconds, time.Now()) <= 0 {
		if err := s.expire(attempt); err != nil {
			return err
		}
		return util.ErrAttemptExpired
	}
	return s.Autosave.Save(attempt, form)
}

// Submit grades the attempt and writes the terminal fields atomically. A
// second submit is the benign double-click race and reports
// ErrAttemptSubmitted so the caller can redirect to the result. An
// expired attempt finalizes as a failing zero instead of grading.
func (s *AttemptService) Submit(userID, attemptID uint, form AnswerForm) (*model.ExamAttempt, error) {
	attempt, exam, err := s.loadOwned(userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.SubmittedAt != nil {
		return attempt, util.ErrAttemptSubmitted
	}

	if attempt.TimeRemaining(exam.DurationSeconds, time.Now()) <= 0 {
		if err := s.expire(attempt); err != nil {
			return nil, err
		}
		return attempt, nil
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		locked, err := s.AttemptRepo.FindByIDForUpdate(tx, attempt.ID)
		if err != nil {
			return err
		}
		if locked.SubmittedAt != nil {
			attempt = locked
			return util.ErrAttemptSubmitted
		}

		score, passed, err := s.Grading.GradeAttempt(tx, locked, exam, form)
		if err != nil {
			return err
		}

		now := time.Now()
		locked.Score = &score
		locked.Passed = passed
		locked.SubmittedAt = &now
		locked.Status = model.AttemptSubmitted
		if err := tx.Save(locked).Error; err != nil {
			return err
		}
		attempt = locked
		return nil
	})
	if err != nil {
		return attempt, err
	}

	s.publishSubmitted(attempt)
	monitoring.AttemptsSubmitted.WithLabelValues(submitOutcome(attempt)).Inc()
	return attempt, nil
}

// ReviewEntry pairs one question with the graded answer for the result
// page. Unlike the in-attempt view, the question here carries its full
// correctness payload and explanation.
type ReviewEntry struct {
	Question *model.Question      `json:"question"`
	Answer   *model.AttemptAnswer `json:"answer"`
}

// Result returns a terminal attempt with its per-question review; reading
// an in-progress attempt whose time box has lapsed finalizes it first, so
// the result page is always a safe landing spot.
func (s *AttemptService) Result(userID, attemptID uint) (*model.ExamAttempt, []ReviewEntry, error) {
	attempt, exam, err := s.loadOwned(userID, attemptID)
	if err != nil {
		return nil, nil, err
	}
	if attempt.SubmittedAt == nil {
		if attempt.TimeRemaining(exam.DurationSeconds, time.Now()) > 0 {
			return nil, nil, util.ErrAttemptNotFound
		}
		if err := s.expire(attempt); err != nil {
			return nil, nil, err
		}
	}

	answers, err := s.AnswerRepo.ListByAttempt(nil, attempt.ID)
	if err != nil {
		return nil, nil, err
	}
	byQuestion := make(map[uint]*model.AttemptAnswer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	qids := attempt.OrderIDs()
	questions, err := s.Grading.QuestionRepo.FindByIDs(s.DB, qids)
	if err != nil {
		return nil, nil, err
	}
	qmap := make(map[uint]*model.Question, len(questions))
	for i := range questions {
		qmap[questions[i].ID] = &questions[i]
	}

	review := make([]ReviewEntry, 0, len(qids))
	for _, qid := range qids {
		q, ok := qmap[qid]
		if !ok {
			continue
		}
		review = append(review, ReviewEntry{Question: q, Answer: byQuestion[qid]})
	}
	return attempt, review, nil
}

func (s *AttemptService) List(userID, examID uint, page, limit int) ([]model.ExamAttempt, int64, error) {
	return s.AttemptRepo.ListByUser(userID, examID, page, limit)
}

func (s *AttemptService) loadOwned(userID, attemptID uint) (*model.ExamAttempt, *model.Exam, error) {
	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, util.ErrAttemptNotFound
		}
		return nil, nil, err
	}
	if attempt.UserID != userID {
		return nil, nil, util.ErrAttemptNotFound
	}
	exam, err := s.ExamRepo.FindByID(attempt.ExamID)
	if err != nil {
		return nil, nil, err
	}
	return attempt, exam, nil
}

// expire finalizes a timed-out attempt as a failing zero. Idempotent: the
// submitted_at guard under the row lock means repeated reads of the same
// expired attempt write the terminal fields exactly once.
func (s *AttemptService) expire(attempt *model.ExamAttempt) error {
	published := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		locked, err := s.AttemptRepo.FindByIDForUpdate(tx, attempt.ID)
		if err != nil {
			return err
		}
		if locked.SubmittedAt != nil {
			*attempt = *locked
			return nil
		}
		now := time.Now()
		zero := 0.0
		failed := false
		locked.Score = &zero
		locked.SubmittedAt = &now
		locked.Status = model.AttemptSubmitted
		if locked.IsMock {
			locked.Passed = nil
		} else {
			locked.Passed = &failed
		}
		if err := tx.Save(locked).Error; err != nil {
			return err
		}
		*attempt = *locked
		published = true
		return nil
	})
	if err != nil {
		return err
	}
	if published {
		s.publishSubmitted(attempt)
		monitoring.AttemptsSubmitted.WithLabelValues("expired").Inc()
	}
	return nil
}

// publishSubmitted emits the terminal-state event. Delivery is best
// effort; the terminal fields themselves are the source of truth.
func (s *AttemptService) publishSubmitted(attempt *model.ExamAttempt) {
	if s.Redis == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"attemptId": attempt.ID,
		"userId":    attempt.UserID,
		"examId":    attempt.ExamID,
		"score":     attempt.Score,
		"passed":    attempt.Passed,
		"isMock":    attempt.IsMock,
	})
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Redis.Publish(ctx, AttemptSubmittedChannel, payload).Err(); err != nil {
		logger.Log.Warn("failed to publish attempt submitted event",
			zap.Uint("attemptId", attempt.ID), zap.Error(err))
	}
}

func submitOutcome(attempt *model.ExamAttempt) string {
	switch {
	case attempt.IsMock:
		return "mock"
	case attempt.Passed != nil && *attempt.Passed:
		return "passed"
	default:
		return "failed"
	}
}
