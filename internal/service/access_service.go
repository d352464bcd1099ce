package service

import (
	"context"
	"fmt"
	"time"

	"certprep_backend/internal/model"
	"certprep_backend/internal/repository"
	"certprep_backend/internal/util"

	"github.com/go-redis/redis/v8"
)

// AccessService decides whether a user may enter an exam: the exam must
// be published, a premium exam needs an active subscription, and every
// prerequisite exam needs a passing real attempt. Mock attempts are
// additionally capped per exam.
type AccessService struct {
	ExamRepo         *repository.ExamRepository
	AttemptRepo      *repository.AttemptRepository
	SubscriptionRepo *repository.SubscriptionRepository
	Redis            *redis.Client
}

func NewAccessService(
	examRepo *repository.ExamRepository,
	attemptRepo *repository.AttemptRepository,
	subscriptionRepo *repository.SubscriptionRepository,
	rdb *redis.Client,
) *AccessService {
	return &AccessService{
		ExamRepo:         examRepo,
		AttemptRepo:      attemptRepo,
		SubscriptionRepo: subscriptionRepo,
		Redis:            rdb,
	}
}

// Subscription checks hit the database rarely; a short cache keeps the
// exam-list page cheap without holding a stale denial for long.
const accessCacheTTL = 30 * time.Second

// LockReason explains why an exam is closed to a user. Empty means open.
type LockReason string

const (
	LockNone          LockReason = ""
	LockUnpublished   LockReason = "unpublished"
	LockSubscription  LockReason = "subscription_required"
	LockPrerequisites LockReason = "prerequisites_not_met"
)

// Check returns the first reason the exam is closed to the user, or
// LockNone when the user may start an attempt.
func (s *AccessService) Check(userID uint, exam *model.Exam) (LockReason, error) {
	if !exam.IsPublished {
		return LockUnpublished, nil
	}
	if exam.IsPremium {
		ok, err := s.hasActiveSubscription(userID, exam.ID)
		if err != nil {
			return LockNone, err
		}
		if !ok {
			return LockSubscription, nil
		}
	}
	ok, err := s.hasPassedPrerequisites(userID, exam)
	if err != nil {
		return LockNone, err
	}
	if !ok {
		return LockPrerequisites, nil
	}
	return LockNone, nil
}

// Authorize is Check mapped onto sentinel errors for the start path.
func (s *AccessService) Authorize(userID uint, exam *model.Exam) error {
	reason, err := s.Check(userID, exam)
	if err != nil {
		return err
	}
	switch reason {
	case LockNone:
		return nil
	case LockUnpublished:
		return util.ErrExamNotPublished
	default:
		return util.ErrExamNotAccessible
	}
}

// AuthorizeMock layers the per-exam mock cap on top of the regular gate.
// MaxMockAttempts of zero means unlimited.
func (s *AccessService) AuthorizeMock(userID uint, exam *model.Exam) error {
	if err := s.Authorize(userID, exam); err != nil {
		return err
	}
	if exam.MaxMockAttempts <= 0 {
		return nil
	}
	used, err := s.AttemptRepo.CountMockAttempts(userID, exam.ID)
	if err != nil {
		return err
	}
	if used >= int64(exam.MaxMockAttempts) {
		return util.ErrMockLimitReached
	}
	return nil
}

func (s *AccessService) hasActiveSubscription(userID, examID uint) (bool, error) {
	key := fmt.Sprintf("access:sub:%d:%d", userID, examID)
	if s.Redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		cached, err := s.Redis.Get(ctx, key).Result()
		cancel()
		if err == nil {
			return cached == "1", nil
		}
	}

	sub, err := s.SubscriptionRepo.FindActive(userID, examID)
	if err != nil {
		return false, err
	}
	ok := sub != nil && sub.IsValid(time.Now())

	if s.Redis != nil {
		val := "0"
		if ok {
			val = "1"
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		s.Redis.Set(ctx, key, val, accessCacheTTL)
		cancel()
	}
	return ok, nil
}

func (s *AccessService) hasPassedPrerequisites(userID uint, exam *model.Exam) (bool, error) {
	if len(exam.PrerequisiteExams) == 0 {
		full, err := s.ExamRepo.FindByIDWithPrerequisites(exam.ID)
		if err != nil {
			return false, err
		}
		exam = full
	}
	for _, prereq := range exam.PrerequisiteExams {
		passed, err := s.AttemptRepo.HasPassed(userID, prereq.ID)
		if err != nil {
			return false, err
		}
		if !passed {
			return false, nil
		}
	}
	return true, nil
}
