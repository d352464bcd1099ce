package service

import (
	"certprep_backend/internal/model"
	"certprep_backend/internal/repository"
	"certprep_backend/internal/util"

	"gorm.io/gorm"
)

// ExamService covers the authoring side: exams, their allocation rules,
// and publishing. Allocation rules are validated on every write so a
// broken configuration can never reach the start path.
type ExamService struct {
	ExamRepo *repository.ExamRepository
	Access   *AccessService
}

func NewExamService(examRepo *repository.ExamRepository, access *AccessService) *ExamService {
	return &ExamService{ExamRepo: examRepo, Access: access}
}

func (s *ExamService) Create(exam *model.Exam) error {
	if err := ValidateExamConfig(exam); err != nil {
		return err
	}
	return s.ExamRepo.Create(exam)
}

func (s *ExamService) Update(exam *model.Exam) error {
	if err := ValidateExamConfig(exam); err != nil {
		return err
	}
	return s.ExamRepo.Update(exam)
}

func (s *ExamService) Get(id uint) (*model.Exam, error) {
	exam, err := s.ExamRepo.FindByID(id)
	if err == gorm.ErrRecordNotFound {
		return nil, util.ErrExamNotFound
	}
	return exam, err
}

// SetAllocations replaces the exam's allocation rules wholesale. The
// combined exam is validated before anything is written.
func (s *ExamService) SetAllocations(examID uint, rules []model.ExamCategoryAllocation) error {
	exam, err := s.Get(examID)
	if err != nil {
		return err
	}
	exam.Allocations = rules
	if err := ValidateExamConfig(exam); err != nil {
		return err
	}
	return s.ExamRepo.ReplaceAllocations(examID, rules)
}

func (s *ExamService) SetPublished(examID uint, published bool) error {
	exam, err := s.Get(examID)
	if err != nil {
		return err
	}
	if published {
		if err := ValidateExamConfig(exam); err != nil {
			return err
		}
	}
	exam.IsPublished = published
	return s.ExamRepo.Update(exam)
}

// ExamListing is one exam on the catalog page, annotated with why it is
// closed to the viewing user (if it is).
type ExamListing struct {
	Exam       model.Exam `json:"exam"`
	LockReason LockReason `json:"lockReason,omitempty"`
}

// ListForUser returns published exams with per-user lock reasons so the
// catalog can render locked cards instead of hiding them.
func (s *ExamService) ListForUser(userID uint, page, limit int) ([]ExamListing, int64, error) {
	exams, total, err := s.ExamRepo.ListPublished(page, limit)
	if err != nil {
		return nil, 0, err
	}
	listings := make([]ExamListing, 0, len(exams))
	for i := range exams {
		reason, err := s.Access.Check(userID, &exams[i])
		if err != nil {
			return nil, 0, err
		}
		listings = append(listings, ExamListing{Exam: exams[i], LockReason: reason})
	}
	return listings, total, nil
}

func (s *ExamService) ListAll(page, limit int) ([]model.Exam, int64, error) {
	return s.ExamRepo.ListAll(page, limit)
}
