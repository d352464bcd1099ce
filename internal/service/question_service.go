package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"certprep_backend/internal/model"
	"certprep_backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuestionService covers authoring of questions and their correctness
// payloads. Each question type carries a different payload shape and is
// validated before any write.
type QuestionService struct {
	QuestionRepo *repository.QuestionRepository
	CategoryRepo *repository.CategoryRepository
	Storage      *StorageService
}

func NewQuestionService(questionRepo *repository.QuestionRepository, categoryRepo *repository.CategoryRepository, storage *StorageService) *QuestionService {
	return &QuestionService{QuestionRepo: questionRepo, CategoryRepo: categoryRepo, Storage: storage}
}

// ValidateQuestion checks that the question's correctness payload matches
// its type tag.
func ValidateQuestion(q *model.Question) error {
	switch q.QuestionType {
	case model.QuestionSingle, model.QuestionDropdown:
		return validateChoicePayload(q, 1, 1)
	case model.QuestionTrueFalse:
		if len(q.Choices) != 2 {
			return fmt.Errorf("true/false question must have exactly 2 choices, got %d", len(q.Choices))
		}
		return validateChoicePayload(q, 1, 1)
	case model.QuestionMulti:
		return validateChoicePayload(q, 1, len(q.Choices))
	case model.QuestionFillBlank:
		if strings.TrimSpace(q.CorrectText) == "" {
			return fmt.Errorf("fill question requires a correct text")
		}
	case model.QuestionNumeric:
		if q.NumericAnswer == nil {
			return fmt.Errorf("numeric question requires a numeric answer")
		}
		if q.NumericTolerance < 0 {
			return fmt.Errorf("numeric tolerance must not be negative")
		}
	case model.QuestionMatching:
		if len(q.Pairs()) == 0 {
			return fmt.Errorf("matching question requires at least one pair")
		}
	case model.QuestionOrdering:
		if len(q.Ordering()) < 2 {
			return fmt.Errorf("ordering question requires at least two items")
		}
	default:
		return fmt.Errorf("unknown question type %q", q.QuestionType)
	}
	return nil
}

func validateChoicePayload(q *model.Question, minCorrect, maxCorrect int) error {
	if len(q.Choices) < 2 {
		return fmt.Errorf("%s question requires at least 2 choices", q.QuestionType)
	}
	correct := 0
	for _, c := range q.Choices {
		if c.IsCorrect {
			correct++
		}
	}
	if correct < minCorrect || correct > maxCorrect {
		return fmt.Errorf("%s question requires between %d and %d correct choices, got %d",
			q.QuestionType, minCorrect, maxCorrect, correct)
	}
	return nil
}

func (s *QuestionService) Create(q *model.Question) error {
	if err := ValidateQuestion(q); err != nil {
		return err
	}
	return s.QuestionRepo.Create(q)
}

// Update replaces the question row and its choices together, so a
// half-updated payload is never visible.
func (s *QuestionService) Update(q *model.Question) error {
	if err := ValidateQuestion(q); err != nil {
		return err
	}
	choices := q.Choices
	q.Choices = nil
	return s.QuestionRepo.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(q).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", q.ID).Delete(&model.Choice{}).Error; err != nil {
			return err
		}
		for i := range choices {
			choices[i].ID = 0
			choices[i].QuestionID = q.ID
		}
		if len(choices) > 0 {
			if err := tx.Create(&choices).Error; err != nil {
				return err
			}
		}
		q.Choices = choices
		return nil
	})
}

func (s *QuestionService) Get(id uint) (*model.Question, error) {
	return s.QuestionRepo.FindByID(id)
}

// Deactivate retires a question from future allocation without touching
// attempts that already contain it.
func (s *QuestionService) Deactivate(id uint) error {
	q, err := s.QuestionRepo.FindByID(id)
	if err != nil {
		return err
	}
	q.IsActive = false
	return s.QuestionRepo.Update(q)
}

func (s *QuestionService) ListByCategory(categoryID uint, page, limit int) ([]model.Question, int64, error) {
	return s.QuestionRepo.ListByCategory(categoryID, page, limit)
}

// AttachImage stores an uploaded illustration and records its URL on the
// question.
func (s *QuestionService) AttachImage(ctx context.Context, id uint, filename string, reader io.Reader, size int64, contentType string) (*model.Question, error) {
	q, err := s.QuestionRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	stored := fmt.Sprintf("questions/%d/%s%s", id, uuid.New().String(), filepath.Ext(filename))
	url, err := s.Storage.Upload(ctx, stored, reader, size, contentType)
	if err != nil {
		return nil, err
	}
	q.ImageURL = url
	if err := s.QuestionRepo.Update(q); err != nil {
		return nil, err
	}
	return q, nil
}
