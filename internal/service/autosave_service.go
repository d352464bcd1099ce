package service

import (
	"strconv"
	"strings"

	"certprep_backend/internal/model"
	"certprep_backend/internal/repository"

	"gorm.io/gorm"
)

// AutosaveService persists partial answers while an attempt is running.
// Each answer row is written under its own row lock so two overlapping
// saves for the same question serialize instead of clobbering each other.
// Autosave never computes partial credit; only the definitive grading
// pass does.
type AutosaveService struct {
	QuestionRepo *repository.QuestionRepository
	AnswerRepo   *repository.AnswerRepository
	DB           *gorm.DB
}

func NewAutosaveService(questionRepo *repository.QuestionRepository, answerRepo *repository.AnswerRepository, db *gorm.DB) *AutosaveService {
	return &AutosaveService{QuestionRepo: questionRepo, AnswerRepo: answerRepo, DB: db}
}

// Save applies every recognized answer field in the form. Fields for
// questions outside the attempt's order are ignored; unrecognized keys
// are skipped silently so stray form fields cannot fail a save.
func (s *AutosaveService) Save(attempt *model.ExamAttempt, form AnswerForm) error {
	allowed := make(map[uint]bool)
	for _, qid := range attempt.OrderIDs() {
		allowed[qid] = true
	}

	// match_<qid>_<idx> fields merge into one row per question.
	matchFields := make(map[uint]map[int]string)

	for key := range form {
		if qid, idx, ok := parseMatchKey(key); ok {
			if !allowed[qid] {
				continue
			}
			if matchFields[qid] == nil {
				matchFields[qid] = make(map[int]string)
			}
			value, _ := form.First(key)
			matchFields[qid][idx] = value
			continue
		}
		qid, ok := parseQuestionKey(key)
		if !ok || !allowed[qid] {
			continue
		}
		if err := s.saveQuestion(attempt, qid, form.Values(key)); err != nil {
			return err
		}
	}

	for qid, fields := range matchFields {
		if err := s.saveMatch(attempt, qid, fields); err != nil {
			return err
		}
	}
	return nil
}

func (s *AutosaveService) saveQuestion(attempt *model.ExamAttempt, qid uint, values []string) error {
	question, err := s.QuestionRepo.FindByID(qid)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		answer, err := s.AnswerRepo.FindOrCreateForUpdate(tx, attempt.ID, qid)
		if err != nil {
			return err
		}

		switch question.QuestionType {
		case model.QuestionSingle, model.QuestionDropdown, model.QuestionTrueFalse:
			ids := parseChoiceIDs(values)
			if len(ids) == 0 {
				return nil
			}
			choice, err := s.QuestionRepo.FindChoice(ids[0], qid)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return nil
				}
				return err
			}
			answer.ChoiceID = &choice.ID
			// Single-choice correctness is cheap and unambiguous, so the
			// interactive save records it immediately.
			correct := choice.IsCorrect
			answer.IsCorrect = &correct
			answer.Selections = nil
			answer.RawAnswer = ""
		case model.QuestionMulti:
			if err := answer.SetSelectedIDs(parseChoiceIDs(values)); err != nil {
				return err
			}
			answer.ChoiceID = nil
			answer.IsCorrect = nil
		case model.QuestionFillBlank, model.QuestionNumeric, model.QuestionOrdering:
			if len(values) == 0 {
				return nil
			}
			answer.RawAnswer = strings.TrimSpace(values[0])
			answer.IsCorrect = nil
		default:
			return nil
		}
		return s.AnswerRepo.Save(tx, answer)
	})
}

// saveMatch merges the posted pair fields into the stored map: a present
// field with an empty value clears that pair only, and pairs absent from
// the form keep their saved value.
func (s *AutosaveService) saveMatch(attempt *model.ExamAttempt, qid uint, fields map[int]string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		answer, err := s.AnswerRepo.FindOrCreateForUpdate(tx, attempt.ID, qid)
		if err != nil {
			return err
		}
		saved := answer.MatchMap()
		if saved == nil {
			saved = make(map[string]string)
		}
		for idx, value := range fields {
			key := strconv.Itoa(idx)
			value = strings.TrimSpace(value)
			if value == "" {
				delete(saved, key)
			} else {
				saved[key] = value
			}
		}
		if err := answer.SetMatchMap(saved); err != nil {
			return err
		}
		answer.IsCorrect = nil
		return s.AnswerRepo.Save(tx, answer)
	})
}
