package service

import (
	"fmt"
	"strconv"
	"strings"
)

// AnswerForm is the raw posted field map shared by the autosave and
// submission paths. Keys follow the wire convention "question_<id>" for
// standard types and "match_<questionID>_<pairIndex>" for matching
// questions.
type AnswerForm map[string][]string

func (f AnswerForm) First(key string) (string, bool) {
	vals, ok := f[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func (f AnswerForm) Values(key string) []string {
	return f[key]
}

func questionFieldKey(questionID uint) string {
	return fmt.Sprintf("question_%d", questionID)
}

func matchFieldKey(questionID uint, pairIndex int) string {
	return fmt.Sprintf("match_%d_%d", questionID, pairIndex)
}

// parseQuestionKey extracts the question ID from a "question_<id>" key.
func parseQuestionKey(key string) (uint, bool) {
	rest, ok := strings.CutPrefix(key, "question_")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// parseMatchKey extracts question ID and pair index from a
// "match_<qid>_<idx>" key.
func parseMatchKey(key string) (uint, int, bool) {
	rest, ok := strings.CutPrefix(key, "match_")
	if !ok {
		return 0, 0, false
	}
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	qid, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, false
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil || idx < 0 {
		return 0, 0, false
	}
	return uint(qid), idx, true
}

// parseChoiceIDs coerces posted values to choice IDs, dropping anything
// unparseable rather than failing the whole field.
func parseChoiceIDs(vals []string) []uint {
	ids := make([]uint, 0, len(vals))
	for _, v := range vals {
		id, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}
