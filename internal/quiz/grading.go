package quiz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Selection is the option a learner picked. On the wire it is either a JSON
// string ("B") or a JSON integer option index (1); both decode to a string.
type Selection string

func (s *Selection) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = Selection(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("selected must be a string or an integer")
	}
	i, err := n.Int64()
	if err != nil {
		return fmt.Errorf("selected must be a string or an integer")
	}
	*s = Selection(strconv.FormatInt(i, 10))
	return nil
}

type Answer struct {
	QuizID   string    `json:"quizId" validate:"required"`
	Selected Selection `json:"selected"`
}

// QuizKey is the grading view of a quiz: its id and its correct option.
type QuizKey struct {
	ID      string
	Correct string
}

type GradedAnswer struct {
	QuizID    string
	Selected  string
	IsCorrect bool
}

type GradeResult struct {
	TotalQuestions int
	CorrectCount   int
	Score          int
	Status         string
	Attempts       []GradedAnswer
}

// Grade scores answers against a section's quiz bank. Answers referencing a
// quiz outside the bank are dropped, and only the first answer per quiz is
// kept. The denominator is always the size of the bank, so unanswered
// questions count as wrong.
func Grade(bank []QuizKey, answers []Answer) GradeResult {
	correctByID := make(map[string]string, len(bank))
	for _, q := range bank {
		correctByID[q.ID] = q.Correct
	}

	res := GradeResult{
		TotalQuestions: len(bank),
		Attempts:       make([]GradedAnswer, 0, len(answers)),
	}
	answered := make(map[string]struct{}, len(bank))
	for _, a := range answers {
		correct, ok := correctByID[a.QuizID]
		if !ok {
			continue
		}
		if _, dup := answered[a.QuizID]; dup {
			continue
		}
		answered[a.QuizID] = struct{}{}
		selected := string(a.Selected)
		isCorrect := selected == correct
		if isCorrect {
			res.CorrectCount++
		}
		res.Attempts = append(res.Attempts, GradedAnswer{
			QuizID:    a.QuizID,
			Selected:  selected,
			IsCorrect: isCorrect,
		})
	}

	res.Score = RoundPercent(res.CorrectCount, res.TotalQuestions)
	res.Status = StatusFor(res.Score)
	return res
}

// DecodeOptions decodes a stored option set. Arrays are keyed by index,
// objects by their own keys.
func DecodeOptions(raw []byte) (map[string]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return map[string]string{}, nil
	}

	var list []interface{}
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make(map[string]string, len(list))
		for i, v := range list {
			out[strconv.Itoa(i)] = optionText(v)
		}
		return out, nil
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("options must be a json array or object: %w", err)
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		out[strings.TrimSpace(k)] = optionText(v)
	}
	return out, nil
}

// OptionKeys returns option keys in display order: numeric keys ascending,
// then the rest alphabetically.
func OptionKeys(options map[string]string) []string {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, errI := strconv.Atoi(keys[i])
		nj, errJ := strconv.Atoi(keys[j])
		switch {
		case errI == nil && errJ == nil:
			return ni < nj
		case errI == nil:
			return true
		case errJ == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

func optionText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
