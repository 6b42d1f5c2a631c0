// Package grading implements the pure scoring engine. Grade is deterministic:
// identical answers and key always produce the identical score, which keeps
// regrading reproducible.
package grading

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/noah-isme/exam-api/internal/answerkey"
)

// MultiSelectDelimiter separates values in a submitted multi-select answer.
const MultiSelectDelimiter = ","

// Score is the outcome of grading one submission against a key.
type Score struct {
	Points    float64
	MaxPoints float64
	Correct   int
	Total     int
}

// Grade scores answers against key. Questions absent from answers contribute
// zero; answers for questions outside the key are ignored and never penalize.
func Grade(answers map[string]string, key answerkey.Key) Score {
	score := Score{Total: len(key)}

	for id, question := range key {
		score.MaxPoints += question.Weight

		submitted, ok := answers[id]
		if !ok {
			continue
		}

		if isCorrect(submitted, question) {
			score.Points += question.Weight
			score.Correct++
		}
	}

	return score
}

func isCorrect(submitted string, question answerkey.Question) bool {
	if question.MultiSelect() {
		return answerSet(submitted).Equal(mapset.NewThreadUnsafeSet(question.Expected...))
	}
	if len(question.Expected) == 0 {
		return false
	}
	return normalize(submitted) == question.Expected[0]
}

// answerSet splits a submitted multi-select answer into a normalized set,
// dropping duplicates and empty segments.
func answerSet(submitted string) mapset.Set[string] {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, part := range strings.Split(submitted, MultiSelectDelimiter) {
		if part = normalize(part); part != "" {
			set.Add(part)
		}
	}
	return set
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
