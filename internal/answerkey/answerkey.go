// Package answerkey loads the per-exam answer key used by the grading engine.
// A key is immutable for the duration of a grading run.
package answerkey

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Question holds the acceptable answer set and weight for one question.
// Multi-select questions carry more than one expected value; comparison is
// set-based and order-insensitive.
type Question struct {
	Expected []string
	Weight   float64
}

// MultiSelect reports whether the question expects a set of values.
func (q Question) MultiSelect() bool {
	return len(q.Expected) > 1
}

// Key maps question identifiers to their expected answers.
type Key map[string]Question

type keyFile struct {
	Questions map[string]string  `toml:"questions"`
	Weights   map[string]float64 `toml:"weights"`
}

// New builds a key from raw expected values. Multi-select answers are
// comma-joined ("A,C"); weights default to 1.
func New(values map[string]string, weights map[string]float64) Key {
	key := make(Key, len(values))
	for id, raw := range values {
		question := Question{Weight: 1}
		if w, ok := weights[id]; ok && w > 0 {
			question.Weight = w
		}
		for _, part := range strings.Split(raw, ",") {
			part = normalize(part)
			if part != "" {
				question.Expected = append(question.Expected, part)
			}
		}
		key[id] = question
	}
	return key
}

// Parse decodes a TOML answer key document.
func Parse(data []byte) (Key, error) {
	var file keyFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse answer key: %w", err)
	}
	if len(file.Questions) == 0 {
		return nil, fmt.Errorf("answer key defines no questions")
	}
	return New(file.Questions, file.Weights), nil
}

// LoadFile reads and parses a TOML answer key from disk.
func LoadFile(path string) (Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read answer key %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the built-in key used when no key file is configured.
func Default() Key {
	return New(map[string]string{
		"Q1": "A",
		"Q2": "A,C",
		"Q3": "B",
		"Q4": "D",
		"Q5": "A,B,D",
	}, nil)
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
