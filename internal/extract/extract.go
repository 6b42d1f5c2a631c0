// Package extract pulls the student identity record and submitted answers out
// of an opened submission archive.
package extract

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/noah-isme/exam-api/internal/archive"
)

// Well-known entry names inside a submission archive.
const (
	InfoEntryName    = "student_info.txt"
	AnswersEntryName = "answers.txt"
	AnswerFilePrefix = "answer_"
)

// ErrMissingIdentity indicates the archive carries no usable enrollment id,
// either because student_info.txt is absent or the required key is missing.
// The submission is stored but not gradable.
var ErrMissingIdentity = errors.New("missing student identity")

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05"}

// StudentInfo is the identity record parsed from student_info.txt.
type StudentInfo struct {
	EnrollmentID string
	StudentName  string
	ExamCode     string
	StartTime    *time.Time
	SubmitTime   *time.Time
}

// TotalTimeSeconds derives the working duration when both timestamps are set.
func (s StudentInfo) TotalTimeSeconds() (int64, bool) {
	if s.StartTime == nil || s.SubmitTime == nil {
		return 0, false
	}
	return int64(s.SubmitTime.Sub(*s.StartTime).Seconds()), true
}

// Result is a complete extraction outcome. Extraction is atomic: callers
// either receive a full Result or an error, never partial state.
type Result struct {
	Info         StudentInfo
	Answers      map[string]string
	SkippedLines int
}

// Extract reads the identity record and every answer source from the archive.
// answers.txt lines are split at the first ':' into (question, answer) and
// malformed lines are skipped and counted; per-question answer_<QID> files
// win over answers.txt when both name the same question.
func Extract(h *archive.Handle) (Result, error) {
	result := Result{Answers: make(map[string]string)}

	infoData, err := h.ReadEntry(InfoEntryName)
	if err != nil {
		if errors.Is(err, archive.ErrEntryNotFound) {
			return Result{}, ErrMissingIdentity
		}
		return Result{}, fmt.Errorf("failed to read %s: %w", InfoEntryName, err)
	}

	info, skipped := parseStudentInfo(string(infoData))
	if info.EnrollmentID == "" {
		return Result{}, ErrMissingIdentity
	}
	result.Info = info
	result.SkippedLines += skipped

	if answersData, err := h.ReadEntry(AnswersEntryName); err == nil {
		skipped = parseAnswerLines(string(answersData), result.Answers)
		result.SkippedLines += skipped
	} else if !errors.Is(err, archive.ErrEntryNotFound) {
		return Result{}, fmt.Errorf("failed to read %s: %w", AnswersEntryName, err)
	}

	for _, name := range h.Entries() {
		questionID, ok := questionIDFromFilename(name)
		if !ok {
			continue
		}
		data, err := h.ReadEntry(name)
		if err != nil {
			return Result{}, fmt.Errorf("failed to read %s: %w", name, err)
		}
		result.Answers[questionID] = strings.TrimSpace(string(data))
	}

	return result, nil
}

// parseStudentInfo reads KEY: value lines. Unknown keys are ignored; optional
// keys left absent stay unset.
func parseStudentInfo(content string) (StudentInfo, int) {
	var info StudentInfo
	skipped := 0

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			skipped++
			continue
		}

		key = strings.ToUpper(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "ENROLLMENT_ID":
			info.EnrollmentID = value
		case "STUDENT_NAME", "NAME":
			info.StudentName = value
		case "EXAM_CODE":
			info.ExamCode = value
		case "START_TIME":
			info.StartTime = parseTime(value)
		case "SUBMIT_TIME":
			info.SubmitTime = parseTime(value)
		}
	}

	return info, skipped
}

func parseAnswerLines(content string, answers map[string]string) int {
	skipped := 0

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		questionID, answer, found := strings.Cut(line, ":")
		questionID = strings.TrimSpace(questionID)
		if !found || questionID == "" {
			skipped++
			continue
		}

		answers[questionID] = strings.TrimSpace(answer)
	}

	return skipped
}

// questionIDFromFilename maps answer_Q3.txt (at any archive depth) to Q3.
func questionIDFromFilename(name string) (string, bool) {
	base := path.Base(name)
	if !strings.HasPrefix(base, AnswerFilePrefix) {
		return "", false
	}

	id := strings.TrimPrefix(base, AnswerFilePrefix)
	if dot := strings.LastIndex(id, "."); dot >= 0 {
		id = id[:dot]
	}
	id = strings.TrimSpace(id)

	return id, id != ""
}

func parseTime(value string) *time.Time {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			utc := ts.UTC()
			return &utc
		}
	}
	return nil
}
