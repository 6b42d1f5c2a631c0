package service

import (
	"fmt"
	"regexp"
	"strings"
)

// Storage layout shared with the legacy deployment. These paths are part of
// the external contract and must not change.
const (
	SubmissionsPrefix = "submissions/"
	ResultsKey        = "results/marks_final.csv"
	PublicExamsPrefix = "public-exams/"
)

var identPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.-]*$`)

// SubmissionKey derives the canonical storage key for one student's
// submission. One live object per (examCode, studentID): a resubmission
// overwrites the prior upload at the same key.
func SubmissionKey(examCode, studentID string) string {
	return fmt.Sprintf("%s%s_%s.zip", SubmissionsPrefix, examCode, studentID)
}

// ExamBundleKey locates the published exam source bundle.
func ExamBundleKey(examCode string) string {
	return fmt.Sprintf("%s%s.zip", PublicExamsPrefix, examCode)
}

// submissionPrefix narrows a listing to one exam when examCode is set.
func submissionPrefix(examCode string) string {
	if examCode == "" {
		return SubmissionsPrefix
	}
	return SubmissionsPrefix + examCode + "_"
}

// ParseSubmissionKey splits a canonical key back into exam code and student
// id. Legacy "{studentId}_submission.zip" names yield an empty exam code.
func ParseSubmissionKey(key string) (examCode, studentID string, ok bool) {
	base := strings.TrimPrefix(key, SubmissionsPrefix)
	if !strings.HasSuffix(base, ".zip") {
		return "", "", false
	}
	stem := strings.TrimSuffix(base, ".zip")

	if legacy := strings.TrimSuffix(stem, "_submission"); legacy != stem {
		return "", legacy, legacy != ""
	}

	examCode, studentID, found := strings.Cut(stem, "_")
	if !found || examCode == "" || studentID == "" {
		return "", stem, stem != ""
	}
	return examCode, studentID, true
}

func validIdent(value string) bool {
	return identPattern.MatchString(value)
}
