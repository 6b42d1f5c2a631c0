package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubmissionKey(t *testing.T) {
	require.Equal(t, "submissions/exam01_S1.zip", SubmissionKey("exam01", "S1"))
}

func TestExamBundleKey(t *testing.T) {
	require.Equal(t, "public-exams/exam01.zip", ExamBundleKey("exam01"))
}

func TestSubmissionPrefixScoping(t *testing.T) {
	require.Equal(t, "submissions/", submissionPrefix(""))
	require.Equal(t, "submissions/exam01_", submissionPrefix("exam01"))
}

func TestParseSubmissionKey(t *testing.T) {
	exam, student, ok := ParseSubmissionKey("submissions/exam01_S1.zip")
	require.True(t, ok)
	require.Equal(t, "exam01", exam)
	require.Equal(t, "S1", student)

	exam, student, ok = ParseSubmissionKey("submissions/S1_submission.zip")
	require.True(t, ok)
	require.Equal(t, "", exam)
	require.Equal(t, "S1", student)

	_, _, ok = ParseSubmissionKey("submissions/notes.txt")
	require.False(t, ok)
}
