package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-api/pkg/blobstore"
)

func validSubmission(t *testing.T) []byte {
	t.Helper()
	return buildZip(t, map[string]string{
		"student_info.txt": "ENROLLMENT_ID: S1\n",
		"answers.txt":      "Q1: A\n",
	})
}

func TestIntakeSubmitStoresAtCanonicalKey(t *testing.T) {
	store := blobstore.NewMemory("https://blobs.example.com")
	svc := NewIntakeService(store, 0, 0, testLogger())

	file := buildFileHeader(t, "exam01_S1.zip", "application/zip", validSubmission(t))

	receipt, err := svc.Submit(context.Background(), file, "", "")
	require.NoError(t, err)
	require.Equal(t, "success", receipt.Status)
	require.Equal(t, "exam01_S1.zip", receipt.Filename)
	require.Equal(t, "https://blobs.example.com/submissions/exam01_S1.zip", receipt.URL)

	_, err = store.Get(context.Background(), "submissions/exam01_S1.zip")
	require.NoError(t, err)
}

func TestIntakeSubmitIdempotentOverwrite(t *testing.T) {
	store := blobstore.NewMemory("")
	svc := NewIntakeService(store, 0, 0, testLogger())

	first := buildZip(t, map[string]string{"answers.txt": "Q1: A"})
	second := buildZip(t, map[string]string{"answers.txt": "Q1: B"})

	_, err := svc.Submit(context.Background(), buildFileHeader(t, "exam01_S1.zip", "application/zip", first), "", "")
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), buildFileHeader(t, "exam01_S1.zip", "application/zip", second), "", "")
	require.NoError(t, err)

	objects, err := store.List(context.Background(), SubmissionsPrefix)
	require.NoError(t, err)
	require.Len(t, objects, 1)

	stored, err := store.Get(context.Background(), "submissions/exam01_S1.zip")
	require.NoError(t, err)
	require.Equal(t, second, stored)
}

func TestIntakeSubmitSizeBoundary(t *testing.T) {
	store := blobstore.NewMemory("")

	payload := validSubmission(t)
	svc := NewIntakeService(store, int64(len(payload)), 0, testLogger())

	// Exactly at the ceiling succeeds.
	_, err := svc.Submit(context.Background(), buildFileHeader(t, "exam01_S1.zip", "application/zip", payload), "", "")
	require.NoError(t, err)

	// One byte over is rejected before any storage write.
	over := append(bytes.Clone(payload), 0x00)
	_, err = svc.Submit(context.Background(), buildFileHeader(t, "exam01_S2.zip", "application/zip", over), "", "")
	require.ErrorIs(t, err, ErrPayloadTooLarge)

	_, err = store.Get(context.Background(), "submissions/exam01_S2.zip")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestIntakeSubmitRejectsEmptyUpload(t *testing.T) {
	svc := NewIntakeService(blobstore.NewMemory(""), 0, 0, testLogger())

	file := buildFileHeader(t, "exam01_S1.zip", "application/zip", nil)
	_, err := svc.Submit(context.Background(), file, "", "")
	require.ErrorIs(t, err, ErrEmptyUpload)
}

func TestIntakeSubmitRejectsNonZipPayload(t *testing.T) {
	svc := NewIntakeService(blobstore.NewMemory(""), 0, 0, testLogger())

	// Plain text never reaches the archive check; content detection
	// rejects it regardless of the declared type.
	file := buildFileHeader(t, "exam01_S1.zip", "application/zip", []byte("not a zip at all"))
	_, err := svc.Submit(context.Background(), file, "", "")
	require.ErrorIs(t, err, ErrUnsupportedContentType)
}

func TestIntakeSubmitRejectsCorruptArchive(t *testing.T) {
	svc := NewIntakeService(blobstore.NewMemory(""), 0, 0, testLogger())

	// A zip signature over garbage passes detection but fails the open.
	payload := append([]byte("PK\x03\x04"), bytes.Repeat([]byte{0xff}, 64)...)
	file := buildFileHeader(t, "exam01_S1.zip", "application/zip", payload)
	_, err := svc.Submit(context.Background(), file, "", "")
	require.ErrorIs(t, err, ErrInvalidArchive)
}

func TestIntakeSubmitRejectsDisallowedContentType(t *testing.T) {
	svc := NewIntakeService(blobstore.NewMemory(""), 0, 0, testLogger())

	file := buildFileHeader(t, "exam01_S1.zip", "text/html", validSubmission(t))
	_, err := svc.Submit(context.Background(), file, "", "")
	require.ErrorIs(t, err, ErrUnsupportedContentType)
}

func TestIntakeSubmitHintsWinOverFilename(t *testing.T) {
	store := blobstore.NewMemory("")
	svc := NewIntakeService(store, 0, 0, testLogger())

	file := buildFileHeader(t, "whatever.zip", "application/zip", validSubmission(t))
	receipt, err := svc.Submit(context.Background(), file, "exam02", "S9")
	require.NoError(t, err)
	require.Equal(t, "exam02_S9.zip", receipt.Filename)

	_, err = store.Get(context.Background(), "submissions/exam02_S9.zip")
	require.NoError(t, err)
}

func TestIntakeSubmitLegacyFilenameNeedsExamHint(t *testing.T) {
	store := blobstore.NewMemory("")
	svc := NewIntakeService(store, 0, 0, testLogger())

	file := buildFileHeader(t, "S1_submission.zip", "application/zip", validSubmission(t))
	_, err := svc.Submit(context.Background(), file, "", "")
	require.ErrorIs(t, err, ErrUnresolvedIdentity)

	file = buildFileHeader(t, "S1_submission.zip", "application/zip", validSubmission(t))
	receipt, err := svc.Submit(context.Background(), file, "exam01", "")
	require.NoError(t, err)
	require.Equal(t, "exam01_S1.zip", receipt.Filename)
}

func TestIntakeSubmitRejectsUnsafeIdentity(t *testing.T) {
	svc := NewIntakeService(blobstore.NewMemory(""), 0, 0, testLogger())

	file := buildFileHeader(t, "exam01_S1.zip", "application/zip", validSubmission(t))
	_, err := svc.Submit(context.Background(), file, "../etc", "S1")
	require.ErrorIs(t, err, ErrUnresolvedIdentity)
}
