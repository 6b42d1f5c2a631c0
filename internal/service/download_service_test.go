package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-api/internal/archive"
	"github.com/noah-isme/exam-api/pkg/blobstore"
)

func TestDownloadSingle(t *testing.T) {
	store := blobstore.NewMemory("")
	payload := buildZip(t, map[string]string{"answers.txt": "Q1: A"})
	_, err := store.Put(context.Background(), SubmissionKey("exam01", "S1"), payload, "application/zip")
	require.NoError(t, err)

	svc := NewDownloadService(store, testLogger())

	data, filename, err := svc.Single(context.Background(), "exam01", "S1")
	require.NoError(t, err)
	require.Equal(t, "exam01_S1.zip", filename)
	require.Equal(t, payload, data)
}

func TestDownloadSingleNotFound(t *testing.T) {
	svc := NewDownloadService(blobstore.NewMemory(""), testLogger())

	_, _, err := svc.Single(context.Background(), "exam01", "missing")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestDownloadBatchGroupsByStudent(t *testing.T) {
	store := blobstore.NewMemory("")
	storeSubmission(t, store, "exam01", "S1", map[string]string{"answers.txt": "Q1: A"})
	storeSubmission(t, store, "exam01", "S2", map[string]string{"answers.txt": "Q1: B"})

	svc := NewDownloadService(store, testLogger())

	data, filename, err := svc.Batch(context.Background(), "exam01")
	require.NoError(t, err)
	require.Equal(t, "exam01_submissions.zip", filename)

	h, err := archive.Open(data, 0)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"S1/exam01_S1.zip", "S2/exam01_S2.zip"}, h.Entries())
}

func TestDownloadBatchSkipsUnreadableEntries(t *testing.T) {
	memory := blobstore.NewMemory("")
	store := &failingStore{MemoryStore: memory, failKeys: map[string]bool{
		SubmissionKey("exam01", "S2"): true,
	}}

	storeSubmission(t, memory, "exam01", "S1", map[string]string{"answers.txt": "Q1: A"})
	storeSubmission(t, memory, "exam01", "S2", map[string]string{"answers.txt": "Q1: B"})

	svc := NewDownloadService(store, testLogger())

	data, _, err := svc.Batch(context.Background(), "exam01")
	require.NoError(t, err)

	h, err := archive.Open(data, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"S1/exam01_S1.zip"}, h.Entries())
}

func TestDownloadBatchEmptyIsNotFound(t *testing.T) {
	svc := NewDownloadService(blobstore.NewMemory(""), testLogger())

	_, _, err := svc.Batch(context.Background(), "exam01")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}
