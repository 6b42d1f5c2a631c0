package service

import (
	"context"
	"fmt"
	"path"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/exam-api/internal/archive"
	"github.com/noah-isme/exam-api/pkg/blobstore"
)

// DownloadService retrieves stored submissions for manual grading.
type DownloadService interface {
	// Single returns one student's submission bytes and a download filename.
	Single(ctx context.Context, examCode, studentID string) ([]byte, string, error)
	// Batch repackages every submission for the exam into one archive with
	// per-student subpaths. Unreadable entries are skipped, not fatal.
	Batch(ctx context.Context, examCode string) ([]byte, string, error)
}

type downloadService struct {
	store  blobstore.Store
	logger zerolog.Logger
	tracer trace.Tracer
}

// NewDownloadService constructs the download gateway service.
func NewDownloadService(store blobstore.Store, logger zerolog.Logger) DownloadService {
	return &downloadService{
		store:  store,
		logger: logger.With().Str("component", "download_service").Logger(),
		tracer: otel.Tracer("github.com/noah-isme/exam-api/internal/service"),
	}
}

func (s *downloadService) Single(ctx context.Context, examCode, studentID string) ([]byte, string, error) {
	ctx, span := s.tracer.Start(ctx, "download.single")
	defer span.End()

	key := SubmissionKey(examCode, studentID)
	span.SetAttributes(attribute.String("download.key", key))

	data, err := s.store.Get(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, "", err
	}

	span.SetStatus(codes.Ok, "fetched")
	return data, path.Base(key), nil
}

func (s *downloadService) Batch(ctx context.Context, examCode string) ([]byte, string, error) {
	ctx, span := s.tracer.Start(ctx, "download.batch")
	defer span.End()
	span.SetAttributes(attribute.String("download.exam_code", examCode))

	objects, err := s.store.List(ctx, submissionPrefix(examCode))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, "", fmt.Errorf("failed to list submissions: %w", err)
	}
	if len(objects) == 0 {
		span.SetStatus(codes.Error, "empty")
		return nil, "", blobstore.ErrNotFound
	}

	writer := archive.NewWriter()
	packed := 0
	for _, obj := range objects {
		data, err := s.store.Get(ctx, obj.Key)
		if err != nil {
			// Mirror the grading orchestrator: one unreadable submission
			// must not sink the batch.
			s.logger.Warn().Err(err).Str("key", obj.Key).Msg("skipping unreadable submission")
			continue
		}

		entry := path.Base(obj.Key)
		if _, studentID, ok := ParseSubmissionKey(obj.Key); ok {
			entry = studentID + "/" + entry
		}
		if err := writer.Add(entry, data); err != nil {
			return nil, "", fmt.Errorf("failed to pack %s: %w", obj.Key, err)
		}
		packed++
	}

	if packed == 0 {
		span.SetStatus(codes.Error, "all entries unreadable")
		return nil, "", blobstore.ErrNotFound
	}

	data, err := writer.Close()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pack failed")
		return nil, "", err
	}

	filename := "all_submissions.zip"
	if examCode != "" {
		filename = examCode + "_submissions.zip"
	}

	span.SetAttributes(attribute.Int("download.packed", packed))
	span.SetStatus(codes.Ok, "packed")

	return data, filename, nil
}
