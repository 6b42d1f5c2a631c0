package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/exam-api/internal/answerkey"
	"github.com/noah-isme/exam-api/internal/archive"
	"github.com/noah-isme/exam-api/internal/dto"
	"github.com/noah-isme/exam-api/internal/extract"
	"github.com/noah-isme/exam-api/internal/grading"
	"github.com/noah-isme/exam-api/internal/observability"
	"github.com/noah-isme/exam-api/internal/report"
	"github.com/noah-isme/exam-api/pkg/blobstore"
)

// Failure reasons recorded in error rows.
const (
	ReasonStorageRead     = "StorageRead"
	ReasonCorruptArchive  = "CorruptArchive"
	ReasonArchiveTooLarge = "ArchiveTooLarge"
	ReasonMissingIdentity = "MissingIdentity"
	ReasonExtraction      = "Extraction"
	ReasonTimeout         = "Timeout"
)

// GradingService runs batch grading over every stored submission.
type GradingService interface {
	Run(ctx context.Context, examCode string) (dto.GradingSummary, error)
}

type gradingService struct {
	store           blobstore.Store
	key             answerkey.Key
	logger          zerolog.Logger
	workers         int
	itemTimeout     time.Duration
	maxUncompressed int64
	tracer          trace.Tracer
}

// NewGradingService constructs the grading orchestrator. The answer key is
// passed in explicitly so runs (and tests) can substitute keys without
// process-wide state.
func NewGradingService(store blobstore.Store, key answerkey.Key, workers int, itemTimeout time.Duration, maxUncompressed int64, logger zerolog.Logger) GradingService {
	if workers <= 0 {
		workers = 4
	}
	if itemTimeout <= 0 {
		itemTimeout = 30 * time.Second
	}
	return &gradingService{
		store:           store,
		key:             key,
		logger:          logger.With().Str("component", "grading_service").Logger(),
		workers:         workers,
		itemTimeout:     itemTimeout,
		maxUncompressed: maxUncompressed,
		tracer:          otel.Tracer("github.com/noah-isme/exam-api/internal/service"),
	}
}

// Run grades every submission under the exam's prefix. Per-submission
// failures become error rows; the run itself fails only when the store
// cannot be listed or the report cannot be written.
func (s *gradingService) Run(ctx context.Context, examCode string) (dto.GradingSummary, error) {
	ctx, span := s.tracer.Start(ctx, "grading.run")
	defer span.End()
	span.SetAttributes(attribute.String("grading.exam_code", examCode))

	observability.GradingRuns().Inc()
	start := time.Now()
	defer func() {
		observability.GradingRunDuration().Observe(time.Since(start).Seconds())
	}()

	objects, err := s.store.List(ctx, submissionPrefix(examCode))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return dto.GradingSummary{}, fmt.Errorf("failed to list submissions: %w", err)
	}

	if len(objects) == 0 {
		span.SetStatus(codes.Ok, "no submissions")
		return dto.GradingSummary{Status: "complete", Message: "No submissions found"}, nil
	}

	// Submissions are independent; grade them on a bounded pool so a large
	// exam stays inside the execution time budget.
	rows := make([]report.Row, len(objects))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)
	for i, obj := range objects {
		group.Go(func() error {
			rows[i] = s.gradeOne(groupCtx, obj)
			return nil
		})
	}
	_ = group.Wait()

	errorCount := 0
	for _, row := range rows {
		if row.Status == report.StatusGraded {
			observability.GradingRows().WithLabelValues("graded").Inc()
		} else {
			observability.GradingRows().WithLabelValues("error").Inc()
			errorCount++
		}
	}

	csvData, err := report.CSV(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "serialization failed")
		return dto.GradingSummary{}, fmt.Errorf("failed to serialize report: %w", err)
	}

	artifact, err := s.store.Put(ctx, ResultsKey, csvData, "text/csv")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "report write failed")
		return dto.GradingSummary{}, fmt.Errorf("failed to save report: %w", err)
	}

	span.SetAttributes(
		attribute.Int("grading.total", len(rows)),
		attribute.Int("grading.errors", errorCount),
	)
	span.SetStatus(codes.Ok, "complete")

	s.logger.Info().
		Str("exam_code", examCode).
		Int("total", len(rows)).
		Int("errors", errorCount).
		Msg("grading run complete")

	return dto.GradingSummary{
		Status:           "Grading complete",
		File:             ResultsKey,
		URL:              artifact.URL,
		TotalSubmissions: len(rows),
		Graded:           len(rows) - errorCount,
		Errors:           errorCount,
	}, nil
}

// gradeOne processes a single submission and always returns a row; failures
// at any stage are isolated to this row.
func (s *gradingService) gradeOne(ctx context.Context, obj blobstore.Object) report.Row {
	ctx, cancel := context.WithTimeout(ctx, s.itemTimeout)
	defer cancel()

	row := report.Row{Filename: path.Base(obj.Key)}
	if _, studentID, ok := ParseSubmissionKey(obj.Key); ok {
		row.EnrollmentID = studentID
	} else {
		row.EnrollmentID = "UNKNOWN"
	}

	data, err := s.store.Get(ctx, obj.Key)
	if err != nil {
		return s.errorRow(row, obj.Key, reasonForReadError(err), err)
	}

	handle, err := archive.Open(data, s.maxUncompressed)
	if err != nil {
		reason := ReasonCorruptArchive
		if errors.Is(err, archive.ErrTooLarge) {
			reason = ReasonArchiveTooLarge
		}
		return s.errorRow(row, obj.Key, reason, err)
	}

	result, err := extract.Extract(handle)
	if err != nil {
		reason := ReasonExtraction
		if errors.Is(err, extract.ErrMissingIdentity) {
			reason = ReasonMissingIdentity
		}
		return s.errorRow(row, obj.Key, reason, err)
	}

	if result.SkippedLines > 0 {
		s.logger.Warn().
			Str("key", obj.Key).
			Int("skipped_lines", result.SkippedLines).
			Msg("submission contained malformed lines")
	}

	score := grading.Grade(result.Answers, s.key)

	row.EnrollmentID = result.Info.EnrollmentID
	row.StudentName = result.Info.StudentName
	row.Score = score.Points
	row.Status = report.StatusGraded
	if result.Info.StartTime != nil {
		row.StartTimeUTC = result.Info.StartTime.Format(time.RFC3339)
	}
	if result.Info.SubmitTime != nil {
		row.SubmitTimeUTC = result.Info.SubmitTime.Format(time.RFC3339)
	}
	if total, ok := result.Info.TotalTimeSeconds(); ok {
		row.TotalTimeSeconds = &total
	}

	return row
}

func (s *gradingService) errorRow(row report.Row, key, reason string, err error) report.Row {
	s.logger.Warn().Err(err).Str("key", key).Str("reason", reason).Msg("submission not gradable")
	row.Score = 0
	row.Status = report.ErrorStatus(reason)
	return row
}

func reasonForReadError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	return ReasonStorageRead
}
