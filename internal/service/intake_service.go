package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/exam-api/internal/archive"
	"github.com/noah-isme/exam-api/internal/dto"
	"github.com/noah-isme/exam-api/internal/observability"
	"github.com/noah-isme/exam-api/pkg/blobstore"
)

var (
	// ErrEmptyUpload indicates the uploaded file carried no bytes.
	ErrEmptyUpload = errors.New("file is empty")
	// ErrPayloadTooLarge indicates the upload exceeded the configured ceiling.
	ErrPayloadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUnsupportedContentType indicates the declared MIME type is not permitted.
	ErrUnsupportedContentType = errors.New("file type not allowed, expected a zip archive")
	// ErrInvalidArchive indicates the payload failed the zip integrity check.
	ErrInvalidArchive = errors.New("invalid zip file, archive appears to be corrupted")
	// ErrUnresolvedIdentity indicates exam code and student id could not be
	// derived from the upload.
	ErrUnresolvedIdentity = errors.New("could not derive exam code and student id from upload")
)

// Content types accepted on upload. Advisory only: the archive open below is
// the authoritative check. Browsers frequently send zips as octet-stream.
var allowedContentTypes = map[string]struct{}{
	"application/zip":              {},
	"application/x-zip-compressed": {},
	"application/octet-stream":     {},
}

// IntakeService validates inbound submissions and persists them at their
// canonical storage key.
type IntakeService interface {
	Submit(ctx context.Context, file *multipart.FileHeader, examCodeHint, studentIDHint string) (dto.SubmitReceipt, error)
}

type intakeService struct {
	store           blobstore.Store
	logger          zerolog.Logger
	maxSize         int64
	maxUncompressed int64
	tracer          trace.Tracer
}

// NewIntakeService constructs the submission intake service.
func NewIntakeService(store blobstore.Store, maxSize, maxUncompressed int64, logger zerolog.Logger) IntakeService {
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024
	}
	if maxUncompressed <= 0 {
		maxUncompressed = maxSize * 20
	}
	return &intakeService{
		store:           store,
		logger:          logger.With().Str("component", "intake_service").Logger(),
		maxSize:         maxSize,
		maxUncompressed: maxUncompressed,
		tracer:          otel.Tracer("github.com/noah-isme/exam-api/internal/service"),
	}
}

func (s *intakeService) Submit(ctx context.Context, file *multipart.FileHeader, examCodeHint, studentIDHint string) (dto.SubmitReceipt, error) {
	ctx, span := s.tracer.Start(ctx, "intake.submit")
	defer span.End()

	span.SetAttributes(attribute.Int64("intake.max_bytes", s.maxSize))

	if file == nil {
		err := errors.New("file is required")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.SubmitReceipt{}, err
	}

	span.SetAttributes(
		attribute.String("intake.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("intake.request_size", file.Size),
	)

	declared := strings.ToLower(strings.TrimSpace(file.Header.Get("Content-Type")))
	if declared != "" {
		if _, ok := allowedContentTypes[declared]; !ok {
			observability.SubmissionsRejected().WithLabelValues("type").Inc()
			span.RecordError(ErrUnsupportedContentType)
			span.SetStatus(codes.Error, "type not allowed")
			return dto.SubmitReceipt{}, fmt.Errorf("%w: got %s", ErrUnsupportedContentType, declared)
		}
	}

	// Size is checked before any storage write; an upload of exactly the
	// ceiling is accepted, one byte over is not.
	if file.Size > s.maxSize {
		observability.SubmissionsRejected().WithLabelValues("size").Inc()
		span.RecordError(ErrPayloadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return dto.SubmitReceipt{}, ErrPayloadTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return dto.SubmitReceipt{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return dto.SubmitReceipt{}, err
	}
	if buf.Len() == 0 {
		observability.SubmissionsRejected().WithLabelValues("empty").Inc()
		span.RecordError(ErrEmptyUpload)
		span.SetStatus(codes.Error, "empty upload")
		return dto.SubmitReceipt{}, ErrEmptyUpload
	}
	if int64(buf.Len()) > s.maxSize {
		observability.SubmissionsRejected().WithLabelValues("size").Inc()
		span.RecordError(ErrPayloadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return dto.SubmitReceipt{}, ErrPayloadTooLarge
	}

	detected := mimetype.Detect(buf.Bytes())
	span.SetAttributes(attribute.String("intake.detected_mime", detected.String()))
	if !zipLineage(detected) {
		observability.SubmissionsRejected().WithLabelValues("type").Inc()
		span.RecordError(ErrUnsupportedContentType)
		span.SetStatus(codes.Error, "detected type not a zip")
		return dto.SubmitReceipt{}, fmt.Errorf("%w: detected %s", ErrUnsupportedContentType, detected)
	}

	// Structural integrity check; entry-level validation waits for grading.
	if _, err := archive.Open(buf.Bytes(), s.maxUncompressed); err != nil {
		observability.SubmissionsRejected().WithLabelValues("archive").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "archive check failed")
		return dto.SubmitReceipt{}, fmt.Errorf("%w: %w", ErrInvalidArchive, err)
	}

	examCode, studentID, err := deriveIdentity(file.Filename, examCodeHint, studentIDHint)
	if err != nil {
		observability.SubmissionsRejected().WithLabelValues("identity").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "identity unresolved")
		return dto.SubmitReceipt{}, err
	}

	key := SubmissionKey(examCode, studentID)
	span.SetAttributes(
		attribute.String("intake.storage_key", key),
		attribute.Int64("intake.size_bytes", int64(buf.Len())),
	)

	obj, err := s.store.Put(ctx, key, buf.Bytes(), "application/zip")
	if err != nil {
		observability.SubmissionsRejected().WithLabelValues("storage").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return dto.SubmitReceipt{}, fmt.Errorf("failed to save submission: %w", err)
	}

	observability.SubmissionsReceived().Inc()
	span.SetStatus(codes.Ok, "stored")

	s.logger.Info().
		Str("key", key).
		Str("exam_code", examCode).
		Str("student_id", studentID).
		Int("size", buf.Len()).
		Msg("submission stored")

	return dto.SubmitReceipt{
		Status:   "success",
		Message:  "Submission received successfully",
		Filename: path.Base(key),
		URL:      obj.URL,
		Size:     obj.Size,
	}, nil
}

// zipLineage walks the detection hierarchy so zip-derived formats still
// pass; the archive open decides whether the content is actually usable.
func zipLineage(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return true
		}
	}
	return false
}

// deriveIdentity resolves (examCode, studentID) from explicit hints first and
// the uploaded filename second. Filenames follow "{exam}_{student}.zip"; the
// legacy "{student}_submission.zip" form needs an exam code hint.
func deriveIdentity(filename, examCodeHint, studentIDHint string) (string, string, error) {
	examCode := strings.TrimSpace(examCodeHint)
	studentID := strings.TrimSpace(studentIDHint)

	if examCode == "" || studentID == "" {
		base := path.Base(strings.TrimSpace(filename))
		if !strings.HasSuffix(strings.ToLower(base), ".zip") {
			return "", "", fmt.Errorf("%w: filename must end in .zip", ErrUnresolvedIdentity)
		}
		stem := strings.TrimSuffix(base, path.Ext(base))
		stem = strings.TrimSuffix(stem, "_submission")

		fromExam, fromStudent, found := strings.Cut(stem, "_")
		if !found {
			fromExam, fromStudent = "", stem
		}
		if examCode == "" {
			examCode = fromExam
		}
		if studentID == "" {
			studentID = fromStudent
		}
	}

	if !validIdent(examCode) || !validIdent(studentID) {
		return "", "", ErrUnresolvedIdentity
	}

	return examCode, studentID, nil
}
