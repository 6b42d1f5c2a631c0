package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-api/internal/dto"
	"github.com/noah-isme/exam-api/internal/handler"
	"github.com/noah-isme/exam-api/pkg/blobstore"
)

type mockDownloadService struct {
	singleCalls int
	batchCalls  int
	data        []byte
	filename    string
	err         error
}

func (m *mockDownloadService) Single(_ context.Context, examCode, studentID string) ([]byte, string, error) {
	m.singleCalls++
	if m.err != nil {
		return nil, "", m.err
	}
	return m.data, m.filename, nil
}

func (m *mockDownloadService) Batch(_ context.Context, examCode string) ([]byte, string, error) {
	m.batchCalls++
	if m.err != nil {
		return nil, "", m.err
	}
	return m.data, m.filename, nil
}

func downloadApp(svc *mockDownloadService, secret string) *fiber.App {
	app := fiber.New()
	validate := validator.New(validator.WithRequiredStructEnabled())
	handler.NewDownloadHandler(svc, validate, secret, zerolog.New(io.Discard)).Register(app.Group("/api"))
	return app
}

func downloadRequest(t *testing.T, payload dto.DownloadRequest) *http.Request {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/download", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestDownloadHandlerRejectsBadSecret(t *testing.T) {
	svc := &mockDownloadService{}
	app := downloadApp(svc, "s3cret")

	resp, err := app.Test(downloadRequest(t, dto.DownloadRequest{ExamCode: "exam01", Secret: "wrong"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Zero(t, svc.singleCalls+svc.batchCalls)
}

func TestDownloadHandlerValidatesBody(t *testing.T) {
	app := downloadApp(&mockDownloadService{}, "s3cret")

	resp, err := app.Test(downloadRequest(t, dto.DownloadRequest{Secret: "s3cret"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDownloadHandlerSingle(t *testing.T) {
	svc := &mockDownloadService{data: []byte("zipbytes"), filename: "exam01_S1.zip"}
	app := downloadApp(svc, "s3cret")

	resp, err := app.Test(downloadRequest(t, dto.DownloadRequest{ExamCode: "exam01", StudentID: "S1", Secret: "s3cret"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 1, svc.singleCalls)
	require.Zero(t, svc.batchCalls)
	require.Equal(t, "application/zip", resp.Header.Get(fiber.HeaderContentType))
	require.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "exam01_S1.zip")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, []byte("zipbytes"), body)
}

func TestDownloadHandlerBatchWhenStudentOmitted(t *testing.T) {
	svc := &mockDownloadService{data: []byte("zipbytes"), filename: "exam01_submissions.zip"}
	app := downloadApp(svc, "s3cret")

	resp, err := app.Test(downloadRequest(t, dto.DownloadRequest{ExamCode: "exam01", Secret: "s3cret"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 1, svc.batchCalls)
	require.Zero(t, svc.singleCalls)
}

func TestDownloadHandlerNotFound(t *testing.T) {
	svc := &mockDownloadService{err: blobstore.ErrNotFound}
	app := downloadApp(svc, "s3cret")

	resp, err := app.Test(downloadRequest(t, dto.DownloadRequest{ExamCode: "exam01", StudentID: "missing", Secret: "s3cret"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
