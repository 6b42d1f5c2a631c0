package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-api/internal/archive"
	"github.com/noah-isme/exam-api/pkg/blobstore"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	w := archive.NewWriter()
	for name, body := range entries {
		require.NoError(t, w.Add(name, []byte(body)))
	}
	data, err := w.Close()
	require.NoError(t, err)
	return data
}

func buildFileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {"form-data; name=\"file\"; filename=\"" + filename + "\""},
		"Content-Type":        {contentType},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content) + 1024))
	require.NoError(t, err)
	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

// failingStore wraps a MemoryStore and fails reads for chosen keys, to test
// fault isolation.
type failingStore struct {
	*blobstore.MemoryStore
	failKeys map[string]bool
	listErr  error
}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failKeys[key] {
		return nil, io.ErrUnexpectedEOF
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *failingStore) List(ctx context.Context, prefix string) ([]blobstore.Object, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.MemoryStore.List(ctx, prefix)
}
