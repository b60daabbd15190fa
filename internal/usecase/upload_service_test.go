package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
)

type memoryVideoStore struct {
	files map[string][]byte
}

func (m *memoryVideoStore) Save(_ context.Context, sessionID string, r io.Reader) (string, error) {
	if _, ok := m.files[sessionID]; ok {
		return "", fmt.Errorf("create %s: %w", sessionID, fs.ErrExist)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.files[sessionID] = data
	return m.Path(sessionID), nil
}

func (m *memoryVideoStore) Path(sessionID string) string {
	return "uploads/video_" + sessionID + ".mp4"
}

type recordingArchive struct {
	keys []string
	err  error
}

func (a *recordingArchive) ArchiveVideo(_ context.Context, objectKey, _ string) error {
	a.keys = append(a.keys, objectKey)
	return a.err
}

func newTestUploadService(store *memoryVideoStore, archive *recordingArchive) *UploadService {
	svc := NewUploadService(store, archive, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }
	return svc
}

func TestUploadUsesTimestampSessionID(t *testing.T) {
	store := &memoryVideoStore{files: map[string][]byte{}}
	svc := newTestUploadService(store, &recordingArchive{})

	res, err := svc.Upload(context.Background(), "pitch.mp4", strings.NewReader("video"))
	require.NoError(t, err)

	assert.Equal(t, "20240309_140507", res.SessionID)
	assert.NotEmpty(t, res.Message)
	assert.Equal(t, []byte("video"), store.files["20240309_140507"])
}

func TestUploadAddsSuffixOnCollision(t *testing.T) {
	store := &memoryVideoStore{files: map[string][]byte{}}
	svc := newTestUploadService(store, &recordingArchive{})

	var ids []string
	for i := 0; i < 3; i++ {
		res, err := svc.Upload(context.Background(), "pitch.mp4", bytes.NewReader([]byte{byte(i)}))
		require.NoError(t, err)
		ids = append(ids, res.SessionID)
	}

	assert.Equal(t, []string{"20240309_140507", "20240309_140507_2", "20240309_140507_3"}, ids)
	assert.Equal(t, []byte{2}, store.files["20240309_140507_3"])
}

func TestUploadRejectsMissingInput(t *testing.T) {
	store := &memoryVideoStore{files: map[string][]byte{}}
	svc := newTestUploadService(store, &recordingArchive{})

	_, err := svc.Upload(context.Background(), "", strings.NewReader("video"))
	assert.ErrorIs(t, err, entity.ErrInputMissing)

	_, err = svc.Upload(context.Background(), "pitch.mp4", nil)
	assert.ErrorIs(t, err, entity.ErrInputMissing)

	assert.Empty(t, store.files)
}

func TestUploadArchiveFailureIsNotFatal(t *testing.T) {
	store := &memoryVideoStore{files: map[string][]byte{}}
	archive := &recordingArchive{err: errors.New("minio down")}
	svc := newTestUploadService(store, archive)

	res, err := svc.Upload(context.Background(), "pitch.mp4", strings.NewReader("video"))
	require.NoError(t, err)
	assert.Equal(t, "20240309_140507", res.SessionID)
	assert.Equal(t, []string{"video_20240309_140507.mp4"}, archive.keys)
}
