// Package upload stores uploaded videos on the local file system.
package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileStore keeps uploads as <dir>/video_<session_id>.mp4.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Path(sessionID string) string {
	return filepath.Join(s.dir, "video_"+filepath.Base(sessionID)+".mp4")
}

// Save writes r to the session path. The file is created exclusively, so an existing
// upload fails with fs.ErrExist before r is read. A partial file is removed on error.
func (s *FileStore) Save(ctx context.Context, sessionID string, r io.Reader) (string, error) {
	path := s.Path(sessionID)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}

	_, err = io.Copy(f, &ctxReader{ctx: ctx, r: r})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
