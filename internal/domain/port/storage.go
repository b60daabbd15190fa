package port

import (
	"context"
	"io"
)

// VideoStore persists uploaded videos under their session id.
// Save fails with an error wrapping fs.ErrExist, before reading r, when the id is taken.
type VideoStore interface {
	Save(ctx context.Context, sessionID string, r io.Reader) (string, error)
	Path(sessionID string) string
}

// VideoArchive mirrors uploaded videos to object storage.
type VideoArchive interface {
	ArchiveVideo(ctx context.Context, objectKey, filePath string) error
}
