package object

import (
	"context"
	"io"
)

// ObjectStore saves raw uploads. Keys are "<namespace>/<fileName>".
type ObjectStore interface {
	Save(ctx context.Context, namespace string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
}
