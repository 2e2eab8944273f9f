package catalog

import (
	"context"
	"time"
)

// Item is one candidate media file discovered in the source container.
// Items are re-discovered fresh each poll and never persisted.
type Item struct {
	ID        string
	Name      string
	MimeType  string
	CreatedAt time.Time
}

// Catalog enumerates and fetches candidate media items.
type Catalog interface {
	// List returns items in the container whose MIME type matches the
	// prefix, ascending by creation time.
	List(ctx context.Context, containerID, mimePrefix string) ([]Item, error)
	// Download streams the item's bytes into destDir and returns the local
	// path. Results below the configured minimum size are rejected as
	// incomplete and removed.
	Download(ctx context.Context, item Item, destDir string) (string, error)
}
