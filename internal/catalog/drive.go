package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"clipcast/internal/faults"
)

const listPageSize = 100

// Drive reads media items from a Google Drive folder.
type Drive struct {
	svc      *drive.Service
	minBytes int64
}

// NewDrive builds a Drive catalog. Credential acquisition stays outside this
// package; callers pass the client options that carry auth (a credentials
// file, token source, or pre-built HTTP client).
func NewDrive(ctx context.Context, minDownloadBytes int64, opts ...option.ClientOption) (*Drive, error) {
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	return &Drive{svc: svc, minBytes: minDownloadBytes}, nil
}

// List returns the folder's matching items ascending by creation time.
// Failures are classified as source-list faults: the caller treats them as
// "nothing to relay this run", never as fatal to process state.
func (d *Drive) List(ctx context.Context, containerID, mimePrefix string) ([]Item, error) {
	query := fmt.Sprintf("'%s' in parents and mimeType contains '%s' and trashed = false", containerID, mimePrefix)

	var items []Item
	call := d.svc.Files.List().
		Q(query).
		OrderBy("createdTime").
		PageSize(listPageSize).
		Fields("nextPageToken, files(id, name, mimeType, createdTime)").
		Context(ctx)

	err := call.Pages(ctx, func(page *drive.FileList) error {
		for _, file := range page.Files {
			if !strings.HasPrefix(file.MimeType, mimePrefix) {
				continue
			}
			created, err := time.Parse(time.RFC3339, file.CreatedTime)
			if err != nil {
				created = time.Time{}
			}
			items = append(items, Item{
				ID:        file.Id,
				Name:      file.Name,
				MimeType:  file.MimeType,
				CreatedAt: created,
			})
		}
		return nil
	})
	if err != nil {
		return nil, faults.Wrap(faults.SourceList, fmt.Errorf("list folder %s: %w", containerID, err))
	}

	// The API orders by createdTime already; keep the guarantee even if a
	// page arrives unordered.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

// Download fetches the item into destDir. Anything smaller than the minimum
// byte threshold is treated as an error page masquerading as media: the
// partial file is removed and a fetch fault returned.
func (d *Drive) Download(ctx context.Context, item Item, destDir string) (string, error) {
	resp, err := d.svc.Files.Get(item.ID).Context(ctx).Download()
	if err != nil {
		return "", faults.Wrap(faults.Fetch, fmt.Errorf("download %s: %w", item.ID, err))
	}
	defer resp.Body.Close()

	path := filepath.Join(destDir, "fetch_"+sanitizeName(item.Name))
	file, err := os.Create(path)
	if err != nil {
		return "", faults.Wrap(faults.Fetch, fmt.Errorf("create %s: %w", path, err))
	}

	written, copyErr := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(path)
		if copyErr == nil {
			copyErr = closeErr
		}
		return "", faults.Wrap(faults.Fetch, fmt.Errorf("write %s: %w", path, copyErr))
	}
	if written < d.minBytes {
		_ = os.Remove(path)
		return "", faults.Errorf(faults.Fetch, "download %s incomplete: %d bytes < %d byte minimum", item.ID, written, d.minBytes)
	}
	return path, nil
}

func sanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "item"
	}
	replacer := strings.NewReplacer(" ", "_", string(filepath.Separator), "_")
	return replacer.Replace(name)
}
