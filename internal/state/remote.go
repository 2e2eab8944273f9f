package state

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"clipcast/internal/config"
)

// Mirror synchronizes the state snapshot with a durable location outside the
// process's own storage.
type Mirror interface {
	// Fetch returns the remote snapshot, or found=false when none exists.
	Fetch(ctx context.Context) (data []byte, found bool, err error)
	// Store uploads a new snapshot, replacing any previous one.
	Store(ctx context.Context, data []byte) error
}

// ObjectMirror keeps the snapshot in an S3-compatible bucket.
type ObjectMirror struct {
	client *minio.Client
	bucket string
	object string
}

// NewObjectMirror builds a mirror from the state configuration. It returns
// nil when no remote endpoint is configured.
func NewObjectMirror(cfg config.State) (*ObjectMirror, error) {
	if cfg.RemoteEndpoint == "" {
		return nil, nil
	}
	client, err := minio.New(cfg.RemoteEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("object store client: %w", err)
	}
	return &ObjectMirror{client: client, bucket: cfg.RemoteBucket, object: cfg.RemoteObject}, nil
}

// Fetch downloads the snapshot object.
func (m *ObjectMirror) Fetch(ctx context.Context) ([]byte, bool, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, m.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, false, fmt.Errorf("get state object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read state object: %w", err)
	}
	return data, true, nil
}

// Store uploads the snapshot object.
func (m *ObjectMirror) Store(ctx context.Context, data []byte) error {
	_, err := m.client.PutObject(
		ctx,
		m.bucket,
		m.object,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return fmt.Errorf("put state object: %w", err)
	}
	return nil
}
