package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"clipcast/internal/config"
	"clipcast/internal/faults"
	"clipcast/internal/retry"
)

// Destination publishes a local clip file and returns the destination's
// video identifier.
type Destination interface {
	Publish(ctx context.Context, clipPath, caption string) (string, error)
}

// Client talks to the Graph-style video API of the destination.
type Client struct {
	baseURL        string
	accountID      string
	accessToken    string
	directMaxBytes int64
	publish        bool
	httpClient     *http.Client
	retry          retry.Policy
	logger         *slog.Logger
}

var _ Destination = (*Client)(nil)

// NewClient builds a destination client from configuration. The retry
// policy governs every phase of a resumable upload independently.
func NewClient(cfg config.Destination, policy retry.Policy, logger *slog.Logger) *Client {
	if policy.IsRetryable == nil {
		policy.IsRetryable = retryableUpload
	}
	timeout := time.Duration(cfg.RequestTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.APIBaseURL, "/"),
		accountID:      cfg.AccountID,
		accessToken:    cfg.AccessToken,
		directMaxBytes: cfg.DirectUploadMaxMiB * 1024 * 1024,
		publish:        cfg.Publish,
		httpClient:     &http.Client{Timeout: timeout},
		retry:          policy,
		logger:         logger,
	}
}

// Publish uploads the clip and returns its video ID. Files at or below the
// direct-upload threshold take the single-request path; larger files go
// through the resumable session protocol.
func (c *Client) Publish(ctx context.Context, clipPath, caption string) (string, error) {
	info, err := os.Stat(clipPath)
	if err != nil {
		return "", faults.Wrap(faults.UploadInit, fmt.Errorf("stat clip: %w", err))
	}
	if c.directMaxBytes > 0 && info.Size() <= c.directMaxBytes {
		return c.publishDirect(ctx, clipPath, caption)
	}
	return c.publishResumable(ctx, clipPath, caption, info.Size())
}

func (c *Client) publishResumable(ctx context.Context, clipPath, caption string, size int64) (string, error) {
	session := &Session{Phase: PhaseInit, TotalBytes: size}
	c.logger.Info("starting resumable upload", "clip", filepath.Base(clipPath), "bytes", size)

	if err := c.retry.Do(ctx, "upload init", func(ctx context.Context) error {
		return c.initSession(ctx, session, size)
	}); err != nil {
		session.fail()
		return "", classify(faults.UploadInit, err)
	}
	session.advance(PhaseTransfer)

	if err := c.retry.Do(ctx, "upload transfer", func(ctx context.Context) error {
		return c.transferFile(ctx, session, clipPath)
	}); err != nil {
		session.fail()
		return "", classify(faults.UploadTransfer, err)
	}
	session.advance(PhaseFinish)

	if err := c.retry.Do(ctx, "upload finish", func(ctx context.Context) error {
		return c.finishSession(ctx, session, caption)
	}); err != nil {
		session.fail()
		return "", classify(faults.UploadFinish, err)
	}
	session.advance(PhaseDone)

	c.logger.Info("resumable upload complete", "video_id", session.VideoID)
	return session.VideoID, nil
}

// initSession opens an upload session and records its identifiers.
func (c *Client) initSession(ctx context.Context, session *Session, size int64) error {
	form := url.Values{
		"upload_phase": {"start"},
		"access_token": {c.accessToken},
		"file_size":    {strconv.FormatInt(size, 10)},
	}
	body, err := c.postForm(ctx, form)
	if err != nil {
		return err
	}
	var resp struct {
		VideoID         string `json:"video_id"`
		UploadSessionID string `json:"upload_session_id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode init response: %w", err)
	}
	if resp.UploadSessionID == "" {
		return fmt.Errorf("init response missing upload_session_id: %s", string(body))
	}
	session.ID = resp.UploadSessionID
	session.VideoID = resp.VideoID
	return nil
}

// transferFile streams the clip bytes as a single chunk. On retry the whole
// transfer restarts from offset zero rather than resuming mid-chunk.
func (c *Client) transferFile(ctx context.Context, session *Session, clipPath string) error {
	file, err := os.Open(clipPath)
	if err != nil {
		return fmt.Errorf("open clip: %w", err)
	}
	defer file.Close()
	session.BytesSent = 0

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	fields := map[string]string{
		"upload_phase":      "transfer",
		"access_token":      c.accessToken,
		"upload_session_id": session.ID,
		"start_offset":      "0",
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return fmt.Errorf("write form field %s: %w", name, err)
		}
	}
	part, err := writer.CreateFormFile("video_file_chunk", filepath.Base(clipPath))
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	written, err := io.Copy(part, file)
	if err != nil {
		return fmt.Errorf("read clip: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}

	body, err := c.postMultipart(ctx, &buf, writer.FormDataContentType())
	if err != nil {
		return err
	}
	var resp struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode transfer response: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("transfer reported failure: %s", string(body))
	}
	session.BytesSent = written
	return nil
}

// finishSession closes the session, attaching the caption and publish flag.
func (c *Client) finishSession(ctx context.Context, session *Session, caption string) error {
	form := url.Values{
		"upload_phase":      {"finish"},
		"access_token":      {c.accessToken},
		"upload_session_id": {session.ID},
		"title":             {caption},
		"description":       {caption},
		"published":         {strconv.FormatBool(c.publish)},
	}
	body, err := c.postForm(ctx, form)
	if err != nil {
		return err
	}
	var resp struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode finish response: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("finish reported failure: %s", string(body))
	}
	return nil
}

// publishDirect uploads the clip in one multipart request.
func (c *Client) publishDirect(ctx context.Context, clipPath, caption string) (string, error) {
	c.logger.Info("starting direct upload", "clip", filepath.Base(clipPath))

	var videoID string
	err := c.retry.Do(ctx, "direct upload", func(ctx context.Context) error {
		file, err := os.Open(clipPath)
		if err != nil {
			return fmt.Errorf("open clip: %w", err)
		}
		defer file.Close()

		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		fields := map[string]string{
			"access_token": c.accessToken,
			"description":  caption,
			"published":    strconv.FormatBool(c.publish),
		}
		for name, value := range fields {
			if err := writer.WriteField(name, value); err != nil {
				return fmt.Errorf("write form field %s: %w", name, err)
			}
		}
		part, err := writer.CreateFormFile("source", filepath.Base(clipPath))
		if err != nil {
			return fmt.Errorf("create file part: %w", err)
		}
		if _, err := io.Copy(part, file); err != nil {
			return fmt.Errorf("read clip: %w", err)
		}
		if err := writer.Close(); err != nil {
			return fmt.Errorf("finalize multipart body: %w", err)
		}

		body, err := c.postMultipart(ctx, &buf, writer.FormDataContentType())
		if err != nil {
			return err
		}
		var resp struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("decode upload response: %w", err)
		}
		if resp.ID == "" {
			return fmt.Errorf("upload response missing id: %s", string(body))
		}
		videoID = resp.ID
		return nil
	})
	if err != nil {
		return "", classify(faults.UploadTransfer, err)
	}

	c.logger.Info("direct upload complete", "video_id", videoID)
	return videoID, nil
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/%s/videos", c.baseURL, c.accountID)
}

func (c *Client) postForm(ctx context.Context, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *Client) postMultipart(ctx context.Context, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, faults.Wrap(faults.Auth, &statusError{code: resp.StatusCode, body: string(body)})
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode, body: string(body)}
	}
	return body, nil
}

// statusError carries a non-2xx destination response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	snippet := e.body
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return fmt.Sprintf("destination returned %d: %s", e.code, strings.TrimSpace(snippet))
}

func (e *statusError) retryable() bool {
	if e.code == http.StatusRequestTimeout || e.code == http.StatusTooManyRequests {
		return true
	}
	return e.code >= 500
}

// retryableUpload extends transport-level retry classification with HTTP
// status handling. Credential rejections never retry.
func retryableUpload(err error) bool {
	if faults.Is(err, faults.Auth) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.retryable()
	}
	return retry.Transient(err)
}

// classify wraps a phase failure unless it already carries a classification,
// so an auth rejection surfaces as auth rather than as the phase it
// happened in.
func classify(kind faults.Kind, err error) error {
	if _, ok := faults.KindOf(err); ok {
		return err
	}
	return faults.Wrap(kind, err)
}
