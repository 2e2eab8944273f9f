package publisher_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipcast/internal/config"
	"clipcast/internal/faults"
	"clipcast/internal/publisher"
	"clipcast/internal/retry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeClip(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip_000.mp4")
	if err := os.WriteFile(path, []byte(strings.Repeat("v", size)), 0o644); err != nil {
		t.Fatalf("write clip: %v", err)
	}
	return path
}

func newClient(t *testing.T, server *httptest.Server, directMaxMiB int64) *publisher.Client {
	t.Helper()
	cfg := config.Destination{
		APIBaseURL:         server.URL,
		AccountID:          "acct-1",
		AccessToken:        "token-1",
		DirectUploadMaxMiB: directMaxMiB,
		Publish:            true,
		RequestTimeoutSecs: 10,
	}
	policy := retry.Policy{MaxRetries: 3, Delay: 0}
	return publisher.NewClient(cfg, policy, testLogger())
}

// phase extracts upload_phase from either form encoding the client uses.
func phase(t *testing.T, r *http.Request) string {
	t.Helper()
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse multipart form: %v", err)
		}
	} else if err := r.ParseForm(); err != nil {
		t.Fatalf("parse form: %v", err)
	}
	return r.FormValue("upload_phase")
}

func TestPublishResumableHappyPath(t *testing.T) {
	var phases []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/acct-1/videos") {
			t.Fatalf("unexpected path: %q", r.URL.Path)
		}
		p := phase(t, r)
		phases = append(phases, p)
		switch p {
		case "start":
			fmt.Fprint(w, `{"video_id":"vid-9","upload_session_id":"sess-9"}`)
		case "transfer":
			if r.FormValue("upload_session_id") != "sess-9" {
				t.Fatalf("transfer carries session %q", r.FormValue("upload_session_id"))
			}
			if r.FormValue("start_offset") != "0" {
				t.Fatalf("transfer start_offset = %q", r.FormValue("start_offset"))
			}
			if _, _, err := r.FormFile("video_file_chunk"); err != nil {
				t.Fatalf("transfer missing chunk: %v", err)
			}
			fmt.Fprint(w, `{"success":true}`)
		case "finish":
			if r.FormValue("description") == "" || r.FormValue("published") != "true" {
				t.Fatalf("finish fields incomplete: %v", r.Form)
			}
			fmt.Fprint(w, `{"success":true}`)
		default:
			t.Fatalf("unexpected phase %q", p)
		}
	}))
	defer server.Close()

	client := newClient(t, server, 0)
	videoID, err := client.Publish(context.Background(), writeClip(t, 64), "a caption")
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if videoID != "vid-9" {
		t.Fatalf("videoID = %q; want vid-9", videoID)
	}
	want := []string{"start", "transfer", "finish"}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v; want %v", phases, want)
	}
	for i, p := range want {
		if phases[i] != p {
			t.Fatalf("phase %d = %q; want %q", i, phases[i], p)
		}
	}
}

func TestPublishRetriesTransientTransferFailure(t *testing.T) {
	transferAttempts := 0
	finishes := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch phase(t, r) {
		case "start":
			fmt.Fprint(w, `{"video_id":"vid-1","upload_session_id":"sess-1"}`)
		case "transfer":
			transferAttempts++
			if transferAttempts <= 2 {
				http.Error(w, `{"error":"backend hiccup"}`, http.StatusInternalServerError)
				return
			}
			fmt.Fprint(w, `{"success":true}`)
		case "finish":
			finishes++
			fmt.Fprint(w, `{"success":true}`)
		}
	}))
	defer server.Close()

	client := newClient(t, server, 0)
	videoID, err := client.Publish(context.Background(), writeClip(t, 64), "caption")
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if videoID != "vid-1" {
		t.Fatalf("videoID = %q", videoID)
	}
	if transferAttempts != 3 {
		t.Fatalf("transfer attempts = %d; want 3", transferAttempts)
	}
	if finishes != 1 {
		t.Fatalf("finish calls = %d; want exactly 1", finishes)
	}
}

func TestPublishTransferRejectedBodyFailsUpload(t *testing.T) {
	transferAttempts := 0
	finishes := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch phase(t, r) {
		case "start":
			fmt.Fprint(w, `{"video_id":"vid-1","upload_session_id":"sess-1"}`)
		case "transfer":
			transferAttempts++
			// Status OK but the destination reports the chunk was not taken.
			fmt.Fprint(w, `{"success":false}`)
		case "finish":
			finishes++
		}
	}))
	defer server.Close()

	client := newClient(t, server, 0)
	_, err := client.Publish(context.Background(), writeClip(t, 64), "caption")
	if !faults.Is(err, faults.UploadTransfer) {
		t.Fatalf("err = %v; want upload_transfer classification", err)
	}
	if transferAttempts != 1 {
		t.Fatalf("transfer attempts = %d; a rejected body is not a transport hiccup", transferAttempts)
	}
	if finishes != 0 {
		t.Fatal("finish must not run after the destination rejected the chunk")
	}
}

func TestPublishTransferExhaustionNeverFinishes(t *testing.T) {
	transferAttempts := 0
	finishes := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch phase(t, r) {
		case "start":
			fmt.Fprint(w, `{"video_id":"vid-1","upload_session_id":"sess-1"}`)
		case "transfer":
			transferAttempts++
			http.Error(w, `{"error":"still down"}`, http.StatusServiceUnavailable)
		case "finish":
			finishes++
		}
	}))
	defer server.Close()

	client := newClient(t, server, 0)
	_, err := client.Publish(context.Background(), writeClip(t, 64), "caption")
	if !faults.Is(err, faults.UploadTransfer) {
		t.Fatalf("err = %v; want upload_transfer classification", err)
	}
	// MaxRetries = 3 means four attempts in total.
	if transferAttempts != 4 {
		t.Fatalf("transfer attempts = %d; want 4", transferAttempts)
	}
	if finishes != 0 {
		t.Fatal("finish must not run after transfer gave up")
	}
}

func TestPublishAuthRejectionIsNotRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, `{"error":"bad token"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newClient(t, server, 0)
	_, err := client.Publish(context.Background(), writeClip(t, 64), "caption")
	if !faults.Is(err, faults.Auth) {
		t.Fatalf("err = %v; want auth classification", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d; credential rejection must not retry", attempts)
	}
}

func TestPublishDirectForSmallFiles(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse multipart form: %v", err)
		}
		if r.FormValue("upload_phase") != "" {
			t.Fatal("direct path must not carry a session phase")
		}
		if r.FormValue("description") != "small clip" {
			t.Fatalf("description = %q", r.FormValue("description"))
		}
		if _, _, err := r.FormFile("source"); err != nil {
			t.Fatalf("direct path missing source file: %v", err)
		}
		fmt.Fprint(w, `{"id":"vid-direct"}`)
	}))
	defer server.Close()

	client := newClient(t, server, 1)
	videoID, err := client.Publish(context.Background(), writeClip(t, 64), "small clip")
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if videoID != "vid-direct" {
		t.Fatalf("videoID = %q; want vid-direct", videoID)
	}
	if requests != 1 {
		t.Fatalf("requests = %d; direct path is a single call", requests)
	}
}
