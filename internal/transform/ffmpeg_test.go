package transform

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"clipcast/internal/config"
	"clipcast/internal/faults"
)

func newTestFFmpeg(t *testing.T) *FFmpeg {
	t.Helper()
	cfg := config.Default().Transform
	f := NewFFmpeg(cfg, t.TempDir())
	f.randFloat = func() float64 { return 0.5 }
	return f
}

// fakeCommand reroutes external tool invocations into TestHelperProcess,
// following the pattern used for other tool clients.
func fakeCommand(t *testing.T, env ...string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
		cmd.Env = append(cmd.Env, env...)
		return cmd
	}
	t.Cleanup(func() { commandContext = original })
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}
	if len(args) == 0 {
		os.Exit(2)
	}
	switch filepath.Base(args[0]) {
	case "ffprobe":
		fmt.Println(envOr("HELPER_DURATION", "130.0"))
		os.Exit(0)
	case "ffmpeg":
		if os.Getenv("HELPER_FFMPEG_FAIL") == "1" {
			fmt.Fprintln(os.Stderr, "ffmpeg exploded")
			os.Exit(1)
		}
		out := args[len(args)-1]
		if strings.Contains(out, "%03d") {
			segments, _ := strconv.Atoi(envOr("HELPER_SEGMENTS", "3"))
			for i := 0; i < segments; i++ {
				path := strings.Replace(out, "%03d", fmt.Sprintf("%03d", i), 1)
				if err := os.WriteFile(path, []byte("clip"), 0o644); err != nil {
					os.Exit(1)
				}
			}
		} else if err := os.WriteFile(out, []byte("clip"), 0o644); err != nil {
			os.Exit(1)
		}
		os.Exit(0)
	}
	os.Exit(2)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func TestSplitProducesOrderedClips(t *testing.T) {
	fakeCommand(t, "HELPER_DURATION=130.0", "HELPER_SEGMENTS=3")
	f := newTestFFmpeg(t)

	clips, err := f.Split(context.Background(), "/media/source.mp4", 60)
	if err != nil {
		t.Fatalf("Split returned error: %v", err)
	}
	if len(clips) != 3 {
		t.Fatalf("got %d clips; want 3", len(clips))
	}
	for i, clip := range clips {
		if clip.Index != i {
			t.Fatalf("clip %d has index %d", i, clip.Index)
		}
		if clip.StartOffsetSeconds != float64(i*60) {
			t.Fatalf("clip %d start = %v", i, clip.StartOffsetSeconds)
		}
	}
	// 130s source: two full segments and a 10s tail.
	if clips[2].DurationSeconds != 10 {
		t.Fatalf("tail duration = %v; want 10", clips[2].DurationSeconds)
	}
}

func TestSplitRemovesStaleClips(t *testing.T) {
	fakeCommand(t, "HELPER_SEGMENTS=2")
	f := newTestFFmpeg(t)

	stale := filepath.Join(f.workDir, "clip_900.mp4")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatalf("write stale clip: %v", err)
	}

	clips, err := f.Split(context.Background(), "/media/source.mp4", 60)
	if err != nil {
		t.Fatalf("Split returned error: %v", err)
	}
	if len(clips) != 2 {
		t.Fatalf("got %d clips; want 2 (stale artifact must not survive)", len(clips))
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale clip from a previous invocation still present")
	}
}

func TestSplitFailureCleansPartialOutput(t *testing.T) {
	fakeCommand(t, "HELPER_FFMPEG_FAIL=1")
	f := newTestFFmpeg(t)

	_, err := f.Split(context.Background(), "/media/source.mp4", 60)
	if !faults.Is(err, faults.Transform) {
		t.Fatalf("err = %v; want transform classification", err)
	}
	leftovers, _ := filepath.Glob(filepath.Join(f.workDir, "clip_*.mp4"))
	if len(leftovers) != 0 {
		t.Fatalf("partial output left behind: %v", leftovers)
	}
}

func TestExtractWindowPrecondition(t *testing.T) {
	fakeCommand(t, "HELPER_DURATION=45.0")
	f := newTestFFmpeg(t)

	_, err := f.ExtractWindow(context.Background(), "/media/short.mp4", 60)
	if !faults.Is(err, faults.Transform) {
		t.Fatalf("err = %v; want transform classification", err)
	}
	if !strings.Contains(err.Error(), "shorter than requested window") {
		t.Fatalf("expected precondition error, got %v", err)
	}
	files, _ := os.ReadDir(f.workDir)
	if len(files) != 0 {
		t.Fatal("precondition failure must produce no clip")
	}
}

func TestExtractWindowOffsetWithinBounds(t *testing.T) {
	fakeCommand(t, "HELPER_DURATION=300.0")
	f := newTestFFmpeg(t)
	f.randFloat = func() float64 { return 1.0 }

	clip, err := f.ExtractWindow(context.Background(), "/media/long.mp4", 60)
	if err != nil {
		t.Fatalf("ExtractWindow returned error: %v", err)
	}
	if clip.StartOffsetSeconds < 0 || clip.StartOffsetSeconds > 240 {
		t.Fatalf("offset %v outside [0, duration-window]", clip.StartOffsetSeconds)
	}
	if clip.DurationSeconds != 60 {
		t.Fatalf("duration = %v; want 60", clip.DurationSeconds)
	}
	if _, err := os.Stat(clip.Path); err != nil {
		t.Fatalf("declared output missing: %v", err)
	}
}

func TestPortraitFilterModes(t *testing.T) {
	cfg := config.Default().Transform
	cfg.PortraitMode = config.PortraitPad
	pad := NewFFmpeg(cfg, t.TempDir()).portraitFilter()
	if !strings.Contains(pad, "pad=1080:1920") {
		t.Fatalf("pad filter missing pad stage: %q", pad)
	}

	cfg.PortraitMode = config.PortraitBlur
	blur := NewFFmpeg(cfg, t.TempDir()).portraitFilter()
	for _, stage := range []string{"boxblur", "crop=1080:1920", "overlay"} {
		if !strings.Contains(blur, stage) {
			t.Fatalf("blur filter missing %s stage: %q", stage, blur)
		}
	}
}
