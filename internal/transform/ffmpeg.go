package transform

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"clipcast/internal/config"
	"clipcast/internal/faults"
)

// ErrSourceTooShort marks the extract-window precondition failure: the
// source is shorter than the requested window.
var ErrSourceTooShort = errors.New("source shorter than requested window")

var commandContext = exec.CommandContext

const clipPattern = "clip_*.mp4"

// FFmpeg implements Transcoder by invoking ffmpeg/ffprobe as opaque batch
// steps: success is exit code zero plus the declared output existing.
type FFmpeg struct {
	binary       string
	probeBinary  string
	workDir      string
	width        int
	height       int
	portraitMode string

	randFloat func() float64
}

var _ Transcoder = (*FFmpeg)(nil)

// NewFFmpeg builds the transcoder from configuration. workDir receives the
// produced clip artifacts.
func NewFFmpeg(cfg config.Transform, workDir string) *FFmpeg {
	return &FFmpeg{
		binary:       cfg.FFmpegBinary,
		probeBinary:  cfg.FFprobeBinary,
		workDir:      workDir,
		width:        cfg.Width,
		height:       cfg.Height,
		portraitMode: cfg.PortraitMode,
		randFloat:    rand.Float64,
	}
}

// Split cuts the source into portrait segments of segmentSeconds each.
func (f *FFmpeg) Split(ctx context.Context, sourcePath string, segmentSeconds int) ([]Clip, error) {
	if segmentSeconds <= 0 {
		return nil, faults.Errorf(faults.Transform, "segment duration must be positive, got %d", segmentSeconds)
	}
	duration, err := f.probeDuration(ctx, sourcePath)
	if err != nil {
		return nil, err
	}
	if err := f.removeStaleClips(); err != nil {
		return nil, faults.Wrap(faults.Transform, err)
	}

	outPattern := filepath.Join(f.workDir, "clip_%03d.mp4")
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", sourcePath,
		"-filter_complex", f.portraitFilter(),
		"-map", "[v]",
		"-map", "0:a?",
		"-f", "segment",
		"-segment_time", strconv.Itoa(segmentSeconds),
		"-reset_timestamps", "1",
		outPattern,
	}
	cmd := commandContext(ctx, f.binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		_ = f.removeStaleClips()
		return nil, faults.Wrap(faults.Transform, fmt.Errorf("ffmpeg split: %w: %s", err, strings.TrimSpace(string(output))))
	}

	paths, err := filepath.Glob(filepath.Join(f.workDir, clipPattern))
	if err != nil {
		return nil, faults.Wrap(faults.Transform, err)
	}
	if len(paths) == 0 {
		return nil, faults.Errorf(faults.Transform, "ffmpeg split produced no output in %s", f.workDir)
	}
	sort.Strings(paths)

	sourceID := filepath.Base(sourcePath)
	clips := make([]Clip, 0, len(paths))
	for i, path := range paths {
		start := float64(i * segmentSeconds)
		length := float64(segmentSeconds)
		if remaining := duration - start; remaining > 0 && remaining < length {
			length = remaining
		}
		clips = append(clips, Clip{
			SourceID:           sourceID,
			Index:              i,
			StartOffsetSeconds: start,
			DurationSeconds:    length,
			Path:               path,
		})
	}
	return clips, nil
}

// ExtractWindow cuts one clip of windowSeconds at a uniformly random offset
// in [0, duration-window].
func (f *FFmpeg) ExtractWindow(ctx context.Context, sourcePath string, windowSeconds int) (Clip, error) {
	if windowSeconds <= 0 {
		return Clip{}, faults.Errorf(faults.Transform, "window duration must be positive, got %d", windowSeconds)
	}
	duration, err := f.probeDuration(ctx, sourcePath)
	if err != nil {
		return Clip{}, err
	}
	window := float64(windowSeconds)
	if duration < window {
		return Clip{}, faults.Wrap(faults.Transform, fmt.Errorf("%w: source %.1fs, window %.1fs", ErrSourceTooShort, duration, window))
	}

	offset := f.randFloat() * (duration - window)
	outPath := filepath.Join(f.workDir, fmt.Sprintf("window_%s.mp4", uuid.NewString()))
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", fmt.Sprintf("%.3f", offset),
		"-t", strconv.Itoa(windowSeconds),
		"-i", sourcePath,
		"-filter_complex", f.portraitFilter(),
		"-map", "[v]",
		"-map", "0:a?",
		outPath,
	}
	cmd := commandContext(ctx, f.binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		_ = os.Remove(outPath)
		return Clip{}, faults.Wrap(faults.Transform, fmt.Errorf("ffmpeg extract: %w: %s", err, strings.TrimSpace(string(output))))
	}
	if _, err := os.Stat(outPath); err != nil {
		return Clip{}, faults.Errorf(faults.Transform, "ffmpeg extract produced no output at %s", outPath)
	}

	return Clip{
		SourceID:           filepath.Base(sourcePath),
		Index:              0,
		StartOffsetSeconds: offset,
		DurationSeconds:    window,
		Path:               outPath,
	}, nil
}

// portraitFilter builds the reframing filtergraph. Pad letterboxes the
// source into the portrait frame; blur scales a blurred, cropped copy of the
// full frame as background and overlays the proportionally scaled source.
func (f *FFmpeg) portraitFilter() string {
	w, h := f.width, f.height
	if f.portraitMode == config.PortraitPad {
		return fmt.Sprintf(
			"[0:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1[v]",
			w, h, w, h,
		)
	}
	return fmt.Sprintf(
		"[0:v]split=2[bg][fg];"+
			"[bg]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,boxblur=20:5[blurred];"+
			"[fg]scale=%d:%d:force_original_aspect_ratio=decrease[scaled];"+
			"[blurred][scaled]overlay=(W-w)/2:(H-h)/2,setsar=1[v]",
		w, h, w, h, w, h,
	)
}

func (f *FFmpeg) removeStaleClips() error {
	paths, err := filepath.Glob(filepath.Join(f.workDir, clipPattern))
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale clip %s: %w", path, err)
		}
	}
	return nil
}

func (f *FFmpeg) probeDuration(ctx context.Context, sourcePath string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		sourcePath,
	}
	cmd := commandContext(ctx, f.probeBinary, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		return 0, faults.Wrap(faults.Transform, fmt.Errorf("ffprobe %s: %w", sourcePath, err))
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, faults.Wrap(faults.Transform, fmt.Errorf("parse ffprobe duration %q: %w", strings.TrimSpace(string(output)), err))
	}
	return duration, nil
}
