package transform

import "context"

// Clip is one portrait segment produced from a source video. Clips are
// ephemeral: they never outlive the invocation that created them.
type Clip struct {
	SourceID           string
	Index              int
	StartOffsetSeconds float64
	DurationSeconds    float64
	Path               string
}

// Transcoder cuts and reframes source video. It is a capability interface so
// tests can substitute a fake without invoking a real process.
type Transcoder interface {
	// Split cuts the source into fixed-duration portrait segments. Clip
	// artifacts left in the working area by a previous invocation are
	// removed first, so reruns never accumulate stale files.
	Split(ctx context.Context, sourcePath string, segmentSeconds int) ([]Clip, error)
	// ExtractWindow cuts a single portrait clip of the given length at a
	// uniformly random offset. A source shorter than the window is a
	// precondition failure that produces no clip.
	ExtractWindow(ctx context.Context, sourcePath string, windowSeconds int) (Clip, error)
}
