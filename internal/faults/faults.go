package faults

import (
	"errors"
	"fmt"
)

// Kind labels the failure classes the relay distinguishes. Every expected
// failure is converted into one of these at its component boundary so the
// orchestrator can decide whether the run mutates state, retries, or ends
// cleanly.
type Kind string

const (
	// Auth means the destination or catalog rejected our credentials.
	// Fatal to the run, never retried, no state mutation.
	Auth Kind = "auth"
	// SourceList means the catalog listing failed. Treated as "nothing to
	// relay this run", never fatal to process state.
	SourceList Kind = "source_list"
	// Fetch means downloading the selected item failed or the result was
	// incomplete. The current item is abandoned without mutation.
	Fetch Kind = "fetch"
	// Transform means the external transcoder failed or its output was
	// missing. Partial output is removed; no mutation.
	Transform Kind = "transform"
	// UploadInit, UploadTransfer and UploadFinish mark the publish phase
	// that exhausted its retries.
	UploadInit     Kind = "upload_init"
	UploadTransfer Kind = "upload_transfer"
	UploadFinish   Kind = "upload_finish"
	// StateSync means the ledger/cursor update was written locally but
	// could not be mirrored remotely. Non-fatal, logged as a durability
	// risk: the next run may not observe the update.
	StateSync Kind = "state_sync"
)

// Failure wraps an underlying error with its classification.
type Failure struct {
	Kind Kind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Wrap classifies err under kind. A nil err returns nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Failure{Kind: kind, Err: err}
}

// Errorf builds a classified failure from a format string.
func Errorf(kind Kind, format string, args ...any) error {
	return &Failure{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the classification of err, or false when err carries none.
func KindOf(err error) (Kind, bool) {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Kind, true
	}
	return "", false
}

// Is reports whether err is classified under kind.
func Is(err error, kind Kind) bool {
	got, ok := KindOf(err)
	return ok && got == kind
}
