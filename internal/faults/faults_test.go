package faults_test

import (
	"errors"
	"fmt"
	"testing"

	"clipcast/internal/faults"
)

func TestWrapClassifies(t *testing.T) {
	base := errors.New("connection refused")
	err := faults.Wrap(faults.Fetch, base)

	kind, ok := faults.KindOf(err)
	if !ok || kind != faults.Fetch {
		t.Fatalf("KindOf = %q, %v; want fetch", kind, ok)
	}
	if !errors.Is(err, base) {
		t.Fatal("wrapped failure should unwrap to the base error")
	}
}

func TestWrapNil(t *testing.T) {
	if err := faults.Wrap(faults.Transform, nil); err != nil {
		t.Fatalf("Wrap(nil) = %v; want nil", err)
	}
}

func TestKindSurvivesFurtherWrapping(t *testing.T) {
	err := faults.Errorf(faults.UploadFinish, "finish rejected")
	err = fmt.Errorf("publish item abc: %w", err)

	if !faults.Is(err, faults.UploadFinish) {
		t.Fatalf("classification lost through wrapping: %v", err)
	}
	if faults.Is(err, faults.UploadInit) {
		t.Fatal("wrong kind matched")
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if _, ok := faults.KindOf(errors.New("plain")); ok {
		t.Fatal("plain error should carry no classification")
	}
}
