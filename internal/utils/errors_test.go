package utils

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestAppErrorKindsMatchWithErrorsIs(t *testing.T) {
	err := fmt.Errorf("update incident: %w", NotFound("incidents.Update", "incident inc-1"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if errors.Is(err, ErrInvalidInput) {
		t.Fatalf("did not expect ErrInvalidInput")
	}

	cause := errors.New("disk full")
	storage := StorageUnavailable("repo.Save", cause)
	if !errors.Is(storage, ErrStorageUnavailable) || !errors.Is(storage, cause) {
		t.Fatalf("expected storage error to match kind and cause, got %v", storage)
	}
	if got := storage.Error(); got != "repo.Save: storage unavailable: disk full" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestAbsDeltaAndHumanize(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if d := AbsDelta(base.Add(30*time.Minute), base); d != 30*time.Minute {
		t.Fatalf("expected 30m, got %v", d)
	}
	cases := map[time.Duration]string{
		45 * time.Second:  "45s",
		12 * time.Minute:  "12m",
		time.Hour:         "1h",
		65 * time.Minute:  "1h5m",
		-90 * time.Second: "1m",
	}
	for in, want := range cases {
		if got := HumanizeDelta(in); got != want {
			t.Fatalf("HumanizeDelta(%v) = %q, want %q", in, got, want)
		}
	}
}
