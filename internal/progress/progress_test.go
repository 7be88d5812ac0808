package progress

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
)

func TestNewTracker(t *testing.T) {
	tests := []struct {
		name  string
		label string
		total int
	}{
		{"standard run", "Simulating trials", 100000},
		{"single trial", "One trial", 1},
		{"zero total", "Empty", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTrackerTo(io.Discard, tt.label, tt.total)
			if tracker == nil {
				t.Fatal("NewTrackerTo() returned nil")
			}
			if tracker.bar == nil {
				t.Error("tracker.bar should not be nil")
			}
			if tracker.label != tt.label {
				t.Errorf("tracker.label = %q, want %q", tracker.label, tt.label)
			}
		})
	}
}

func TestTracker_AddConcurrent(t *testing.T) {
	tracker := NewTrackerTo(io.Discard, "Simulating", 1000)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				tracker.Add(10)
			}
		}()
	}
	wg.Wait()

	if got := tracker.bar.State().CurrentNum; got != 1000 {
		t.Errorf("CurrentNum = %d, want 1000", got)
	}
	tracker.FinishSuccess()
}

func TestTracker_Tick(t *testing.T) {
	tracker := NewTrackerTo(io.Discard, "Ticking", 3)
	tracker.Tick()
	tracker.Tick()
	if got := tracker.bar.State().CurrentNum; got != 2 {
		t.Errorf("CurrentNum = %d, want 2", got)
	}
}

func TestTracker_Set(t *testing.T) {
	tracker := NewTrackerTo(io.Discard, "Simulating", 100)
	tracker.Set(40)
	tracker.Set(75)
	if got := tracker.bar.State().CurrentNum; got != 75 {
		t.Errorf("CurrentNum = %d, want 75", got)
	}
}

func TestTracker_FinishMessages(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTrackerTo(&buf, "Simulating", 10)
	tracker.FinishError(errors.New("cancelled"))
	if !strings.Contains(buf.String(), "Simulating error: cancelled") {
		t.Errorf("expected error message, got %q", buf.String())
	}

	buf.Reset()
	tracker = NewTrackerTo(&buf, "Simulating", 10)
	tracker.FinishSkipped("no trials")
	if !strings.Contains(buf.String(), "Simulating skipped (no trials)") {
		t.Errorf("expected skip message, got %q", buf.String())
	}
}

func TestNewSpinner(t *testing.T) {
	spinner := NewSpinnerTo(io.Discard, "Building distribution...")
	if spinner == nil || spinner.bar == nil {
		t.Fatal("NewSpinnerTo() returned an unusable tracker")
	}
	spinner.Tick()
	spinner.FinishSuccess()
}
