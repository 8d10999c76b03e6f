package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestTrackerIsMonotonicPerPhase(t *testing.T) {
	tr := NewTracker(nil, nil, 0)

	tr.Report("download", 0.5)
	tr.Report("download", 0.25)
	if _, f := tr.Fraction(); f != 0.5 {
		t.Fatalf("fraction went backwards to %v", f)
	}

	tr.Report("reproject", 0.1)
	if phase, f := tr.Fraction(); phase != "reproject" || f != 0.1 {
		t.Fatalf("new phase not tracked: %s %v", phase, f)
	}

	tr.Report("reproject", 7)
	if _, f := tr.Fraction(); f != 1 {
		t.Fatalf("fraction not clamped: %v", f)
	}
}

func TestTrackerPrints(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTracker(&buf, nil, 0)

	tr.Report("blend", 1)
	if !strings.Contains(buf.String(), "blend 100.0%") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestTrackerCancel(t *testing.T) {
	tr := NewTracker(nil, nil, 0)
	if tr.CancelRequested() {
		t.Fatal("fresh tracker reports cancel")
	}

	tr.RequestCancel()
	tr.RequestCancel()
	if !tr.CancelRequested() {
		t.Fatal("cancel flag not raised")
	}
}
