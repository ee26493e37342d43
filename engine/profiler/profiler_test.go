package profiler

import (
	"testing"
	"time"
)

func TestTickReportsAfterInterval(t *testing.T) {
	p := NewProfiler()
	p.SetUpdateInterval(time.Hour)
	if p.Tick() {
		t.Error("reported before the interval elapsed")
	}

	p.SetUpdateInterval(time.Nanosecond)
	p.Measure("cull", time.Now().Add(-time.Millisecond))
	time.Sleep(time.Millisecond)
	if !p.Tick() {
		t.Fatal("did not report after the interval elapsed")
	}
	if p.frameCount != 0 || len(p.phases) != 0 {
		t.Error("counters not reset after a report")
	}
}

func TestMeasureAccumulates(t *testing.T) {
	p := NewProfiler()
	start := time.Now().Add(-2 * time.Millisecond)
	p.Measure("render", start)
	p.Measure("render", start)
	p.Measure("cull", start)
	if p.phases["render"] < 4*time.Millisecond {
		t.Errorf("render = %v, want at least 4ms", p.phases["render"])
	}
	if len(p.order) != 2 || p.order[0] != "render" {
		t.Errorf("phase order = %v", p.order)
	}
}
