package profiler

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-ct/common"
	"github.com/Carmen-Shannon/oxy-ct/engine/clock"
)

func TestProfilerReportsOncePerInterval(t *testing.T) {
	var buf bytes.Buffer
	common.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer common.SetLogger(nil)

	c := clock.NewManual(time.Unix(0, 0))
	p := NewProfiler(c)

	for range 9 {
		c.Advance(100 * time.Millisecond)
		if p.Tick() {
			t.Fatal("reported before the interval elapsed")
		}
	}
	c.Advance(100 * time.Millisecond)
	if !p.Tick() {
		t.Fatal("no report after one second")
	}
	if !strings.Contains(buf.String(), "fps=10") {
		t.Errorf("log %q should report 10 fps", buf.String())
	}
	if p.Tick() {
		t.Error("counter not reset after a report")
	}
}
