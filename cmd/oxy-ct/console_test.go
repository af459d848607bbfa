package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-ct/engine/scan"
	"github.com/Carmen-Shannon/oxy-ct/engine/viewer"
)

type fakeViewer struct {
	sent []viewer.Message
}

func (f *fakeViewer) Send(msg viewer.Message) { f.sent = append(f.sent, msg) }
func (f *fakeViewer) Status() string          { return "Scan demo loaded" }
func (f *fakeViewer) ThresholdText() string   { return "0.71" }

func newTestConsole() (*console, *fakeViewer, *strings.Builder, *int) {
	v := &fakeViewer{}
	out := &strings.Builder{}
	quits := 0
	return &console{viewer: v, out: out, quit: func() { quits++ }}, v, out, &quits
}

func pick(t *testing.T, msg viewer.Message) (string, error) {
	t.Helper()
	open, ok := msg.(viewer.OpenRequested)
	if !ok {
		t.Fatalf("message = %T, want OpenRequested", msg)
	}
	return open.Picker.Pick(context.Background())
}

func TestConsoleOpenQuotedPath(t *testing.T) {
	c, v, _, _ := newTestConsole()
	if !c.exec(`open "/scans/my scan/scan.json"`) {
		t.Fatal("open stopped the console")
	}
	if len(v.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(v.sent))
	}
	path, err := pick(t, v.sent[0])
	if err != nil || path != "/scans/my scan/scan.json" {
		t.Errorf("picked %q, %v", path, err)
	}
}

func TestConsoleOpenWithoutPathCancels(t *testing.T) {
	c, v, _, _ := newTestConsole()
	c.exec("open")
	if len(v.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(v.sent))
	}
	if _, err := pick(t, v.sent[0]); !errors.Is(err, scan.ErrCancelled) {
		t.Errorf("pick error = %v, want ErrCancelled", err)
	}
}

func TestConsoleThreshold(t *testing.T) {
	c, v, out, _ := newTestConsole()
	c.exec("threshold 0.5")
	c.exec("threshold")
	if len(v.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(v.sent))
	}
	if got, ok := v.sent[0].(viewer.ThresholdEdited); !ok || got.Text != "0.5" {
		t.Errorf("message = %#v, want ThresholdEdited{0.5}", v.sent[0])
	}
	if !strings.Contains(out.String(), "usage: threshold") {
		t.Errorf("output %q lacks usage", out.String())
	}
}

func TestConsoleStatusHelpAndUnknown(t *testing.T) {
	c, v, out, _ := newTestConsole()
	c.exec("status")
	c.exec("help")
	c.exec("frobnicate")
	c.exec("   ")
	c.exec(`open "unterminated`)

	if len(v.sent) != 0 {
		t.Errorf("sent %d messages, want none", len(v.sent))
	}
	text := out.String()
	for _, want := range []string{
		"Scan demo loaded (threshold 0.71)",
		"threshold <value>",
		`unknown command "frobnicate"`,
		"parse error",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output lacks %q:\n%s", want, text)
		}
	}
}

func TestConsoleRunStopsAtQuit(t *testing.T) {
	c, v, _, quits := newTestConsole()
	c.run(strings.NewReader("threshold 0.6\nquit\nthreshold 0.9\n"))
	if *quits != 1 {
		t.Errorf("quit called %d times, want 1", *quits)
	}
	if len(v.sent) != 1 {
		t.Errorf("sent %d messages, want only the one before quit", len(v.sent))
	}
}

func TestFormatThreshold(t *testing.T) {
	got, ok := viewer.ParseThreshold(formatThreshold(0.71 + thresholdNudge))
	if !ok || got < 0.7199 || got > 0.7201 {
		t.Errorf("round trip = %v, %v, want 0.72", got, ok)
	}
}
