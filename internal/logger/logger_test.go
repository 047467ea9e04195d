package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"
)

func resetAfter(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
}

func TestVerboseToggle(t *testing.T) {
	resetAfter(t)

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose off by default")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose on after SetVerbose(true)")
	}
}

func TestLevels_WhenVerbose(t *testing.T) {
	resetAfter(t)

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Debug("polling %s", "payments")
	Info("registered %d sources", 2)
	Warn("webhook rejected")

	want := "[DEBUG] polling payments\n[INFO] registered 2 sources\n[WARN] webhook rejected\n"
	if got := buf.String(); got != want {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestSilent_WhenNotVerbose(t *testing.T) {
	resetAfter(t)

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Debug("hidden")
	Info("hidden")
	Warn("hidden")

	if buf.Len() > 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestConcurrentAccess(t *testing.T) {
	resetAfter(t)

	var buf bytes.Buffer
	SetOutput(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			SetVerbose(true)
			Debug("concurrent %d", n)
			IsVerbose()
			SetVerbose(false)
		}(i)
	}
	wg.Wait()
}
