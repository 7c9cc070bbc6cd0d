package logger

import (
	"bytes"
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerInitWithNilWriter(t *testing.T) {
	if err := InitWithWriter(nil); err == nil {
		t.Fatal("expected error for nil writer")
	}
}

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = Init() }()

	ctx := context.Background()
	Named("collectors").With(String("user_id", "u-1")).Warn(ctx, "collector failed",
		String("collector", "notes"),
		Duration("elapsed", 2*time.Second),
		Bool("timeout", true),
		Error(errors.New("boom")),
	)

	out := buf.String()
	for _, want := range []string{"collector failed", "component=collectors", "user_id=u-1", "collector=notes", "timeout=true", "error=boom", "source="} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = Init() }()

	Get().Debug(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug record written at info level: %q", buf.String())
	}

	if err := SetLevelString("debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Get().Debug(context.Background(), "visible")
	if !bytes.Contains(buf.Bytes(), []byte("visible")) {
		t.Fatalf("debug record missing after SetLevelString: %q", buf.String())
	}
}

func TestSetLevelString(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "", "warn", "WARNING", " error "} {
		if err := SetLevelString(lvl); err != nil {
			t.Errorf("SetLevelString(%q) returned error: %v", lvl, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
	_ = SetLevelString("info")
}

type syncWriter struct {
	bytes.Buffer
	syncs int
	err   error
}

func (w *syncWriter) Sync() error {
	w.syncs++
	return w.err
}

func TestSyncFlushesWriter(t *testing.T) {
	w := &syncWriter{}
	if err := InitWithWriter(w); err != nil {
		t.Fatal(err)
	}
	if err := Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if w.syncs != 1 {
		t.Fatalf("expected one sync, got %d", w.syncs)
	}

	w.err = &os.PathError{Op: "sync", Path: "/dev/stderr", Err: syscall.EINVAL}
	if err := Sync(); err != nil {
		t.Fatalf("unsyncable writer should not fail: %v", err)
	}

	w.err = errors.New("disk full")
	if err := Sync(); err == nil {
		t.Fatal("expected the writer's sync error")
	}
}

func TestSyncPlainWriter(t *testing.T) {
	if err := InitWithWriter(&bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	if err := Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
}
