package hardware

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readTrim(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.TrimSpace(string(b))
}

func TestSysfsRelay_SetupExportsMissingPin(t *testing.T) {
	base := t.TempDir()
	r := NewSysfsRelay(base, 17, nil)

	// Nothing creates gpio17/ here, so the direction write fails after export.
	err := r.Setup(context.Background())
	var rerr *RelayError
	if !errors.As(err, &rerr) || rerr.Op != "direction" {
		t.Fatalf("expected direction RelayError, got %v", err)
	}
	if got := readTrim(t, filepath.Join(base, "export")); got != "17" {
		t.Fatalf("export = %q, want 17", got)
	}
}

func TestSysfsRelay_SetupIsIdempotent(t *testing.T) {
	base := t.TempDir()
	pinDir := filepath.Join(base, "gpio5")
	if err := os.MkdirAll(pinDir, 0o755); err != nil {
		t.Fatal(err)
	}
	r := NewSysfsRelay(base, 5, nil)

	for i := 0; i < 2; i++ {
		if err := r.Setup(context.Background()); err != nil {
			t.Fatalf("Setup() #%d error = %v", i, err)
		}
	}
	if got := readTrim(t, filepath.Join(pinDir, "direction")); got != "out" {
		t.Fatalf("direction = %q, want out", got)
	}
	if _, err := os.Stat(filepath.Join(base, "export")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("already exported pin must not be re-exported")
	}
}

func TestSysfsRelay_WriteThenRead(t *testing.T) {
	base := t.TempDir()
	if err := os.MkdirAll(filepath.Join(base, "gpio23"), 0o755); err != nil {
		t.Fatal(err)
	}
	r := NewSysfsRelay(base, 23, nil)
	ctx := context.Background()

	if err := r.SetState(ctx, true); err != nil {
		t.Fatalf("SetState(true) error = %v", err)
	}
	if got := readTrim(t, filepath.Join(base, "gpio23", "value")); got != "1" {
		t.Fatalf("value = %q, want 1", got)
	}
	on, err := r.ReadState(ctx)
	if err != nil || !on {
		t.Fatalf("ReadState() = (%v, %v), want (true, nil)", on, err)
	}

	if err := r.SetState(ctx, false); err != nil {
		t.Fatalf("SetState(false) error = %v", err)
	}
	on, err = r.ReadState(ctx)
	if err != nil || on {
		t.Fatalf("ReadState() = (%v, %v), want (false, nil)", on, err)
	}
}

func TestSysfsRelay_ReadInvalidValue(t *testing.T) {
	base := t.TempDir()
	if err := os.MkdirAll(filepath.Join(base, "gpio4"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(base, "gpio4", "value"), []byte("x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewSysfsRelay(base, 4, nil).ReadState(context.Background())
	var rerr *RelayError
	if !errors.As(err, &rerr) || rerr.Pin != 4 || rerr.Op != "read" {
		t.Fatalf("expected read RelayError for pin 4, got %v", err)
	}
}

func TestSysfsRelay_WriteUnexportedPinFails(t *testing.T) {
	err := NewSysfsRelay(t.TempDir(), 9, nil).SetState(context.Background(), true)
	var rerr *RelayError
	if !errors.As(err, &rerr) || rerr.Op != "write" {
		t.Fatalf("expected write RelayError, got %v", err)
	}
}
