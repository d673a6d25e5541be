package console

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestReadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Moria.log")
	if err := os.WriteFile(path, []byte("first\r\nsecond\npartial"), 0o644); err != nil {
		t.Fatal(err)
	}

	line, next, ok := readLine(path, 0)
	if !ok || line != "first" || next != 7 {
		t.Fatalf("readLine(0) = %q, %d, %v", line, next, ok)
	}
	line, next, ok = readLine(path, next)
	if !ok || line != "second" {
		t.Fatalf("readLine() = %q, %d, %v", line, next, ok)
	}
	if _, retry, ok := readLine(path, next); ok || retry != next {
		t.Errorf("partial line should not be returned, got ok=%v retry=%d", ok, retry)
	}
}

func TestReadLine_Truncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Moria.log")
	if err := os.WriteFile(path, []byte("fresh start\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	line, _, ok := readLine(path, 4096)
	if !ok || line != "fresh start" {
		t.Errorf("readLine after truncation = %q, %v", line, ok)
	}
}

func TestReadLine_LongLineIsChunked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Moria.log")
	long := strings.Repeat("x", readChunk+10)
	if err := os.WriteFile(path, []byte(long), 0o644); err != nil {
		t.Fatal(err)
	}
	line, next, ok := readLine(path, 0)
	if !ok || len(line) != readChunk || next != readChunk {
		t.Errorf("readLine() len=%d next=%d ok=%v", len(line), next, ok)
	}
}

func TestReadLine_MissingFile(t *testing.T) {
	if _, _, ok := readLine(filepath.Join(t.TempDir(), "nope.log"), 0); ok {
		t.Error("readLine on a missing file should not succeed")
	}
}

func TestReadFromOffset_WaitsForAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Moria.log")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(path, []byte("LogMoria: world loaded\n"), 0o644)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg, ok := readFromOffset(ctx, path, 0).(logReadMsg)
	if !ok || msg.line != "LogMoria: world loaded" {
		t.Errorf("readFromOffset() = %#v", msg)
	}
}

func TestReadFromOffset_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if msg := readFromOffset(ctx, filepath.Join(t.TempDir(), "none.log"), 0); msg != nil {
		t.Errorf("readFromOffset() = %#v, want nil", msg)
	}
}
