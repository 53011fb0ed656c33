package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestBoundedWriterStaysUnderCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	w, err := newBoundedWriter(path, 1)
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	defer w.Close()

	line := bytes.Repeat([]byte("x"), 300*1024)
	for i := 0; i < 5; i++ {
		if _, err := w.Write(line); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat log: %v", err)
	}
	if info.Size() > 1<<20 {
		t.Fatalf("log grew past 1MB: %d bytes", info.Size())
	}
	if info.Size() == 0 {
		t.Fatalf("log empty after writes")
	}
}

func TestBoundedWriterReopensAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	w, err := newBoundedWriter(path, 1)
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	if _, err := w.Write([]byte("first\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := w.Write([]byte("second\n")); err != nil {
		t.Fatalf("write after close: %v", err)
	}
	defer w.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !bytes.Contains(data, []byte("first")) || !bytes.Contains(data, []byte("second")) {
		t.Fatalf("log lost data across close: %q", data)
	}
}
