package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	s, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func writeString(t *testing.T, fs FileStore, path, data string) {
	t.Helper()
	err := Put(context.Background(), fs, path, func(w io.Writer) error {
		_, err := io.WriteString(w, data)
		return err
	})
	if err != nil {
		t.Fatalf("Put %s: %v", path, err)
	}
}

func TestLocalPutGet(t *testing.T) {
	s := newTestLocal(t)
	writeString(t, s, MIDIPath("ex1"), "MThd")

	got, err := Get(context.Background(), s, MIDIPath("ex1"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "MThd" {
		t.Fatalf("got %q", got)
	}
	if _, err := os.Stat(filepath.Join(s.root, "midi", "ex1.mid")); err != nil {
		t.Errorf("file not at expected location: %v", err)
	}
	if loc := s.Location(MIDIPath("ex1")); loc != filepath.Join(s.root, "midi", "ex1.mid") {
		t.Errorf("Location = %q", loc)
	}
}

func TestLocalReadNotExist(t *testing.T) {
	s := newTestLocal(t)
	if _, err := s.Read(context.Background(), "no-such-file"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLocalExistsAndDelete(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	path := GuidePath("ex2")

	if ok, err := s.Exists(ctx, path); err != nil || ok {
		t.Fatalf("Exists before write = %v, %v", ok, err)
	}
	writeString(t, s, path, "RIFF")
	if ok, err := s.Exists(ctx, path); err != nil || !ok {
		t.Fatalf("Exists after write = %v, %v", ok, err)
	}
	if err := s.Delete(ctx, path); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, path); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if ok, _ := s.Exists(ctx, path); ok {
		t.Fatal("file survived delete")
	}
}

func TestLocalOverwrite(t *testing.T) {
	s := newTestLocal(t)
	writeString(t, s, "f.txt", "long content here")
	writeString(t, s, "f.txt", "short")
	got, err := Get(context.Background(), s, "f.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "short" {
		t.Fatalf("got %q, want %q", got, "short")
	}
}

func TestLocalRejectsEscape(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	if _, err := s.Write(ctx, "../outside.wav"); err == nil {
		t.Error("Write outside the root should fail")
	}
	if _, err := s.Read(ctx, "a/../../x"); err == nil {
		t.Error("Read outside the root should fail")
	}
}

func TestPutCallbackError(t *testing.T) {
	s := newTestLocal(t)
	boom := errors.New("boom")
	err := Put(context.Background(), s, "x", func(io.Writer) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("Put = %v; want boom", err)
	}
}

func TestNewLocalCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	if _, err := NewLocal(dir); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Fatal("expected directory")
	}
}
