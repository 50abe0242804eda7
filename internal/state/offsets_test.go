package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOffsetStore_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")

	s := NewOffsetStore(dir)
	if _, ok := s.Load("123:abc"); ok {
		t.Fatal("expected no offset before first save")
	}
	if err := s.Save("123:abc", 101); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// A fresh store reads from disk, not the cache.
	fresh := NewOffsetStore(dir)
	off, ok := fresh.Load("123:abc")
	if !ok || off != 101 {
		t.Errorf("Load = %d, %v; want 101, true", off, ok)
	}
	if _, ok := fresh.Load("other"); ok {
		t.Error("offsets must be kept per token")
	}
}

func TestOffsetStore_FileOmitsToken(t *testing.T) {
	dir := t.TempDir()
	s := NewOffsetStore(dir)
	if err := s.Save("123:secret", 5); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one file, got %d", len(entries))
	}
	name := entries[0].Name()
	data, _ := os.ReadFile(filepath.Join(dir, name))
	if strings.Contains(name, "secret") || strings.Contains(string(data), "secret") {
		t.Errorf("token leaked into %s: %s", name, data)
	}
	info, _ := entries[0].Info()
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("permissions = %04o, want 0600", perm)
	}
}

func TestOffsetStore_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	s := NewOffsetStore(dir)
	if err := os.WriteFile(s.path(fileKey("tok")), []byte("{nope"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Load("tok"); ok {
		t.Error("malformed file should read as absent")
	}
}

func TestOffsetStore_Forget(t *testing.T) {
	s := NewOffsetStore(t.TempDir())
	if err := s.Save("tok", 9); err != nil {
		t.Fatal(err)
	}
	if err := s.Forget("tok"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if _, ok := s.Load("tok"); ok {
		t.Error("offset still present after Forget")
	}
	if err := s.Forget("tok"); err != nil {
		t.Errorf("second Forget: %v", err)
	}
}
