package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/breeze-rmm/screenbridge/internal/recorder"
)

type fakeBackend struct {
	uploadedLocal, uploadedKey string
	err                        error
}

func (f *fakeBackend) Upload(ctx context.Context, localPath, remoteKey string) error {
	f.uploadedLocal, f.uploadedKey = localPath, remoteKey
	return f.err
}

func TestArchiveBuildsSerialAndTimeScopedKey(t *testing.T) {
	fb := &fakeBackend{}
	a := New(fb)

	m := recorder.Manifest{
		Serial:     "emulator-5554",
		StartedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		OutputPath: "/tmp/session-1.mp4",
	}

	if err := a.Archive(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "emulator-5554/20260301T120000Z/session-1.mp4"
	if fb.uploadedKey != want {
		t.Fatalf("expected key %q, got %q", want, fb.uploadedKey)
	}
}

func TestArchiveSanitizesSerialForPathSafety(t *testing.T) {
	fb := &fakeBackend{}
	a := New(fb)
	m := recorder.Manifest{Serial: "192.168.1.5:5555", OutputPath: "rec.mp4"}
	_ = a.Archive(context.Background(), m)
	if fb.uploadedKey == "" {
		t.Fatal("expected upload to be attempted")
	}
	serial := sanitizeSerial("192.168.1.5:5555")
	for _, bad := range []string{"/", "\\", ":"} {
		if strings.Contains(serial, bad) {
			t.Fatalf("sanitized serial %q still contains %q", serial, bad)
		}
	}
}

func TestArchiveReturnsErrorWithoutPanicOnUploadFailure(t *testing.T) {
	fb := &fakeBackend{err: errors.New("network down")}
	a := New(fb)
	err := a.Archive(context.Background(), recorder.Manifest{Serial: "s", OutputPath: "x.mp4"})
	if err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestLocalBackendRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	b := NewLocalBackend(dir)

	src := filepath.Join(dir, "source.mp4")
	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := b.Upload(context.Background(), src, "../../etc/passwd"); err == nil {
		t.Fatal("expected path traversal to be rejected")
	}
}

func TestLocalBackendCopiesFile(t *testing.T) {
	dir := t.TempDir()
	b := NewLocalBackend(dir)

	src := filepath.Join(dir, "source.mp4")
	if err := os.WriteFile(src, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := b.Upload(context.Background(), src, "dev1/2026/out.mp4"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "dev1", "2026", "out.mp4"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("unexpected content: %q", got)
	}
}
