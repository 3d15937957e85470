// Package archive uploads finished recordings to durable storage once a
// session ends. Its Backend interface and path-traversal guard are the
// same shape the host agent's local backup provider used; the S3, Azure,
// and GCS backends are new, genuine implementations rather than stubs.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/breeze-rmm/screenbridge/internal/logging"
	"github.com/breeze-rmm/screenbridge/internal/recorder"
)

// Backend uploads a single finished recording file to durable storage.
type Backend interface {
	Upload(ctx context.Context, localPath, remoteKey string) error
}

// Archiver pairs a Backend with the bookkeeping needed to report outcomes
// without ever panicking a session over a storage error: a failed upload
// is logged and left for the next manual retry, matching the
// RecordingError "archive failures do not tear down the session" policy.
type Archiver struct {
	backend Backend
	log     *slog.Logger
}

func New(backend Backend) *Archiver {
	return &Archiver{backend: backend, log: logging.L("archive")}
}

// Archive uploads the manifest's output file under a key derived from the
// serial and start time, so recordings never collide across devices or
// sessions.
func (a *Archiver) Archive(ctx context.Context, m recorder.Manifest) error {
	if a.backend == nil {
		return errors.New("archive: no backend configured")
	}
	key := remoteKey(m)
	if err := a.backend.Upload(ctx, m.OutputPath, key); err != nil {
		a.log.Error("archive upload failed", logging.KeyError, err, "path", m.OutputPath)
		return fmt.Errorf("archive: upload %s: %w", m.OutputPath, err)
	}
	a.log.Info("archived recording", "path", m.OutputPath, "key", key, "bytes", m.ByteCount)
	return nil
}

func remoteKey(m recorder.Manifest) string {
	base := filepath.Base(m.OutputPath)
	serial := sanitizeSerial(m.Serial)
	return fmt.Sprintf("%s/%s/%s", serial, m.StartedAt.UTC().Format("20060102T150405Z"), base)
}

func sanitizeSerial(serial string) string {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return "unknown"
	}
	return strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(serial)
}
