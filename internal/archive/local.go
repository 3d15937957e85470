package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalBackend copies finished recordings into another directory on the
// same filesystem — useful for NAS mounts, and the default when no cloud
// provider is configured.
type LocalBackend struct {
	BasePath string
}

func NewLocalBackend(basePath string) *LocalBackend {
	return &LocalBackend{BasePath: filepath.Clean(basePath)}
}

// containedPath resolves remoteKey under BasePath, rejecting any path that
// would escape it.
func (b *LocalBackend) containedPath(remoteKey string) (string, error) {
	absBase, err := filepath.Abs(b.BasePath)
	if err != nil {
		return "", fmt.Errorf("resolve base path: %w", err)
	}
	joined := filepath.Join(absBase, filepath.FromSlash(remoteKey))
	absJoined, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("resolve destination: %w", err)
	}
	if absJoined != absBase && !strings.HasPrefix(absJoined, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("remote key %q resolves outside archive root", remoteKey)
	}
	return absJoined, nil
}

func (b *LocalBackend) Upload(ctx context.Context, localPath, remoteKey string) error {
	dest, err := b.containedPath(remoteKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create archive destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("copy recording to archive: %w", err)
	}
	return out.Sync()
}
