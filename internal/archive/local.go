package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Local writes archived pages under a base directory. Paths are
// confined to the base; anything escaping it is rejected.
type Local struct {
	baseDir string
}

// NewLocal builds a filesystem-backed archive rooted at baseDir.
func NewLocal(baseDir string) (*Local, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Local{baseDir: abs}, nil
}

// Put implements Provider.
func (l *Local) Put(_ context.Context, path, _ string, data []byte) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path is required")
	}
	full := filepath.Join(l.baseDir, filepath.FromSlash(path))
	if !strings.HasPrefix(full, l.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes archive directory: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}
	return "file://" + full, nil
}

// Close implements Provider.
func (l *Local) Close() error { return nil }
