package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// AtomicWriter writes generated artifacts via a temp file and rename so a
// crash mid-write never leaves a truncated module behind. A write is skipped
// entirely when the target already holds the same bytes, which keeps bundler
// watch loops from rebuilding on no-op regenerations.
type AtomicWriter struct{}

// Write persists data to path. It reports whether the file on disk actually
// changed.
func (w *AtomicWriter) Write(path string, data []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, data) {
		return false, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ipcgen-*")
	if err != nil {
		return false, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return false, fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("setting file mode: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("renaming temp file: %w", err)
	}

	return true, nil
}
