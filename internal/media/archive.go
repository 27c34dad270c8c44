package media

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/hypnojourney/internal"
)

// Archive writes finalized audio to a directory, one file per session type.
// A later session of the same type replaces the file, matching the one
// record per type kept by the session store.
type Archive struct {
	dir string
}

// NewArchive creates an archive rooted at dir.
func NewArchive(dir string) *Archive {
	return &Archive{dir: dir}
}

// Dir returns the archive directory.
func (a *Archive) Dir() string { return a.dir }

// Write stores data as <dir>/<session-type>.mp3 and returns its file URL.
func (a *Archive) Write(st internal.SessionType, data []byte) (string, error) {
	dir, err := filepath.Abs(a.dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve audio dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create audio dir: %w", err)
	}

	path := filepath.Join(dir, string(st)+".mp3")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write audio: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to move audio into place: %w", err)
	}

	internal.LogDebug("archived %d bytes to %s", len(data), path)
	return FileURL(path), nil
}
