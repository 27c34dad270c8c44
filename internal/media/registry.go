// Package media issues process-scoped audio handles and archives audio to disk.
package media

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/iksnae/hypnojourney/internal"
)

// BlobScheme prefixes handles issued by a Registry.
const BlobScheme = "blob:"

var (
	// ErrHandleExpired is returned for a blob handle this process did not
	// issue, or one that has been revoked.
	ErrHandleExpired = errors.New("audio handle is no longer available")
	// ErrUnsupportedURL is returned for audio URLs that are neither blob
	// handles nor file URLs.
	ErrUnsupportedURL = errors.New("unsupported audio url")
)

type entry struct {
	path        string
	contentType string
	size        int64
}

// Registry maps blob handles to temp files. Handles die with the registry.
type Registry struct {
	dir     string
	ownsDir bool

	mu      sync.Mutex
	entries map[string]entry
	closed  bool
}

// NewRegistry creates a registry storing payloads under dir. An empty dir
// creates a private temp directory that Close removes.
func NewRegistry(dir string) (*Registry, error) {
	owns := false
	if dir == "" {
		d, err := os.MkdirTemp("", "hypnojourney-media-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create media directory: %w", err)
		}
		dir, owns = d, true
	} else if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &Registry{dir: dir, ownsDir: owns, entries: make(map[string]entry)}, nil
}

// Create stores data and returns a new blob handle for it.
func (r *Registry) Create(data []byte, contentType string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", errors.New("media registry is closed")
	}

	id := uuid.NewString()
	path := filepath.Join(r.dir, id+extensionFor(contentType))
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write audio payload: %w", err)
	}

	handle := BlobScheme + id
	r.entries[handle] = entry{path: path, contentType: contentType, size: int64(len(data))}
	internal.LogDebug("media: created %s (%d bytes)", handle, len(data))
	return handle, nil
}

// Revoke releases handle and deletes its payload. Unknown handles are ignored.
func (r *Registry) Revoke(handle string) {
	r.mu.Lock()
	e, ok := r.entries[handle]
	delete(r.entries, handle)
	r.mu.Unlock()

	if !ok {
		return
	}
	if err := os.Remove(e.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		internal.LogWarn("media: failed to remove %s: %v", e.path, err)
	}
	internal.LogDebug("media: revoked %s", handle)
}

// Live returns the number of handles that have not been revoked.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Size returns the payload size of a live handle.
func (r *Registry) Size(handle string) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[handle]
	return e.size, ok
}

// Resolve turns an audio URL into a local file path. Blob handles resolve
// only while live in this registry; file URLs resolve if the file exists.
func (r *Registry) Resolve(audioURL string) (string, error) {
	switch {
	case strings.HasPrefix(audioURL, BlobScheme):
		r.mu.Lock()
		e, ok := r.entries[audioURL]
		r.mu.Unlock()
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrHandleExpired, audioURL)
		}
		return e.path, nil
	case strings.HasPrefix(audioURL, "file://"):
		return ResolveFileURL(audioURL)
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedURL, audioURL)
}

// Close revokes every live handle. The registry cannot be used afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	handles := make([]string, 0, len(r.entries))
	for h := range r.entries {
		handles = append(handles, h)
	}
	r.closed = true
	r.mu.Unlock()

	for _, h := range handles {
		r.Revoke(h)
	}
	if r.ownsDir {
		if err := os.RemoveAll(r.dir); err != nil {
			return fmt.Errorf("failed to remove media directory: %w", err)
		}
	}
	return nil
}

// ResolveFileURL returns the path of an existing file:// URL.
func ResolveFileURL(fileURL string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil || u.Scheme != "file" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedURL, fileURL)
	}
	path := filepath.FromSlash(u.Path)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("audio file unavailable: %w", err)
	}
	return path, nil
}

// FileURL returns the file:// URL of an absolute path.
func FileURL(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func extensionFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "mpeg"), strings.Contains(contentType, "mp3"):
		return ".mp3"
	case strings.Contains(contentType, "wav"):
		return ".wav"
	case strings.Contains(contentType, "ogg"):
		return ".ogg"
	}
	return ".bin"
}
