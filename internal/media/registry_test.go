package media

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/hypnojourney/internal"
	"github.com/iksnae/hypnojourney/testutil"
)

func TestRegistry_CreateResolveRevoke(t *testing.T) {
	reg, err := NewRegistry("")
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	defer reg.Close()

	handle, err := reg.Create(testutil.FakeMP3, "audio/mpeg")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !strings.HasPrefix(handle, "blob:") || len(handle) != len("blob:")+36 {
		t.Errorf("handle = %q, want blob:<uuid>", handle)
	}

	path, err := reg.Resolve(handle)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if filepath.Ext(path) != ".mp3" {
		t.Errorf("payload path = %q, want .mp3", path)
	}
	data, _ := os.ReadFile(path)
	if !bytes.Equal(data, testutil.FakeMP3) {
		t.Error("payload on disk differs from input")
	}
	if size, ok := reg.Size(handle); !ok || size != int64(len(testutil.FakeMP3)) {
		t.Errorf("Size() = %d, %v", size, ok)
	}

	reg.Revoke(handle)
	reg.Revoke(handle)

	if reg.Live() != 0 {
		t.Errorf("Live() = %d after revoke", reg.Live())
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("payload still on disk after revoke")
	}
	if _, err := reg.Resolve(handle); !errors.Is(err, ErrHandleExpired) {
		t.Errorf("Resolve() after revoke error = %v, want ErrHandleExpired", err)
	}
}

func TestRegistry_HandlesAreUnique(t *testing.T) {
	reg, err := NewRegistry(t.TempDir())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	defer reg.Close()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		h, err := reg.Create([]byte{byte(i)}, "audio/mpeg")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if seen[h] {
			t.Fatalf("duplicate handle %s", h)
		}
		seen[h] = true
	}
	if reg.Live() != 20 {
		t.Errorf("Live() = %d, want 20", reg.Live())
	}
}

func TestRegistry_CloseRevokesAll(t *testing.T) {
	reg, err := NewRegistry("")
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	dir := reg.dir

	for i := 0; i < 3; i++ {
		if _, err := reg.Create(testutil.FakeMP3, "audio/mpeg"); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if err := reg.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if reg.Live() != 0 {
		t.Errorf("Live() = %d after Close", reg.Live())
	}
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Error("owned temp dir still exists after Close")
	}
	if _, err := reg.Create(testutil.FakeMP3, "audio/mpeg"); err == nil {
		t.Error("Create() after Close should fail")
	}
}

func TestRegistry_ForeignHandleExpired(t *testing.T) {
	other, _ := NewRegistry("")
	handle, _ := other.Create(testutil.FakeMP3, "audio/mpeg")
	defer other.Close()

	reg, _ := NewRegistry("")
	defer reg.Close()

	if _, err := reg.Resolve(handle); !errors.Is(err, ErrHandleExpired) {
		t.Errorf("Resolve(foreign handle) error = %v, want ErrHandleExpired", err)
	}
}

func TestRegistry_ResolveURLs(t *testing.T) {
	reg, _ := NewRegistry("")
	defer reg.Close()

	audio := testutil.CreateAudioFixture(t, filepath.Join(t.TempDir(), "sleep.mp3"))

	got, err := reg.Resolve(FileURL(audio))
	if err != nil {
		t.Fatalf("Resolve(file url) error = %v", err)
	}
	if got != audio {
		t.Errorf("Resolve(file url) = %q, want %q", got, audio)
	}

	if _, err := reg.Resolve(FileURL(filepath.Join(t.TempDir(), "missing.mp3"))); err == nil {
		t.Error("Resolve(missing file) should fail")
	}
	if _, err := reg.Resolve("https://example.com/a.mp3"); !errors.Is(err, ErrUnsupportedURL) {
		t.Errorf("Resolve(https) error = %v, want ErrUnsupportedURL", err)
	}
}

func TestArchive_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audio")
	archive := NewArchive(dir)

	u1, err := archive.Write(internal.SessionSleep, []byte("first"))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	u2, err := archive.Write(internal.SessionSleep, []byte("second"))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if u1 != u2 {
		t.Errorf("same session type got different urls: %q, %q", u1, u2)
	}
	if !strings.HasPrefix(u1, "file://") || !strings.HasSuffix(u1, "/sleep.mp3") {
		t.Errorf("url = %q", u1)
	}

	path, err := ResolveFileURL(u2)
	if err != nil {
		t.Fatalf("ResolveFileURL() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "second" {
		t.Errorf("archived content = %q, want the latest write", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("archive dir holds %d files, want 1", len(entries))
	}
}
