package object

import (
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
)

type fakePayload struct {
	mu   sync.Mutex
	data []byte
	fail bool
}

func (f *fakePayload) SerializePayload() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.data...), nil
}

func (f *fakePayload) DeserializePayload(buf []byte) bool {
	if f.fail {
		return false
	}
	f.mu.Lock()
	f.data = buf
	f.mu.Unlock()
	return true
}

func TestStageSerializedSingleFlight(t *testing.T) {
	var b Bufferable
	pool := NewPool(4)
	defer pool.Close()

	target := &fakePayload{}
	done := make(chan struct{})
	b.OnUpdated = func() { close(done) }

	ok := b.StageSerialized([]byte{1, 2, 3}, target, pool, Now(), nil)
	if !ok {
		t.Fatalf("first stage should start a deserialize")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("deserialize never completed")
	}

	if !b.BufferUpdated() {
		t.Fatalf("buffer_updated flag should be set after deserialize")
	}
	if b.BufferUpdated() {
		t.Fatalf("buffer_updated flag should clear on read")
	}
}

func TestCacheToDiskAndLoadFromDiskCacheRoundTrip(t *testing.T) {
	var b Bufferable
	fs := afero.NewMemMapFs()
	target := &fakePayload{data: []byte{4, 5, 6}}

	if err := b.CacheToDisk(fs, "/var/splash", "proj1/screen", target); err != nil {
		t.Fatalf("cache to disk: %v", err)
	}

	var reloaded Bufferable
	into := &fakePayload{}
	if err := reloaded.LoadFromDiskCache(fs, "/var/splash", "proj1/screen", into); err != nil {
		t.Fatalf("load from disk cache: %v", err)
	}
	if string(into.data) != "\x04\x05\x06" {
		t.Fatalf("unexpected reloaded payload: %v", into.data)
	}
}

func TestVarDirPathRejectsEscape(t *testing.T) {
	path, err := VarDirPath("/var/splash", "../../etc/passwd")
	if err != nil {
		t.Fatalf("securejoin itself should not error: %v", err)
	}
	if len(path) < len("/var/splash") || path[:len("/var/splash")] != "/var/splash" {
		t.Fatalf("path escaped the var-dir: %q", path)
	}
}

func TestLoadFromDiskCacheMissingFile(t *testing.T) {
	var b Bufferable
	fs := afero.NewMemMapFs()
	if err := b.LoadFromDiskCache(fs, "/var/splash", "nope", &fakePayload{}); err == nil {
		t.Fatalf("expected an error for a missing cache file")
	}
}

func TestUpdateTimestampNeverGoesBackwards(t *testing.T) {
	var b Bufferable
	b.UpdateTimestamp(100)
	b.UpdateTimestamp(50) // stale, must be ignored
	if got := b.Timestamp(); got != 100 {
		t.Fatalf("got %d, want 100", got)
	}
	b.UpdateTimestamp(150)
	if got := b.Timestamp(); got != 150 {
		t.Fatalf("got %d, want 150", got)
	}
}
