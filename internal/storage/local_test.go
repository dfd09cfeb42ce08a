package storage

import (
	"io"
	"strings"
	"testing"
)

func TestLocalObjectStorePutAndOpen(t *testing.T) {
	store, err := NewLocalObjectStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalObjectStore: %v", err)
	}

	locator, err := store.Put("videos", "demo.mp4", strings.NewReader("video-bytes"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if locator == "" {
		t.Fatal("Put returned empty locator")
	}

	r, err := store.Open(locator)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "video-bytes" {
		t.Fatalf("content = %q", data)
	}
}

func TestLocalObjectStoreSanitizesNames(t *testing.T) {
	store, err := NewLocalObjectStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalObjectStore: %v", err)
	}

	locator, err := store.PutBytes("videos", "../..//weird:name?.mp4", []byte("x"))
	if err != nil {
		t.Fatalf("PutBytes: %v", err)
	}
	if strings.Contains(locator, "..") {
		t.Fatalf("locator escaped the storage root: %q", locator)
	}
}
