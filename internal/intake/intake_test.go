package intake

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/codebuildervaibhav/video-docgen/internal/storage"
	"github.com/codebuildervaibhav/video-docgen/internal/types"
)

type fakeObjects struct {
	puts int
}

func (f *fakeObjects) Put(kind, name string, r io.Reader) (string, error) {
	f.puts++
	io.Copy(io.Discard, r)
	return "data/" + kind + "/" + name, nil
}

func TestAcceptRejectsOversizeFile(t *testing.T) {
	store := storage.NewMemoryJobStore()
	objects := &fakeObjects{}
	in := New(store, objects, 500)

	_, err := in.Accept("big.mp4", 600*1024*1024, "video/mp4", strings.NewReader(""))

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Code != "ERR_FILE_TOO_LARGE" {
		t.Fatalf("code = %s", vErr.Code)
	}
	if objects.puts != 0 {
		t.Fatal("rejected upload must not reach storage")
	}
	if len(store.List()) != 0 {
		t.Fatal("rejected upload must not create a job")
	}
}

func TestAcceptRejectsDisallowedMimeType(t *testing.T) {
	store := storage.NewMemoryJobStore()
	in := New(store, &fakeObjects{}, 500)

	_, err := in.Accept("doc.pdf", 1024, "application/pdf", strings.NewReader("x"))

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Code != "ERR_INVALID_FORMAT" {
		t.Fatalf("code = %s", vErr.Code)
	}
	if len(store.List()) != 0 {
		t.Fatal("rejected upload must not create a job")
	}
}

func TestAcceptCreatesUploadedJob(t *testing.T) {
	store := storage.NewMemoryJobStore()
	in := New(store, &fakeObjects{}, 500)

	jobID, err := in.Accept("walkthrough.mp4", 50*1024*1024, "video/mp4", strings.NewReader("video-bytes"))
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if jobID == "" {
		t.Fatal("Accept returned empty job id")
	}

	job, err := store.Get(jobID)
	if err != nil {
		t.Fatalf("job not stored: %v", err)
	}
	if job.Status != types.StatusUploaded {
		t.Fatalf("status = %s, want uploaded", job.Status)
	}
	if job.Progress != 0 {
		t.Fatalf("progress = %d, want 0", job.Progress)
	}
	if job.Video.StorageKey == "" {
		t.Fatal("video storage key not set")
	}
	if job.Video.MimeType != "video/mp4" {
		t.Fatalf("mime type = %s", job.Video.MimeType)
	}
}

func TestValidateAcceptsBareSubtypes(t *testing.T) {
	in := New(storage.NewMemoryJobStore(), &fakeObjects{}, 500)

	for _, mime := range []string{"mp4", "mov", "avi", "webm", "quicktime", "video/quicktime", "VIDEO/MP4"} {
		if err := in.Validate(1024, mime); err != nil {
			t.Fatalf("Validate(%q): %v", mime, err)
		}
	}
}
