package storage

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/codebuildervaibhav/video-docgen/internal/types"
)

func newTestJob(id string) *types.ProcessingJob {
	return &types.ProcessingJob{
		ID:        id,
		Status:    types.StatusUploaded,
		CreatedAt: time.Now(),
		Video: types.VideoMetadata{
			FileName: "demo.mp4",
			MimeType: "video/mp4",
			Size:     1024,
		},
	}
}

func TestMemoryJobStoreGetMissing(t *testing.T) {
	store := NewMemoryJobStore()

	if store.Has("nope") {
		t.Fatal("Has should be false for unknown id")
	}
	if _, err := store.Get("nope"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("Get unknown id: got %v, want ErrJobNotFound", err)
	}
	if _, err := store.Update("nope", func(*types.ProcessingJob) error { return nil }); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("Update unknown id: got %v, want ErrJobNotFound", err)
	}
}

func TestMemoryJobStoreCopiesOnReadAndWrite(t *testing.T) {
	store := NewMemoryJobStore()
	job := newTestJob("job-1")
	if err := store.Set(job.ID, job); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Mutating the original after Set must not leak into the store.
	job.Status = types.StatusError

	got, err := store.Get("job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != types.StatusUploaded {
		t.Fatalf("stored job status = %s, want uploaded", got.Status)
	}

	// Mutating a read result must not leak either.
	got.Progress = 99
	again, _ := store.Get("job-1")
	if again.Progress != 0 {
		t.Fatalf("read mutation leaked into store: progress = %d", again.Progress)
	}
}

func TestMemoryJobStoreUpdateRollsBackOnError(t *testing.T) {
	store := NewMemoryJobStore()
	store.Set("job-1", newTestJob("job-1"))

	wantErr := errors.New("rejected")
	_, err := store.Update("job-1", func(job *types.ProcessingJob) error {
		job.Status = types.StatusError
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Update error = %v, want %v", err, wantErr)
	}

	got, _ := store.Get("job-1")
	if got.Status != types.StatusUploaded {
		t.Fatalf("failed update mutated the record: status = %s", got.Status)
	}
}

func TestMemoryJobStoreConcurrentUpdates(t *testing.T) {
	store := NewMemoryJobStore()
	store.Set("job-1", newTestJob("job-1"))

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				store.Update("job-1", func(job *types.ProcessingJob) error {
					job.Progress++
					return nil
				})
				store.Get("job-1")
			}
		}()
	}
	wg.Wait()

	got, _ := store.Get("job-1")
	if got.Progress != writers*50 {
		t.Fatalf("lost updates: progress = %d, want %d", got.Progress, writers*50)
	}
}

func TestMemoryJobStoreListNewestFirst(t *testing.T) {
	store := NewMemoryJobStore()

	older := newTestJob("job-old")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := newTestJob("job-new")

	store.Set(older.ID, older)
	store.Set(newer.ID, newer)

	jobs := store.List()
	if len(jobs) != 2 {
		t.Fatalf("List returned %d jobs, want 2", len(jobs))
	}
	if jobs[0].ID != "job-new" || jobs[1].ID != "job-old" {
		t.Fatalf("List order = [%s, %s], want newest first", jobs[0].ID, jobs[1].ID)
	}
}
