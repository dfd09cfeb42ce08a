package storage

import (
	"errors"
	"sort"
	"sync"

	"github.com/codebuildervaibhav/video-docgen/internal/types"
)

// ErrJobNotFound is returned when a job id has never been issued.
var ErrJobNotFound = errors.New("job not found")

// JobStore maps job ids to their current ProcessingJob record. Get/Set/Update
// are atomic with respect to concurrent callers: the pipeline writes from
// background workers while HTTP handlers read. Update applies a
// read-modify-write under the store's lock so a concurrent status poll can
// never interleave with a stage-completion write. No persistence across
// process restart is guaranteed.
type JobStore interface {
	Get(id string) (*types.ProcessingJob, error)
	Set(id string, job *types.ProcessingJob) error
	Has(id string) bool
	Update(id string, fn func(job *types.ProcessingJob) error) (*types.ProcessingJob, error)
}

// MemoryJobStore is the in-process JobStore implementation.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*types.ProcessingJob
}

// NewMemoryJobStore creates an empty in-memory job store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		jobs: make(map[string]*types.ProcessingJob),
	}
}

// Get returns a copy of the stored job, or ErrJobNotFound.
func (s *MemoryJobStore) Get(id string) (*types.ProcessingJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.Clone(), nil
}

// Set stores a copy of the job under id.
func (s *MemoryJobStore) Set(id string, job *types.ProcessingJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[id] = job.Clone()
	return nil
}

// Has reports whether a job exists for id.
func (s *MemoryJobStore) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.jobs[id]
	return ok
}

// Update applies fn to the stored job under the write lock. If fn returns an
// error the record is left unchanged and the error is returned. The updated
// job is returned as a copy.
func (s *MemoryJobStore) Update(id string, fn func(job *types.ProcessingJob) error) (*types.ProcessingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}

	updated := job.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}

	s.jobs[id] = updated
	return updated.Clone(), nil
}

// List returns copies of all stored jobs, newest first.
func (s *MemoryJobStore) List() []*types.ProcessingJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.ProcessingJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
