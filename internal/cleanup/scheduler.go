// Package cleanup periodically removes aged source videos and frame images
// from local object storage. Generated documents and job records are never
// touched.
package cleanup

import (
	"log"
	"os"
	"path/filepath"
	"time"
)

// sweepKinds are the object kinds eligible for removal.
var sweepKinds = []string{"videos", "frames"}

// Scheduler removes stale pipeline inputs on an interval.
type Scheduler struct {
	storageRoot string
	interval    time.Duration
	maxAge      time.Duration
	stopChan    chan struct{}
}

// NewScheduler creates a scheduler sweeping storageRoot.
func NewScheduler(storageRoot string, interval, maxAge time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &Scheduler{
		storageRoot: storageRoot,
		interval:    interval,
		maxAge:      maxAge,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the cleanup loop, running one sweep immediately.
func (s *Scheduler) Start() {
	s.sweep()

	ticker := time.NewTicker(s.interval)

	go func() {
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	log.Printf("Cleanup scheduler started (interval: %s, max age: %s)", s.interval, s.maxAge)
}

// Stop stops the cleanup loop.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	log.Println("Cleanup scheduler stopped")
}

// sweep removes eligible files older than maxAge.
func (s *Scheduler) sweep() {
	now := time.Now()

	var deletedCount int
	var deletedSize int64

	for _, kind := range sweepKinds {
		root := filepath.Join(s.storageRoot, kind)
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil // Skip files we can't access
			}
			if info.IsDir() {
				return nil
			}

			age := now.Sub(info.ModTime())
			if age > s.maxAge {
				size := info.Size()
				if err := os.Remove(path); err != nil {
					log.Printf("Failed to delete old file %s: %v", path, err)
				} else {
					deletedCount++
					deletedSize += size
				}
			}

			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			log.Printf("Error during cleanup of %s: %v", root, err)
		}
	}

	if deletedCount > 0 {
		log.Printf("Cleanup complete: %d files deleted, %.2fMB freed",
			deletedCount, float64(deletedSize)/(1024*1024))
	}
}
