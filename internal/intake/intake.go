// Package intake validates incoming video uploads and creates the initial
// job record. It is the only component besides the pipeline that writes to
// the job store, and only ever to create.
package intake

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codebuildervaibhav/video-docgen/internal/storage"
	"github.com/codebuildervaibhav/video-docgen/internal/types"
)

// DefaultMaxUploadMB caps uploads when no limit is configured.
const DefaultMaxUploadMB = 500

// allowedMimeTypes is the fixed video format allow-list. Bare subtypes are
// accepted alongside full media types because browsers disagree on which
// they send.
var allowedMimeTypes = map[string]bool{
	"video/mp4":       true,
	"video/mov":       true,
	"video/avi":       true,
	"video/webm":      true,
	"video/quicktime": true,
	"mp4":             true,
	"mov":             true,
	"avi":             true,
	"webm":            true,
	"quicktime":       true,
}

// ValidationError rejects an upload before any job is created.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ObjectStore is the slice of the storage layer intake needs.
type ObjectStore interface {
	Put(kind, name string, r io.Reader) (string, error)
}

// Intake validates uploads and creates jobs.
type Intake struct {
	store     storage.JobStore
	objects   ObjectStore
	maxSizeMB int
}

// New creates an intake with the given upload size limit in megabytes.
// A non-positive limit selects the default.
func New(store storage.JobStore, objects ObjectStore, maxSizeMB int) *Intake {
	if maxSizeMB <= 0 {
		maxSizeMB = DefaultMaxUploadMB
	}
	return &Intake{
		store:     store,
		objects:   objects,
		maxSizeMB: maxSizeMB,
	}
}

// Validate checks size and declared MIME type against the limits without
// creating anything.
func (in *Intake) Validate(size int64, mimeType string) error {
	maxSize := int64(in.maxSizeMB) * 1024 * 1024
	if size > maxSize {
		return &ValidationError{
			Code:    "ERR_FILE_TOO_LARGE",
			Message: fmt.Sprintf("File too large (max %dMB)", in.maxSizeMB),
		}
	}

	if !allowedMimeTypes[strings.ToLower(strings.TrimSpace(mimeType))] {
		return &ValidationError{
			Code:    "ERR_INVALID_FORMAT",
			Message: fmt.Sprintf("Unsupported video format %q", mimeType),
		}
	}

	return nil
}

// Accept validates the upload, stores the video bytes and creates the job
// record in the uploaded state. It returns the new job id immediately and
// never waits on pipeline execution.
func (in *Intake) Accept(fileName string, size int64, mimeType string, content io.Reader) (string, error) {
	if err := in.Validate(size, mimeType); err != nil {
		return "", err
	}

	jobID := uuid.New().String()

	storageKey, err := in.objects.Put("videos", jobID+"_"+fileName, content)
	if err != nil {
		return "", fmt.Errorf("failed to store video: %v", err)
	}

	now := time.Now()
	job := &types.ProcessingJob{
		ID: jobID,
		Video: types.VideoMetadata{
			FileName:   fileName,
			Size:       size,
			MimeType:   strings.ToLower(strings.TrimSpace(mimeType)),
			StorageKey: storageKey,
			UploadedAt: now,
		},
		Status:      types.StatusUploaded,
		Progress:    0,
		CurrentStep: "Uploaded",
		CreatedAt:   now,
	}

	if err := in.store.Set(jobID, job); err != nil {
		return "", fmt.Errorf("failed to create job: %v", err)
	}

	log.Printf("Job %s created for %s (%d bytes, %s)", jobID, fileName, size, mimeType)
	return jobID, nil
}
