package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/codebuildervaibhav/video-docgen/internal/storage"
	"github.com/codebuildervaibhav/video-docgen/internal/types"
)

const pingWriteWait = 5 * time.Second

// StreamHandler pushes job status snapshots over a WebSocket until the job
// reaches a terminal state. Same observable contract as polling, without
// the client-side timer.
type StreamHandler struct {
	store    *storage.MemoryJobStore
	interval time.Duration
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(store *storage.MemoryJobStore, interval time.Duration) *StreamHandler {
	if interval <= 0 {
		interval = time.Second
	}
	return &StreamHandler{store: store, interval: interval}
}

// progressConn is the slice of the websocket connection the stream loop
// writes to; *websocket.Conn satisfies it.
type progressConn interface {
	WriteJSON(v interface{}) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
}

// Handle serves one progress stream connection
func (h *StreamHandler) Handle(c *websocket.Conn) {
	defer c.Close()
	h.serve(c, c.Params("id"))
}

// serve pushes a snapshot whenever progress or status changes. Intervals
// without a change send a ping instead, so a disconnected client is noticed
// within one interval rather than lingering until the job finishes.
func (h *StreamHandler) serve(c progressConn, jobID string) {
	job, err := h.store.Get(jobID)
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			c.WriteJSON(map[string]string{"error": "Job not found", "code": "ERR_JOB_NOT_FOUND"})
		}
		return
	}

	log.Printf("Progress stream opened for job %s", jobID)

	lastProgress := -1
	lastStatus := ""
	for {
		if job.Progress != lastProgress || job.Status != lastStatus {
			if err := c.WriteJSON(job); err != nil {
				log.Printf("Progress stream write failed for job %s: %v", jobID, err)
				return
			}
			lastProgress = job.Progress
			lastStatus = job.Status
		} else if err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(pingWriteWait)); err != nil {
			log.Printf("Progress stream client gone for job %s: %v", jobID, err)
			return
		}

		if types.IsTerminal(job.Status) {
			return
		}

		time.Sleep(h.interval)

		job, err = h.store.Get(jobID)
		if err != nil {
			log.Printf("Progress stream read failed for job %s: %v", jobID, err)
			return
		}
	}
}
