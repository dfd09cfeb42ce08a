// Package progress implements the client side of the status contract: a
// polling loop that watches one job until it reaches a terminal state.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/codebuildervaibhav/video-docgen/internal/types"
)

// DefaultInterval is the polling cadence when none is configured.
const DefaultInterval = 5 * time.Second

// FetchFunc reads the current job state. Implementations may go over HTTP
// or straight to a store.
type FetchFunc func(ctx context.Context, jobID string) (*types.ProcessingJob, error)

// Poller watches a job until it completes or fails.
type Poller struct {
	fetch    FetchFunc
	interval time.Duration

	// OnProgress fires for every successful non-terminal observation.
	OnProgress func(job *types.ProcessingJob)
	// OnComplete fires once with the final job when status is complete.
	OnComplete func(job *types.ProcessingJob)
	// OnError fires once with the job's error message when status is error.
	OnError func(message string)
}

// NewPoller creates a poller. A non-positive interval selects the default.
func NewPoller(fetch FetchFunc, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{fetch: fetch, interval: interval}
}

// Watch polls jobID until a terminal state is observed or ctx is cancelled.
// Transient fetch failures are logged and polling continues. The ticker is
// always released.
func (p *Poller) Watch(ctx context.Context, jobID string) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		job, err := p.fetch(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("Status poll for job %s failed, retrying: %v", jobID, err)
		} else {
			switch job.Status {
			case types.StatusComplete:
				if p.OnComplete != nil {
					p.OnComplete(job)
				}
				return nil
			case types.StatusError:
				if p.OnError != nil {
					p.OnError(job.Error)
				}
				return nil
			default:
				if p.OnProgress != nil {
					p.OnProgress(job)
				}
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// HTTPFetch builds a FetchFunc against the server's status endpoint.
func HTTPFetch(baseURL string, client *http.Client) FetchFunc {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return func(ctx context.Context, jobID string) (*types.ProcessingJob, error) {
		url := fmt.Sprintf("%s/video/status/%s", baseURL, jobID)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("status endpoint returned %d", resp.StatusCode)
		}

		var job types.ProcessingJob
		if err := json.Unmarshal(body, &job); err != nil {
			return nil, fmt.Errorf("failed to decode job: %v", err)
		}
		return &job, nil
	}
}
