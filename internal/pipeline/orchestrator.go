// Package pipeline drives a ProcessingJob through the stage sequence. The
// orchestrator is the only component that advances a job's status.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/codebuildervaibhav/video-docgen/internal/stages"
	"github.com/codebuildervaibhav/video-docgen/internal/storage"
	"github.com/codebuildervaibhav/video-docgen/internal/types"
)

// ErrAlreadyRunning is returned when starting a job whose pipeline is active.
var ErrAlreadyRunning = errors.New("job already running")

// ErrJobTerminal is returned when starting a job that already finished;
// retries require a fresh upload.
var ErrJobTerminal = errors.New("job already finished")

// StageError tags a worker failure with the stage it occurred in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Progress checkpoints per stage entry, plus the export step and completion.
const (
	progressTranscribing = 10
	progressFrames       = 30
	progressAnalyzing    = 50
	progressGenerating   = 70
	progressSaving       = 90
	progressComplete     = 100
)

// Exporter pushes the rendered document to an external destination.
// *storage.DriveExporter satisfies this.
type Exporter interface {
	Export(jobID string, doc *types.GeneratedDocument, markdown string) (string, error)
}

// ObjectStore is the slice of the storage layer the export step needs.
type ObjectStore interface {
	PutBytes(kind, name string, data []byte) (string, error)
}

// Config tunes stage execution.
type Config struct {
	StageTimeout  time.Duration // per stage attempt, default 2m
	RetryAttempts int           // attempts per stage, default 3
	RetryBackoff  time.Duration // base backoff, default 1s
}

func (c Config) withDefaults() Config {
	if c.StageTimeout <= 0 {
		c.StageTimeout = 2 * time.Minute
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = time.Second
	}
	return c
}

// Orchestrator executes the pipeline for one job at a time per Run call.
type Orchestrator struct {
	store   storage.JobStore
	workers stages.Workers
	objects ObjectStore
	catalog *storage.DocumentCatalog
	export  Exporter
	cfg     Config

	sleep func(time.Duration)
}

// New creates an orchestrator. catalog and export may be nil; the pipeline
// then skips the corresponding persistence steps.
func New(store storage.JobStore, workers stages.Workers, objects ObjectStore, catalog *storage.DocumentCatalog, export Exporter, cfg Config) *Orchestrator {
	return &Orchestrator{
		store:   store,
		workers: workers,
		objects: objects,
		catalog: catalog,
		export:  export,
		cfg:     cfg.withDefaults(),
		sleep:   time.Sleep,
	}
}

// Start atomically claims a job for processing. Only a job still in the
// uploaded state may start; a running job yields ErrAlreadyRunning and a
// finished one ErrJobTerminal, so the same id can never be picked up by two
// concurrent runs.
func (o *Orchestrator) Start(jobID string) error {
	_, err := o.store.Update(jobID, func(job *types.ProcessingJob) error {
		switch {
		case types.IsTerminal(job.Status):
			return ErrJobTerminal
		case job.Status != types.StatusUploaded:
			return ErrAlreadyRunning
		}
		job.Status = types.StatusTranscribing
		job.CurrentStep = "Transcribing audio"
		job.Progress = progressTranscribing
		return nil
	})
	return err
}

// Run executes the stage sequence for a previously claimed job. Stage
// failures are recorded on the job and never returned to the caller that
// accepted the processing request; the returned error is for logging only.
func (o *Orchestrator) Run(ctx context.Context, jobID string) error {
	job, err := o.store.Get(jobID)
	if err != nil {
		return err
	}
	video := job.Video

	// Stage 1: transcription.
	var transcript *types.TranscriptionResult
	err = o.runStage(ctx, jobID, types.StatusTranscribing, "Transcribing audio", progressTranscribing, func(ctx context.Context) error {
		var err error
		transcript, err = o.workers.Transcriber.Transcribe(ctx, video)
		return err
	})
	if err != nil {
		return o.fail(jobID, err)
	}
	if _, err := o.store.Update(jobID, func(job *types.ProcessingJob) error {
		job.Transcription = transcript
		if job.Video.Duration == 0 {
			job.Video.Duration = transcript.Duration
		}
		return nil
	}); err != nil {
		return o.fail(jobID, err)
	}
	video.Duration = transcript.Duration

	// Stage 2: key frame extraction.
	var frames []types.ExtractedFrame
	err = o.runStage(ctx, jobID, types.StatusExtractingFrames, "Extracting key frames", progressFrames, func(ctx context.Context) error {
		var err error
		frames, err = o.workers.FrameExtractor.ExtractFrames(ctx, video, transcript)
		return err
	})
	if err != nil {
		return o.fail(jobID, err)
	}
	if _, err := o.store.Update(jobID, func(job *types.ProcessingJob) error {
		job.Frames = frames
		return nil
	}); err != nil {
		return o.fail(jobID, err)
	}

	// Stage 3: content analysis.
	var analysis *types.ContentAnalysis
	err = o.runStage(ctx, jobID, types.StatusAnalyzing, "Analyzing content", progressAnalyzing, func(ctx context.Context) error {
		var err error
		analysis, err = o.workers.Analyzer.Analyze(ctx, video, transcript, frames)
		return err
	})
	if err != nil {
		return o.fail(jobID, err)
	}
	if _, err := o.store.Update(jobID, func(job *types.ProcessingJob) error {
		job.Analysis = analysis
		return nil
	}); err != nil {
		return o.fail(jobID, err)
	}

	// Stage 4: document generation.
	var doc *types.GeneratedDocument
	err = o.runStage(ctx, jobID, types.StatusGeneratingDocument, "Generating document", progressGenerating, func(ctx context.Context) error {
		var err error
		doc, err = o.workers.Generator.Generate(ctx, video, analysis)
		return err
	})
	if err != nil {
		return o.fail(jobID, err)
	}
	if _, err := o.store.Update(jobID, func(job *types.ProcessingJob) error {
		job.GeneratedDocument = doc
		return nil
	}); err != nil {
		return o.fail(jobID, err)
	}

	// Export step: persist the rendered document. Failures here are logged
	// but do not fail the job; the artifact is already attached.
	if _, err := o.store.Update(jobID, func(job *types.ProcessingJob) error {
		job.CurrentStep = "Saving document"
		job.Progress = progressSaving
		return nil
	}); err != nil {
		return o.fail(jobID, err)
	}
	o.persistDocument(jobID, doc)

	_, err = o.store.Update(jobID, func(job *types.ProcessingJob) error {
		now := time.Now()
		job.Status = types.StatusComplete
		job.CurrentStep = "Complete"
		job.Progress = progressComplete
		job.CompletedAt = &now
		return nil
	})
	if err != nil {
		return o.fail(jobID, err)
	}

	log.Printf("Job %s completed: %q (%d words)", jobID, doc.Title, doc.Meta.WordCount)
	return nil
}

// runStage marks the stage as active, then invokes fn with a per-attempt
// timeout and bounded backoff retries.
func (o *Orchestrator) runStage(ctx context.Context, jobID, status, label string, checkpoint int, fn func(ctx context.Context) error) error {
	if _, err := o.store.Update(jobID, func(job *types.ProcessingJob) error {
		job.Status = status
		job.CurrentStep = label
		job.Progress = checkpoint
		return nil
	}); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= o.cfg.RetryAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.StageTimeout)
		lastErr = fn(attemptCtx)
		cancel()

		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil || !retryable(lastErr) || attempt == o.cfg.RetryAttempts {
			break
		}
		log.Printf("Job %s: %s attempt %d/%d failed: %v", jobID, status, attempt, o.cfg.RetryAttempts, lastErr)
		o.sleep(time.Duration(attempt*attempt) * o.cfg.RetryBackoff)
	}

	return &StageError{Stage: status, Err: lastErr}
}

// retryable reports whether a stage failure is worth another attempt.
// Rejections the engine already judged (4xx) are final.
func retryable(err error) bool {
	var statusErr interface{ Transient() bool }
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}
	return !errors.Is(err, context.Canceled)
}

// Fail records an out-of-band failure (such as a worker panic) on the job so
// it still reaches a terminal state.
func (o *Orchestrator) Fail(jobID, msg string) {
	o.fail(jobID, errors.New(msg))
}

// fail records a pipeline failure on the job. Artifacts from stages that
// already succeeded stay attached.
func (o *Orchestrator) fail(jobID string, cause error) error {
	log.Printf("Job %s failed: %v", jobID, cause)
	if _, err := o.store.Update(jobID, func(job *types.ProcessingJob) error {
		now := time.Now()
		job.Status = types.StatusError
		job.CurrentStep = "Failed"
		job.Error = cause.Error()
		job.CompletedAt = &now
		return nil
	}); err != nil {
		log.Printf("Job %s: failed to record error: %v", jobID, err)
	}
	return cause
}

// persistDocument writes the markdown rendition to the object store, records
// it in the catalog and, when configured, exports it to Drive with the same
// bounded retry used for stages.
func (o *Orchestrator) persistDocument(jobID string, doc *types.GeneratedDocument) {
	markdown := stages.RenderMarkdown(doc)

	markdownPath := ""
	if o.objects != nil {
		path, err := o.objects.PutBytes("documents", jobID+".md", []byte(markdown))
		if err != nil {
			log.Printf("Job %s: failed to store markdown: %v", jobID, err)
		} else {
			markdownPath = path
		}
	}

	driveURL := ""
	if o.export != nil {
		var err error
		for attempt := 1; attempt <= o.cfg.RetryAttempts; attempt++ {
			driveURL, err = o.export.Export(jobID, doc, markdown)
			if err == nil {
				break
			}
			log.Printf("Job %s: document export attempt %d/%d failed: %v", jobID, attempt, o.cfg.RetryAttempts, err)
			if attempt < o.cfg.RetryAttempts {
				o.sleep(time.Duration(attempt*attempt) * o.cfg.RetryBackoff)
			}
		}
		if err != nil {
			log.Printf("Job %s: document export failed after %d attempts, keeping local copy only", jobID, o.cfg.RetryAttempts)
		}
	}

	if o.catalog != nil {
		if err := o.catalog.Save(jobID, doc, markdownPath, driveURL); err != nil {
			log.Printf("Job %s: failed to record document in catalog: %v", jobID, err)
		}
	}
}
