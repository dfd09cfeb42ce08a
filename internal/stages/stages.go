// Package stages implements the four pipeline stage workers. Each worker is
// stateless across invocations: it takes the artifacts accumulated so far
// and returns a new artifact or an error. Workers either call a remote
// processing engine or fall back to a built-in local provider when no engine
// is configured.
package stages

import (
	"context"
	"sort"

	"github.com/codebuildervaibhav/video-docgen/internal/types"
)

// Transcriber produces the transcript for an uploaded video.
type Transcriber interface {
	Transcribe(ctx context.Context, video types.VideoMetadata) (*types.TranscriptionResult, error)
}

// FrameExtractor pulls key frames from the video, ordered by timestamp.
type FrameExtractor interface {
	ExtractFrames(ctx context.Context, video types.VideoMetadata, transcript *types.TranscriptionResult) ([]types.ExtractedFrame, error)
}

// Analyzer derives document structure from transcript and frames.
type Analyzer interface {
	Analyze(ctx context.Context, video types.VideoMetadata, transcript *types.TranscriptionResult, frames []types.ExtractedFrame) (*types.ContentAnalysis, error)
}

// Generator composes the final document from the content analysis.
type Generator interface {
	Generate(ctx context.Context, video types.VideoMetadata, analysis *types.ContentAnalysis) (*types.GeneratedDocument, error)
}

// Workers bundles one implementation of every stage.
type Workers struct {
	Transcriber    Transcriber
	FrameExtractor FrameExtractor
	Analyzer       Analyzer
	Generator      Generator
}

// normalizeSegments sorts segments by start time and trims overlaps so
// start times are non-decreasing and spans never intersect.
func normalizeSegments(segments []types.Segment) []types.Segment {
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})
	for i := 1; i < len(segments); i++ {
		if segments[i].Start < segments[i-1].End {
			segments[i].Start = segments[i-1].End
		}
		if segments[i].End < segments[i].Start {
			segments[i].End = segments[i].Start
		}
	}
	return segments
}

// normalizeFrames sorts frames by timestamp.
func normalizeFrames(frames []types.ExtractedFrame) []types.ExtractedFrame {
	sort.SliceStable(frames, func(i, j int) bool {
		return frames[i].Timestamp < frames[j].Timestamp
	})
	return frames
}

// clampOutline forces every outline entry's time range inside [0, duration]
// and renumbers the order indexes.
func clampOutline(outline []types.OutlineSection, duration float64) []types.OutlineSection {
	for i := range outline {
		if outline[i].StartTime < 0 {
			outline[i].StartTime = 0
		}
		if duration > 0 && outline[i].StartTime > duration {
			outline[i].StartTime = duration
		}
		if duration > 0 && outline[i].EndTime > duration {
			outline[i].EndTime = duration
		}
		if outline[i].EndTime < outline[i].StartTime {
			outline[i].EndTime = outline[i].StartTime
		}
		outline[i].Order = i
	}
	return outline
}
