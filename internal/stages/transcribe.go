package stages

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"path/filepath"
	"strings"

	"github.com/codebuildervaibhav/video-docgen/internal/engine"
	"github.com/codebuildervaibhav/video-docgen/internal/types"
)

// EngineTranscriber sends the stored video to a remote transcription engine.
type EngineTranscriber struct {
	client *engine.Client
}

// NewEngineTranscriber creates a transcriber backed by a remote engine.
func NewEngineTranscriber(client *engine.Client) *EngineTranscriber {
	return &EngineTranscriber{client: client}
}

type transcribeRequest struct {
	StorageKey string  `json:"storage_key"`
	MimeType   string  `json:"mime_type"`
	Duration   float64 `json:"duration,omitempty"`
}

// Transcribe asks the engine for a transcript of the stored video.
func (t *EngineTranscriber) Transcribe(ctx context.Context, video types.VideoMetadata) (*types.TranscriptionResult, error) {
	req := transcribeRequest{
		StorageKey: video.StorageKey,
		MimeType:   video.MimeType,
		Duration:   video.Duration,
	}

	var result types.TranscriptionResult
	if err := t.client.Post(ctx, "/v1/transcribe", req, &result); err != nil {
		return nil, err
	}

	result.Segments = normalizeSegments(result.Segments)
	if result.Duration == 0 && len(result.Segments) > 0 {
		result.Duration = result.Segments[len(result.Segments)-1].End
	}

	log.Printf("Transcription completed: %d segments, %.2fs duration",
		len(result.Segments), result.Duration)
	return &result, nil
}

// LocalTranscriber synthesizes a deterministic transcript from the video
// metadata. It stands in for the transcription engine in development and
// tests.
type LocalTranscriber struct{}

// NewLocalTranscriber creates the built-in transcriber.
func NewLocalTranscriber() *LocalTranscriber {
	return &LocalTranscriber{}
}

var localPhrases = []string{
	"Welcome, in this session we walk through the workflow step by step.",
	"First, open the dashboard and locate the project you want to work on.",
	"Next, configure the input settings before starting the run.",
	"Notice how the status panel updates as each step finishes.",
	"If an error appears here, check the credentials and retry.",
	"Now we review the generated output and verify the results.",
	"Finally, export the results and share them with your team.",
	"That concludes the walkthrough, thanks for watching.",
}

// Transcribe builds an evenly spaced segment sequence covering the video.
func (t *LocalTranscriber) Transcribe(ctx context.Context, video types.VideoMetadata) (*types.TranscriptionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	duration := video.Duration
	if duration <= 0 {
		// No probe data; estimate roughly one minute per 10 MB.
		duration = float64(video.Size) / (10 << 20) * 60
		if duration < 30 {
			duration = 30
		}
	}

	seed := hashString(video.StorageKey + video.FileName)
	count := 4 + int(seed%uint64(len(localPhrases)-3))
	step := duration / float64(count)

	segments := make([]types.Segment, count)
	for i := 0; i < count; i++ {
		segments[i] = types.Segment{
			Text:       localPhrases[(seed+uint64(i))%uint64(len(localPhrases))],
			Start:      float64(i) * step,
			End:        float64(i+1) * step,
			Confidence: 0.82 + float64((seed+uint64(i))%15)/100,
		}
		if i%3 == 0 {
			segments[i].Speaker = "speaker-1"
		}
	}

	topic := topicFromFileName(video.FileName)
	segments[0].Text = fmt.Sprintf("Welcome, in this session we cover %s step by step.", topic)

	return &types.TranscriptionResult{
		Segments:   normalizeSegments(segments),
		Language:   "en",
		Confidence: 0.9,
		Duration:   duration,
	}, nil
}

// topicFromFileName turns "onboarding_flow.mp4" into "onboarding flow".
func topicFromFileName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(base)
	base = strings.TrimSpace(base)
	if base == "" {
		return "the recorded process"
	}
	return strings.ToLower(base)
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
