package stages

import (
	"context"
	"fmt"

	"github.com/codebuildervaibhav/video-docgen/internal/engine"
	"github.com/codebuildervaibhav/video-docgen/internal/types"
)

// EngineFrameExtractor asks a remote vision engine for key frames.
type EngineFrameExtractor struct {
	client *engine.Client
}

// NewEngineFrameExtractor creates a frame extractor backed by a remote engine.
func NewEngineFrameExtractor(client *engine.Client) *EngineFrameExtractor {
	return &EngineFrameExtractor{client: client}
}

type extractFramesRequest struct {
	StorageKey string          `json:"storage_key"`
	Duration   float64         `json:"duration,omitempty"`
	Segments   []types.Segment `json:"segments,omitempty"`
}

type extractFramesResponse struct {
	Frames []types.ExtractedFrame `json:"frames"`
}

// ExtractFrames returns the engine's key frames ordered by timestamp.
func (f *EngineFrameExtractor) ExtractFrames(ctx context.Context, video types.VideoMetadata, transcript *types.TranscriptionResult) ([]types.ExtractedFrame, error) {
	req := extractFramesRequest{
		StorageKey: video.StorageKey,
		Duration:   video.Duration,
	}
	if transcript != nil {
		req.Segments = transcript.Segments
		if req.Duration == 0 {
			req.Duration = transcript.Duration
		}
	}

	var resp extractFramesResponse
	if err := f.client.Post(ctx, "/v1/frames", req, &resp); err != nil {
		return nil, err
	}

	return normalizeFrames(resp.Frames), nil
}

// ObjectStore is the slice of the storage layer frame extraction needs:
// materialize image bytes and get a locator back.
type ObjectStore interface {
	PutBytes(kind, name string, data []byte) (string, error)
}

// LocalFrameExtractor synthesizes key frames aligned to transcript segments
// and materializes placeholder images through the object store. It stands in
// for the vision engine in development and tests.
type LocalFrameExtractor struct {
	objects ObjectStore
}

// NewLocalFrameExtractor creates the built-in frame extractor.
func NewLocalFrameExtractor(objects ObjectStore) *LocalFrameExtractor {
	return &LocalFrameExtractor{objects: objects}
}

// placeholderPNG is a 1x1 gray PNG used for synthesized frame images.
var placeholderPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x02, 0x00, 0x00, 0x00, 0x90, 0x77, 0x53, 0xde, 0x00, 0x00, 0x00,
	0x0c, 0x49, 0x44, 0x41, 0x54, 0x08, 0xd7, 0x63, 0x90, 0x90, 0x90, 0x06,
	0x00, 0x01, 0x34, 0x00, 0xcb, 0x9e, 0x2e, 0x8a, 0x3e, 0x00, 0x00, 0x00,
	0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

var frameTagSets = [][]string{
	{"screen", "ui"},
	{"diagram"},
	{"screen", "form"},
	{"presenter"},
	{"screen", "terminal"},
	{"chart"},
}

// ExtractFrames picks one frame near the middle of each transcript segment.
func (f *LocalFrameExtractor) ExtractFrames(ctx context.Context, video types.VideoMetadata, transcript *types.TranscriptionResult) ([]types.ExtractedFrame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if transcript == nil || len(transcript.Segments) == 0 {
		return nil, fmt.Errorf("no transcript segments to align frames with")
	}

	seed := hashString(video.StorageKey)
	frames := make([]types.ExtractedFrame, 0, len(transcript.Segments))
	for i, seg := range transcript.Segments {
		ts := (seg.Start + seg.End) / 2

		name := fmt.Sprintf("frame_%03d.png", i)
		imageKey, err := f.objects.PutBytes("frames", name, placeholderPNG)
		if err != nil {
			return nil, fmt.Errorf("failed to store frame image: %v", err)
		}
		thumbKey, err := f.objects.PutBytes("frames", fmt.Sprintf("frame_%03d_thumb.png", i), placeholderPNG)
		if err != nil {
			return nil, fmt.Errorf("failed to store frame thumbnail: %v", err)
		}

		frames = append(frames, types.ExtractedFrame{
			Timestamp:    ts,
			ImageKey:     imageKey,
			ThumbnailKey: thumbKey,
			Description:  fmt.Sprintf("Screen shown while: %s", seg.Text),
			Importance:   10 - int((seed+uint64(i))%7),
			Tags:         frameTagSets[(seed+uint64(i))%uint64(len(frameTagSets))],
		})
	}

	return normalizeFrames(frames), nil
}
