package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/codebuildervaibhav/video-docgen/internal/engine"
	"github.com/codebuildervaibhav/video-docgen/internal/types"
)

// EngineAnalyzer asks a remote vision/LLM engine for content analysis.
type EngineAnalyzer struct {
	client *engine.Client
}

// NewEngineAnalyzer creates an analyzer backed by a remote engine.
func NewEngineAnalyzer(client *engine.Client) *EngineAnalyzer {
	return &EngineAnalyzer{client: client}
}

type analyzeRequest struct {
	Duration float64                `json:"duration"`
	Segments []types.Segment        `json:"segments"`
	Frames   []types.ExtractedFrame `json:"frames"`
}

// Analyze returns the engine's content analysis with the outline clamped to
// the video duration.
func (a *EngineAnalyzer) Analyze(ctx context.Context, video types.VideoMetadata, transcript *types.TranscriptionResult, frames []types.ExtractedFrame) (*types.ContentAnalysis, error) {
	duration := video.Duration
	if duration == 0 && transcript != nil {
		duration = transcript.Duration
	}

	req := analyzeRequest{Duration: duration, Frames: frames}
	if transcript != nil {
		req.Segments = transcript.Segments
	}

	var analysis types.ContentAnalysis
	if err := a.client.Post(ctx, "/v1/analyze", req, &analysis); err != nil {
		return nil, err
	}

	analysis.Outline = clampOutline(analysis.Outline, duration)
	return &analysis, nil
}

// LocalAnalyzer derives a document outline heuristically from the transcript
// segments and frame descriptions. It stands in for the LLM engine in
// development and tests.
type LocalAnalyzer struct{}

// NewLocalAnalyzer creates the built-in analyzer.
func NewLocalAnalyzer() *LocalAnalyzer {
	return &LocalAnalyzer{}
}

// Analyze builds one outline section per transcript segment and infers the
// document type from the spoken vocabulary.
func (a *LocalAnalyzer) Analyze(ctx context.Context, video types.VideoMetadata, transcript *types.TranscriptionResult, frames []types.ExtractedFrame) (*types.ContentAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if transcript == nil || len(transcript.Segments) == 0 {
		return nil, fmt.Errorf("no transcript to analyze")
	}

	duration := video.Duration
	if duration == 0 {
		duration = transcript.Duration
	}

	topic := topicFromFileName(video.FileName)

	outline := make([]types.OutlineSection, 0, len(transcript.Segments))
	keyPoints := make([]string, 0, len(transcript.Segments))
	for i, seg := range transcript.Segments {
		content := seg.Text
		if frame := frameNear(frames, seg); frame != nil {
			content = fmt.Sprintf("%s (%s)", content, frame.Description)
		}
		outline = append(outline, types.OutlineSection{
			Title:     sectionTitle(i, len(transcript.Segments), topic),
			Content:   content,
			StartTime: seg.Start,
			EndTime:   seg.End,
			Order:     i,
		})
		keyPoints = append(keyPoints, firstClause(seg.Text))
	}

	fullText := joinSegments(transcript.Segments)

	return &types.ContentAnalysis{
		DocumentType:   inferDocumentType(fullText),
		Topics:         []string{topic, "walkthrough"},
		KeyPoints:      keyPoints,
		Outline:        clampOutline(outline, duration),
		Quality:        scoreFromCoverage(len(transcript.Segments), 6),
		Completeness:   scoreFromCoverage(len(frames), 4),
		Clarity:        transcript.Confidence,
		TargetAudience: []string{"new team members", "operators"},
	}, nil
}

func sectionTitle(i, total int, topic string) string {
	switch {
	case i == 0:
		return fmt.Sprintf("Introduction to %s", topic)
	case i == total-1:
		return "Wrap-up and next steps"
	default:
		return fmt.Sprintf("Step %d", i)
	}
}

// frameNear returns the frame whose timestamp falls inside the segment.
func frameNear(frames []types.ExtractedFrame, seg types.Segment) *types.ExtractedFrame {
	for i := range frames {
		if frames[i].Timestamp >= seg.Start && frames[i].Timestamp <= seg.End {
			return &frames[i]
		}
	}
	return nil
}

func firstClause(text string) string {
	if idx := strings.IndexAny(text, ",."); idx > 0 {
		return strings.TrimSpace(text[:idx])
	}
	return strings.TrimSpace(text)
}

func joinSegments(segments []types.Segment) string {
	parts := make([]string, len(segments))
	for i, seg := range segments {
		parts[i] = seg.Text
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// inferDocumentType maps spoken vocabulary onto the document taxonomy.
func inferDocumentType(text string) string {
	switch {
	case strings.Contains(text, "procedure") || strings.Contains(text, "policy"):
		return types.DocTypeSOP
	case strings.Contains(text, "training") || strings.Contains(text, "lesson"):
		return types.DocTypeTrainingMaterial
	case strings.Contains(text, "api") || strings.Contains(text, "terminal") || strings.Contains(text, "configure"):
		return types.DocTypeTechnicalDocumentation
	case strings.Contains(text, "overview"):
		return types.DocTypeProcessOverview
	default:
		return types.DocTypeUserGuide
	}
}

// scoreFromCoverage converts an item count into a bounded 0..1 score.
func scoreFromCoverage(count, want int) float64 {
	if count >= want {
		return 0.95
	}
	return 0.5 + 0.45*float64(count)/float64(want)
}
