package stages

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/codebuildervaibhav/video-docgen/internal/types"
)

func testVideo() types.VideoMetadata {
	return types.VideoMetadata{
		FileName:   "onboarding_flow.mp4",
		Size:       50 * 1024 * 1024,
		MimeType:   "video/mp4",
		Duration:   300,
		StorageKey: "data/videos/onboarding_flow.mp4",
	}
}

type memObjects struct {
	keys []string
}

func (m *memObjects) PutBytes(kind, name string, data []byte) (string, error) {
	key := "data/" + kind + "/" + name
	m.keys = append(m.keys, key)
	return key, nil
}

func TestLocalTranscriberSegmentsAreOrdered(t *testing.T) {
	transcriber := NewLocalTranscriber()

	result, err := transcriber.Transcribe(context.Background(), testVideo())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(result.Segments) == 0 {
		t.Fatal("no segments produced")
	}
	if result.Duration <= 0 {
		t.Fatalf("duration = %f", result.Duration)
	}
	if result.Language == "" {
		t.Fatal("language not set")
	}

	for i, seg := range result.Segments {
		if seg.Text == "" {
			t.Fatalf("segment %d has empty text", i)
		}
		if seg.End < seg.Start {
			t.Fatalf("segment %d ends before it starts", i)
		}
		if i > 0 {
			prev := result.Segments[i-1]
			if seg.Start < prev.Start {
				t.Fatalf("segment %d start regresses", i)
			}
			if seg.Start < prev.End {
				t.Fatalf("segment %d overlaps previous", i)
			}
		}
	}
}

func TestLocalTranscriberEstimatesMissingDuration(t *testing.T) {
	transcriber := NewLocalTranscriber()

	video := testVideo()
	video.Duration = 0

	result, err := transcriber.Transcribe(context.Background(), video)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Duration <= 0 {
		t.Fatalf("duration = %f, want an estimate > 0", result.Duration)
	}
}

func TestLocalFrameExtractorFramesAreOrdered(t *testing.T) {
	objects := &memObjects{}
	extractor := NewLocalFrameExtractor(objects)
	transcriber := NewLocalTranscriber()

	transcript, err := transcriber.Transcribe(context.Background(), testVideo())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	frames, err := extractor.ExtractFrames(context.Background(), testVideo(), transcript)
	if err != nil {
		t.Fatalf("ExtractFrames: %v", err)
	}
	if len(frames) == 0 {
		t.Fatal("no frames produced")
	}

	for i, frame := range frames {
		if frame.ImageKey == "" || frame.ThumbnailKey == "" {
			t.Fatalf("frame %d missing storage keys", i)
		}
		if frame.Description == "" {
			t.Fatalf("frame %d missing description", i)
		}
		if frame.Importance <= 0 {
			t.Fatalf("frame %d importance = %d", i, frame.Importance)
		}
		if i > 0 && frame.Timestamp < frames[i-1].Timestamp {
			t.Fatalf("frame %d timestamp regresses", i)
		}
	}
	if len(objects.keys) != 2*len(frames) {
		t.Fatalf("stored %d objects for %d frames", len(objects.keys), len(frames))
	}
}

func TestLocalStagesHandleHighBitKeyHashes(t *testing.T) {
	video := testVideo()

	// Find a storage key whose fnv hash has the sign bit set for both seed
	// derivations, so signed truncation would index negatively.
	found := false
	for i := 0; i < 10000; i++ {
		video.StorageKey = fmt.Sprintf("data/videos/upload_%d.mp4", i)
		if int64(hashString(video.StorageKey)) < 0 &&
			int64(hashString(video.StorageKey+video.FileName)) < 0 {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("no storage key with a high-bit hash found")
	}

	transcriber := NewLocalTranscriber()
	transcript, err := transcriber.Transcribe(context.Background(), video)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	for i, seg := range transcript.Segments {
		if seg.Text == "" {
			t.Fatalf("segment %d has empty text", i)
		}
		if seg.Confidence < 0.82 || seg.Confidence > 1 {
			t.Fatalf("segment %d confidence = %f", i, seg.Confidence)
		}
	}

	frames, err := NewLocalFrameExtractor(&memObjects{}).ExtractFrames(context.Background(), video, transcript)
	if err != nil {
		t.Fatalf("ExtractFrames: %v", err)
	}
	for i, frame := range frames {
		if frame.Importance <= 0 || frame.Importance > 10 {
			t.Fatalf("frame %d importance = %d", i, frame.Importance)
		}
		if len(frame.Tags) == 0 {
			t.Fatalf("frame %d has no tags", i)
		}
	}
}

func TestLocalFrameExtractorRequiresTranscript(t *testing.T) {
	extractor := NewLocalFrameExtractor(&memObjects{})

	if _, err := extractor.ExtractFrames(context.Background(), testVideo(), nil); err == nil {
		t.Fatal("expected error without transcript")
	}
}

func TestLocalAnalyzerOutlineStaysWithinDuration(t *testing.T) {
	analyzer := NewLocalAnalyzer()
	transcriber := NewLocalTranscriber()
	video := testVideo()

	transcript, err := transcriber.Transcribe(context.Background(), video)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	analysis, err := analyzer.Analyze(context.Background(), video, transcript, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if analysis.DocumentType == "" {
		t.Fatal("document type not inferred")
	}
	if len(analysis.Outline) == 0 {
		t.Fatal("empty outline")
	}
	for i, entry := range analysis.Outline {
		if entry.Title == "" {
			t.Fatalf("outline entry %d has no title", i)
		}
		if entry.StartTime < 0 || entry.EndTime > video.Duration {
			t.Fatalf("outline entry %d range [%f, %f] outside video duration %f",
				i, entry.StartTime, entry.EndTime, video.Duration)
		}
		if entry.Order != i {
			t.Fatalf("outline entry %d has order %d", i, entry.Order)
		}
	}
	if len(analysis.KeyPoints) == 0 {
		t.Fatal("no key points")
	}
}

func TestInferDocumentType(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"follow this procedure and the policy", types.DocTypeSOP},
		{"this training covers the lesson plan", types.DocTypeTrainingMaterial},
		{"configure the api in the terminal", types.DocTypeTechnicalDocumentation},
		{"a short overview of the system", types.DocTypeProcessOverview},
		{"click the button to continue", types.DocTypeUserGuide},
	}

	for _, tt := range tests {
		if got := inferDocumentType(tt.text); got != tt.want {
			t.Errorf("inferDocumentType(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestDocumentComposerDerivesFromOutline(t *testing.T) {
	composer := NewDocumentComposer()

	analysis := &types.ContentAnalysis{
		DocumentType: types.DocTypeSOP,
		Topics:       []string{"release process"},
		Outline: []types.OutlineSection{
			{Title: "Preparation", Content: "Check out the release branch.", StartTime: 0, EndTime: 60, Order: 0},
			{Title: "Execution", Content: "Tag and publish the build.", StartTime: 60, EndTime: 120, Order: 1},
		},
	}

	doc, err := composer.Generate(context.Background(), testVideo(), analysis)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if doc.Title == "" {
		t.Fatal("empty title")
	}
	if !strings.Contains(doc.Title, "Release Process") {
		t.Fatalf("title %q does not name the topic", doc.Title)
	}
	if len(doc.Sections) != len(analysis.Outline) {
		t.Fatalf("sections = %d, want %d", len(doc.Sections), len(analysis.Outline))
	}
	for i, section := range doc.Sections {
		if section.Heading != analysis.Outline[i].Title {
			t.Fatalf("section %d heading = %q", i, section.Heading)
		}
		if section.Body == "" {
			t.Fatalf("section %d has empty body", i)
		}
	}
	if doc.Meta.WordCount <= 0 {
		t.Fatalf("word count = %d", doc.Meta.WordCount)
	}
	if doc.Meta.PageCount <= 0 {
		t.Fatalf("page count = %d", doc.Meta.PageCount)
	}
	if doc.Meta.Category != types.DocTypeSOP {
		t.Fatalf("category = %s", doc.Meta.Category)
	}
}

func TestDocumentComposerRejectsEmptyOutline(t *testing.T) {
	composer := NewDocumentComposer()

	if _, err := composer.Generate(context.Background(), testVideo(), &types.ContentAnalysis{}); err == nil {
		t.Fatal("expected error for empty outline")
	}
}

func TestRenderMarkdown(t *testing.T) {
	doc := &types.GeneratedDocument{
		Title: "Process Overview: Billing",
		Sections: []types.DocumentSection{
			{Heading: "Scope", Body: "What billing covers.", Order: 0},
		},
		Meta: types.DocumentMeta{Category: types.DocTypeProcessOverview, Version: "1.0"},
	}

	md := RenderMarkdown(doc)
	if !strings.HasPrefix(md, "# Process Overview: Billing") {
		t.Fatalf("markdown does not start with the title: %q", md)
	}
	if !strings.Contains(md, "## Scope") {
		t.Fatal("markdown missing section heading")
	}
	if !strings.Contains(md, "What billing covers.") {
		t.Fatal("markdown missing section body")
	}
}
