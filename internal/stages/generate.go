package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/codebuildervaibhav/video-docgen/internal/types"
)

const wordsPerPage = 350

// DocumentComposer builds the final document from the content analysis. The
// composition itself is deterministic; the persisted form is produced by the
// pipeline's export step.
type DocumentComposer struct{}

// NewDocumentComposer creates the document generation worker.
func NewDocumentComposer() *DocumentComposer {
	return &DocumentComposer{}
}

// Generate renders one document section per outline entry. Title and content
// are always non-empty for a non-empty outline.
func (g *DocumentComposer) Generate(ctx context.Context, video types.VideoMetadata, analysis *types.ContentAnalysis) (*types.GeneratedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if analysis == nil || len(analysis.Outline) == 0 {
		return nil, fmt.Errorf("no outline to generate document from")
	}

	title := documentTitle(analysis, video)

	sections := make([]types.DocumentSection, len(analysis.Outline))
	wordCount := len(strings.Fields(title))
	for i, entry := range analysis.Outline {
		body := entry.Content
		if body == "" {
			body = fmt.Sprintf("Covered between %.0fs and %.0fs of the recording.", entry.StartTime, entry.EndTime)
		}
		sections[i] = types.DocumentSection{
			Heading: entry.Title,
			Body:    body,
			Order:   entry.Order,
		}
		wordCount += len(strings.Fields(entry.Title)) + len(strings.Fields(body))
	}

	pageCount := (wordCount + wordsPerPage - 1) / wordsPerPage

	return &types.GeneratedDocument{
		Title:    title,
		Sections: sections,
		Meta: types.DocumentMeta{
			WordCount: wordCount,
			PageCount: pageCount,
			Tags:      append([]string(nil), analysis.Topics...),
			Category:  analysis.DocumentType,
			Version:   "1.0",
		},
	}, nil
}

func documentTitle(analysis *types.ContentAnalysis, video types.VideoMetadata) string {
	topic := ""
	if len(analysis.Topics) > 0 {
		topic = analysis.Topics[0]
	}
	if topic == "" {
		topic = topicFromFileName(video.FileName)
	}

	switch analysis.DocumentType {
	case types.DocTypeSOP:
		return fmt.Sprintf("Standard Operating Procedure: %s", titleCase(topic))
	case types.DocTypeTrainingMaterial:
		return fmt.Sprintf("Training Guide: %s", titleCase(topic))
	case types.DocTypeTechnicalDocumentation:
		return fmt.Sprintf("Technical Documentation: %s", titleCase(topic))
	case types.DocTypeProcessOverview:
		return fmt.Sprintf("Process Overview: %s", titleCase(topic))
	default:
		return fmt.Sprintf("User Guide: %s", titleCase(topic))
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	if len(words) == 0 {
		return "Recorded Process"
	}
	return strings.Join(words, " ")
}

// RenderMarkdown produces the document's persisted markdown form.
func RenderMarkdown(doc *types.GeneratedDocument) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	fmt.Fprintf(&b, "*Category: %s · Version %s*\n\n", doc.Meta.Category, doc.Meta.Version)
	for _, section := range doc.Sections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", section.Heading, section.Body)
	}
	return b.String()
}
