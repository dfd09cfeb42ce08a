package types

import "time"

// Job status constants, in pipeline order
const (
	StatusUploaded           = "uploaded"
	StatusTranscribing       = "transcribing"
	StatusExtractingFrames   = "extracting-frames"
	StatusAnalyzing          = "analyzing"
	StatusGeneratingDocument = "generating-document"
	StatusComplete           = "complete"
	StatusError              = "error"
)

// Inferred document type constants
const (
	DocTypeTechnicalDocumentation = "technical-documentation"
	DocTypeTrainingMaterial       = "training-material"
	DocTypeSOP                    = "sop"
	DocTypeUserGuide              = "user-guide"
	DocTypeProcessOverview        = "process-overview"
)

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status string) bool {
	return status == StatusComplete || status == StatusError
}

// VideoMetadata describes the uploaded source file. Immutable after creation.
type VideoMetadata struct {
	FileName   string    `json:"file_name"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	Duration   float64   `json:"duration,omitempty"`
	StorageKey string    `json:"storage_key"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ProcessingJob tracks a single video's journey through the pipeline.
type ProcessingJob struct {
	ID          string        `json:"id"`
	Video       VideoMetadata `json:"video"`
	Status      string        `json:"status"`
	Progress    int           `json:"progress"`
	CurrentStep string        `json:"current_step"`

	Transcription     *TranscriptionResult `json:"transcription,omitempty"`
	Frames            []ExtractedFrame     `json:"frames,omitempty"`
	Analysis          *ContentAnalysis     `json:"analysis,omitempty"`
	GeneratedDocument *GeneratedDocument   `json:"generated_document,omitempty"`

	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Clone returns a deep copy so readers never alias the stored record.
func (j *ProcessingJob) Clone() *ProcessingJob {
	cp := *j
	if j.Transcription != nil {
		t := *j.Transcription
		t.Segments = append([]Segment(nil), j.Transcription.Segments...)
		cp.Transcription = &t
	}
	if j.Frames != nil {
		cp.Frames = make([]ExtractedFrame, len(j.Frames))
		for i, f := range j.Frames {
			f.Tags = append([]string(nil), f.Tags...)
			cp.Frames[i] = f
		}
	}
	if j.Analysis != nil {
		a := *j.Analysis
		a.Topics = append([]string(nil), j.Analysis.Topics...)
		a.KeyPoints = append([]string(nil), j.Analysis.KeyPoints...)
		a.Outline = append([]OutlineSection(nil), j.Analysis.Outline...)
		a.TargetAudience = append([]string(nil), j.Analysis.TargetAudience...)
		cp.Analysis = &a
	}
	if j.GeneratedDocument != nil {
		d := *j.GeneratedDocument
		d.Sections = append([]DocumentSection(nil), j.GeneratedDocument.Sections...)
		d.Meta.Tags = append([]string(nil), j.GeneratedDocument.Meta.Tags...)
		cp.GeneratedDocument = &d
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

// Segment is a timestamped span of transcribed speech.
type Segment struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
	Speaker    string  `json:"speaker,omitempty"`
}

// TranscriptionResult is the transcription stage artifact. Segments are
// ordered by non-decreasing start time and do not overlap.
type TranscriptionResult struct {
	Segments   []Segment `json:"segments"`
	Language   string    `json:"language"`
	Confidence float64   `json:"confidence"`
	Duration   float64   `json:"duration"`
}

// ExtractedFrame is one key frame pulled from the video.
type ExtractedFrame struct {
	Timestamp    float64  `json:"timestamp"`
	ImageKey     string   `json:"image_key"`
	ThumbnailKey string   `json:"thumbnail_key"`
	Description  string   `json:"description"`
	Importance   int      `json:"importance"`
	Tags         []string `json:"tags,omitempty"`
}

// OutlineSection is one ordered entry of the analyzed document outline.
// StartTime/EndTime fall within the video duration.
type OutlineSection struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Order     int     `json:"order"`
}

// ContentAnalysis is the analysis stage artifact.
type ContentAnalysis struct {
	DocumentType   string           `json:"document_type"`
	Topics         []string         `json:"topics"`
	KeyPoints      []string         `json:"key_points"`
	Outline        []OutlineSection `json:"outline"`
	Quality        float64          `json:"quality"`
	Completeness   float64          `json:"completeness"`
	Clarity        float64          `json:"clarity"`
	TargetAudience []string         `json:"target_audience"`
}

// DocumentSection is one rendered section of the generated document.
type DocumentSection struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
	Order   int    `json:"order"`
}

// DocumentMeta carries derived metadata about a generated document.
type DocumentMeta struct {
	WordCount int      `json:"word_count"`
	PageCount int      `json:"page_count"`
	Tags      []string `json:"tags,omitempty"`
	Category  string   `json:"category"`
	Version   string   `json:"version"`
}

// GeneratedDocument is the final pipeline artifact.
type GeneratedDocument struct {
	Title    string            `json:"title"`
	Sections []DocumentSection `json:"sections"`
	Meta     DocumentMeta      `json:"meta"`
}
