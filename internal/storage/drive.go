package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/codebuildervaibhav/video-docgen/internal/types"
)

// DriveExporter uploads generated documents to Google Drive. It is an
// optional collaborator: when no credentials are configured the pipeline
// keeps documents local only.
type DriveExporter struct {
	service    *drive.Service
	folderName string
	folderID   string
}

// NewDriveExporter creates a Drive exporter rooted at folderName.
func NewDriveExporter(credentialsFile, tokenFile, folderName string) (*DriveExporter, error) {
	ctx := context.Background()

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	config, err := google.ConfigFromJSON(b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read oauth token: %v", err)
	}
	client := config.Client(ctx, tok)

	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive service: %v", err)
	}

	de := &DriveExporter{
		service:    srv,
		folderName: folderName,
	}

	if err := de.ensureFolder(); err != nil {
		return nil, err
	}

	return de, nil
}

// tokenFromFile retrieves a token from a local file
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// ensureFolder finds or creates the root folder
func (de *DriveExporter) ensureFolder() error {
	query := fmt.Sprintf("name='%s' and mimeType='application/vnd.google-apps.folder' and trashed=false",
		de.folderName)

	r, err := de.service.Files.List().Q(query).Spaces("drive").Fields("files(id, name)").Do()
	if err != nil {
		return fmt.Errorf("unable to search for folder: %v", err)
	}

	if len(r.Files) > 0 {
		de.folderID = r.Files[0].Id
		return nil
	}

	folder := &drive.File{
		Name:     de.folderName,
		MimeType: "application/vnd.google-apps.folder",
	}

	file, err := de.service.Files.Create(folder).Fields("id").Do()
	if err != nil {
		return fmt.Errorf("unable to create folder: %v", err)
	}

	de.folderID = file.Id
	return nil
}

// Export uploads the rendered markdown and a metadata JSON for a job's
// generated document, returning a shareable link.
func (de *DriveExporter) Export(jobID string, doc *types.GeneratedDocument, markdown string) (string, error) {
	now := time.Now()
	folderID, err := de.ensureDateFolder(now)
	if err != nil {
		return "", err
	}

	timestamp := now.Format("20060102_150405")
	baseFilename := fmt.Sprintf("%s_%s", timestamp, sanitizeFilename(doc.Title))

	mdFile := &drive.File{
		Name:    baseFilename + ".md",
		Parents: []string{folderID},
	}

	created, err := de.service.Files.Create(mdFile).Media(strings.NewReader(markdown)).Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload document: %v", err)
	}

	metadata := map[string]interface{}{
		"job_id":     jobID,
		"title":      doc.Title,
		"category":   doc.Meta.Category,
		"word_count": doc.Meta.WordCount,
		"page_count": doc.Meta.PageCount,
		"tags":       doc.Meta.Tags,
		"version":    doc.Meta.Version,
		"created_at": now,
	}

	metaJSON, _ := json.MarshalIndent(metadata, "", "  ")

	metaFile := &drive.File{
		Name:    baseFilename + "_meta.json",
		Parents: []string{folderID},
	}

	if _, err := de.service.Files.Create(metaFile).Media(strings.NewReader(string(metaJSON))).Do(); err != nil {
		return "", fmt.Errorf("failed to upload metadata: %v", err)
	}

	fileURL := fmt.Sprintf("https://drive.google.com/file/d/%s/view", created.Id)
	return fileURL, nil
}

// ensureDateFolder creates nested year/month/day folders
func (de *DriveExporter) ensureDateFolder(t time.Time) (string, error) {
	yearID, err := de.findOrCreateFolder(fmt.Sprintf("%d", t.Year()), de.folderID)
	if err != nil {
		return "", err
	}

	monthID, err := de.findOrCreateFolder(fmt.Sprintf("%02d", t.Month()), yearID)
	if err != nil {
		return "", err
	}

	dayID, err := de.findOrCreateFolder(fmt.Sprintf("%02d", t.Day()), monthID)
	if err != nil {
		return "", err
	}

	return dayID, nil
}

// findOrCreateFolder finds or creates a folder with the given parent
func (de *DriveExporter) findOrCreateFolder(name, parentID string) (string, error) {
	query := fmt.Sprintf("name='%s' and '%s' in parents and mimeType='application/vnd.google-apps.folder' and trashed=false",
		name, parentID)

	r, err := de.service.Files.List().Q(query).Spaces("drive").Fields("files(id)").Do()
	if err != nil {
		return "", err
	}

	if len(r.Files) > 0 {
		return r.Files[0].Id, nil
	}

	folder := &drive.File{
		Name:     name,
		MimeType: "application/vnd.google-apps.folder",
		Parents:  []string{parentID},
	}

	file, err := de.service.Files.Create(folder).Fields("id").Do()
	if err != nil {
		return "", err
	}

	return file.Id, nil
}
