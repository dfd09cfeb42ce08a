package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/codebuildervaibhav/video-docgen/internal/types"
)

// DocumentCatalog records generated documents in SQLite so completed work
// survives a restart even though the job store itself does not.
type DocumentCatalog struct {
	db *sql.DB
}

// DocumentRecord is one catalog row.
type DocumentRecord struct {
	JobID        string    `json:"job_id"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	WordCount    int       `json:"word_count"`
	PageCount    int       `json:"page_count"`
	MarkdownPath string    `json:"markdown_path"`
	DriveURL     string    `json:"drive_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewDocumentCatalog opens (and if needed initializes) the catalog database.
func NewDocumentCatalog(dbPath string) (*DocumentCatalog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		category TEXT NOT NULL,
		word_count INTEGER,
		page_count INTEGER,
		markdown_path TEXT NOT NULL,
		drive_url TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create table: %v", err)
	}

	return &DocumentCatalog{db: db}, nil
}

// Save records a generated document for a completed job.
func (dc *DocumentCatalog) Save(jobID string, doc *types.GeneratedDocument, markdownPath, driveURL string) error {
	query := `
	INSERT INTO documents (job_id, title, category, word_count, page_count, markdown_path, drive_url, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := dc.db.Exec(query, jobID, doc.Title, doc.Meta.Category,
		doc.Meta.WordCount, doc.Meta.PageCount, markdownPath, driveURL, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save document record: %v", err)
	}

	return nil
}

// Get retrieves a catalog record by job id.
func (dc *DocumentCatalog) Get(jobID string) (*DocumentRecord, error) {
	query := `
	SELECT job_id, title, category, word_count, page_count, markdown_path, drive_url, created_at
	FROM documents WHERE job_id = ?
	`

	var (
		rec      DocumentRecord
		driveURL sql.NullString
	)
	err := dc.db.QueryRow(query, jobID).Scan(&rec.JobID, &rec.Title, &rec.Category,
		&rec.WordCount, &rec.PageCount, &rec.MarkdownPath, &driveURL, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document record: %v", err)
	}
	rec.DriveURL = driveURL.String

	return &rec, nil
}

// List returns the most recent catalog records.
func (dc *DocumentCatalog) List(limit int) ([]DocumentRecord, error) {
	query := `
	SELECT job_id, title, category, word_count, page_count, markdown_path, drive_url, created_at
	FROM documents ORDER BY created_at DESC LIMIT ?
	`

	rows, err := dc.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %v", err)
	}
	defer rows.Close()

	var records []DocumentRecord
	for rows.Next() {
		var (
			rec      DocumentRecord
			driveURL sql.NullString
		)
		if err := rows.Scan(&rec.JobID, &rec.Title, &rec.Category,
			&rec.WordCount, &rec.PageCount, &rec.MarkdownPath, &driveURL, &rec.CreatedAt); err != nil {
			continue
		}
		rec.DriveURL = driveURL.String
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Close closes the database connection.
func (dc *DocumentCatalog) Close() error {
	return dc.db.Close()
}
