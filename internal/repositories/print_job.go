package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/readerprint/internal/models"
	"github.com/desertthunder/readerprint/internal/shared"
)

var _ models.Repository[*models.PrintJob] = (*PrintJobRepository)(nil)

// ErrPrintJobNotFound is returned when no row matches.
var ErrPrintJobNotFound = errors.New("print job not found")

const printJobColumns = `id, sequence, document_id, identifier, title, printer_id, job_id, status, error_message, created_at`

// PrintJobRepository implements models.Repository[*models.PrintJob] for print history.
//
// Every article outcome of a sync run becomes one row.
type PrintJobRepository struct {
	db *sql.DB
}

// NewPrintJobRepository creates a new PrintJobRepository with the given database connection
func NewPrintJobRepository(db *sql.DB) *PrintJobRepository {
	return &PrintJobRepository{db: db}
}

// Create inserts job with a generated ID and the next sequence number
func (r *PrintJobRepository) Create(job *models.PrintJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "print_jobs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO print_jobs (` + printJobColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		id,
		sequence,
		job.DocumentID(),
		job.Identifier(),
		job.Title(),
		job.PrinterID(),
		job.JobID(),
		job.Status(),
		nullable(job.ErrorMessage()),
		job.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert print job: %w", err)
	}

	job.SetID(id)
	job.SetSequence(sequence)
	return nil
}

// LatestForIdentifier returns the most recent job recorded for identifier
func (r *PrintJobRepository) LatestForIdentifier(identifier string) (*models.PrintJob, error) {
	query := `
		SELECT ` + printJobColumns + `
		FROM print_jobs
		WHERE identifier = ?
		ORDER BY sequence DESC
		LIMIT 1
	`
	return r.scan(r.db.QueryRow(query, identifier))
}

// List retrieves print jobs newest first.
//
// Supported criteria: "status" (models.JobStatus or string), "identifier" (string), "limit" (int).
func (r *PrintJobRepository) List(criteria map[string]any) ([]*models.PrintJob, error) {
	var where []string
	args := []any{}

	switch status := criteria["status"].(type) {
	case models.JobStatus:
		where = append(where, "status = ?")
		args = append(args, string(status))
	case string:
		if status != "" {
			where = append(where, "status = ?")
			args = append(args, status)
		}
	}

	if identifier, ok := criteria["identifier"].(string); ok && identifier != "" {
		where = append(where, "identifier = ?")
		args = append(args, identifier)
	}

	query := `SELECT ` + printJobColumns + ` FROM print_jobs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query print jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.PrintJob
	for rows.Next() {
		job, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return jobs, nil
}

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

func (r *PrintJobRepository) scan(row scanner) (*models.PrintJob, error) {
	var (
		id, documentID, identifier string
		title, printerID, jobID    string
		status                     string
		sequence                   int
		errorMessage               sql.NullString
		createdAt                  time.Time
	)

	err := row.Scan(&id, &sequence, &documentID, &identifier, &title, &printerID, &jobID, &status,
		&errorMessage, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPrintJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan print job: %w", err)
	}

	doc := models.Document{ID: documentID, SourceURL: identifier, Title: title}
	job := models.NewPrintJob(sequence, doc, printerID, models.JobStatus(status))
	job.SetID(id)
	job.SetJobID(jobID)
	job.SetErrorMessage(errorMessage.String)
	job.SetCreatedAt(createdAt)
	return job, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
