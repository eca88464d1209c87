package models

import (
	"fmt"
	"time"
)

// JobStatus is the outcome of a single article in a sync run.
type JobStatus string

const (
	JobStatusPrinted JobStatus = "printed"
	JobStatusFailed  JobStatus = "failed"
	JobStatusSkipped JobStatus = "skipped"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPrinted, JobStatusFailed, JobStatusSkipped:
		return true
	}
	return false
}

// PrintJob is one entry of print history.
//
// Implements [Record]; rows are append-only and persisted by repositories.PrintJobRepository.
type PrintJob struct {
	id           string
	sequence     int
	documentID   string
	identifier   string
	title        string
	printerID    string
	jobID        string
	status       JobStatus
	errorMessage string
	createdAt    time.Time
}

// NewPrintJob creates a [PrintJob] for doc with timestamps set to now.
func NewPrintJob(sequence int, doc Document, printerID string, status JobStatus) *PrintJob {
	now := time.Now()
	return &PrintJob{
		sequence:   sequence,
		documentID: doc.ID,
		identifier: doc.Key(),
		title:      doc.Title,
		printerID:  printerID,
		status:     status,
		createdAt:  now,
	}
}

func (j *PrintJob) ID() string           { return j.id }
func (j *PrintJob) Sequence() int        { return j.sequence }
func (j *PrintJob) DocumentID() string   { return j.documentID }
func (j *PrintJob) Identifier() string   { return j.identifier }
func (j *PrintJob) Title() string        { return j.title }
func (j *PrintJob) PrinterID() string    { return j.printerID }
func (j *PrintJob) JobID() string        { return j.jobID }
func (j *PrintJob) Status() JobStatus    { return j.status }
func (j *PrintJob) ErrorMessage() string { return j.errorMessage }
func (j *PrintJob) CreatedAt() time.Time { return j.createdAt }

func (j *PrintJob) SetID(id string)                { j.id = id }
func (j *PrintJob) SetSequence(seq int)            { j.sequence = seq }
func (j *PrintJob) SetJobID(jobID string)          { j.jobID = jobID }
func (j *PrintJob) SetCreatedAt(t time.Time)       { j.createdAt = t }
func (j *PrintJob) SetErrorMessage(message string) { j.errorMessage = message }

// SetError records err's message; nil clears it.
func (j *PrintJob) SetError(err error) {
	if err == nil {
		j.errorMessage = ""
		return
	}
	j.errorMessage = err.Error()
}

// Validate checks required fields and the status value.
func (j *PrintJob) Validate() error {
	if j.identifier == "" {
		return fmt.Errorf("identifier is required")
	}
	if !j.status.Valid() {
		return fmt.Errorf("invalid status: %q", j.status)
	}
	if j.status == JobStatusPrinted && j.printerID == "" {
		return fmt.Errorf("printer ID is required for printed jobs")
	}
	return nil
}
