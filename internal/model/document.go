package model

import "time"

// DocumentStatus is the processing state of an uploaded document.
type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// DocumentStatuses lists the valid DocumentStatus values.
var DocumentStatuses = []DocumentStatus{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}

// Valid reports whether s is a known document status.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// IngestionStatus tracks the ingestion state of a document.  It is set by
// clients; nothing in this service derives it from real processing.
type IngestionStatus string

const (
	IngestionNotStarted IngestionStatus = "not_started"
	IngestionInProgress IngestionStatus = "in_progress"
	IngestionCompleted  IngestionStatus = "completed"
	IngestionFailed     IngestionStatus = "failed"
)

// IngestionStatuses lists the valid IngestionStatus values.
var IngestionStatuses = []IngestionStatus{IngestionNotStarted, IngestionInProgress, IngestionCompleted, IngestionFailed}

// Valid reports whether s is a known ingestion status.
func (s IngestionStatus) Valid() bool {
	switch s {
	case IngestionNotStarted, IngestionInProgress, IngestionCompleted, IngestionFailed:
		return true
	}
	return false
}

// Document represents a row in the `documents` table together with the
// optional uploader summary joined in by read queries.
//
// Fields:
//  ID              – uuid primary key.
//  Title           – required, trimmed title.
//  Description     – optional free text.
//  FileURL         – path or object key of the stored artifact.
//  FileType        – file extension of the original upload (e.g. ".pdf").
//  FileSize        – size of the artifact in bytes.
//  UploadedBy      – id of the uploading user; may dangle after the user is deleted.
//  Status          – lifecycle status, default pending.
//  IngestionStatus – ingestion status, default not_started.
//  Uploader        – populated on reads when the uploader still exists.
type Document struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	FileURL         string          `json:"fileUrl"`
	FileType        string          `json:"fileType"`
	FileSize        int64           `json:"fileSize"`
	UploadedBy      string          `json:"uploadedBy"`
	Uploader        *UserSummary    `json:"uploader"`
	Status          DocumentStatus  `json:"status"`
	IngestionStatus IngestionStatus `json:"ingestionStatus"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
