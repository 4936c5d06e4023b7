package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/docmanager/internal/model"
)

// Read queries join the uploader so responses can carry its name and email.
// LEFT JOIN keeps documents whose uploader has been deleted.
const documentSelect = `SELECT d.id, d.title, d.description, d.file_url, d.file_type, d.file_size,
       d.uploaded_by, d.status, d.ingestion_status, d.created_at, d.updated_at,
       u.id, u.name, u.email
  FROM documents d
  LEFT JOIN users u ON u.id = d.uploaded_by`

// DocumentRepo persists document metadata in the `documents` table.
type DocumentRepo struct{ DB *sql.DB }

func NewDocumentRepo(db *sql.DB) *DocumentRepo { return &DocumentRepo{DB: db} }

// Create inserts d as given; defaults are applied by the caller.
func (r *DocumentRepo) Create(ctx context.Context, d model.Document) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO documents (id, title, description, file_url, file_type, file_size,
		 uploaded_by, status, ingestion_status, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		d.ID, d.Title, nullString(d.Description), d.FileURL, d.FileType, d.FileSize,
		d.UploadedBy, string(d.Status), string(d.IngestionStatus), d.CreatedAt, d.UpdatedAt)
	return err
}

// GetByID fetches one document with its uploader summary.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (model.Document, error) {
	row := r.DB.QueryRowContext(ctx, documentSelect+" WHERE d.id = ? LIMIT 1", id)
	return scanDocument(row)
}

// List returns all documents, newest first.
func (r *DocumentRepo) List(ctx context.Context) ([]model.Document, error) {
	rows, err := r.DB.QueryContext(ctx, documentSelect+" ORDER BY d.created_at DESC, d.id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus writes both status fields and updated_at in one statement
// and returns the fresh record.
func (r *DocumentRepo) UpdateStatus(ctx context.Context, id string, status model.DocumentStatus, ingestion model.IngestionStatus, at time.Time) (model.Document, error) {
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE documents SET status=?, ingestion_status=?, updated_at=? WHERE id=?",
		string(status), string(ingestion), at, id); err != nil {
		return model.Document{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes document id and returns the record as it was, so the
// caller can clean up the stored artifact.
func (r *DocumentRepo) Delete(ctx context.Context, id string) (model.Document, error) {
	d, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Document{}, err
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM documents WHERE id=?", id)
	if err != nil {
		return model.Document{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Document{}, err
	}
	if n == 0 {
		// Deleted concurrently between the read and the delete.
		return model.Document{}, ErrNotFound
	}
	return d, nil
}

func scanDocument(s rowScanner) (model.Document, error) {
	var (
		d                        model.Document
		description              sql.NullString
		status, ingestion        string
		uploaderID, uploaderName sql.NullString
		uploaderEmail            sql.NullString
	)
	err := s.Scan(&d.ID, &d.Title, &description, &d.FileURL, &d.FileType, &d.FileSize,
		&d.UploadedBy, &status, &ingestion, &d.CreatedAt, &d.UpdatedAt,
		&uploaderID, &uploaderName, &uploaderEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Document{}, ErrNotFound
		}
		return model.Document{}, err
	}
	d.Description = description.String
	d.Status = model.DocumentStatus(status)
	d.IngestionStatus = model.IngestionStatus(ingestion)
	if uploaderID.Valid {
		d.Uploader = &model.UserSummary{ID: uploaderID.String, Name: uploaderName.String, Email: uploaderEmail.String}
	}
	return d, nil
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
