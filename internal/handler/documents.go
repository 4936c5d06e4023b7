package handler

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/docmanager/internal/logging"
	"github.com/iliyamo/docmanager/internal/middleware"
	"github.com/iliyamo/docmanager/internal/service"
	"github.com/iliyamo/docmanager/internal/storage"
)

// DefaultMaxUploadBytes is the upload size limit when none is configured.
const DefaultMaxUploadBytes = 10 << 20

// uploadTimeout covers writing the file to the store as well as the insert.
const uploadTimeout = 60 * time.Second

// allowedExtensions lists the accepted upload types, compared lower-cased.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
}

// DocumentHandler serves the document endpoints.
type DocumentHandler struct {
	Docs     *service.DocumentService
	Files    storage.FileStore
	MaxBytes int64
	Log      logging.Logger
}

func NewDocumentHandler(docs *service.DocumentService, files storage.FileStore, maxBytes int64, log logging.Logger) *DocumentHandler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if log == nil {
		log = logging.Nop()
	}
	return &DocumentHandler{Docs: docs, Files: files, MaxBytes: maxBytes, Log: log}
}

// Upload handles POST /api/documents/upload.  The multipart form carries
// the file in field "document" plus "title" and an optional "description".
// When the record cannot be created the stored file is removed again.
func (h *DocumentHandler) Upload(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)

	fh, err := c.FormFile("document")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return message(c, http.StatusBadRequest, "No file uploaded")
		}
		var tooLarge *http.MaxBytesError
		var he *echo.HTTPError
		if errors.As(err, &tooLarge) || (errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge) {
			return message(c, http.StatusRequestEntityTooLarge, "File too large")
		}
		return message(c, http.StatusBadRequest, "Invalid multipart form")
	}
	if fh.Size > h.MaxBytes {
		return message(c, http.StatusRequestEntityTooLarge, "File too large")
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(fh.Filename))] {
		return message(c, http.StatusBadRequest, "Invalid file type")
	}

	src, err := fh.Open()
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid multipart form")
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(c.Request().Context(), uploadTimeout)
	defer cancel()

	stored, err := h.Files.Save(ctx, fh.Filename, src)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidName) {
			return message(c, http.StatusBadRequest, "Invalid file name")
		}
		h.Log.Error(ctx, "store upload failed", "file", fh.Filename, "err", err)
		return message(c, http.StatusInternalServerError, "Error uploading document")
	}

	d, err := h.Docs.Create(ctx, u, service.CreateDocumentInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		File:        stored,
	})
	if err != nil {
		if rmErr := h.Files.Remove(context.WithoutCancel(ctx), stored.Path); rmErr != nil {
			h.Log.Warn(ctx, "orphaned upload not removed", "path", stored.Path, "err", rmErr)
		}
		return writeError(c, err, "Document not found", "Error uploading document")
	}
	return c.JSON(http.StatusCreated, d)
}

// List handles GET /api/documents.
func (h *DocumentHandler) List(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	docs, err := h.Docs.List(ctx, u)
	if err != nil {
		return writeError(c, err, "Document not found", "Error fetching documents")
	}
	return c.JSON(http.StatusOK, docs)
}

// Get handles GET /api/documents/:id.
func (h *DocumentHandler) Get(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	d, err := h.Docs.Get(ctx, u, c.Param("id"))
	if err != nil {
		return writeError(c, err, "Document not found", "Error fetching document")
	}
	return c.JSON(http.StatusOK, d)
}

// UpdateStatus handles PATCH /api/documents/:id/status.
func (h *DocumentHandler) UpdateStatus(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	var req service.StatusInput
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	d, err := h.Docs.UpdateStatus(ctx, u, c.Param("id"), req)
	if err != nil {
		return writeError(c, err, "Document not found", "Error updating document status")
	}
	return c.JSON(http.StatusOK, d)
}

// Delete handles DELETE /api/documents/:id.
func (h *DocumentHandler) Delete(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Docs.Delete(ctx, u, c.Param("id")); err != nil {
		return writeError(c, err, "Document not found", "Error deleting document")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Document deleted successfully"})
}
