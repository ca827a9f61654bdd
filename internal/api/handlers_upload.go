// handlers_upload.go - File upload operation handlers
package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/masrulmollah/DataAnalysis/internal/extract"
	"github.com/masrulmollah/DataAnalysis/internal/models"
	"github.com/masrulmollah/DataAnalysis/internal/upload"
)

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	sessions SessionManager
	uploads  *upload.Manager
	registry *extract.Registry
}

// NewUploadHandler creates a new upload handler instance
func NewUploadHandler(sessions SessionManager, uploads *upload.Manager, registry *extract.Registry) UploadHandler {
	return &UploadHandlerImpl{
		sessions: sessions,
		uploads:  uploads,
		registry: registry,
	}
}

// HandleUploadFile accepts a file as multipart/form-data and starts its
// analysis. The response is the session snapshot; the outcome arrives
// through the session state once extraction and analysis finish.
func (h *UploadHandlerImpl) HandleUploadFile(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}

	// Reject unsupported formats before the session is touched.
	if _, err := h.registry.Find(file.Filename); err != nil {
		return err
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return NewInternalError("failed to read uploaded file", err)
	}

	if err := h.sessions.StartAnalysis(id, file.Filename, data); err != nil {
		return err
	}

	sess, _ := h.sessions.Get(id)
	return c.JSON(http.StatusAccepted, sess)
}

// HandleInitUpload registers a chunked upload and returns its descriptor
func (h *UploadHandlerImpl) HandleInitUpload(c echo.Context) error {
	var req initUploadRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	// Reject unsupported formats before any chunk is transferred.
	if _, err := h.registry.Find(req.FileName); err != nil {
		return err
	}

	u, err := h.uploads.Init(req.FileName, req.FileSize, req.TotalChunks, req.Encoding)
	if err != nil {
		return NewBadRequestError("invalid upload parameters", err)
	}

	return c.JSON(http.StatusCreated, u)
}

// HandleUploadChunk accepts one raw chunk of a chunked upload
func (h *UploadHandlerImpl) HandleUploadChunk(c echo.Context) error {
	uploadID := c.Param("uploadId")
	if uploadID == "" {
		return NewValidationError("uploadId")
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return NewValidationError("index")
	}

	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return NewBadRequestError("failed to read chunk body", err)
	}

	received, err := h.uploads.PutChunk(uploadID, index, data)
	if err != nil {
		if errors.Is(err, upload.ErrUploadNotFound) {
			return err
		}
		return NewBadRequestError("failed to store chunk", err)
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"uploadId": uploadID,
		"received": received,
	})
}

// HandleCompleteUpload assembles a chunked upload and starts its analysis
func (h *UploadHandlerImpl) HandleCompleteUpload(c echo.Context) error {
	uploadID := c.Param("uploadId")
	if uploadID == "" {
		return NewValidationError("uploadId")
	}

	var req completeUploadRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	name, data, err := h.uploads.Complete(uploadID)
	if err != nil {
		var ingestion *models.IngestionError
		if errors.Is(err, upload.ErrUploadNotFound) || errors.As(err, &ingestion) {
			return err
		}
		return NewBadRequestError("cannot complete upload", err)
	}

	if err := h.sessions.StartAnalysis(req.SessionID, name, data); err != nil {
		return err
	}

	sess, _ := h.sessions.Get(req.SessionID)
	return c.JSON(http.StatusAccepted, sess)
}

type initUploadRequest struct {
	FileName    string `json:"fileName" validate:"required"`
	FileSize    int64  `json:"fileSize" validate:"gte=0"`
	TotalChunks int    `json:"totalChunks" validate:"required,min=1"`
	Encoding    string `json:"encoding" validate:"omitempty,oneof=gzip binary-gzip"`
}

type completeUploadRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
}
