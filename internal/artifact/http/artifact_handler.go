// Package http provides HTTP handlers for secure artifact operations.
// Artifacts are sniffed, encrypted and stored under their content hash.
package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/billvault/internal/artifact/http/dto"
	artifactUseCase "github.com/allisson/billvault/internal/artifact/usecase"
	credentialHTTP "github.com/allisson/billvault/internal/credential/http"
	apperrors "github.com/allisson/billvault/internal/errors"
	"github.com/allisson/billvault/internal/httputil"
)

// FileField is the multipart form field carrying the uploaded file.
const FileField = "file"

// ArtifactHandler handles HTTP requests for artifact operations.
type ArtifactHandler struct {
	store        artifactUseCase.StoreUseCase
	maxSizeBytes int64
	logger       *slog.Logger
}

// NewArtifactHandler creates a new artifact handler. Request bodies larger
// than maxSizeBytes are rejected before they reach the store.
func NewArtifactHandler(
	store artifactUseCase.StoreUseCase,
	maxSizeBytes int64,
	logger *slog.Logger,
) *ArtifactHandler {
	return &ArtifactHandler{
		store:        store,
		maxSizeBytes: maxSizeBytes,
		logger:       logger,
	}
}

// SubmitHandler accepts a multipart upload and stores it.
// POST /v1/artifacts - Requires API-key authentication.
// Returns 201 Created with the storage name and metadata.
func (h *ArtifactHandler) SubmitHandler(c *gin.Context) {
	ownerID, ok := credentialHTTP.GetPrincipalID(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	if c.Request.ContentLength > h.maxSizeBytes {
		httputil.HandlePayloadTooLargeGin(c, h.maxSizeBytes, h.logger)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSizeBytes)

	header, err := c.FormFile(FileField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httputil.HandlePayloadTooLargeGin(c, h.maxSizeBytes, h.logger)
			return
		}
		httputil.HandleBadRequestGin(c, fmt.Errorf("multipart field %q is required", FileField), h.logger)
		return
	}

	file, err := header.Open()
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("failed to read upload"), h.logger)
		return
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(file, h.maxSizeBytes+1))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("failed to read upload"), h.logger)
		return
	}
	if int64(len(data)) > h.maxSizeBytes {
		httputil.HandlePayloadTooLargeGin(c, h.maxSizeBytes, h.logger)
		return
	}

	artifact, err := h.store.Submit(c.Request.Context(), data, header.Filename, ownerID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapStoredArtifactToResponse(artifact))
}

// RetrieveHandler returns the decrypted content of an artifact.
// GET /v1/artifacts/:name - Requires API-key authentication.
// Returns 200 OK with the raw bytes and the allow-listed content type.
func (h *ArtifactHandler) RetrieveHandler(c *gin.Context) {
	requesterID, ok := credentialHTTP.GetPrincipalID(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	artifact, err := h.store.Retrieve(c.Request.Context(), c.Param("name"), requesterID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Name))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, artifact.ContentType.MIME, artifact.Data)
}

// PurgeHandler deletes an artifact.
// DELETE /v1/artifacts/:name - Requires API-key authentication.
// Returns 204 No Content.
func (h *ArtifactHandler) PurgeHandler(c *gin.Context) {
	requesterID, ok := credentialHTTP.GetPrincipalID(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	if err := h.store.Purge(c.Request.Context(), c.Param("name"), requesterID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}
