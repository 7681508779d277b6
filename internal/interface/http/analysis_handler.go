package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yanqian/adlens/internal/domain/analysis"
	apperrors "github.com/yanqian/adlens/pkg/errors"
)

// CreateAnalysis accepts a multipart image upload and runs the feedback pipeline.
func (h *Handler) CreateAnalysis(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return
	}
	fileHeader, err := c.FormFile("image")
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "image is required", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "failed to read upload", err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "upload_failed", "failed to read image", err))
		return
	}

	req := analysis.AnalyzeRequest{
		Filename:  fileHeader.Filename,
		MimeType:  fileHeader.Header.Get("Content-Type"),
		Image:     data,
		Prompt:    c.PostForm("prompt"),
		Platforms: parsePlatforms(c.PostFormArray("platforms")),
	}
	resp, err := h.analysisSvc.Analyze(c.Request.Context(), claims.UserID, req)
	if err != nil {
		abortWithError(c, analysisHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListAnalyses returns the user's history, newest first.
func (h *Handler) ListAnalyses(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return
	}
	items, err := h.analysisSvc.ListHistory(c.Request.Context(), claims.UserID)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "fetch_failed", errMessage(err), err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetAnalysis returns a single history item.
func (h *Handler) GetAnalysis(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid analysis id", err))
		return
	}
	item, err := h.analysisSvc.GetHistoryItem(c.Request.Context(), claims.UserID, id)
	if err != nil {
		status := http.StatusInternalServerError
		code := "fetch_failed"
		if apperrors.IsCode(err, "not_found") {
			status = http.StatusNotFound
			code = "not_found"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteAnalysis removes a history item owned by the user.
func (h *Handler) DeleteAnalysis(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid analysis id", err))
		return
	}
	if err := h.analysisSvc.DeleteHistoryItem(c.Request.Context(), claims.UserID, id); err != nil {
		status := http.StatusInternalServerError
		code := "delete_failed"
		if apperrors.IsCode(err, "not_found") {
			status = http.StatusNotFound
			code = "not_found"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}
	c.Status(http.StatusNoContent)
}

// GetQuota reports the user's remaining daily analyses.
func (h *Handler) GetQuota(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return
	}
	quota, err := h.analysisSvc.Quota(c.Request.Context(), claims.UserID)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "fetch_failed", errMessage(err), err))
		return
	}
	c.JSON(http.StatusOK, quota)
}

func analysisHTTPError(err error) *HTTPError {
	status := http.StatusInternalServerError
	code := "analysis_failed"
	switch {
	case apperrors.IsCode(err, "invalid_input"):
		status = http.StatusBadRequest
		code = "invalid_request"
	case apperrors.IsCode(err, "decode_error"):
		status = http.StatusBadRequest
		code = "decode_error"
	case apperrors.IsCode(err, "quota_exceeded"):
		status = http.StatusTooManyRequests
		code = "quota_exceeded"
	case apperrors.IsCode(err, "unauthorized"):
		status = http.StatusUnauthorized
		code = "unauthorized"
	case apperrors.IsCode(err, "llm_error"), apperrors.IsCode(err, "no_analysis"):
		status = http.StatusBadGateway
		code = apperrors.CodeOf(err)
	case apperrors.IsCode(err, "upload_failed"), apperrors.IsCode(err, "encode_error"), apperrors.IsCode(err, "storage_error"):
		code = apperrors.CodeOf(err)
	}
	return NewHTTPError(status, code, errMessage(err), err)
}

func parsePlatforms(raw []string) []string {
	var out []string
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
