package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/lending/internal/models"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail represents detailed error information
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ListResponse represents a list response
type ListResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Meta    interface{} `json:"meta,omitempty"`
}

// ListMeta describes a list payload
type ListMeta struct {
	Total int `json:"total"`
}

// Error codes
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeConflict   = "CONFLICT_ERROR"
	CodeInternal   = "INTERNAL_ERROR"
)

// statusFor maps an error kind to its HTTP status and error code.
func statusFor(err error) (int, string) {
	switch models.KindOf(err) {
	case models.KindValidation:
		return http.StatusBadRequest, CodeValidation
	case models.KindNotFound:
		return http.StatusNotFound, CodeNotFound
	case models.KindConflict:
		return http.StatusConflict, CodeConflict
	}
	return http.StatusInternalServerError, CodeInternal
}

// respondError writes err in the error envelope. Internal failures are
// reported with fallback instead of their message.
func respondError(c *gin.Context, err error, fallback string) {
	status, code := statusFor(err)

	detail := ErrorDetail{Code: code, Message: err.Error()}
	if status >= http.StatusInternalServerError {
		detail.Message = fallback
		_ = c.Error(err)
	}

	var ve *models.ValidationError
	if errors.As(err, &ve) {
		detail.Details = gin.H{"field": ve.Field}
	}

	c.JSON(status, ErrorResponse{
		Success: false,
		Error:   detail,
	})
}

// respondBindError reports a malformed request body or query string
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    CodeValidation,
			Message: "Invalid request data",
			Details: err.Error(),
		},
	})
}

// respondList writes items with their count
func respondList[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, ListResponse{
		Success: true,
		Data:    items,
		Meta:    ListMeta{Total: len(items)},
	})
}

// parseID reads a positive int32 path parameter. It writes a 400 and
// reports false when the parameter is malformed.
func parseID(c *gin.Context, param, resource string) (int32, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 32)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error: ErrorDetail{
				Code:    CodeValidation,
				Message: "Invalid " + resource + " ID",
			},
		})
		return 0, false
	}
	return int32(id), true
}
