package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrirent/service-booking/internal/common/domain"
)

// ErrorBody is the error part of a failed response.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Success writes a 200 response with the data envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// Created writes a 201 response with the data envelope.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

// List writes a 200 response for an unpaginated collection.
func List(c *gin.Context, items interface{}, count int) {
	c.JSON(http.StatusOK, gin.H{"success": true, "count": count, "data": items})
}

// Paginated writes a 200 response with pagination metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
		"pagination": gin.H{
			"total":       total,
			"page":        page,
			"limit":       limit,
			"total_pages": totalPages,
		},
	})
}

// BadRequest writes a 400 validation error.
func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, string(domain.KindValidation), message)
}

// Unauthorized writes a 401 error.
func Unauthorized(c *gin.Context, message string) {
	abort(c, http.StatusUnauthorized, string(domain.KindUnauthorized), message)
}

// Forbidden writes a 403 error.
func Forbidden(c *gin.Context, message string) {
	abort(c, http.StatusForbidden, string(domain.KindForbidden), message)
}

// TooManyRequests writes a 429 error.
func TooManyRequests(c *gin.Context, message string) {
	abort(c, http.StatusTooManyRequests, "rate_limited", message)
}

// Error maps a domain error onto its HTTP status. Internal errors keep their message private.
func Error(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := StatusFor(kind)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		abort(c, status, "internal", "internal server error")
		return
	}
	abort(c, status, string(kind), err.Error())
}

// StatusFor returns the HTTP status for an error kind.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindValidation, domain.KindInvalidState:
		return http.StatusBadRequest
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   ErrorBody{Kind: kind, Message: message},
	})
}
