package http

import (
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sjohnston82/tome-tracker1/internal/auth"
	"github.com/sjohnston82/tome-tracker1/internal/metadata"
	"github.com/sjohnston82/tome-tracker1/internal/offline"
	"github.com/sjohnston82/tome-tracker1/internal/services"
)

// Machine-readable error codes.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeDuplicateISBN      = "DUPLICATE_ISBN"
	CodeNotFound           = "NOT_FOUND"
	CodeRateLimited        = "RATE_LIMITED"
	CodeOfflineUnavailable = "OFFLINE_UNAVAILABLE"
	CodeEnrichmentRunning  = "ENRICHMENT_RUNNING"
	CodeInternal           = "INTERNAL_ERROR"
)

// GetUserID extracts the authenticated user's ID from the Gin context.
func GetUserID(c *gin.Context) string {
	return auth.GetUserID(c)
}

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: CodeValidation})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: CodeNotFound})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: CodeInternal})
}

// respondRateLimited sends a 429 with a Retry-After header in whole seconds.
func respondRateLimited(c *gin.Context, message string, retryAfterSeconds int) {
	c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
	c.JSON(http.StatusTooManyRequests, ErrorResponse{
		Error:   message,
		Code:    CodeRateLimited,
		Details: gin.H{"retry_after": retryAfterSeconds},
	})
}

// respondServiceError maps a service error to its status code and response.
// resource names the entity for 404s; context labels logged 500s.
func respondServiceError(c *gin.Context, err error, resource, context string) {
	var validation *services.ValidationError
	var duplicate *services.DuplicateIdentifierError
	var limited *services.RateLimitedError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   validation.Error(),
			Code:    CodeValidation,
			Details: gin.H{"field": validation.Field},
		})
	case errors.As(err, &duplicate):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "a book with this ISBN already exists",
			Code:    CodeDuplicateISBN,
			Details: gin.H{"existing_book_id": duplicate.ExistingBookID, "isbn13": duplicate.ISBN13},
		})
	case errors.Is(err, services.ErrNotFound):
		respondNotFound(c, resource)
	case errors.As(err, &limited):
		message := limited.Message
		if message == "" {
			message = limited.Error()
		}
		respondRateLimited(c, message, retryAfterSeconds(limited.RetryAfter.Seconds()))
	case errors.Is(err, metadata.ErrEnrichmentRunning):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: CodeEnrichmentRunning})
	case errors.Is(err, offline.ErrOfflineUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error(), Code: CodeOfflineUnavailable})
	default:
		respondInternalError(c, err, context)
	}
}

// retryAfterSeconds rounds up so clients never retry before the window resets.
func retryAfterSeconds(seconds float64) int {
	return max(int(math.Ceil(seconds)), 1)
}

// --- Success Response Helpers ---

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, data)
}

// bindJSON decodes and validates the request body or responds with a 400.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var validation *services.ValidationError
		if errors.As(err, &validation) {
			respondServiceError(c, err, "", "bind request")
			return false
		}
		respondBadRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// requestValidator makes gin binding check validate tags with the same
// validator the services use.
type requestValidator struct{}

func (requestValidator) ValidateStruct(obj any) error {
	return services.ValidateStruct(obj)
}

func (requestValidator) Engine() any {
	return services.Validator()
}
