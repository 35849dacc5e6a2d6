package middleware

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"matatu_manager/internal/apperr"
)

type errorDetails struct {
	Path      string `json:"path"`
	RequestID string `json:"request_id,omitempty"`
}

type errorItem struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status    string       `json:"status"`
	Code      int          `json:"code"`
	Message   string       `json:"message"`
	Details   errorDetails `json:"details"`
	Errors    []errorItem  `json:"errors"`
	Timestamp string       `json:"timestamp"`
}

// NewErrorResponse builds the envelope for err. Server side failures are
// logged; untyped ones are answered with a generic message.
func NewErrorResponse(c *gin.Context, err error) (int, ErrorResponse) {
	code := apperr.HTTPStatus(err)
	msg := err.Error()

	var internal apperr.InternalError
	if code >= 500 {
		logrus.WithError(err).WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString(ctxRequestID),
		}).Error("request failed")
		if !errors.As(err, &internal) {
			msg = "Internal server error"
		}
	}

	return code, ErrorResponse{
		Status:  "error",
		Code:    code,
		Message: msg,
		Details: errorDetails{
			Path:      c.Request.URL.Path,
			RequestID: c.GetString(ctxRequestID),
		},
		Errors:    []errorItem{{Type: apperr.TypeOf(err), Message: msg}},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// AbortWithError writes the error envelope and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	code, body := NewErrorResponse(c, err)
	c.AbortWithStatusJSON(code, body)
}
