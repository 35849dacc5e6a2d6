package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError(t *testing.T) {
	err := NotFound("vehicle")
	assert.Equal(t, "Vehicle not found", err.Error())
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "vehicle_not_found", TypeOf(err))

	wrapped := fmt.Errorf("loading report: %w", err)
	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, "vehicle_not_found", TypeOf(wrapped))
}

func TestValidationErrorType(t *testing.T) {
	err := Validation("invalid_date_format", "start_date must be YYYY-MM-DD")
	assert.True(t, IsValidation(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, "invalid_date_format", TypeOf(err))
	assert.Equal(t, "start_date must be YYYY-MM-DD", err.Error())

	assert.Equal(t, "validation_error", ValidationError{Field: "rating"}.Type())
	assert.Equal(t, "invalid rating", ValidationError{Field: "rating"}.Error())
}

func TestInternalErrorKeepsUpstreamMessage(t *testing.T) {
	upstream := errors.New("connection refused")
	err := Internal("failed to load trips", upstream)
	assert.Equal(t, "failed to load trips: connection refused", err.Error())
	assert.ErrorIs(t, err, upstream)
	assert.Equal(t, "internal_error", TypeOf(err))
}

func TestTypeOfPlainError(t *testing.T) {
	assert.Equal(t, "internal_error", TypeOf(errors.New("boom")))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ValidationError{Kind: "invalid_date_range"}, http.StatusBadRequest},
		{UnauthorizedError{}, http.StatusUnauthorized},
		{ForbiddenError{}, http.StatusForbidden},
		{fmt.Errorf("wrapped: %w", NotFound("vehicle")), http.StatusNotFound},
		{ConflictError{Resource: "trip"}, http.StatusConflict},
		{Internal("boom", nil), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}
