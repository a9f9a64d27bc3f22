// internal/pkg/apperrors/errors_test.go
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusCode(BadRequest("bad")))
	assert.Equal(t, http.StatusUnauthorized, StatusCode(Unauthorized("nope")))
	assert.Equal(t, http.StatusNotFound, StatusCode(NotFound("missing")))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(errors.New("raw")))
}

func TestStatusCodeThroughWrapping(t *testing.T) {
	sentinel := NotFound("missing")
	wrapped := fmt.Errorf("loading thing: %w", sentinel)

	assert.Equal(t, http.StatusNotFound, StatusCode(wrapped))
	assert.Equal(t, "missing", PublicMessage(wrapped))
}

func TestPublicMessageHidesRawErrors(t *testing.T) {
	internal := Internal("Failed to load", errors.New("pq: connection refused"))

	assert.Equal(t, "Failed to load", PublicMessage(internal))
	assert.Contains(t, internal.Error(), "connection refused")
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("pq: connection refused")))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("db down")
	err := Internal("Failed", cause)

	assert.ErrorIs(t, err, cause)
}
