package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeForbidden, CodeOf(Forbidden("nope")))
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
	assert.Equal(t, Code(""), CodeOf(nil))

	wrapped := fmt.Errorf("handler: %w", NotFound("room %s not found", "r1"))
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
}

func TestAlreadyExistsCarriesRef(t *testing.T) {
	err := AlreadyExists("room-42", "a DM with these members already exists")
	assert.Equal(t, CodeAlreadyExists, CodeOf(err))
	assert.Equal(t, "room-42", RefOf(err))
	assert.Contains(t, err.Error(), "room-42")
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(CodeNotFound))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(CodeForbidden))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(CodeInvariant))
	assert.Equal(t, http.StatusOK, HTTPStatus(CodeAlreadyExists))
	assert.Equal(t, http.StatusFailedDependency, HTTPStatus(CodeDependency))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus("unknown"))
}
