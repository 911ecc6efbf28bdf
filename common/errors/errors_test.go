package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_MessageIncludesCause(t *testing.T) {
	err := Internal("Error retrieving products", stderrors.New("socket closed"))

	assert.Equal(t, "Error retrieving products: socket closed", err.Error())
	assert.Equal(t, http.StatusInternalServerError, err.Code)
	assert.JSONEq(t, `{"code":500,"message":"Error retrieving products"}`, err.JSON())
}

func TestAs_WrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("update: %w", NotFound("missing"))

	appErr := As(wrapped)
	assert.Equal(t, http.StatusNotFound, appErr.Code)
	assert.Equal(t, "missing", appErr.Message)
	assert.True(t, Is(wrapped, http.StatusNotFound))
	assert.False(t, Is(wrapped, http.StatusBadRequest))
}

func TestAs_PlainErrorIsInternal(t *testing.T) {
	cause := stderrors.New("boom")

	appErr := As(cause)
	assert.Equal(t, http.StatusInternalServerError, appErr.Code)
	assert.ErrorIs(t, appErr, cause)
}
