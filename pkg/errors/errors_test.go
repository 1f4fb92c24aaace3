package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	err := New(CodeCreditLimit, "limit exceeded")
	assert.Equal(t, CodeCreditLimit, CodeOf(err))

	wrapped := fmt.Errorf("completing sale: %w", err)
	assert.Equal(t, CodeCreditLimit, CodeOf(wrapped))

	assert.Equal(t, CodeInternal, CodeOf(stdErrors.New("plain")))
	assert.Equal(t, CodeInternal, CodeOf(nil))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("disk full")
	err := Wrap(CodePersistence, cause, "persisting entry")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodePersistence, err.Code())
	assert.Contains(t, err.Error(), "persisting entry")

	nilWrap := Wrap(CodeInternal, nil, "no cause")
	require.NotNil(t, nilWrap)
	assert.NoError(t, nilWrap.Unwrap())
}

func TestMetadataFor(t *testing.T) {
	meta := MetadataFor(CodeCreditLimit)
	assert.Equal(t, http.StatusUnprocessableEntity, meta.HTTPStatus)
	assert.False(t, meta.Retryable)

	meta = MetadataFor(CodeRemoteUnavailable)
	assert.Equal(t, http.StatusServiceUnavailable, meta.HTTPStatus)
	assert.True(t, meta.Retryable)

	// Already-applied maps to OK; the sync loop treats it as success.
	meta = MetadataFor(CodeAlreadyApplied)
	assert.Equal(t, http.StatusOK, meta.HTTPStatus)

	meta = MetadataFor(Code("UNKNOWN"))
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(CodeRemoteUnavailable, "down")))
	assert.True(t, IsRetryable(New(CodePersistence, "degraded")))
	assert.False(t, IsRetryable(New(CodeConflict, "duplicate")))
	assert.False(t, IsRetryable(New(CodeValidation, "bad input")))
}

func TestWithDetails(t *testing.T) {
	err := New(CodeCreditLimit, "limit exceeded").WithDetails(map[string]any{
		"credit_limit": "500",
	})
	details, ok := err.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "500", details["credit_limit"])
}
