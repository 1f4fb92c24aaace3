package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/omarfadal/suuqpos-backend/pkg/errors"
	"github.com/omarfadal/suuqpos-backend/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var envelope types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "world", data["hello"])
}

func TestWriteErrorPassesThroughDomainMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeCreditLimit, "credit limit exceeded: limit 500, new balance would be 550").
		WithDetails(map[string]any{"credit_limit": "500"})
	WriteError(context.Background(), nil, rec, err)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, string(pkgerrors.CodeCreditLimit), envelope.Error.Code)
	assert.Contains(t, envelope.Error.Message, "limit 500")
	details, ok := envelope.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "500", details["credit_limit"])
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, errors.New("sql: driver bad connection at 10.0.0.1"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, string(pkgerrors.CodeInternal), envelope.Error.Code)
	assert.Equal(t, "internal server error", envelope.Error.Message)
	assert.NotContains(t, rec.Body.String(), "10.0.0.1")
}

func TestWriteErrorStatusByCode(t *testing.T) {
	cases := []struct {
		code   pkgerrors.Code
		status int
	}{
		{pkgerrors.CodeValidation, http.StatusBadRequest},
		{pkgerrors.CodeNotFound, http.StatusNotFound},
		{pkgerrors.CodeConflict, http.StatusConflict},
		{pkgerrors.CodeRemoteUnavailable, http.StatusServiceUnavailable},
		{pkgerrors.CodePersistence, http.StatusAccepted},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(context.Background(), nil, rec, pkgerrors.New(tc.code, "x"))
		assert.Equal(t, tc.status, rec.Code, string(tc.code))
	}
}
