package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func record(t *testing.T, fn func(c echo.Context) error) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, fn(c))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestOKEnvelope(t *testing.T) {
	rec, body := record(t, func(c echo.Context) error {
		return OK(c, echo.Map{"value": 42})
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(200), body["statusCode"])
	assert.NotNil(t, body["data"])
	_, hasMessage := body["message"]
	assert.False(t, hasMessage)
}

func TestRespondTaxonomy(t *testing.T) {
	cases := []struct {
		err     error
		code    int
		message string
	}{
		{Validation("bad %s", "field"), http.StatusBadRequest, "bad field"},
		{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{ErrForbidden, http.StatusForbidden, "forbidden"},
		{NotFound("user"), http.StatusNotFound, "user not found"},
		{AlreadyExists("login already registered"), http.StatusConflict, "login already registered"},
	}

	for _, tc := range cases {
		rec, body := record(t, func(c echo.Context) error {
			return Respond(c, tc.err)
		})
		assert.Equal(t, tc.code, rec.Code)
		assert.Equal(t, float64(tc.code), body["statusCode"])
		assert.Equal(t, tc.message, body["message"])
		_, hasData := body["data"]
		assert.False(t, hasData)
	}
}

func TestRespondWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("service: %w", NotFound("formation"))
	rec, body := record(t, func(c echo.Context) error {
		return Respond(c, wrapped)
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "formation not found", body["message"])
}

func TestRespondUnknownErrorIsOpaqueButLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	rec, body := record(t, func(c echo.Context) error {
		return Respond(c, errors.New("connection reset by peer"))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", body["message"], "internal detail never leaks")

	// The original cause lands in the logs, not in the envelope.
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "request failed", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "connection reset by peer", fields["error"])
}

func TestRespondTaxonomyErrorsAreNotLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	_, _ = record(t, func(c echo.Context) error {
		return Respond(c, NotFound("user"))
	})
	assert.Zero(t, logs.Len())
}
