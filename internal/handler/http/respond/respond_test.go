package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

/* ───────── JSON ───────── */

func TestJSON(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		data     any
		wantBody string
	}{
		{name: "map", code: http.StatusOK, data: map[string]string{"status": "ok"}, wantBody: `{"status":"ok"}` + "\n"},
		{name: "struct", code: http.StatusCreated, data: struct {
			ID int64 `json:"id"`
		}{ID: 7}, wantBody: `{"id":7}` + "\n"},
		{name: "nil body", code: http.StatusNoContent, data: nil, wantBody: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			JSON(rec, tt.code, tt.data)

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestJSON_EncodingError(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, math.Inf(1))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusConflict, errors.New("raw message"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "raw message", decodeError(t, rec))
}

/* ───────── SafeError ───────── */

func TestSafeError(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		err     error
		wantMsg string
	}{
		{name: "required", code: http.StatusBadRequest, err: errors.New("text is required"), wantMsg: "text is required"},
		{name: "invalid", code: http.StatusBadRequest, err: errors.New("invalid summary_style"), wantMsg: "invalid summary_style"},
		{name: "not found", code: http.StatusNotFound, err: errors.New("summary not found"), wantMsg: "summary not found"},
		{name: "too long", code: http.StatusBadRequest, err: errors.New("text is too long"), wantMsg: "text is too long"},
		{name: "unrecognised 4xx", code: http.StatusUnauthorized, err: errors.New("token expired at 12:00"), wantMsg: "unauthorized"},
		{name: "5xx with safe words", code: http.StatusInternalServerError, err: errors.New("invalid connection state"), wantMsg: "internal server error"},
		{name: "5xx with secret", code: http.StatusBadGateway, err: fmt.Errorf("call: sk-1234567890abcdef"), wantMsg: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			SafeError(rec, tt.code, tt.err)

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.wantMsg, decodeError(t, rec))
		})
	}
}

func TestSafeError_Nil(t *testing.T) {
	rec := httptest.NewRecorder()
	SafeError(rec, http.StatusBadRequest, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

/* ───────── AppError / Fail ───────── */

func TestAppError(t *testing.T) {
	cause := errors.New("load failed")
	appErr := NewAppError(http.StatusBadGateway, "model unavailable", cause)

	assert.Equal(t, "load failed", appErr.Error())
	assert.ErrorIs(t, appErr, cause)
	assert.Equal(t, "model unavailable", NewAppError(http.StatusBadRequest, "model unavailable", nil).Error())
}

func TestFail(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "app error decides status",
			code:     http.StatusInternalServerError,
			err:      NewAppError(http.StatusBadGateway, "model unavailable", errors.New("dial grpc: refused")),
			wantCode: http.StatusBadGateway,
			wantMsg:  "model unavailable",
		},
		{
			name:     "wrapped app error",
			code:     http.StatusInternalServerError,
			err:      fmt.Errorf("summarize: %w", NewAppError(http.StatusGatewayTimeout, "request timed out", nil)),
			wantCode: http.StatusGatewayTimeout,
			wantMsg:  "request timed out",
		},
		{
			name:     "plain error falls back",
			code:     http.StatusBadRequest,
			err:      errors.New("question is required"),
			wantCode: http.StatusBadRequest,
			wantMsg:  "question is required",
		},
		{
			name:     "plain internal error",
			code:     http.StatusInternalServerError,
			err:      errors.New("pq: relation missing"),
			wantCode: http.StatusInternalServerError,
			wantMsg:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Fail(rec, tt.code, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantMsg, decodeError(t, rec))
		})
	}
}
