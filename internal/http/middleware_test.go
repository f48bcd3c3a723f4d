package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLoggerRecordsStatus(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	handler := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/assets", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/api/assets", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.EqualValues(t, 15, fields["bytes"])
}

func TestOptionalAuthFallsBackToAnonymous(t *testing.T) {
	s, _ := newTestServer(t)
	var seen string
	handler := OptionalAuth(s.Tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CurrentUserID(r)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/public/theft-reports", nil)
	req.Header.Set("Authorization", "Bearer broken")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Empty(t, seen)

	req.Header.Set("Authorization", "Bearer "+accessToken(t, s, ownerID, "user"))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, ownerID, seen)
}
