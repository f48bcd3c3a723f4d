package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"keep-backend-go/internal/config"
	"keep-backend-go/internal/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerID = "11111111-1111-1111-1111-111111111111"
	otherID = "22222222-2222-2222-2222-222222222222"
	assetID = "aaaaaaaa-0000-4000-8000-000000000001"
)

func newTestServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db := sqlx.NewDb(mockDB, "pgx")
	inv, err := services.NewInventory(db, nil, services.InventoryOptions{Hub: services.NewTheftHub(nil)})
	require.NoError(t, err)
	cfg := config.Config{
		JWTSecret:         "test-secret",
		JWTIssuer:         "keep-test",
		AccessTTLSeconds:  900,
		RefreshTTLSeconds: 3600,
		PublicBaseURL:     "https://keep.example",
	}
	return NewServer(db, cfg, inv, nil), mock
}

func accessToken(t *testing.T, s *Server, userID, role string) string {
	t.Helper()
	token, _, err := s.Tokens.CreateAccessToken(userID, userID+"@example.com", role)
	require.NoError(t, err)
	return token
}

func do(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func expectAsset(mock sqlmock.Sqlmock, owner string) {
	mock.ExpectQuery(regexp.QuoteMeta(`FROM assets WHERE id = $1`)).
		WithArgs(assetID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status", "condition", "owner_id", "metadata", "qr_code"}).
			AddRow(assetID, "Road bike", "available", "good", owner, []byte(`{"frame":"M"}`), "qr-token"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/api/assets", "/api/me", "/api/theft-reports", "/api/dashboard/stats"} {
		rec := do(t, s, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := do(t, s, http.MethodGet, "/api/assets", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshTokenCannotAuthenticate(t *testing.T) {
	s, _ := newTestServer(t)
	refresh, err := s.Tokens.CreateRefreshToken(ownerID)
	require.NoError(t, err)

	rec := do(t, s, http.MethodGet, "/api/assets", refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForeignAssetIsAccessDenied(t *testing.T) {
	s, mock := newTestServer(t)
	expectAsset(mock, ownerID)

	rec := do(t, s, http.MethodGet, "/api/assets/"+assetID, accessToken(t, s, otherID, "user"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Access denied", body.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOwnerReadsAsset(t *testing.T) {
	s, mock := newTestServer(t)
	expectAsset(mock, ownerID)

	rec := do(t, s, http.MethodGet, "/api/assets/"+assetID, accessToken(t, s, ownerID, "user"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body AssetDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, assetID, body.ID)
	assert.Equal(t, ownerID, body.OwnerID)
	assert.JSONEq(t, `{"frame":"M"}`, string(body.Metadata))
}

func TestAssetQRCodeIsPNG(t *testing.T) {
	s, mock := newTestServer(t)
	expectAsset(mock, ownerID)

	rec := do(t, s, http.MethodGet, "/api/assets/"+assetID+"/qr", accessToken(t, s, ownerID, "user"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
	assert.Equal(t, "https://keep.example/found/qr-token", s.finderURL("qr-token"))
}

func TestPublicAssetExposesOnlyFinderFields(t *testing.T) {
	s, mock := newTestServer(t)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE a.qr_code = $1`)).
		WithArgs("qr-token").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "category"}).AddRow(assetID, "Road bike", "Vehicles"))

	rec := do(t, s, http.MethodGet, "/api/public/assets/qr-token", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body, 3)
	assert.Equal(t, assetID, body["id"])
	assert.Equal(t, "Road bike", body["name"])
	assert.Equal(t, "Vehicles", body["category"])
}

func TestRegisterValidationReportsFields(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "nope", "password": "short"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Fields, "email")
	assert.Contains(t, body.Fields, "password")
}

func TestInvalidPayloadRejected(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminStatusRequiresAdminRole(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/admin/status", accessToken(t, s, ownerID, "user"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTheftSocketRequiresToken(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/ws/theft-reports", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodGet, "/ws/theft-reports?token=garbage", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckOrigin(t *testing.T) {
	s, _ := newTestServer(t)
	s.Config.CorsOrigins = []string{"https://app.keep.example"}

	req := httptest.NewRequest(http.MethodGet, "/ws/theft-reports", nil)
	req.Header.Set("Origin", "https://app.keep.example")
	assert.True(t, s.checkOrigin(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, s.checkOrigin(req))
}
