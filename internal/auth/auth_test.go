package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/civicreport/api/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	user := &model.User{ID: 42, Name: "Jane", Email: "jane@example.com", Role: model.RoleStaff}

	token, err := GenerateAccessToken(user, "sess-1", testSecret)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, model.RoleStaff, claims.Role)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "civicreport", claims.Issuer)
}

func TestValidateAccessTokenRejects(t *testing.T) {
	user := &model.User{ID: 1, Email: "a@example.com", Role: model.RoleCitizen}
	token, err := GenerateAccessToken(user, "s", testSecret)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "other-secret")
	assert.Error(t, err)

	_, err = ValidateAccessToken("garbage", testSecret)
	assert.Error(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			Issuer:    issuer,
		},
	})
	signed, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = ValidateAccessToken(signed, testSecret)
	assert.Error(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:           1,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
	})
	signed, err = foreign.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = ValidateAccessToken(signed, testSecret)
	assert.Error(t, err)
}

func TestRefreshTokensAreRandom(t *testing.T) {
	a, err := GenerateRefreshToken()
	require.NoError(t, err)
	b, err := GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 44)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	assert.NoError(t, CheckPassword(hash, "secret1"))
	assert.ErrorIs(t, CheckPassword(hash, "secret2"), ErrInvalidCredentials)
	assert.ErrorIs(t, CheckPassword("", "secret1"), ErrInvalidCredentials)
}

func TestPolicy(t *testing.T) {
	tests := []struct {
		role   string
		action Action
		want   bool
	}{
		{model.RoleCitizen, ActionSubmitReport, true},
		{model.RoleCitizen, ActionTrackReports, true},
		{model.RoleCitizen, ActionViewDashboard, false},
		{model.RoleCitizen, ActionExport, false},
		{model.RoleStaff, ActionUpdateReport, true},
		{model.RoleStaff, ActionExport, true},
		{model.RoleStaff, ActionDeleteReport, false},
		{model.RoleStaff, ActionManageUsers, false},
		{model.RoleStaff, ActionBackup, false},
		{model.RoleAdmin, ActionDeleteReport, true},
		{model.RoleAdmin, ActionManageUsers, true},
		{model.RoleAdmin, ActionManageCategories, true},
		{model.RoleAdmin, ActionBackup, true},
		{"", ActionSubmitReport, false},
		{model.RoleAdmin, Action("launch_rockets"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Allowed(tt.role, tt.action), "%s %s", tt.role, tt.action)
	}

	assert.ErrorIs(t, Authorize(model.RoleCitizen, ActionBackup), ErrForbidden)
	assert.NoError(t, Authorize(model.RoleAdmin, ActionBackup))
}

func TestFetchUserInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"123","email":"jane@example.com","verified_email":true,"name":"Jane"}`))
	}))
	defer srv.Close()

	info, err := fetchUserInfo(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "123", info.ID)
	assert.Equal(t, "jane@example.com", info.Email)
	assert.True(t, info.VerifiedEmail)
}

func TestFetchUserInfoErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/noemail":
			w.Write([]byte(`{"id":"1"}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	_, err := fetchUserInfo(context.Background(), srv.Client(), srv.URL+"/denied")
	assert.Error(t, err)

	_, err = fetchUserInfo(context.Background(), srv.Client(), srv.URL+"/noemail")
	assert.Error(t, err)
}

func TestNewGoogleConfig(t *testing.T) {
	cfg := NewGoogleConfig("id", "secret", "http://localhost/cb")
	assert.Equal(t, "id", cfg.ClientID)
	assert.Contains(t, cfg.Scopes, "email")
	assert.Contains(t, cfg.Endpoint.AuthURL, "google")
}
