package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/civicreport/api/internal/auth"
	"github.com/civicreport/api/internal/config"
	"github.com/civicreport/api/internal/database"
	"github.com/civicreport/api/internal/model"
	"github.com/civicreport/api/internal/notification"
	"github.com/civicreport/api/internal/session"
	"github.com/civicreport/api/internal/store"
	"github.com/civicreport/api/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
	validator.RegisterBindings()
}

type testEnv struct {
	store    *store.Store
	registry *notification.Registry
	sessions *session.Manager
	router   *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{
		DatabaseDriver: "sqlite",
		DatabaseURL:    filepath.Join(t.TempDir(), "handler.db"),
	}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	_, err = database.SeedDefaults(db)
	require.NoError(t, err)

	s, err := store.New(db)
	require.NoError(t, err)

	registry := notification.NewRegistry(notification.NewMemoryStore())
	sessions := session.NewManager(registry)

	return &testEnv{
		store:    s,
		registry: registry,
		sessions: sessions,
		router: NewRouter(Deps{
			Store:       s,
			Sessions:    sessions,
			Notifier:    NewNotifier(registry, nil),
			JWTSecret:   testSecret,
			FrontendURL: "http://localhost:3000",
		}),
	}
}

// createUser inserts an account directly and returns it.
func (e *testEnv) createUser(t *testing.T, name, email, password, role string) *model.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u, err := e.store.Users.Insert(context.Background(), &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Provider:     model.ProviderLocal,
		Role:         role,
	})
	require.NoError(t, err)
	return u
}

// login signs in through the API and returns the access token and session id.
func (e *testEnv) login(t *testing.T, email, password, role string) (string, string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": email, "password": password, "role": role,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.AccessToken, resp.Session.ID
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func (e *testEnv) feed(t *testing.T, email string) notification.View {
	t.Helper()
	f, err := e.registry.Open(context.Background(), email)
	require.NoError(t, err)
	defer e.registry.Release(email)
	return f.View()
}
