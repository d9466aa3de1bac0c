package oauth

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/davecheney/doorman/internal/httpx"
	"github.com/davecheney/doorman/internal/secret"
	"github.com/davecheney/doorman/internal/snowflake"
	"github.com/davecheney/doorman/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-json-experiment/json"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestEnv(t *testing.T) *models.Env {
	t.Helper()
	require := require.New(t)

	// one database per test, so tests do not observe each other's rows
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	require.NoError(err)
	require.NoError(db.AutoMigrate(models.AllTables()...))
	require.NoError(db.Exec("PRAGMA foreign_keys = ON").Error)

	verifier, err := secret.NewVerifier("sha256", "")
	require.NoError(err)

	return &models.Env{
		DB:     db,
		Config: models.Config{Secret: verifier},
		Logger: slog.New(slog.NewTextHandler(io.Discard)),
	}
}

func router(env *models.Env) http.Handler {
	envFn := func(r *http.Request) *models.Env { return env }
	c := chi.NewRouter()
	c.Route("/api/v1/apps", func(r chi.Router) {
		r.Post("/", httpx.HandlerFunc(envFn, AppsCreate))
		r.Get("/", httpx.HandlerFunc(envFn, AppsIndex))
		r.Get("/verify_credentials", httpx.HandlerFunc(envFn, AppsVerifyCredentials))
		r.Delete("/{id:[0-9]+}", httpx.HandlerFunc(envFn, AppsDestroy))
	})
	c.Route("/oauth/authorized_applications", func(r chi.Router) {
		r.Get("/", httpx.HandlerFunc(envFn, AuthorizedAppsIndex))
		r.Delete("/{id:[0-9]+}", httpx.HandlerFunc(envFn, AuthorizedAppsDestroy))
	})
	return c
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.UnmarshalFull(w.Body, &v))
	return v
}

func TestAppsCreate(t *testing.T) {
	t.Run("registers a client and shows the secret once", func(t *testing.T) {
		require := require.New(t)
		env := setupTestEnv(t)
		h := router(env)

		w := postJSON(t, h, "/api/v1/apps", `{
			"client_name": "frontier",
			"redirect_uris": ["https://frontier.example.com/callback"],
			"confidential": true
		}`)
		require.Equal(http.StatusOK, w.Code)

		app := decode[Application](t, w)
		require.NotEmpty(app.ClientID)
		require.NotEmpty(app.ClientSecret)
		require.Equal([]string{"https://frontier.example.com/callback"}, app.RedirectURIs)

		// the secret is not shown on later reads
		w = httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/apps", nil))
		require.Equal(http.StatusOK, w.Code)
		apps := decode[[]Application](t, w)
		require.Len(apps, 1)
		require.Empty(apps[0].ClientSecret)
	})

	t.Run("invalid params are a 422 naming the fields", func(t *testing.T) {
		require := require.New(t)
		env := setupTestEnv(t)
		h := router(env)

		w := postJSON(t, h, "/api/v1/apps", `{"client_name": "incomplete"}`)
		require.Equal(http.StatusUnprocessableEntity, w.Code)
		body := w.Body.String()
		require.Contains(body, "confidential")
		require.Contains(body, "redirect_uri")
	})
}

func TestAppsVerifyCredentials(t *testing.T) {
	require := require.New(t)
	env := setupTestEnv(t)
	h := router(env)

	w := postJSON(t, h, "/api/v1/apps", `{
		"client_name": "checker",
		"redirect_uris": ["https://checker.example.com/callback"],
		"confidential": true
	}`)
	require.Equal(http.StatusOK, w.Code)
	app := decode[Application](t, w)

	req := httptest.NewRequest("GET", "/api/v1/apps/verify_credentials", nil)
	req.SetBasicAuth(app.ClientID, app.ClientSecret)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(http.StatusOK, w.Code)
	got := decode[Application](t, w)
	require.Equal(app.ClientID, got.ClientID)
	require.Empty(got.ClientSecret)

	// a wrong secret and an unknown client look the same
	req = httptest.NewRequest("GET", "/api/v1/apps/verify_credentials", nil)
	req.SetBasicAuth(app.ClientID, "wrong")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest("GET", "/api/v1/apps/verify_credentials", nil)
	req.SetBasicAuth("unknown", "wrong")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(http.StatusUnauthorized, w.Code)
}

func TestAppsDestroy(t *testing.T) {
	require := require.New(t)
	env := setupTestEnv(t)
	h := router(env)

	w := postJSON(t, h, "/api/v1/apps", `{
		"client_name": "doomed",
		"redirect_uris": ["https://doomed.example.com/callback"],
		"confidential": true
	}`)
	require.Equal(http.StatusOK, w.Code)
	app := decode[Application](t, w)

	req := httptest.NewRequest("DELETE", "/api/v1/apps/"+app.ID, nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/apps", nil))
	apps := decode[[]Application](t, w)
	require.Empty(apps)
}

func TestAuthorizedApplications(t *testing.T) {
	require := require.New(t)
	env := setupTestEnv(t)
	h := router(env)

	w := postJSON(t, h, "/api/v1/apps", `{
		"client_name": "authorised",
		"redirect_uris": ["https://authorised.example.com/callback"],
		"confidential": true
	}`)
	require.Equal(http.StatusOK, w.Code)
	created := decode[Application](t, w)

	app, err := env.Applications().FindByClientID(created.ClientID)
	require.NoError(err)

	owner := snowflake.Now()
	token := &models.AccessToken{
		ID:              snowflake.Now(),
		ApplicationID:   app.ID,
		ResourceOwnerID: owner,
		Token:           "opaque-token",
	}
	require.NoError(env.DB.Create(token).Error)

	path := "/oauth/authorized_applications?owner_id=" + url.QueryEscape(owner.String())
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	require.Equal(http.StatusOK, w.Code)
	apps := decode[[]Application](t, w)
	require.Len(apps, 1)
	require.Equal(created.ClientID, apps[0].ClientID)

	// revoking removes it from the authorised list but keeps the app
	req := httptest.NewRequest("DELETE", "/oauth/authorized_applications/"+created.ID+"?owner_id="+owner.String(), nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	apps = decode[[]Application](t, w)
	require.Empty(apps)

	_, err = env.Applications().FindByClientID(created.ClientID)
	require.NoError(err)
}
