package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-hvp/pkg/hvp/config"
)

func denyWithoutKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func setupRouter(t *testing.T) (chi.Router, *config.Components) {
	t.Helper()
	cfg, err := config.Load(config.WithWWWRoot("https://lms.example.com"))
	require.NoError(t, err)

	components, err := cfg.BuildService(context.Background())
	require.NoError(t, err)
	t.Cleanup(components.Close)

	r := chi.NewRouter()
	mountRoutes(r, components, cfg, denyWithoutKey, newLogger("error"))
	return r, components
}

func TestRoutes_RequireAPIKey(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/hvp/features/groups", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/hvp/features/groups", nil)
	req.Header.Set("X-API-KEY", "secret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRoutes_FilesArePublic(t *testing.T) {
	r, components := setupRouter(t)
	require.NoError(t, components.Blobs.Put(context.Background(), "libraries/Foo-1.0/a.js", strings.NewReader("var a;"), "application/javascript"))

	req := httptest.NewRequest(http.MethodGet, "/mod/hvp/files/libraries/Foo-1.0/a.js", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "var a;", w.Body.String())
}

func TestRoutes_CreateInstance(t *testing.T) {
	r, _ := setupRouter(t)

	body, err := json.Marshal(map[string]interface{}{"name": "Quiz", "course": 2})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/hvp/instances", bytes.NewReader(body))
	req.Header.Set("X-API-KEY", "secret")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
}
