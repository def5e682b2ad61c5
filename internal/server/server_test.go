package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3xsean/devilsdice/internal/gateway"
	"github.com/r3xsean/devilsdice/internal/registry"
	"github.com/r3xsean/devilsdice/internal/store"
)

func newTestRouter(t *testing.T, corsOrigin string) (*gin.Engine, *store.Fallback) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zerolog.Nop()
	fallback := store.NewFallback(nil, log)
	games := store.NewGames(fallback)
	hub := gateway.NewHub(log)
	reg := registry.New(games, hub, log)
	gw := gateway.New(reg, hub, log)

	_, router := New(gw, fallback, corsOrigin, "test")
	return router, fallback
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, "*")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["environment"])
	assert.NotEmpty(t, body["timestamp"])
	assert.NotEmpty(t, body["uptime"])
	// no redis configured, so the in-process fallback serves
	assert.Equal(t, "fallback", body["store"])
}

func TestReady(t *testing.T) {
	router, _ := newTestRouter(t, "*")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ready": true}`, w.Body.String())
}

func TestCORS_AllowList(t *testing.T) {
	router, _ := newTestRouter(t, "https://dice.example.com")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "https://dice.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	router.ServeHTTP(w, req)
	assert.Equal(t, "https://dice.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
