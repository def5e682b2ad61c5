// Package server assembles the HTTP surface: CORS, health probes and the
// websocket endpoint.
package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/r3xsean/devilsdice/internal/gateway"
)

// Version is stamped at build time.
var Version = "dev"

type healthReporter interface {
	Degraded() bool
}

type Server struct {
	started     time.Time
	environment string
	store       healthReporter
}

// New builds the gin router. corsOrigin is a comma-separated allow list,
// "*" allows everything.
func New(gw *gateway.Gateway, store healthReporter, corsOrigin, environment string) (*Server, *gin.Engine) {
	s := &Server{
		started:     time.Now(),
		environment: environment,
		store:       store,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(corsOrigin)))

	r.GET("/health", s.healthHandler)
	r.GET("/ready", s.readyHandler)
	r.GET("/ws", gw.HandleWS)

	return s, r
}

func corsConfig(corsOrigin string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}
	if corsOrigin == "*" {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowCredentials = true
	cfg.AllowOrigins = strings.Split(corsOrigin, ",")
	return cfg
}

func (s *Server) healthHandler(ctx *gin.Context) {
	storeMode := "redis"
	if s.store == nil || s.store.Degraded() {
		storeMode = "fallback"
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"uptime":      time.Since(s.started).Round(time.Second).String(),
		"version":     Version,
		"environment": s.environment,
		"store":       storeMode,
	})
}

func (s *Server) readyHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"ready": true})
}
