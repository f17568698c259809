package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/trackline/pipeline/internal/handlers"
)

// Pinger reports whether the store dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EventStore is what the events API needs from the store.
type EventStore interface {
	handlers.EventReader
	Pinger
}

// NewEventsRouter wires the query service.
// Endpoints: /health (liveness), /ready (store reachability), /events.
func NewEventsRouter(st EventStore, log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	// The dashboard frontend reads events cross-origin.
	r.Use(cors.Default())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms the DB dependency is reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	handlers.RegisterEventRoutes(r, st, log)

	return r
}
