package httpserver

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/trackline/pipeline/internal/handlers"
)

// NewCollectorRouter wires the ingestion service.
// Endpoints: /health (liveness, no dependency checks), /track.
func NewCollectorRouter(pub handlers.Publisher, log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	// The tracking snippet posts from arbitrary origins.
	r.Use(cors.Default())

	// Liveness: confirms the process is running, nothing more.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterTrackRoutes(r, pub, log)

	return r
}
