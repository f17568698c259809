package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/trackline/pipeline/internal/models"
	"github.com/trackline/pipeline/internal/store"
)

// EventReader serves the query path.
type EventReader interface {
	QueryEvents(ctx context.Context, f store.Filter) ([]models.EventRecord, error)
}

// RegisterEventRoutes registers the serving-path endpoint.
//
// GET /events?event_type=&location_type=&component_name=&page_path=&limit=
// - Filters are optional, AND-combined, exact match; event_type=HOVER
//   expands to HOVER_ENTER/HOVER_LEAVE.
// - Results are newest first, capped at limit (default 30).
// - A store failure is a dependency outage: 503, caller retries.
func RegisterEventRoutes(r gin.IRoutes, st EventReader, log zerolog.Logger) {
	r.GET("/events", func(c *gin.Context) {
		f := store.Filter{
			EventType:     c.Query("event_type"),
			LocationType:  c.Query("location_type"),
			ComponentName: c.Query("component_name"),
			PagePath:      c.Query("page_path"),
			Limit:         store.DefaultLimit,
		}

		if raw := c.Query("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			f.Limit = limit
		}

		records, err := st.QueryEvents(c.Request.Context(), f)
		if err != nil {
			log.Error().Err(err).Msg("events query failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database unavailable"})
			return
		}

		c.JSON(http.StatusOK, records)
	})
}
