package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/trackline/pipeline/internal/models"
	"github.com/trackline/pipeline/internal/queue"
)

// Publisher delivers a batch of events to the durable queue and returns
// only after the broker has accepted all of them.
type Publisher interface {
	PublishBatch(ctx context.Context, msgs []queue.Message) error
}

// RegisterTrackRoutes registers the ingestion-path endpoint.
//
// POST /track
// - Validates batch shape only: the body must be an object with an
//   "events" array. Individual events are forwarded verbatim; a
//   malformed event never blocks the rest of its batch.
// - Returns success only after the broker confirms the whole batch.
func RegisterTrackRoutes(r gin.IRoutes, pub Publisher, log zerolog.Logger) {
	r.POST("/track", func(c *gin.Context) {
		var req models.TrackRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Events == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
			return
		}

		events := *req.Events
		log.Info().Int("events", len(events)).Msg("received batch")

		if len(events) == 0 {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}

		msgs := make([]queue.Message, 0, len(events))
		for _, raw := range events {
			msgs = append(msgs, queue.Message{Key: messageKey(raw), Value: raw})
		}

		if err := pub.PublishBatch(c.Request.Context(), msgs); err != nil {
			log.Error().Err(err).Msg("publish batch failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to publish events"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// messageKey extracts the event_id for per-key ordering. Events without
// a usable id get an empty key and land on any partition.
func messageKey(raw json.RawMessage) []byte {
	var meta struct {
		EventID string `json:"event_id"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil || meta.EventID == "" {
		return nil
	}
	return []byte(meta.EventID)
}
