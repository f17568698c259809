package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// TrackRequest is the POST /track payload. Events is a pointer so a
// missing "events" key is distinguishable from an empty batch: the
// former is an invalid payload, the latter is a valid no-op.
//
// Individual events are kept as raw JSON on purpose — the collector
// validates batch shape only and forwards each event verbatim; one
// malformed event must never block the rest of the batch.
type TrackRequest struct {
	Events *[]json.RawMessage `json:"events"`
}

// EventRow is an event transformed for persistence. Optional fields are
// pointers so absent values become SQL NULLs.
type EventRow struct {
	EventID       uuid.UUID
	EventType     *string
	LocationType  *string
	ComponentName *string
	PagePath      *string
	PageTitle     *string
	Timestamp     *time.Time
	UserMetadata  []byte
	FullEventData []byte
}

// EventRecord is one row returned by GET /events.
type EventRecord struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	LocationType  *string         `json:"location_type"`
	ComponentName *string         `json:"component_name"`
	PagePath      *string         `json:"page_path"`
	PageTitle     *string         `json:"page_title"`
	Timestamp     *time.Time      `json:"timestamp"`
	UserMetadata  json.RawMessage `json:"user_metadata"`
	FullEventData json.RawMessage `json:"full_event_data"`
	ReceivedAt    time.Time       `json:"received_at"`
}

// EventRowFromJSON transforms one queue message into a row ready for the
// idempotent upsert.
//
// The transform is deliberately permissive: a timestamp that is missing
// or does not convert to an instant becomes NULL rather than a failure,
// user_metadata defaults to an empty object, and the verbatim message
// bytes are retained as full_event_data. Only a message that is not a
// JSON object or whose event_id does not parse as a UUID (the primary
// key) is rejected as malformed.
func EventRowFromJSON(data []byte) (EventRow, error) {
	var msg struct {
		EventID       string          `json:"event_id"`
		EventType     *string         `json:"event_type"`
		LocationType  *string         `json:"location_type"`
		ComponentName *string         `json:"component_name"`
		PagePath      *string         `json:"page_path"`
		PageTitle     *string         `json:"page_title"`
		Timestamp     json.RawMessage `json:"timestamp"`
		UserMetadata  json.RawMessage `json:"user_metadata"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return EventRow{}, fmt.Errorf("decode event: %w", err)
	}

	id, err := uuid.Parse(msg.EventID)
	if err != nil {
		return EventRow{}, fmt.Errorf("invalid event_id %q: %w", msg.EventID, err)
	}

	metadata := []byte(`{}`)
	if len(msg.UserMetadata) > 0 && !bytes.Equal(msg.UserMetadata, []byte("null")) {
		metadata = msg.UserMetadata
	}

	return EventRow{
		EventID:       id,
		EventType:     msg.EventType,
		LocationType:  msg.LocationType,
		ComponentName: msg.ComponentName,
		PagePath:      msg.PagePath,
		PageTitle:     msg.PageTitle,
		Timestamp:     parseEpochMillis(msg.Timestamp),
		UserMetadata:  metadata,
		FullEventData: data,
	}, nil
}

// parseEpochMillis converts a client-reported epoch-milliseconds value
// to an instant. Numbers and numeric strings convert; anything else
// yields nil (stored as NULL).
func parseEpochMillis(raw json.RawMessage) *time.Time {
	s := string(bytes.TrimSpace(raw))
	if s == "" || s == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	ms, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	t := time.UnixMilli(int64(ms)).UTC()
	return &t
}
