package store

import (
	"fmt"
	"strings"
)

// DefaultLimit caps result sets when the caller does not ask for one.
const DefaultLimit = 30

// Filter selects events for GET /events. All fields are optional and
// AND-combined; the zero value matches everything (newest first, capped
// at DefaultLimit).
type Filter struct {
	EventType     string
	LocationType  string
	ComponentName string
	PagePath      string
	Limit         int
}

// hoverExpansion is the derived HOVER category: it has no literal row
// value and must expand to its stored variants before querying.
var hoverExpansion = []string{"HOVER_ENTER", "HOVER_LEAVE"}

const selectColumns = `SELECT event_id, event_type, location_type, component_name,
       page_path, page_title, timestamp, user_metadata, full_event_data, received_at
FROM user_events`

// buildQuery renders the filter as SQL plus bound arguments. Filter
// values never appear in the query text, only as parameters.
func (f Filter) buildQuery() (string, []any) {
	var (
		conds []string
		args  []any
	)

	bind := func(clause string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(clause, len(args)))
	}

	if f.EventType != "" {
		if strings.EqualFold(f.EventType, "HOVER") {
			bind("event_type = ANY($%d)", hoverExpansion)
		} else {
			bind("event_type = $%d", f.EventType)
		}
	}
	if f.LocationType != "" {
		bind("location_type = $%d", f.LocationType)
	}
	if f.ComponentName != "" {
		bind("component_name = $%d", f.ComponentName)
	}
	if f.PagePath != "" {
		bind("page_path = $%d", f.PagePath)
	}

	var sb strings.Builder
	sb.WriteString(selectColumns)
	if len(conds) > 0 {
		sb.WriteString("\nWHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	args = append(args, limit)
	sb.WriteString(fmt.Sprintf("\nORDER BY received_at DESC\nLIMIT $%d", len(args)))

	return sb.String(), args
}
