package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildQueryNoFilters(t *testing.T) {
	sql, args := Filter{}.buildQuery()

	assert.NotContains(t, sql, "WHERE")
	assert.Contains(t, sql, "ORDER BY received_at DESC")
	assert.Contains(t, sql, "LIMIT $1")
	assert.Equal(t, []any{DefaultLimit}, args)
}

func TestBuildQuerySingleFilter(t *testing.T) {
	sql, args := Filter{EventType: "CLICK"}.buildQuery()

	assert.Contains(t, sql, "WHERE event_type = $1")
	assert.Contains(t, sql, "LIMIT $2")
	assert.Equal(t, []any{"CLICK", DefaultLimit}, args)
}

func TestBuildQueryHoverExpansion(t *testing.T) {
	// HOVER is a derived category with no literal row value; it must
	// expand to both stored variants, case-insensitively.
	for _, v := range []string{"HOVER", "hover", "Hover"} {
		sql, args := Filter{EventType: v}.buildQuery()

		assert.Contains(t, sql, "event_type = ANY($1)")
		assert.Equal(t, []any{[]string{"HOVER_ENTER", "HOVER_LEAVE"}, DefaultLimit}, args)
	}
}

func TestBuildQueryExactMatchForHoverVariants(t *testing.T) {
	sql, args := Filter{EventType: "HOVER_ENTER"}.buildQuery()

	assert.Contains(t, sql, "event_type = $1")
	assert.Equal(t, []any{"HOVER_ENTER", DefaultLimit}, args)
	assert.NotContains(t, sql, "ANY")
}

func TestBuildQueryComposedFilters(t *testing.T) {
	f := Filter{
		EventType:     "CLICK",
		LocationType:  "button",
		ComponentName: "buy-now",
		PagePath:      "/home",
		Limit:         5,
	}
	sql, args := f.buildQuery()

	assert.Contains(t, sql, "event_type = $1 AND location_type = $2 AND component_name = $3 AND page_path = $4")
	assert.Contains(t, sql, "LIMIT $5")
	assert.Equal(t, []any{"CLICK", "button", "buy-now", "/home", 5}, args)
}

func TestBuildQueryNeverInlinesValues(t *testing.T) {
	// Filter values travel as bound parameters only, even hostile ones.
	hostile := `'; DROP TABLE user_events; --`
	sql, args := Filter{PagePath: hostile}.buildQuery()

	assert.NotContains(t, sql, hostile)
	assert.Contains(t, args, hostile)
}

func TestBuildQueryLimitFallback(t *testing.T) {
	for _, limit := range []int{0, -3} {
		_, args := Filter{Limit: limit}.buildQuery()
		assert.Equal(t, []any{DefaultLimit}, args)
	}
}
