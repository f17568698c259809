package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackline/pipeline/internal/models"
)

// fakeSource replays a fixed set of messages, then cancels the context
// to stop the loop the way a shutdown signal would.
type fakeSource struct {
	msgs    [][]byte
	next    int
	commits int
	cancel  context.CancelFunc
}

func (f *fakeSource) Fetch(ctx context.Context) ([]byte, error) {
	if f.next >= len(f.msgs) {
		f.cancel()
		return nil, ctx.Err()
	}
	m := f.msgs[f.next]
	f.next++
	return m, nil
}

func (f *fakeSource) Commit() error {
	f.commits++
	return nil
}

type fakeStore struct {
	rows []models.EventRow
	seen map[uuid.UUID]bool
	err  error
}

func (f *fakeStore) InsertEvent(_ context.Context, row models.EventRow) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = map[uuid.UUID]bool{}
	}
	if f.seen[row.EventID] {
		return false, nil
	}
	f.seen[row.EventID] = true
	f.rows = append(f.rows, row)
	return true, nil
}

func eventJSON(id uuid.UUID, eventType string) []byte {
	return []byte(`{"event_id": "` + id.String() + `", "event_type": "` + eventType + `"}`)
}

func run(t *testing.T, src *fakeSource, st *fakeStore, skipOnError bool) error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src.cancel = cancel
	return New(src, st, skipOnError, zerolog.Nop()).Run(ctx)
}

func TestRunPersistsAndCommitsEachMessage(t *testing.T) {
	id1, id2 := uuid.New(), uuid.New()
	src := &fakeSource{msgs: [][]byte{eventJSON(id1, "CLICK"), eventJSON(id2, "HOVER_ENTER")}}
	st := &fakeStore{}

	require.NoError(t, run(t, src, st, false))

	require.Len(t, st.rows, 2)
	assert.Equal(t, id1, st.rows[0].EventID)
	assert.Equal(t, id2, st.rows[1].EventID)
	assert.Equal(t, 2, src.commits)
}

func TestRunAbsorbsDuplicateDelivery(t *testing.T) {
	id := uuid.New()
	msg := eventJSON(id, "CLICK")
	src := &fakeSource{msgs: [][]byte{msg, msg}}
	st := &fakeStore{}

	require.NoError(t, run(t, src, st, false))

	// One row, but both deliveries are committed.
	assert.Len(t, st.rows, 1)
	assert.Equal(t, 2, src.commits)
}

func TestRunCrashPolicyStopsOnMalformedMessage(t *testing.T) {
	src := &fakeSource{msgs: [][]byte{[]byte(`{"event_id": "not-a-uuid"}`)}}
	st := &fakeStore{}

	err := run(t, src, st, false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed message")
	// No commit: the message is redelivered after restart.
	assert.Zero(t, src.commits)
}

func TestRunCrashPolicyStopsOnStoreFailure(t *testing.T) {
	src := &fakeSource{msgs: [][]byte{eventJSON(uuid.New(), "CLICK")}}
	st := &fakeStore{err: errors.New("connection reset")}

	err := run(t, src, st, false)

	require.Error(t, err)
	assert.Zero(t, src.commits)
}

func TestRunSkipPolicyCommitsAndContinues(t *testing.T) {
	good := uuid.New()
	src := &fakeSource{msgs: [][]byte{
		[]byte(`not json at all`),
		eventJSON(good, "CLICK"),
	}}
	st := &fakeStore{}

	require.NoError(t, run(t, src, st, true))

	require.Len(t, st.rows, 1)
	assert.Equal(t, good, st.rows[0].EventID)
	// The bad message is committed too, so it is not redelivered.
	assert.Equal(t, 2, src.commits)
}
