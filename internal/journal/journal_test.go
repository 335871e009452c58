package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/shimloader/internal/events"
)

func recordRuns(t *testing.T, s Store) time.Time {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	sink := &Sink{Store: s}

	evs := []events.Event{
		{RunID: "r1", Kind: events.RunStarted, Time: base},
		{RunID: "r1", Module: "lib/jquery", Kind: events.Completed, Duration: 3 * time.Millisecond, Time: base.Add(time.Second)},
		{RunID: "r1", Kind: events.RunFinished, Time: base.Add(2 * time.Second)},
		{RunID: "r2", Kind: events.RunStarted, Time: base.Add(time.Minute)},
		{RunID: "r2", Module: "client", Kind: events.Failed, Err: "boom", Time: base.Add(time.Minute + time.Second)},
		{RunID: "r2", Kind: events.RunFinished, Err: "load failed for client: boom", Time: base.Add(time.Minute + 2*time.Second)},
		{RunID: "r3", Kind: events.RunStarted, Time: base.Add(time.Hour)},
	}
	for _, e := range evs {
		require.NoError(t, sink.Emit(ctx, e))
	}
	return base
}

func testStore(t *testing.T, s Store) {
	ctx := context.Background()
	base := recordRuns(t, s)

	t.Run("runs", func(t *testing.T) {
		runs, err := s.Runs(ctx)
		require.NoError(t, err)
		require.Len(t, runs, 3)

		assert.Equal(t, "r1", runs[0].ID)
		assert.True(t, runs[0].Started.Equal(base))
		assert.True(t, runs[0].Finished.Equal(base.Add(2*time.Second)))
		assert.Empty(t, runs[0].Err)

		assert.Equal(t, "r2", runs[1].ID)
		assert.Equal(t, "load failed for client: boom", runs[1].Err)

		assert.Equal(t, "r3", runs[2].ID)
		assert.True(t, runs[2].Finished.IsZero(), "unfinished run")
	})

	t.Run("events of one run", func(t *testing.T) {
		evs, err := s.Events(ctx, "r1")
		require.NoError(t, err)
		require.Len(t, evs, 3)
		assert.Equal(t, events.RunStarted, evs[0].Kind)
		assert.Equal(t, events.Completed, evs[1].Kind)
		assert.Equal(t, "lib/jquery", evs[1].Module.String())
		assert.Equal(t, 3*time.Millisecond, evs[1].Duration)
		assert.Equal(t, events.RunFinished, evs[2].Kind)
	})

	t.Run("unknown run", func(t *testing.T) {
		evs, err := s.Events(ctx, "nope")
		require.NoError(t, err)
		assert.Empty(t, evs)
	})
}

func TestMemory(t *testing.T) {
	s := NewMemory()
	defer s.Close()
	testStore(t, s)
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer s.Close()
	testStore(t, s)
}

func TestSQLite_Reopen(t *testing.T) {
	// Arrange
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	recordRuns(t, s)
	require.NoError(t, s.Close())

	// Act
	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Runs(ctx)

	// Assert
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestOpenSQLite_BadPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "missing", "journal.db"))
	require.Error(t, err)
}
