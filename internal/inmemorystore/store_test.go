package inmemorystore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/shimloader/internal/module"
	"github.com/vk/shimloader/internal/moduleid"
	"github.com/zclconf/go-cty/cty"
)

func TestStatus(t *testing.T) {
	s := New()
	ctx := context.Background()

	status, err := s.GetStatus(ctx, "lib/jquery")
	require.NoError(t, err)
	assert.Equal(t, module.StatusPending, status)

	require.NoError(t, s.SetStatus(ctx, "lib/jquery", module.StatusCompleted))
	status, err = s.GetStatus(ctx, "lib/jquery")
	require.NoError(t, err)
	assert.Equal(t, module.StatusCompleted, status)
}

func TestExports(t *testing.T) {
	s := New()
	ctx := context.Background()

	v, ok, err := s.GetExports(ctx, "lib/jquery")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, v.IsNull())

	want := cty.ObjectVal(map[string]cty.Value{"fn": cty.StringVal("$")})
	require.NoError(t, s.SetExports(ctx, "lib/jquery", want))
	v, ok, err = s.GetExports(ctx, "lib/jquery")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, want.RawEquals(v))
}

func TestError(t *testing.T) {
	s := New()
	ctx := context.Background()

	got, err := s.GetError(ctx, "client")
	require.NoError(t, err)
	assert.NoError(t, got)

	boom := errors.New("boom")
	require.NoError(t, s.SetError(ctx, "client", boom))
	got, err = s.GetError(ctx, "client")
	require.NoError(t, err)
	assert.Same(t, boom, got)
}

func TestConcurrentWrites(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := []moduleid.ID{"a", "b", "c", "d"}
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := ids[i%len(ids)]
			_ = s.SetStatus(ctx, id, module.StatusRunning)
			_ = s.SetExports(ctx, id, cty.NumberIntVal(int64(i)))
			_, _, _ = s.GetExports(ctx, id)
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		status, err := s.GetStatus(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, module.StatusRunning, status)
	}
}
