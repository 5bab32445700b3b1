package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmiller22/botfarm/internal/domain/conversation"
)

func TestStateGetDefaultsToIdle(t *testing.T) {
	r := NewStateRepository()
	st, ver, err := r.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, conversation.StepIdle, st.Step)
	assert.Zero(t, ver)
}

func TestStateCompareAndSet(t *testing.T) {
	ctx := context.Background()
	r := NewStateRepository()

	ok, err := r.CompareAndSet(ctx, 1, conversation.State{Step: conversation.StepAwaitUnitType}, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.CompareAndSet(ctx, 1, conversation.State{Step: conversation.StepAwaitTotal}, 0)
	require.NoError(t, err)
	assert.False(t, ok, "stale version must be rejected")

	st, ver, err := r.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, conversation.StepAwaitUnitType, st.Step)
	assert.Equal(t, int64(1), ver)

	ok, err = r.CompareAndSet(ctx, 1, conversation.State{Step: conversation.StepAwaitTotal}, ver)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStateCASSingleWinnerUnderContention(t *testing.T) {
	ctx := context.Background()
	r := NewStateRepository()

	var wg sync.WaitGroup
	wins := make(chan int, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := r.CompareAndSet(ctx, 1, conversation.State{Step: conversation.StepAwaitNotes}, 0)
			assert.NoError(t, err)
			if ok {
				wins <- i
			}
		}(i)
	}
	wg.Wait()
	close(wins)
	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count, "exactly one CAS from version 0 may win")
}

func TestStateResetClearsFields(t *testing.T) {
	ctx := context.Background()
	r := NewStateRepository()
	require.NoError(t, r.Put(ctx, 1, conversation.State{
		Step: conversation.StepAwaitTotal,
		Data: conversation.ReportFields{Truck: "102"},
	}))

	require.NoError(t, r.Reset(ctx, 1))
	st, _, err := r.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, conversation.StepIdle, st.Step)
	assert.True(t, st.Data.IsEmpty())
}

func TestLockMutualExclusion(t *testing.T) {
	ctx := context.Background()
	r := NewLockRepository()

	token, ok, err := r.TryAcquire(ctx, 1, time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = r.TryAcquire(ctx, 1, time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "live lease must block a second holder")

	_, ok, err = r.TryAcquire(ctx, 2, time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "distinct conversations do not contend")

	require.NoError(t, r.Release(ctx, 1, token))
	_, ok, err = r.TryAcquire(ctx, 1, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockLeaseSelfHeal(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	r := NewLockRepository().WithClock(func() time.Time { return now })

	// Holder acquires and never releases.
	_, ok, err := r.TryAcquire(ctx, 1, 3*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, err = r.TryAcquire(ctx, 1, 3*time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "lease still live")

	now = now.Add(2 * time.Second)
	token, ok, err := r.TryAcquire(ctx, 1, 3*time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "expired lease is reclaimed")
	assert.NotEmpty(t, token)
}

func TestLockStaleReleaseIsNoop(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	r := NewLockRepository().WithClock(func() time.Time { return now })

	old, ok, err := r.TryAcquire(ctx, 1, time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	// Lease expires and someone else reclaims it.
	now = now.Add(2 * time.Second)
	_, ok, err = r.TryAcquire(ctx, 1, time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	// The first holder's release must not free the new holder's lock.
	require.NoError(t, r.Release(ctx, 1, old))
	_, ok, err = r.TryAcquire(ctx, 1, time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
}
