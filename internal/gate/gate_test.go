package gate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thanhnp/utxo-indexer/internal/apperr"
)

func TestAcquireRelease(t *testing.T) {
	g := New()

	release, err := g.Acquire(context.Background(), time.Second)
	require.NoError(t, err)
	release()

	release, err = g.Acquire(context.Background(), time.Second)
	require.NoError(t, err)
	release()
}

func TestAcquireTimesOutWhileHeld(t *testing.T) {
	g := New()

	release, err := g.Acquire(context.Background(), time.Second)
	require.NoError(t, err)
	defer release()

	_, err = g.Acquire(context.Background(), 20*time.Millisecond)
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.MutexTimeout))
}

func TestReleaseIsIdempotentSafe(t *testing.T) {
	g := New()

	release, err := g.Acquire(context.Background(), time.Second)
	require.NoError(t, err)

	release()
	require.NotPanics(t, func() { release() })
}

func TestExactlyOneHolderAtATime(t *testing.T) {
	g := New()

	var active int32
	var maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := g.Acquire(context.Background(), 2*time.Second)
			if err != nil {
				return
			}
			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			release()
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, maxActive)
}
