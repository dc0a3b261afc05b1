package tracker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepQueue_FIFO(t *testing.T) {
	q := newStepQueue()

	for _, code := range []string{"1A23", "2C45", "3D67"} {
		require.True(t, q.Enqueue(StepEvent{Kind: KindAdvance, Code: code}))
	}

	for _, want := range []string{"1A23", "2C45", "3D67"} {
		ev, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, ev.Code)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestStepQueue_CloseRefusesNewEvents(t *testing.T) {
	q := newStepQueue()

	require.True(t, q.Enqueue(StepEvent{Code: "1A23"}))
	q.Close()

	assert.False(t, q.Enqueue(StepEvent{Code: "2C45"}), "closed queue must refuse events")

	// Already-queued events remain dequeueable.
	ev, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, "1A23", ev.Code)
	assert.True(t, q.Drained())
}

func TestStepQueue_SignalCoalesces(t *testing.T) {
	q := newStepQueue()

	for i := 0; i < 10; i++ {
		q.Enqueue(StepEvent{})
	}

	<-q.Wait()
	assert.Equal(t, 10, q.Len())
}

func TestStepQueue_ConcurrentEnqueue(t *testing.T) {
	q := newStepQueue()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Enqueue(StepEvent{})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, q.Len())
}
