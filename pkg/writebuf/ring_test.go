package writebuf

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lk2023060901/xsocket/pkg/buffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T) *buffer.Pool {
	t.Helper()
	p, err := buffer.NewPool(&buffer.Config{PageSize: 1 << 16, MaxPages: 4, DisableDirect: true})
	require.NoError(t, err)
	return p
}

// sealedChunk allocates a chunk, fills it with data and flips it read-ready.
func sealedChunk(t *testing.T, p *buffer.Pool, data []byte) *buffer.VirtualBuffer {
	t.Helper()
	vb, err := p.Allocate(len(data))
	require.NoError(t, err)
	require.Equal(t, len(data), vb.Write(data))
	vb.Flip()
	return vb
}

func TestRingQueue_New(t *testing.T) {
	_, err := NewRingQueue(0)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewRingQueue(-3)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	q, err := NewRingQueue(8)
	require.NoError(t, err)
	assert.Equal(t, 8, q.Cap())
	assert.Equal(t, 0, q.Len())
}

func TestRingQueue_FIFO(t *testing.T) {
	p := newTestPool(t)
	q, err := NewRingQueue(16)
	require.NoError(t, err)

	want := [][]byte{[]byte("one"), []byte("two"), []byte("three"), []byte("four")}
	for _, data := range want {
		require.NoError(t, q.Put(context.Background(), sealedChunk(t, p, data)))
	}
	assert.Equal(t, len(want), q.Len())

	for _, data := range want {
		vb := q.Poll()
		require.NotNil(t, vb)
		assert.Equal(t, data, vb.Bytes())
		vb.Clean()
	}
	assert.Nil(t, q.Poll())
	assert.Equal(t, 0, q.Len())
}

func TestRingQueue_WrapAround(t *testing.T) {
	p := newTestPool(t)
	q, err := NewRingQueue(3)
	require.NoError(t, err)

	// push/pop past the array boundary several times
	next := byte(0)
	for round := 0; round < 5; round++ {
		for i := 0; i < 3; i++ {
			require.NoError(t, q.Put(context.Background(), sealedChunk(t, p, []byte{next})))
			next++
		}
		for i := 0; i < 3; i++ {
			vb := q.Poll()
			require.NotNil(t, vb)
			assert.Equal(t, byte(round*3+i), vb.Bytes()[0])
			vb.Clean()
		}
	}
}

func TestRingQueue_PutNil(t *testing.T) {
	q, err := NewRingQueue(2)
	require.NoError(t, err)
	assert.ErrorIs(t, q.Put(context.Background(), nil), ErrNilBuffer)
}

func TestRingQueue_Backpressure(t *testing.T) {
	p := newTestPool(t)
	q, err := NewRingQueue(2)
	require.NoError(t, err)

	require.NoError(t, q.Put(context.Background(), sealedChunk(t, p, []byte("a"))))
	require.NoError(t, q.Put(context.Background(), sealedChunk(t, p, []byte("b"))))
	assert.Equal(t, 2, q.Len())

	unblocked := make(chan time.Time, 1)
	go func() {
		_ = q.Put(context.Background(), sealedChunk(t, p, []byte("c")))
		unblocked <- time.Now()
	}()

	// the third put must still be blocked before any poll happens
	select {
	case <-unblocked:
		t.Fatal("put returned before a poll made room")
	case <-time.After(100 * time.Millisecond):
	}

	polledAt := time.Now()
	vb := q.Poll()
	require.NotNil(t, vb)
	vb.Clean()

	select {
	case at := <-unblocked:
		assert.False(t, at.Before(polledAt), "put unblocked before the poll")
	case <-time.After(time.Second):
		t.Fatal("put did not unblock after poll")
	}

	q.Close()
}

func TestRingQueue_PutCancelled(t *testing.T) {
	p := newTestPool(t)
	q, err := NewRingQueue(1)
	require.NoError(t, err)

	require.NoError(t, q.Put(context.Background(), sealedChunk(t, p, []byte("x"))))

	t.Run("already cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		vb := sealedChunk(t, p, []byte("y"))
		err := q.Put(ctx, vb)
		assert.ErrorIs(t, err, ErrInterrupted)
		assert.ErrorIs(t, err, context.Canceled)
		vb.Clean() // still owned by the caller
	})

	t.Run("cancelled while blocked", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		vb := sealedChunk(t, p, []byte("z"))
		err := q.Put(ctx, vb)
		assert.ErrorIs(t, err, ErrInterrupted)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		vb.Clean()
	})

	q.Close()
}

func TestRingQueue_CloseDrains(t *testing.T) {
	p := newTestPool(t)
	q, err := NewRingQueue(8)
	require.NoError(t, err)

	before := p.FreeBytes()
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Put(context.Background(), sealedChunk(t, p, []byte{byte(i), 1, 2, 3})))
	}
	assert.NotEqual(t, before, p.FreeBytes())

	q.Close()
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, before, p.FreeBytes(), "close must release every queued buffer")

	// idempotent, and rejects further puts
	q.Close()
	vb := sealedChunk(t, p, []byte("late"))
	assert.ErrorIs(t, q.Put(context.Background(), vb), ErrQueueClosed)
	vb.Clean()
}

func TestRingQueue_CloseWakesBlockedPut(t *testing.T) {
	p := newTestPool(t)
	q, err := NewRingQueue(1)
	require.NoError(t, err)

	require.NoError(t, q.Put(context.Background(), sealedChunk(t, p, []byte("a"))))

	errCh := make(chan error, 1)
	vb := sealedChunk(t, p, []byte("b"))
	go func() {
		errCh <- q.Put(context.Background(), vb)
	}()

	time.Sleep(50 * time.Millisecond)
	q.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrQueueClosed)
		vb.Clean()
	case <-time.After(time.Second):
		t.Fatal("blocked put was not woken by close")
	}
}

func TestRingQueue_ConcurrentPutPoll(t *testing.T) {
	p := newTestPool(t)
	q, err := NewRingQueue(4)
	require.NoError(t, err)

	const producers = 8
	const perProducer = 200

	var wg sync.WaitGroup
	wg.Add(producers)
	for i := 0; i < producers; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				vb := sealedChunk(t, p, []byte{byte(id)})
				if err := q.Put(context.Background(), vb); err != nil {
					vb.Clean()
					return
				}
			}
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	polled := 0
	for {
		vb := q.Poll()
		if vb != nil {
			assert.LessOrEqual(t, q.Len(), q.Cap())
			vb.Clean()
			polled++
			continue
		}
		select {
		case <-done:
			if q.Len() == 0 {
				assert.Equal(t, producers*perProducer, polled)
				stats := p.Stats()
				assert.Equal(t, stats.Allocates, stats.Releases)
				return
			}
		default:
			time.Sleep(time.Millisecond)
		}
	}
}
