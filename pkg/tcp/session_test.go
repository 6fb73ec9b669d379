package tcp

import (
	"bytes"
	"errors"
	"math/rand"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/lk2023060901/xsocket/pkg/buffer"
	"github.com/lk2023060901/xsocket/pkg/writebuf"
	"github.com/panjf2000/gnet/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeSession builds a session over net.Pipe and a reader collecting
// everything the session sends.
func pipeSession(t *testing.T, cfg *writebuf.Config) (*Session, *pipeReader) {
	t.Helper()

	pool, err := buffer.NewPool(&buffer.Config{PageSize: 1 << 16, MaxPages: 4})
	require.NoError(t, err)

	local, remote := net.Pipe()
	s, err := NewNetSession(local, pool, nil, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	r := &pipeReader{conn: remote, closed: make(chan struct{})}
	go r.run()
	return s, r
}

type pipeReader struct {
	conn   net.Conn
	mu     sync.Mutex
	buf    bytes.Buffer
	closed chan struct{}
}

func (r *pipeReader) run() {
	defer close(r.closed)
	tmp := make([]byte, 4096)
	for {
		n, err := r.conn.Read(tmp)
		if n > 0 {
			r.mu.Lock()
			r.buf.Write(tmp[:n])
			r.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

func (r *pipeReader) waitFor(t *testing.T, want int) []byte {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		r.mu.Lock()
		n := r.buf.Len()
		r.mu.Unlock()
		if n >= want {
			r.mu.Lock()
			defer r.mu.Unlock()
			return append([]byte(nil), r.buf.Bytes()...)
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d bytes, got %d", want, n)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestSession_WriteAndFlush(t *testing.T) {
	s, r := pipeSession(t, &writebuf.Config{ChunkSize: 16, QueueCapacity: 8})

	require.NoError(t, s.WriteAndFlush([]byte("hello xsocket")))
	got := r.waitFor(t, len("hello xsocket"))
	assert.Equal(t, []byte("hello xsocket"), got)
	assert.Eventually(t, func() bool {
		return s.BytesOut() == uint64(len("hello xsocket"))
	}, time.Second, time.Millisecond)
}

func TestSession_LargeWriteRoundTrip(t *testing.T) {
	s, r := pipeSession(t, &writebuf.Config{ChunkSize: 64, QueueCapacity: 4})

	payload := make([]byte, 32*1024)
	rand.New(rand.NewSource(7)).Read(payload)

	go func() {
		// queue capacity 4 with 64B chunks: the write itself experiences
		// backpressure while the drain loop empties the queue
		n, err := s.Write(payload)
		assert.NoError(t, err)
		assert.Equal(t, len(payload), n)
		assert.NoError(t, s.Flush())
	}()

	got := r.waitFor(t, len(payload))
	assert.Equal(t, payload, got)
}

func TestSession_Close(t *testing.T) {
	s, _ := pipeSession(t, nil)

	require.NoError(t, s.Close())
	assert.NoError(t, s.Close(), "close must be idempotent")

	_, err := s.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrConnectionClosed)
	assert.ErrorIs(t, s.WriteAndFlush([]byte("x")), ErrConnectionClosed)
	assert.ErrorIs(t, s.Flush(), ErrConnectionClosed)

	select {
	case <-s.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("session context not cancelled on close")
	}
}

func TestSession_ID(t *testing.T) {
	a, _ := pipeSession(t, nil)
	b, _ := pipeSession(t, nil)
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.NotEmpty(t, a.RemoteAddr())
}

// failingGnetConn completes every AsyncWrite with a fixed error,
// simulating a channel write failure on the event loop.
type failingGnetConn struct {
	gnet.Conn
	err error
}

func (c *failingGnetConn) AsyncWrite(buf []byte, cb gnet.AsyncCallback) error {
	go func() { _ = cb(nil, c.err) }()
	return nil
}

func (c *failingGnetConn) Close() error { return nil }

func TestSession_AsyncWriteFailureClosesSession(t *testing.T) {
	pool, err := buffer.NewPool(&buffer.Config{PageSize: 1 << 16, MaxPages: 1})
	require.NoError(t, err)

	conn := &failingGnetConn{err: errors.New("broken pipe")}
	s, err := NewSession(conn, pool, nil, nil, nil)
	require.NoError(t, err)

	require.NoError(t, s.WriteAndFlush([]byte("doomed")))

	assert.Eventually(t, func() bool {
		_, err := s.Write([]byte("x"))
		return errors.Is(err, ErrConnectionClosed)
	}, time.Second, time.Millisecond, "failed channel write must close the session")

	select {
	case <-s.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("session context not cancelled after write failure")
	}
}

func TestSession_ConcurrentWriters(t *testing.T) {
	s, r := pipeSession(t, &writebuf.Config{ChunkSize: 32, QueueCapacity: 8})

	const writers = 4
	const seqLen = 32*2 + 5

	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(tag byte) {
			defer wg.Done()
			seq := bytes.Repeat([]byte{tag}, seqLen)
			_, err := s.Write(seq)
			assert.NoError(t, err)
		}(byte('a' + i))
	}
	wg.Wait()
	require.NoError(t, s.Flush())

	stream := r.waitFor(t, writers*seqLen)
	require.Len(t, stream, writers*seqLen)

	// every writer's bytes must be contiguous in the stream
	for i := 0; i < len(stream); i += seqLen {
		run := stream[i : i+seqLen]
		assert.Equal(t, bytes.Repeat([]byte{run[0]}, seqLen), run)
	}
}
