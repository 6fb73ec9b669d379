package writebuf

import (
	"context"
	"sync"

	cerrors "github.com/cockroachdb/errors"
	"github.com/lk2023060901/xsocket/pkg/buffer"
)

// RingQueue 固定容量的缓冲环形队列
// 多生产者阻塞 Put、单消费者非阻塞 Poll，FIFO 保证在线字节顺序。
// 不变量: 0 <= count <= cap；putIndex/takeIndex 按容量回绕。
type RingQueue struct {
	mu      sync.Mutex
	notFull *sync.Cond

	items     []*buffer.VirtualBuffer
	count     int
	putIndex  int
	takeIndex int
	closed    bool
}

// NewRingQueue 创建容量为 capacity 的环形队列
func NewRingQueue(capacity int) (*RingQueue, error) {
	if capacity <= 0 {
		return nil, cerrors.Wrapf(ErrInvalidConfig, "queue capacity %d", capacity)
	}
	q := &RingQueue{
		items: make([]*buffer.VirtualBuffer, capacity),
	}
	q.notFull = sync.NewCond(&q.mu)
	return q, nil
}

// Put 入队，队列满时阻塞直到有空位、队列关闭或 ctx 取消
// ctx 取消返回同时匹配 ErrInterrupted 和 ctx 错误的组合错误，
// 缓冲仍归调用方所有。
func (q *RingQueue) Put(ctx context.Context, vb *buffer.VirtualBuffer) error {
	if vb == nil {
		return ErrNilBuffer
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == len(q.items) && !q.closed && ctx.Err() == nil {
		stop := context.AfterFunc(ctx, func() {
			q.mu.Lock()
			q.notFull.Broadcast()
			q.mu.Unlock()
		})
		q.notFull.Wait()
		stop()
	}

	if q.closed {
		return ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		return cerrors.Join(ErrInterrupted, err)
	}

	q.items[q.putIndex] = vb
	q.putIndex = (q.putIndex + 1) % len(q.items)
	q.count++
	return nil
}

// Poll 非阻塞出队，空队列返回 nil
// 出队的缓冲所有权转移给调用方，用完必须 Clean 恰好一次。
func (q *RingQueue) Poll() *buffer.VirtualBuffer {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return nil
	}
	vb := q.items[q.takeIndex]
	q.items[q.takeIndex] = nil
	q.takeIndex = (q.takeIndex + 1) % len(q.items)
	q.count--
	q.notFull.Signal()
	return vb
}

// Len 当前队列长度
func (q *RingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap 队列容量
func (q *RingQueue) Cap() int {
	return len(q.items)
}

// Close 关闭队列并排空，每个残留缓冲归还池恰好一次
// 阻塞中的 Put 被唤醒并返回 ErrQueueClosed；重复调用为空操作。
func (q *RingQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true

	for q.count > 0 {
		vb := q.items[q.takeIndex]
		q.items[q.takeIndex] = nil
		q.takeIndex = (q.takeIndex + 1) % len(q.items)
		q.count--
		if vb != nil {
			vb.Clean()
		}
	}
	q.notFull.Broadcast()
}
