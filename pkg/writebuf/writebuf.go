// Package writebuf 实现会话出站方向的有界、有序、带背压的写缓冲。
//
// 并发写入方通过 WriteBuffer 把字节序列化成单一有序输出流:
// 字节先累积在块大小的暂存缓冲里，写满或显式 Flush 时翻转入环形
// 队列，并通知 Sink 异步排空。队列满时写入方阻塞，慢消费者由此
// 限流快生产者。
package writebuf

import (
	"context"
	"sync"

	cerrors "github.com/cockroachdb/errors"
	"github.com/lk2023060901/xsocket/pkg/buffer"
	"github.com/lk2023060901/xsocket/pkg/config"
	uatomic "go.uber.org/atomic"
)

// WriteBuffer 写协调器，每个会话一个
//
// 排序通过在途标记实现: 每个写操作先取得标记再触碰暂存块，
// 跨多个块的写在全部字节入暂存之前一直持有标记，其他写入方在
// 条件变量上等待，因此任意一次 Write 的字节在输出流中连续。
// 内部锁只保护状态变更，从不跨阻塞的入队持有。
type WriteBuffer struct {
	pool  *buffer.Pool
	sink  Sink
	cfg   *Config
	queue *RingQueue

	mu        sync.Mutex
	orderCond *sync.Cond // 等待在途写完成的写入方在此排队

	staging  *buffer.VirtualBuffer // 正在填充的暂存块，可能为 nil
	inFlight bool                  // 有写操作在途
	closed   bool

	stagedBytes  uatomic.Uint64
	sealedChunks uatomic.Uint64
	flushNotices uatomic.Uint64
}

// New 创建写协调器
// pool 必填；sink 为 nil 时使用 NopSink；cfg 可以只填部分字段。
func New(pool *buffer.Pool, sink Sink, cfg *Config) (*WriteBuffer, error) {
	if pool == nil {
		return nil, ErrNilPool
	}
	if sink == nil {
		sink = NopSink{}
	}

	mergedConfig, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := mergedConfig.Validate(); err != nil {
		return nil, err
	}

	queue, err := NewRingQueue(mergedConfig.QueueCapacity)
	if err != nil {
		return nil, err
	}

	w := &WriteBuffer{
		pool:  pool,
		sink:  sink,
		cfg:   mergedConfig,
		queue: queue,
	}
	w.orderCond = sync.NewCond(&w.mu)
	return w, nil
}

// Queue 返回底层环形队列，供 Sink 排空
func (w *WriteBuffer) Queue() *RingQueue {
	return w.queue
}

// WriteByte 写入单字节
// 暂存块写满时翻转入队 (队列满则阻塞) 并通知 Sink。
func (w *WriteBuffer) WriteByte(b byte) error {
	return w.WriteByteCtx(context.Background(), b)
}

// WriteByteCtx 带取消的 WriteByte
func (w *WriteBuffer) WriteByteCtx(ctx context.Context, b byte) error {
	w.mu.Lock()
	if err := w.acquireTurn(ctx); err != nil {
		w.mu.Unlock()
		return err
	}
	defer w.releaseTurnAndUnlock()

	if err := w.ensureStaging(); err != nil {
		return err
	}
	if err := w.staging.WriteByte(b); err != nil {
		return err
	}
	w.stagedBytes.Add(1)

	if !w.staging.HasRemaining() {
		return w.seal(ctx)
	}
	return nil
}

// Write 写入整段字节，实现 io.Writer
func (w *WriteBuffer) Write(p []byte) (int, error) {
	return w.WriteCtx(context.Background(), p)
}

// WriteCtx 带取消的 Write
// 返回时 n 为已暂存的字节数；n < len(p) 时必有 err 非 nil。
func (w *WriteBuffer) WriteCtx(ctx context.Context, p []byte) (int, error) {
	w.mu.Lock()
	if len(p) == 0 {
		closed := w.closed
		w.mu.Unlock()
		if closed {
			return 0, ErrClosed
		}
		return 0, nil
	}

	if err := w.acquireTurn(ctx); err != nil {
		w.mu.Unlock()
		return 0, err
	}
	defer w.releaseTurnAndUnlock()

	n := 0
	for n < len(p) {
		// seal 入队期间锁曾释放，期间可能已关闭
		if w.closed {
			return n, ErrClosed
		}
		if err := w.ensureStaging(); err != nil {
			return n, err
		}
		k := w.staging.Write(p[n:])
		n += k
		w.stagedBytes.Add(uint64(k))

		if !w.staging.HasRemaining() {
			if err := w.seal(ctx); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

// WriteAndFlush 写入并立即冲刷
func (w *WriteBuffer) WriteAndFlush(p []byte) error {
	return w.WriteAndFlushCtx(context.Background(), p)
}

// WriteAndFlushCtx 带取消的 WriteAndFlush
func (w *WriteBuffer) WriteAndFlushCtx(ctx context.Context, p []byte) error {
	if _, err := w.WriteCtx(ctx, p); err != nil {
		return err
	}
	return w.Flush()
}

// Flush 使当前暂存及队列中的字节对 Sink 可见
// 有数据的暂存块先入队 (队列满则阻塞)，再通知；无数据时为空操作。
func (w *WriteBuffer) Flush() error {
	w.mu.Lock()
	if err := w.acquireTurn(context.Background()); err != nil {
		w.mu.Unlock()
		return err
	}
	defer w.releaseTurnAndUnlock()

	if w.staging != nil && w.staging.Position() > 0 {
		return w.seal(context.Background())
	}
	if w.queue.Len() > 0 {
		w.notifyLocked()
	}
	return nil
}

// HasPending 是否还有未发送的字节 (暂存或已入队)
// 所属会话用它决定是否保持通道的可写关注。
func (w *WriteBuffer) HasPending() bool {
	w.mu.Lock()
	staged := w.staging != nil && w.staging.Position() > 0
	w.mu.Unlock()
	return staged || w.queue.Len() > 0
}

// Close 关闭写缓冲
// 暂存块与队列中所有缓冲归还池，各恰好一次；之后所有写操作返回
// ErrClosed，重复 Close 返回 ErrAlreadyClosed。可与进行中的写并发
// 调用: 阻塞在入队上的写被唤醒并以 ErrQueueClosed 失败，等待在途
// 标记的写以 ErrClosed 失败，缓冲无泄漏。
func (w *WriteBuffer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrAlreadyClosed
	}
	w.closed = true
	w.orderCond.Broadcast()
	staging := w.staging
	w.staging = nil
	w.mu.Unlock()

	if staging != nil {
		staging.Clean()
	}
	w.queue.Close()
	return nil
}

// Stats 返回累计统计: 已暂存字节、已封存块、Sink 通知次数
func (w *WriteBuffer) Stats() (stagedBytes, sealedChunks, flushNotices uint64) {
	return w.stagedBytes.Load(), w.sealedChunks.Load(), w.flushNotices.Load()
}

// acquireTurn 取得在途标记，持锁调用
// 返回 nil 时调用方持有标记且协调器未关闭，必须用
// releaseTurnAndUnlock 归还。
func (w *WriteBuffer) acquireTurn(ctx context.Context) error {
	for {
		if w.closed {
			return ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return cerrors.Join(ErrInterrupted, err)
		}
		if !w.inFlight {
			w.inFlight = true
			return nil
		}
		stop := context.AfterFunc(ctx, func() {
			w.mu.Lock()
			w.orderCond.Broadcast()
			w.mu.Unlock()
		})
		w.orderCond.Wait()
		stop()
	}
}

// releaseTurnAndUnlock 归还在途标记并唤醒等待者，持锁调用
func (w *WriteBuffer) releaseTurnAndUnlock() {
	w.inFlight = false
	w.orderCond.Broadcast()
	w.mu.Unlock()
}

// ensureStaging 保证暂存块存在，持锁调用
func (w *WriteBuffer) ensureStaging() error {
	if w.staging != nil {
		return nil
	}
	vb, err := w.pool.Allocate(w.cfg.ChunkSize)
	if err != nil {
		return err
	}
	w.staging = vb
	return nil
}

// seal 封存暂存块: 翻转、入队、通知 Sink
// 持锁且持在途标记调用，返回时锁重新持有。入队可能阻塞，期间锁
// 释放而标记不放，保证封存顺序即写入顺序。入队失败时块归还池，
// 错误上抛，已入队的字节不受影响。
func (w *WriteBuffer) seal(ctx context.Context) error {
	vb := w.staging
	w.staging = nil

	vb.Flip()
	if !vb.HasRemaining() {
		vb.Clean()
		return nil
	}

	w.mu.Unlock()
	err := w.queue.Put(ctx, vb)
	w.mu.Lock()

	if err != nil {
		vb.Clean()
		return err
	}
	w.sealedChunks.Inc()
	w.notifyLocked()
	return nil
}

// notifyLocked 通知 Sink，持锁调用，Sink 实现必须非阻塞
func (w *WriteBuffer) notifyLocked() {
	w.flushNotices.Inc()
	w.sink.OnFlush(w.queue)
}
