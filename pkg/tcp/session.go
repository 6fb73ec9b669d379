// Package tcp 提供基于 gnet/net 的 TCP 会话层。
//
// 每个会话的出站字节都经过 writebuf.WriteBuffer 序列化:
// 写满的块进入环形队列，会话的 Sink 把排空任务提交到共享工作池，
// 排空端把若干块合并成一次底层写，写完后逐块归还缓冲池。
package tcp

import (
	"context"
	"net"

	"github.com/google/uuid"
	"github.com/lk2023060901/xsocket/pkg/buffer"
	"github.com/lk2023060901/xsocket/pkg/logger"
	"github.com/lk2023060901/xsocket/pkg/writebuf"
	"github.com/panjf2000/ants/v2"
	"github.com/panjf2000/gnet/v2"
	"github.com/valyala/bytebufferpool"
	uatomic "go.uber.org/atomic"
	"go.uber.org/zap"
)

// Session 基于 gnet 或 net 连接的会话
type Session struct {
	id       string
	gnetConn gnet.Conn
	netConn  net.Conn

	wb      *writebuf.WriteBuffer
	workers *ants.Pool
	log     logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	draining uatomic.Bool // 已有排空任务在途
	closed   uatomic.Bool

	bytesOut uatomic.Uint64
}

// NewSession 创建一个 gnet 连接会话
func NewSession(conn gnet.Conn, pool *buffer.Pool, workers *ants.Pool, cfg *writebuf.Config, log logger.Logger) (*Session, error) {
	s := newSession(pool, workers, log)
	s.gnetConn = conn
	return s, s.initWriteBuffer(pool, cfg)
}

// NewNetSession 创建一个 net.Conn 会话
func NewNetSession(conn net.Conn, pool *buffer.Pool, workers *ants.Pool, cfg *writebuf.Config, log logger.Logger) (*Session, error) {
	s := newSession(pool, workers, log)
	s.netConn = conn
	return s, s.initWriteBuffer(pool, cfg)
}

func newSession(pool *buffer.Pool, workers *ants.Pool, log logger.Logger) *Session {
	if log == nil {
		log = logger.NewNoop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:      uuid.New().String(),
		workers: workers,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *Session) initWriteBuffer(pool *buffer.Pool, cfg *writebuf.Config) error {
	wb, err := writebuf.New(pool, writebuf.SinkFunc(s.onFlush), cfg)
	if err != nil {
		return err
	}
	s.wb = wb
	return nil
}

// ID 返回会话 ID
func (s *Session) ID() string {
	return s.id
}

// RemoteAddr 返回远程地址
func (s *Session) RemoteAddr() string {
	if s.gnetConn != nil {
		return s.gnetConn.RemoteAddr().String()
	}
	if s.netConn != nil {
		return s.netConn.RemoteAddr().String()
	}
	return ""
}

// Context 返回会话的 Context，用于生命周期管理
func (s *Session) Context() context.Context {
	return s.ctx
}

// Write 写入出站字节，实现 io.Writer
func (s *Session) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrConnectionClosed
	}
	return s.wb.WriteCtx(s.ctx, p)
}

// WriteAndFlush 写入并立即冲刷
func (s *Session) WriteAndFlush(p []byte) error {
	if s.closed.Load() {
		return ErrConnectionClosed
	}
	return s.wb.WriteAndFlushCtx(s.ctx, p)
}

// Flush 冲刷已暂存的出站字节
func (s *Session) Flush() error {
	if s.closed.Load() {
		return ErrConnectionClosed
	}
	return s.wb.Flush()
}

// HasPending 是否还有未发送的出站字节
func (s *Session) HasPending() bool {
	return s.wb.HasPending()
}

// BytesOut 已写入底层连接的字节数
func (s *Session) BytesOut() uint64 {
	return s.bytesOut.Load()
}

// Close 关闭会话，幂等
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.cancel()
	if err := s.wb.Close(); err != nil && err != writebuf.ErrAlreadyClosed {
		s.log.Warn("close write buffer", zap.String("session_id", s.id), zap.Error(err))
	}
	if s.gnetConn != nil {
		return s.gnetConn.Close()
	}
	if s.netConn != nil {
		return s.netConn.Close()
	}
	return nil
}

// onFlush 实现 writebuf.Sink
// 在 WriteBuffer 的锁内被调用，只做一次 CAS 和任务提交，立即返回。
// 已有排空任务在途时折叠为空操作。
func (s *Session) onFlush(q *writebuf.RingQueue) {
	if !s.draining.CompareAndSwap(false, true) {
		return
	}
	if s.workers != nil {
		if err := s.workers.Submit(s.drainLoop); err == nil {
			return
		}
	}
	// 工作池满或未配置时退化为独立 goroutine
	go s.drainLoop()
}

// drainLoop 单消费者排空
// 把队列里的块合并进一个临时缓冲，一次写入底层连接，逐块归还池。
func (s *Session) drainLoop() {
	q := s.wb.Queue()
	for {
		scratch := bytebufferpool.Get()
		for {
			vb := q.Poll()
			if vb == nil {
				break
			}
			_, _ = scratch.Write(vb.Bytes())
			vb.Clean()
		}

		n := scratch.Len()
		var err error
		if n > 0 {
			err = s.writeConn(scratch)
		} else {
			bytebufferpool.Put(scratch)
		}
		if err != nil {
			s.draining.Store(false)
			s.log.Error("channel write failed, closing session",
				zap.String("session_id", s.id), zap.Error(err))
			_ = s.Close()
			return
		}
		s.bytesOut.Add(uint64(n))

		// 在清掉在途标记后复查队列，避免与新通知之间丢排空
		s.draining.Store(false)
		if q.Len() == 0 {
			return
		}
		if !s.draining.CompareAndSwap(false, true) {
			return
		}
	}
}

// writeConn 把合并后的字节写入底层连接并回收临时缓冲
func (s *Session) writeConn(scratch *bytebufferpool.ByteBuffer) error {
	if s.gnetConn != nil {
		// gnet 异步持有切片，写完成后再回收
		return s.gnetConn.AsyncWrite(scratch.Bytes(), func(c gnet.Conn, err error) error {
			bytebufferpool.Put(scratch)
			if err != nil {
				s.log.Error("async write failed, closing session",
					zap.String("session_id", s.id), zap.Error(err))
				_ = s.Close()
			}
			return nil
		})
	}
	_, err := s.netConn.Write(scratch.Bytes())
	bytebufferpool.Put(scratch)
	return err
}
