package writebuf

import "errors"

var (
	// 配置错误
	ErrInvalidConfig = errors.New("writebuf: invalid config")
	ErrNilPool       = errors.New("writebuf: buffer pool is required")

	// 参数错误
	ErrNilBuffer = errors.New("writebuf: nil buffer")

	// 关闭状态错误
	ErrClosed        = errors.New("writebuf: write buffer closed")
	ErrAlreadyClosed = errors.New("writebuf: write buffer already closed")
	ErrQueueClosed   = errors.New("writebuf: ring queue closed")

	// 阻塞等待被取消
	ErrInterrupted = errors.New("writebuf: blocking wait interrupted")
)
