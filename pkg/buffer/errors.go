package buffer

import "errors"

var (
	// 配置错误
	ErrInvalidConfig = errors.New("buffer: invalid config")

	// 分配错误
	ErrInvalidSize = errors.New("buffer: allocation size must be positive")
	ErrExhausted   = errors.New("buffer: pool exhausted and direct allocation disabled")

	// 写入错误
	ErrBufferOverflow = errors.New("buffer: no remaining capacity")
)
