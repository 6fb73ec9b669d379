package tcp

import "errors"

var (
	// 配置错误
	ErrInvalidConfig = errors.New("tcp: invalid config")
	ErrInvalidAddr   = errors.New("tcp: invalid address")

	// 连接错误
	ErrConnectionClosed = errors.New("tcp: connection closed")
	ErrConnectionFailed = errors.New("tcp: connection failed")

	// 服务器错误
	ErrServerClosed         = errors.New("tcp: server closed")
	ErrServerAlreadyStarted = errors.New("tcp: server already started")
	ErrServerNotStarted     = errors.New("tcp: server not started")
)
