// pkg/logger/interface.go
package logger

import "go.uber.org/zap"

// Logger 日志接口
// 其他 pkg 模块引用此接口，避免直接耦合具体实现
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)

	// Named 派生具名 logger
	Named(name string) Logger

	// Sync 刷新缓冲的日志
	Sync() error
}
