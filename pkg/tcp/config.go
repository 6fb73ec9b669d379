package tcp

import (
	"fmt"
	"time"

	"github.com/lk2023060901/xsocket/pkg/buffer"
	"github.com/lk2023060901/xsocket/pkg/writebuf"
)

// ServerConfig 服务端配置
type ServerConfig struct {
	// 监听地址，如 "0.0.0.0:9000"
	Addr string `mapstructure:"addr" json:"addr" yaml:"addr"`

	// 网络类型，tcp/tcp4/tcp6
	Network string `mapstructure:"network" json:"network" yaml:"network"`

	// 是否启用多核
	Multicore bool `mapstructure:"multicore" json:"multicore" yaml:"multicore"`

	// 事件循环数量，0 表示使用 CPU 核心数
	NumEventLoop int `mapstructure:"num_event_loop" json:"num_event_loop" yaml:"num_event_loop"`

	// 是否启用端口复用
	ReusePort bool `mapstructure:"reuse_port" json:"reuse_port" yaml:"reuse_port"`

	// 是否启用地址复用
	ReuseAddr bool `mapstructure:"reuse_addr" json:"reuse_addr" yaml:"reuse_addr"`

	// TCP KeepAlive 间隔
	TCPKeepAlive time.Duration `mapstructure:"tcp_keep_alive" json:"tcp_keep_alive" yaml:"tcp_keep_alive"`

	// 写缓冲配置 (暂存块大小、环形队列容量)
	Write writebuf.Config `mapstructure:"write" json:"write" yaml:"write"`

	// 缓冲池配置，池由所有会话共享
	Buffer buffer.Config `mapstructure:"buffer" json:"buffer" yaml:"buffer"`

	// 排空任务工作池大小
	FlushWorkers int `mapstructure:"flush_workers" json:"flush_workers" yaml:"flush_workers"`
}

// DefaultServerConfig 返回默认服务端配置
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Addr:         "0.0.0.0:9000",
		Network:      "tcp",
		Multicore:    true,
		ReusePort:    true,
		ReuseAddr:    true,
		TCPKeepAlive: 30 * time.Second,
		Write:        *writebuf.DefaultConfig(),
		Buffer:       *buffer.DefaultConfig(),
		FlushWorkers: 256,
	}
}

// Validate 验证服务端配置
func (c *ServerConfig) Validate() error {
	if c == nil {
		return ErrInvalidConfig
	}
	if c.Addr == "" {
		return fmt.Errorf("%w: addr is required", ErrInvalidConfig)
	}
	if c.Network == "" {
		c.Network = "tcp"
	}
	if c.FlushWorkers <= 0 {
		c.FlushWorkers = 256
	}
	if err := c.Write.Validate(); err != nil {
		return err
	}
	return c.Buffer.Validate()
}

// ClientConfig 客户端配置
type ClientConfig struct {
	// 网络类型，tcp/tcp4/tcp6
	Network string `mapstructure:"network" json:"network" yaml:"network"`

	// 读缓冲区大小
	ReadBufferSize int `mapstructure:"read_buffer_size" json:"read_buffer_size" yaml:"read_buffer_size"`

	// 连接超时
	DialTimeout time.Duration `mapstructure:"dial_timeout" json:"dial_timeout" yaml:"dial_timeout"`

	// TCP KeepAlive 间隔
	TCPKeepAlive time.Duration `mapstructure:"tcp_keep_alive" json:"tcp_keep_alive" yaml:"tcp_keep_alive"`

	// 是否禁用 Nagle 算法（启用 TCP_NODELAY）
	TCPNoDelay bool `mapstructure:"tcp_no_delay" json:"tcp_no_delay" yaml:"tcp_no_delay"`

	// 写缓冲配置
	Write writebuf.Config `mapstructure:"write" json:"write" yaml:"write"`

	// 缓冲池配置
	Buffer buffer.Config `mapstructure:"buffer" json:"buffer" yaml:"buffer"`

	// 排空任务工作池大小
	FlushWorkers int `mapstructure:"flush_workers" json:"flush_workers" yaml:"flush_workers"`
}

// DefaultClientConfig 返回默认客户端配置
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Network:        "tcp",
		ReadBufferSize: 64 * 1024,
		DialTimeout:    10 * time.Second,
		TCPKeepAlive:   30 * time.Second,
		TCPNoDelay:     true,
		Write:          *writebuf.DefaultConfig(),
		Buffer:         *buffer.DefaultConfig(),
		FlushWorkers:   64,
	}
}

// Validate 验证客户端配置
func (c *ClientConfig) Validate() error {
	if c == nil {
		return ErrInvalidConfig
	}
	if c.Network == "" {
		c.Network = "tcp"
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = 64 * 1024
	}
	if c.FlushWorkers <= 0 {
		c.FlushWorkers = 64
	}
	if err := c.Write.Validate(); err != nil {
		return err
	}
	return c.Buffer.Validate()
}
