package tcp

import (
	"context"
	"net"

	"github.com/lk2023060901/xsocket/pkg/buffer"
	"github.com/lk2023060901/xsocket/pkg/config"
	"github.com/lk2023060901/xsocket/pkg/logger"
	"github.com/panjf2000/ants/v2"
)

// Connector 基于 net.Dialer 的 TCP 客户端
type Connector struct {
	cfg     *ClientConfig
	handler SessionHandler
	log     logger.Logger

	pool    *buffer.Pool
	workers *ants.Pool
}

// NewConnector 创建客户端，cfg 可以只填部分字段
func NewConnector(cfg *ClientConfig, handler SessionHandler, log logger.Logger) (*Connector, error) {
	mergedConfig, err := config.MergeConfig(DefaultClientConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := mergedConfig.Validate(); err != nil {
		return nil, err
	}
	if handler == nil {
		handler = &NopSessionHandler{}
	}
	if log == nil {
		log = logger.NewNoop()
	}

	pool, err := buffer.NewPool(&mergedConfig.Buffer)
	if err != nil {
		return nil, err
	}
	workers, err := ants.NewPool(mergedConfig.FlushWorkers, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}

	return &Connector{
		cfg:     mergedConfig,
		handler: handler,
		log:     log.Named("tcp.connector"),
		pool:    pool,
		workers: workers,
	}, nil
}

// Connect 发起连接并返回会话
func (c *Connector) Connect(ctx context.Context, addr string) (*Session, error) {
	if addr == "" {
		return nil, ErrInvalidAddr
	}

	d := net.Dialer{
		Timeout:   c.cfg.DialTimeout,
		KeepAlive: c.cfg.TCPKeepAlive,
	}
	conn, err := d.DialContext(ctx, c.cfg.Network, addr)
	if err != nil {
		return nil, err
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(c.cfg.TCPNoDelay)
		if c.cfg.ReadBufferSize > 0 {
			_ = tcpConn.SetReadBuffer(c.cfg.ReadBufferSize)
		}
	}

	s, err := NewNetSession(conn, c.pool, c.workers, &c.cfg.Write, c.log)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	c.handler.OnOpened(s)

	// 后台读取循环驱动 handler
	go c.readLoop(s, conn)

	return s, nil
}

// Pool 返回所有会话共享的缓冲池
func (c *Connector) Pool() *buffer.Pool {
	return c.pool
}

// Release 释放排空工作池
func (c *Connector) Release() {
	c.workers.Release()
}

func (c *Connector) readLoop(s *Session, conn net.Conn) {
	defer func() {
		_ = s.Close()
	}()

	buf := make([]byte, c.cfg.ReadBufferSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			c.handler.OnClosed(s, err)
			return
		}
		if n > 0 {
			c.handler.OnTraffic(s, buf[:n])
		}
	}
}
