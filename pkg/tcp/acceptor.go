package tcp

import (
	"context"
	"fmt"
	"time"

	"github.com/lk2023060901/xsocket/pkg/buffer"
	"github.com/lk2023060901/xsocket/pkg/config"
	"github.com/lk2023060901/xsocket/pkg/logger"
	"github.com/panjf2000/ants/v2"
	"github.com/panjf2000/gnet/v2"
	uatomic "go.uber.org/atomic"
	"go.uber.org/zap"
)

// Acceptor 基于 gnet 的 TCP 服务端
// 所有会话共享一个缓冲池和一个排空工作池。
type Acceptor struct {
	gnet.BuiltinEventEngine
	cfg     *ServerConfig
	handler SessionHandler
	log     logger.Logger

	pool    *buffer.Pool
	workers *ants.Pool

	engine   gnet.Engine
	started  bool
	sessions uatomic.Int64
}

// NewAcceptor 创建服务端，cfg 可以只填部分字段
func NewAcceptor(cfg *ServerConfig, handler SessionHandler, log logger.Logger) (*Acceptor, error) {
	mergedConfig, err := config.MergeConfig(DefaultServerConfig(), cfg)
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

	return &Acceptor{
		cfg:     mergedConfig,
		handler: handler,
		log:     log.Named("tcp.acceptor"),
		pool:    pool,
		workers: workers,
	}, nil
}

// Start 启动监听
func (a *Acceptor) Start() error {
	if a.started {
		return ErrServerAlreadyStarted
	}

	opts := []gnet.Option{
		gnet.WithMulticore(a.cfg.Multicore),
		gnet.WithReusePort(a.cfg.ReusePort),
		gnet.WithReuseAddr(a.cfg.ReuseAddr),
		gnet.WithTCPKeepAlive(a.cfg.TCPKeepAlive),
		gnet.WithTCPNoDelay(gnet.TCPNoDelay),
	}
	if a.cfg.NumEventLoop > 0 {
		opts = append(opts, gnet.WithNumEventLoop(a.cfg.NumEventLoop))
	}

	protoAddr := fmt.Sprintf("%s://%s", a.cfg.Network, a.cfg.Addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- gnet.Run(a, protoAddr, opts...)
	}()

	// 等待一小段时间看是否启动失败
	select {
	case err := <-errCh:
		return err
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Stop 停止监听并释放工作池
func (a *Acceptor) Stop() error {
	if !a.started {
		return ErrServerNotStarted
	}
	err := a.engine.Stop(context.Background())
	a.workers.Release()
	return err
}

// Pool 返回所有会话共享的缓冲池
func (a *Acceptor) Pool() *buffer.Pool {
	return a.pool
}

// Sessions 当前会话数
func (a *Acceptor) Sessions() int64 {
	return a.sessions.Load()
}

// OnBoot 实现 gnet.EventHandler
func (a *Acceptor) OnBoot(eng gnet.Engine) (action gnet.Action) {
	a.engine = eng
	a.started = true
	a.log.Info("listening", zap.String("addr", a.cfg.Addr))
	return gnet.None
}

// OnOpen 实现 gnet.EventHandler
func (a *Acceptor) OnOpen(c gnet.Conn) (out []byte, action gnet.Action) {
	s, err := NewSession(c, a.pool, a.workers, &a.cfg.Write, a.log)
	if err != nil {
		a.log.Error("create session", zap.Error(err))
		return nil, gnet.Close
	}
	c.SetContext(s)
	a.sessions.Inc()
	a.handler.OnOpened(s)
	return nil, gnet.None
}

// OnClose 实现 gnet.EventHandler
func (a *Acceptor) OnClose(c gnet.Conn, err error) (action gnet.Action) {
	if s, ok := c.Context().(*Session); ok {
		a.sessions.Dec()
		_ = s.Close()
		a.handler.OnClosed(s, err)
	}
	return gnet.None
}

// OnTraffic 实现 gnet.EventHandler
func (a *Acceptor) OnTraffic(c gnet.Conn) gnet.Action {
	data, _ := c.Next(-1)
	if s, ok := c.Context().(*Session); ok {
		a.handler.OnTraffic(s, data)
	}
	return gnet.None
}
