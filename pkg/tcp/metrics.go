package tcp

import "github.com/prometheus/client_golang/prometheus"

// 确保 acceptorCollector 实现了 prometheus.Collector
var _ prometheus.Collector = (*acceptorCollector)(nil)

// acceptorCollector 将服务端状态暴露为 prometheus 指标
type acceptorCollector struct {
	acceptor *Acceptor
	sessions *prometheus.Desc
}

// RegisterMetrics 把服务端与共享缓冲池的采集器注册到 reg
func (a *Acceptor) RegisterMetrics(reg prometheus.Registerer) error {
	if err := reg.Register(a.pool.Collector()); err != nil {
		return err
	}
	return reg.Register(&acceptorCollector{
		acceptor: a,
		sessions: prometheus.NewDesc(
			"xsocket_tcp_sessions",
			"Currently open sessions.", nil, nil),
	})
}

func (c *acceptorCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.sessions
}

func (c *acceptorCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.sessions, prometheus.GaugeValue, float64(c.acceptor.Sessions()))
}
