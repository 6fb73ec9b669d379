package buffer

import "github.com/prometheus/client_golang/prometheus"

// 确保 poolCollector 实现了 prometheus.Collector
var _ prometheus.Collector = (*poolCollector)(nil)

// poolCollector 将池统计暴露为 prometheus 指标
type poolCollector struct {
	pool *Pool

	allocates       *prometheus.Desc
	releases        *prometheus.Desc
	directAllocates *prometheus.Desc
	doubleReleases  *prometheus.Desc
	freeBytes       *prometheus.Desc
	totalBytes      *prometheus.Desc
}

// Collector 返回池的 prometheus 采集器，由调用方注册到 Registry
func (p *Pool) Collector() prometheus.Collector {
	return &poolCollector{
		pool: p,
		allocates: prometheus.NewDesc(
			"xsocket_buffer_pool_allocates_total",
			"Total buffer allocations from the pool.", nil, nil),
		releases: prometheus.NewDesc(
			"xsocket_buffer_pool_releases_total",
			"Total buffer releases back to the pool.", nil, nil),
		directAllocates: prometheus.NewDesc(
			"xsocket_buffer_pool_direct_allocates_total",
			"Allocations that bypassed the pool.", nil, nil),
		doubleReleases: prometheus.NewDesc(
			"xsocket_buffer_pool_double_releases_total",
			"Detected double releases.", nil, nil),
		freeBytes: prometheus.NewDesc(
			"xsocket_buffer_pool_free_bytes",
			"Current free bytes across all pages.", nil, nil),
		totalBytes: prometheus.NewDesc(
			"xsocket_buffer_pool_total_bytes",
			"Total page capacity in bytes.", nil, nil),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.allocates
	ch <- c.releases
	ch <- c.directAllocates
	ch <- c.doubleReleases
	ch <- c.freeBytes
	ch <- c.totalBytes
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.pool.Stats()
	ch <- prometheus.MustNewConstMetric(c.allocates, prometheus.CounterValue, float64(stats.Allocates))
	ch <- prometheus.MustNewConstMetric(c.releases, prometheus.CounterValue, float64(stats.Releases))
	ch <- prometheus.MustNewConstMetric(c.directAllocates, prometheus.CounterValue, float64(stats.DirectAllocates))
	ch <- prometheus.MustNewConstMetric(c.doubleReleases, prometheus.CounterValue, float64(stats.DoubleReleases))
	ch <- prometheus.MustNewConstMetric(c.freeBytes, prometheus.GaugeValue, float64(c.pool.FreeBytes()))
	ch <- prometheus.MustNewConstMetric(c.totalBytes, prometheus.GaugeValue, float64(c.pool.TotalBytes()))
}
