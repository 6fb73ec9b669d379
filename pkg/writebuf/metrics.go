package writebuf

import "github.com/prometheus/client_golang/prometheus"

// 确保 writeBufferCollector 实现了 prometheus.Collector
var _ prometheus.Collector = (*writeBufferCollector)(nil)

// writeBufferCollector 将写缓冲统计暴露为 prometheus 指标
type writeBufferCollector struct {
	wb *WriteBuffer

	queueDepth    *prometheus.Desc
	queueCapacity *prometheus.Desc
	stagedBytes   *prometheus.Desc
	sealedChunks  *prometheus.Desc
	flushNotices  *prometheus.Desc
}

// Collector 返回写缓冲的 prometheus 采集器
// labels 附加到所有指标上，通常传会话 ID。
func (w *WriteBuffer) Collector(labels prometheus.Labels) prometheus.Collector {
	return &writeBufferCollector{
		wb: w,
		queueDepth: prometheus.NewDesc(
			"xsocket_writebuf_queue_depth",
			"Buffers currently queued for flush.", nil, labels),
		queueCapacity: prometheus.NewDesc(
			"xsocket_writebuf_queue_capacity",
			"Ring queue capacity.", nil, labels),
		stagedBytes: prometheus.NewDesc(
			"xsocket_writebuf_staged_bytes_total",
			"Total bytes accepted into staging.", nil, labels),
		sealedChunks: prometheus.NewDesc(
			"xsocket_writebuf_sealed_chunks_total",
			"Chunks sealed and enqueued.", nil, labels),
		flushNotices: prometheus.NewDesc(
			"xsocket_writebuf_flush_notices_total",
			"Sink notifications issued.", nil, labels),
	}
}

func (c *writeBufferCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.queueDepth
	ch <- c.queueCapacity
	ch <- c.stagedBytes
	ch <- c.sealedChunks
	ch <- c.flushNotices
}

func (c *writeBufferCollector) Collect(ch chan<- prometheus.Metric) {
	staged, sealed, notices := c.wb.Stats()
	ch <- prometheus.MustNewConstMetric(c.queueDepth, prometheus.GaugeValue, float64(c.wb.queue.Len()))
	ch <- prometheus.MustNewConstMetric(c.queueCapacity, prometheus.GaugeValue, float64(c.wb.queue.Cap()))
	ch <- prometheus.MustNewConstMetric(c.stagedBytes, prometheus.CounterValue, float64(staged))
	ch <- prometheus.MustNewConstMetric(c.sealedChunks, prometheus.CounterValue, float64(sealed))
	ch <- prometheus.MustNewConstMetric(c.flushNotices, prometheus.CounterValue, float64(notices))
}
