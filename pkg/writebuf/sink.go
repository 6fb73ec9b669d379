package writebuf

// Sink 下游发送回调
// WriteBuffer 在有数据可发送时调用 OnFlush；实现方负责循环 Poll
// 队列、把每个缓冲写入底层通道，并在写完后对每个缓冲调用一次 Clean。
//
// OnFlush 在 WriteBuffer 的内部锁内被调用，实现必须立即返回
// (例如把排空任务提交到工作池)，不得阻塞，也不得回调 WriteBuffer。
type Sink interface {
	OnFlush(q *RingQueue)
}

// SinkFunc 函数适配器
type SinkFunc func(q *RingQueue)

// OnFlush 实现 Sink 接口
func (f SinkFunc) OnFlush(q *RingQueue) {
	f(q)
}

// NopSink 空实现，用于测试或只关心入队的场景
type NopSink struct{}

// OnFlush 空实现
func (NopSink) OnFlush(*RingQueue) {}
