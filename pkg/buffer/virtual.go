package buffer

import uatomic "go.uber.org/atomic"

// pooledBuffer 从页上切出的一段字节区域
// page 为 nil 表示绕过池的直接分配
type pooledBuffer struct {
	pool *Pool
	page *page
	data []byte
	off  int
}

// VirtualBuffer 对池化字节区域的独占视图
// 游标语义与 java.nio 一致: 写模式下 pos 为写游标、lim 为容量，
// Flip 后 lim 为已写入长度、pos 归零进入读模式。
// 任一时刻只有一个持有者，持有者用完必须调用 Clean 归还。
type VirtualBuffer struct {
	pb      pooledBuffer
	pos     int
	lim     int
	cleaned uatomic.Bool
}

// Capacity 区域总容量
func (b *VirtualBuffer) Capacity() int {
	return len(b.pb.data)
}

// Position 当前游标位置
func (b *VirtualBuffer) Position() int {
	return b.pos
}

// Remaining 剩余可写/可读字节数
func (b *VirtualBuffer) Remaining() int {
	return b.lim - b.pos
}

// HasRemaining 是否还有剩余
func (b *VirtualBuffer) HasRemaining() bool {
	return b.pos < b.lim
}

// WriteByte 写入单字节
func (b *VirtualBuffer) WriteByte(c byte) error {
	if b.pos >= b.lim {
		return ErrBufferOverflow
	}
	b.pb.data[b.pos] = c
	b.pos++
	return nil
}

// Write 贪婪写入，最多 Remaining 字节，返回实际写入数
func (b *VirtualBuffer) Write(p []byte) int {
	n := copy(b.pb.data[b.pos:b.lim], p)
	b.pos += n
	return n
}

// Flip 从写模式切换到读模式
func (b *VirtualBuffer) Flip() {
	b.lim = b.pos
	b.pos = 0
}

// Bytes 返回 [pos, lim) 的可读视图，不复制
// 视图在 Clean 之后失效
func (b *VirtualBuffer) Bytes() []byte {
	return b.pb.data[b.pos:b.lim]
}

// Clean 将区域归还池，重复调用为空操作
func (b *VirtualBuffer) Clean() {
	if !b.cleaned.CompareAndSwap(false, true) {
		return
	}
	b.pb.pool.release(&b.pb)
}

// Cleaned 是否已归还
func (b *VirtualBuffer) Cleaned() bool {
	return b.cleaned.Load()
}
