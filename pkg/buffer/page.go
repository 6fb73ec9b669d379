package buffer

import "sync"

// run 页内的一段连续空闲区间
type run struct {
	off int
	n   int
}

// page 缓冲池中的一页
// 空闲区间按偏移有序存放，释放时与相邻区间合并
type page struct {
	mu   sync.Mutex
	data []byte
	free []run
}

func newPage(size int) *page {
	return &page{
		data: make([]byte, size),
		free: []run{{off: 0, n: size}},
	}
}

// allocate 按首次适应从空闲区间切出 size 字节
// 返回区域切片与偏移；没有足够大的区间时 ok 为 false
func (p *page) allocate(size int) (region []byte, off int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.free {
		if p.free[i].n < size {
			continue
		}
		off = p.free[i].off
		p.free[i].off += size
		p.free[i].n -= size
		if p.free[i].n == 0 {
			p.free = append(p.free[:i], p.free[i+1:]...)
		}
		return p.data[off : off+size : off+size], off, true
	}
	return nil, 0, false
}

// release 归还 [off, off+n) 区间
// 与已有空闲区间重叠视为重复释放，返回 false 且不修改空闲表
func (p *page) release(off, n int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	// 定位插入点
	i := 0
	for i < len(p.free) && p.free[i].off < off {
		i++
	}

	// 重叠检查
	if i > 0 && p.free[i-1].off+p.free[i-1].n > off {
		return false
	}
	if i < len(p.free) && off+n > p.free[i].off {
		return false
	}

	// 与后邻合并
	if i < len(p.free) && off+n == p.free[i].off {
		p.free[i].off = off
		p.free[i].n += n
	} else {
		p.free = append(p.free, run{})
		copy(p.free[i+1:], p.free[i:])
		p.free[i] = run{off: off, n: n}
	}

	// 与前邻合并
	if i > 0 && p.free[i-1].off+p.free[i-1].n == p.free[i].off {
		p.free[i-1].n += p.free[i].n
		p.free = append(p.free[:i], p.free[i+1:]...)
	}
	return true
}

// freeBytes 当前空闲字节数
func (p *page) freeBytes() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := 0
	for i := range p.free {
		total += p.free[i].n
	}
	return total
}
