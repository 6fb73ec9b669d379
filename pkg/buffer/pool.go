// Package buffer 实现带显式归还语义的分页缓冲池。
//
// 池由若干固定大小的页组成，Allocate 从页内空闲区间切出一段独占区域，
// 由 VirtualBuffer 持有；持有者调用 Clean 把区域合并回页的空闲表。
// 页不够用时按需增长到 MaxPages，再不够则回退为绕过池的直接分配。
package buffer

import (
	"sync"
	"sync/atomic"

	"github.com/lk2023060901/xsocket/pkg/config"
)

// Stats 池的累计统计
type Stats struct {
	Allocates       uint64 // 总分配次数
	Releases        uint64 // 总归还次数
	DirectAllocates uint64 // 直接分配次数 (未走池)
	DoubleReleases  uint64 // 检测到的重复归还次数
}

// Pool 分页缓冲池，可被多个会话并发使用
type Pool struct {
	cfg *Config

	mu    sync.RWMutex
	pages []*page

	allocates       uint64
	releases        uint64
	directAllocates uint64
	doubleReleases  uint64
}

// NewPool 创建缓冲池，cfg 可以只填部分字段
func NewPool(cfg *Config) (*Pool, error) {
	mergedConfig, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := mergedConfig.Validate(); err != nil {
		return nil, err
	}
	return &Pool{
		cfg:   mergedConfig,
		pages: []*page{newPage(mergedConfig.PageSize)},
	}, nil
}

// Allocate 分配 size 字节的独占区域，从不阻塞
// 所有页都放不下时: 先增长新页，到达 MaxPages 后回退直接分配；
// 直接分配被禁用时返回 ErrExhausted。
func (p *Pool) Allocate(size int) (*VirtualBuffer, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	// 超过单页容量的请求只能直接分配
	if size <= p.cfg.PageSize {
		p.mu.RLock()
		for _, pg := range p.pages {
			if region, off, ok := pg.allocate(size); ok {
				p.mu.RUnlock()
				return p.wrap(pg, region, off), nil
			}
		}
		p.mu.RUnlock()

		if vb, ok := p.grow(size); ok {
			return vb, nil
		}
	}

	if p.cfg.DisableDirect {
		return nil, ErrExhausted
	}
	atomic.AddUint64(&p.directAllocates, 1)
	return p.wrap(nil, make([]byte, size), 0), nil
}

// grow 尝试新增一页并从中分配
func (p *Pool) grow(size int) (*VirtualBuffer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// 持锁后重试已有页，避免并发 grow 重复建页
	for _, pg := range p.pages {
		if region, off, ok := pg.allocate(size); ok {
			return p.wrap(pg, region, off), true
		}
	}
	if len(p.pages) >= p.cfg.MaxPages {
		return nil, false
	}
	pg := newPage(p.cfg.PageSize)
	p.pages = append(p.pages, pg)
	region, off, _ := pg.allocate(size)
	return p.wrap(pg, region, off), true
}

func (p *Pool) wrap(pg *page, region []byte, off int) *VirtualBuffer {
	atomic.AddUint64(&p.allocates, 1)
	return &VirtualBuffer{
		pb: pooledBuffer{
			pool: p,
			page: pg,
			data: region,
			off:  off,
		},
		lim: len(region),
	}
}

// release 由 VirtualBuffer.Clean 调用
func (p *Pool) release(pb *pooledBuffer) {
	atomic.AddUint64(&p.releases, 1)
	if pb.page == nil {
		return // 直接分配交给 GC
	}
	if !pb.page.release(pb.off, len(pb.data)) {
		atomic.AddUint64(&p.doubleReleases, 1)
	}
}

// Stats 返回累计统计
func (p *Pool) Stats() Stats {
	return Stats{
		Allocates:       atomic.LoadUint64(&p.allocates),
		Releases:        atomic.LoadUint64(&p.releases),
		DirectAllocates: atomic.LoadUint64(&p.directAllocates),
		DoubleReleases:  atomic.LoadUint64(&p.doubleReleases),
	}
}

// FreeBytes 所有页的空闲字节总数
func (p *Pool) FreeBytes() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	total := 0
	for _, pg := range p.pages {
		total += pg.freeBytes()
	}
	return total
}

// TotalBytes 所有页的容量总数
func (p *Pool) TotalBytes() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.pages) * p.cfg.PageSize
}
