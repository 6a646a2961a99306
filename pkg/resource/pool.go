// Package resource 管理场景元素共享的重量级资源
//
// 资源按标识符做引用计数：第一次 Acquire 加载资源，之后的 Acquire 和 Clone
// 共享同一份资源，最后一个句柄释放时资源被释放。
// 加载失败不会向调用方返回错误，句柄只是处于 StatusError 状态，
// 缺少图片的布局仍然可用。
package resource

import (
	"log"
)

// Status 池中资源的加载状态
type Status int

const (
	// StatusReady 资源已加载，可以使用
	StatusReady Status = iota
	// StatusError 资源加载失败，使用方不绘制也不播放
	StatusError
	// StatusFreed 句柄已释放或资源池已清空
	StatusFreed
)

// Loader 按标识符加载资源
type Loader[T any] func(id string) (T, error)

// Freer 在最后一个引用消失时释放已加载的资源
type Freer[T any] func(asset T)

type entry[T any] struct {
	id     string
	asset  T
	err    error
	refs   int
	loads  int
	status Status
}

// Handle 池中资源的引用
// Release 之后不应再使用句柄，此时 Value 返回零值
type Handle[T any] struct {
	pool     *Pool[T]
	e        *entry[T]
	released bool
}

// ID 返回获取句柄时使用的标识符
func (h *Handle[T]) ID() string {
	if h == nil || h.e == nil {
		return ""
	}
	return h.e.id
}

// Status 返回底层资源的加载状态
func (h *Handle[T]) Status() Status {
	if h == nil || h.e == nil || h.released {
		return StatusFreed
	}
	return h.e.status
}

// Ready 判断资源是否可用
func (h *Handle[T]) Ready() bool {
	return h.Status() == StatusReady
}

// Err 返回 StatusError 句柄的加载错误
func (h *Handle[T]) Err() error {
	if h == nil || h.e == nil {
		return nil
	}
	return h.e.err
}

// Value 返回资源，句柄不可用时返回零值
func (h *Handle[T]) Value() T {
	var zero T
	if !h.Ready() {
		return zero
	}
	return h.e.asset
}

// Pool 按标识符索引、带引用计数的资源缓存
//
// 注意：Pool 不是线程安全的，只能在帧循环中访问
type Pool[T any] struct {
	name    string
	load    Loader[T]
	free    Freer[T]
	entries map[string]*entry[T]
	loads   map[string]int
}

// NewPool 创建资源池，name 用作日志前缀，free 可以为 nil
func NewPool[T any](name string, load Loader[T], free Freer[T]) *Pool[T] {
	return &Pool[T]{
		name:    name,
		load:    load,
		free:    free,
		entries: make(map[string]*entry[T]),
		loads:   make(map[string]int),
	}
}

// Acquire 返回 id 的句柄，第一次请求时加载资源
// 加载失败时返回的句柄处于 StatusError 状态
func (p *Pool[T]) Acquire(id string) *Handle[T] {
	e, exists := p.entries[id]
	if !exists {
		e = &entry[T]{id: id}
		asset, err := p.load(id)
		p.loads[id]++
		e.loads = p.loads[id]
		if err != nil {
			log.Printf("[%s] Warning: failed to load %q: %v", p.name, id, err)
			e.err = err
			e.status = StatusError
		} else {
			e.asset = asset
			e.status = StatusReady
		}
		p.entries[id] = e
	}
	e.refs++
	return &Handle[T]{pool: p, e: e}
}

// Clone 返回与 h 共享同一资源的新句柄
func (p *Pool[T]) Clone(h *Handle[T]) *Handle[T] {
	if h == nil || h.e == nil || h.released || h.pool != p || h.e.status == StatusFreed {
		return &Handle[T]{pool: p}
	}
	h.e.refs++
	return &Handle[T]{pool: p, e: h.e}
}

// Release 释放 h 持有的引用，最后一个引用释放时释放资源
// 同一句柄重复释放不做任何事
func (p *Pool[T]) Release(h *Handle[T]) {
	if h == nil || h.e == nil || h.released || h.pool != p {
		return
	}
	h.released = true
	e := h.e
	if e.status == StatusFreed {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	p.dispose(e)
	delete(p.entries, e.id)
}

// Clear 释放所有资源，不论引用计数
// 之后所有未释放的句柄都处于 StatusFreed 状态
func (p *Pool[T]) Clear() {
	for id, e := range p.entries {
		p.dispose(e)
		delete(p.entries, id)
	}
}

func (p *Pool[T]) dispose(e *entry[T]) {
	if e.status == StatusReady && p.free != nil {
		p.free(e.asset)
	}
	var zero T
	e.asset = zero
	e.refs = 0
	e.status = StatusFreed
}

// Len 返回存活资源数量
func (p *Pool[T]) Len() int {
	return len(p.entries)
}

// Refs 返回 id 的存活引用数（不在池中时为 0）
func (p *Pool[T]) Refs(id string) int {
	if e, ok := p.entries[id]; ok {
		return e.refs
	}
	return 0
}

// Loads 返回 id 在资源池生命周期内被加载的次数
func (p *Pool[T]) Loads(id string) int {
	return p.loads[id]
}

// TotalRefs 返回所有存活引用数之和
func (p *Pool[T]) TotalRefs() int {
	n := 0
	for _, e := range p.entries {
		n += e.refs
	}
	return n
}
