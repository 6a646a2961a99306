// Package transition 驱动布局生命周期：布局开始/结束、选择变化、游戏启动/返回，
// 每种过渡都分发给布局脚本注册的过渡回调
//
// 协调器从不阻塞帧循环。进行中的过渡持有一个回调名称的工作列表，
// Step 每帧对工作列表执行一轮，两轮之间画面会重绘。回调返回：
//
//   - Done：该回调已处理完这次过渡（从工作列表移除）
//   - Continue：仍在播放动画，下一帧再次调用（强制重绘）
//   - Handled：过渡已完全处理，不再调用后续回调
//
// 回调出错时记录日志并按 Done 处理。
// 每个过渡有墙钟超时，回调一直不结束时强制推进。
package transition

import (
	"fmt"
	"log"
	"time"
)

// Kind 传给脚本回调的过渡类型
// 数值是脚本 API 的一部分，不能修改
type Kind int

const (
	// StartLayout 从屏保返回时 var = 1，否则为 0
	StartLayout Kind = iota
	// EndLayout 进入屏保时 var = 1，否则为 0
	EndLayout
	// ToNewSelection var = 新选择的带符号索引偏移
	ToNewSelection
	// ToGame var = 0
	ToGame
	// FromGame var = 0
	FromGame
)

var kindNames = [...]string{"StartLayout", "EndLayout", "ToNewSelection", "ToGame", "FromGame"}

func (k Kind) String() string {
	if k < StartLayout || k > FromGame {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// State 协调器的生命周期状态
type State int

const (
	Idle State = iota
	LoadingLayout
	LoadingScreensaver
	SelectionChanging
	EnteringGame
	ReturningFromGame
	EndingLayout
)

var stateNames = [...]string{"Idle", "LoadingLayout", "LoadingScreensaver", "SelectionChanging",
	"EnteringGame", "ReturningFromGame", "EndingLayout"}

func (s State) String() string {
	if s < Idle || s > EndingLayout {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Result 过渡回调单次调用的返回结果
type Result int

const (
	Done Result = iota
	Continue
	Handled
)

// Invoker 按名称调用脚本过渡回调
type Invoker interface {
	InvokeTransition(name string, kind Kind, v int, elapsed time.Duration) (Result, error)
}

// Request 描述一次要执行的过渡
type Request struct {
	State State
	Kind  Kind
	Var   int
	// Then 在过渡完成、超时或被抢占放弃时恰好执行一次
	// 可以在其中排入新的请求
	Then func()
}

type flight struct {
	req      Request
	worklist []string
	started  time.Duration
}

// maxChain 单次 Step 内最多完成的过渡数
const maxChain = 16

// Coordinator 逐个执行过渡
type Coordinator struct {
	invoker   Invoker
	timeout   time.Duration
	callbacks []string

	queue  []Request
	cur    *flight
	redraw bool
}

// NewCoordinator 创建空闲的协调器
func NewCoordinator(invoker Invoker, timeout time.Duration) *Coordinator {
	return &Coordinator{invoker: invoker, timeout: timeout}
}

// SetTimeout 修改每个过渡的墙钟超时
func (c *Coordinator) SetTimeout(d time.Duration) { c.timeout = d }

// AddCallback 注册过渡回调名称，回调按注册顺序调用
func (c *Coordinator) AddCallback(name string) {
	c.callbacks = append(c.callbacks, name)
}

// Callbacks 返回已注册的回调名称
func (c *Coordinator) Callbacks() []string {
	return append([]string(nil), c.callbacks...)
}

// ClearCallbacks 清除所有已注册的回调（布局卸载时）
// 进行中的过渡保留自己的工作列表
func (c *Coordinator) ClearCallbacks() {
	c.callbacks = nil
}

// State 返回进行中过渡的状态，没有时返回 Idle
func (c *Coordinator) State() State {
	if c.cur == nil {
		return Idle
	}
	return c.cur.req.State
}

// Busy 判断是否有进行中或排队的过渡
func (c *Coordinator) Busy() bool {
	return c.cur != nil || len(c.queue) > 0
}

// Pending 判断类型为 k 的过渡是否在进行中或排队
func (c *Coordinator) Pending(k Kind) bool {
	if c.cur != nil && c.cur.req.Kind == k {
		return true
	}
	for _, r := range c.queue {
		if r.Kind == k {
			return true
		}
	}
	return false
}

// Run 将 req 排在队列末尾
func (c *Coordinator) Run(req Request) {
	c.queue = append(c.queue, req)
}

// Preempt 放弃进行中的过渡（剩余回调不再调用，Then 仍会执行），
// 并将 req 放到队列最前面
func (c *Coordinator) Preempt(req Request) {
	if f := c.cur; f != nil {
		log.Printf("[Transition] %s superseded by %s, dropping %d pending callbacks",
			f.req.Kind, req.Kind, len(f.worklist))
		c.finish(f)
	}
	c.queue = append([]Request{req}, c.queue...)
}

// FlagRedraw 回调在不结束过渡的情况下请求重绘
func (c *Coordinator) FlagRedraw() {
	c.redraw = true
}

// TakeRedraw 返回并清除重绘请求
func (c *Coordinator) TakeRedraw() bool {
	r := c.redraw
	c.redraw = false
	return r
}

// Step 在时间 now 将协调器推进一帧，返回之后是否仍有过渡在进行
func (c *Coordinator) Step(now time.Duration) bool {
	for i := 0; i < maxChain; i++ {
		if c.cur == nil {
			if len(c.queue) == 0 {
				return false
			}
			req := c.queue[0]
			c.queue = c.queue[1:]
			c.cur = &flight{
				req:      req,
				worklist: append([]string(nil), c.callbacks...),
				started:  now,
			}
		}

		f := c.cur
		c.pass(f, now)
		if c.cur == f {
			// 仍在进行，等待下一帧
			return true
		}
	}
	return c.cur != nil
}

// pass 对 f 的工作列表执行一轮
func (c *Coordinator) pass(f *flight, now time.Duration) {
	elapsed := now - f.started
	if c.timeout > 0 && elapsed > c.timeout {
		log.Printf("[Transition] Warning: %s timed out after %v with %d callbacks pending, forcing completion",
			f.req.Kind, elapsed, len(f.worklist))
		c.finish(f)
		return
	}

	kept := f.worklist[:0]
	for _, name := range f.worklist {
		res, err := c.invoker.InvokeTransition(name, f.req.Kind, f.req.Var, elapsed)
		if c.cur != f {
			// 回调抢占了当前过渡，工作列表已失效
			return
		}
		if err != nil {
			log.Printf("[Transition] Warning: callback %s failed during %s: %v", name, f.req.Kind, err)
			continue
		}
		switch res {
		case Handled:
			f.worklist = nil
			c.finish(f)
			return
		case Continue:
			kept = append(kept, name)
			c.redraw = true
		}
	}
	f.worklist = kept
	if len(f.worklist) == 0 {
		c.finish(f)
	}
}

func (c *Coordinator) finish(f *flight) {
	if c.cur == f {
		c.cur = nil
	}
	if then := f.req.Then; then != nil {
		f.req.Then = nil
		then()
	}
}

// maxFlushPasses 未配置超时时 Flush 的最大轮数
const maxFlushPasses = 1000

// Flush 不重绘地执行完所有排队的过渡，超时使用 clock 计时
// 用于退出时，之后不会再有新的帧
func (c *Coordinator) Flush(clock func() time.Duration) {
	for n := 0; c.Busy(); n++ {
		if n >= maxFlushPasses {
			if f := c.cur; f != nil {
				log.Printf("[Transition] Warning: abandoning %s during flush", f.req.Kind)
				c.finish(f)
			}
			c.queue = nil
			return
		}
		c.Step(clock())
	}
}
