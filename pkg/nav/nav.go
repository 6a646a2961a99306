// Package nav 将方向输入转换为选择步进，处理首次按下与连发的时序
//
// 状态机要么空闲（Idle），要么朝一个方向移动（Moving）。
// 按下后第一步立即生效；第二步等待 InitialDelay（区分快速点按和按住）；
// 之后每一步等待 RepeatInterval。
// 时间由调用方传入，是每帧采样一次的单调时长。
package nav

import "time"

// Direction 当前的导航方向
type Direction int

const (
	// None 表示状态机空闲
	None Direction = iota
	Up
	Down
	PageUp
	PageDown
)

var directionNames = [...]string{"none", "up", "down", "page-up", "page-down"}

func (d Direction) String() string {
	if d < None || d > PageDown {
		return "unknown"
	}
	return directionNames[d]
}

// Opposite 返回与 d 相反的方向
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case PageUp:
		return PageDown
	case PageDown:
		return PageUp
	}
	return None
}

// Offset 返回朝 d 方向走一步的带符号选择偏移
// 翻页使用 pageSize，非正数时按 1 处理
func Offset(d Direction, pageSize int) int {
	if pageSize <= 0 {
		pageSize = 1
	}
	switch d {
	case Up:
		return -1
	case Down:
		return 1
	case PageUp:
		return -pageSize
	case PageDown:
		return pageSize
	}
	return 0
}

// Timing 两个连发阈值
type Timing struct {
	InitialDelay   time.Duration // 控制第一步之后的第二步
	RepeatInterval time.Duration // 控制之后的每一步
}

// Machine 导航状态机
type Machine struct {
	timing Timing

	dir        Direction
	pressStart time.Duration // 首次按下的时间
	lastStep   time.Duration // 上一步生效的时间
	steps      int           // 本次按下已生效的步数
}

// NewMachine 创建空闲的状态机
func NewMachine(timing Timing) *Machine {
	return &Machine{timing: timing}
}

// SetTiming 替换连发阈值
func (m *Machine) SetTiming(timing Timing) {
	m.timing = timing
}

// Direction 返回当前方向（空闲时为 None）
func (m *Machine) Direction() Direction { return m.dir }

// Moving 判断是否有方向处于激活状态
func (m *Machine) Moving() bool { return m.dir != None }

// Steps 返回本次按下已生效的步数
func (m *Machine) Steps() int { return m.steps }

// HeldFor 返回本次按下已持续的时间
func (m *Machine) HeldFor(now time.Duration) time.Duration {
	if m.dir == None {
		return 0
	}
	return now - m.pressStart
}

// Press 处理原始方向事件，返回是否需要立即走一步
// 新方向开始一次按下并立即走一步；当前方向的重复事件按 Poll 的规则控制；
// 相反方向取消当前移动，并朝另一方向开始新的按下
func (m *Machine) Press(d Direction, now time.Duration) bool {
	if d == None {
		m.Release()
		return false
	}
	if d == m.dir {
		return m.Poll(now)
	}
	m.dir = d
	m.pressStart = now
	m.lastStep = now
	m.steps = 1
	return true
}

// Poll 判断按住的方向是否该走下一步：距上一步的时间必须超过当前阈值
func (m *Machine) Poll(now time.Duration) bool {
	if m.dir == None {
		return false
	}
	threshold := m.timing.RepeatInterval
	if m.steps == 1 {
		threshold = m.timing.InitialDelay
	}
	if now-m.lastStep <= threshold {
		return false
	}
	m.lastStep = now
	m.steps++
	return true
}

// Release 将状态机恢复为空闲
// 松开事件和无关命令都会结束移动
func (m *Machine) Release() {
	m.dir = None
	m.steps = 0
}
