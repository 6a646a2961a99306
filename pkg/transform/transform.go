// Package transform 计算当前屏幕方向下布局到输出画面的变换
//
// 组合变换分三步：
//
//  1. 将布局声明的尺寸按两个轴分别缩放到有效输出尺寸（布局和输出的宽高比可以不同）
//  2. 旋转 90/270 度时，有效输出尺寸是宽高互换后的画面尺寸，旋转后的内容仍然铺满画面
//  3. 以画面中心为原点按有效旋转角度旋转，有效旋转 = 基础旋转与切换旋转的组合
package transform

import (
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// Rotation 以 90 度为单位的屏幕方向（屏幕上顺时针）
type Rotation int

const (
	// RotateNone 布局保持正向
	RotateNone Rotation = iota
	// RotateRight 布局顺时针旋转 90 度
	RotateRight
	// RotateFlip 布局上下颠倒
	RotateFlip
	// RotateLeft 布局顺时针旋转 270 度
	RotateLeft
)

var rotationNames = [...]string{"none", "right", "flip", "left"}

// String 返回旋转在设置文件中的名称
func (r Rotation) String() string {
	return rotationNames[r.normalize()]
}

// ParseRotation 解析设置中的名称或角度值
func ParseRotation(s string) (Rotation, error) {
	switch s {
	case "", "none", "0":
		return RotateNone, nil
	case "right", "90":
		return RotateRight, nil
	case "flip", "180":
		return RotateFlip, nil
	case "left", "270":
		return RotateLeft, nil
	}
	return RotateNone, fmt.Errorf("unknown rotation %q", s)
}

func (r Rotation) normalize() Rotation {
	return ((r % 4) + 4) % 4
}

// Compose 在 r 之后应用 t，两次翻转相互抵消为 RotateNone
func Compose(r, t Rotation) Rotation {
	return (r + t).normalize()
}

// Inverse 返回与 r 组合后为 RotateNone 的旋转
func (r Rotation) Inverse() Rotation {
	return (4 - r.normalize()).normalize()
}

// Degrees 返回旋转角度
func (r Rotation) Degrees() int {
	return int(r.normalize()) * 90
}

// Swaps 判断旋转是否交换宽高
func (r Rotation) Swaps() bool {
	n := r.normalize()
	return n == RotateRight || n == RotateLeft
}

// Size 以像素为单位的宽高
type Size struct {
	W, H int
}

// Compute 返回给定基础旋转和切换旋转下，布局坐标到输出画面的组合变换
//
// 布局尺寸为 0 的轴视为等于有效输出尺寸，未初始化的布局按 1:1 绘制
func Compute(base, toggle Rotation, layout, surface Size) ebiten.GeoM {
	rot := Compose(base, toggle)

	ew, eh := float64(surface.W), float64(surface.H)
	if rot.Swaps() {
		ew, eh = eh, ew
	}

	sx, sy := 1.0, 1.0
	if layout.W > 0 {
		sx = ew / float64(layout.W)
	}
	if layout.H > 0 {
		sy = eh / float64(layout.H)
	}

	var g ebiten.GeoM
	g.Scale(sx, sy)
	if rot == RotateNone {
		return g
	}
	g.Translate(-ew/2, -eh/2)
	g.Rotate(float64(rot.Degrees()) * math.Pi / 180)
	g.Translate(float64(surface.W)/2, float64(surface.H)/2)
	return g
}

// Engine 缓存组合变换，只在输入变化时重新计算
type Engine struct {
	base    Rotation
	toggle  Rotation
	layout  Size
	surface Size

	geo   ebiten.GeoM
	dirty bool
}

// NewEngine 以给定的基础旋转和画面尺寸创建 Engine
func NewEngine(base Rotation, surface Size) *Engine {
	return &Engine{
		base:    base.normalize(),
		surface: surface,
		layout:  surface,
		dirty:   true,
	}
}

// Base 返回持久的基础旋转
func (e *Engine) Base() Rotation { return e.base }

// ToggleState 返回临时的切换旋转
func (e *Engine) ToggleState() Rotation { return e.toggle }

// Effective 返回基础旋转与切换旋转的组合
func (e *Engine) Effective() Rotation { return Compose(e.base, e.toggle) }

// SetBase 修改基础旋转，切换旋转总是重置为 none
func (e *Engine) SetBase(r Rotation) {
	r = r.normalize()
	if r != e.base || e.toggle != RotateNone {
		e.base = r
		e.toggle = RotateNone
		e.dirty = true
	}
}

// Toggle 将切换旋转设为 candidate，已经等于 candidate 时恢复为 none
// 重复调用是开-关切换，不会累加
func (e *Engine) Toggle(candidate Rotation) {
	candidate = candidate.normalize()
	if e.toggle == candidate {
		e.toggle = RotateNone
	} else {
		e.toggle = candidate
	}
	e.dirty = true
}

// SetToggle 直接设置切换旋转，不做开关切换
func (e *Engine) SetToggle(r Rotation) {
	r = r.normalize()
	if r != e.toggle {
		e.toggle = r
		e.dirty = true
	}
}

// SetLayoutSize 记录布局声明的尺寸
func (e *Engine) SetLayoutSize(s Size) {
	if s != e.layout {
		e.layout = s
		e.dirty = true
	}
}

// LayoutSize 返回布局声明的尺寸
func (e *Engine) LayoutSize() Size { return e.layout }

// SetSurfaceSize 记录输出画面尺寸
func (e *Engine) SetSurfaceSize(s Size) {
	if s != e.surface {
		e.surface = s
		e.dirty = true
	}
}

// SurfaceSize 返回输出画面尺寸
func (e *Engine) SurfaceSize() Size { return e.surface }

// GeoM 返回缓存的组合变换
func (e *Engine) GeoM() ebiten.GeoM {
	if e.dirty {
		e.geo = Compute(e.base, e.toggle, e.layout, e.surface)
		e.dirty = false
	}
	return e.geo
}

// Scale 返回当前状态下布局到输出的缩放系数
func (e *Engine) Scale() (float64, float64) {
	ew, eh := float64(e.surface.W), float64(e.surface.H)
	if e.Effective().Swaps() {
		ew, eh = eh, ew
	}
	sx, sy := 1.0, 1.0
	if e.layout.W > 0 {
		sx = ew / float64(e.layout.W)
	}
	if e.layout.H > 0 {
		sy = eh / float64(e.layout.H)
	}
	return sx, sy
}
