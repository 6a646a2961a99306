// Package ease 布局脚本过渡动画使用的缓动曲线
//
// 每条曲线接受 [0, 1] 范围的进度 t，返回 [0, 1] 范围的缓动后进度
// 曲线形状参考 https://easings.net/
package ease

import (
	"math"
	"sort"
)

// Func 缓动曲线
type Func func(t float64) float64

// Linear 匀速
func Linear(t float64) float64 {
	return t
}

// OutCubic 快速开始，缓慢结束：f(t) = 1 - (1-t)³
func OutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// InCubic 缓慢开始：f(t) = t³
func InCubic(t float64) float64 {
	return t * t * t
}

// InOutCubic 两端缓慢
//
//	t < 0.5:  f(t) = 4t³
//	t >= 0.5: f(t) = 1 - (-2t + 2)³ / 2
func InOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// OutQuad 比 OutCubic 更柔和：f(t) = 1 - (1-t)²
func OutQuad(t float64) float64 {
	return 1 - (1-t)*(1-t)
}

// InQuad: f(t) = t²
func InQuad(t float64) float64 {
	return t * t
}

// OutExpo 几乎一下到位：f(t) = 1 - 2^(-10t)
func OutExpo(t float64) float64 {
	if t >= 1.0 {
		return 1.0
	}
	return 1 - math.Pow(2, -10*t)
}

var curves = map[string]Func{
	"linear":       Linear,
	"out_cubic":    OutCubic,
	"in_cubic":     InCubic,
	"in_out_cubic": InOutCubic,
	"out_quad":     OutQuad,
	"in_quad":      InQuad,
	"out_expo":     OutExpo,
}

// ByName 按名称返回曲线
func ByName(name string) (Func, bool) {
	f, ok := curves[name]
	return f, ok
}

// Names 按排序返回所有曲线名称
func Names() []string {
	names := make([]string, 0, len(curves))
	for n := range curves {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Progress 将已用时间与总时长换算为限定范围内的进度
func Progress(elapsed, duration float64) float64 {
	if duration <= 0 {
		return 1
	}
	return Clamp(elapsed / duration)
}

// Clamp 将 t 限制在 [0, 1]
func Clamp(t float64) float64 {
	switch {
	case t < 0:
		return 0
	case t > 1:
		return 1
	}
	return t
}

// Lerp 在 a (t=0) 和 b (t=1) 之间插值
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
