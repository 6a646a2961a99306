package input

import (
	"math"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// Device 响应布局脚本的原始输入状态查询
type Device interface {
	IsKeyPressed(name string) bool
	IsJoyButtonPressed(joy, button int) bool
	// JoyAxisPos 返回缩放到 [-100, 100] 的轴位置
	JoyAxisPos(joy int, axis string) int
}

// keyAliases 与 ebiten 不同的常用按键名称
var keyAliases = map[string]ebiten.Key{
	"up":       ebiten.KeyArrowUp,
	"down":     ebiten.KeyArrowDown,
	"left":     ebiten.KeyArrowLeft,
	"right":    ebiten.KeyArrowRight,
	"return":   ebiten.KeyEnter,
	"esc":      ebiten.KeyEscape,
	"lcontrol": ebiten.KeyControlLeft,
	"rcontrol": ebiten.KeyControlRight,
	"lshift":   ebiten.KeyShiftLeft,
	"rshift":   ebiten.KeyShiftRight,
	"lalt":     ebiten.KeyAltLeft,
	"ralt":     ebiten.KeyAltRight,
}

var axisNames = map[string]int{"x": 0, "y": 1, "z": 2, "r": 3, "u": 4, "v": 5}

// ParseKey 解析按键名称：先查别名，再查 ebiten 自身的名称
func ParseKey(name string) (ebiten.Key, bool) {
	if k, ok := keyAliases[strings.ToLower(name)]; ok {
		return k, true
	}
	var k ebiten.Key
	if err := k.UnmarshalText([]byte(name)); err != nil {
		return 0, false
	}
	return k, true
}

// ParseAxis 将轴名称（X、Y、Z、R、U、V）解析为索引
func ParseAxis(name string) (int, bool) {
	a, ok := axisNames[strings.ToLower(name)]
	return a, ok
}

// EbitenDevice 查询 ebiten 的实时输入状态
type EbitenDevice struct{}

func (EbitenDevice) IsKeyPressed(name string) bool {
	k, ok := ParseKey(name)
	return ok && ebiten.IsKeyPressed(k)
}

func (EbitenDevice) IsJoyButtonPressed(joy, button int) bool {
	id, ok := gamepad(joy)
	if !ok || button < 0 || button >= ebiten.GamepadButtonCount(id) {
		return false
	}
	return ebiten.IsGamepadButtonPressed(id, ebiten.GamepadButton(button))
}

func (EbitenDevice) JoyAxisPos(joy int, axis string) int {
	id, ok := gamepad(joy)
	if !ok {
		return 0
	}
	a, ok := ParseAxis(axis)
	if !ok || a >= ebiten.GamepadAxisCount(id) {
		return 0
	}
	return int(math.Round(ebiten.GamepadAxisValue(id, ebiten.GamepadAxisType(a)) * 100))
}

func gamepad(joy int) (ebiten.GamepadID, bool) {
	ids := ebiten.AppendGamepadIDs(nil)
	if joy < 0 || joy >= len(ids) {
		return 0, false
	}
	return ids[joy], true
}
