// Package input 将键盘和手柄状态映射为前端命令，并响应布局脚本的原始设备查询
package input

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Command 由原始输入产生的前端命令
type Command int

const (
	None Command = iota
	Up
	Down
	PageUp
	PageDown
	Select
	Back
	RotateRight
	RotateFlip
	RotateLeft
	ToggleMovie
	ToggleMute
	Screensaver
)

var commandNames = [...]string{"none", "up", "down", "page_up", "page_down", "select", "back",
	"rotate_right", "flip", "rotate_left", "toggle_movie", "toggle_mute", "screen_saver"}

func (c Command) String() string {
	if c < None || c > Screensaver {
		return "unknown"
	}
	return commandNames[c]
}

// IsDirectional 判断 c 是否移动选择
func (c Command) IsDirectional() bool {
	return c >= Up && c <= PageDown
}

// Event 一次命令边沿，松开时 Pressed 为 false
type Event struct {
	Command Command
	Pressed bool
}

// Bindings 按键和标准手柄按钮到命令的映射
type Bindings struct {
	Keys    map[ebiten.Key]Command
	Buttons map[ebiten.StandardGamepadButton]Command
}

// DefaultBindings 返回内置映射
func DefaultBindings() Bindings {
	return Bindings{
		Keys: map[ebiten.Key]Command{
			ebiten.KeyArrowUp:    Up,
			ebiten.KeyArrowDown:  Down,
			ebiten.KeyArrowLeft:  PageUp,
			ebiten.KeyArrowRight: PageDown,
			ebiten.KeyPageUp:     PageUp,
			ebiten.KeyPageDown:   PageDown,
			ebiten.KeyEnter:      Select,
			ebiten.KeyEscape:     Back,
			ebiten.KeyR:          RotateRight,
			ebiten.KeyF:          RotateFlip,
			ebiten.KeyL:          RotateLeft,
			ebiten.KeyV:          ToggleMovie,
			ebiten.KeyM:          ToggleMute,
			ebiten.KeyS:          Screensaver,
		},
		Buttons: map[ebiten.StandardGamepadButton]Command{
			ebiten.StandardGamepadButtonLeftTop:     Up,
			ebiten.StandardGamepadButtonLeftBottom:  Down,
			ebiten.StandardGamepadButtonLeftLeft:    PageUp,
			ebiten.StandardGamepadButtonLeftRight:   PageDown,
			ebiten.StandardGamepadButtonRightBottom: Select,
			ebiten.StandardGamepadButtonRightRight:  Back,
		},
	}
}

// Events 将按键边沿转换为命令事件，松开在前
func (b Bindings) Events(pressed, released []ebiten.Key) []Event {
	var out []Event
	for _, k := range released {
		if c, ok := b.Keys[k]; ok {
			out = append(out, Event{Command: c})
		}
	}
	for _, k := range pressed {
		if c, ok := b.Keys[k]; ok {
			out = append(out, Event{Command: c, Pressed: true})
		}
	}
	return out
}

// Poller 从 ebiten 收集本帧的命令事件
type Poller struct {
	bindings Bindings
	keys     []ebiten.Key
	released []ebiten.Key
	pads     []ebiten.GamepadID
}

// NewPoller 使用 b 创建 Poller
func NewPoller(b Bindings) *Poller {
	return &Poller{bindings: b}
}

// Poll 返回当前帧的命令边沿，每次 Update 调用一次
func (p *Poller) Poll() []Event {
	p.keys = inpututil.AppendJustPressedKeys(p.keys[:0])
	p.released = inpututil.AppendJustReleasedKeys(p.released[:0])
	events := p.bindings.Events(p.keys, p.released)

	p.pads = ebiten.AppendGamepadIDs(p.pads[:0])
	for _, id := range p.pads {
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		for b, c := range p.bindings.Buttons {
			if inpututil.IsStandardGamepadButtonJustReleased(id, b) {
				events = append(events, Event{Command: c})
			}
			if inpututil.IsStandardGamepadButtonJustPressed(id, b) {
				events = append(events, Event{Command: c, Pressed: true})
			}
		}
	}
	return events
}

// Any 判断本帧是否有按键或手柄按钮按下
func (p *Poller) Any() bool {
	if len(inpututil.AppendJustPressedKeys(nil)) > 0 {
		return true
	}
	for _, id := range ebiten.AppendGamepadIDs(nil) {
		if len(inpututil.AppendJustPressedGamepadButtons(id, nil)) > 0 {
			return true
		}
	}
	return false
}
