package present

import (
	"errors"
	"fmt"
	"log"

	"github.com/decker502/arcadefe/pkg/gamedb"
	"github.com/decker502/arcadefe/pkg/scene"
	"github.com/decker502/arcadefe/pkg/transform"
)

// 以下函数是布局脚本调用的入口，全部作用于当前唯一的活动 Presenter
// 活动 Presenter 由 Open 设置，由 Close 清除

var (
	// ErrNoActivePresenter 在 Open/Close 之外调用脚本入口时返回
	ErrNoActivePresenter = errors.New("no active presenter")
	// ErrBadGeometry 几何参数个数不是 0、2 或 4 时返回
	ErrBadGeometry = errors.New("geometry must be 0, 2 or 4 values")
)

var active *Presenter

// Open 将 p 设为脚本入口的作用对象
func Open(p *Presenter) {
	if active != nil && active != p {
		log.Printf("[Presenter] Warning: replacing the active presenter")
	}
	active = p
}

// Close 清除活动 Presenter 并关闭其 VM
func Close() error {
	p := active
	active = nil
	if p == nil || p.vm == nil {
		return nil
	}
	return p.vm.Close()
}

// Active 返回活动 Presenter，没有时返回 nil
func Active() *Presenter { return active }

func current() (*Presenter, error) {
	if active == nil {
		return nil, ErrNoActivePresenter
	}
	return active, nil
}

// geometry 展开 0、2 (x, y) 或 4 (x, y, w, h) 个值
// 尺寸为 0 表示使用图片原始尺寸
func geometry(geom []int) (x, y, w, h float64, err error) {
	switch len(geom) {
	case 0:
	case 2:
		x, y = float64(geom[0]), float64(geom[1])
	case 4:
		x, y = float64(geom[0]), float64(geom[1])
		w, h = float64(geom[2]), float64(geom[3])
	default:
		err = fmt.Errorf("%w: got %d", ErrBadGeometry, len(geom))
	}
	return
}

// AddImage 添加布局目录中文件的图片
func AddImage(name string, geom ...int) (*scene.Image, error) {
	p, err := current()
	if err != nil {
		return nil, err
	}
	x, y, w, h, err := geometry(geom)
	if err != nil {
		return nil, err
	}
	return p.graph.AddImage(name, x, y, w, h)
}

// AddArtwork 添加显示当前选择 artwork 的图片位
func AddArtwork(label string, geom ...int) (*scene.Image, error) {
	p, err := current()
	if err != nil {
		return nil, err
	}
	x, y, w, h, err := geometry(geom)
	if err != nil {
		return nil, err
	}
	return p.graph.AddArtwork(label, x, y, w, h)
}

// AddClone 复制图片，共享其纹理
func AddClone(src *scene.Image) (*scene.Image, error) {
	p, err := current()
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, errors.New("clone of nil image")
	}
	return p.graph.Clone(src)
}

// AddText 添加文本元素
func AddText(msg string, x, y, w, h int) (*scene.Text, error) {
	p, err := current()
	if err != nil {
		return nil, err
	}
	return p.graph.AddText(msg, float64(x), float64(y), float64(w), float64(h))
}

// AddListBox 添加列表框
func AddListBox(x, y, w, h int) (*scene.ListBox, error) {
	p, err := current()
	if err != nil {
		return nil, err
	}
	return p.graph.AddListBox(float64(x), float64(y), float64(w), float64(h))
}

// AddSound 添加脚本音效
func AddSound(name string) (*scene.Sound, error) {
	p, err := current()
	if err != nil {
		return nil, err
	}
	return p.graph.AddSound(name)
}

// AddTicksCallback 注册每帧调用的函数，参数为布局加载以来的时间
func AddTicksCallback(name string) error {
	p, err := current()
	if err != nil {
		return err
	}
	p.ticks = append(p.ticks, name)
	return nil
}

// AddTransitionCallback 注册每次过渡时调用的函数
func AddTransitionCallback(name string) error {
	p, err := current()
	if err != nil {
		return err
	}
	p.coord.AddCallback(name)
	return nil
}

// IsKeyPressed 判断指定按键是否按下
func IsKeyPressed(name string) bool {
	p, err := current()
	if err != nil {
		return false
	}
	return p.device.IsKeyPressed(name)
}

// IsJoyButtonPressed 判断手柄按钮是否按下
func IsJoyButtonPressed(joy, button int) bool {
	p, err := current()
	if err != nil {
		return false
	}
	return p.device.IsJoyButtonPressed(joy, button)
}

// GetJoyAxisPos 返回手柄轴位置，范围 [-100, 100]
func GetJoyAxisPos(joy int, axis string) int {
	p, err := current()
	if err != nil {
		return 0
	}
	return p.device.JoyAxisPos(joy, axis)
}

// DoNut 执行另一个脚本文件，路径相对布局目录
func DoNut(path string) error {
	p, err := current()
	if err != nil {
		return err
	}
	if p.vm == nil {
		return nil
	}
	return p.vm.RunFile(p.resolveScript(path))
}

// GameInfo 返回与当前选择偏移 offset（默认 0）的游戏的字段
func GameInfo(f gamedb.Field, offset ...int) (string, error) {
	p, err := current()
	if err != nil {
		return "", err
	}
	off := 0
	if len(offset) > 0 {
		off = offset[0]
	}
	return p.games.Info(off, f), nil
}

// FlagRedraw 请求活动 Presenter 重绘
func FlagRedraw() {
	if p, err := current(); err == nil {
		p.FlagRedraw()
	}
}

// Layout 返回活动 Presenter 的布局属性
func Layout() (width, height int, orient transform.Rotation, font string, err error) {
	p, err := current()
	if err != nil {
		return 0, 0, transform.RotateNone, "", err
	}
	return p.LayoutWidth(), p.LayoutHeight(), p.LayoutOrient(), p.LayoutFont(), nil
}

// SetLayoutWidth 设置活动 Presenter 的布局宽度
func SetLayoutWidth(w int) error {
	p, err := current()
	if err != nil {
		return err
	}
	return p.SetLayoutWidth(w)
}

// SetLayoutHeight 设置活动 Presenter 的布局高度
func SetLayoutHeight(h int) error {
	p, err := current()
	if err != nil {
		return err
	}
	return p.SetLayoutHeight(h)
}

// SetLayoutOrient 设置活动 Presenter 的基础旋转
func SetLayoutOrient(r transform.Rotation) error {
	p, err := current()
	if err != nil {
		return err
	}
	return p.SetLayoutOrient(r)
}

// SetLayoutFont 设置活动 Presenter 的布局字体
func SetLayoutFont(name string) error {
	p, err := current()
	if err != nil {
		return err
	}
	return p.SetLayoutFont(name)
}
