// Package scene 管理布局脚本构建的元素：图片与 artwork、文本、列表框和脚本音效
//
// 元素保存在 Graph 持有的有序切片中，注册顺序就是绘制顺序，后注册的元素画在上面。
// 只有在构建阶段（布局加载期间）才能添加元素；
// Clear 是销毁元素的唯一途径，并且总是同时释放图片和音频资源池。
package scene

import (
	"errors"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	ebaudio "github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/decker502/arcadefe/pkg/gamedb"
	"github.com/decker502/arcadefe/pkg/resource"
)

// ErrNotConstructing 在布局构建阶段之外添加元素时返回
var ErrNotConstructing = errors.New("scene is not open for construction")

// ErrReleased 操作的元素已被 Clear 移除时返回
var ErrReleased = errors.New("element was removed from the scene")

// Games 当前游戏列表的只读视图
type Games interface {
	Name() string
	Size() int
	Index() int
	Info(offset int, f gamedb.Field) string
}

// ArtworkSource 返回 artwork 标签对应的搜索目录
type ArtworkSource interface {
	ArtworkDirs(label string) []string
}

// Context 同一 Graph 中所有元素共享的状态
type Context struct {
	Games    Games
	Artwork  ArtworkSource
	Textures *resource.TexturePool
	Sounds   *resource.SoundPool
	Audio    *ebaudio.Context // 为 nil 时禁用音效播放
	Font     *Font

	Mute       bool
	PlayMovies bool
	// MoviesReady 选择静止足够久、可以开始播放视频时置位
	MoviesReady bool
}

// Element 场景中的一个可呈现单元
type Element interface {
	// Update 将元素推进 dt，返回是否有可见变化
	Update(ctx *Context, dt time.Duration) bool
	// Draw 以布局坐标绘制元素，并应用 geo 变换
	Draw(dst *ebiten.Image, geo ebiten.GeoM)
	// OnNewSelection 刷新与当前选择相关的内容
	OnNewSelection(ctx *Context)
	// Release 释放元素持有的池资源
	Release()
}

// Graph 当前布局的有序元素序列
type Graph struct {
	ctx     *Context
	elems   []Element
	sounds  []*Sound
	listBox *ListBox
	open    bool
}

// NewGraph 基于 ctx 创建空的、未开放构建的 Graph
func NewGraph(ctx *Context) *Graph {
	if ctx.Font == nil {
		ctx.Font = DefaultFont()
	}
	return &Graph{ctx: ctx}
}

// Context 返回元素共享的上下文
func (g *Graph) Context() *Context { return g.ctx }

// Open 开始构建阶段
func (g *Graph) Open() { g.open = true }

// Close 结束构建阶段
func (g *Graph) Close() { g.open = false }

// Constructing 判断当前是否可以添加元素
func (g *Graph) Constructing() bool { return g.open }

// Len 返回元素数量
func (g *Graph) Len() int { return len(g.elems) }

// Elements 按绘制顺序返回元素
func (g *Graph) Elements() []Element {
	return append([]Element(nil), g.elems...)
}

// ListBox 返回最后注册的列表框，没有时返回 nil
func (g *Graph) ListBox() *ListBox { return g.listBox }

// Sounds 返回脚本音效
func (g *Graph) Sounds() []*Sound {
	return append([]*Sound(nil), g.sounds...)
}

func (g *Graph) add(e Element) {
	g.elems = append(g.elems, e)
}

// AddImage 添加从文件加载的图片
func (g *Graph) AddImage(name string, x, y, w, h float64) (*Image, error) {
	if !g.open {
		return nil, g.reject("image " + name)
	}
	img := newImage(g, x, y, w, h)
	img.SetFile(name)
	g.add(img)
	return img, nil
}

// AddArtwork 添加显示当前选择 artwork 的图片
func (g *Graph) AddArtwork(label string, x, y, w, h float64) (*Image, error) {
	if !g.open {
		return nil, g.reject("artwork " + label)
	}
	img := newImage(g, x, y, w, h)
	img.label = label
	img.OnNewSelection(g.ctx)
	g.add(img)
	return img, nil
}

// Clone 复制 src，共享其纹理
func (g *Graph) Clone(src *Image) (*Image, error) {
	if !g.open {
		return nil, g.reject("clone")
	}
	if src.released {
		log.Printf("[Scene] Warning: rejected clone of a removed image %s", src.file)
		return nil, ErrReleased
	}
	c := src.clone()
	g.add(c)
	return c, nil
}

// AddText 添加文本元素
func (g *Graph) AddText(msg string, x, y, w, h float64) (*Text, error) {
	if !g.open {
		return nil, g.reject("text")
	}
	t := newText(g, msg, x, y, w, h)
	t.OnNewSelection(g.ctx)
	g.add(t)
	return t, nil
}

// AddListBox 添加列表框，最后添加的列表框决定翻页大小
func (g *Graph) AddListBox(x, y, w, h float64) (*ListBox, error) {
	if !g.open {
		return nil, g.reject("listbox")
	}
	lb := newListBox(g, x, y, w, h)
	lb.OnNewSelection(g.ctx)
	g.add(lb)
	g.listBox = lb
	return lb, nil
}

// AddSound 添加脚本音效
func (g *Graph) AddSound(name string) (*Sound, error) {
	if !g.open {
		return nil, g.reject("sound " + name)
	}
	s := newSound(g, name)
	g.add(s)
	g.sounds = append(g.sounds, s)
	return s, nil
}

func (g *Graph) reject(what string) error {
	log.Printf("[Scene] Warning: rejected %s outside layout construction", what)
	return ErrNotConstructing
}

// Update 按注册顺序推进所有元素，返回是否有元素发生可见变化
func (g *Graph) Update(dt time.Duration) bool {
	changed := false
	for _, e := range g.elems {
		if e.Update(g.ctx, dt) {
			changed = true
		}
	}
	return changed
}

// Draw 按注册顺序绘制所有元素
func (g *Graph) Draw(dst *ebiten.Image, geo ebiten.GeoM) {
	for _, e := range g.elems {
		e.Draw(dst, geo)
	}
}

// OnNewSelection 选择变化后刷新所有元素
func (g *Graph) OnNewSelection() {
	for _, e := range g.elems {
		e.OnNewSelection(g.ctx)
	}
}

// SetMute 将静音状态应用到所有脚本音效
func (g *Graph) SetMute(mute bool) {
	g.ctx.Mute = mute
	for _, s := range g.sounds {
		s.applyVolume()
	}
}

// StopSounds 停止所有脚本音效
func (g *Graph) StopSounds() {
	for _, s := range g.sounds {
		s.SetPlaying(false)
	}
}

// StopMovies 停止所有视频
func (g *Graph) StopMovies() {
	g.ctx.MoviesReady = false
	for _, e := range g.elems {
		if img, ok := e.(*Image); ok {
			img.stopMovie()
		}
	}
}

// Clear 销毁所有元素并清空两个资源池
func (g *Graph) Clear() {
	for _, e := range g.elems {
		e.Release()
	}
	g.elems = nil
	g.sounds = nil
	g.listBox = nil
	if g.ctx.Textures != nil {
		g.ctx.Textures.Clear()
	}
	if g.ctx.Sounds != nil {
		g.ctx.Sounds.Clear()
	}
}
