package scene

import (
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// Align 文本在框内的水平对齐方式
type Align int

const (
	AlignCentre Align = iota
	AlignLeft
	AlignRight
)

var alignNames = [...]string{"centre", "left", "right"}

func (a Align) String() string {
	if a < AlignCentre || a > AlignRight {
		return "unknown"
	}
	return alignNames[a]
}

// Text 文本元素，模板中可以包含魔术标记
type Text struct {
	g *Graph

	template    string
	rendered    string
	x, y, w, h  float64
	charSize    float64 // 为 0 时根据框高度选择字号
	align       Align
	rgba        color.NRGBA
	bg          color.NRGBA
	visible     bool
	indexOffset int

	font  *Font
	dirty bool
}

func newText(g *Graph, msg string, x, y, w, h float64) *Text {
	return &Text{
		g:        g,
		template: msg,
		x:        x,
		y:        y,
		w:        w,
		h:        h,
		rgba:     color.NRGBA{255, 255, 255, 255},
		visible:  true,
		font:     g.ctx.Font,
		dirty:    true,
	}
}

func (t *Text) Template() string        { return t.template }
func (t *Text) Rendered() string        { return t.rendered }
func (t *Text) X() float64              { return t.x }
func (t *Text) Y() float64              { return t.y }
func (t *Text) Width() float64          { return t.w }
func (t *Text) Height() float64         { return t.h }
func (t *Text) CharSize() float64       { return t.charSize }
func (t *Text) Align() Align            { return t.align }
func (t *Text) Color() color.NRGBA      { return t.rgba }
func (t *Text) Background() color.NRGBA { return t.bg }
func (t *Text) Visible() bool           { return t.visible }
func (t *Text) IndexOffset() int        { return t.indexOffset }

func (t *Text) SetPos(x, y float64)         { t.x, t.y = x, y }
func (t *Text) SetSize(w, h float64)        { t.w, t.h = w, h }
func (t *Text) SetCharSize(s float64)       { t.charSize = s }
func (t *Text) SetAlign(a Align)            { t.align = a }
func (t *Text) SetColor(c color.NRGBA)      { t.rgba = c }
func (t *Text) SetBackground(c color.NRGBA) { t.bg = c }
func (t *Text) SetVisible(v bool)           { t.visible = v }

// SetTemplate 替换文本，标记在下次更新时展开
func (t *Text) SetTemplate(msg string) {
	if msg != t.template {
		t.template = msg
		t.dirty = true
	}
}

// SetIndexOffset 修改标记引用的游戏
func (t *Text) SetIndexOffset(off int) {
	if off != t.indexOffset {
		t.indexOffset = off
		t.dirty = true
	}
}

// Update 在模板或字体变化时重新展开
func (t *Text) Update(ctx *Context, dt time.Duration) bool {
	if t.font != ctx.Font {
		t.font = ctx.Font
		t.dirty = true
	}
	if !t.dirty {
		return false
	}
	t.rendered = Expand(t.template, ctx.Games, t.indexOffset)
	t.dirty = false
	return t.visible
}

// OnNewSelection 重新展开模板
func (t *Text) OnNewSelection(ctx *Context) {
	t.rendered = Expand(t.template, ctx.Games, t.indexOffset)
	t.dirty = false
}

func (t *Text) size() float64 {
	if t.charSize > 0 {
		return t.charSize
	}
	if t.h > 0 {
		return t.h * 0.8
	}
	return basicHeight
}

// Draw 绘制背景框和文本
func (t *Text) Draw(dst *ebiten.Image, geo ebiten.GeoM) {
	if !t.visible {
		return
	}
	if t.bg.A > 0 {
		fillRect(dst, geo, t.x, t.y, t.w, t.h, t.bg)
	}
	if t.rendered == "" || t.rgba.A == 0 {
		return
	}
	drawLine(dst, geo, t.font, t.rendered, t.x, t.y, t.w, t.h, t.size(), t.align, t.rgba)
}

// Release 不做任何事，文本不持有池资源
func (t *Text) Release() {}

// drawLine 在 (x, y, w, h) 框内垂直居中绘制 s
func drawLine(dst *ebiten.Image, geo ebiten.GeoM, f *Font, s string,
	x, y, w, h, size float64, align Align, c color.NRGBA) {
	face, scale := f.Face(size)
	op := &text.DrawOptions{}
	op.GeoM.Scale(scale, scale)

	tx := x
	switch align {
	case AlignCentre:
		op.PrimaryAlign = text.AlignCenter
		tx = x + w/2
	case AlignRight:
		op.PrimaryAlign = text.AlignEnd
		tx = x + w
	}
	op.SecondaryAlign = text.AlignCenter
	op.GeoM.Translate(tx, y+h/2)
	op.GeoM.Concat(geo)
	op.ColorScale.ScaleWithColor(c)
	text.Draw(dst, s, face, op)
}

var whitePixel *ebiten.Image

// fillRect 在 geo 变换下填充布局坐标中的矩形
func fillRect(dst *ebiten.Image, geo ebiten.GeoM, x, y, w, h float64, c color.NRGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	if whitePixel == nil {
		whitePixel = ebiten.NewImage(1, 1)
		whitePixel.Fill(color.White)
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(w, h)
	op.GeoM.Translate(x, y)
	op.GeoM.Concat(geo)
	op.ColorScale.ScaleWithColor(c)
	dst.DrawImage(whitePixel, op)
}
