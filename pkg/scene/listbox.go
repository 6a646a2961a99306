package scene

import (
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/mattn/go-runewidth"
)

// DefaultRows 新列表框的行数
const DefaultRows = 11

// ListBox 以当前选择为中心显示游戏列表的一段窗口
type ListBox struct {
	g *Graph

	x, y, w, h float64
	rows       int
	format     string
	charSize   float64
	align      Align
	rgba       color.NRGBA
	bg         color.NRGBA
	selRGBA    color.NRGBA
	selBg      color.NRGBA
	visible    bool

	entries []string
	sel     int // 当前选择所在的行，列表为空时为 -1
	font    *Font
	dirty   bool
}

func newListBox(g *Graph, x, y, w, h float64) *ListBox {
	return &ListBox{
		g:       g,
		x:       x,
		y:       y,
		w:       w,
		h:       h,
		rows:    DefaultRows,
		format:  "[Title]",
		rgba:    color.NRGBA{255, 255, 255, 255},
		selRGBA: color.NRGBA{255, 255, 0, 255},
		selBg:   color.NRGBA{0, 0, 200, 200},
		visible: true,
		font:    g.ctx.Font,
		sel:     -1,
	}
}

// PageSize 行数，用于翻页
func (lb *ListBox) PageSize() int { return lb.rows }

// Rows 返回行数
func (lb *ListBox) Rows() int { return lb.rows }

// Entries 返回上次刷新后的各行文本
func (lb *ListBox) Entries() []string { return append([]string(nil), lb.entries...) }

// SelectedRow 返回显示当前选择的行，没有时返回 -1
func (lb *ListBox) SelectedRow() int { return lb.sel }

func (lb *ListBox) X() float64                 { return lb.x }
func (lb *ListBox) Y() float64                 { return lb.y }
func (lb *ListBox) Width() float64             { return lb.w }
func (lb *ListBox) Height() float64            { return lb.h }
func (lb *ListBox) Format() string             { return lb.format }
func (lb *ListBox) Visible() bool              { return lb.visible }
func (lb *ListBox) CharSize() float64          { return lb.charSize }
func (lb *ListBox) Align() Align               { return lb.align }
func (lb *ListBox) Color() color.NRGBA         { return lb.rgba }
func (lb *ListBox) Background() color.NRGBA    { return lb.bg }
func (lb *ListBox) SelColor() color.NRGBA      { return lb.selRGBA }
func (lb *ListBox) SelBackground() color.NRGBA { return lb.selBg }

func (lb *ListBox) SetPos(x, y float64)            { lb.x, lb.y = x, y }
func (lb *ListBox) SetSize(w, h float64)           { lb.w, lb.h = w, h }
func (lb *ListBox) SetCharSize(s float64)          { lb.charSize = s }
func (lb *ListBox) SetAlign(a Align)               { lb.align = a }
func (lb *ListBox) SetColor(c color.NRGBA)         { lb.rgba = c }
func (lb *ListBox) SetBackground(c color.NRGBA)    { lb.bg = c }
func (lb *ListBox) SetSelColor(c color.NRGBA)      { lb.selRGBA = c }
func (lb *ListBox) SetSelBackground(c color.NRGBA) { lb.selBg = c }
func (lb *ListBox) SetVisible(v bool)              { lb.visible = v }

// SetRows 修改行数（至少为 1）
func (lb *ListBox) SetRows(n int) {
	if n < 1 {
		n = 1
	}
	if n != lb.rows {
		lb.rows = n
		lb.dirty = true
	}
}

// SetFormat 修改行模板
func (lb *ListBox) SetFormat(f string) {
	if f != lb.format {
		lb.format = f
		lb.dirty = true
	}
}

// Refresh 重建各行
// 比列表框短的列表不回绕显示，更长的列表首尾回绕
func (lb *ListBox) Refresh(games Games) {
	lb.entries = lb.entries[:0]
	lb.sel = -1
	lb.dirty = false
	if games == nil || games.Size() == 0 {
		return
	}
	size, idx := games.Size(), games.Index()
	half := lb.rows / 2
	for row := 0; row < lb.rows; row++ {
		off := row - half
		if size < lb.rows {
			if i := idx + off; i < 0 || i >= size {
				lb.entries = append(lb.entries, "")
				continue
			}
		}
		if off == 0 {
			lb.sel = row
		}
		lb.entries = append(lb.entries, Expand(lb.format, games, off))
	}
}

// Update 在格式、行数或字体变化时重建各行
func (lb *ListBox) Update(ctx *Context, dt time.Duration) bool {
	if lb.font != ctx.Font {
		lb.font = ctx.Font
		lb.dirty = true
	}
	if !lb.dirty {
		return false
	}
	lb.Refresh(ctx.Games)
	return lb.visible
}

// OnNewSelection 重新以选择为中心
func (lb *ListBox) OnNewSelection(ctx *Context) {
	lb.Refresh(ctx.Games)
}

func (lb *ListBox) rowHeight() float64 {
	return lb.h / float64(lb.rows)
}

func (lb *ListBox) size() float64 {
	if lb.charSize > 0 {
		return lb.charSize
	}
	return lb.rowHeight() * 0.8
}

// Draw 绘制各行并高亮当前选择
func (lb *ListBox) Draw(dst *ebiten.Image, geo ebiten.GeoM) {
	if !lb.visible || len(lb.entries) == 0 {
		return
	}
	if lb.bg.A > 0 {
		fillRect(dst, geo, lb.x, lb.y, lb.w, lb.h, lb.bg)
	}
	rh := lb.rowHeight()
	size := lb.size()
	cols := Columns(lb.w, size)
	for row, s := range lb.entries {
		if s == "" {
			continue
		}
		y := lb.y + float64(row)*rh
		c := lb.rgba
		if row == lb.sel {
			if lb.selBg.A > 0 {
				fillRect(dst, geo, lb.x, y, lb.w, rh, lb.selBg)
			}
			c = lb.selRGBA
		}
		drawLine(dst, geo, lb.font, Clip(s, cols), lb.x, y, lb.w, rh, size, lb.align, c)
	}
}

// Release 不做任何事，列表框不持有池资源
func (lb *ListBox) Release() {}

// Columns 估算 width 宽度内能放下多少个 size 像素字体的字符格
func Columns(width, size float64) int {
	if size <= 0 {
		return 0
	}
	return int(width / (size * 0.55))
}

// Clip 将 s 截断到 cols 个显示格，截断时以省略号结尾
// 宽字符（CJK）占两个格
func Clip(s string, cols int) string {
	if cols <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= cols {
		return s
	}
	return runewidth.Truncate(s, cols, "…")
}
