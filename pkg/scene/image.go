package scene

import (
	"image/color"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/arcadefe/pkg/gamedb"
	"github.com/decker502/arcadefe/pkg/resource"
)

const degToRad = math.Pi / 180

var (
	imageExts = []string{".png", ".jpg", ".jpeg"}
	movieExts = []string{".mp4", ".avi", ".mkv", ".flv", ".webm"}
)

// Image 文件图片，或显示当前选择 artwork 的图片位
//
// artwork 找到的视频只记录状态（启动延迟、播放位置），不解码，始终绘制静态图片
type Image struct {
	g *Graph

	file  string // 文件图片，或解析出的 artwork 图片
	label string // artwork 标签，文件图片为 ""
	tex   *resource.TextureHandle

	x, y, w, h   float64
	rotation     float64 // 角度，绕左上角旋转
	rgba         color.NRGBA
	visible      bool
	indexOffset  int
	preserveSize bool

	movie        string
	movieEnabled bool
	moviePlaying bool
	moviePos     time.Duration

	released bool
}

func newImage(g *Graph, x, y, w, h float64) *Image {
	return &Image{
		g:            g,
		x:            x,
		y:            y,
		w:            w,
		h:            h,
		rgba:         color.NRGBA{255, 255, 255, 255},
		visible:      true,
		movieEnabled: true,
	}
}

// clone 复制显示配置并共享纹理
func (img *Image) clone() *Image {
	c := *img
	if img.tex != nil {
		c.tex = img.g.ctx.Textures.Clone(img.tex)
	}
	c.moviePlaying = false
	c.moviePos = 0
	return &c
}

// SetFile 替换图片文件，文件不存在时元素为空
func (img *Image) SetFile(name string) {
	img.swap(name)
}

func (img *Image) swap(name string) {
	if img.released {
		log.Printf("[Scene] Warning: ignored image %s on a removed element", name)
		return
	}
	if name == img.file && img.tex != nil {
		return
	}
	pool := img.g.ctx.Textures
	old := img.tex
	img.file = name
	img.tex = nil
	if name != "" && pool != nil {
		img.tex = pool.Acquire(name)
	}
	if old != nil && pool != nil {
		pool.Release(old)
	}
}

// File 返回当前图片文件
func (img *Image) File() string { return img.file }

// Label 返回 artwork 标签，文件图片返回 ""
func (img *Image) Label() string { return img.label }

// Texture 返回纹理句柄（没有文件时为 nil）
func (img *Image) Texture() *resource.TextureHandle { return img.tex }

func (img *Image) X() float64              { return img.x }
func (img *Image) Y() float64              { return img.y }
func (img *Image) Width() float64          { return img.w }
func (img *Image) Height() float64         { return img.h }
func (img *Image) Rotation() float64       { return img.rotation }
func (img *Image) Color() color.NRGBA      { return img.rgba }
func (img *Image) Visible() bool           { return img.visible }
func (img *Image) IndexOffset() int        { return img.indexOffset }
func (img *Image) PreserveSize() bool      { return img.preserveSize }
func (img *Image) MovieEnabled() bool      { return img.movieEnabled }
func (img *Image) Movie() string           { return img.movie }
func (img *Image) MoviePlaying() bool      { return img.moviePlaying }
func (img *Image) MoviePos() time.Duration { return img.moviePos }

func (img *Image) SetPos(x, y float64)     { img.x, img.y = x, y }
func (img *Image) SetSize(w, h float64)    { img.w, img.h = w, h }
func (img *Image) SetRotation(deg float64) { img.rotation = deg }
func (img *Image) SetColor(c color.NRGBA)  { img.rgba = c }
func (img *Image) SetVisible(v bool)       { img.visible = v }
func (img *Image) SetPreserveSize(p bool)  { img.preserveSize = p }

// SetIndexOffset 修改 artwork 显示哪个游戏
func (img *Image) SetIndexOffset(off int) {
	if off == img.indexOffset {
		return
	}
	img.indexOffset = off
	img.OnNewSelection(img.g.ctx)
}

// SetMovieEnabled 允许或禁止 artwork 的视频
func (img *Image) SetMovieEnabled(on bool) {
	img.movieEnabled = on
	if !on {
		img.stopMovie()
	}
}

// TextureSize 返回已加载图片的原始尺寸，没有时返回 0
func (img *Image) TextureSize() (int, int) {
	if !img.tex.Ready() {
		return 0, 0
	}
	b := img.tex.Value().Bounds()
	return b.Dx(), b.Dy()
}

func (img *Image) stopMovie() {
	img.moviePlaying = false
	img.moviePos = 0
}

// Update 推进视频播放状态
func (img *Image) Update(ctx *Context, dt time.Duration) bool {
	if img.movie == "" || !img.movieEnabled || !ctx.PlayMovies {
		return false
	}
	if !img.moviePlaying {
		if !ctx.MoviesReady {
			return false
		}
		img.moviePlaying = true
		img.moviePos = 0
		return true
	}
	img.moviePos += dt
	return img.visible
}

// OnNewSelection 为新的选择解析 artwork
func (img *Image) OnNewSelection(ctx *Context) {
	if img.label == "" || img.released {
		return
	}
	img.stopMovie()
	var dirs []string
	if ctx.Artwork != nil {
		dirs = ctx.Artwork.ArtworkDirs(img.label)
	}
	var names []string
	if ctx.Games != nil {
		for _, f := range []gamedb.Field{gamedb.FieldName, gamedb.FieldCloneOf} {
			if n := ctx.Games.Info(img.indexOffset, f); n != "" {
				names = append(names, n)
			}
		}
	}
	still, movie := ResolveArtwork(dirs, names)
	img.movie = movie
	img.swap(still)
}

// ResolveArtwork 在 dirs 中为 names 查找第一张静态图片和第一个视频
// 两个结果都可能为空
func ResolveArtwork(dirs, names []string) (still, movie string) {
	for _, name := range names {
		for _, dir := range dirs {
			if still == "" {
				still = findWithExt(dir, name, imageExts)
			}
			if movie == "" {
				movie = findWithExt(dir, name, movieExts)
			}
			if still != "" && movie != "" {
				return still, movie
			}
		}
	}
	return still, movie
}

func findWithExt(dir, name string, exts []string) string {
	for _, ext := range exts {
		for _, e := range []string{ext, strings.ToUpper(ext)} {
			p := filepath.Join(dir, name+e)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}

// Draw 按元素尺寸缩放绘制图片（未设置尺寸时使用原始尺寸）
func (img *Image) Draw(dst *ebiten.Image, geo ebiten.GeoM) {
	if !img.visible || img.rgba.A == 0 || !img.tex.Ready() {
		return
	}
	src := img.tex.Value()
	b := src.Bounds()
	tw, th := float64(b.Dx()), float64(b.Dy())
	if tw == 0 || th == 0 {
		return
	}
	w, h := img.w, img.h
	if w <= 0 || h <= 0 {
		w, h = tw, th
	}

	op := &ebiten.DrawImageOptions{}
	sx, sy := w/tw, h/th
	if img.preserveSize {
		s := min(sx, sy)
		op.GeoM.Translate((w/s-tw)/2, (h/s-th)/2)
		sx, sy = s, s
	}
	op.GeoM.Scale(sx, sy)
	if img.rotation != 0 {
		op.GeoM.Rotate(img.rotation * degToRad)
	}
	op.GeoM.Translate(img.x, img.y)
	op.GeoM.Concat(geo)
	op.ColorScale.ScaleWithColor(img.rgba)
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(src, op)
}

// Release 释放纹理引用，释放后的图片不会再获取纹理
func (img *Image) Release() {
	if img.tex != nil && img.g.ctx.Textures != nil {
		img.g.ctx.Textures.Release(img.tex)
	}
	img.tex = nil
	img.released = true
	img.stopMovie()
}

// Released 判断图片是否已从 Graph 中移除
func (img *Image) Released() bool { return img.released }
