package scene

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

// basicHeight basicfont.Face7x13 的像素高度
const basicHeight = 13

// Font 布局字体
// 没有字体源的 Font 使用内置位图字体，缩放到请求的大小
type Font struct {
	name   string
	source *text.GoTextFaceSource
	faces  map[float64]text.Face
}

var (
	defaultOnce sync.Once
	defaultFont *Font
	basicFace   text.Face
)

// DefaultFont 返回内置字体（Go Regular，解析失败时使用 7x13 位图字体）
func DefaultFont() *Font {
	defaultOnce.Do(func() {
		basicFace = text.NewGoXFace(basicfont.Face7x13)
		src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
		if err != nil {
			log.Printf("[Font] Warning: Go Regular failed to load, using 7x13 bitmap font: %v", err)
		}
		defaultFont = &Font{name: "default", source: src}
	})
	return defaultFont
}

// LoadFont 读取 TrueType/OpenType 字体文件
func LoadFont(path string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font %s: %w", path, err)
	}
	src, err := text.NewGoTextFaceSource(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &Font{name: name, source: src}, nil
}

// FindFont 在 dirs 中查找 name（带或不带扩展名）
func FindFont(name string, dirs []string) (string, bool) {
	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = []string{name + ".ttf", name + ".otf", name + ".ttc"}
	}
	if filepath.IsAbs(name) {
		_, err := os.Stat(name)
		return name, err == nil
	}
	for _, dir := range dirs {
		for _, c := range candidates {
			p := filepath.Join(dir, c)
			if _, err := os.Stat(p); err == nil {
				return p, true
			}
		}
	}
	return "", false
}

// Name 返回字体名称
func (f *Font) Name() string {
	if f == nil {
		return ""
	}
	return f.name
}

// Face 返回 size 像素大小的字形，以及绘制时需要额外应用的缩放
func (f *Font) Face(size float64) (text.Face, float64) {
	if size <= 0 {
		size = basicHeight
	}
	if f == nil || f.source == nil {
		DefaultFont()
		return basicFace, size / basicHeight
	}
	if face, ok := f.faces[size]; ok {
		return face, 1
	}
	if f.faces == nil {
		f.faces = make(map[float64]text.Face)
	}
	face := &text.GoTextFace{Source: f.source, Size: size}
	f.faces[size] = face
	return face, 1
}
