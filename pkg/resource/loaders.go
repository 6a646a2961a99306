package resource

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // 注册 JPEG 解码器
	_ "image/png"  // 注册 PNG 解码器
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/arcadefe/internal/audio"
)

// ErrNotFound 所有目录中都找不到文件时由 SearchPath.Resolve 返回
var ErrNotFound = errors.New("resource not found")

// SearchPath 在有序的目录列表中解析相对路径（通常当前布局目录排在最前）
type SearchPath struct {
	dirs []string
}

// NewSearchPath 创建覆盖 dirs 的搜索路径
func NewSearchPath(dirs ...string) *SearchPath {
	return &SearchPath{dirs: append([]string(nil), dirs...)}
}

// Set 替换目录列表
func (s *SearchPath) Set(dirs ...string) {
	s.dirs = append(s.dirs[:0], dirs...)
}

// Dirs 返回当前目录列表
func (s *SearchPath) Dirs() []string {
	return append([]string(nil), s.dirs...)
}

// Resolve 返回 name 的实际路径
// 绝对路径只检查是否存在；相对路径按顺序在每个目录中查找
func (s *SearchPath) Resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty resource name: %w", ErrNotFound)
	}
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return name, nil
	}
	for _, dir := range s.dirs {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}
	return "", fmt.Errorf("%s: %w", name, ErrNotFound)
}

// TexturePool 已解码图片的资源池
type TexturePool = Pool[*ebiten.Image]

// TextureHandle TexturePool 中的引用
type TextureHandle = Handle[*ebiten.Image]

// SoundPool 未解码音频数据的资源池，播放时才解码
type SoundPool = Pool[[]byte]

// SoundHandle SoundPool 中的引用
type SoundHandle = Handle[[]byte]

// NewTexturePool 创建图片资源池，文件通过 search 查找
func NewTexturePool(search *SearchPath) *TexturePool {
	return NewPool("TexturePool", TextureLoader(search), func(img *ebiten.Image) {
		if img != nil {
			img.Deallocate()
		}
	})
}

// NewSoundPool 创建音频资源池，文件通过 search 查找
func NewSoundPool(search *SearchPath) *SoundPool {
	return NewPool("SoundPool", SoundLoader(search), nil)
}

// TextureLoader 返回将 PNG/JPEG 文件解码为 ebiten 图片的加载器
func TextureLoader(search *SearchPath) Loader[*ebiten.Image] {
	return func(id string) (*ebiten.Image, error) {
		path, err := search.Resolve(id)
		if err != nil {
			return nil, err
		}

		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open image file %s: %w", path, err)
		}
		defer file.Close()

		img, _, err := image.Decode(file)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
		}

		return ebiten.NewImageFromImage(img), nil
	}
}

// SoundLoader 返回将支持的音频文件读入内存的加载器
// 整个文件读入内存，流 seek 时不需要一直持有文件句柄
func SoundLoader(search *SearchPath) Loader[[]byte] {
	return func(id string) ([]byte, error) {
		if !audio.Supported(id) {
			return nil, fmt.Errorf("unsupported audio format: %s", filepath.Ext(id))
		}
		path, err := search.Resolve(id)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read audio file %s: %w", path, err)
		}
		return data, nil
	}
}
