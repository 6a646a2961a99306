// Package settings 提供前端设置的读取：旋转、视频和静音开关、字体、
// 布局位置以及 artwork 搜索路径
//
// 设置从 gdata 存储（对象 "settings"，属性 "frontend"）或指定的 YAML 文件读取。
// 从不回写，静音等运行时修改只保存在内存中。
package settings

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/decker502/arcadefe/pkg/config"
	"github.com/decker502/arcadefe/pkg/transform"
	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// Settings 呈现核心从设置模块读取的内容
type Settings interface {
	BaseRotation() transform.Rotation
	// Autorotate 竖屏游戏应用的旋转，RotateNone 表示关闭
	Autorotate() transform.Rotation
	PlayMovies() bool
	Mute() bool
	SetMute(mute bool)
	DefaultFont() string
	FontPaths() []string
	// LayoutPath 返回指定布局的脚本，保留名称 screensaver 解析为屏保脚本
	LayoutPath(name string) string
	LayoutDir(name string) string
	// ArtworkDirs 返回指定标签的 artwork 搜索目录
	ArtworkDirs(label string) []string
}

// Document 设置的 YAML 格式
//
//	rotation: none
//	autorotate: right
//	playMovies: true
//	defaultFont: fonts/arcade.ttf
//	fontPaths: [fonts]
//	layoutDir: layouts
//	layout: basic
//	layoutScript: layout.lua
//	screensaver: layouts/screensaver.lua
//	artwork:
//	  snap: [media/snap]
//	  marquee: [media/marquee]
type Document struct {
	Rotation     string              `yaml:"rotation"`
	Autorotate   string              `yaml:"autorotate"`
	PlayMovies   *bool               `yaml:"playMovies"`
	Mute         bool                `yaml:"mute"`
	DefaultFont  string              `yaml:"defaultFont"`
	FontPaths    []string            `yaml:"fontPaths"`
	LayoutDir    string              `yaml:"layoutDir"`
	Layout       string              `yaml:"layout"`
	LayoutScript string              `yaml:"layoutScript"`
	Screensaver  string              `yaml:"screensaver"`
	Artwork      map[string][]string `yaml:"artwork"`
	Emulators    map[string]Emulator `yaml:"emulators"`
}

// Emulator 描述如何用某个模拟器启动游戏
// Args 中的 "[name]" 替换为游戏的 rom 名称
type Emulator struct {
	Executable string   `yaml:"executable"`
	Args       []string `yaml:"args"`
}

// 存储键
const (
	settingsObject   = "settings"
	settingsProperty = "frontend"
)

const defaultLayoutScript = "layout.lua"

// ErrNoSettings 文件不存在时由 LoadFile 返回
var ErrNoSettings = errors.New("settings not found")

// Manager 基于 Document 实现 Settings
type Manager struct {
	gdataManager *gdata.Manager // 可以为 nil（只使用内存中的默认值）
	doc          Document
	base         transform.Rotation
	autorotate   transform.Rotation
	mute         bool
	root         string // 相对路径的基准目录
}

// DefaultDocument 返回内置设置
func DefaultDocument() Document {
	return Document{
		Rotation:     "none",
		Autorotate:   "none",
		LayoutDir:    "layouts",
		Layout:       "basic",
		LayoutScript: defaultLayoutScript,
		Screensaver:  filepath.Join("layouts", config.ScreensaverLayoutName+".lua"),
		Artwork:      map[string][]string{},
		Emulators:    map[string]Emulator{},
	}
}

// NewManager 创建从 gdata 存储读取的管理器
// gdata 为 nil、属性不存在或文档无法解析时都保留默认值
func NewManager(gdataManager *gdata.Manager) *Manager {
	m := &Manager{gdataManager: gdataManager}
	m.apply(DefaultDocument())
	if err := m.Load(); err != nil {
		log.Printf("[Settings] Warning: failed to load settings: %v (using defaults)", err)
	}
	return m
}

// Load 重新从 gdata 存储读取文档
func (m *Manager) Load() error {
	if m.gdataManager == nil {
		return nil
	}
	if !m.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		return nil
	}
	data, err := m.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	return m.parse(data)
}

// LoadFile 从 YAML 文件创建管理器，文件中的相对路径以文件所在目录为基准
func LoadFile(path string) (*Manager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNoSettings)
		}
		return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
	}
	m := &Manager{root: filepath.Dir(path)}
	m.apply(DefaultDocument())
	if err := m.parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Printf("[Settings] Loaded %s", path)
	return m, nil
}

func (m *Manager) parse(data []byte) error {
	doc := DefaultDocument()
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if _, err := transform.ParseRotation(doc.Rotation); err != nil {
		return fmt.Errorf("rotation: %w", err)
	}
	if _, err := transform.ParseRotation(doc.Autorotate); err != nil {
		return fmt.Errorf("autorotate: %w", err)
	}
	m.apply(doc)
	return nil
}

func (m *Manager) apply(doc Document) {
	if doc.LayoutScript == "" {
		doc.LayoutScript = defaultLayoutScript
	}
	m.doc = doc
	m.base, _ = transform.ParseRotation(doc.Rotation)
	m.autorotate, _ = transform.ParseRotation(doc.Autorotate)
	m.mute = doc.Mute
}

// Document 返回已加载文档的副本
func (m *Manager) Document() Document { return m.doc }

func (m *Manager) BaseRotation() transform.Rotation { return m.base }

// SetBaseRotation 修改本次会话的基础旋转
func (m *Manager) SetBaseRotation(r transform.Rotation) { m.base = r }

func (m *Manager) Autorotate() transform.Rotation { return m.autorotate }

// PlayMovies 文档未指定时默认为 true
func (m *Manager) PlayMovies() bool {
	return m.doc.PlayMovies == nil || *m.doc.PlayMovies
}

func (m *Manager) Mute() bool { return m.mute }

func (m *Manager) SetMute(mute bool) { m.mute = mute }

func (m *Manager) DefaultFont() string { return m.resolve(m.doc.DefaultFont) }

func (m *Manager) FontPaths() []string { return m.resolveAll(m.doc.FontPaths) }

// CurrentLayout 返回文档中选择的布局名称
func (m *Manager) CurrentLayout() string { return m.doc.Layout }

func (m *Manager) LayoutDir(name string) string {
	if name == config.ScreensaverLayoutName {
		return filepath.Dir(m.resolve(m.doc.Screensaver))
	}
	return m.resolve(filepath.Join(m.doc.LayoutDir, name))
}

func (m *Manager) LayoutPath(name string) string {
	if name == config.ScreensaverLayoutName {
		return m.resolve(m.doc.Screensaver)
	}
	return filepath.Join(m.LayoutDir(name), m.doc.LayoutScript)
}

func (m *Manager) ArtworkDirs(label string) []string {
	return m.resolveAll(m.doc.Artwork[label])
}

// Emulator 返回指定模拟器的启动描述
func (m *Manager) Emulator(name string) (Emulator, bool) {
	e, ok := m.doc.Emulators[name]
	return e, ok
}

func (m *Manager) resolve(p string) string {
	if p == "" || m.root == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.root, p)
}

func (m *Manager) resolveAll(ps []string) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, m.resolve(p))
	}
	return out
}
