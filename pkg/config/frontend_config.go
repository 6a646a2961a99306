package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// 窗口与布局默认值
const (
	// DefaultWindowWidth 配置未指定时的输出画面宽度
	DefaultWindowWidth = 1024
	// DefaultWindowHeight 配置未指定时的输出画面高度
	DefaultWindowHeight = 768

	// DefaultPageSize 布局没有列表框时翻页使用的页大小
	DefaultPageSize = 5

	// ScreensaverLayoutName 屏保布局的保留名称
	ScreensaverLayoutName = "screensaver"
)

// FrontendConfig 前端的时序与路径配置
// 从 YAML 文件加载，未设置（零值）的字段使用 DefaultFrontendConfig 中的默认值
//
// 文件结构：
//
//	window:
//	  width: 1024
//	  height: 768
//	timing:
//	  repeatDelayMs: 400
//	  repeatIntervalMs: 60
//	  transitionTimeoutMs: 8000
//	  callbackBudgetMs: 250
//	  movieStartDelayMs: 600
//	  screensaverTimeoutSec: 600
//	paths:
//	  settings: ""
//	  gamedb: games.db
type FrontendConfig struct {
	Window WindowConfig `yaml:"window"`
	Timing TimingConfig `yaml:"timing"`
	Paths  PathConfig   `yaml:"paths"`
}

// WindowConfig 输出窗口配置
type WindowConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Title      string `yaml:"title"`
	Fullscreen bool   `yaml:"fullscreen"`
}

// TimingConfig 连发、超时与计时阈值（未注明单位的均为毫秒）
type TimingConfig struct {
	RepeatDelayMs         int `yaml:"repeatDelayMs"`         // 按住方向键后第二步之前的延迟
	RepeatIntervalMs      int `yaml:"repeatIntervalMs"`      // 之后每一步的最小间隔
	TransitionTimeoutMs   int `yaml:"transitionTimeoutMs"`   // 单个过渡的最长时间
	CallbackBudgetMs      int `yaml:"callbackBudgetMs"`      // 单次脚本调用的时间预算
	MovieStartDelayMs     int `yaml:"movieStartDelayMs"`     // 选择静止多久后开始播放视频
	ScreensaverTimeoutSec int `yaml:"screensaverTimeoutSec"` // 空闲多久后进入屏保，0 表示禁用
}

// PathConfig 外部数据的位置
type PathConfig struct {
	Settings string `yaml:"settings"` // 设置 YAML 文件，为空时读取用户设置存储
	GameDB   string `yaml:"gamedb"`   // sqlite 游戏列表数据库
	List     string `yaml:"list"`     // 启动时显示的 romlist
}

// DefaultFrontendConfig 返回内置默认配置
func DefaultFrontendConfig() *FrontendConfig {
	return &FrontendConfig{
		Window: WindowConfig{
			Width:  DefaultWindowWidth,
			Height: DefaultWindowHeight,
			Title:  "arcadefe",
		},
		Timing: TimingConfig{
			RepeatDelayMs:         400,
			RepeatIntervalMs:      60,
			TransitionTimeoutMs:   8000,
			CallbackBudgetMs:      250,
			MovieStartDelayMs:     600,
			ScreensaverTimeoutSec: 600,
		},
		Paths: PathConfig{
			GameDB: "games.db",
		},
	}
}

// LoadFrontendConfig 读取 path 处的 YAML 配置
// 文件不存在不算错误，返回默认配置
func LoadFrontendConfig(path string) (*FrontendConfig, error) {
	cfg := DefaultFrontendConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read frontend config %s: %w", path, err)
	}

	var loaded FrontendConfig
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse frontend config %s: %w", path, err)
	}

	cfg.merge(&loaded)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid frontend config %s: %w", path, err)
	}
	return cfg, nil
}

// merge 用 o 中的非零字段覆盖 c
func (c *FrontendConfig) merge(o *FrontendConfig) {
	if o.Window.Width != 0 {
		c.Window.Width = o.Window.Width
	}
	if o.Window.Height != 0 {
		c.Window.Height = o.Window.Height
	}
	if o.Window.Title != "" {
		c.Window.Title = o.Window.Title
	}
	c.Window.Fullscreen = o.Window.Fullscreen

	t := &c.Timing
	setIfPositive(&t.RepeatDelayMs, o.Timing.RepeatDelayMs)
	setIfPositive(&t.RepeatIntervalMs, o.Timing.RepeatIntervalMs)
	setIfPositive(&t.TransitionTimeoutMs, o.Timing.TransitionTimeoutMs)
	setIfPositive(&t.CallbackBudgetMs, o.Timing.CallbackBudgetMs)
	setIfPositive(&t.MovieStartDelayMs, o.Timing.MovieStartDelayMs)
	if o.Timing.ScreensaverTimeoutSec != 0 {
		t.ScreensaverTimeoutSec = o.Timing.ScreensaverTimeoutSec
	}

	if o.Paths.Settings != "" {
		c.Paths.Settings = o.Paths.Settings
	}
	if o.Paths.GameDB != "" {
		c.Paths.GameDB = o.Paths.GameDB
	}
	if o.Paths.List != "" {
		c.Paths.List = o.Paths.List
	}
}

func setIfPositive(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func (c *FrontendConfig) validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Timing.RepeatDelayMs < c.Timing.RepeatIntervalMs {
		return fmt.Errorf("repeatDelayMs (%d) must not be shorter than repeatIntervalMs (%d)",
			c.Timing.RepeatDelayMs, c.Timing.RepeatIntervalMs)
	}
	return nil
}

// RepeatDelay 返回首次连发延迟
func (t TimingConfig) RepeatDelay() time.Duration {
	return time.Duration(t.RepeatDelayMs) * time.Millisecond
}

// RepeatInterval 返回连发间隔
func (t TimingConfig) RepeatInterval() time.Duration {
	return time.Duration(t.RepeatIntervalMs) * time.Millisecond
}

// TransitionTimeout 返回单个过渡的超时时间
func (t TimingConfig) TransitionTimeout() time.Duration {
	return time.Duration(t.TransitionTimeoutMs) * time.Millisecond
}

// CallbackBudget 返回单次脚本调用的时间预算
func (t TimingConfig) CallbackBudget() time.Duration {
	return time.Duration(t.CallbackBudgetMs) * time.Millisecond
}

// MovieStartDelay 返回选择需要静止多久才开始播放视频
func (t TimingConfig) MovieStartDelay() time.Duration {
	return time.Duration(t.MovieStartDelayMs) * time.Millisecond
}

// ScreensaverTimeout 返回进入屏保前的空闲时间，0 表示禁用
func (t TimingConfig) ScreensaverTimeout() time.Duration {
	if t.ScreensaverTimeoutSec <= 0 {
		return 0
	}
	return time.Duration(t.ScreensaverTimeoutSec) * time.Second
}
