// Package present 前端的运行时呈现层：持有当前布局的场景图，
// 并根据输入、定时器和布局脚本驱动它
//
// Presenter 是单线程的。宿主每帧调用一次 Tick，Tick 报告需要重绘时调用 Draw。
// 布局加载、选择变化、游戏启动/返回都是由协调器执行的过渡，不会阻塞帧循环。
package present

import (
	"log"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	ebaudio "github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/decker502/arcadefe/pkg/config"
	"github.com/decker502/arcadefe/pkg/gamedb"
	"github.com/decker502/arcadefe/pkg/input"
	"github.com/decker502/arcadefe/pkg/nav"
	"github.com/decker502/arcadefe/pkg/resource"
	"github.com/decker502/arcadefe/pkg/scene"
	"github.com/decker502/arcadefe/pkg/settings"
	"github.com/decker502/arcadefe/pkg/transform"
	"github.com/decker502/arcadefe/pkg/transition"
)

// VM 执行布局脚本及其回调
type VM interface {
	transition.Invoker
	// RunLayout 执行布局脚本，执行期间可以添加元素
	RunLayout(path string) error
	// RunFile 代表正在运行的脚本执行另一个脚本文件
	RunFile(path string) error
	// CallTick 调用 tick 回调，参数为布局加载以来的时间
	CallTick(name string, layoutTime time.Duration) error
	Close() error
}

// Games Presenter 浏览的游戏列表
type Games interface {
	scene.Games
	Step(offset int)
}

// Clock 返回单调时间
type Clock interface {
	Now() time.Duration
}

// MonotonicClock 计算自创建以来的时间
type MonotonicClock struct {
	start time.Time
}

// NewMonotonicClock 创建从零开始的时钟
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

// Now 返回时钟启动以来的时间
func (c *MonotonicClock) Now() time.Duration { return time.Since(c.start) }

// Options Presenter 的配置
type Options struct {
	Timing  config.TimingConfig
	Surface transform.Size
	Device  input.Device     // 为 nil 时所有查询都返回未按下
	Audio   *ebaudio.Context // 为 nil 时禁用脚本音效
	Clock   Clock            // 为 nil 时使用 MonotonicClock
}

// Presenter 前端的呈现核心
type Presenter struct {
	settings settings.Settings
	games    Games
	vm       VM
	clock    Clock
	device   input.Device
	timing   config.TimingConfig

	search *resource.SearchPath
	ctx    *scene.Context
	graph  *scene.Graph
	xf     *transform.Engine
	nav    *nav.Machine
	coord  *transition.Coordinator

	ticks []string

	layoutName   string
	layoutDir    string
	layoutFont   *scene.Font
	defaultFont  *scene.Font
	screensaver  bool
	layoutStart  time.Duration
	movieStart   time.Duration
	lastFrame    time.Duration
	redraw       bool
	fontWarnings map[string]bool
}

// NewPresenter 创建场景为空的 Presenter，加载列表之前 games 可以为 nil
func NewPresenter(s settings.Settings, games Games, vm VM, opts Options) *Presenter {
	if games == nil {
		games = gamedb.NewList("", nil)
	}
	if opts.Clock == nil {
		opts.Clock = NewMonotonicClock()
	}
	if opts.Device == nil {
		opts.Device = nullDevice{}
	}
	if opts.Surface.W <= 0 || opts.Surface.H <= 0 {
		opts.Surface = transform.Size{W: config.DefaultWindowWidth, H: config.DefaultWindowHeight}
	}

	p := &Presenter{
		settings:     s,
		games:        games,
		vm:           vm,
		clock:        opts.Clock,
		device:       opts.Device,
		timing:       opts.Timing,
		search:       resource.NewSearchPath(),
		xf:           transform.NewEngine(s.BaseRotation(), opts.Surface),
		fontWarnings: make(map[string]bool),
	}
	p.nav = nav.NewMachine(nav.Timing{
		InitialDelay:   opts.Timing.RepeatDelay(),
		RepeatInterval: opts.Timing.RepeatInterval(),
	})
	p.coord = transition.NewCoordinator(vm, opts.Timing.TransitionTimeout())

	p.defaultFont = p.loadDefaultFont()
	p.ctx = &scene.Context{
		Games:      games,
		Artwork:    s,
		Textures:   resource.NewTexturePool(p.search),
		Sounds:     resource.NewSoundPool(p.search),
		Audio:      opts.Audio,
		Font:       p.defaultFont,
		Mute:       s.Mute(),
		PlayMovies: s.PlayMovies(),
	}
	p.graph = scene.NewGraph(p.ctx)

	now := p.clock.Now()
	p.lastFrame = now
	p.layoutStart = now
	p.movieStart = now
	return p
}

func (p *Presenter) loadDefaultFont() *scene.Font {
	name := p.settings.DefaultFont()
	if name == "" {
		return scene.DefaultFont()
	}
	path, ok := scene.FindFont(name, p.settings.FontPaths())
	if !ok {
		log.Printf("[Presenter] Warning: default font %s not found, using built-in font", name)
		return scene.DefaultFont()
	}
	f, err := scene.LoadFont(path)
	if err != nil {
		log.Printf("[Presenter] Warning: %v, using built-in font", err)
		return scene.DefaultFont()
	}
	return f
}

// Graph 返回当前布局的场景图
func (p *Presenter) Graph() *scene.Graph { return p.graph }

// Games 返回游戏列表
func (p *Presenter) Games() Games { return p.games }

// SetGames 替换游戏列表并刷新场景
func (p *Presenter) SetGames(games Games) {
	if games == nil {
		games = gamedb.NewList("", nil)
	}
	p.games = games
	p.ctx.Games = games
	p.Update(true)
}

// Coordinator 返回过渡协调器
func (p *Presenter) Coordinator() *transition.Coordinator { return p.coord }

// Nav 返回导航状态机
func (p *Presenter) Nav() *nav.Machine { return p.nav }

// Transform 返回变换引擎
func (p *Presenter) Transform() *transform.Engine { return p.xf }

// LayoutName 返回已加载（或正在加载）的布局名称
func (p *Presenter) LayoutName() string { return p.layoutName }

// ScreensaverActive 判断是否已加载屏保布局
func (p *Presenter) ScreensaverActive() bool { return p.screensaver }

// LoadLayout 结束当前布局并加载指定布局，加载在之后的 Tick 中以过渡形式进行
func (p *Presenter) LoadLayout(name string) {
	p.load(name, false)
}

// LoadScreensaver 结束当前布局并加载屏保
func (p *Presenter) LoadScreensaver() {
	p.load(config.ScreensaverLayoutName, true)
}

func (p *Presenter) load(name string, toScreensaver bool) {
	endVar := 0
	if toScreensaver {
		endVar = 1
	}
	state := transition.LoadingLayout
	if toScreensaver {
		state = transition.LoadingScreensaver
	}
	p.nav.Release()
	p.coord.Run(transition.Request{
		State: transition.EndingLayout,
		Kind:  transition.EndLayout,
		Var:   endVar,
		Then: func() {
			fromScreensaver := p.screensaver
			p.construct(name, toScreensaver)
			startVar := 0
			if fromScreensaver {
				startVar = 1
			}
			p.coord.Run(transition.Request{
				State: state,
				Kind:  transition.StartLayout,
				Var:   startVar,
				Then:  p.graph.Close,
			})
		},
	})
}

// construct 清空场景并执行布局脚本，场景图保持可构建状态直到 StartLayout 完成
func (p *Presenter) construct(name string, screensaver bool) {
	p.clear()
	p.layoutName = name
	p.screensaver = screensaver
	p.layoutDir = p.settings.LayoutDir(name)
	p.search.Set(p.layoutDir)

	p.graph.Open()
	p.layoutStart = p.clock.Now()
	if p.vm != nil {
		path := p.settings.LayoutPath(name)
		if err := p.vm.RunLayout(path); err != nil {
			log.Printf("[Presenter] Warning: layout %s: %v", name, err)
		}
	}
	p.Update(true)
	p.PerformAutorotate()
}

// clear 销毁场景并清除旧布局注册的所有内容
func (p *Presenter) clear() {
	p.graph.Close()
	p.graph.StopSounds()
	p.graph.Clear()
	p.ticks = nil
	p.coord.ClearCallbacks()
	p.layoutFont = nil
	p.ctx.Font = p.defaultFont
	p.xf.SetLayoutSize(p.xf.SurfaceSize())
	p.xf.SetBase(p.settings.BaseRotation())
}

// Update 为当前选择刷新所有元素并重启视频计时器
// reloadList 为 true 时同时重建列表框各行
func (p *Presenter) Update(reloadList bool) {
	if reloadList {
		if lb := p.graph.ListBox(); lb != nil {
			lb.Refresh(p.games)
		}
	}
	p.graph.OnNewSelection()
	p.graph.StopMovies()
	p.movieStart = p.clock.Now()
	p.redraw = true
}

// Tick 将 Presenter 推进一帧，返回画面是否需要重绘
func (p *Presenter) Tick() bool {
	now := p.clock.Now()
	dt := now - p.lastFrame
	p.lastFrame = now

	if !p.coord.Busy() && p.nav.Poll(now) {
		p.changeSelection(nav.Offset(p.nav.Direction(), p.PageSize()))
	}

	p.coord.Step(now)
	if p.coord.TakeRedraw() {
		p.redraw = true
	}

	if !p.ctx.MoviesReady && now-p.movieStart >= p.timing.MovieStartDelay() {
		p.ctx.MoviesReady = true
	}

	if len(p.ticks) > 0 && p.vm != nil {
		layoutTime := now - p.layoutStart
		for _, name := range append([]string(nil), p.ticks...) {
			if err := p.vm.CallTick(name, layoutTime); err != nil {
				log.Printf("[Presenter] Warning: tick callback %s: %v", name, err)
			}
		}
	}

	if p.graph.Update(dt) {
		p.redraw = true
	}

	r := p.redraw
	p.redraw = false
	return r
}

// changeSelection 按偏移排入一次选择变化
func (p *Presenter) changeSelection(offset int) {
	if offset == 0 {
		return
	}
	p.coord.Run(transition.Request{
		State: transition.SelectionChanging,
		Kind:  transition.ToNewSelection,
		Var:   offset,
		Then: func() {
			p.games.Step(offset)
			p.Update(false)
			p.PerformAutorotate()
		},
	})
}

func navDirection(c input.Command) nav.Direction {
	switch c {
	case input.Up:
		return nav.Up
	case input.Down:
		return nav.Down
	case input.PageUp:
		return nav.PageUp
	case input.PageDown:
		return nav.PageDown
	}
	return nav.None
}

// HandleEvent 执行前端命令，返回命令是否被处理
func (p *Presenter) HandleEvent(ev input.Event) bool {
	if ev.Command.IsDirectional() {
		dir := navDirection(ev.Command)
		if !ev.Pressed {
			if p.nav.Direction() == dir {
				p.nav.Release()
			}
			return true
		}
		if p.nav.Press(dir, p.clock.Now()) {
			p.changeSelection(nav.Offset(dir, p.PageSize()))
		}
		return true
	}
	if !ev.Pressed {
		return false
	}
	p.nav.Release()

	switch ev.Command {
	case input.RotateRight:
		p.toggleRotation(transform.RotateRight)
	case input.RotateFlip:
		p.toggleRotation(transform.RotateFlip)
	case input.RotateLeft:
		p.toggleRotation(transform.RotateLeft)
	case input.ToggleMovie:
		p.ctx.PlayMovies = !p.ctx.PlayMovies
		if !p.ctx.PlayMovies {
			p.graph.StopMovies()
			p.movieStart = p.clock.Now()
		}
		p.redraw = true
	case input.ToggleMute:
		p.ToggleMute()
	default:
		return false
	}
	return true
}

func (p *Presenter) toggleRotation(r transform.Rotation) {
	p.xf.Toggle(r)
	p.redraw = true
}

// PreRun 播放 ToGame 过渡，停止视频和音效，然后调用 launch
// launch 可以为 nil
func (p *Presenter) PreRun(launch func()) {
	p.nav.Release()
	p.coord.Run(transition.Request{
		State: transition.EnteringGame,
		Kind:  transition.ToGame,
		Then: func() {
			p.graph.StopMovies()
			p.graph.StopSounds()
			if launch != nil {
				launch()
			}
		},
	})
}

// PostRun 播放 FromGame 过渡，抢占仍在进行的任何过渡
func (p *Presenter) PostRun() {
	p.nav.Release()
	p.coord.Preempt(transition.Request{
		State: transition.ReturningFromGame,
		Kind:  transition.FromGame,
		Then: func() {
			p.lastFrame = p.clock.Now()
			p.Update(false)
		},
	})
}

// Stop 同步结束布局并静音，用于退出时，之后不会再有新的帧
func (p *Presenter) Stop() {
	p.nav.Release()
	p.coord.Run(transition.Request{State: transition.EndingLayout, Kind: transition.EndLayout})
	p.coord.Flush(p.clock.Now)
	p.graph.Close()
	p.graph.StopSounds()
	p.graph.StopMovies()
}

// ToggleMute 切换静音设置并应用到脚本音效
func (p *Presenter) ToggleMute() {
	mute := !p.settings.Mute()
	p.settings.SetMute(mute)
	p.graph.SetMute(mute)
}

// PerformAutorotate 当前选择的游戏为竖屏时应用自动旋转，否则清除旋转
// 关闭自动旋转时旋转由用户控制
func (p *Presenter) PerformAutorotate() {
	auto := p.settings.Autorotate()
	if auto == transform.RotateNone {
		return
	}
	r := transform.RotateNone
	switch p.games.Info(0, gamedb.FieldRotation) {
	case "90", "270":
		r = auto
	}
	if r != p.xf.ToggleState() {
		p.xf.SetToggle(r)
		p.redraw = true
	}
}

// Draw 将场景绘制到 dst
func (p *Presenter) Draw(dst *ebiten.Image) {
	p.graph.Draw(dst, p.xf.GeoM())
}

// SetSurfaceSize 记录新的输出尺寸
func (p *Presenter) SetSurfaceSize(s transform.Size) {
	if s != p.xf.SurfaceSize() {
		p.xf.SetSurfaceSize(s)
		p.redraw = true
	}
}

// PageSize 返回列表框的行数，布局没有列表框时返回默认翻页大小
func (p *Presenter) PageSize() int {
	if lb := p.graph.ListBox(); lb != nil {
		return lb.PageSize()
	}
	return config.DefaultPageSize
}

// RotationTransform 返回布局到画面的变换
func (p *Presenter) RotationTransform() ebiten.GeoM { return p.xf.GeoM() }

// Font 返回当前字体：布局字体或默认字体
func (p *Presenter) Font() *scene.Font { return p.ctx.Font }

// SetDefaultFont 替换默认字体，为 nil 时使用内置字体
func (p *Presenter) SetDefaultFont(f *scene.Font) {
	if f == nil {
		f = scene.DefaultFont()
	}
	p.defaultFont = f
	if p.layoutFont == nil {
		p.ctx.Font = f
	}
	p.redraw = true
}

// FlagRedraw 请求在下一次 Tick 重绘
func (p *Presenter) FlagRedraw() {
	p.coord.FlagRedraw()
	p.redraw = true
}

// Busy 判断是否有进行中或排队的过渡
func (p *Presenter) Busy() bool { return p.coord.Busy() }

// 布局属性的读取和设置，设置只在布局脚本构建场景期间有效

func (p *Presenter) LayoutWidth() int  { return p.xf.LayoutSize().W }
func (p *Presenter) LayoutHeight() int { return p.xf.LayoutSize().H }

func (p *Presenter) SetLayoutWidth(w int) error {
	if err := p.checkConstructing("layout width"); err != nil {
		return err
	}
	s := p.xf.LayoutSize()
	s.W = w
	p.xf.SetLayoutSize(s)
	p.redraw = true
	return nil
}

func (p *Presenter) SetLayoutHeight(h int) error {
	if err := p.checkConstructing("layout height"); err != nil {
		return err
	}
	s := p.xf.LayoutSize()
	s.H = h
	p.xf.SetLayoutSize(s)
	p.redraw = true
	return nil
}

// LayoutOrient 返回基础旋转
func (p *Presenter) LayoutOrient() transform.Rotation { return p.xf.Base() }

// SetLayoutOrient 修改基础旋转，旋转切换重置为无
func (p *Presenter) SetLayoutOrient(r transform.Rotation) error {
	if err := p.checkConstructing("layout orient"); err != nil {
		return err
	}
	p.xf.SetBase(r)
	p.redraw = true
	return nil
}

func (p *Presenter) checkConstructing(what string) error {
	if p.graph.Constructing() {
		return nil
	}
	log.Printf("[Presenter] Warning: rejected %s change outside layout construction", what)
	return scene.ErrNotConstructing
}

// LayoutFont 返回当前字体名称
func (p *Presenter) LayoutFont() string { return p.ctx.Font.Name() }

// SetLayoutFont 为布局加载指定字体，无法加载时继续使用默认字体
func (p *Presenter) SetLayoutFont(name string) error {
	if err := p.checkConstructing("layout font"); err != nil {
		return err
	}
	dirs := append([]string{p.layoutDir}, p.settings.FontPaths()...)
	path, ok := scene.FindFont(name, dirs)
	if !ok {
		p.warnFont(name, "not found")
		p.useLayoutFont(nil)
		return nil
	}
	f, err := scene.LoadFont(path)
	if err != nil {
		p.warnFont(name, err.Error())
		p.useLayoutFont(nil)
		return nil
	}
	p.useLayoutFont(f)
	return nil
}

func (p *Presenter) useLayoutFont(f *scene.Font) {
	p.layoutFont = f
	if f == nil {
		p.ctx.Font = p.defaultFont
	} else {
		p.ctx.Font = f
	}
	p.redraw = true
}

func (p *Presenter) warnFont(name, why string) {
	if p.fontWarnings[name] {
		return
	}
	p.fontWarnings[name] = true
	log.Printf("[Presenter] Warning: layout font %s %s, using %s", name, why, p.defaultFont.Name())
}

// resolveScript 解析相对布局目录的脚本路径
func (p *Presenter) resolveScript(path string) string {
	if filepath.IsAbs(path) || p.layoutDir == "" {
		return path
	}
	return filepath.Join(p.layoutDir, path)
}

type nullDevice struct{}

func (nullDevice) IsKeyPressed(string) bool         { return false }
func (nullDevice) IsJoyButtonPressed(int, int) bool { return false }
func (nullDevice) JoyAxisPos(int, string) int       { return 0 }
