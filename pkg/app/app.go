// Package app 将呈现核心接入 ebiten 游戏循环：
// 加载配置，打开游戏列表，运行布局脚本 VM，启动模拟器
package app

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/quasilyte/gdata/v2"

	"github.com/decker502/arcadefe/pkg/config"
	"github.com/decker502/arcadefe/pkg/gamedb"
	"github.com/decker502/arcadefe/pkg/input"
	"github.com/decker502/arcadefe/pkg/present"
	"github.com/decker502/arcadefe/pkg/script"
	"github.com/decker502/arcadefe/pkg/settings"
	"github.com/decker502/arcadefe/pkg/transform"
)

// AppName 用户设置存储的名称
const AppName = "arcadefe"

// Config 应用启动配置
type Config struct {
	// Verbose 启用日志输出
	Verbose bool
	// ConfigPath 前端 YAML 配置文件，不存在时使用默认值
	ConfigPath string
	// Layout 覆盖设置中选择的布局
	Layout string
	// List 覆盖启动时显示的 romlist
	List string
}

// App 基于 Presenter 实现 ebiten.Game
type App struct {
	cfg       *config.FrontendConfig
	settings  *settings.Manager
	db        *gamedb.DB
	presenter *present.Presenter
	poller    *input.Poller
	clock     *present.MonotonicClock

	layout    string
	lastInput time.Duration
	gameDone  chan error
	dirty     bool
	quit      bool

	pendingWindowSizeReset   bool
	windowSizeResetCountdown int
}

// NewApp 加载配置、设置和游戏列表，并启动第一个布局
func NewApp(cfg Config) (*App, error) {
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	fc, err := config.LoadFrontendConfig(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load frontend config: %w", err)
	}

	sm, err := loadSettings(fc.Paths.Settings)
	if err != nil {
		return nil, err
	}

	db, err := gamedb.Open(fc.Paths.GameDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open game database: %w", err)
	}

	listName := cfg.List
	if listName == "" {
		listName = fc.Paths.List
	}
	games := loadGames(db, listName)

	vm := script.New(script.Options{
		CallbackBudget: fc.Timing.CallbackBudget(),
		LoadBudget:     fc.Timing.TransitionTimeout(),
	})

	clock := present.NewMonotonicClock()
	p := present.NewPresenter(sm, games, vm, present.Options{
		Timing:  fc.Timing,
		Surface: transform.Size{W: fc.Window.Width, H: fc.Window.Height},
		Device:  input.EbitenDevice{},
		Audio:   audio.NewContext(48000),
		Clock:   clock,
	})
	present.Open(p)

	layout := cfg.Layout
	if layout == "" {
		layout = sm.CurrentLayout()
	}
	p.LoadLayout(layout)
	log.Printf("[App] Starting layout %q with list %q (%d games)", layout, games.Name(), games.Size())

	ebiten.SetScreenClearedEveryFrame(false)

	return &App{
		cfg:       fc,
		settings:  sm,
		db:        db,
		presenter: p,
		poller:    input.NewPoller(input.DefaultBindings()),
		clock:     clock,
		layout:    layout,
		dirty:     true,
	}, nil
}

// loadSettings 配置了设置文件时读取该文件，否则读取用户设置存储
// 没有存储时使用默认值
func loadSettings(path string) (*settings.Manager, error) {
	if path != "" {
		sm, err := settings.LoadFile(path)
		if err == nil {
			return sm, nil
		}
		if !errors.Is(err, settings.ErrNoSettings) {
			return nil, err
		}
		log.Printf("[App] Warning: %v, falling back to the settings store", err)
	}
	gm, err := gdata.Open(gdata.Config{AppName: AppName})
	if err != nil {
		log.Printf("[App] Warning: settings store unavailable: %v (using defaults)", err)
		gm = nil
	}
	return settings.NewManager(gm), nil
}

// loadGames 加载指定列表，未指定时加载数据库中的第一个列表
func loadGames(db *gamedb.DB, name string) *gamedb.List {
	if name == "" {
		lists, err := db.Lists()
		if err != nil {
			log.Printf("[App] Warning: %v", err)
		}
		if len(lists) > 0 {
			name = lists[0]
		}
	}
	if name == "" {
		log.Printf("[App] Warning: game database is empty")
		return gamedb.NewList("", nil)
	}
	list, err := db.LoadList(name)
	if err != nil {
		log.Printf("[App] Warning: %v", err)
		return gamedb.NewList(name, nil)
	}
	return list
}

// Update 执行一帧：游戏进程、输入、屏保和 Presenter
func (a *App) Update() error {
	if a.quit && !a.presenter.Busy() {
		return ebiten.Termination
	}
	a.updateWindow()

	if a.gameDone != nil {
		select {
		case err := <-a.gameDone:
			if err != nil {
				log.Printf("[App] Warning: game exited: %v", err)
			}
			a.gameDone = nil
			a.lastInput = a.clock.Now()
			a.presenter.PostRun()
		default:
			// 游戏退出前忽略输入，ToGame 动画继续播放
			if a.presenter.Busy() && a.presenter.Tick() {
				a.dirty = true
			}
			return nil
		}
	}

	now := a.clock.Now()
	for _, ev := range a.poller.Poll() {
		a.lastInput = now
		a.handle(ev)
	}

	if timeout := a.cfg.Timing.ScreensaverTimeout(); timeout > 0 &&
		!a.presenter.ScreensaverActive() && !a.presenter.Busy() &&
		now-a.lastInput > timeout {
		log.Printf("[App] Idle for %v, starting screensaver", timeout)
		a.presenter.LoadScreensaver()
		a.lastInput = now
	}

	if a.presenter.Tick() {
		a.dirty = true
	}
	return nil
}

func (a *App) handle(ev input.Event) {
	if a.presenter.ScreensaverActive() {
		if ev.Pressed && !a.presenter.Busy() {
			a.presenter.LoadLayout(a.layout)
		}
		return
	}
	if a.presenter.HandleEvent(ev) || !ev.Pressed {
		return
	}
	switch ev.Command {
	case input.Select:
		a.launch()
	case input.Screensaver:
		a.presenter.LoadScreensaver()
	case input.Back:
		log.Printf("[App] Exit requested")
		a.presenter.Stop()
		a.quit = true
	}
}

// launch 播放 ToGame 过渡并启动所选游戏的模拟器
func (a *App) launch() {
	if a.gameDone != nil {
		return
	}
	games := a.presenter.Games()
	name := games.Info(0, gamedb.FieldName)
	emu, ok := a.settings.Emulator(games.Info(0, gamedb.FieldEmulator))
	if name == "" || !ok {
		log.Printf("[App] Warning: no emulator configured for %q", name)
		return
	}
	done := make(chan error, 1)
	a.gameDone = done
	a.presenter.PreRun(func() {
		cmd := emulatorCommand(emu, name)
		log.Printf("[App] Running %s", strings.Join(cmd.Args, " "))
		if err := cmd.Start(); err != nil {
			done <- err
			return
		}
		go func() { done <- cmd.Wait() }()
	})
}

// emulatorCommand 替换模拟器参数中的 [name]
func emulatorCommand(emu settings.Emulator, name string) *exec.Cmd {
	args := make([]string, len(emu.Args))
	for i, arg := range emu.Args {
		args[i] = strings.ReplaceAll(arg, "[name]", name)
	}
	cmd := exec.Command(emu.Executable, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

func (a *App) updateWindow() {
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(a.cfg.Window.Width, a.cfg.Window.Height)
			a.pendingWindowSizeReset = false
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		if ebiten.IsFullscreen() {
			ebiten.SetFullscreen(false)
			if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
				ebiten.RestoreWindow()
			}
			// 窗口管理器需要几帧之后尺寸才会生效
			a.pendingWindowSizeReset = true
			a.windowSizeResetCountdown = 3
		} else {
			ebiten.SetFullscreen(true)
		}
		a.dirty = true
	}
}

// Draw 只在有变化时重绘，帧之间不清屏
func (a *App) Draw(screen *ebiten.Image) {
	if !a.dirty {
		return
	}
	screen.Clear()
	a.presenter.Draw(screen)
	a.dirty = false
}

// DrawFinalScreen 黑边填充，线性过滤缩放
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 返回逻辑屏幕尺寸
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return a.cfg.Window.Width, a.cfg.Window.Height
}

// Close 停止布局并释放 VM 和数据库
func (a *App) Close() error {
	if !a.quit {
		a.presenter.Stop()
	}
	err := present.Close()
	if dbErr := a.db.Close(); err == nil {
		err = dbErr
	}
	return err
}

// Title 返回窗口标题
func (a *App) Title() string { return a.cfg.Window.Title }

// Fullscreen 判断窗口是否以全屏启动
func (a *App) Fullscreen() bool { return a.cfg.Window.Fullscreen }
