package present

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/decker502/arcadefe/pkg/config"
	"github.com/decker502/arcadefe/pkg/gamedb"
	"github.com/decker502/arcadefe/pkg/input"
	"github.com/decker502/arcadefe/pkg/scene"
	"github.com/decker502/arcadefe/pkg/transform"
	"github.com/decker502/arcadefe/pkg/transition"
)

const ms = time.Millisecond

// fakeSettings 内存中的 settings.Settings
type fakeSettings struct {
	base       transform.Rotation
	autorotate transform.Rotation
	mute       bool
}

func (s *fakeSettings) BaseRotation() transform.Rotation { return s.base }
func (s *fakeSettings) Autorotate() transform.Rotation   { return s.autorotate }
func (s *fakeSettings) PlayMovies() bool                 { return true }
func (s *fakeSettings) Mute() bool                       { return s.mute }
func (s *fakeSettings) SetMute(mute bool)                { s.mute = mute }
func (s *fakeSettings) DefaultFont() string              { return "" }
func (s *fakeSettings) FontPaths() []string              { return nil }
func (s *fakeSettings) LayoutPath(name string) string    { return name + "/layout.lua" }
func (s *fakeSettings) LayoutDir(name string) string     { return name }
func (s *fakeSettings) ArtworkDirs(string) []string      { return nil }

type fakeClock struct{ now time.Duration }

func (c *fakeClock) Now() time.Duration { return c.now }

type transitionCall struct {
	name string
	kind transition.Kind
	v    int
}

func (c transitionCall) String() string { return fmt.Sprintf("%s:%s:%d", c.name, c.kind, c.v) }

// fakeVM 以 Go 函数执行布局，并记录每个回调
type fakeVM struct {
	layouts     map[string]func()
	onTransit   func(name string, kind transition.Kind, v int) (transition.Result, error)
	tickErrs    map[string]error
	transitions []transitionCall
	ticks       []string
	files       []string
	closed      bool
}

func newFakeVM() *fakeVM {
	return &fakeVM{layouts: make(map[string]func()), tickErrs: make(map[string]error)}
}

func (vm *fakeVM) RunLayout(path string) error {
	name := strings.TrimSuffix(path, "/layout.lua")
	if fn, ok := vm.layouts[name]; ok {
		fn()
		return nil
	}
	return fmt.Errorf("layout %s: not found", name)
}

func (vm *fakeVM) RunFile(path string) error {
	vm.files = append(vm.files, path)
	return nil
}

func (vm *fakeVM) CallTick(name string, layoutTime time.Duration) error {
	vm.ticks = append(vm.ticks, name)
	return vm.tickErrs[name]
}

func (vm *fakeVM) InvokeTransition(name string, kind transition.Kind, v int, elapsed time.Duration) (transition.Result, error) {
	vm.transitions = append(vm.transitions, transitionCall{name, kind, v})
	if vm.onTransit != nil {
		return vm.onTransit(name, kind, v)
	}
	return transition.Done, nil
}

func (vm *fakeVM) Close() error {
	vm.closed = true
	return nil
}

func (vm *fakeVM) calls() string {
	parts := make([]string, len(vm.transitions))
	for i, c := range vm.transitions {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

type harness struct {
	p        *Presenter
	vm       *fakeVM
	clock    *fakeClock
	games    *gamedb.List
	settings *fakeSettings
}

// newHarness 基于 n 个游戏创建活动 Presenter
// 第 i 个游戏名为 gI，每三个游戏中有一个是竖屏
func newHarness(t *testing.T, n int) *harness {
	t.Helper()
	var sb strings.Builder
	for i := 0; i < n; i++ {
		rot := "0"
		if i%3 == 0 {
			rot = "90"
		}
		fmt.Fprintf(&sb, "g%d;Game %d;mame;;1980;Maker;Cat;1;%s\n", i, i, rot)
	}
	list, err := gamedb.ParseRomlist(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatal(err)
	}
	h := &harness{
		vm:       newFakeVM(),
		clock:    &fakeClock{},
		games:    gamedb.NewList("Arcade", list),
		settings: &fakeSettings{},
	}
	timing := config.DefaultFrontendConfig().Timing
	h.p = NewPresenter(h.settings, h.games, h.vm, Options{
		Timing:  timing,
		Surface: transform.Size{W: 640, H: 480},
		Clock:   h.clock,
	})
	Open(h.p)
	t.Cleanup(func() { Close() })
	return h
}

// tick 将时钟推进 d 并执行一帧
func (h *harness) tick(d time.Duration) bool {
	h.clock.now += d
	return h.p.Tick()
}

// load 加载布局并执行帧直到加载完成
func (h *harness) load(t *testing.T, name string) {
	t.Helper()
	if name == config.ScreensaverLayoutName {
		h.p.LoadScreensaver()
	} else {
		h.p.LoadLayout(name)
	}
	for i := 0; h.p.Busy(); i++ {
		if i > 100 {
			t.Fatalf("load of %s did not complete", name)
		}
		h.tick(16 * ms)
	}
}

func (h *harness) press(c input.Command) bool {
	return h.p.HandleEvent(input.Event{Command: c, Pressed: true})
}

func (h *harness) release(c input.Command) bool {
	return h.p.HandleEvent(input.Event{Command: c, Pressed: false})
}

func TestLoadLayout_StartAndEndVars(t *testing.T) {
	h := newHarness(t, 3)
	h.vm.layouts["main"] = func() {
		if err := AddTransitionCallback("main_cb"); err != nil {
			t.Errorf("AddTransitionCallback: %v", err)
		}
	}
	h.vm.layouts[config.ScreensaverLayoutName] = func() {
		AddTransitionCallback("saver_cb")
	}

	h.load(t, "main")
	if got, want := h.vm.calls(), "main_cb:StartLayout:0"; got != want {
		t.Fatalf("calls = %q, want %q", got, want)
	}

	h.vm.transitions = nil
	h.load(t, config.ScreensaverLayoutName)
	if got, want := h.vm.calls(), "main_cb:EndLayout:1 saver_cb:StartLayout:0"; got != want {
		t.Errorf("to screensaver calls = %q, want %q", got, want)
	}
	if !h.p.ScreensaverActive() {
		t.Error("screensaver should be active")
	}

	h.vm.transitions = nil
	h.load(t, "main")
	if got, want := h.vm.calls(), "saver_cb:EndLayout:0 main_cb:StartLayout:1"; got != want {
		t.Errorf("from screensaver calls = %q, want %q", got, want)
	}
	if h.p.ScreensaverActive() {
		t.Error("screensaver should be inactive")
	}
}

func TestLoadLayout_ConstructionPhase(t *testing.T) {
	h := newHarness(t, 3)
	var during error
	h.vm.layouts["main"] = func() {
		_, during = AddText("[Title]", 0, 0, 100, 20)
	}
	h.load(t, "main")

	if during != nil {
		t.Fatalf("AddText during load: %v", during)
	}
	if h.p.Graph().Len() != 1 {
		t.Fatalf("graph has %d elements, want 1", h.p.Graph().Len())
	}
	if _, err := AddText("late", 0, 0, 10, 10); !errors.Is(err, scene.ErrNotConstructing) {
		t.Errorf("AddText after load err = %v, want ErrNotConstructing", err)
	}
	if h.p.Graph().Len() != 1 {
		t.Errorf("rejected element must not be added, len = %d", h.p.Graph().Len())
	}
}

func TestBridge_NoActivePresenter(t *testing.T) {
	Close()
	if _, err := AddImage("bg.png"); !errors.Is(err, ErrNoActivePresenter) {
		t.Errorf("AddImage err = %v, want ErrNoActivePresenter", err)
	}
	if err := AddTicksCallback("tick"); !errors.Is(err, ErrNoActivePresenter) {
		t.Errorf("AddTicksCallback err = %v, want ErrNoActivePresenter", err)
	}
	if IsKeyPressed("up") {
		t.Error("IsKeyPressed without presenter should be false")
	}
}

func TestBridge_GeometryArity(t *testing.T) {
	h := newHarness(t, 3)
	var errs []error
	h.vm.layouts["main"] = func() {
		for _, geom := range [][]int{{}, {1, 2}, {1, 2, 3, 4}, {1, 2, 3}} {
			_, err := AddImage("missing.png", geom...)
			errs = append(errs, err)
		}
	}
	h.load(t, "main")

	for i, err := range errs[:3] {
		if err != nil {
			t.Errorf("geometry case %d: unexpected error %v", i, err)
		}
	}
	if !errors.Is(errs[3], ErrBadGeometry) {
		t.Errorf("3-value geometry err = %v, want ErrBadGeometry", errs[3])
	}
}

func TestBridge_GameInfo(t *testing.T) {
	h := newHarness(t, 5)
	h.games.SetIndex(2)

	tests := []struct {
		name     string
		field    gamedb.Field
		offset   []int
		expected string
	}{
		{"current name", gamedb.FieldName, nil, "g2"},
		{"next title", gamedb.FieldTitle, []int{1}, "Game 3"},
		{"previous rotation", gamedb.FieldRotation, []int{-2}, "90"},
		{"wraps", gamedb.FieldName, []int{3}, "g0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GameInfo(tt.field, tt.offset...)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.expected {
				t.Errorf("GameInfo = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDoNut_RelativeToLayout(t *testing.T) {
	h := newHarness(t, 1)
	h.vm.layouts["main"] = func() {
		DoNut("common.lua")
	}
	h.load(t, "main")
	if len(h.vm.files) != 1 || h.vm.files[0] != "main/common.lua" {
		t.Errorf("files = %v, want [main/common.lua]", h.vm.files)
	}
}

func TestNavigation_PageSizeFromListBox(t *testing.T) {
	h := newHarness(t, 30)
	h.vm.layouts["main"] = func() {
		lb, err := AddListBox(0, 0, 200, 400)
		if err != nil {
			t.Fatal(err)
		}
		lb.SetRows(10)
		AddTransitionCallback("cb")
	}
	h.load(t, "main")
	h.vm.transitions = nil

	if h.p.PageSize() != 10 {
		t.Fatalf("PageSize = %d, want 10", h.p.PageSize())
	}
	h.press(input.PageDown)
	h.tick(16 * ms)
	if h.games.Index() != 10 {
		t.Errorf("after page down index = %d, want 10", h.games.Index())
	}
	h.release(input.PageDown)

	h.press(input.Up)
	h.tick(16 * ms)
	if h.games.Index() != 9 {
		t.Errorf("after up index = %d, want 9", h.games.Index())
	}
	if got, want := h.vm.calls(), "cb:ToNewSelection:10 cb:ToNewSelection:-1"; got != want {
		t.Errorf("calls = %q, want %q", got, want)
	}
}

func TestNavigation_DefaultPageSize(t *testing.T) {
	h := newHarness(t, 30)
	h.vm.layouts["main"] = func() {}
	h.load(t, "main")

	if h.p.PageSize() != config.DefaultPageSize {
		t.Fatalf("PageSize = %d, want %d", h.p.PageSize(), config.DefaultPageSize)
	}
	h.press(input.PageUp)
	h.tick(16 * ms)
	if h.games.Index() != 25 {
		t.Errorf("index = %d, want 25", h.games.Index())
	}
}

func TestNavigation_HoldRepeat(t *testing.T) {
	h := newHarness(t, 30)
	h.vm.layouts["main"] = func() {}
	h.load(t, "main")

	h.press(input.Down)
	h.tick(0)
	if h.games.Index() != 1 {
		t.Fatalf("first step: index = %d, want 1", h.games.Index())
	}
	h.tick(300 * ms)
	if h.games.Index() != 1 {
		t.Errorf("before the initial delay: index = %d, want 1", h.games.Index())
	}
	h.tick(101 * ms)
	if h.games.Index() != 2 {
		t.Errorf("after the initial delay: index = %d, want 2", h.games.Index())
	}
	h.tick(61 * ms)
	if h.games.Index() != 3 {
		t.Errorf("after a repeat interval: index = %d, want 3", h.games.Index())
	}

	h.press(input.ToggleMovie)
	h.tick(500 * ms)
	if h.games.Index() != 3 {
		t.Errorf("an unrelated command must stop the move: index = %d, want 3", h.games.Index())
	}
}

func TestTickCallbackErrorDoesNotBlockOthers(t *testing.T) {
	h := newHarness(t, 3)
	h.vm.layouts["main"] = func() {
		AddTicksCallback("broken")
		AddTicksCallback("clock")
	}
	h.vm.tickErrs["broken"] = errors.New("attempt to index a nil value")
	h.load(t, "main")
	h.vm.ticks = nil

	h.tick(16 * ms)
	h.tick(16 * ms)
	if got, want := strings.Join(h.vm.ticks, " "), "broken clock broken clock"; got != want {
		t.Errorf("ticks = %q, want %q", got, want)
	}
}

func TestTransition_ErrorTreatedAsDone(t *testing.T) {
	h := newHarness(t, 3)
	h.vm.layouts["main"] = func() {
		AddTransitionCallback("a")
		AddTransitionCallback("b")
	}
	h.vm.onTransit = func(name string, kind transition.Kind, v int) (transition.Result, error) {
		if name == "a" {
			return transition.Continue, errors.New("boom")
		}
		return transition.Done, nil
	}
	h.load(t, "main")
	h.vm.transitions = nil

	h.press(input.Down)
	h.tick(16 * ms)
	if h.p.Busy() {
		t.Error("a failing callback must not keep the transition alive")
	}
	if got, want := h.vm.calls(), "a:ToNewSelection:1 b:ToNewSelection:1"; got != want {
		t.Errorf("calls = %q, want %q", got, want)
	}
}

func TestPostRun_PreemptsSelectionChange(t *testing.T) {
	h := newHarness(t, 5)
	h.vm.layouts["main"] = func() {
		AddTransitionCallback("anim")
	}
	h.load(t, "main")
	h.vm.transitions = nil
	h.vm.onTransit = func(name string, kind transition.Kind, v int) (transition.Result, error) {
		if kind == transition.ToNewSelection {
			return transition.Continue, nil
		}
		return transition.Done, nil
	}

	h.press(input.Down)
	h.tick(16 * ms)
	if h.p.Coordinator().State() != transition.SelectionChanging {
		t.Fatalf("state = %v, want SelectionChanging", h.p.Coordinator().State())
	}

	h.p.PostRun()
	if h.games.Index() != 1 {
		t.Errorf("the preempted selection change must still apply, index = %d", h.games.Index())
	}
	h.tick(16 * ms)
	if h.p.Busy() {
		t.Error("FromGame should have completed")
	}
	if got, want := h.vm.calls(), "anim:ToNewSelection:1 anim:FromGame:0"; got != want {
		t.Errorf("calls = %q, want %q", got, want)
	}
}

func TestPreRun_LaunchesAfterToGame(t *testing.T) {
	h := newHarness(t, 3)
	h.vm.layouts["main"] = func() {
		AddTransitionCallback("anim")
	}
	h.load(t, "main")
	h.vm.transitions = nil
	frames := 0
	h.vm.onTransit = func(name string, kind transition.Kind, v int) (transition.Result, error) {
		if kind == transition.ToGame {
			frames++
			if frames < 3 {
				return transition.Continue, nil
			}
		}
		return transition.Done, nil
	}

	launched := false
	h.p.PreRun(func() { launched = true })
	for i := 0; i < 2; i++ {
		if !h.tick(16 * ms) {
			t.Errorf("frame %d: an animating callback should request a redraw", i)
		}
		if launched {
			t.Fatalf("launched during frame %d, before ToGame finished", i)
		}
	}
	h.tick(16 * ms)
	if !launched {
		t.Error("game should launch once ToGame finished")
	}
}

func TestStop_RunsEndLayout(t *testing.T) {
	h := newHarness(t, 3)
	h.vm.layouts["main"] = func() {
		AddTransitionCallback("cb")
	}
	h.load(t, "main")
	h.vm.transitions = nil

	h.p.Stop()
	if got, want := h.vm.calls(), "cb:EndLayout:0"; got != want {
		t.Errorf("calls = %q, want %q", got, want)
	}
	if err := Close(); err != nil {
		t.Fatal(err)
	}
	if !h.vm.closed {
		t.Error("Close should close the VM")
	}
}

func TestPerformAutorotate(t *testing.T) {
	h := newHarness(t, 4)
	h.settings.autorotate = transform.RotateRight
	h.vm.layouts["main"] = func() {}
	h.load(t, "main")

	if got := h.p.Transform().ToggleState(); got != transform.RotateRight {
		t.Errorf("vertical game toggle = %v, want right", got)
	}
	h.press(input.Down)
	h.tick(16 * ms)
	if got := h.p.Transform().ToggleState(); got != transform.RotateNone {
		t.Errorf("horizontal game toggle = %v, want none", got)
	}

	// 关闭自动旋转时，用户切换的旋转在选择变化后保留
	h.settings.autorotate = transform.RotateNone
	h.release(input.Down)
	h.press(input.RotateLeft)
	if got := h.p.Transform().ToggleState(); got != transform.RotateLeft {
		t.Fatalf("manual toggle = %v, want left", got)
	}
	for i := 0; i < 3; i++ {
		h.press(input.Down)
		h.tick(16 * ms)
		h.release(input.Down)
	}
	if got := h.p.Transform().ToggleState(); got != transform.RotateLeft {
		t.Errorf("toggle after selection changes = %v, want left", got)
	}
}

func TestHandleEvent_Commands(t *testing.T) {
	h := newHarness(t, 3)
	h.vm.layouts["main"] = func() {}
	h.load(t, "main")

	if !h.press(input.RotateRight) {
		t.Error("RotateRight should be handled")
	}
	if got := h.p.Transform().ToggleState(); got != transform.RotateRight {
		t.Errorf("toggle = %v, want right", got)
	}
	h.press(input.RotateRight)
	if got := h.p.Transform().ToggleState(); got != transform.RotateNone {
		t.Errorf("second RotateRight toggle = %v, want none", got)
	}

	h.press(input.ToggleMute)
	if !h.settings.mute || !h.p.Graph().Context().Mute {
		t.Error("ToggleMute should mute settings and scene")
	}

	for _, c := range []input.Command{input.Select, input.Back, input.Screensaver} {
		if h.press(c) {
			t.Errorf("%v should not be handled by the presenter", c)
		}
	}
}

func TestMovieStartDelay(t *testing.T) {
	h := newHarness(t, 3)
	h.vm.layouts["main"] = func() {}
	h.load(t, "main")
	ctx := h.p.Graph().Context()
	delay := config.DefaultFrontendConfig().Timing.MovieStartDelay()

	h.press(input.Down)
	h.tick(0)
	if ctx.MoviesReady {
		t.Fatal("movies must not be ready right after a selection change")
	}
	h.release(input.Down)
	h.tick(delay)
	if !ctx.MoviesReady {
		t.Error("movies should be ready once the selection stayed still")
	}
}

func TestSetLayoutFont_FallsBackToDefault(t *testing.T) {
	h := newHarness(t, 1)
	h.vm.layouts["main"] = func() {
		SetLayoutFont("no-such-font")
	}
	h.load(t, "main")
	if h.p.Font() == nil {
		t.Fatal("active font must never be nil")
	}
	if h.p.Font() != scene.DefaultFont() {
		t.Errorf("font = %s, want the default font", h.p.Font().Name())
	}
}

func TestLayoutSizeAndOrient(t *testing.T) {
	h := newHarness(t, 1)
	h.vm.layouts["main"] = func() {
		SetLayoutWidth(320)
		SetLayoutHeight(240)
		SetLayoutOrient(transform.RotateFlip)
	}
	h.load(t, "main")

	w, hgt, orient, _, err := Layout()
	if err != nil {
		t.Fatal(err)
	}
	if w != 320 || hgt != 240 || orient != transform.RotateFlip {
		t.Errorf("layout = %dx%d %v, want 320x240 flip", w, hgt, orient)
	}

	h.vm.layouts["other"] = func() {}
	h.load(t, "other")
	if h.p.LayoutWidth() != 640 || h.p.LayoutOrient() != transform.RotateNone {
		t.Errorf("a new layout should reset size and orient, got %d %v",
			h.p.LayoutWidth(), h.p.LayoutOrient())
	}
}

func TestLayoutSetters_RejectedAfterConstruction(t *testing.T) {
	h := newHarness(t, 1)
	h.vm.layouts["main"] = func() {
		if err := SetLayoutWidth(320); err != nil {
			t.Errorf("SetLayoutWidth during construction: %v", err)
		}
	}
	h.load(t, "main")

	tests := []struct {
		name string
		set  func() error
	}{
		{"width", func() error { return SetLayoutWidth(10) }},
		{"height", func() error { return SetLayoutHeight(10) }},
		{"orient", func() error { return SetLayoutOrient(transform.RotateLeft) }},
		{"font", func() error { return SetLayoutFont("no-such-font") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.set(); !errors.Is(err, scene.ErrNotConstructing) {
				t.Errorf("err = %v, want ErrNotConstructing", err)
			}
		})
	}
	if w, hgt := h.p.LayoutWidth(), h.p.LayoutHeight(); w != 320 || hgt != 480 {
		t.Errorf("layout size = %dx%d, want 320x480", w, hgt)
	}
	if got := h.p.LayoutOrient(); got != transform.RotateNone {
		t.Errorf("orient = %v, want none", got)
	}
	if h.p.Font() != scene.DefaultFont() {
		t.Errorf("font = %s, want the default font", h.p.Font().Name())
	}
}

func TestLoadLayout_StaleElementsFromPreviousLayout(t *testing.T) {
	h := newHarness(t, 3)
	var old *scene.Image
	h.vm.layouts["a"] = func() {
		img, err := AddImage("a.png")
		if err != nil {
			t.Fatalf("AddImage: %v", err)
		}
		old = img
	}
	h.vm.layouts["b"] = func() {
		old.SetFile("stale.png")
		old.SetIndexOffset(1)
	}
	h.load(t, "a")
	h.load(t, "b")

	textures := h.p.Graph().Context().Textures
	if h.p.Graph().Len() != 0 {
		t.Errorf("graph len = %d, want 0", h.p.Graph().Len())
	}
	if textures.Len() != 0 || textures.Refs("stale.png") != 0 {
		t.Errorf("textures len = %d refs = %d, want 0/0", textures.Len(), textures.Refs("stale.png"))
	}
}
