package transition

import (
	"errors"
	"testing"
	"time"
)

// call 记录一次回调调用
type call struct {
	name string
	kind Kind
	v    int
}

// scriptedInvoker 按回调名称预设的结果序列应答
type scriptedInvoker struct {
	calls   []call
	results map[string][]Result
	errs    map[string]error
	hook    map[string]func()
}

func newScriptedInvoker() *scriptedInvoker {
	return &scriptedInvoker{results: map[string][]Result{}, errs: map[string]error{}, hook: map[string]func(){}}
}

func (s *scriptedInvoker) InvokeTransition(name string, kind Kind, v int, elapsed time.Duration) (Result, error) {
	s.calls = append(s.calls, call{name, kind, v})
	if h := s.hook[name]; h != nil {
		h()
	}
	if err := s.errs[name]; err != nil {
		return Done, err
	}
	rs := s.results[name]
	if len(rs) == 0 {
		return Done, nil
	}
	r := rs[0]
	if len(rs) > 1 {
		s.results[name] = rs[1:]
	}
	return r, nil
}

func (s *scriptedInvoker) names() []string {
	out := make([]string, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.name
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestCoordinator_HandledStopsLaterCallbacks 测试 "b" 返回 Handled 后 "c" 不会被调用
func TestCoordinator_HandledStopsLaterCallbacks(t *testing.T) {
	inv := newScriptedInvoker()
	inv.results["b"] = []Result{Handled}
	c := NewCoordinator(inv, time.Second)
	for _, n := range []string{"a", "b", "c"} {
		c.AddCallback(n)
	}

	done := false
	c.Run(Request{State: SelectionChanging, Kind: ToNewSelection, Var: -1, Then: func() { done = true }})
	if c.Step(0) {
		t.Error("transition should be complete after one pass")
	}
	if !equal(inv.names(), []string{"a", "b"}) {
		t.Errorf("calls = %v, want [a b]", inv.names())
	}
	if !done {
		t.Error("Then did not run")
	}
	if inv.calls[0].kind != ToNewSelection || inv.calls[0].v != -1 {
		t.Errorf("payload = %v/%d, want ToNewSelection/-1", inv.calls[0].kind, inv.calls[0].v)
	}
}

// TestCoordinator_ContinueRepeatsAcrossFrames 测试 Continue 只保留该回调
func TestCoordinator_ContinueRepeatsAcrossFrames(t *testing.T) {
	inv := newScriptedInvoker()
	inv.results["fade"] = []Result{Continue, Continue, Done}
	c := NewCoordinator(inv, time.Second)
	c.AddCallback("fade")
	c.AddCallback("other")

	c.Run(Request{State: LoadingLayout, Kind: StartLayout})
	if !c.Step(0) {
		t.Fatal("expected transition still in flight after first pass")
	}
	if c.State() != LoadingLayout {
		t.Errorf("State = %v, want LoadingLayout", c.State())
	}
	if !c.TakeRedraw() {
		t.Error("Continue should request a redraw")
	}
	if c.TakeRedraw() {
		t.Error("TakeRedraw should clear the flag")
	}
	c.Step(16 * time.Millisecond)
	c.Step(32 * time.Millisecond)

	if !equal(inv.names(), []string{"fade", "other", "fade", "fade"}) {
		t.Errorf("calls = %v", inv.names())
	}
	if c.Busy() || c.State() != Idle {
		t.Error("coordinator should be idle")
	}
}

// TestCoordinator_ErrorTreatedAsDone 测试回调出错不会中止过渡
func TestCoordinator_ErrorTreatedAsDone(t *testing.T) {
	inv := newScriptedInvoker()
	inv.errs["broken"] = errors.New("attempt to index a nil value")
	c := NewCoordinator(inv, time.Second)
	c.AddCallback("broken")
	c.AddCallback("fine")

	c.Run(Request{Kind: ToGame, State: EnteringGame})
	c.Step(0)
	if !equal(inv.names(), []string{"broken", "fine"}) {
		t.Errorf("calls = %v, want [broken fine]", inv.names())
	}

	// 出错的回调仍保留注册，供之后的过渡使用
	c.Run(Request{Kind: FromGame, State: ReturningFromGame})
	c.Step(time.Second)
	if len(inv.calls) != 4 {
		t.Errorf("calls = %v, want broken callback invoked again", inv.names())
	}
}

// TestCoordinator_Timeout 测试一直不结束的回调被强制推进
func TestCoordinator_Timeout(t *testing.T) {
	inv := newScriptedInvoker()
	inv.results["stuck"] = []Result{Continue}
	c := NewCoordinator(inv, 100*time.Millisecond)
	c.AddCallback("stuck")

	finished := false
	c.Run(Request{Kind: EndLayout, State: EndingLayout, Then: func() { finished = true }})
	for now := time.Duration(0); now <= 100*time.Millisecond; now += 10 * time.Millisecond {
		if !c.Step(now) {
			t.Fatalf("finished early at %v", now)
		}
	}
	if c.Step(101 * time.Millisecond) {
		t.Error("transition should time out")
	}
	if !finished {
		t.Error("Then must run after a timeout")
	}
}

// TestCoordinator_Preempt 测试被取代的过渡不再调用过期回调
func TestCoordinator_Preempt(t *testing.T) {
	inv := newScriptedInvoker()
	inv.results["slow"] = []Result{Continue}
	c := NewCoordinator(inv, time.Minute)
	c.AddCallback("slow")
	c.AddCallback("late")

	var order []string
	c.Run(Request{Kind: ToNewSelection, Var: 1, State: SelectionChanging, Then: func() { order = append(order, "selection") }})
	c.Run(Request{Kind: StartLayout, State: LoadingLayout, Then: func() { order = append(order, "start") }})
	c.Step(0) // slow 继续，late 完成

	inv.results["slow"] = []Result{Done}
	c.Preempt(Request{Kind: FromGame, State: ReturningFromGame, Then: func() { order = append(order, "fromgame") }})
	if !equal(order, []string{"selection"}) {
		t.Fatalf("abandoned transition's Then should run on preempt, order = %v", order)
	}

	inv.calls = nil
	c.Step(time.Millisecond)
	for _, cl := range inv.calls {
		if cl.kind == ToNewSelection {
			t.Errorf("stale callback %s ran for the abandoned transition", cl.name)
		}
	}
	if inv.calls[0].kind != FromGame {
		t.Errorf("first call after preempt = %v, want FromGame", inv.calls[0].kind)
	}
	if !equal(order, []string{"selection", "fromgame", "start"}) {
		t.Errorf("order = %v", order)
	}
}

// TestCoordinator_PreemptFromCallback 测试在回调内部发起的抢占
func TestCoordinator_PreemptFromCallback(t *testing.T) {
	inv := newScriptedInvoker()
	c := NewCoordinator(inv, time.Minute)
	c.AddCallback("a")
	c.AddCallback("b")
	fired := false
	inv.hook["a"] = func() {
		if fired {
			return
		}
		fired = true
		c.Preempt(Request{Kind: ToGame, State: EnteringGame})
	}

	c.Run(Request{Kind: ToNewSelection, State: SelectionChanging})
	c.Step(0)
	want := []call{{"a", ToNewSelection, 0}, {"a", ToGame, 0}, {"b", ToGame, 0}}
	if len(inv.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", inv.calls, want)
	}
	for i := range want {
		if inv.calls[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, inv.calls[i], want[i])
		}
	}
}

// TestCoordinator_NoCallbacks 测试没有回调的过渡在一次 Step 内连续完成
func TestCoordinator_NoCallbacks(t *testing.T) {
	c := NewCoordinator(newScriptedInvoker(), time.Second)
	var order []Kind
	c.Run(Request{Kind: EndLayout, Then: func() {
		order = append(order, EndLayout)
		c.Run(Request{Kind: StartLayout, Then: func() { order = append(order, StartLayout) }})
	}})
	if c.Step(0) {
		t.Error("expected idle")
	}
	if len(order) != 2 || order[0] != EndLayout || order[1] != StartLayout {
		t.Errorf("order = %v", order)
	}
}

// TestCoordinator_Pending 测试在进行中和队列中按类型查找
func TestCoordinator_Pending(t *testing.T) {
	inv := newScriptedInvoker()
	inv.results["x"] = []Result{Continue}
	c := NewCoordinator(inv, time.Second)
	c.AddCallback("x")
	c.Run(Request{Kind: ToNewSelection})
	c.Run(Request{Kind: ToGame})
	c.Step(0)
	if !c.Pending(ToNewSelection) || !c.Pending(ToGame) || c.Pending(FromGame) {
		t.Error("Pending mismatch")
	}
}

// TestCoordinator_Flush 测试退出时排空队列
func TestCoordinator_Flush(t *testing.T) {
	inv := newScriptedInvoker()
	inv.results["x"] = []Result{Continue}
	c := NewCoordinator(inv, 50*time.Millisecond)
	c.AddCallback("x")
	c.Run(Request{Kind: EndLayout})

	var now time.Duration
	c.Flush(func() time.Duration { now += 10 * time.Millisecond; return now })
	if c.Busy() {
		t.Error("Flush should leave the coordinator idle")
	}
}
