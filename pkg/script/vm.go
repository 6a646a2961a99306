// Package script 在内嵌的 Lua VM 中执行布局脚本
//
// 脚本通过全局 fe 表与前端交互，fe 表转发到 present 包的入口函数。
// 元素以 userdata 形式返回给 Lua，属性用普通字段语法读写：
//
//	local snap = fe.add_artwork("snap", 10, 10, 320, 240)
//	snap.alpha = 128
//	fe.add_transition_callback("on_transition")
//
// Go 对 Lua 的每次调用都是保护调用并带有截止时间，
// 脚本错误或死循环会作为错误返回，不会卡死前端
package script

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/decker502/arcadefe/pkg/embedded"
	"github.com/decker502/arcadefe/pkg/scene"
	"github.com/decker502/arcadefe/pkg/transition"
)

var (
	// ErrCallback 包装脚本回调的所有失败
	ErrCallback = errors.New("script callback failed")
	// ErrNotFunction 回调名称解析不到函数时返回
	ErrNotFunction = errors.New("not a function")
)

// Options VM 的配置
type Options struct {
	// CallbackBudget 单次 tick 或过渡回调的时限，为 0 时不限制
	CallbackBudget time.Duration
	// LoadBudget 整个布局脚本的时限，为 0 时不限制
	LoadBudget time.Duration
}

// VM 安装了 fe API 的 Lua 状态
type VM struct {
	L      *lua.LState
	opts   Options
	depth  int
	funcs  map[string]*lua.LFunction
	nextFn int

	images    *class[*scene.Image]
	texts     *class[*scene.Text]
	listBoxes *class[*scene.ListBox]
	sounds    *class[*scene.Sound]
}

// New 创建带标准库和 fe API 的 VM
func New(opts Options) *VM {
	vm := &VM{
		L:     lua.NewState(),
		opts:  opts,
		funcs: make(map[string]*lua.LFunction),
	}
	vm.registerClasses()
	vm.registerAPI()
	return vm
}

// Close 释放 Lua 状态
func (vm *VM) Close() error {
	if vm.L != nil {
		vm.L.Close()
		vm.L = nil
	}
	return nil
}

// RunLayout 在加载时限内执行布局脚本，上一个布局以函数值注册的回调被清除
func (vm *VM) RunLayout(path string) error {
	if vm.L == nil {
		return errors.New("vm closed")
	}
	clear(vm.funcs)
	fn, err := vm.load(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	if _, err := vm.call(vm.opts.LoadBudget, fn, 0); err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}
	return nil
}

// RunFile 执行另一个脚本文件，在运行中的脚本里调用时共用调用方的截止时间
func (vm *VM) RunFile(path string) error {
	if vm.depth > 0 {
		return vm.L.DoFile(path)
	}
	fn, err := vm.load(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	_, err = vm.call(vm.opts.LoadBudget, fn, 0)
	return err
}

// load 编译脚本文件，磁盘上不存在时使用内置副本（如果有）
func (vm *VM) load(path string) (*lua.LFunction, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && embedded.IsInitialized() {
		if rel, ok := embedded.Builtin(path); ok {
			src, err := embedded.ReadFile(rel)
			if err != nil {
				return nil, err
			}
			log.Printf("[Script] %s not found, using built-in %s", path, rel)
			return vm.L.Load(bytes.NewReader(src), path)
		}
	}
	return vm.L.LoadFile(path)
}

// RunString 执行一段 Lua 源码
func (vm *VM) RunString(src string) error {
	fn, err := vm.L.LoadString(src)
	if err != nil {
		return err
	}
	_, err = vm.call(vm.opts.LoadBudget, fn, 0)
	return err
}

// CallTick 调用 tick 回调，参数为布局时间（毫秒）
func (vm *VM) CallTick(name string, layoutTime time.Duration) error {
	fn, err := vm.lookup(name)
	if err != nil {
		return err
	}
	if _, err := vm.call(vm.opts.CallbackBudget, fn, 1, lua.LNumber(layoutTime.Milliseconds())); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCallback, name, err)
	}
	return nil
}

// InvokeTransition 以 (kind, var, 已用毫秒) 调用过渡回调，返回值映射如下：
//
//	nil, false, 0, TransitionResult.Done -> Done
//	true, 1, TransitionResult.Continue  -> Continue
//	2, TransitionResult.Handled         -> Handled
func (vm *VM) InvokeTransition(name string, kind transition.Kind, v int, elapsed time.Duration) (transition.Result, error) {
	fn, err := vm.lookup(name)
	if err != nil {
		return transition.Done, err
	}
	ret, err := vm.call(vm.opts.CallbackBudget, fn, 1,
		lua.LNumber(kind), lua.LNumber(v), lua.LNumber(elapsed.Milliseconds()))
	if err != nil {
		return transition.Done, fmt.Errorf("%w: %s: %v", ErrCallback, name, err)
	}
	return toResult(ret), nil
}

func toResult(v lua.LValue) transition.Result {
	switch x := v.(type) {
	case lua.LBool:
		if x {
			return transition.Continue
		}
	case lua.LNumber:
		switch int(x) {
		case int(transition.Continue):
			return transition.Continue
		case int(transition.Handled):
			return transition.Handled
		}
	}
	return transition.Done
}

// call 以 budget 为时限保护调用 fn，nret 为 1 时返回第一个结果
func (vm *VM) call(budget time.Duration, fn lua.LValue, nret int, args ...lua.LValue) (lua.LValue, error) {
	L := vm.L
	if L == nil {
		return lua.LNil, errors.New("vm closed")
	}
	if vm.depth == 0 && budget > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), budget)
		defer cancel()
		L.SetContext(ctx)
		defer L.RemoveContext()
	}
	vm.depth++
	defer func() { vm.depth-- }()

	top := L.GetTop()
	defer L.SetTop(top)
	if err := L.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}, args...); err != nil {
		return lua.LNil, err
	}
	if nret == 0 {
		return lua.LNil, nil
	}
	return L.Get(-1), nil
}

// lookup 解析回调名称：先查以函数值注册的回调，再查全局变量
func (vm *VM) lookup(name string) (*lua.LFunction, error) {
	if fn, ok := vm.funcs[name]; ok {
		return fn, nil
	}
	if vm.L == nil {
		return nil, errors.New("vm closed")
	}
	if fn, ok := vm.L.GetGlobal(name).(*lua.LFunction); ok {
		return fn, nil
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrCallback, name, ErrNotFunction)
}

// callbackName 接受全局函数名或函数值，函数值会生成一个名称
func (vm *VM) callbackName(L *lua.LState, n int) string {
	switch v := L.Get(n).(type) {
	case lua.LString:
		return string(v)
	case *lua.LFunction:
		vm.nextFn++
		name := fmt.Sprintf("<function %d>", vm.nextFn)
		vm.funcs[name] = v
		return name
	}
	L.ArgError(n, "function or function name expected")
	return ""
}

// warn 记录桥接层的拒绝，并向 Lua 返回 nil 和错误信息
func warn(L *lua.LState, what string, err error) int {
	log.Printf("[Script] Warning: %s: %v", what, err)
	L.Push(lua.LNil)
	L.Push(lua.LString(err.Error()))
	return 2
}
