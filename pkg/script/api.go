package script

import (
	"errors"

	lua "github.com/yuin/gopher-lua"

	"github.com/decker502/arcadefe/pkg/ease"
	"github.com/decker502/arcadefe/pkg/gamedb"
	"github.com/decker502/arcadefe/pkg/present"
	"github.com/decker502/arcadefe/pkg/scene"
	"github.com/decker502/arcadefe/pkg/transform"
	"github.com/decker502/arcadefe/pkg/transition"
)

func (vm *VM) registerAPI() {
	L := vm.L
	fe := L.NewTable()
	L.SetFuncs(fe, map[string]lua.LGFunction{
		"add_image":               vm.addImage,
		"add_artwork":             vm.addArtwork,
		"add_clone":               vm.addClone,
		"add_text":                vm.addText,
		"add_listbox":             vm.addListBox,
		"add_sound":               vm.addSound,
		"add_ticks_callback":      vm.addTicksCallback,
		"add_transition_callback": vm.addTransitionCallback,
		"is_keypressed":           isKeyPressed,
		"is_joybuttonpressed":     isJoyButtonPressed,
		"get_joyaxispos":          getJoyAxisPos,
		"do_nut":                  doNut,
		"game_info":               gameInfo,
		"flag_redraw":             flagRedraw,
		"ease":                    easeCurve,
		"lerp":                    lerp,
	})
	L.SetField(fe, "layout", layoutTable(L))
	L.SetGlobal("fe", fe)

	info := L.NewTable()
	for _, f := range gamedb.Fields() {
		L.SetField(info, f.String(), lua.LNumber(f))
	}
	L.SetGlobal("Info", info)

	L.SetGlobal("Transition", constants(L, map[string]int{
		"StartLayout":    int(transition.StartLayout),
		"EndLayout":      int(transition.EndLayout),
		"ToNewSelection": int(transition.ToNewSelection),
		"ToGame":         int(transition.ToGame),
		"FromGame":       int(transition.FromGame),
	}))
	L.SetGlobal("TransitionResult", constants(L, map[string]int{
		"Done":     int(transition.Done),
		"Continue": int(transition.Continue),
		"Handled":  int(transition.Handled),
	}))
	L.SetGlobal("RotateScreen", constants(L, map[string]int{
		"None":  int(transform.RotateNone),
		"Right": int(transform.RotateRight),
		"Flip":  int(transform.RotateFlip),
		"Left":  int(transform.RotateLeft),
	}))
	L.SetGlobal("Align", constants(L, map[string]int{
		"Centre": int(scene.AlignCentre),
		"Left":   int(scene.AlignLeft),
		"Right":  int(scene.AlignRight),
	}))
}

func constants(L *lua.LState, values map[string]int) *lua.LTable {
	t := L.NewTable()
	for k, v := range values {
		L.SetField(t, k, lua.LNumber(v))
	}
	return t
}

// geometryArgs 收集从第 n 个开始的可选整数参数
func geometryArgs(L *lua.LState, n int) []int {
	var geom []int
	for i := n; i <= L.GetTop(); i++ {
		geom = append(geom, L.CheckInt(i))
	}
	return geom
}

// pushElement 将元素或拒绝原因返回给 Lua
// 几何参数错误按参数错误处理，其它失败返回 nil 和错误信息
func pushElement[T any](L *lua.LState, c *class[T], what string, v T, err error) int {
	if err != nil {
		if errors.Is(err, present.ErrBadGeometry) {
			L.ArgError(2, err.Error())
			return 0
		}
		return warn(L, what, err)
	}
	L.Push(c.wrap(L, v))
	return 1
}

func (vm *VM) addImage(L *lua.LState) int {
	name := L.CheckString(1)
	img, err := present.AddImage(name, geometryArgs(L, 2)...)
	return pushElement(L, vm.images, "add_image "+name, img, err)
}

func (vm *VM) addArtwork(L *lua.LState) int {
	label := L.CheckString(1)
	img, err := present.AddArtwork(label, geometryArgs(L, 2)...)
	return pushElement(L, vm.images, "add_artwork "+label, img, err)
}

func (vm *VM) addClone(L *lua.LState) int {
	src := vm.images.check(L, 1)
	img, err := present.AddClone(src)
	return pushElement(L, vm.images, "add_clone", img, err)
}

func (vm *VM) addText(L *lua.LState) int {
	msg := L.CheckString(1)
	t, err := present.AddText(msg, L.CheckInt(2), L.CheckInt(3), L.CheckInt(4), L.CheckInt(5))
	return pushElement(L, vm.texts, "add_text", t, err)
}

func (vm *VM) addListBox(L *lua.LState) int {
	lb, err := present.AddListBox(L.CheckInt(1), L.CheckInt(2), L.CheckInt(3), L.CheckInt(4))
	return pushElement(L, vm.listBoxes, "add_listbox", lb, err)
}

func (vm *VM) addSound(L *lua.LState) int {
	name := L.CheckString(1)
	s, err := present.AddSound(name)
	return pushElement(L, vm.sounds, "add_sound "+name, s, err)
}

func (vm *VM) addTicksCallback(L *lua.LState) int {
	if err := present.AddTicksCallback(vm.callbackName(L, 1)); err != nil {
		return warn(L, "add_ticks_callback", err)
	}
	return 0
}

func (vm *VM) addTransitionCallback(L *lua.LState) int {
	if err := present.AddTransitionCallback(vm.callbackName(L, 1)); err != nil {
		return warn(L, "add_transition_callback", err)
	}
	return 0
}

func isKeyPressed(L *lua.LState) int {
	L.Push(lua.LBool(present.IsKeyPressed(L.CheckString(1))))
	return 1
}

func isJoyButtonPressed(L *lua.LState) int {
	L.Push(lua.LBool(present.IsJoyButtonPressed(L.CheckInt(1), L.CheckInt(2))))
	return 1
}

func getJoyAxisPos(L *lua.LState) int {
	L.Push(lua.LNumber(present.GetJoyAxisPos(L.CheckInt(1), L.CheckString(2))))
	return 1
}

func doNut(L *lua.LState) int {
	path := L.CheckString(1)
	if err := present.DoNut(path); err != nil {
		L.RaiseError("do_nut %s: %v", path, err)
	}
	return 0
}

func gameInfo(L *lua.LState) int {
	f := gamedb.Field(L.CheckInt(1))
	if !f.Valid() {
		L.ArgError(1, "unknown Info field")
		return 0
	}
	s, err := present.GameInfo(f, L.OptInt(2, 0))
	if err != nil {
		return warn(L, "game_info", err)
	}
	L.Push(lua.LString(s))
	return 1
}

func flagRedraw(L *lua.LState) int {
	present.FlagRedraw()
	return 0
}

// layoutTable 即 fe.layout，以字段形式读写 width、height、orient 和 font
func layoutTable(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	mt := L.NewTable()
	L.SetField(mt, "__index", L.NewFunction(func(L *lua.LState) int {
		w, h, orient, font, err := present.Layout()
		if err != nil {
			L.Push(lua.LNil)
			return 1
		}
		switch L.CheckString(2) {
		case "width":
			L.Push(lua.LNumber(w))
		case "height":
			L.Push(lua.LNumber(h))
		case "orient":
			L.Push(lua.LNumber(orient))
		case "font":
			L.Push(lua.LString(font))
		default:
			L.Push(lua.LNil)
		}
		return 1
	}))
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(2)
		var err error
		switch key {
		case "width":
			err = present.SetLayoutWidth(L.CheckInt(3))
		case "height":
			err = present.SetLayoutHeight(L.CheckInt(3))
		case "orient":
			err = present.SetLayoutOrient(transform.Rotation(L.CheckInt(3)))
		case "font":
			err = present.SetLayoutFont(L.CheckString(3))
		default:
			L.RaiseError("fe.layout has no property %q", key)
		}
		if err != nil {
			warn(L, "fe.layout."+key, err)
		}
		return 0
	}))
	L.SetMetatable(t, mt)
	return t
}

// easeCurve 实现 fe.ease(name, t)，t 限制在 [0, 1]
func easeCurve(L *lua.LState) int {
	name := L.CheckString(1)
	f, ok := ease.ByName(name)
	if !ok {
		L.ArgError(1, "unknown easing curve "+name)
		return 0
	}
	L.Push(lua.LNumber(f(ease.Clamp(float64(L.CheckNumber(2))))))
	return 1
}

// lerp 实现 fe.lerp(a, b, t)
func lerp(L *lua.LState) int {
	a, b, t := float64(L.CheckNumber(1)), float64(L.CheckNumber(2)), float64(L.CheckNumber(3))
	L.Push(lua.LNumber(ease.Lerp(a, b, t)))
	return 1
}
