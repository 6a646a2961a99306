package script

import (
	"image/color"

	lua "github.com/yuin/gopher-lua"

	"github.com/decker502/arcadefe/pkg/scene"
)

// property 元素 userdata 的一个字段，set 为 nil 时只读
type property[T any] struct {
	get func(T) lua.LValue
	set func(T, lua.LValue)
}

// class 将 Go 元素类型映射到 Lua userdata 元表
type class[T any] struct {
	name    string
	props   map[string]property[T]
	methods map[string]lua.LGFunction
}

func (c *class[T]) register(L *lua.LState) {
	mt := L.NewTypeMetatable(c.name)
	methods := L.NewTable()
	for name, fn := range c.methods {
		L.SetField(methods, name, L.NewFunction(fn))
	}
	L.SetField(mt, "__index", L.NewFunction(func(L *lua.LState) int {
		v := c.check(L, 1)
		key := L.CheckString(2)
		if p, ok := c.props[key]; ok {
			L.Push(p.get(v))
			return 1
		}
		L.Push(L.GetField(methods, key))
		return 1
	}))
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		v := c.check(L, 1)
		key := L.CheckString(2)
		p, ok := c.props[key]
		switch {
		case !ok:
			L.RaiseError("%s has no property %q", c.name, key)
		case p.set == nil:
			L.RaiseError("%s.%s is read-only", c.name, key)
		default:
			p.set(v, L.Get(3))
		}
		return 0
	}))
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(c.name))
		return 1
	}))
}

func (c *class[T]) wrap(L *lua.LState, v T) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = v
	L.SetMetatable(ud, L.GetTypeMetatable(c.name))
	return ud
}

func (c *class[T]) check(L *lua.LState, n int) T {
	ud := L.CheckUserData(n)
	if v, ok := ud.Value.(T); ok {
		return v
	}
	L.ArgError(n, c.name+" expected")
	var zero T
	return zero
}

func number[T any](get func(T) float64, set func(T, float64)) property[T] {
	p := property[T]{get: func(v T) lua.LValue { return lua.LNumber(get(v)) }}
	if set != nil {
		p.set = func(v T, lv lua.LValue) { set(v, float64(lua.LVAsNumber(lv))) }
	}
	return p
}

func integer[T any](get func(T) int, set func(T, int)) property[T] {
	return number(
		func(v T) float64 { return float64(get(v)) },
		func(v T, f float64) { set(v, int(f)) },
	)
}

func boolean[T any](get func(T) bool, set func(T, bool)) property[T] {
	p := property[T]{get: func(v T) lua.LValue { return lua.LBool(get(v)) }}
	if set != nil {
		p.set = func(v T, lv lua.LValue) { set(v, lua.LVAsBool(lv)) }
	}
	return p
}

func str[T any](get func(T) string, set func(T, string)) property[T] {
	p := property[T]{get: func(v T) lua.LValue { return lua.LString(get(v)) }}
	if set != nil {
		p.set = func(v T, lv lua.LValue) { set(v, lua.LVAsString(lv)) }
	}
	return p
}

// colour 向 props 添加 prefix+red/green/blue/alpha 颜色通道属性
func colour[T any](props map[string]property[T], prefix string,
	get func(T) color.NRGBA, set func(T, color.NRGBA)) {
	channels := []struct {
		name string
		ptr  func(*color.NRGBA) *uint8
	}{
		{"red", func(c *color.NRGBA) *uint8 { return &c.R }},
		{"green", func(c *color.NRGBA) *uint8 { return &c.G }},
		{"blue", func(c *color.NRGBA) *uint8 { return &c.B }},
		{"alpha", func(c *color.NRGBA) *uint8 { return &c.A }},
	}
	for _, ch := range channels {
		ptr := ch.ptr
		props[prefix+ch.name] = integer(
			func(v T) int {
				c := get(v)
				return int(*ptr(&c))
			},
			func(v T, n int) {
				c := get(v)
				*ptr(&c) = clampByte(n)
				set(v, c)
			},
		)
	}
}

func clampByte(n int) uint8 {
	switch {
	case n < 0:
		return 0
	case n > 255:
		return 255
	}
	return uint8(n)
}

// rgbMethod 返回方法 obj:set_<prefix>rgb(r, g, b)，保留 alpha
func rgbMethod[T any](c *class[T], get func(T) color.NRGBA, set func(T, color.NRGBA)) lua.LGFunction {
	return func(L *lua.LState) int {
		v := c.check(L, 1)
		col := get(v)
		col.R = clampByte(L.CheckInt(2))
		col.G = clampByte(L.CheckInt(3))
		col.B = clampByte(L.CheckInt(4))
		set(v, col)
		return 0
	}
}

// posMethod 返回方法 obj:set_pos(x, y[, w, h])
func posMethod[T any](c *class[T], pos func(T, float64, float64), size func(T, float64, float64)) lua.LGFunction {
	return func(L *lua.LState) int {
		v := c.check(L, 1)
		pos(v, float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))
		if L.GetTop() >= 5 {
			size(v, float64(L.CheckNumber(4)), float64(L.CheckNumber(5)))
		}
		return 0
	}
}

func (vm *VM) registerClasses() {
	vm.images = imageClass()
	vm.texts = textClass()
	vm.listBoxes = listBoxClass()
	vm.sounds = soundClass()

	vm.images.register(vm.L)
	vm.texts.register(vm.L)
	vm.listBoxes.register(vm.L)
	vm.sounds.register(vm.L)
}

func imageClass() *class[*scene.Image] {
	c := &class[*scene.Image]{name: "fe.Image"}
	c.props = map[string]property[*scene.Image]{
		"x":                     number((*scene.Image).X, func(i *scene.Image, x float64) { i.SetPos(x, i.Y()) }),
		"y":                     number((*scene.Image).Y, func(i *scene.Image, y float64) { i.SetPos(i.X(), y) }),
		"width":                 number((*scene.Image).Width, func(i *scene.Image, w float64) { i.SetSize(w, i.Height()) }),
		"height":                number((*scene.Image).Height, func(i *scene.Image, h float64) { i.SetSize(i.Width(), h) }),
		"rotation":              number((*scene.Image).Rotation, (*scene.Image).SetRotation),
		"visible":               boolean((*scene.Image).Visible, (*scene.Image).SetVisible),
		"file_name":             str((*scene.Image).File, (*scene.Image).SetFile),
		"index_offset":          integer((*scene.Image).IndexOffset, (*scene.Image).SetIndexOffset),
		"preserve_aspect_ratio": boolean((*scene.Image).PreserveSize, (*scene.Image).SetPreserveSize),
		"movie_enabled":         boolean((*scene.Image).MovieEnabled, (*scene.Image).SetMovieEnabled),
		"label":                 str((*scene.Image).Label, nil),
		"texture_width": number(func(i *scene.Image) float64 {
			w, _ := i.TextureSize()
			return float64(w)
		}, nil),
		"texture_height": number(func(i *scene.Image) float64 {
			_, h := i.TextureSize()
			return float64(h)
		}, nil),
	}
	colour(c.props, "", (*scene.Image).Color, (*scene.Image).SetColor)
	c.methods = map[string]lua.LGFunction{
		"set_pos": posMethod(c, (*scene.Image).SetPos, (*scene.Image).SetSize),
		"set_rgb": rgbMethod(c, (*scene.Image).Color, (*scene.Image).SetColor),
	}
	return c
}

func textClass() *class[*scene.Text] {
	c := &class[*scene.Text]{name: "fe.Text"}
	c.props = map[string]property[*scene.Text]{
		"msg":          str((*scene.Text).Template, (*scene.Text).SetTemplate),
		"msg_rendered": str((*scene.Text).Rendered, nil),
		"x":            number((*scene.Text).X, func(t *scene.Text, x float64) { t.SetPos(x, t.Y()) }),
		"y":            number((*scene.Text).Y, func(t *scene.Text, y float64) { t.SetPos(t.X(), y) }),
		"width":        number((*scene.Text).Width, func(t *scene.Text, w float64) { t.SetSize(w, t.Height()) }),
		"height":       number((*scene.Text).Height, func(t *scene.Text, h float64) { t.SetSize(t.Width(), h) }),
		"charsize":     number((*scene.Text).CharSize, (*scene.Text).SetCharSize),
		"align": integer(func(t *scene.Text) int { return int(t.Align()) },
			func(t *scene.Text, a int) { t.SetAlign(scene.Align(a)) }),
		"visible":      boolean((*scene.Text).Visible, (*scene.Text).SetVisible),
		"index_offset": integer((*scene.Text).IndexOffset, (*scene.Text).SetIndexOffset),
	}
	colour(c.props, "", (*scene.Text).Color, (*scene.Text).SetColor)
	colour(c.props, "bg_", (*scene.Text).Background, (*scene.Text).SetBackground)
	c.methods = map[string]lua.LGFunction{
		"set_pos":    posMethod(c, (*scene.Text).SetPos, (*scene.Text).SetSize),
		"set_rgb":    rgbMethod(c, (*scene.Text).Color, (*scene.Text).SetColor),
		"set_bg_rgb": rgbMethod(c, (*scene.Text).Background, (*scene.Text).SetBackground),
	}
	return c
}

func listBoxClass() *class[*scene.ListBox] {
	c := &class[*scene.ListBox]{name: "fe.ListBox"}
	c.props = map[string]property[*scene.ListBox]{
		"x":             number((*scene.ListBox).X, func(l *scene.ListBox, x float64) { l.SetPos(x, l.Y()) }),
		"y":             number((*scene.ListBox).Y, func(l *scene.ListBox, y float64) { l.SetPos(l.X(), y) }),
		"width":         number((*scene.ListBox).Width, func(l *scene.ListBox, w float64) { l.SetSize(w, l.Height()) }),
		"height":        number((*scene.ListBox).Height, func(l *scene.ListBox, h float64) { l.SetSize(l.Width(), h) }),
		"rows":          integer((*scene.ListBox).Rows, (*scene.ListBox).SetRows),
		"format_string": str((*scene.ListBox).Format, (*scene.ListBox).SetFormat),
		"charsize":      number((*scene.ListBox).CharSize, (*scene.ListBox).SetCharSize),
		"align": integer(func(l *scene.ListBox) int { return int(l.Align()) },
			func(l *scene.ListBox, a int) { l.SetAlign(scene.Align(a)) }),
		"visible": boolean((*scene.ListBox).Visible, (*scene.ListBox).SetVisible),
	}
	colour(c.props, "", (*scene.ListBox).Color, (*scene.ListBox).SetColor)
	colour(c.props, "bg_", (*scene.ListBox).Background, (*scene.ListBox).SetBackground)
	colour(c.props, "sel_", (*scene.ListBox).SelColor, (*scene.ListBox).SetSelColor)
	colour(c.props, "selbg_", (*scene.ListBox).SelBackground, (*scene.ListBox).SetSelBackground)
	c.methods = map[string]lua.LGFunction{
		"set_pos":       posMethod(c, (*scene.ListBox).SetPos, (*scene.ListBox).SetSize),
		"set_rgb":       rgbMethod(c, (*scene.ListBox).Color, (*scene.ListBox).SetColor),
		"set_bg_rgb":    rgbMethod(c, (*scene.ListBox).Background, (*scene.ListBox).SetBackground),
		"set_sel_rgb":   rgbMethod(c, (*scene.ListBox).SelColor, (*scene.ListBox).SetSelColor),
		"set_selbg_rgb": rgbMethod(c, (*scene.ListBox).SelBackground, (*scene.ListBox).SetSelBackground),
	}
	return c
}

func soundClass() *class[*scene.Sound] {
	c := &class[*scene.Sound]{name: "fe.Sound"}
	c.props = map[string]property[*scene.Sound]{
		"file_name": str((*scene.Sound).File, (*scene.Sound).SetFile),
		"playing":   boolean((*scene.Sound).Playing, (*scene.Sound).SetPlaying),
		"loop":      boolean((*scene.Sound).Loop, (*scene.Sound).SetLoop),
	}
	return c
}
