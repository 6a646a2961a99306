package gamedb

// List 带当前选择的内存 romlist
type List struct {
	name  string
	games []Game
	index int
}

// NewList 包装 games，选择从第一个游戏开始
func NewList(name string, games []Game) *List {
	return &List{name: name, games: games}
}

// Name 返回列表名称
func (l *List) Name() string { return l.name }

// Size 返回游戏数量
func (l *List) Size() int { return len(l.games) }

// Index 返回当前选择，空列表返回 -1
func (l *List) Index() int {
	if len(l.games) == 0 {
		return -1
	}
	return l.index
}

// SetIndex 选择第 i 个游戏，超出范围时回绕
func (l *List) SetIndex(i int) {
	if len(l.games) == 0 {
		return
	}
	l.index = wrap(i, len(l.games))
}

// Step 按 offset 移动选择，两端回绕
func (l *List) Step(offset int) {
	l.SetIndex(l.index + offset)
}

// IndexAt 返回与当前选择偏移 offset 的列表索引
func (l *List) IndexAt(offset int) int {
	if len(l.games) == 0 {
		return -1
	}
	return wrap(l.index+offset, len(l.games))
}

// Game 返回与当前选择偏移 offset 的游戏
func (l *List) Game(offset int) (Game, bool) {
	i := l.IndexAt(offset)
	if i < 0 {
		return Game{}, false
	}
	return l.games[i], true
}

// Info 返回与当前选择偏移 offset 的游戏的字段 f
// 空列表或未知字段返回 ""
func (l *List) Info(offset int, f Field) string {
	g, ok := l.Game(offset)
	if !ok {
		return ""
	}
	return g.Get(f)
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
