package scene

import (
	"regexp"
	"strconv"

	"github.com/decker502/arcadefe/pkg/gamedb"
)

var tokenPattern = regexp.MustCompile(`\[(\w+)\]`)

// Expand 将 msg 中的魔术标记替换为与当前选择偏移 offset 的游戏的值：
// 所有 romlist 字段（[Title]、[Year] 等），以及 [ListSize]、[ListEntry] 和 [ListTitle]
// 未知标记原样保留
func Expand(msg string, games Games, offset int) string {
	if games == nil {
		return msg
	}
	return tokenPattern.ReplaceAllStringFunc(msg, func(tok string) string {
		name := tok[1 : len(tok)-1]
		switch name {
		case "ListSize":
			return strconv.Itoa(games.Size())
		case "ListEntry":
			if games.Size() == 0 {
				return "0"
			}
			return strconv.Itoa(wrapIndex(games.Index()+offset, games.Size()) + 1)
		case "ListTitle":
			return games.Name()
		}
		if f, ok := gamedb.ParseField(name); ok {
			return games.Info(offset, f)
		}
		return tok
	})
}

func wrapIndex(i, n int) int {
	return ((i % n) + n) % n
}
