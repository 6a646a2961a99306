package gamedb

import "strings"

// Field romlist 条目的一列
// 数值通过 Info 表暴露给布局脚本
type Field int

const (
	FieldName Field = iota
	FieldTitle
	FieldEmulator
	FieldCloneOf
	FieldYear
	FieldManufacturer
	FieldCategory
	FieldPlayers
	FieldRotation
	FieldControl
	FieldStatus
	FieldDisplayCount
	FieldDisplayType
	FieldAltRomname
	FieldAltTitle
	FieldExtra
	FieldButtons

	fieldCount
)

// columns 按 romlist 顺序排列的 sqlite 列名
var columns = [fieldCount]string{
	"name", "title", "emulator", "cloneof", "year", "manufacturer", "category",
	"players", "rotation", "control", "status", "displaycount", "displaytype",
	"altromname", "alttitle", "extra", "buttons",
}

// fieldNames 布局文本标记和脚本 Info 表使用的名称
var fieldNames = [fieldCount]string{
	"Name", "Title", "Emulator", "CloneOf", "Year", "Manufacturer", "Category",
	"Players", "Rotation", "Control", "Status", "DisplayCount", "DisplayType",
	"AltRomname", "AltTitle", "Extra", "Buttons",
}

func (f Field) String() string {
	if !f.Valid() {
		return "Unknown"
	}
	return fieldNames[f]
}

// Valid 判断 f 是否为有效列
func (f Field) Valid() bool {
	return f >= FieldName && f < fieldCount
}

// Fields 按 romlist 顺序返回所有字段
func Fields() []Field {
	out := make([]Field, fieldCount)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// ParseField 按名称查找字段，不区分大小写
func ParseField(name string) (Field, bool) {
	for i, n := range fieldNames {
		if strings.EqualFold(n, name) {
			return Field(i), true
		}
	}
	return 0, false
}

// Game 一条 romlist 条目
type Game [fieldCount]string

// Get 返回字段 f 的值
func (g *Game) Get(f Field) string {
	if !f.Valid() {
		return ""
	}
	return g[f]
}
