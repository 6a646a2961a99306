// Package gamedb 将 romlist 存储在 sqlite 数据库中，并向呈现核心提供当前列表
//
// romlist 使用 Attract-Mode 文本格式：每行一个游戏，字段以 ';' 分隔，顺序为
// Name;Title;Emulator;CloneOf;Year;Manufacturer;Category;Players;Rotation;
// Control;Status;DisplayCount;DisplayType;AltRomname;AltTitle;Extra;Buttons
// 以 '#' 开头的行是注释
package gamedb

import (
	"bufio"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrUnknownList 列表名称没有对应的行时返回
var ErrUnknownList = errors.New("unknown romlist")

const schema = `
CREATE TABLE IF NOT EXISTS games (
    list TEXT NOT NULL,
    pos INTEGER NOT NULL,
    name TEXT NOT NULL,
    title TEXT, emulator TEXT, cloneof TEXT, year TEXT, manufacturer TEXT,
    category TEXT, players TEXT, rotation TEXT, control TEXT, status TEXT,
    displaycount TEXT, displaytype TEXT, altromname TEXT, alttitle TEXT,
    extra TEXT, buttons TEXT,
    PRIMARY KEY (list, pos)
);
CREATE INDEX IF NOT EXISTS idx_games_name ON games(list, name);
`

// DB 游戏列表数据库
type DB struct {
	db *sql.DB
}

// Open 打开 path 处的数据库（必要时创建）
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close 关闭数据库
func (d *DB) Close() error {
	return d.db.Close()
}

// ImportRomlist 用从 r 读取的 romlist 替换 list 的所有行，返回导入的游戏数
func (d *DB) ImportRomlist(list string, r io.Reader) (int, error) {
	games, err := ParseRomlist(r)
	if err != nil {
		return 0, err
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM games WHERE list = ?", list); err != nil {
		return 0, fmt.Errorf("failed to clear list %s: %w", list, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", int(fieldCount)+2), ",")
	stmt, err := tx.Prepare("INSERT INTO games (list, pos, " + strings.Join(columns[:], ", ") +
		") VALUES (" + placeholders + ")")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, 0, int(fieldCount)+2)
	for i, g := range games {
		args = append(args[:0], list, i)
		for _, v := range g {
			args = append(args, v)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return 0, fmt.Errorf("failed to insert %s: %w", g[FieldName], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	log.Printf("[GameDB] Imported %d games into %s", len(games), list)
	return len(games), nil
}

// Lists 返回所有已存储列表的名称
func (d *DB) Lists() ([]string, error) {
	rows, err := d.db.Query("SELECT DISTINCT list FROM games ORDER BY list")
	if err != nil {
		return nil, fmt.Errorf("failed to query lists: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// LoadList 将整个列表读入内存，每帧的查询不访问数据库
func (d *DB) LoadList(list string) (*List, error) {
	rows, err := d.db.Query("SELECT "+strings.Join(columns[:], ", ")+
		" FROM games WHERE list = ? ORDER BY pos", list)
	if err != nil {
		return nil, fmt.Errorf("failed to query list %s: %w", list, err)
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		var g Game
		dest := make([]any, fieldCount)
		vals := make([]sql.NullString, fieldCount)
		for i := range dest {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to read list %s: %w", list, err)
		}
		for i, v := range vals {
			g[i] = v.String
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, fmt.Errorf("%s: %w", list, ErrUnknownList)
	}
	return NewList(list, games), nil
}

// ParseRomlist 读取 romlist 行，缺少的尾部字段留空，没有名称的行跳过
func ParseRomlist(r io.Reader) ([]Game, error) {
	var games []Game
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var g Game
		for i, v := range strings.SplitN(line, ";", int(fieldCount)) {
			g[i] = strings.TrimSpace(v)
		}
		if g[FieldName] == "" {
			continue
		}
		games = append(games, g)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read romlist: %w", err)
	}
	return games, nil
}
