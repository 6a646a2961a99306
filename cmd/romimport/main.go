// cmd/romimport/main.go
// 将 romlist 文本文件导入游戏数据库
//
// 用法：
//   go run ./cmd/romimport --db=games.db --list=Arcade romlists/Arcade.txt
//
// 不指定 --list 时，列表名取文件名（不含扩展名）

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/decker502/arcadefe/pkg/gamedb"
)

var (
	dbPath   = flag.String("db", "games.db", "game database")
	listName = flag.String("list", "", "list name (default: file name)")
	show     = flag.Bool("lists", false, "print the lists in the database and exit")
)

func main() {
	flag.Parse()

	db, err := gamedb.Open(*dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if *show {
		lists, err := db.Lists()
		if err != nil {
			log.Fatal(err)
		}
		for _, l := range lists {
			fmt.Println(l)
		}
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: romimport [--db=games.db] [--list=name] romlist.txt...")
		os.Exit(2)
	}
	if *listName != "" && flag.NArg() > 1 {
		log.Fatal("--list can only be used with a single file")
	}

	for _, path := range flag.Args() {
		name := *listName
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		n, err := importFile(db, name, path)
		if err != nil {
			log.Fatalf("%s: %v", path, err)
		}
		fmt.Printf("✓ %s: %d games imported into %q\n", path, n, name)
	}
}

func importFile(db *gamedb.DB, list, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return db.ImportRomlist(list, f)
}
