// Package embedded 提供对编译进二进制文件的内置布局的访问
//
// //go:embed 指令只能嵌入声明所在包目录下的文件，
// 因此 embed.FS 定义在项目根目录（embed.go），通过 Init 传入本包。
// 磁盘上找不到布局时会回退到这些内置副本，全新安装也能正常显示。
package embedded

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// Prefix 所有内置布局所在的目录
const Prefix = "layouts/"

var (
	layoutsFS   fs.FS
	initialized bool
)

// Init 安装内置布局，必须在加载任何布局之前调用
func Init(layouts fs.FS) {
	layoutsFS = layouts
	initialized = true
}

// IsInitialized 判断是否已调用 Init
func IsInitialized() bool {
	return initialized
}

func normalize(path string) (string, error) {
	if !initialized {
		return "", fmt.Errorf("embedded package not initialized, call Init() first")
	}
	path = strings.TrimPrefix(filepath.ToSlash(path), "./")
	if !strings.HasPrefix(path, Prefix) {
		return "", fmt.Errorf("unknown resource path prefix: %s (must start with '%s')", path, Prefix)
	}
	return path, nil
}

// Open 打开内置文件，路径必须以 "layouts/" 开头
func Open(path string) (fs.File, error) {
	path, err := normalize(path)
	if err != nil {
		return nil, err
	}
	return layoutsFS.Open(path)
}

// ReadFile 读取内置文件，路径必须以 "layouts/" 开头
func ReadFile(path string) ([]byte, error) {
	path, err := normalize(path)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(layoutsFS, path)
}

// Exists 判断内置文件是否存在
func Exists(path string) bool {
	file, err := Open(path)
	if err != nil {
		return false
	}
	file.Close()
	return true
}

// Glob 匹配内置文件，模式必须以 "layouts/" 开头
func Glob(pattern string) ([]string, error) {
	pattern, err := normalize(pattern)
	if err != nil {
		return nil, err
	}
	return fs.Glob(layoutsFS, pattern)
}

// Builtin 按路径末尾的 "layouts/..." 部分将磁盘布局路径映射到内置副本，
// 例如 "/home/me/.arcadefe/layouts/basic/layout.lua" 映射为 "layouts/basic/layout.lua"
// 路径中没有该部分或不存在内置副本时返回 false
func Builtin(path string) (string, bool) {
	path = filepath.ToSlash(path)
	i := strings.LastIndex("/"+path, "/"+Prefix)
	if i < 0 {
		return "", false
	}
	rel := path[i:]
	if !Exists(rel) {
		return "", false
	}
	return rel, true
}
