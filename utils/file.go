package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// 在dir下生成唯一命名的文件路径，template中的%s替换为uuid
func GetUniqFilename(dir, template string) string {
	return filepath.Join(dir, strings.Replace(template, "%s", uuid.NewString(), 1))
}

func GetFilenameWithoutExt(path string) (name string) {
	name = filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(path))
	return
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// 确保目录存在
func EnsureDir(path string) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, os.ModePerm)
}
