package utils

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// GetCacheDir 进程级临时目录, 存放入库用的中间 CSV, 退出时删除
func GetCacheDir() (string, error) {
	dir := filepath.Join(os.TempDir(), "bkboard-temp")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// CheckFile 确认 path 是可读的普通文件
func CheckFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("file not found: %s", path)
	}
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	return f.Close()
}

// CheckOutputDir 不存在时创建, 存在时确认可写
func CheckOutputDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("could not create output directory %s: %w", dir, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("could not access output directory %s: %w", dir, err)
	case !info.IsDir():
		return fmt.Errorf("output path %s is not a directory", dir)
	}

	probe, err := os.CreateTemp(dir, ".probe-")
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}

// WriteAtomic 写到同目录的临时文件再改名, 中途失败不会留下半截文件
func WriteAtomic(path string, fn func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	name := tmp.Name()
	defer os.Remove(name)

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := fn(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// BackupFile 复制为 <path>.bak-<时间戳>, 返回备份路径
func BackupFile(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	bak := fmt.Sprintf("%s.bak-%s", path, time.Now().Format("20060102150405"))
	err = WriteAtomic(bak, func(w io.Writer) error {
		_, err := io.Copy(w, src)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	return bak, nil
}
