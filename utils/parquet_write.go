package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// ParquetWriter 先写临时文件, Close 成功后才改名为目标文件
type ParquetWriter[T any] struct {
	path   string
	file   *os.File
	writer *parquet.GenericWriter[T]
	rows   int
}

// NewParquetWriter 默认 snappy 压缩, options 追加在默认配置之后
func NewParquetWriter[T any](path string, options ...parquet.WriterOption) (*ParquetWriter[T], error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	opts := append([]parquet.WriterOption{
		parquet.Compression(&parquet.Snappy),
		parquet.PageBufferSize(64 * 1024),
	}, options...)

	return &ParquetWriter[T]{
		path:   path,
		file:   f,
		writer: parquet.NewGenericWriter[T](f, opts...),
	}, nil
}

func (p *ParquetWriter[T]) Write(data []T) error {
	n, err := p.writer.Write(data)
	p.rows += n
	return err
}

// Rows 已写入的行数
func (p *ParquetWriter[T]) Rows() int { return p.rows }

// Close 写入 footer 并替换目标文件
func (p *ParquetWriter[T]) Close() error {
	if err := p.writer.Close(); err != nil {
		p.Abort()
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	if err := p.file.Close(); err != nil {
		os.Remove(p.file.Name())
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(p.file.Name(), p.path); err != nil {
		os.Remove(p.file.Name())
		return fmt.Errorf("failed to replace %s: %w", p.path, err)
	}
	return nil
}

// Abort 丢弃已写内容
func (p *ParquetWriter[T]) Abort() {
	p.file.Close()
	os.Remove(p.file.Name())
}
