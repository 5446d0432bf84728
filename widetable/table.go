package widetable

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/jing2uo/bkboard/model"
	"github.com/jing2uo/bkboard/utils"
)

const IndexHeader = "row_key"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table 宽表: 行为 code|name, 列为交易日 YYYY-MM-DD
type Table struct {
	keys    []string
	rows    map[string]int
	columns []string
	cells   map[string]map[string]string // column -> row key -> cell
}

func New() *Table {
	return &Table{
		rows:  make(map[string]int),
		cells: make(map[string]map[string]string),
	}
}

// Empty 没有行或没有列
func (t *Table) Empty() bool {
	return len(t.keys) == 0 || len(t.columns) == 0
}

func (t *Table) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

func (t *Table) HasRow(key string) bool {
	_, ok := t.rows[key]
	return ok
}

func (t *Table) HasColumn(col string) bool {
	_, ok := t.cells[col]
	return ok
}

// AddRow 追加一行, 已存在时忽略
func (t *Table) AddRow(key string) bool {
	if _, ok := t.rows[key]; ok {
		return false
	}
	t.rows[key] = len(t.keys)
	t.keys = append(t.keys, key)
	return true
}

// EnsureRows 把 keys 中缺少的行按给定顺序追加, 已有行不动, 返回新增的键
func (t *Table) EnsureRows(keys []string) []string {
	var added []string
	for _, k := range keys {
		if t.AddRow(k) {
			added = append(added, k)
		}
	}
	return added
}

func (t *Table) AddColumn(col string) bool {
	if _, ok := t.cells[col]; ok {
		return false
	}
	t.cells[col] = make(map[string]string)
	t.columns = append(t.columns, col)
	return true
}

func (t *Table) Get(key, col string) string {
	if c, ok := t.cells[col]; ok {
		return c[key]
	}
	return ""
}

// Set 写入单元格, 行或列不存在时自动补上
func (t *Table) Set(key, col, value string) {
	t.AddRow(key)
	t.AddColumn(col)
	if value == "" {
		delete(t.cells[col], key)
		return
	}
	t.cells[col][key] = value
}

// Dates 升序的日期列
func (t *Table) Dates() []string {
	var dates []string
	for _, c := range t.columns {
		if isDate(c) {
			dates = append(dates, c)
		}
	}
	sort.Strings(dates)
	return dates
}

// LastDates 最后 n 个日期列
func (t *Table) LastDates(n int) []string {
	dates := t.Dates()
	if n > 0 && len(dates) > n {
		return dates[len(dates)-n:]
	}
	return dates
}

// SortColumns 日期列升序在前, 非日期列保持原顺序在后
func (t *Table) SortColumns() {
	var others []string
	for _, c := range t.columns {
		if !isDate(c) {
			others = append(others, c)
		}
	}
	t.columns = append(t.Dates(), others...)
}

// KeepLast 只保留最后 n 个日期列, 返回删除的列
func (t *Table) KeepLast(n int) []string {
	dates := t.Dates()
	if n < 0 || len(dates) <= n {
		return nil
	}
	removed := dates[:len(dates)-n]
	drop := make(map[string]bool, len(removed))
	for _, d := range removed {
		drop[d] = true
		delete(t.cells, d)
	}
	kept := t.columns[:0]
	for _, c := range t.columns {
		if !drop[c] {
			kept = append(kept, c)
		}
	}
	t.columns = kept
	t.SortColumns()
	return removed
}

func isDate(s string) bool {
	_, err := time.Parse(model.DateLayout, s)
	return err == nil
}

// Read 读取宽表 CSV, 兼容有无 BOM, 首列表头可为 row_key 或 trade_date
func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read wide table %s: %w", path, err)
	}
	return t, nil
}

func Decode(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	t := New()
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return t, nil
	}
	if err != nil {
		return nil, err
	}
	if len(header) == 0 {
		return t, nil
	}

	cols := header[1:]
	for _, c := range cols {
		t.AddColumn(c)
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) == 0 || rec[0] == "" {
			continue
		}
		key := rec[0]
		t.AddRow(key)
		for i, c := range cols {
			if i+1 < len(rec) && rec[i+1] != "" && t.Get(key, c) == "" {
				t.cells[c][key] = rec[i+1]
			}
		}
	}
	return t, nil
}

// Write 原子写入: 先写临时文件再 rename, 中途崩溃不会留下截断的文件
func (t *Table) Write(path string) error {
	if err := utils.WriteAtomic(path, t.Encode); err != nil {
		return fmt.Errorf("failed to write wide table: %w", err)
	}
	return nil
}

func (t *Table) Encode(w io.Writer) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	t.SortColumns()

	cw := csv.NewWriter(w)
	header := append([]string{IndexHeader}, t.columns...)
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for _, key := range t.keys {
		record[0] = key
		for i, c := range t.columns {
			record[i+1] = t.cells[c][key]
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
