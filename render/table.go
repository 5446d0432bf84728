package render

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jing2uo/bkboard/model"
)

type tableHead struct {
	Name   string
	Label  string
	Class  string
	Monday bool
}

type tableCell struct {
	Col      string
	ColClass string
	Class    string
	Text     string
	Bk       bool
}

type tablePage struct {
	Title  string
	Header []tableHead
	Rows   [][]tableCell
}

// Table 把报表工作表渲染成 HTML 表格. rows[0] 为表头:
// rank 列, YYYY-MM-DD 日期列 (板块名, 可点击高亮), *_info 列 (按涨跌幅着色).
// 周一的日期列加底色.
func Table(w io.Writer, title string, rows [][]string) error {
	page := tablePage{Title: title}
	if len(rows) == 0 {
		return pages.ExecuteTemplate(w, "table.html", page)
	}

	header := rows[0]
	heads := make([]tableHead, len(header))
	for i, name := range header {
		h := tableHead{Name: name, Label: name, Class: columnClass(name)}
		switch h.Class {
		case "date":
			if d, err := time.Parse(model.DateLayout, name); err == nil {
				h.Label = name[5:]
				h.Monday = d.Weekday() == time.Monday
			}
		case "info":
			h.Label = "info"
		}
		heads[i] = h
	}
	page.Header = heads

	for _, row := range rows[1:] {
		cells := make([]tableCell, len(heads))
		for i, h := range heads {
			var v string
			if i < len(row) {
				v = strings.TrimSpace(row[i])
			}
			c := tableCell{Col: h.Name, ColClass: h.Class, Text: v}
			var classes []string
			switch h.Class {
			case "rank":
				classes = append(classes, "rank")
			case "info":
				if v != "" {
					classes = append(classes, infoClass(v))
				}
			default:
				if v != "" {
					c.Bk = true
					classes = append(classes, "bk")
				}
			}
			if h.Monday {
				classes = append(classes, "monday-col")
			}
			c.Class = strings.Join(classes, " ")
			cells[i] = c
		}
		page.Rows = append(page.Rows, cells)
	}
	return pages.ExecuteTemplate(w, "table.html", page)
}

func columnClass(name string) string {
	switch {
	case name == "rank":
		return "rank"
	case strings.HasSuffix(name, "_info"):
		return "info"
	default:
		return "date"
	}
}

// infoClass info 单元格以涨跌幅开头
func infoClass(v string) string {
	first, _, _ := strings.Cut(v, "/")
	pct, err := strconv.ParseFloat(strings.TrimSpace(first), 64)
	if err == nil && pct < 0 {
		return "neg"
	}
	return "pos"
}

// WriteTable 渲染并写入 HTML 表格文件
func WriteTable(path, title string, rows [][]string) error {
	return writeFile(path, func(w io.Writer) error { return Table(w, title, rows) })
}
