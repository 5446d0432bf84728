package widetable

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CellFormat 单元格的字段宽度
type CellFormat string

const (
	FormatPair    CellFormat = "pair"    // rank|pct
	FormatTriplet CellFormat = "triplet" // rank|pct|value
	FormatRich    CellFormat = "rich"    // rank|pct|value|turnover|up|down|leader
)

func (f CellFormat) width() int {
	switch f {
	case FormatPair:
		return 2
	case FormatRich:
		return 7
	default:
		return 3
	}
}

func ParseFormat(s string) (CellFormat, error) {
	switch f := CellFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPair, FormatTriplet, FormatRich:
		return f, nil
	case "":
		return FormatTriplet, nil
	default:
		return "", fmt.Errorf("unknown cell format: %q", s)
	}
}

// Cell 宽表中某板块某日的一个格子. Rank/Up/Down 为 0 表示缺失, 浮点字段 NaN 表示缺失
type Cell struct {
	Rank     int
	Pct      float64
	Value    float64
	Turnover float64
	Up       int
	Down     int
	Leader   string
}

func EmptyCell() Cell {
	return Cell{Pct: math.NaN(), Value: math.NaN(), Turnover: math.NaN()}
}

func (c Cell) IsEmpty() bool {
	return c.Rank <= 0 && math.IsNaN(c.Pct) && math.IsNaN(c.Value) &&
		math.IsNaN(c.Turnover) && c.Up <= 0 && c.Down <= 0 && c.Leader == ""
}

// ParseCell 按位置宽松解析, 任何一段解析失败都视为缺失
func ParseCell(s string) Cell {
	c := EmptyCell()
	s = strings.TrimSpace(s)
	if s == "" {
		return c
	}
	parts := strings.Split(s, "|")
	field := func(i int) string {
		if i < len(parts) {
			return strings.TrimSpace(parts[i])
		}
		return ""
	}

	c.Rank = parseRank(field(0))
	c.Pct = parseFloat(field(1))
	c.Value = parseFloat(field(2))
	c.Turnover = parseFloat(field(3))
	c.Up = parseCount(field(4))
	c.Down = parseCount(field(5))
	if len(parts) > 6 {
		c.Leader = strings.TrimSpace(strings.Join(parts[6:], "/"))
	}
	return c
}

// Encode 按格式编码; 全部字段为空时返回空串
func (c Cell) Encode(f CellFormat) string {
	fields := []string{
		formatRank(c.Rank),
		formatFixed(c.Pct),
		formatValue(c.Value),
		formatFixed(c.Turnover),
		formatCount(c.Up),
		formatCount(c.Down),
		strings.ReplaceAll(strings.TrimSpace(c.Leader), "|", "/"),
	}[:f.width()]

	for _, v := range fields {
		if v != "" {
			return strings.Join(fields, "|")
		}
	}
	return ""
}

func parseRank(s string) int {
	v := parseFloat(s)
	if math.IsNaN(v) || v <= 0 || v != math.Trunc(v) {
		return 0
	}
	return int(v)
}

func parseCount(s string) int {
	v := parseFloat(s)
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	return int(v)
}

func parseFloat(s string) float64 {
	if s == "" || s == "-" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

func formatRank(r int) string {
	if r <= 0 {
		return ""
	}
	return strconv.Itoa(r)
}

func formatCount(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func formatFixed(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatValue 保留 4 位小数并去掉末尾的 0 和小数点
func formatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return decimal.NewFromFloat(v).Round(4).String()
}
