package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// BoardKind 板块类别, 对应东方财富 clist 的 fs 过滤串
type BoardKind string

const (
	KindIndustry BoardKind = "industry"
	KindConcept  BoardKind = "concept"
	KindRegion   BoardKind = "region"
)

var boardFilters = map[BoardKind]string{
	KindIndustry: "m:90+t:2",
	KindConcept:  "m:90+t:3",
	KindRegion:   "m:90+t:1",
}

// ResolveFS 把板块类别名或原始 fs 串转换为 fs 过滤串
func ResolveFS(kind string) (string, error) {
	kind = strings.TrimSpace(kind)
	if fs, ok := boardFilters[BoardKind(strings.ToLower(kind))]; ok {
		return fs, nil
	}
	if strings.HasPrefix(kind, "m:") {
		return kind, nil
	}
	return "", fmt.Errorf("unknown board kind: %q (expected industry, concept, region or a raw fs filter)", kind)
}

type Board struct {
	Code string
	Name string
}

// RowKey 宽表行键: code|name
func (b Board) RowKey() string {
	return b.Code + "|" + b.Name
}

// SplitRowKey 仅按第一个 | 切分; 不含 | 时 code 与 name 都取整个键
func SplitRowKey(key string) Board {
	code, name, ok := strings.Cut(key, "|")
	if !ok {
		return Board{Code: key, Name: key}
	}
	return Board{Code: code, Name: name}
}

// BoardQuote 列表快照中的一条板块行情, 缺失的数值为 NaN, 缺失的家数为 0
type BoardQuote struct {
	Board
	Close    float64
	Pct      float64
	Turnover float64
	Up       int
	Down     int
	Leader   string
}

func NewBoardQuote(b Board) BoardQuote {
	return BoardQuote{Board: b, Close: math.NaN(), Pct: math.NaN(), Turnover: math.NaN()}
}

// KlineBar 日 K 线中用到的字段
type KlineBar struct {
	Date  time.Time
	Close float64
	Pct   float64
}

const DateLayout = "2006-01-02"
