package widetable

import (
	"math"
	"time"

	"github.com/jing2uo/bkboard/model"
)

// Record 宽表展开后的一行, 只取单元格前三个位置
type Record struct {
	Date  time.Time
	Key   string
	Board model.Board
	Rank  int
	Pct   float64
	Value float64
}

func (r Record) HasRank() bool { return r.Rank > 0 }
func (r Record) HasPct() bool  { return !math.IsNaN(r.Pct) }

// Melt 宽表 -> 长格式, 跳过空单元格. dates 为空时展开全部日期列
func (t *Table) Melt(dates ...string) []Record {
	if len(dates) == 0 {
		dates = t.Dates()
	}
	var out []Record
	for _, d := range dates {
		day, err := time.Parse(model.DateLayout, d)
		if err != nil {
			continue
		}
		col := t.cells[d]
		for _, k := range t.keys {
			raw, ok := col[k]
			if !ok {
				continue
			}
			c := ParseCell(raw)
			if c.Rank <= 0 && math.IsNaN(c.Pct) && math.IsNaN(c.Value) {
				continue
			}
			out = append(out, Record{
				Date:  day,
				Key:   k,
				Board: model.SplitRowKey(k),
				Rank:  c.Rank,
				Pct:   c.Pct,
				Value: c.Value,
			})
		}
	}
	return out
}

// ToBoardDaily 转为入库/导出用的记录
func ToBoardDaily(recs []Record) []model.BoardDaily {
	out := make([]model.BoardDaily, len(recs))
	for i, r := range recs {
		out[i] = model.BoardDaily{
			Date:  r.Date,
			Code:  r.Board.Code,
			Name:  r.Board.Name,
			Rank:  int64(r.Rank),
			Pct:   r.Pct,
			Value: r.Value,
		}
	}
	return out
}
