package widetable

import (
	"math"

	"github.com/jing2uo/bkboard/model"
)

// Series 单个板块在一段区间内的日 K
type Series struct {
	Board model.Board
	Bars  []model.KlineBar
}

// BuildBaseline 长格式 K 线 -> 按日排名 -> 宽表.
// boards 中的每个板块都会成为一行, 即使没有取到任何数据; 同日重复的 K 线只取第一条.
// 同日涨跌幅相同时按 series 的先后顺序排名.
func BuildBaseline(series []Series, boards []model.Board, format CellFormat) *Table {
	type entry struct {
		key   string
		pct   float64
		value float64
	}
	byDate := make(map[string][]entry)
	seen := make(map[string]map[string]bool)

	for _, s := range series {
		key := s.Board.RowKey()
		for _, bar := range s.Bars {
			if bar.Date.IsZero() {
				continue
			}
			d := bar.Date.Format(model.DateLayout)
			if seen[d] == nil {
				seen[d] = make(map[string]bool)
			}
			if seen[d][key] {
				continue
			}
			seen[d][key] = true
			byDate[d] = append(byDate[d], entry{key: key, pct: bar.Pct, value: bar.Close})
		}
	}

	t := New()
	for _, b := range boards {
		t.AddRow(b.RowKey())
	}
	for _, s := range series {
		t.AddRow(s.Board.RowKey())
	}

	for d, entries := range byDate {
		pcts := make([]float64, len(entries))
		for i, e := range entries {
			pcts[i] = e.pct
		}
		ranks := RankDesc(pcts)

		t.AddColumn(d)
		for i, e := range entries {
			c := EmptyCell()
			c.Rank = ranks[i]
			c.Pct = e.pct
			c.Value = e.value
			if math.IsInf(c.Value, 0) {
				c.Value = math.NaN()
			}
			if v := c.Encode(format); v != "" {
				t.cells[d][e.key] = v
			}
		}
	}
	t.SortColumns()
	return t
}
