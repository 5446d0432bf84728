package widetable

import (
	"math"
	"sort"

	"github.com/jing2uo/bkboard/model"
)

// PatchResult 一次今日列补丁的统计
type PatchResult struct {
	Date     string
	Quotes   int      // 快照中的板块数
	Ranked   int      // 有涨跌幅参与排名的板块数
	Updated  int      // 实际写入的单元格
	Appended []string // 新增的行
	Kept     []string // 快照中缺失但今日已有值而保留的行
}

// PatchToday 把一份今日快照合并进宽表的 date 列.
// 只有非空的新值会覆盖今日列, 其它日期列不受影响, 已有行永不删除.
func (t *Table) PatchToday(date string, quotes []model.BoardQuote, format CellFormat) PatchResult {
	res := PatchResult{Date: date}

	// 同一行键只取第一条
	seen := make(map[string]bool, len(quotes))
	uniq := quotes[:0:0]
	for _, q := range quotes {
		k := q.RowKey()
		if seen[k] {
			continue
		}
		seen[k] = true
		uniq = append(uniq, q)
	}
	res.Quotes = len(uniq)

	pcts := make([]float64, len(uniq))
	for i, q := range uniq {
		pcts[i] = q.Pct
		if !math.IsNaN(q.Pct) {
			res.Ranked++
		}
	}
	ranks := RankDesc(pcts)

	// 1. 新板块按键排序追加
	var fresh []string
	for k := range seen {
		if !t.HasRow(k) {
			fresh = append(fresh, k)
		}
	}
	sort.Strings(fresh)
	res.Appended = t.EnsureRows(fresh)

	// 2. 快照缺失但今日已有值的行保留原值
	if t.HasColumn(date) {
		for _, k := range t.keys {
			if !seen[k] && t.Get(k, date) != "" {
				res.Kept = append(res.Kept, k)
			}
		}
	}

	// 3. 只写非空单元格
	t.AddColumn(date)
	for i, q := range uniq {
		c := Cell{
			Rank:     ranks[i],
			Pct:      q.Pct,
			Value:    q.Close,
			Turnover: q.Turnover,
			Up:       q.Up,
			Down:     q.Down,
			Leader:   q.Leader,
		}
		v := c.Encode(format)
		if v == "" {
			continue
		}
		t.cells[date][q.RowKey()] = v
		res.Updated++
	}

	t.SortColumns()
	return res
}
