package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/jing2uo/bkboard/widetable"
)

type Cumulative struct {
	Name string
	Pct  float64 // 百分数, 缺失按 0 计
}

// CumulativePct 最近 lookback 个日期的涨跌幅之和, 降序取前 topN.
// 同名板块同日取均值, 按日期顺序累加; 区间内出现过的板块都参与排序.
func CumulativePct(recs []widetable.Record, dates []time.Time, lookback, topN int) []Cumulative {
	if lookback > 0 && len(dates) > lookback {
		dates = dates[len(dates)-lookback:]
	}
	inWindow := make(map[time.Time]bool, len(dates))
	for _, d := range dates {
		inWindow[d] = true
	}

	type acc struct {
		sum float64
		n   int
	}
	idx := make(map[string]int)
	var names []string
	cells := make(map[string]map[time.Time]*acc)
	for _, r := range recs {
		if _, ok := idx[r.Board.Name]; !ok {
			idx[r.Board.Name] = len(names)
			names = append(names, r.Board.Name)
			cells[r.Board.Name] = make(map[time.Time]*acc)
		}
		if !inWindow[r.Date] || math.IsNaN(r.Pct) {
			continue
		}
		a := cells[r.Board.Name][r.Date]
		if a == nil {
			a = &acc{}
			cells[r.Board.Name][r.Date] = a
		}
		a.sum += r.Pct
		a.n++
	}

	out := make([]Cumulative, len(names))
	for i, n := range names {
		var total float64
		for _, d := range dates {
			if a := cells[n][d]; a != nil {
				total += a.sum / float64(a.n)
			}
		}
		out[i] = Cumulative{Name: n, Pct: total}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Pct > out[j].Pct })
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// LatestOrder 最新日期上的两种板块顺序:
// legend 按涨跌幅降序, nav 按名次升序, 缺失的都排在最后并保持原有顺序
func LatestOrder(recs []widetable.Record) (legend, nav []string) {
	dates := Dates(recs)
	var names []string
	seen := make(map[string]bool)
	for _, r := range recs {
		if !seen[r.Board.Name] {
			seen[r.Board.Name] = true
			names = append(names, r.Board.Name)
		}
	}
	if len(dates) == 0 {
		return names, names
	}
	latest := dates[len(dates)-1]

	pct := make(map[string]float64)
	rank := make(map[string]int)
	for _, r := range recs {
		if !r.Date.Equal(latest) {
			continue
		}
		if _, ok := pct[r.Board.Name]; !ok && r.HasPct() {
			pct[r.Board.Name] = r.Pct
		}
		if _, ok := rank[r.Board.Name]; !ok && r.HasRank() {
			rank[r.Board.Name] = r.Rank
		}
	}

	legend = append([]string(nil), names...)
	sort.SliceStable(legend, func(i, j int) bool {
		pi, oki := pct[legend[i]]
		pj, okj := pct[legend[j]]
		if oki != okj {
			return oki
		}
		return oki && pi > pj
	})

	nav = append([]string(nil), names...)
	sort.SliceStable(nav, func(i, j int) bool {
		ri, oki := rank[nav[i]]
		rj, okj := rank[nav[j]]
		if oki != okj {
			return oki
		}
		return oki && ri < rj
	})
	return legend, nav
}
