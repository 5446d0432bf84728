package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/jing2uo/bkboard/widetable"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// BoardCount 区间内某板块进入日榜 TopK 的统计
type BoardCount struct {
	Name  string
	First int // 第一名次数
	Times int // 进入 TopK 次数
}

// Window 取最近 n 个日期的记录, n<=0 时不截取
func Window(recs []widetable.Record, n int) ([]widetable.Record, []time.Time) {
	dates := Dates(recs)
	if n > 0 && len(dates) > n {
		dates = dates[len(dates)-n:]
	}
	if len(dates) == 0 {
		return nil, nil
	}
	from := dates[0]
	out := make([]widetable.Record, 0, len(recs))
	for _, r := range recs {
		if !r.Date.Before(from) {
			out = append(out, r)
		}
	}
	return out, dates
}

// Dates 记录中出现过的日期, 升序
func Dates(recs []widetable.Record) []time.Time {
	seen := make(map[time.Time]bool)
	var out []time.Time
	for _, r := range recs {
		if !seen[r.Date] {
			seen[r.Date] = true
			out = append(out, r.Date)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// TopKDaily 每日取名次最靠前的 k 条, 同名次涨幅高者优先.
// 结果按日期、名次排序
func TopKDaily(recs []widetable.Record, k int) []widetable.Record {
	byDate := make(map[time.Time][]widetable.Record)
	for _, r := range recs {
		if r.HasRank() {
			byDate[r.Date] = append(byDate[r.Date], r)
		}
	}

	var out []widetable.Record
	for _, d := range Dates(recs) {
		day := byDate[d]
		sort.SliceStable(day, func(i, j int) bool {
			if day[i].Rank != day[j].Rank {
				return day[i].Rank < day[j].Rank
			}
			return pctOrZero(day[i].Pct) > pctOrZero(day[j].Pct)
		})
		if len(day) > k {
			day = day[:k]
		}
		out = append(out, day...)
	}
	return out
}

// CountTopK 按板块名汇总 TopK 记录, 顺序为首次出现的顺序
func CountTopK(top []widetable.Record) []BoardCount {
	idx := make(map[string]int)
	var out []BoardCount
	for _, r := range top {
		i, ok := idx[r.Board.Name]
		if !ok {
			i = len(out)
			idx[r.Board.Name] = i
			out = append(out, BoardCount{Name: r.Board.Name})
		}
		out[i].Times++
		if r.Rank == 1 {
			out[i].First++
		}
	}
	return out
}

func FilterMinTimes(counts []BoardCount, min int) []BoardCount {
	out := make([]BoardCount, 0, len(counts))
	for _, c := range counts {
		if c.Times >= min {
			out = append(out, c)
		}
	}
	return out
}

// OrderByFirstThenCount 第一名次数降序, 入榜次数降序, 名称升序
func OrderByFirstThenCount(counts []BoardCount) []string {
	return orderCounts(counts, func(a, b BoardCount) int {
		if a.First != b.First {
			return b.First - a.First
		}
		return b.Times - a.Times
	})
}

// OrderByCountThenFirst 入榜次数降序, 第一名次数降序, 名称升序
func OrderByCountThenFirst(counts []BoardCount) []string {
	return orderCounts(counts, func(a, b BoardCount) int {
		if a.Times != b.Times {
			return b.Times - a.Times
		}
		return b.First - a.First
	})
}

func orderCounts(counts []BoardCount, cmp func(a, b BoardCount) int) []string {
	sorted := append([]BoardCount(nil), counts...)
	col := collate.New(language.Chinese)
	sort.SliceStable(sorted, func(i, j int) bool {
		if c := cmp(sorted[i], sorted[j]); c != 0 {
			return c < 0
		}
		return col.CompareString(sorted[i].Name, sorted[j].Name) < 0
	})
	names := make([]string, len(sorted))
	for i, c := range sorted {
		names[i] = c.Name
	}
	return names
}

// KeepBoards 只保留名称在 names 中的记录
func KeepBoards(recs []widetable.Record, names []string) []widetable.Record {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	out := make([]widetable.Record, 0, len(recs))
	for _, r := range recs {
		if keep[r.Board.Name] {
			out = append(out, r)
		}
	}
	return out
}

// ExcludeBoards 按名称剔除板块
func ExcludeBoards(recs []widetable.Record, names []string) []widetable.Record {
	if len(names) == 0 {
		return recs
	}
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := make([]widetable.Record, 0, len(recs))
	for _, r := range recs {
		if !drop[r.Board.Name] {
			out = append(out, r)
		}
	}
	return out
}

func pctOrZero(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	return p
}
