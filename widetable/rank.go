package widetable

import (
	"math"
	"sort"
)

// RankDesc 按涨跌幅降序排名, 相同值按输入顺序先后 (first), NaN 不参与排名, 返回 0
func RankDesc(pcts []float64) []int {
	idx := make([]int, 0, len(pcts))
	for i, v := range pcts {
		if !math.IsNaN(v) {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return pcts[idx[a]] > pcts[idx[b]]
	})

	ranks := make([]int, len(pcts))
	for r, i := range idx {
		ranks[i] = r + 1
	}
	return ranks
}
