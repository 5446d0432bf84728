package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/jing2uo/bkboard/model"
	"github.com/jing2uo/bkboard/widetable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(date, name string, rank int, pct float64) widetable.Record {
	d, _ := time.Parse(model.DateLayout, date)
	return widetable.Record{
		Date:  d,
		Key:   "BK|" + name,
		Board: model.Board{Code: "BK", Name: name},
		Rank:  rank,
		Pct:   pct,
		Value: 1,
	}
}

func names(recs []widetable.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Board.Name
	}
	return out
}

func TestTopKDaily(t *testing.T) {
	recs := []widetable.Record{
		rec("2024-01-03", "丙", 2, 1),
		rec("2024-01-02", "甲", 1, 5),
		rec("2024-01-02", "乙", 2, 3),
		rec("2024-01-02", "丙", 3, 1),
		rec("2024-01-03", "甲", 1, 2),
		rec("2024-01-03", "乙", 2, 4),
		rec("2024-01-03", "丁", 0, 9),
	}
	top := TopKDaily(recs, 2)
	require.Len(t, top, 4)
	assert.Equal(t, []string{"甲", "乙", "甲", "乙"}, names(top))
	assert.Equal(t, 2, top[3].Rank)
}

func TestCountAndOrder(t *testing.T) {
	top := []widetable.Record{
		rec("2024-01-02", "乙", 1, 1),
		rec("2024-01-02", "甲", 2, 1),
		rec("2024-01-03", "甲", 1, 1),
		rec("2024-01-03", "丙", 2, 1),
		rec("2024-01-04", "丙", 1, 1),
		rec("2024-01-04", "甲", 2, 1),
		rec("2024-01-05", "丁", 1, 1),
		rec("2024-01-08", "丁", 1, 1),
	}
	counts := CountTopK(top)
	assert.Equal(t, BoardCount{Name: "甲", First: 1, Times: 3}, counts[1])
	assert.Len(t, FilterMinTimes(counts, 2), 3)

	assert.Equal(t, []string{"丁", "甲", "丙", "乙"}, OrderByFirstThenCount(counts))
	assert.Equal(t, []string{"甲", "丁", "丙", "乙"}, OrderByCountThenFirst(counts))
}

func TestOrderNameCollation(t *testing.T) {
	counts := []BoardCount{
		{Name: "银行", First: 1, Times: 1},
		{Name: "券商", First: 1, Times: 1},
		{Name: "保险", First: 1, Times: 1},
	}
	// 拼音序: bao, quan, yin
	assert.Equal(t, []string{"保险", "券商", "银行"}, OrderByFirstThenCount(counts))
}

func TestCumulativePct(t *testing.T) {
	recs := []widetable.Record{
		rec("2024-01-02", "甲", 1, 9),
		rec("2024-01-03", "甲", 1, 1),
		rec("2024-01-04", "甲", 2, 1),
		rec("2024-01-03", "乙", 2, 2),
		rec("2024-01-04", "乙", 1, math.NaN()),
		rec("2024-01-04", "丙", 3, -1),
	}
	cum := CumulativePct(recs, Dates(recs), 2, 10)
	require.Len(t, cum, 3)
	assert.Equal(t, "甲", cum[0].Name)
	assert.InDelta(t, 2, cum[0].Pct, 1e-9)
	assert.Equal(t, "乙", cum[1].Name)
	assert.InDelta(t, 2, cum[1].Pct, 1e-9)
	assert.InDelta(t, -1, cum[2].Pct, 1e-9)

	assert.Len(t, CumulativePct(recs, Dates(recs), 2, 1), 1)
}

func TestCumulativePctSumsInDateOrder(t *testing.T) {
	a, b, c := 0.1, 0.2, 0.3
	want := a + b
	want += c

	recs := []widetable.Record{
		rec("2024-01-04", "乙", 2, want),
		rec("2024-01-02", "甲", 1, a),
		rec("2024-01-03", "甲", 1, b),
		rec("2024-01-04", "甲", 1, c),
	}
	dates := Dates(recs)
	for i := 0; i < 50; i++ {
		cum := CumulativePct(recs, dates, 3, 0)
		require.Len(t, cum, 2)
		assert.Equal(t, want, cum[1].Pct)
		assert.Equal(t, []string{"乙", "甲"}, []string{cum[0].Name, cum[1].Name})
	}
}

func TestExcludeAndWindow(t *testing.T) {
	recs := []widetable.Record{
		rec("2024-01-02", "次新股", 1, 1),
		rec("2024-01-02", "甲", 2, 1),
		rec("2024-01-03", "甲", 1, 1),
	}
	assert.Equal(t, []string{"甲", "甲"}, names(ExcludeBoards(recs, []string{"次新股"})))

	win, dates := Window(recs, 1)
	require.Len(t, dates, 1)
	assert.Equal(t, []string{"甲"}, names(win))
}

func TestLatestOrder(t *testing.T) {
	recs := []widetable.Record{
		rec("2024-01-02", "甲", 1, 5),
		rec("2024-01-03", "甲", 3, 1),
		rec("2024-01-03", "乙", 1, 3),
		rec("2024-01-03", "丙", 0, math.NaN()),
		rec("2024-01-03", "丁", 2, -2),
	}
	legend, nav := LatestOrder(recs)
	assert.Equal(t, []string{"乙", "甲", "丁", "丙"}, legend)
	assert.Equal(t, []string{"乙", "丁", "甲", "丙"}, nav)
}
