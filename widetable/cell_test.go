package widetable

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeTriplet(t *testing.T) {
	c := Cell{Rank: 3, Pct: 1.234, Value: 1023.45000, Turnover: math.NaN()}
	assert.Equal(t, "3|1.23|1023.45", c.Encode(FormatTriplet))

	c = Cell{Rank: 1, Pct: -0.5, Value: 1000, Turnover: math.NaN()}
	assert.Equal(t, "1|-0.50|1000", c.Encode(FormatTriplet))

	c = Cell{Rank: 7, Pct: 2, Value: 12.345678, Turnover: math.NaN()}
	assert.Equal(t, "7|2.00|12.3457", c.Encode(FormatTriplet))
	assert.Equal(t, "7|2.00", c.Encode(FormatPair))
}

func TestEncodeRich(t *testing.T) {
	c := Cell{Rank: 2, Pct: 3.1, Value: 987.6, Turnover: 1.234, Up: 40, Down: 3, Leader: "中国|平安"}
	assert.Equal(t, "2|3.10|987.6|1.23|40|3|中国/平安", c.Encode(FormatRich))

	// 缺失的字段留空但保持位置
	c = EmptyCell()
	c.Rank = 5
	c.Pct = 0
	assert.Equal(t, "5|0.00|||||", c.Encode(FormatRich))
}

func TestEncodeAllEmpty(t *testing.T) {
	assert.Equal(t, "", EmptyCell().Encode(FormatRich))
	assert.Equal(t, "", EmptyCell().Encode(FormatTriplet))
	assert.True(t, EmptyCell().IsEmpty())
}

func TestParseCellVariants(t *testing.T) {
	c := ParseCell("12|-1.50|1234.5")
	assert.Equal(t, 12, c.Rank)
	assert.InDelta(t, -1.5, c.Pct, 1e-9)
	assert.InDelta(t, 1234.5, c.Value, 1e-9)
	assert.True(t, math.IsNaN(c.Turnover))

	c = ParseCell("4|0.88")
	assert.Equal(t, 4, c.Rank)
	assert.True(t, math.IsNaN(c.Value))

	c = ParseCell("1|9.99|1500|3.21|50|0|龙头A|B")
	assert.Equal(t, 50, c.Up)
	assert.Equal(t, 0, c.Down)
	assert.Equal(t, "龙头A/B", c.Leader)
}

func TestParseCellTolerant(t *testing.T) {
	c := ParseCell("")
	assert.True(t, c.IsEmpty())

	c = ParseCell("abc|x|-")
	assert.Equal(t, 0, c.Rank)
	assert.True(t, math.IsNaN(c.Pct))
	assert.True(t, math.IsNaN(c.Value))

	// 非正或非整数的名次视为缺失
	assert.Equal(t, 0, ParseCell("0|1.0|2").Rank)
	assert.Equal(t, 0, ParseCell("-3|1.0|2").Rank)
	assert.Equal(t, 0, ParseCell("2.5|1.0|2").Rank)
	assert.Equal(t, 3, ParseCell("3.0|1.0|2").Rank)

	c = ParseCell("||88.8")
	assert.Equal(t, 0, c.Rank)
	assert.InDelta(t, 88.8, c.Value, 1e-9)
}

func TestParseEncodeStable(t *testing.T) {
	for _, s := range []string{"1|2.00|3", "15|-0.37|1024.1234", "2|3.10|987.6|1.23|40|3|龙头"} {
		f := FormatTriplet
		if len(s) > 20 {
			f = FormatRich
		}
		assert.Equal(t, s, ParseCell(s).Encode(f))
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("RICH")
	assert.NoError(t, err)
	assert.Equal(t, FormatRich, f)

	f, err = ParseFormat("")
	assert.NoError(t, err)
	assert.Equal(t, FormatTriplet, f)

	_, err = ParseFormat("wide")
	assert.Error(t, err)
}

func TestRankDesc(t *testing.T) {
	nan := math.NaN()
	assert.Equal(t, []int{2, 1, 3}, RankDesc([]float64{1.0, 2.0, -1.0}))
	// 同值按出现顺序
	assert.Equal(t, []int{1, 2, 3}, RankDesc([]float64{5, 5, 1}))
	assert.Equal(t, []int{2, 0, 1}, RankDesc([]float64{1, nan, 3}))
	assert.Empty(t, RankDesc(nil))
}
