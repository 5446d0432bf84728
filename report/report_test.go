package report

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/jing2uo/bkboard/model"
	"github.com/jing2uo/bkboard/widetable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func q(code, name string, pct float64) model.BoardQuote {
	b := model.NewBoardQuote(model.Board{Code: code, Name: name})
	b.Pct = pct
	b.Turnover = 1.5
	b.Up = 10
	b.Down = 3
	b.Leader = "龙头"
	return b
}

func TestFillLevel(t *testing.T) {
	assert.Equal(t, 1, FillLevel(0))
	assert.Equal(t, 1, FillLevel(0.49))
	assert.Equal(t, 2, FillLevel(0.5))
	assert.Equal(t, 7, FillLevel(-3.2))
	assert.Equal(t, 10, FillLevel(9.9))
	assert.Equal(t, "FFECEC", FillColor(0))
	assert.Equal(t, "1CAB80", FillColor(-7))
	assert.Equal(t, "FF1A1A", FillColor(5))
}

func TestInfo(t *testing.T) {
	b := q("BK1", "酿酒", 2.345)
	b.Turnover = math.NaN()
	assert.Equal(t, "2.35 / 0.00 / 10 / 3 / 龙头", Info(b))
}

func TestDailyInsertsAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "bk_day.xlsx")
	quotes := []model.BoardQuote{
		q("BK1", "甲", 1.0),
		q("BK2", "乙", 3.0),
		q("BK3", "丙", -2.0),
		q("BK4", "丁", math.NaN()),
		q("BK5", "戊", 0.5),
	}

	res, err := Daily(path, "Concept", "2024-01-02", quotes, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Boards)

	rows, err := SheetRows(path, "Concept_TopBottom")
	require.NoError(t, err)
	assert.Equal(t, []string{"rank", "2024-01-02", "2024-01-02_info"}, rows[0])
	assert.Equal(t, "乙", rows[1][1])
	assert.Equal(t, "甲", rows[2][1])
	assert.Empty(t, rows[3])
	assert.Equal(t, []string{"3", "戊"}, rows[4][:2])
	assert.Equal(t, []string{"4", "丙"}, rows[5][:2])

	// 新的一天插在最前
	_, err = Daily(path, "Concept", "2024-01-03", quotes[:2], 2)
	require.NoError(t, err)
	// 同一天重跑替换旧列
	_, err = Daily(path, "Concept", "2024-01-03", quotes[1:3], 2)
	require.NoError(t, err)

	rows, err = SheetRows(path, "Concept_AllData")
	require.NoError(t, err)
	assert.Equal(t, []string{"rank", "2024-01-03", "2024-01-03_info", "2024-01-02", "2024-01-02_info"}, rows[0])
	assert.Equal(t, "乙", rows[1][1])
	assert.Equal(t, "丙", rows[2][1])
	assert.Equal(t, "乙", rows[1][3])

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.NotContains(t, f.GetSheetList(), "Sheet1")

	style, err := f.GetCellStyle("Concept_AllData", "C2")
	require.NoError(t, err)
	assert.NotZero(t, style)
}

func TestHeatmap(t *testing.T) {
	tb := widetable.New()
	tb.Set("BK1|甲", "2024-01-02", "1|2.00|100")
	tb.Set("BK2|乙", "2024-01-02", "2|-1.50|50")
	tb.Set("BK1|甲", "2024-01-03", "1|0.10|100")

	path := filepath.Join(t.TempDir(), "heat.xlsx")
	require.NoError(t, Heatmap(path, tb, 0))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(HeatmapSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "甲", "乙"}, rows[0])
	assert.Equal(t, []string{"2024-01-02", "2", "-1.5"}, rows[1])
	assert.Equal(t, []string{"2024-01-03", "0.1"}, rows[2])

	cf, err := f.GetConditionalFormats(HeatmapSheet)
	require.NoError(t, err)
	require.Len(t, cf, 1)
	for _, opts := range cf {
		assert.Equal(t, "3_color_scale", opts[0].Type)
	}
}

func TestDailySavesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bk_day.xlsx")
	quotes := []model.BoardQuote{q("BK1", "甲", 1.0), q("BK2", "乙", -1.0)}

	_, err := Daily(path, "Concept", "2024-01-02", quotes, 1)
	require.NoError(t, err)
	_, err = Daily(path, "Concept", "2024-01-03", quotes, 1)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "bk_day.xlsx", entries[0].Name())

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	require.NoError(t, os.Chmod(dir, 0555))
	t.Cleanup(func() { os.Chmod(dir, 0755) })

	_, err = Daily(path, "Concept", "2024-01-04", quotes, 1)
	require.Error(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
