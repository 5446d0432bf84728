package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jing2uo/bkboard/config"
	"github.com/jing2uo/bkboard/model"
	"github.com/jing2uo/bkboard/widetable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleTable 三个板块十个交易日, 甲几乎天天第一
func sampleTable() *widetable.Table {
	t := widetable.New()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // Monday
	d := start
	for i := 0; i < 10; i++ {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		col := d.Format(model.DateLayout)
		t.Set("BK1|甲", col, fmt.Sprintf("1|%.2f|%d", 3.0, 100+i))
		t.Set("BK2|乙", col, fmt.Sprintf("2|%.2f|%d", 1.0, 50+i))
		if i%2 == 0 {
			t.Set("BK3|丙", col, "3|-1.00|20")
		}
		d = d.AddDate(0, 0, 1)
	}
	return t
}

func doc(t *testing.T, b []byte) *goquery.Document {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(b))
	require.NoError(t, err)
	return d
}

func figureScript(d *goquery.Document) string {
	var out string
	d.Find("script").Each(func(_ int, s *goquery.Selection) {
		if strings.Contains(s.Text(), "Plotly.newPlot") {
			out = s.Text()
		}
	})
	return out
}

func TestTopKDot(t *testing.T) {
	recs := sampleTable().Melt()
	var buf bytes.Buffer
	dates := datesOf(recs)
	require.NoError(t, TopKDot(&buf, recs, dates, 2, 5))

	d := doc(t, buf.Bytes())
	assert.Contains(t, d.Find("title").Text(), "按日 Top2")
	assert.Equal(t, plotlyCDN, d.Find("script[src]").AttrOr("src", ""))
	js := figureScript(d)
	assert.Contains(t, js, "第1名")
	assert.Contains(t, js, "第2名")
	assert.Contains(t, js, `"categoryarray":["乙","甲"]`)
	assert.Contains(t, js, `"tickvals":["2024-01-01","2024-01-08"]`)
	assert.Equal(t, 0, d.Find("#ctrl-btns").Length())
}

func TestTopKDotNothingToPlot(t *testing.T) {
	recs := sampleTable().Melt()
	err := TopKDot(&bytes.Buffer{}, recs, datesOf(recs), 1, 100)
	assert.ErrorIs(t, err, ErrNothingToPlot)
}

func TestTopKBarShapes(t *testing.T) {
	recs := sampleTable().Melt()
	var buf bytes.Buffer
	require.NoError(t, TopKBar(&buf, recs, datesOf(recs), 1, 3))

	js := figureScript(doc(t, buf.Bytes()))
	assert.Contains(t, js, `"ticktext":["甲"]`)
	assert.Contains(t, js, upColor)
	assert.Contains(t, js, "上涨（红）")
	// 甲每天一根柱子
	assert.Equal(t, 10, strings.Count(js, `"type":"rect"`))
}

func TestLookbackPages(t *testing.T) {
	recs := sampleTable().Melt()
	dates := datesOf(recs)

	var buf bytes.Buffer
	order, err := LookbackRank(&buf, recs, dates, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"甲", "乙"}, order)

	d := doc(t, buf.Bytes())
	assert.Equal(t, 2, d.Find("#copy-btns button").Length())
	assert.Contains(t, d.Text(), `["甲","乙"]`)
	js := figureScript(d)
	assert.Contains(t, js, "+15.00%")
	assert.Contains(t, js, "+5.00%")

	buf.Reset()
	order, err = LookbackRange(&buf, recs, dates, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"甲", "乙", "丙"}, order)
	assert.Contains(t, figureScript(doc(t, buf.Bytes())), "+0.00%")
}

func TestBoardNav(t *testing.T) {
	recs := sampleTable().Melt()
	var buf bytes.Buffer
	require.NoError(t, BoardNav(&buf, recs, datesOf(recs)))

	d := doc(t, buf.Bytes())
	assert.Equal(t, 1, d.Find("#btnMode").Length())
	assert.Equal(t, 1, d.Find("#btnPrev").Length())
	assert.Equal(t, 1, d.Find("#btnNext").Length())
	assert.Equal(t, "（未选）", d.Find("#current-name").Text())

	js := figureScript(d)
	assert.Contains(t, js, `const boards = ["甲","乙","丙"]`)
	assert.Equal(t, 3, strings.Count(js, `"legendgroup":"甲"`))
	assert.Contains(t, js, `"visible":"legendonly"`)
	assert.Contains(t, js, barDown)
	assert.Contains(t, js, "plotly_legendclick")
}

func TestTable(t *testing.T) {
	rows := [][]string{
		{"rank", "2024-01-08", "2024-01-08_info", "2024-01-05", "2024-01-05_info"},
		{"1", "酿酒", "3.10 / 1.20 / 30 / 2 / 茅台", "银行", "-0.50 / 0.30 / 1 / 40 / 工行"},
		{"", "", "", "", ""},
	}
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, "Concept_AllData", rows))

	d := doc(t, buf.Bytes())
	heads := d.Find("th")
	require.Equal(t, 5, heads.Length())
	assert.Equal(t, "01-08", heads.Eq(1).Text())
	assert.Equal(t, "info", heads.Eq(2).Text())
	assert.True(t, heads.Eq(1).HasClass("monday-col"))
	assert.False(t, heads.Eq(3).HasClass("monday-col"))

	bk := d.Find(`td.bk[data-bk="酿酒"]`)
	require.Equal(t, 1, bk.Length())
	assert.Equal(t, "toggleBk(this)", bk.AttrOr("onclick", ""))
	assert.True(t, bk.HasClass("monday-col"))
	assert.Equal(t, 1, d.Find("td.pos").Length())
	assert.Equal(t, 1, d.Find("td.neg").Length())
	assert.Equal(t, 2, d.Find("td.rank").Length())
}

func TestCharts(t *testing.T) {
	cfg := config.Default().Chart
	cfg.Dir = t.TempDir()
	cfg.MinTimes = 5
	cfg.BarMin = 100

	paths, err := Charts(context.Background(), sampleTable(), cfg)
	require.NoError(t, err)

	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}
	assert.Contains(t, names, "bk_top5_dot.html")
	assert.NotContains(t, names, "bk_top1_bar.html")
	assert.Contains(t, names, "vis_all.html")
	assert.Contains(t, names, "kcon1_0112.html")
	assert.Contains(t, names, "gcon5_0112.html")
}

func datesOf(recs []widetable.Record) []time.Time {
	seen := map[time.Time]bool{}
	var out []time.Time
	for _, r := range recs {
		if !seen[r.Date] {
			seen[r.Date] = true
			out = append(out, r.Date)
		}
	}
	return out
}
