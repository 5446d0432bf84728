package render

import (
	"fmt"
	"io"
	"time"

	"github.com/jing2uo/bkboard/analysis"
	"github.com/jing2uo/bkboard/widetable"
)

// 前 markTop 名着色, 其余点透明只保留 hover
const markTop = 15

func cumLeaders(recs []widetable.Record, dates []time.Time, lookback, topN int) ([]string, []string) {
	cum := analysis.CumulativePct(recs, dates, lookback, topN)
	order := make([]string, len(cum))
	texts := make([]string, len(cum))
	for i, c := range cum {
		order[i] = c.Name
		texts[i] = signed(c.Pct) + "%"
	}
	return order, texts
}

func head10(names []string) []string {
	if len(names) > 10 {
		return names[:10]
	}
	return names
}

// LookbackRank 最近 lookback 日累计涨幅前 topN 的板块名次散点.
// 返回纵轴顺序, 供复制按钮与测试使用
func LookbackRank(w io.Writer, recs []widetable.Record, dates []time.Time, lookback, topN int) ([]string, error) {
	order, texts := cumLeaders(recs, dates, lookback, topN)
	if len(order) == 0 {
		return nil, ErrNothingToPlot
	}
	plot := analysis.KeepBoards(recs, order)

	fig := &Figure{}
	for r := 1; r <= markTop; r++ {
		sub := byRank(plot, r)
		if len(sub) == 0 {
			continue
		}
		fig.Add(pointTrace(fmt.Sprintf("第%d名", r), sub, 8, rankColor(r)))
	}
	var others []widetable.Record
	for _, r := range plot {
		if r.Rank > markTop {
			others = append(others, r)
		}
	}
	if len(others) > 0 {
		t := pointTrace("其它", others, 6, "rgba(0,0,0,0)")
		t["showlegend"] = false
		fig.Add(t)
	}

	ys := make([]any, len(order))
	for i, n := range order {
		ys[i] = n
	}

	title := fmt.Sprintf("最近%d日累计涨幅前%d个板块（计算截止 %s）", lookback, topN, lastDay(dates))
	fig.Layout = M{
		"title":     title,
		"hovermode": "closest",
		"xaxis":     dateAxis(dates),
		"yaxis": M{
			"type":          "category",
			"categoryorder": "array",
			"categoryarray": order,
			"autorange":     "reversed",
			"title":         fmt.Sprintf("按最近%d日累计涨幅↓", lookback),
			"showgrid":      true,
			"gridcolor":     gridColor,
		},
		"shapes":      dayLines(dates),
		"annotations": cumNotes(ys, texts, 1),
		"legend":      M{"x": 1.05, "y": 1.0},
		"height":      900,
		"margin":      M{"l": 150, "r": 220, "t": 90, "b": 50},
	}
	return order, writeChart(w, title, fig, head10(order), nil)
}

// LookbackRange 最近 lookback 日累计涨幅前 topN 的板块涨跌柱
func LookbackRange(w io.Writer, recs []widetable.Record, dates []time.Time, lookback, topN int) ([]string, error) {
	order, texts := cumLeaders(recs, dates, lookback, topN)
	if len(order) == 0 {
		return nil, ErrNothingToPlot
	}

	fig := &Figure{}
	shapes, yaxis := barRows(fig, analysis.KeepBoards(recs, order), order, dates)

	ys := make([]any, len(order))
	for i := range order {
		ys[i] = i + 1
	}

	title := fmt.Sprintf("最近 %d 天累计涨幅前 %d 版块（计算截止：%s）", lookback, topN, lastDay(dates))
	fig.Layout = M{
		"title":       title,
		"hovermode":   "closest",
		"xaxis":       dateAxis(dates),
		"yaxis":       yaxis,
		"shapes":      shapes,
		"annotations": cumNotes(ys, texts, 1.01),
		"height":      880,
		"margin":      M{"l": 140, "r": 260, "t": 90, "b": 50},
	}
	return order, writeChart(w, title, fig, head10(order), nil)
}

func lastDay(dates []time.Time) string {
	if len(dates) == 0 {
		return "最新"
	}
	return day(dates[len(dates)-1])
}
