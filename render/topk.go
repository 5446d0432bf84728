package render

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jing2uo/bkboard/analysis"
	"github.com/jing2uo/bkboard/widetable"
)

// ErrNothingToPlot 筛选后没有板块可画, 调用方跳过该图
var ErrNothingToPlot = errors.New("no board left to plot")

func pointTrace(name string, recs []widetable.Record, size int, color string) M {
	x := make([]string, len(recs))
	y := make([]string, len(recs))
	custom := make([][]any, len(recs))
	for i, r := range recs {
		x[i] = day(r.Date)
		y[i] = r.Board.Name
		custom[i] = []any{r.Rank, num(r.Pct), num(r.Value)}
	}
	return M{
		"type":       "scatter",
		"x":          x,
		"y":          y,
		"mode":       "markers",
		"name":       name,
		"marker":     M{"size": size, "color": color},
		"customdata": custom,
		"hovertemplate": "版块：%{y}<br>日期：%{x|%Y-%m-%d}<br>名次：%{customdata[0]}<br>" +
			"涨跌幅：%{customdata[1]:+.2f}%<br>指数：%{customdata[2]:,.2f}<extra></extra>",
	}
}

func byRank(recs []widetable.Record, r int) []widetable.Record {
	var out []widetable.Record
	for _, rec := range recs {
		if rec.Rank == r {
			out = append(out, rec)
		}
	}
	return out
}

// TopKDot 按日 TopK 分布: 点的颜色为名次,
// 只画入榜次数 ≥ minTimes 的板块, 纵轴按第一名次数、入榜次数排序
func TopKDot(w io.Writer, recs []widetable.Record, dates []time.Time, k, minTimes int) error {
	top := analysis.TopKDaily(recs, k)
	kept := analysis.FilterMinTimes(analysis.CountTopK(top), minTimes)
	if len(kept) == 0 {
		return ErrNothingToPlot
	}
	order := analysis.OrderByFirstThenCount(kept)
	top = analysis.KeepBoards(top, order)

	fig := &Figure{}
	for r := 1; r <= k; r++ {
		sub := byRank(top, r)
		if len(sub) == 0 {
			continue
		}
		fig.Add(pointTrace(fmt.Sprintf("第%d名", r), sub, 8, rankColor(r)))
	}

	// category 轴自下而上排列
	reversed := make([]string, len(order))
	for i, n := range order {
		reversed[len(order)-1-i] = n
	}

	title := fmt.Sprintf("按日 Top%d · 版块分布（最近 %d 天，进入前%d ≥ %d 次）", k, len(dates), k, minTimes)
	yaxis := withSpikes(M{
		"type":          "category",
		"categoryorder": "array",
		"categoryarray": reversed,
		"title":         "（优先：第一名次数↓，次之：入榜次数↓）",
		"showgrid":      true,
		"gridcolor":     gridColor,
	})

	fig.Layout = M{
		"title":     title,
		"hovermode": "closest",
		"xaxis":     dateAxis(dates),
		"yaxis":     yaxis,
		"shapes":    dayLines(dates),
		"legend":    M{"x": 1.02, "y": 1.0, "title": M{"text": fmt.Sprintf("名次（1~%d）", k)}},
		"margin":    M{"l": 100, "r": 200, "t": 70, "b": 50},
		"height":    860,
	}
	return writeChart(w, title, fig, nil, nil)
}

// TopKBar 入榜次数 ≥ minTimes 的板块在所有天的涨跌柱
func TopKBar(w io.Writer, recs []widetable.Record, dates []time.Time, k, minTimes int) error {
	top := analysis.TopKDaily(recs, k)
	kept := analysis.FilterMinTimes(analysis.CountTopK(top), minTimes)
	if len(kept) == 0 {
		return ErrNothingToPlot
	}
	order := analysis.OrderByCountThenFirst(kept)

	fig := &Figure{}
	shapes, yaxis := barRows(fig, analysis.KeepBoards(recs, order), order, dates)
	shapes = append(shapes, dayLines(dates)...)
	yaxis["title"] = "（排序：出现次数↓ → 第一名次数↓ → 名称↑）"

	fig.Add(M{"type": "scatter", "x": []any{nil}, "y": []any{nil}, "mode": "markers",
		"name": "上涨（红）", "marker": M{"size": 10, "color": upColor}})
	fig.Add(M{"type": "scatter", "x": []any{nil}, "y": []any{nil}, "mode": "markers",
		"name": "下跌（绿）", "marker": M{"size": 10, "color": downColor}})

	xaxis := dateAxis(dates)
	if len(dates) > 0 {
		xaxis["range"] = []string{day(dates[0].AddDate(0, 0, -1)), day(dates[len(dates)-1].AddDate(0, 0, 1))}
	}

	title := fmt.Sprintf("按日 Top%d · 涨跌柱分布（最近 %d 天；显示板块：进入前%d ≥ %d 次）", k, len(dates), k, minTimes)
	fig.Layout = M{
		"title":     title,
		"hovermode": "closest",
		"xaxis":     xaxis,
		"yaxis":     yaxis,
		"shapes":    shapes,
		"legend":    M{"x": 1.02, "y": 1.0},
		"margin":    M{"l": 120, "r": 180, "t": 70, "b": 50},
		"height":    860,
	}
	return writeChart(w, title, fig, nil, nil)
}
