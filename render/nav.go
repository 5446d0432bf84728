package render

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/jing2uo/bkboard/analysis"
	"github.com/jing2uo/bkboard/widetable"
)

const (
	barUp   = "#d62728"
	barDown = "#2ca02c"
	barFlat = "#9e9e9e"
)

// BoardNav 每个板块一组曲线: 上图左轴名次 (倒序, 标注当日涨跌幅), 右轴收盘值;
// 下图涨跌幅柱. 图例按最新涨跌幅降序, 上一个/下一个按最新名次升序.
func BoardNav(w io.Writer, recs []widetable.Record, dates []time.Time) error {
	legend, nav := analysis.LatestOrder(recs)
	if len(legend) == 0 {
		return ErrNothingToPlot
	}

	series := make(map[string][]widetable.Record)
	for _, r := range recs {
		series[r.Board.Name] = append(series[r.Board.Name], r)
	}

	fig := &Figure{}
	for i, name := range legend {
		rs := series[name]
		sort.SliceStable(rs, func(a, b int) bool { return rs[a].Date.Before(rs[b].Date) })
		color := boardPalette[i%len(boardPalette)]

		n := len(rs)
		x := make([]string, n)
		ranks := make([]any, n)
		values := make([]any, n)
		pcts := make([]any, n)
		texts := make([]string, n)
		pos := make([]string, n)
		custom := make([][]any, n)
		bars := make([]string, n)
		for j, r := range rs {
			x[j] = day(r.Date)
			if r.HasRank() {
				ranks[j] = r.Rank
			}
			values[j] = num(r.Value)
			pcts[j] = num(r.Pct)
			texts[j] = pctText(r.Pct)
			custom[j] = []any{num(r.Value), num(r.Pct)}
			switch {
			case math.IsNaN(r.Pct) || r.Pct > 0:
				pos[j] = "top center"
			case r.Pct < 0:
				pos[j] = "bottom center"
			default:
				pos[j] = "middle right"
			}
			switch {
			case r.Pct > 0:
				bars[j] = barUp
			case r.Pct < 0:
				bars[j] = barDown
			default:
				bars[j] = barFlat
			}
		}

		fig.Add(M{
			"type":         "scatter",
			"x":            x,
			"y":            ranks,
			"xaxis":        "x",
			"yaxis":        "y",
			"mode":         "lines+markers+text",
			"name":         name,
			"legendgroup":  name,
			"showlegend":   true,
			"line":         M{"width": 1.5, "dash": "dot", "color": color},
			"marker":       M{"size": 6, "color": color, "symbol": "circle"},
			"text":         texts,
			"textposition": pos,
			"textfont":     M{"size": 10, "color": color},
			"cliponaxis":   false,
			"customdata":   custom,
			"hovertemplate": "<b>" + name + "</b><br>日期=%{x|%Y-%m-%d}<br>排名=%{y}<br>" +
				"收盘净值=%{customdata[0]:.2f}<br>涨跌幅=%{customdata[1]:+.2f}%<extra></extra>",
			"visible": "legendonly",
		})
		fig.Add(M{
			"type":        "scatter",
			"x":           x,
			"y":           values,
			"xaxis":       "x",
			"yaxis":       "y2",
			"mode":        "lines+markers",
			"name":        name,
			"legendgroup": name,
			"showlegend":  false,
			"line":        M{"width": 2, "color": color},
			"marker":      M{"size": 5, "color": color},
			"hoverinfo":   "skip",
			"visible":     "legendonly",
		})
		fig.Add(M{
			"type":        "bar",
			"x":           x,
			"y":           pcts,
			"xaxis":       "x",
			"yaxis":       "y3",
			"name":        name,
			"legendgroup": name,
			"showlegend":  false,
			"marker":      M{"color": bars, "line": M{"width": 0}},
			"opacity":     0.65,
			"hoverinfo":   "skip",
			"visible":     "legendonly",
		})
	}

	grid := func(alpha string) string { return "rgba(220,220,220," + alpha + ")" }
	xaxis := M{
		"tickmode":   "array",
		"tickvals":   mondays(dates),
		"tickformat": "%b %d",
		"showgrid":   true,
		"gridwidth":  0.8,
		"gridcolor":  "rgba(200,200,200,0.35)",
		"anchor":     "y3",
	}

	title := fmt.Sprintf("A股板块 · 排名 vs 净值（双轴） · 默认按 最新一天（%s）涨跌幅降序 · 显示近 %d 天", lastDay(dates), len(dates))
	fig.Layout = M{
		"title":     title,
		"template":  "plotly_white",
		"hovermode": "x unified",
		"autosize":  true,
		"font":      M{"size": 13},
		"margin":    M{"l": 56, "r": 20, "t": 50, "b": 28},
		"barmode":   "group",
		"xaxis":     xaxis,
		"yaxis": M{
			"domain":    []float64{0.112, 1},
			"title":     "排名（越小越靠前）",
			"autorange": "reversed",
			"showgrid":  true,
			"gridcolor": grid("0.40"),
		},
		"yaxis2": M{
			"domain":     []float64{0.112, 1},
			"overlaying": "y",
			"side":       "right",
			"title":      "收盘净值",
			"showgrid":   false,
		},
		"yaxis3": M{
			"domain":        []float64{0, 0.1},
			"anchor":        "x",
			"title":         "涨跌幅（%）",
			"ticksuffix":    "%",
			"showgrid":      true,
			"gridcolor":     grid("0.35"),
			"zeroline":      true,
			"zerolinecolor": "rgba(120,120,120,0.6)",
		},
		"legend": M{
			"title":         M{"text": "板块"},
			"traceorder":    "normal",
			"orientation":   "v",
			"x":             1.005,
			"xanchor":       "left",
			"y":             1.0,
			"yanchor":       "top",
			"itemsizing":    "constant",
			"itemwidth":     30,
			"tracegroupgap": 0,
		},
	}
	return writeChart(w, title, fig, nil, nav)
}
