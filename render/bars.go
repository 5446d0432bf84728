package render

import (
	"fmt"
	"math"
	"time"

	"github.com/jing2uo/bkboard/widetable"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	barDayFraction = 0.8
	rowHalfHeight  = 0.45
)

var printer = message.NewPrinter(language.English)

// valueText 指数带千分位
func valueText(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return printer.Sprintf("%.2f", v)
}

func hoverText(name string, d time.Time, pct, value float64) string {
	return fmt.Sprintf("版块：%s<br>日期：%s<br>涨跌幅：%s%%<br>指数：%s", name, day(d), signed(pct), valueText(value))
}

type cellKey struct {
	name string
	date time.Time
}

// firstCells 同名同日只取第一条
func firstCells(recs []widetable.Record) map[cellKey]widetable.Record {
	out := make(map[cellKey]widetable.Record, len(recs))
	for _, r := range recs {
		k := cellKey{r.Board.Name, r.Date}
		if _, ok := out[k]; !ok {
			out[k] = r
		}
	}
	return out
}

// barRows 每个板块一行: 水平基准线, 每天一根柱子, 涨为红向上, 跌为绿向下.
// 最大绝对涨跌幅映射为 rowHalfHeight 行高, 柱子不会跨行.
// 返回 shapes 与 y 轴设置, hover 用透明散点承载.
func barRows(fig *Figure, recs []widetable.Record, order []string, dates []time.Time) ([]M, M) {
	cells := firstCells(recs)
	ypos := make(map[string]int, len(order))
	for i, n := range order {
		ypos[n] = i + 1
	}

	var maxAbs float64
	for k, r := range cells {
		if _, ok := ypos[k.name]; ok && !math.IsNaN(r.Pct) {
			maxAbs = math.Max(maxAbs, math.Abs(r.Pct))
		}
	}
	var scale float64
	if maxAbs > 0 {
		scale = rowHalfHeight / maxAbs
	}

	halfBar := time.Duration(barDayFraction * float64(24*time.Hour) / 2)
	var shapes []M
	var hx []string
	var hy []float64
	var ht []string
	for _, n := range order {
		y0 := float64(ypos[n])
		for _, d := range dates {
			r, ok := cells[cellKey{n, d}]
			if !ok || math.IsNaN(r.Pct) || r.Pct == 0 {
				continue
			}
			y1 := y0 - r.Pct*scale
			color := upColor
			if r.Pct < 0 {
				color = downColor
			}
			shapes = append(shapes, M{
				"type":      "rect",
				"x0":        stamp(d.Add(-halfBar)),
				"x1":        stamp(d.Add(halfBar)),
				"y0":        math.Min(y0, y1),
				"y1":        math.Max(y0, y1),
				"fillcolor": color,
				"line":      M{"width": 0},
				"layer":     "above",
			})
			hx = append(hx, day(d))
			hy = append(hy, y1)
			ht = append(ht, hoverText(n, d, r.Pct, r.Value))
		}
	}

	if len(dates) > 0 {
		x0, x1 := day(dates[0]), day(dates[len(dates)-1])
		for _, n := range order {
			y := ypos[n]
			shapes = append(shapes, M{
				"type": "line",
				"x0":   x0, "x1": x1,
				"y0": y, "y1": y,
				"line": M{"color": "rgba(0,0,0,0.25)", "width": 1},
			})
		}
	}

	if len(hx) > 0 {
		fig.Add(M{
			"type":       "scatter",
			"x":          hx,
			"y":          hy,
			"mode":       "markers",
			"name":       "",
			"marker":     M{"size": 1, "opacity": 0},
			"hoverinfo":  "text",
			"hovertext":  ht,
			"showlegend": false,
		})
	}

	tickvals := make([]int, len(order))
	for i := range order {
		tickvals[i] = i + 1
	}
	yaxis := withSpikes(M{
		"type":     "linear",
		"tickmode": "array",
		"tickvals": tickvals,
		"ticktext": order,
		// 排在前面的在最上
		"range":    []float64{float64(len(order)) + 0.5, 0.5},
		"showgrid": false,
	})
	return shapes, yaxis
}

// cumNotes 右侧的累计涨幅标注
func cumNotes(ys []any, texts []string, x float64) []M {
	notes := make([]M, len(ys))
	for i := range ys {
		notes[i] = M{
			"x":         x,
			"y":         ys[i],
			"xref":      "paper",
			"yref":      "y",
			"text":      texts[i],
			"showarrow": false,
			"xanchor":   "left",
			"font":      M{"size": 12, "color": noteColor},
		}
	}
	return notes
}
