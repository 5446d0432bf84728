package render

import (
	"math"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// M Plotly 的 trace/layout 都是松散的 JSON 对象
type M = map[string]any

type Figure struct {
	Data   []M `json:"data"`
	Layout M   `json:"layout"`
}

func (f *Figure) Add(trace M) { f.Data = append(f.Data, trace) }

func (f *Figure) JSON() ([]byte, error) { return json.Marshal(f) }

var (
	set1 = []string{
		"rgb(228,26,28)", "rgb(55,126,184)", "rgb(77,175,74)", "rgb(152,78,163)", "rgb(255,127,0)",
		"rgb(255,255,51)", "rgb(166,86,40)", "rgb(247,129,191)", "rgb(153,153,153)",
	}
	set3 = []string{
		"rgb(141,211,199)", "rgb(255,255,179)", "rgb(190,186,218)", "rgb(251,128,114)",
		"rgb(128,177,211)", "rgb(253,180,98)", "rgb(179,222,105)", "rgb(252,205,229)",
		"rgb(217,217,217)", "rgb(188,128,189)", "rgb(204,235,197)", "rgb(255,237,111)",
	}
	bold = []string{
		"rgb(127,60,141)", "rgb(17,165,121)", "rgb(57,105,172)", "rgb(242,183,1)", "rgb(231,63,116)",
		"rgb(128,186,90)", "rgb(230,131,16)", "rgb(0,134,149)", "rgb(207,28,144)", "rgb(249,123,114)",
		"rgb(165,170,153)",
	}
	vivid = []string{
		"rgb(229,134,6)", "rgb(93,105,177)", "rgb(82,188,163)", "rgb(153,201,69)", "rgb(204,97,176)",
		"rgb(36,121,108)", "rgb(218,165,27)", "rgb(47,138,196)", "rgb(118,78,159)", "rgb(237,100,90)",
		"rgb(165,170,153)",
	}
	set2 = []string{
		"rgb(102,194,165)", "rgb(252,141,98)", "rgb(141,160,203)", "rgb(231,138,195)",
		"rgb(166,216,84)", "rgb(255,217,47)", "rgb(229,196,148)", "rgb(179,179,179)",
	}

	// 名次配色
	rankPalette = concat(set1, set3, bold)
	// 板块配色
	boardPalette = concat(vivid, set2)
)

func concat(ps ...[]string) []string {
	var out []string
	for _, p := range ps {
		out = append(out, p...)
	}
	return out
}

func rankColor(r int) string { return rankPalette[(r-1)%len(rankPalette)] }

const (
	gridColor  = "rgba(0,0,0,0.15)"
	spikeColor = "rgba(0,0,0,0.35)"
	upColor    = "rgba(220,0,0,0.85)"
	downColor  = "rgba(0,140,0,0.85)"
	noteColor  = "rgba(80,80,80,1)"
)

// num NaN 在 JSON 中写 null
func num(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func day(t time.Time) string { return t.Format("2006-01-02") }

func stamp(t time.Time) string { return t.Format("2006-01-02 15:04:05") }

func mondays(dates []time.Time) []string {
	out := []string{}
	for _, d := range dates {
		if d.Weekday() == time.Monday {
			out = append(out, day(d))
		}
	}
	return out
}

// withSpikes 悬停十字准线
func withSpikes(ax M) M {
	ax["showspikes"] = true
	ax["spikemode"] = "across"
	ax["spikesnap"] = "cursor"
	ax["spikedash"] = "dot"
	ax["spikecolor"] = spikeColor
	ax["spikethickness"] = 1
	return ax
}

// dateAxis 只在周一打刻度, 标签为月-日
func dateAxis(dates []time.Time) M {
	return withSpikes(M{
		"type":       "date",
		"tickmode":   "array",
		"tickvals":   mondays(dates),
		"tickformat": "%m-%d",
		"showgrid":   true,
		"gridcolor":  gridColor,
		"ticks":      "outside",
	})
}

// dayLines 每个交易日一条淡色虚线
func dayLines(dates []time.Time) []M {
	shapes := make([]M, 0, len(dates))
	for _, d := range dates {
		shapes = append(shapes, M{
			"type":    "line",
			"xref":    "x",
			"yref":    "paper",
			"x0":      day(d),
			"x1":      day(d),
			"y0":      0,
			"y1":      1,
			"opacity": 0.25,
			"layer":   "below",
			"line":    M{"width": 1, "dash": "dot"},
		})
	}
	return shapes
}

func pctText(p float64) string {
	if math.IsNaN(p) {
		return ""
	}
	return signed(p) + "%"
}
