package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/jing2uo/bkboard/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"signed": signed,
}).ParseFS(templateFS, "templates/*.html"))

const plotlyCDN = "https://cdn.plot.ly/plotly-2.35.2.min.js"

// chartPage 图表页面的模板数据
type chartPage struct {
	Title  string
	CDN    string
	Figure template.JS
	Copy   []string // 一键复制的板块名
	Nav    []string // 导航顺序
}

func writeChart(w io.Writer, title string, fig *Figure, copyNames, nav []string) error {
	b, err := fig.JSON()
	if err != nil {
		return fmt.Errorf("failed to encode figure: %w", err)
	}
	return pages.ExecuteTemplate(w, "chart.html", chartPage{
		Title:  title,
		CDN:    plotlyCDN,
		Figure: template.JS(b),
		Copy:   copyNames,
		Nav:    nav,
	})
}

func writeFile(path string, fn func(w io.Writer) error) error {
	return utils.WriteAtomic(path, fn)
}

func signed(p float64) string {
	s := strconv.FormatFloat(p, 'f', 2, 64)
	if p >= 0 {
		return "+" + s
	}
	return s
}
