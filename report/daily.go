package report

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"sort"

	"github.com/jing2uo/bkboard/model"
	"github.com/jing2uo/bkboard/utils"
	"github.com/xuri/excelize/v2"
)

const (
	defaultSheet = "Sheet1"
	rankHeader   = "rank"
)

var (
	redFills = [10]string{
		"FFECEC", "FFD9D9", "FFC6C6", "FFB3B3", "FF9999",
		"FF8080", "FF6666", "FF4D4D", "FF3333", "FF1A1A",
	}
	greenFills = [10]string{
		"E9F7EF", "D3F0DE", "BCE9CE", "A6E2BD", "8FDAB3",
		"78D2A9", "61C99F", "4ABF95", "33B58B", "1CAB80",
	}
)

// FillLevel 每 0.5% 一档, 共 10 档
func FillLevel(pct float64) int {
	return min(int(math.Abs(pct)/0.5)+1, 10)
}

// FillColor 涨红跌绿, 平盘算涨
func FillColor(pct float64) string {
	if pct >= 0 {
		return redFills[FillLevel(pct)-1]
	}
	return greenFills[FillLevel(pct)-1]
}

// Info 信息列: 涨跌幅 / 换手率 / 上涨家数 / 下跌家数 / 领涨股
func Info(q model.BoardQuote) string {
	turnover := q.Turnover
	if math.IsNaN(turnover) {
		turnover = 0
	}
	return fmt.Sprintf("%.2f / %.2f / %d / %d / %s", q.Pct, turnover, q.Up, q.Down, q.Leader)
}

type entry struct {
	rank  int
	name  string
	info  string
	pct   float64
	blank bool
}

// DailyResult 写入的工作表名
type DailyResult struct {
	TopBottom string
	AllData   string
	Boards    int
}

// Daily 把一份快照写入工作簿: <prefix>_TopBottom 为前 K 名、空行、后 K 名,
// <prefix>_AllData 为全部板块. 每次在 B 列插入当日的 date/info 两列,
// 同一日期已存在时先删掉旧列.
func Daily(path, prefix, date string, quotes []model.BoardQuote, topK int) (*DailyResult, error) {
	var valid []model.BoardQuote
	for _, q := range quotes {
		if !math.IsNaN(q.Pct) {
			valid = append(valid, q)
		}
	}
	if len(valid) == 0 {
		return nil, errors.New("snapshot has no board with pct")
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Pct > valid[j].Pct })

	all := make([]entry, len(valid))
	for i, q := range valid {
		all[i] = entry{rank: i + 1, name: q.Name, info: Info(q), pct: q.Pct}
	}

	k := min(topK, len(all))
	top := append([]entry(nil), all[:k]...)
	top = append(top, entry{blank: true})
	top = append(top, all[len(all)-k:]...)

	f, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res := &DailyResult{
		TopBottom: prefix + "_TopBottom",
		AllData:   prefix + "_AllData",
		Boards:    len(all),
	}
	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}
	if err := writeDay(f, st, res.TopBottom, date, top); err != nil {
		return nil, err
	}
	if err := writeDay(f, st, res.AllData, date, all); err != nil {
		return nil, err
	}
	dropDefaultSheet(f)

	if err := save(f, path); err != nil {
		return nil, err
	}
	return res, nil
}

// save 工作簿里累积着历史日期, 写临时文件后再替换
func save(f *excelize.File, path string) error {
	err := utils.WriteAtomic(path, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func openWorkbook(path string) (*excelize.File, error) {
	f, err := excelize.OpenFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return excelize.NewFile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return f, nil
}

// dropDefaultSheet 新建工作簿自带的空白页
func dropDefaultSheet(f *excelize.File) {
	if len(f.GetSheetList()) <= 1 {
		return
	}
	if idx, err := f.GetSheetIndex(defaultSheet); err != nil || idx < 0 {
		return
	}
	rows, err := f.GetRows(defaultSheet)
	if err == nil && len(rows) == 0 {
		_ = f.DeleteSheet(defaultSheet)
	}
}

type styles struct {
	center int
	fills  map[string]int
}

func newStyles(f *excelize.File) (*styles, error) {
	center, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{Horizontal: "center"}})
	if err != nil {
		return nil, err
	}
	st := &styles{center: center, fills: make(map[string]int)}
	for _, c := range append(redFills[:], greenFills[:]...) {
		id, err := f.NewStyle(&excelize.Style{Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{c}}})
		if err != nil {
			return nil, err
		}
		st.fills[c] = id
	}
	return st, nil
}

func writeDay(f *excelize.File, st *styles, sheet, date string, entries []entry) error {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		for i, h := range rows[0] {
			if h != date {
				continue
			}
			col, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				return err
			}
			// date 与 info 两列
			if err := f.RemoveCol(sheet, col); err != nil {
				return err
			}
			if err := f.RemoveCol(sheet, col); err != nil {
				return err
			}
			break
		}
	}
	if err := f.InsertCols(sheet, "B", 2); err != nil {
		return err
	}

	if err := f.SetSheetRow(sheet, "A1", &[]any{rankHeader, date, date + "_info"}); err != nil {
		return err
	}
	for i, e := range entries {
		row := i + 2
		cell := func(col string) string { return fmt.Sprintf("%s%d", col, row) }
		if e.blank {
			if err := f.SetSheetRow(sheet, cell("A"), &[]any{"", "", ""}); err != nil {
				return err
			}
			continue
		}
		if err := f.SetSheetRow(sheet, cell("A"), &[]any{e.rank, e.name, e.info}); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell("A"), cell("A"), st.center); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell("C"), cell("C"), st.fills[FillColor(e.pct)]); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 6); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	})
}

// SheetRows 读出工作表内容, 供 HTML 表格使用
func SheetRows(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetRows(sheet)
}
