package report

import (
	"fmt"
	"math"

	"github.com/jing2uo/bkboard/model"
	"github.com/jing2uo/bkboard/widetable"
	"github.com/xuri/excelize/v2"
)

const HeatmapSheet = "fluctuate"

// Heatmap 宽表最近 days 天的涨跌幅: 行为日期, 列为板块,
// 三色刻度 -8 绿 / 0 白 / +8 红, 冻结首行首列
func Heatmap(path string, t *widetable.Table, days int) error {
	dates := t.LastDates(days)
	if len(dates) == 0 {
		return fmt.Errorf("wide table has no date column")
	}
	keys := t.Keys()

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(defaultSheet, HeatmapSheet); err != nil {
		return err
	}

	header := make([]any, 0, len(keys)+1)
	header = append(header, "date")
	for _, k := range keys {
		header = append(header, model.SplitRowKey(k).Name)
	}
	if err := f.SetSheetRow(HeatmapSheet, "A1", &header); err != nil {
		return err
	}

	for i, d := range dates {
		row := make([]any, 0, len(keys)+1)
		row = append(row, d)
		for _, k := range keys {
			pct := widetable.ParseCell(t.Get(k, d)).Pct
			if math.IsNaN(pct) {
				row = append(row, nil)
				continue
			}
			row = append(row, math.Round(pct*100)/100)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(HeatmapSheet, cell, &row); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(keys) + 1)
	if err != nil {
		return err
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true}})
	if err != nil {
		return err
	}
	if err := f.SetColWidth(HeatmapSheet, "A", "A", 12); err != nil {
		return err
	}
	if len(keys) > 0 {
		if err := f.SetColWidth(HeatmapSheet, "B", lastCol, 10); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(HeatmapSheet, "A1", fmt.Sprintf("%s%d", lastCol, len(dates)+1), wrap); err != nil {
		return err
	}

	if len(keys) > 0 {
		rng := fmt.Sprintf("B2:%s%d", lastCol, len(dates)+1)
		err := f.SetConditionalFormat(HeatmapSheet, rng, []excelize.ConditionalFormatOptions{{
			Type:     "3_color_scale",
			Criteria: "=",
			MinType:  "num",
			MidType:  "num",
			MaxType:  "num",
			MinValue: "-8",
			MidValue: "0",
			MaxValue: "8",
			MinColor: "#63BE7B",
			MidColor: "#FFFFFF",
			MaxColor: "#F8696B",
		}})
		if err != nil {
			return err
		}
	}

	if err := f.SetPanes(HeatmapSheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	}); err != nil {
		return err
	}

	return save(f, path)
}
