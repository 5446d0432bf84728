package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/jing2uo/bkboard/model"
	"github.com/jing2uo/bkboard/utils"
	"github.com/jing2uo/bkboard/widetable"
	"github.com/rs/zerolog/log"
)

// Export 宽表展开为长格式导出, fromDate 非空时只导出该日期 (含) 之后
func Export(tablePath, output, format, fromDate string) error {
	if fromDate != "" {
		if _, err := time.Parse(model.DateLayout, fromDate); err != nil {
			return fmt.Errorf("invalid fromdate %q, want YYYY-MM-DD: %w", fromDate, err)
		}
	}

	t, err := loadTable(tablePath)
	if err != nil {
		return err
	}
	var dates []string
	for _, d := range t.Dates() {
		if d >= fromDate {
			dates = append(dates, d)
		}
	}
	if len(dates) == 0 {
		log.Info().Str("from", fromDate).Msg("🌲 没有可导出的日期")
		return nil
	}
	recs := widetable.ToBoardDaily(t.Melt(dates...))

	if err := utils.CheckOutputDir(filepath.Dir(output)); err != nil {
		return err
	}

	switch format {
	case "csv":
		w, err := utils.NewCSVWriterBOM[model.BoardDaily](output)
		if err != nil {
			return err
		}
		if err := w.Write(recs); err != nil {
			w.Close()
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
	case "parquet":
		w, err := utils.NewParquetWriter[model.BoardDaily](output)
		if err != nil {
			return err
		}
		if err := w.Write(recs); err != nil {
			w.Abort()
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported export format %q, want csv or parquet", format)
	}

	log.Info().Str("path", output).Int("rows", len(recs)).Str("from", dates[0]).Msg("✅ 导出完成")
	return nil
}
