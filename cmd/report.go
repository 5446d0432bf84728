package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jing2uo/bkboard/config"
	"github.com/jing2uo/bkboard/model"
	"github.com/jing2uo/bkboard/render"
	"github.com/jing2uo/bkboard/report"
	"github.com/rs/zerolog/log"
)

// Report 抓取当日快照写入工作簿, 并生成对应的 HTML 表格
func Report(ctx context.Context, cfg *config.Config) error {
	fs, err := model.ResolveFS(cfg.Kind)
	if err != nil {
		return err
	}
	client := NewClient(cfg)

	date := GetToday()
	if d, err := client.LatestTradeDate(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Msg("⚠️ 获取最近交易日失败, 使用今天")
	} else {
		date = d
	}
	day := date.Format(model.DateLayout)

	quotes, err := client.Snapshot(ctx, fs)
	if err != nil {
		return err
	}
	if len(quotes) == 0 {
		return ErrEmptySnapshot
	}

	res, err := report.Daily(cfg.Report.Workbook, cfg.Report.Prefix, day, quotes, cfg.Report.TopK)
	if err != nil {
		return err
	}
	log.Info().Str("path", cfg.Report.Workbook).Str("date", day).Int("boards", res.Boards).Msg("📊 工作簿已更新")

	prefix := strings.ToLower(cfg.Report.Prefix)
	pages := []struct{ sheet, suffix string }{
		{res.TopBottom, "top"},
		{res.AllData, "rank"},
	}
	for _, p := range pages {
		rows, err := report.SheetRows(cfg.Report.Workbook, p.sheet)
		if err != nil {
			return fmt.Errorf("failed to read sheet %s: %w", p.sheet, err)
		}
		path := filepath.Join(cfg.Chart.Dir, fmt.Sprintf("bk_day_%s_%s.html", prefix, p.suffix))
		if err := render.WriteTable(path, p.sheet, rows); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("📄 HTML 表格已生成")
	}
	return nil
}

func Heatmap(cfg *config.Config, days int) error {
	t, err := loadTable(cfg.Output)
	if err != nil {
		return err
	}
	if err := report.Heatmap(cfg.Report.Heatmap, t, days); err != nil {
		return fmt.Errorf("failed to write heatmap: %w", err)
	}
	log.Info().Str("path", cfg.Report.Heatmap).Msg("✅ 热力图已生成")
	return nil
}
