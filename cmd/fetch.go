package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jing2uo/bkboard/config"
	"github.com/jing2uo/bkboard/database"
	"github.com/jing2uo/bkboard/model"
	"github.com/jing2uo/bkboard/widetable"
	"github.com/jing2uo/bkboard/workflow"
	"github.com/rs/zerolog/log"
)

// Fetch 构建基线或补丁今日列, 可选同步到数据库.
// date 为空时自动判断最近交易日
func Fetch(ctx context.Context, cfg *config.Config, date string) error {
	start := time.Now()

	format, err := widetable.ParseFormat(cfg.CellFormat)
	if err != nil {
		return err
	}
	fs, err := model.ResolveFS(cfg.Kind)
	if err != nil {
		return err
	}

	args := &workflow.TaskArgs{
		Config:  cfg,
		Client:  NewClient(cfg),
		FS:      fs,
		Format:  format,
		Today:   GetToday(),
		TempDir: TempDir,
		State:   &workflow.FetchState{},
	}
	if date != "" {
		d, err := time.Parse(model.DateLayout, date)
		if err != nil {
			return fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", date, err)
		}
		args.Date = d
	}

	var db database.DataRepository
	if cfg.DB != "" {
		conn, err := openDB(cfg.DB)
		if err != nil {
			return err
		}
		defer conn.Close()
		db = conn
	}

	log.Info().Str("kind", cfg.Kind).Str("fs", fs).Str("output", cfg.Output).Str("mode", cfg.TodayMode).Msg("🛠️  开始抓取板块数据")

	executor := workflow.NewTaskExecutor(db, workflow.GetRegisteredTasks())
	err = executor.Run(ctx, workflow.GetFetchTaskNames(), args)
	if errors.Is(err, context.Canceled) {
		log.Warn().Msg("⏹️ 已中断, 已抓取的部分已保存")
		return err
	}
	if err != nil {
		return fmt.Errorf("workflow execution failed: %w", err)
	}

	if n := len(args.State.Failed); n > 0 {
		log.Warn().Int("failed", n).Msg("⚠️ 部分板块未取到数据, 可稍后重跑补齐")
	}
	log.Info().Dur("took", time.Since(start)).Msg("🚀 抓取完成")
	return nil
}
