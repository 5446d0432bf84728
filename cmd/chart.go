package cmd

import (
	"context"

	"github.com/jing2uo/bkboard/config"
	"github.com/jing2uo/bkboard/render"
	"github.com/rs/zerolog/log"
)

func Chart(ctx context.Context, cfg *config.Config) error {
	t, err := loadTable(cfg.Output)
	if err != nil {
		return err
	}
	paths, err := render.Charts(ctx, t, cfg.Chart)
	if err != nil {
		return err
	}
	log.Info().Int("pages", len(paths)).Str("dir", cfg.Chart.Dir).Msg("✅ 图表生成完成")
	return nil
}
