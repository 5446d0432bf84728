package cmd

import (
	"context"
	"fmt"

	"github.com/jing2uo/bkboard/config"
	"github.com/jing2uo/bkboard/workflow"
)

// Sync 不抓取, 只把现有宽表同步到数据库
func Sync(ctx context.Context, cfg *config.Config) error {
	if cfg.DB == "" {
		return fmt.Errorf("--db or %s is required", config.EnvDB)
	}
	t, err := loadTable(cfg.Output)
	if err != nil {
		return err
	}
	db, err := openDB(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = workflow.SyncToDB(ctx, db, t, TempDir)
	return err
}
