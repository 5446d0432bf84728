package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/jing2uo/bkboard/config"
	"github.com/jing2uo/bkboard/database"
	"github.com/jing2uo/bkboard/eastmoney"
	"github.com/jing2uo/bkboard/utils"
	"github.com/jing2uo/bkboard/widetable"
)

var TempDir, _ = utils.GetCacheDir()

var ErrEmptySnapshot = errors.New("snapshot returned no board")

// GetToday 本地日期的零点, 时区统一为 UTC 与 K 线日期对齐
func GetToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func NewClient(cfg *config.Config) *eastmoney.Client {
	opts := eastmoney.DefaultOptions()
	opts.Timeout = cfg.HTTP.Timeout
	opts.Retries = cfg.HTTP.Retries
	opts.BackoffBase = cfg.HTTP.Backoff
	opts.Verbose = cfg.HTTP.Verbose
	return eastmoney.NewClient(opts)
}

func openDB(uri string) (database.DataRepository, error) {
	db, err := database.NewDB(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}
	if err := db.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.InitSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

func loadTable(path string) (*widetable.Table, error) {
	if err := utils.CheckFile(path); err != nil {
		return nil, err
	}
	t, err := widetable.Read(path)
	if err != nil {
		return nil, err
	}
	if t.Empty() {
		return nil, fmt.Errorf("wide table %s is empty, run fetch first", path)
	}
	return t, nil
}
