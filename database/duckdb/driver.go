package duckdb

import (
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jing2uo/bkboard/model"
	"github.com/jmoiron/sqlx"
)

type DuckDBDriver struct {
	dsn       string
	db        *sqlx.DB
	viewImpls map[model.ViewID]func() error
}

func NewDriver(cfg model.DBConfig) *DuckDBDriver {
	return &DuckDBDriver{dsn: cfg.DSN, viewImpls: make(map[model.ViewID]func() error)}
}

func (d *DuckDBDriver) Connect() error {
	if dir := filepath.Dir(d.dsn); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	db, err := sqlx.Open("duckdb", d.dsn)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("duckdb ping failed: %w", err)
	}

	d.db = db
	return nil
}

func (d *DuckDBDriver) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

func (d *DuckDBDriver) InitSchema() error {
	// 1. 建表
	for _, t := range model.AllTables() {
		if err := d.createTableInternal(t); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.TableName, err)
		}
	}

	// 2. 创建视图, 每个已定义的视图都必须有实现
	d.registerViews()
	for _, viewID := range model.AllViews() {
		implFunc, exists := d.viewImpls[viewID]
		if !exists {
			return fmt.Errorf("[DuckDB] Missing implementation for required view: %s", viewID)
		}
		if err := implFunc(); err != nil {
			return fmt.Errorf("failed to create view %s: %w", viewID, err)
		}
	}

	return nil
}
