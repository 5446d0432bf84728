package database

import (
	"fmt"
	"net/url"

	"github.com/jing2uo/bkboard/database/clickhouse"
	"github.com/jing2uo/bkboard/database/duckdb"
	"github.com/jing2uo/bkboard/model"
)

func NewDatabase(cfg model.DBConfig) (DataRepository, error) {
	switch cfg.Type {
	case model.DBTypeDuckDB:
		return duckdb.NewDriver(cfg), nil
	case model.DBTypeClickHouse:
		u, err := url.Parse(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("invalid clickhouse dsn: %w", err)
		}
		return clickhouse.NewClickHouseDriver(u)
	default:
		return nil, fmt.Errorf("unsupported db type: %s", cfg.Type)
	}
}

// NewDB 按 URI scheme 选择驱动: duckdb://path 或 clickhouse://...
func NewDB(uri string) (DataRepository, error) {
	cfg, err := model.ParseDBURI(uri)
	if err != nil {
		return nil, err
	}
	return NewDatabase(cfg)
}
