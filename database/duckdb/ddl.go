package duckdb

import (
	"fmt"
	"strings"

	"github.com/jing2uo/bkboard/model"
)

// mapType 将通用 DataType 转换为 DuckDB 的 SQL 类型
func (d *DuckDBDriver) mapType(dt model.DataType) string {
	switch dt {
	case model.TypeString:
		return "VARCHAR"
	case model.TypeFloat64:
		return "DOUBLE"
	case model.TypeInt64:
		return "BIGINT"
	case model.TypeDate:
		return "DATE"
	case model.TypeDateTime:
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}

func (d *DuckDBDriver) createTableInternal(meta *model.TableMeta) error {
	var colDefs []string
	for _, col := range meta.Columns {
		sqlType := d.mapType(col.Type)
		colDefs = append(colDefs, fmt.Sprintf("%s %s", col.Name, sqlType))
	}

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		meta.TableName, strings.Join(colDefs, ", "))

	_, err := d.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", meta.TableName, err)
	}
	return nil
}

func (d *DuckDBDriver) registerViews() {
	// 1. 每个板块最新一天
	d.viewImpls[model.ViewBoardLatest] = func() error {
		query := fmt.Sprintf(`
			CREATE OR REPLACE VIEW %s AS
			SELECT *
			FROM %s
			QUALIFY row_number() OVER (PARTITION BY code ORDER BY date DESC) = 1
		`, model.ViewBoardLatest, model.TableBoardDaily.TableName)

		_, err := d.db.Exec(query)
		return err
	}

	// 2. 每日前 10
	d.viewImpls[model.ViewBoardTop10] = func() error {
		query := fmt.Sprintf(`
			CREATE OR REPLACE VIEW %s AS
			SELECT date, rank, code, name, pct, value
			FROM %s
			WHERE rank BETWEEN 1 AND 10
		`, model.ViewBoardTop10, model.TableBoardDaily.TableName)

		_, err := d.db.Exec(query)
		return err
	}
}
