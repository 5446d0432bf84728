package duckdb

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jing2uo/bkboard/model"
)

// 查询时把 NULL 还原成模型里的缺失值约定
const boardDailySelect = `date, code, name,
	COALESCE(rank, 0) AS rank,
	COALESCE(pct, 'NaN'::DOUBLE) AS pct,
	COALESCE(value, 'NaN'::DOUBLE) AS value`

func (d *DuckDBDriver) importCSV(meta *model.TableMeta, csvPath string) error {
	var colMaps []string
	for _, col := range meta.Columns {
		duckType := d.mapType(col.Type)
		colMaps = append(colMaps, fmt.Sprintf("'%s': '%s'", col.Name, duckType))
	}

	columnsStr := strings.Join(colMaps, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s
		SELECT * FROM read_csv('%s',
			header=true,
			columns={%s},
			dateformat='%%Y-%%m-%%d'
		)
	`, meta.TableName, escapeLiteral(csvPath), columnsStr)

	_, err := d.db.Exec(query)
	return err
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func (d *DuckDBDriver) ImportBoardDaily(path string) error {
	if err := d.importCSV(model.TableBoardDaily, path); err != nil {
		return fmt.Errorf("duckdb import %s failed: %w", model.TableBoardDaily.TableName, err)
	}
	return nil
}

// DeleteSince 删除 since 当天及之后的数据, since 为零值时清空整表
func (d *DuckDBDriver) DeleteSince(meta *model.TableMeta, dateCol string, since time.Time) error {
	query := fmt.Sprintf("DELETE FROM %s", meta.TableName)
	var args []interface{}
	if !since.IsZero() {
		query += fmt.Sprintf(" WHERE %s >= ?", dateCol)
		args = append(args, since.Format(model.DateLayout))
	}

	if _, err := d.db.Exec(query, args...); err != nil {
		return fmt.Errorf("duckdb delete failed: %w", err)
	}
	return nil
}

func (d *DuckDBDriver) GetLatestDate(tableName string, dateCol string) (time.Time, error) {
	query := fmt.Sprintf("SELECT DATE(max(%s)) AS latest FROM %s", dateCol, tableName)

	var latest sql.NullTime
	err := d.db.Get(&latest, query)
	if err != nil {
		return time.Time{}, err
	}

	if !latest.Valid {
		return time.Time{}, nil
	}

	return latest.Time, nil
}

func (d *DuckDBDriver) QueryBoardHistory(code string, startDate, endDate *time.Time) ([]model.BoardDaily, error) {
	conditions := []string{"code = ?"}
	args := []interface{}{code}

	if startDate != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, *startDate)
	}
	if endDate != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, *endDate)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE %s ORDER BY date ASC`,
		boardDailySelect,
		model.TableBoardDaily.TableName,
		strings.Join(conditions, " AND "),
	)

	var results []model.BoardDaily
	if err := d.db.Select(&results, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query board %s: %w", code, err)
	}

	return results, nil
}

func (d *DuckDBDriver) QueryLatest() ([]model.BoardDaily, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %s ORDER BY CASE WHEN rank > 0 THEN rank ELSE 1000000 END, code`,
		boardDailySelect, model.ViewBoardLatest,
	)

	var results []model.BoardDaily
	if err := d.db.Select(&results, query); err != nil {
		return nil, fmt.Errorf("failed to query latest boards: %w", err)
	}
	return results, nil
}
