package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jing2uo/bkboard/model"
)

// 列名带表别名, 避免 ifNull(rank) AS rank 被判为循环别名
const boardDailySelect = `t.date AS date, t.code AS code, t.name AS name,
	ifNull(t.rank, 0) AS rank,
	ifNull(t.pct, nan) AS pct,
	ifNull(t.value, nan) AS value`

func (d *ClickHouseDriver) importCSV(meta *model.TableMeta, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	query := fmt.Sprintf("INSERT INTO %s FORMAT CSVWithNames", meta.TableName)
	params := url.Values{"date_time_input_format": {"best_effort"}}
	if err := d.httpQuery(ctx, query, file, params); err != nil {
		return fmt.Errorf("clickhouse insert into %s.%s failed: %w", d.database, meta.TableName, err)
	}
	return nil
}

func (d *ClickHouseDriver) TruncateTable(meta *model.TableMeta) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	query := fmt.Sprintf("TRUNCATE TABLE IF EXISTS %s", meta.TableName)

	_, err := d.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("clickhouse truncate via tcp failed: %w", err)
	}

	return nil
}

func (d *ClickHouseDriver) ImportBoardDaily(path string) error {
	return d.importCSV(model.TableBoardDaily, path)
}

// DeleteSince 通过同步 mutation 删除 since 当天及之后的数据, since 为零值时清空整表
func (d *ClickHouseDriver) DeleteSince(meta *model.TableMeta, dateCol string, since time.Time) error {
	if since.IsZero() {
		return d.TruncateTable(meta)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	query := fmt.Sprintf(
		"ALTER TABLE %s DELETE WHERE %s >= toDate32(?) SETTINGS mutations_sync = 2",
		meta.TableName, dateCol,
	)
	if _, err := d.db.ExecContext(ctx, query, since.Format(model.DateLayout)); err != nil {
		return fmt.Errorf("clickhouse delete failed: %w", err)
	}
	return nil
}

func (d *ClickHouseDriver) GetLatestDate(tableName string, dateCol string) (time.Time, error) {
	query := fmt.Sprintf("SELECT toDate(maxOrNull(%s)) AS latest FROM %s", dateCol, tableName)
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

func (d *ClickHouseDriver) QueryBoardHistory(code string, startDate, endDate *time.Time) ([]model.BoardDaily, error) {
	conditions := []string{"t.code = ?"}
	args := []interface{}{code}

	if startDate != nil {
		conditions = append(conditions, "t.date >= ?")
		args = append(args, *startDate)
	}
	if endDate != nil {
		conditions = append(conditions, "t.date <= ?")
		args = append(args, *endDate)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM %s AS t WHERE %s ORDER BY date ASC`,
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

func (d *ClickHouseDriver) QueryLatest() ([]model.BoardDaily, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %s AS t ORDER BY rank = 0, rank, code`,
		boardDailySelect, model.ViewBoardLatest,
	)

	var results []model.BoardDaily
	if err := d.db.Select(&results, query); err != nil {
		return nil, fmt.Errorf("failed to query latest boards: %w", err)
	}
	return results, nil
}
