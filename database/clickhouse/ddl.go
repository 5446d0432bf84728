package clickhouse

import (
	"fmt"
	"strings"

	"github.com/jing2uo/bkboard/model"
)

// mapType 针对 ClickHouse 进行类型优化
func (d *ClickHouseDriver) mapType(col model.Column) string {
	lower := strings.ToLower(col.Name)
	isKey := lower == "code" || lower == "name"

	var t string
	switch col.Type {
	case model.TypeString:
		if isKey {
			return "LowCardinality(String)"
		}
		t = "String"
	case model.TypeFloat64:
		t = "Float64"
	case model.TypeInt64:
		t = "Int64"
	case model.TypeDate:
		return "Date32" // Date32 范围比 Date 更大 (1900-2299)
	case model.TypeDateTime:
		return "DateTime64(0, 'Asia/Shanghai')"
	default:
		t = "String"
	}
	if col.Nullable {
		return "Nullable(" + t + ")"
	}
	return t
}

func (d *ClickHouseDriver) createTableInternal(meta *model.TableMeta) error {
	var colDefs []string
	for _, col := range meta.Columns {
		colDefs = append(colDefs, fmt.Sprintf("%s %s", col.Name, d.mapType(col)))
	}

	// MergeTree 必须有排序键
	orderBy := "tuple()"
	if len(meta.OrderByKey) > 0 {
		orderBy = "(" + strings.Join(meta.OrderByKey, ", ") + ")"
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			%s
		) ENGINE = MergeTree()
		ORDER BY %s
	`, meta.TableName, strings.Join(colDefs, ", "), orderBy)

	_, err := d.db.Exec(query)
	return err
}

func (d *ClickHouseDriver) registerViews() {
	d.viewImpls[model.ViewBoardLatest] = func() error {
		query := fmt.Sprintf(`
			CREATE OR REPLACE VIEW %s AS
			SELECT *
			FROM %s
			ORDER BY date DESC
			LIMIT 1 BY code
		`, model.ViewBoardLatest, model.TableBoardDaily.TableName)
		_, err := d.db.Exec(query)
		return err
	}

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
