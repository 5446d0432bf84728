package model

import (
	"reflect"
	"strings"
	"sync"
	"time"
)

type DataType int

const (
	TypeString DataType = iota
	TypeFloat64
	TypeInt64
	TypeDate     // YYYY-MM-DD
	TypeDateTime // YYYY-MM-DD HH:MM:SS
)

type Column struct {
	Name     string
	Type     DataType
	Nullable bool
}

type TableMeta struct {
	TableName  string
	Columns    []Column
	OrderByKey []string
}

var (
	tableRegistry   []*TableMeta
	tableRegistryMu sync.Mutex
)

func registerTable(t *TableMeta) {
	tableRegistryMu.Lock()
	defer tableRegistryMu.Unlock()
	tableRegistry = append(tableRegistry, t)
}

// AllTables 返回当前所有已注册的表结构
func AllTables() []*TableMeta {
	tableRegistryMu.Lock()
	defer tableRegistryMu.Unlock()

	result := make([]*TableMeta, len(tableRegistry))
	copy(result, tableRegistry)
	return result
}

// SchemaFromStruct 通过反射生成 TableMeta 并自动注册
// 返回值为指针类型 *TableMeta
func SchemaFromStruct(tableName string, model interface{}, orderByKey []string) *TableMeta {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	var cols []Column

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		// 1. 获取列名
		colName := field.Tag.Get("col")
		if colName == "" {
			colName = strings.ToLower(field.Name)
		}

		// 2. 推断类型 (保持原有逻辑)
		var dType DataType
		customType := field.Tag.Get("type")
		switch {
		case customType == "date":
			dType = TypeDate
		case customType == "datetime":
			dType = TypeDateTime
		default:
			switch field.Type.Kind() {
			case reflect.String:
				dType = TypeString
			case reflect.Float64, reflect.Float32:
				dType = TypeFloat64
			case reflect.Int, reflect.Int64, reflect.Int32, reflect.Uint32:
				dType = TypeInt64
			case reflect.Struct:
				if field.Type == reflect.TypeOf(time.Time{}) {
					dType = TypeDateTime
				}
			default:
				dType = TypeString
			}
		}

		// 浮点与标记了 null 的列允许为空
		nullable := field.Tag.Get("null") != "" || dType == TypeFloat64

		cols = append(cols, Column{Name: colName, Type: dType, Nullable: nullable})
	}

	meta := &TableMeta{
		TableName:  tableName,
		Columns:    cols,
		OrderByKey: orderByKey,
	}

	// === 核心改动：自动注册 ===
	registerTable(meta)

	return meta
}

// --- 结构体定义 (Schema) ---

// BoardDaily 宽表展开后的长格式记录, rank 为 0 与 pct/value 为 NaN 表示缺失
type BoardDaily struct {
	Date  time.Time `col:"date"  parquet:"date"        type:"date"`
	Code  string    `col:"code"  parquet:"code,dict"`
	Name  string    `col:"name"  parquet:"name,dict"`
	Rank  int64     `col:"rank"  parquet:"rank"        null:"zero"`
	Pct   float64   `col:"pct"   parquet:"pct"`
	Value float64   `col:"value" parquet:"value"`
}

// --- 表结构元数据 (TableMeta) ---

var TableBoardDaily = SchemaFromStruct(
	"board_daily",
	BoardDaily{},
	[]string{"code", "date"},
)
