package duckdb

import (
	"testing"

	"github.com/jing2uo/bkboard/model"
	"github.com/stretchr/testify/assert"
)

func TestMapType(t *testing.T) {
	d := NewDriver(model.DBConfig{Type: model.DBTypeDuckDB, DSN: "bk.duckdb"})
	assert.Equal(t, "DATE", d.mapType(model.TypeDate))
	assert.Equal(t, "BIGINT", d.mapType(model.TypeInt64))
	assert.Equal(t, "DOUBLE", d.mapType(model.TypeFloat64))
	assert.Equal(t, "VARCHAR", d.mapType(model.TypeString))
}

func TestEscapeLiteral(t *testing.T) {
	assert.Equal(t, "/tmp/it''s.csv", escapeLiteral("/tmp/it's.csv"))
}
