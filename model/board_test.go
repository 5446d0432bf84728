package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFS(t *testing.T) {
	fs, err := ResolveFS("concept")
	require.NoError(t, err)
	assert.Equal(t, "m:90+t:3", fs)

	fs, err = ResolveFS("Industry")
	require.NoError(t, err)
	assert.Equal(t, "m:90+t:2", fs)

	fs, err = ResolveFS("m:90+t:1+f:!50")
	require.NoError(t, err)
	assert.Equal(t, "m:90+t:1+f:!50", fs)

	_, err = ResolveFS("sector")
	assert.Error(t, err)
}

func TestRowKeyRoundTrip(t *testing.T) {
	b := Board{Code: "BK0477", Name: "酿酒行业"}
	assert.Equal(t, "BK0477|酿酒行业", b.RowKey())
	assert.Equal(t, b, SplitRowKey(b.RowKey()))

	// 名称里带 | 时只按第一个切分
	assert.Equal(t, Board{Code: "BK1", Name: "A|B"}, SplitRowKey("BK1|A|B"))
	assert.Equal(t, Board{Code: "BK9", Name: "BK9"}, SplitRowKey("BK9"))
}

func TestParseDBURI(t *testing.T) {
	cfg, err := ParseDBURI("duckdb:///data/bk.duckdb")
	require.NoError(t, err)
	assert.Equal(t, DBTypeDuckDB, cfg.Type)
	assert.Equal(t, "/data/bk.duckdb", cfg.DSN)

	cfg, err = ParseDBURI("clickhouse://default:@127.0.0.1:9000/bk")
	require.NoError(t, err)
	assert.Equal(t, DBTypeClickHouse, cfg.Type)

	_, err = ParseDBURI("sqlite://x.db")
	assert.Error(t, err)
	_, err = ParseDBURI("bk.duckdb")
	assert.Error(t, err)
}

func TestBoardDailySchema(t *testing.T) {
	names := make([]string, 0, len(TableBoardDaily.Columns))
	for _, c := range TableBoardDaily.Columns {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"date", "code", "name", "rank", "pct", "value"}, names)
	assert.Equal(t, TypeDate, TableBoardDaily.Columns[0].Type)
	assert.Equal(t, TypeInt64, TableBoardDaily.Columns[3].Type)
	assert.Contains(t, AllTables(), TableBoardDaily)
}
