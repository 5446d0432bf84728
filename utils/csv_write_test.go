package utils

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRow struct {
	Date  time.Time `col:"date" type:"date"`
	Code  string    `col:"code"`
	Rank  int64     `col:"rank" null:"zero"`
	Pct   float64   `col:"pct"`
	Extra string
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	w, err := NewCSVWriter[sampleRow](path)
	require.NoError(t, err)

	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, w.Write([]sampleRow{
		{Date: d, Code: "BK1", Rank: 3, Pct: 1.25, Extra: "x"},
		{Date: d, Code: "BK2", Rank: 0, Pct: math.NaN()},
	}))
	require.NoError(t, w.Write(nil))
	require.NoError(t, w.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "date,code,rank,pct,Extra\n2024-01-02,BK1,3,1.25,x\n2024-01-02,BK2,,,\n", string(raw))
}

func TestCSVWriterBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.csv")
	w, err := NewCSVWriterBOM[sampleRow](path)
	require.NoError(t, err)
	require.NoError(t, w.Write([]sampleRow{{Code: "BK1", Rank: 1, Pct: 2}}))
	require.NoError(t, w.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, raw[:3])
	assert.Contains(t, string(raw), "\n,BK1,1,2,\n")
}
