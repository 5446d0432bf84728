package widetable

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jing2uo/bkboard/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, _ := time.Parse(model.DateLayout, s)
	return d
}

func TestDecodeWithAndWithoutBOM(t *testing.T) {
	body := "row_key,2024-01-03,2024-01-02\nBK1|酿酒,1|2.00|10,2|1.00|9\nBK2|银行,,1|3.00|5\n"

	for _, raw := range []string{body, "\ufeff" + body} {
		tb, err := Decode(strings.NewReader(raw))
		require.NoError(t, err)
		assert.Equal(t, []string{"BK1|酿酒", "BK2|银行"}, tb.Keys())
		assert.Equal(t, []string{"2024-01-02", "2024-01-03"}, tb.Dates())
		assert.Equal(t, "1|3.00|5", tb.Get("BK2|银行", "2024-01-02"))
		assert.Equal(t, "", tb.Get("BK2|银行", "2024-01-03"))
	}
}

func TestDecodeTradeDateHeader(t *testing.T) {
	tb, err := Decode(strings.NewReader("trade_date,2024-01-02\nBK1|A,1|1.00|1\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"BK1|A"}, tb.Keys())
	assert.False(t, tb.Empty())
}

func TestDecodeEmpty(t *testing.T) {
	tb, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.True(t, tb.Empty())

	tb, err = Decode(strings.NewReader("\ufeffrow_key\n"))
	require.NoError(t, err)
	assert.True(t, tb.Empty())
}

func TestEncodeSortsDatesAndKeepsOthers(t *testing.T) {
	tb := New()
	tb.Set("BK2|B", "2024-01-05", "1|1.00|1")
	tb.Set("BK2|B", "note", "x")
	tb.Set("BK1|A", "2024-01-02", "2|0.50|2")

	var buf bytes.Buffer
	require.NoError(t, tb.Encode(&buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\ufeffrow_key,2024-01-02,2024-01-05,note\n"))
	assert.Contains(t, out, "BK2|B,,1|1.00|1,x\n")
	assert.Contains(t, out, "BK1|A,2|0.50|2,,\n")
}

func TestWriteAtomicAndReadBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "data.csv")

	tb := New()
	tb.Set("BK1|A", "2024-01-02", "1|1.00|1")
	require.NoError(t, tb.Write(path))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be renamed away")

	back, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "1|1.00|1", back.Get("BK1|A", "2024-01-02"))
}

func TestKeepLast(t *testing.T) {
	tb := New()
	for _, d := range []string{"2024-01-04", "2024-01-02", "2024-01-03", "2024-01-05"} {
		tb.Set("BK1|A", d, "1|1.00|1")
	}
	tb.Set("BK1|A", "memo", "m")

	removed := tb.KeepLast(2)
	assert.Equal(t, []string{"2024-01-02", "2024-01-03"}, removed)
	assert.Equal(t, []string{"2024-01-04", "2024-01-05", "memo"}, tb.Columns())
	assert.Nil(t, tb.KeepLast(5))
	assert.Equal(t, []string{"2024-01-05"}, tb.LastDates(1))
}

func TestEnsureRowsUnion(t *testing.T) {
	tb := New()
	tb.AddRow("BK1|A")
	added := tb.EnsureRows([]string{"BK3|C", "BK1|A", "BK2|B"})
	assert.Equal(t, []string{"BK3|C", "BK2|B"}, added)
	assert.Equal(t, []string{"BK1|A", "BK3|C", "BK2|B"}, tb.Keys())
}

func TestMelt(t *testing.T) {
	tb := New()
	tb.Set("BK1|酿酒", "2024-01-02", "1|2.00|10|1.5|3|4|X")
	tb.Set("BK2|银行", "2024-01-02", "2|1.00|9")
	tb.Set("BK2|银行", "2024-01-03", "||")
	tb.AddColumn("memo")

	recs := tb.Melt()
	require.Len(t, recs, 2)
	assert.Equal(t, day("2024-01-02"), recs[0].Date)
	assert.Equal(t, "酿酒", recs[0].Board.Name)
	assert.Equal(t, 1, recs[0].Rank)
	assert.InDelta(t, 10, recs[0].Value, 1e-9)

	rows := ToBoardDaily(recs)
	assert.Equal(t, "BK2", rows[1].Code)
	assert.Equal(t, int64(2), rows[1].Rank)
}
