package batch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r *Reader) []Record {
	t.Helper()
	var out []Record
	for {
		rec, ok := r.Next()
		if !ok {
			break
		}
		out = append(out, rec)
	}
	require.NoError(t, r.Err())
	return out
}

func TestReader_NumbersLines(t *testing.T) {
	recs := readAll(t, NewReader(strings.NewReader("alice; sudo\n\n# c\ncarol;")))
	require.Len(t, recs, 4)
	assert.Equal(t, Record{Line: 1, Text: "alice; sudo"}, recs[0])
	assert.Equal(t, Record{Line: 2, Text: ""}, recs[1])
	assert.Equal(t, Record{Line: 4, Text: "carol;"}, recs[3])
}

func TestReader_StripsUTF8BOM(t *testing.T) {
	recs := readAll(t, NewReader(strings.NewReader("\xEF\xBB\xBFalice; dev\n")))
	require.Len(t, recs, 1)
	assert.Equal(t, "alice; dev", recs[0].Text)
}

func TestReader_DecodesUTF16(t *testing.T) {
	// "bob;x\n" as UTF-16LE with BOM.
	in := []byte{0xFF, 0xFE, 'b', 0, 'o', 0, 'b', 0, ';', 0, 'x', 0, '\n', 0}
	recs := readAll(t, NewReader(strings.NewReader(string(in))))
	require.Len(t, recs, 1)
	assert.Equal(t, "bob;x", recs[0].Text)
}

func TestReader_Empty(t *testing.T) {
	assert.Empty(t, readAll(t, NewReader(strings.NewReader(""))))
}

func TestReader_OversizedLineKeepsGoing(t *testing.T) {
	long := strings.Repeat("x", MaxLineBytes+10)
	in := "alice;\r\n" + long + "\nbob; dev\ncarol;"
	recs := readAll(t, NewReader(strings.NewReader(in)))
	require.Len(t, recs, 4)
	assert.Equal(t, Record{Line: 1, Text: "alice;"}, recs[0])
	assert.Equal(t, Record{Line: 2, TooLong: true}, recs[1])
	assert.Equal(t, Record{Line: 3, Text: "bob; dev"}, recs[2])
	assert.Equal(t, Record{Line: 4, Text: "carol;"}, recs[3])
}
