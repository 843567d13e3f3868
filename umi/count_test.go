package umi

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/fbcount/encoding/fasta"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalizedPair(reads [][2]string) (r1, r2 string) {
	b1, b2 := strings.Builder{}, strings.Builder{}
	for i, pair := range reads {
		name := "r" + string(rune('0'+i))
		b1.WriteString("@" + name + "\n" + pair[0] + "\n+\n" + strings.Repeat("G", len(pair[0])) + "\n")
		b2.WriteString("@" + name + "\n" + pair[1] + "\n+\n" + strings.Repeat("G", len(pair[1])) + "\n")
	}
	return b1.String(), b2.String()
}

func readFile(t *testing.T, path string) string {
	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestTabulate(t *testing.T) {
	// barcode1 length 4, UMI length 3.
	r1, r2 := normalizedPair([][2]string{
		{"AAAACAT", "CCCC"},
		{"AAAACAT", "CCCC"},
		{"AAAATGG", "CCCC"},
		{"AAAACAT", "GGGG"},
		{"TTTTCAT", "CCCC"},
	})
	total, tbl, err := Tabulate(strings.NewReader(r1), strings.NewReader(r2), 4, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, Table{
		"AAAA_CCCC": {"CAT": 2, "TGG": 1},
		"AAAA_GGGG": {"CAT": 1},
		"TTTT_CCCC": {"CAT": 1},
	}, tbl)
	assert.Equal(t, 5, tbl.Reads())
	assert.Equal(t, map[string]int{
		"AAAA_CCCC": 2, "AAAA_GGGG": 1, "TTTT_CCCC": 1,
	}, tbl.TypeCounts())
}

func TestTabulateShortRead(t *testing.T) {
	r1, r2 := normalizedPair([][2]string{{"AAAA", "CCCC"}})
	_, _, err := Tabulate(strings.NewReader(r1), strings.NewReader(r2), 4, 3)
	assert.Error(t, err)
}

func TestTableJSONRoundTrip(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	tbl := Table{
		"AAAA_CCCC": {"CAT": 2, "TGG": 1},
		"TTTT_CCCC": {"CAT": 7},
	}
	path := filepath.Join(tempDir, "sample_dic_A.json")
	require.NoError(t, tbl.WriteJSON(ctx, path))
	got, err := ReadJSON(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, tbl, got)
}

func TestRenderBarcode1(t *testing.T) {
	assert.Equal(t, "AAAA", RenderBarcode1("AAAA", []int{4}))
	assert.Equal(t, "AAAA+CCCC", RenderBarcode1("AAAACCCC", []int{4, 8}))
	assert.Equal(t, "AA+CC+GG", RenderBarcode1("AACCGG", []int{2, 4, 6}))
}

func TestWriteCountMap(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	features, err := fasta.New(strings.NewReader(">FB1\nCCCC\n>FB2\nGGGG\n"))
	require.NoError(t, err)
	typeCounts := map[string]int{
		"AAAATTTT_CCCC": 3,
		"AAAACCCC_GGGG": 1,
		"TTTTAAAA_CCCC": 2,
	}

	path := filepath.Join(tempDir, "counts.map")
	require.NoError(t, WriteCountMap(ctx, path, typeCounts, []int{4, 8}, features, false))
	data := readFile(t, path)
	assert.Equal(t,
		"AAAA+CCCC\tFB2\t1\n"+
			"TTTT+AAAA\tFB1\t2\n"+
			"AAAA+TTTT\tFB1\t3\n",
		data)

	require.NoError(t, WriteCountMap(ctx, path, typeCounts, []int{4, 8}, features, true))
	data = readFile(t, path)
	assert.Equal(t,
		"AAAA+TTTT\tFB1\t3\n"+
			"TTTT+AAAA\tFB1\t2\n"+
			"AAAA+CCCC\tFB2\t1\n",
		data)
}

func TestWriteCountMapUnknownFeature(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	features, err := fasta.New(strings.NewReader(">FB1\nCCCC\n"))
	require.NoError(t, err)
	err = WriteCountMap(ctx, filepath.Join(tempDir, "counts.map"),
		map[string]int{"AAAA_TTTT": 1}, []int{4}, features, false)
	assert.Error(t, err)
}
