package saturation

import (
	"bytes"
	"strings"
	"testing"

	"github.com/grailbio/fbcount/umi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatios(t *testing.T) {
	require.Len(t, Ratios, 36)
	assert.Equal(t, 0.0001, Ratios[0])
	assert.Equal(t, 0.0009, Ratios[8])
	assert.Equal(t, 0.001, Ratios[9])
	assert.Equal(t, 0.9, Ratios[35])
}

func TestPool(t *testing.T) {
	tbl := umi.Table{
		"B_F": {"U1": 10, "U2": 1},
	}
	p := NewPool(tbl)
	assert.Equal(t, 11, p.Size())

	// The full draw reproduces the table.
	assert.Equal(t, tbl, p.SampleTable(1.0))

	row := statsFromCounts(1, p.sampleCounts(1.0))
	assert.Equal(t, 2, row.UMITypes)
	assert.Equal(t, 11, row.UMIReads)
	assert.Equal(t, 50.00, row.Saturation)
	assert.Equal(t, 81.82, row.Duplication)

	// ratio 0.1 of 11 reads draws a single read: one singleton.
	row = statsFromCounts(0.1, p.sampleCounts(0.1))
	assert.Equal(t, 1, row.UMITypes)
	assert.Equal(t, 1, row.UMIReads)
	assert.Equal(t, 0.0, row.Saturation)
	assert.Equal(t, 0.0, row.Duplication)
}

func TestGrid(t *testing.T) {
	p := NewPool(umi.Table{"B_F": {"U1": 10, "U2": 1}})
	rows := p.Grid()
	require.Len(t, rows, 38)
	assert.Equal(t, Row{}, rows[0])
	assert.Equal(t, 1.0, rows[37].Ratio)
	assert.Equal(t, 50.00, rows[37].Saturation)

	// An empty pool still yields the full grid of zero rows.
	rows = NewPool(umi.Table{}).Grid()
	require.Len(t, rows, 38)
	for _, row := range rows[1:] {
		assert.Equal(t, 0, row.UMITypes)
		assert.Equal(t, 0.0, row.Saturation)
	}
}

func TestGridDeterminism(t *testing.T) {
	tbl := umi.Table{}
	for _, bc := range []string{"AAAA_CCCC", "AAAA_GGGG", "TTTT_CCCC"} {
		tbl[bc] = map[string]int{
			"ACGTAC": 40, "ACGTAG": 4, "TTGGCC": 17, "GGGGGG": 1, "CATCAT": 2,
		}
	}
	p := NewPool(tbl)
	a, b := bytes.Buffer{}, bytes.Buffer{}
	require.NoError(t, Write(&a, p.Grid()))
	require.NoError(t, Write(&b, NewPool(tbl).Grid()))
	assert.Equal(t, a.String(), b.String())
}

// On a pool dominated by duplicates, saturation at the full ratio is
// at least the saturation at a tenth of the reads.
func TestSaturationMonotonic(t *testing.T) {
	tbl := umi.Table{"B_F": {}}
	for i := 0; i < 26; i++ {
		for j := 0; j < 26; j++ {
			u := string([]byte{'A' + byte(i), 'A' + byte(j), 'C'})
			tbl["B_F"][u] = 1 + (i+j)%7
		}
	}
	p := NewPool(tbl)
	full := statsFromCounts(1, p.sampleCounts(1.0))
	tenth := statsFromCounts(0.1, p.sampleCounts(0.1))
	assert.True(t, full.Saturation >= tenth.Saturation,
		"full %.2f < tenth %.2f", full.Saturation, tenth.Saturation)
}

func TestOptimal(t *testing.T) {
	rows := []Row{
		{Ratio: 0, Saturation: 0},
		{Ratio: 0.1, Saturation: 42.0},
		{Ratio: 0.5, Saturation: 50.0},
		{Ratio: 0.9, Saturation: 50.0},
		{Ratio: 1.0, Saturation: 49.0},
	}
	// First maximum wins on ties.
	assert.Equal(t, 2, Optimal(rows))
	assert.Equal(t, 0, Optimal([]Row{{}}))
}

func TestTSVRoundTrip(t *testing.T) {
	p := NewPool(umi.Table{"B_F": {"U1": 10, "U2": 1}})
	rows := p.Grid()
	buf := bytes.Buffer{}
	require.NoError(t, Write(&buf, rows))

	assert.True(t, strings.HasPrefix(buf.String(),
		"Downsample Ratio\tSequencing Saturation\tUMI Types\tUMI Counts\tDuplication Ratio\n0\t0.00\t0\t0\t0.00\n"))

	got, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}
