package summary

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/fbcount/encoding/fasta"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const downsampleTSV = `Downsample Ratio	Sequencing Saturation	UMI Types	UMI Counts	Duplication Ratio
0	0.00	0	0	0.00
0.1	10.00	4	5	20.00
1	50.00	2	11	81.82
`

func writeSampleTree(t *testing.T, root, sample string) {
	logs := filepath.Join(root, sample, logsDir)
	counts := filepath.Join(root, sample, countsDir)
	require.NoError(t, os.MkdirAll(logs, 0755))
	require.NoError(t, os.MkdirAll(counts, 0755))

	info := `{"total_reads": 100, "barcode_valid_percent": 98.75}`
	require.NoError(t, ioutil.WriteFile(
		filepath.Join(logs, sample+"_bc1.barcode.info"), []byte(info), 0644))
	info = `{"total_reads": 100, "barcode_valid_percent": 95.5}`
	require.NoError(t, ioutil.WriteFile(
		filepath.Join(logs, sample+"_fb.barcode.info"), []byte(info), 0644))

	require.NoError(t, ioutil.WriteFile(
		filepath.Join(counts, sample+"_Downsample.tsv"), []byte(downsampleTSV), 0644))

	countMap := "AAAA+TTTT\tFB1\t3\nAAAA+CCCC\tFB1\t2\nTTTT+CCCC\tFB2\t4\n"
	require.NoError(t, ioutil.WriteFile(
		filepath.Join(counts, sample+"_per_bc_umi_count_after_downsample.map"), []byte(countMap), 0644))
}

func TestCollect(t *testing.T) {
	ctx := vcontext.Background()
	root, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	writeSampleTree(t, root, "s1")

	infoByCode := InfoLabels([]fasta.InfoRecord{
		{Code: "FB1", Seq: "CCCC", Info: "CD3"},
		{Code: "FB2", Seq: "GGGG", Info: "CD19"},
	})
	s, err := Collect(ctx, root, "s1", []string{"bc1", "fb"}, infoByCode)
	require.NoError(t, err)
	assert.Equal(t, "s1", s.Name)
	assert.Equal(t, map[string]float64{"bc1": 98.75, "fb": 95.5}, s.Valid)
	// Optimal grid row is the 50.00 saturation row.
	assert.Equal(t, 11, s.UMICounts)
	assert.Equal(t, 50.00, s.Saturation)
	assert.Equal(t, map[string]int{"CD3": 5, "CD19": 4}, s.Features)
}

func TestCollectMissingGrid(t *testing.T) {
	ctx := vcontext.Background()
	root, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	logs := filepath.Join(root, "s2", logsDir)
	require.NoError(t, os.MkdirAll(logs, 0755))
	require.NoError(t, ioutil.WriteFile(
		filepath.Join(logs, "s2_bc1.barcode.info"),
		[]byte(`{"barcode_valid_percent": 90}`), 0644))

	s, err := Collect(ctx, root, "s2", []string{"bc1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.UMICounts)
	assert.Equal(t, 0.0, s.Saturation)
	assert.Empty(t, s.Features)
}

func TestWrite(t *testing.T) {
	ctx := vcontext.Background()
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	samples := []Sample{
		{
			Name:       "s2",
			Valid:      map[string]float64{"bc1": 90},
			UMICounts:  7,
			Saturation: 25,
			Features:   map[string]int{"CD3": 7},
		},
		{
			Name:       "s1",
			Valid:      map[string]float64{"bc1": 98.75},
			UMICounts:  11,
			Saturation: 50,
			Features:   map[string]int{"CD3": 5, "CD19": 4},
		},
	}
	require.NoError(t, Write(ctx, dir, samples, []string{"bc1"}))

	read := func(name string) string {
		data, err := ioutil.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		return string(data)
	}
	assert.Equal(t, "sample\tbc1\ns1\t98.75\ns2\t90.00\n", read("summary_validation.tsv"))
	assert.Equal(t, "sample\tUMI Counts\ns1\t11\ns2\t7\n", read("summary_counts.tsv"))
	assert.Equal(t, "sample\tSequencing Saturation\ns1\t50.00\ns2\t25.00\n", read("summary_saturation.tsv"))
	assert.Equal(t, "feature\ts1\ts2\nCD19\t4\t0\nCD3\t5\t7\n", read("summary_features.tsv"))
}
