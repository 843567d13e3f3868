package fasta_test

import (
	"strings"
	"testing"

	"github.com/grailbio/fbcount/encoding/fasta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatures(t *testing.T) {
	data := ">FB001\nACGTACGT\n>FB002\nTTGGCCAA\n"
	f, err := fasta.New(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, []string{"FB001", "FB002"}, f.Labels())

	label, ok := f.Label("ACGTACGT")
	assert.True(t, ok)
	assert.Equal(t, "FB001", label)
	label, ok = f.Label("TTGGCCAA")
	assert.True(t, ok)
	assert.Equal(t, "FB002", label)
	_, ok = f.Label("AAAAAAAA")
	assert.False(t, ok)
}

func TestFeaturesMalformed(t *testing.T) {
	_, err := fasta.New(strings.NewReader("ACGT\n>FB001\n"))
	assert.Error(t, err)
}

func TestFeaturesEmpty(t *testing.T) {
	f, err := fasta.New(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, f.Len())
}

func TestReadInfo(t *testing.T) {
	data := "C01\tACGTACGT\tCD3\nC02\tTTGGCCAA\tCD19\n"
	records, err := fasta.ReadInfo(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []fasta.InfoRecord{
		{Code: "C01", Seq: "ACGTACGT", Info: "CD3"},
		{Code: "C02", Seq: "TTGGCCAA", Info: "CD19"},
	}, records)
}

func TestReadInfoMalformed(t *testing.T) {
	_, err := fasta.ReadInfo(strings.NewReader("C01\tACGT\n"))
	assert.Error(t, err)
}
