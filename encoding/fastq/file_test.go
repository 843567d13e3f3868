package fastq

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter(t *testing.T) {
	buf := bytes.Buffer{}
	w := NewWriter(&buf)
	require.NoError(t, w.Write("r1", "ACGT", "IIII"))
	require.NoError(t, w.Write("r2", "TTTT", "####"))
	assert.Equal(t, "@r1\nACGT\n+\nIIII\n@r2\nTTTT\n+\n####\n", buf.String())
}

// Round trip a small FASTQ through a plain and a gzipped file.
func TestFileRoundTrip(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	for _, name := range []string{"reads.fq", "reads.fq.gz"} {
		path := filepath.Join(tempDir, name)
		out, err := Create(ctx, path)
		require.NoError(t, err)
		w := NewWriter(out)
		require.NoError(t, w.Write("r1", "ACGT", "IIII"))
		require.NoError(t, w.Write("r2", "TTTT", "####"))
		require.NoError(t, out.Close(ctx))

		if name == "reads.fq" {
			data, err := ioutil.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "@r1\nACGT\n+\nIIII\n@r2\nTTTT\n+\n####\n", string(data))
		}

		in, err := Open(ctx, path)
		require.NoError(t, err)
		sc := NewScanner(in)
		var r Read
		require.True(t, sc.Scan(&r), "%s: %v", name, sc.Err())
		assert.Equal(t, Read{Name: "r1", Seq: "ACGT", Qual: "IIII"}, r)
		require.True(t, sc.Scan(&r))
		assert.Equal(t, "r2", r.Name)
		assert.False(t, sc.Scan(&r))
		require.NoError(t, sc.Err())
		require.NoError(t, in.Close(ctx))
	}
}
