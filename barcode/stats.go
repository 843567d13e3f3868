package barcode

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

const shiftAttempts = shiftCorrection + 1

// Stats is the per-segment correction breakdown, split by whether the
// upstream linker match succeeded (and for misses, by re-extraction
// shift).
type Stats struct {
	TotalReads  int
	LinkerRight struct {
		Uncorrected, Corrected, Failed int
	}
	LinkerWrong struct {
		Uncorrected [shiftAttempts]int
		Corrected   [shiftAttempts]int
		Failed      int
	}
}

// Failed returns the number of uncorrectable reads.
func (s *Stats) Failed() int {
	return s.LinkerRight.Failed + s.LinkerWrong.Failed
}

// ValidPercent returns 100 * (1 - failed/total), rounded to two
// decimals.
func (s *Stats) ValidPercent() float64 {
	if s.TotalReads == 0 {
		return 0
	}
	p := 100 * (1 - float64(s.Failed())/float64(s.TotalReads))
	return math.Round(p*100) / 100
}

// MarshalJSON emits the segment's barcode.info document.
func (s *Stats) MarshalJSON() ([]byte, error) {
	right := map[string]int{
		"uncorrected": s.LinkerRight.Uncorrected,
		"corrected":   s.LinkerRight.Corrected,
		"failed":      s.LinkerRight.Failed,
	}
	wrong := map[string]int{"failed": s.LinkerWrong.Failed}
	for i := 0; i < shiftAttempts; i++ {
		wrong[fmt.Sprintf("shift_%d_uncorrected", i)] = s.LinkerWrong.Uncorrected[i]
		wrong[fmt.Sprintf("shift_%d_corrected", i)] = s.LinkerWrong.Corrected[i]
	}
	return json.Marshal(struct {
		TotalReads   int            `json:"total_reads"`
		LinkerRight  map[string]int `json:"linker_right"`
		LinkerWrong  map[string]int `json:"linker_wrong"`
		ValidPercent float64        `json:"barcode_valid_percent"`
	}{s.TotalReads, right, wrong, s.ValidPercent()})
}

// WriteStats persists the segment's stats as an indented JSON
// barcode.info file.
func WriteStats(ctx context.Context, path string, stats *Stats) error {
	data, err := json.MarshalIndent(stats, "", "    ")
	if err != nil {
		return err
	}
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	_, err = out.Writer(ctx).Write(append(data, '\n'))
	if e := out.Close(ctx); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return errors.E(err, "write", path)
	}
	return nil
}
