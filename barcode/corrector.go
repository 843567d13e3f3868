package barcode

import (
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/fbcount/encoding/fastq"
)

// Quality tiers describing how a corrected barcode was obtained.
const (
	// TierExact: the observed sequence was already a whitelist member
	// (linker matched, or shift-0 re-extraction hit), accepted either by
	// the high-quality shortcut or by the posterior.
	TierExact = 'A'
	// TierCorrected: corrected from a Hamming-1 neighbor with the
	// linker matched or at shift 0.
	TierCorrected = 'B'
	// TierShiftExact: linker missed, whitelist hit after re-extraction
	// at shift >= 1.
	TierShiftExact = 'C'
	// TierShiftCorrected: linker missed, corrected after re-extraction
	// at shift >= 1.
	TierShiftCorrected = 'D'
	// TierFailed: no acceptable correction; the read is dropped at the
	// rewriting stage.
	TierFailed = 'E'
)

// Decision is the per-read outcome for one barcode segment. Seq is
// empty when the barcode was uncorrectable.
type Decision struct {
	Seq  string
	Tier byte
}

// Clipped is one pre-clipped barcode candidate produced by the
// upstream linker-matching step.
type Clipped struct {
	Seq  string
	Qual string
}

// ReadClipped loads a pre-clipped candidate FASTQ into a map keyed by
// canonical read name.
func ReadClipped(r io.Reader) (map[string]Clipped, error) {
	clips := map[string]Clipped{}
	scanner := fastq.NewScanner(r)
	var read fastq.Read
	for scanner.Scan(&read) {
		clips[read.Name] = Clipped{Seq: read.Seq, Qual: read.Qual}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(err, "read pre-clipped candidates")
	}
	return clips, nil
}

// Corrector decides corrected barcodes for every read of one
// configured segment.
type Corrector struct {
	wl         *Whitelist
	clips      map[string]Clipped
	start, end int
}

// NewCorrector returns a Corrector for a segment at raw-read
// coordinates [start, end) whose linker-matched candidates are clips.
// The whitelist's prior should already be estimated.
func NewCorrector(wl *Whitelist, clips map[string]Clipped, start, end int) *Corrector {
	return &Corrector{wl: wl, clips: clips, start: start, end: end}
}

// Process scans the raw read stream for the segment's configured read
// and decides every record. Reads whose linker matched are corrected
// from their pre-clipped candidate; the rest are re-extracted at the
// configured coordinates, sliding left one base at a time up to
// shiftCorrection extra attempts.
func (c *Corrector) Process(r io.Reader) (map[string]Decision, *Stats, error) {
	decisions := map[string]Decision{}
	stats := &Stats{}
	scanner := fastq.NewScanner(r)
	var read fastq.Read
	for scanner.Scan(&read) {
		stats.TotalReads++
		if stats.TotalReads%500000 == 0 {
			log.Printf("corrected %d reads", stats.TotalReads)
		}
		if clip, ok := c.clips[read.Name]; ok {
			decisions[read.Name] = c.decideClipped(clip, stats)
		} else {
			decisions[read.Name] = c.decideShifted(read.Seq, read.Qual, stats)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.E(err, "read raw reads")
	}
	return decisions, stats, nil
}

func (c *Corrector) decideClipped(clip Clipped, stats *Stats) Decision {
	seq, status := c.wl.correct(clip.Seq, clip.Qual)
	switch status {
	case statusUncorrected:
		stats.LinkerRight.Uncorrected++
		return Decision{Seq: seq, Tier: TierExact}
	case statusCorrected:
		stats.LinkerRight.Corrected++
		return Decision{Seq: seq, Tier: TierCorrected}
	}
	stats.LinkerRight.Failed++
	return Decision{Tier: TierFailed}
}

func (c *Corrector) decideShifted(rawSeq, rawQual string, stats *Stats) Decision {
	for shift := 0; shift <= shiftCorrection; shift++ {
		start, end := c.start-shift, c.end-shift
		if start < 0 {
			break
		}
		if end > len(rawSeq) || end > len(rawQual) {
			continue
		}
		seq, status := c.wl.correct(rawSeq[start:end], rawQual[start:end])
		switch status {
		case statusUncorrected:
			stats.LinkerWrong.Uncorrected[shift]++
			if shift == 0 {
				return Decision{Seq: seq, Tier: TierExact}
			}
			return Decision{Seq: seq, Tier: TierShiftExact}
		case statusCorrected:
			stats.LinkerWrong.Corrected[shift]++
			if shift == 0 {
				return Decision{Seq: seq, Tier: TierCorrected}
			}
			return Decision{Seq: seq, Tier: TierShiftCorrected}
		}
	}
	stats.LinkerWrong.Failed++
	return Decision{Tier: TierFailed}
}
