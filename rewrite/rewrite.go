// Package rewrite turns raw read pairs and per-segment barcode
// decisions into the normalized read pair consumed by UMI counting:
// R1 carries the corrected composite barcode1 followed by the UMI,
// R2 carries the corrected feature barcode.
package rewrite

import (
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/fbcount/barcode"
	"github.com/grailbio/fbcount/config"
	"github.com/grailbio/fbcount/encoding/fastq"
)

// tierQual maps a correction tier to the synthetic base quality
// written for every base of that segment.
func tierQual(tier byte) (byte, bool) {
	switch tier {
	case barcode.TierExact:
		return 'G', true
	case barcode.TierCorrected:
		return 'F', true
	case barcode.TierShiftExact:
		return '9', true
	case barcode.TierShiftCorrected:
		return '8', true
	}
	return 0, false
}

// Rewriter pairs the assay configuration with the loaded per-segment
// decision maps.
type Rewriter struct {
	cfg    *config.Config
	b1Maps []map[string]barcode.Decision
	b2Maps []map[string]barcode.Decision
}

// New returns a Rewriter. The decision maps must parallel
// cfg.Barcode1 and cfg.Barcode2.
func New(cfg *config.Config, b1Maps, b2Maps []map[string]barcode.Decision) *Rewriter {
	return &Rewriter{cfg: cfg, b1Maps: b1Maps, b2Maps: b2Maps}
}

// Run scans the raw read pair and writes the normalized pair,
// preserving input order. A read pair is emitted only when every
// barcode segment resolved to a non-empty corrected sequence. It
// returns the number of read pairs processed and emitted.
func (rw *Rewriter) Run(rawR1, rawR2 io.Reader, outR1, outR2 io.Writer) (total, valid int, err error) {
	w1, w2 := fastq.NewWriter(outR1), fastq.NewWriter(outR2)
	scanner := fastq.NewPairScanner(rawR1, rawR2)
	var rec1, rec2 fastq.Read
	for scanner.Scan(&rec1, &rec2) {
		total++
		if total%1000000 == 0 {
			log.Printf("rewrote %d read pairs", total)
		}
		name := rec1.Name

		b1Seq, b1Qual, ok, err := renderBarcode(name, rw.cfg.Barcode1, rw.b1Maps)
		if err != nil {
			return total, valid, err
		}
		b2Seq, b2Qual, ok2, err := renderBarcode(name, rw.cfg.Barcode2, rw.b2Maps)
		if err != nil {
			return total, valid, err
		}
		if !ok || !ok2 {
			continue
		}
		valid++

		umiSeq, umiQual := extractUMI(rw.cfg.UMI, &rec1, &rec2)
		if err := w1.Write(name, b1Seq+umiSeq, b1Qual+umiQual); err != nil {
			return total, valid, errors.E(err, "write normalized R1")
		}
		if err := w2.Write(name, b2Seq, b2Qual); err != nil {
			return total, valid, errors.E(err, "write normalized R2")
		}
	}
	if err := scanner.Err(); err != nil {
		return total, valid, errors.E(err, "read raw reads")
	}
	return total, valid, nil
}

// renderBarcode concatenates the corrected segments for one barcode
// role and synthesizes the tier qualities. ok is false when any
// segment was uncorrectable and the read must be dropped.
func renderBarcode(name string, segments []config.BarcodeSegment, maps []map[string]barcode.Decision) (seq, qual string, ok bool, err error) {
	seqB, qualB := strings.Builder{}, strings.Builder{}
	for i, segment := range segments {
		d, found := maps[i][name]
		if !found {
			return "", "", false, errors.E("read missing from decision map:", name, "segment", segment.Name)
		}
		if d.Seq == "" {
			return "", "", false, nil
		}
		q, known := tierQual(d.Tier)
		if !known {
			return "", "", false, errors.E("unexpected tier for read", name, "segment", segment.Name)
		}
		seqB.WriteString(d.Seq)
		qualB.Write(repeatByte(q, segment.Len()))
	}
	return seqB.String(), qualB.String(), true, nil
}

// extractUMI pulls the UMI segments out of the raw reads. Sequence
// and quality are copied verbatim.
func extractUMI(segments []config.UMISegment, rec1, rec2 *fastq.Read) (seq, qual string) {
	seqB, qualB := strings.Builder{}, strings.Builder{}
	for _, segment := range segments {
		rec := rec1
		if segment.Read == "r2" {
			rec = rec2
		}
		seqB.WriteString(slice(rec.Seq, segment.Start, segment.End))
		qualB.WriteString(slice(rec.Qual, segment.Start, segment.End))
	}
	return seqB.String(), qualB.String()
}

func slice(s string, start, end int) string {
	if start > len(s) {
		return ""
	}
	if end > len(s) {
		end = len(s)
	}
	return s[start:end]
}

func repeatByte(b byte, n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = b
	}
	return buf
}
