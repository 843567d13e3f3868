package umi

import (
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/fbcount/encoding/fastq"
)

// Table maps composite barcode (barcode1 "_" barcode2) to UMI to
// read count. All counts are strictly positive.
type Table map[string]map[string]int

// Add records one read for the given barcode and UMI.
func (t Table) Add(barcode, umi string) {
	umis, ok := t[barcode]
	if !ok {
		umis = map[string]int{}
		t[barcode] = umis
	}
	umis[umi]++
}

// Reads returns the total read count of the table.
func (t Table) Reads() int {
	n := 0
	for _, umis := range t {
		for _, c := range umis {
			n += c
		}
	}
	return n
}

// TypeCounts returns the number of distinct UMIs per composite
// barcode.
func (t Table) TypeCounts() map[string]int {
	counts := make(map[string]int, len(t))
	for bc, umis := range t {
		counts[bc] = len(umis)
	}
	return counts
}

// Tabulate walks the normalized R1/R2 streams in lockstep and counts
// reads per (composite barcode, UMI). Normalized R1 records are the
// concatenated barcode1 followed by the UMI; normalized R2 records
// are the feature barcode. It returns the total read count and the
// raw table.
func Tabulate(r1, r2 io.Reader, barcode1Len, umiLen int) (int, Table, error) {
	tbl := Table{}
	scanner := fastq.NewPairScanner(r1, r2)
	var rec1, rec2 fastq.Read
	total := 0
	for scanner.Scan(&rec1, &rec2) {
		total++
		if len(rec1.Seq) < barcode1Len+umiLen {
			return 0, nil, errors.E("normalized R1 record too short:", rec1.Seq)
		}
		barcode1 := rec1.Seq[:barcode1Len]
		umi := rec1.Seq[barcode1Len : barcode1Len+umiLen]
		tbl.Add(barcode1+"_"+rec2.Seq, umi)
	}
	if err := scanner.Err(); err != nil {
		return 0, nil, errors.E(err, "read normalized reads")
	}
	return total, tbl, nil
}
