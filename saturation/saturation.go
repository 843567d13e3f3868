// Package saturation estimates sequencing saturation by randomly
// downsampling the corrected (barcode, UMI) read pool across a fixed
// ratio grid and recomputing the saturation statistics at each ratio.
package saturation

import (
	"math"
	"math/rand"
	"sort"

	"github.com/grailbio/fbcount/umi"
)

// Seed is the fixed seed of the downsampling source; every ratio is
// sampled from a fresh source so runs are reproducible row by row.
const Seed = 42

// Ratios is the downsample grid between the zero sentinel row and the
// full pool.
var Ratios = makeRatios()

func makeRatios() []float64 {
	var ratios []float64
	for _, base := range []float64{1e-4, 1e-3, 1e-2, 1e-1} {
		for k := 1; k <= 9; k++ {
			ratios = append(ratios, math.Round(base*float64(k)*1e4)/1e4)
		}
	}
	return ratios
}

// Row is one line of the downsample grid.
type Row struct {
	Ratio float64
	// Saturation is 100 * (1 - singletons/distinct UMIs).
	Saturation float64
	// UMITypes is the number of distinct (barcode, UMI) pairs drawn.
	UMITypes int
	// UMIReads is the number of reads drawn.
	UMIReads int
	// Duplication is 100 * duplicate reads / reads.
	Duplication float64
}

// Pool is the read multiset reconstructed from a corrected UMI table:
// each (barcode, UMI) pair appears once per counted read.
type Pool struct {
	barcodes []string // pair barcode, indexed by pair id
	umis     []string // pair UMI, indexed by pair id
	reads    []int32  // one pair id per read
}

// NewPool expands a corrected UMI table into its read pool. Pairs are
// laid out in sorted order so pools built from equal tables are
// identical.
func NewPool(tbl umi.Table) *Pool {
	p := &Pool{}
	barcodes := make([]string, 0, len(tbl))
	for bc := range tbl {
		barcodes = append(barcodes, bc)
	}
	sort.Strings(barcodes)
	for _, bc := range barcodes {
		umis := make([]string, 0, len(tbl[bc]))
		for u := range tbl[bc] {
			umis = append(umis, u)
		}
		sort.Strings(umis)
		for _, u := range umis {
			id := int32(len(p.barcodes))
			p.barcodes = append(p.barcodes, bc)
			p.umis = append(p.umis, u)
			for i := 0; i < tbl[bc][u]; i++ {
				p.reads = append(p.reads, id)
			}
		}
	}
	return p
}

// Size returns the total number of reads in the pool.
func (p *Pool) Size() int { return len(p.reads) }

// sampleCounts draws floor(ratio * size) reads uniformly without
// replacement and returns the per-pair read counts of the draw.
func (p *Pool) sampleCounts(ratio float64) []int {
	counts := make([]int, len(p.barcodes))
	if ratio >= 1 {
		for _, id := range p.reads {
			counts[id]++
		}
		return counts
	}
	n := int(ratio * float64(len(p.reads)))
	if n <= 0 {
		return counts
	}
	rng := rand.New(rand.NewSource(Seed))
	drawn := make([]int32, len(p.reads))
	copy(drawn, p.reads)
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(drawn)-i)
		drawn[i], drawn[j] = drawn[j], drawn[i]
		counts[drawn[i]]++
	}
	return counts
}

// SampleTable draws at the given ratio and rebuilds the sampled UMI
// table.
func (p *Pool) SampleTable(ratio float64) umi.Table {
	counts := p.sampleCounts(ratio)
	tbl := umi.Table{}
	for id, c := range counts {
		if c == 0 {
			continue
		}
		umis, ok := tbl[p.barcodes[id]]
		if !ok {
			umis = map[string]int{}
			tbl[p.barcodes[id]] = umis
		}
		umis[p.umis[id]] = c
	}
	return tbl
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func statsFromCounts(ratio float64, counts []int) Row {
	row := Row{Ratio: ratio}
	single := 0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		row.UMITypes++
		row.UMIReads += c
		if c == 1 {
			single++
		}
	}
	if row.UMITypes > 0 {
		row.Saturation = round2(100 * (1 - float64(single)/float64(row.UMITypes)))
	}
	if row.UMIReads > 0 {
		row.Duplication = round2(100 * float64(row.UMIReads-row.UMITypes) / float64(row.UMIReads))
	}
	return row
}

// Grid computes the full downsample grid: a zero sentinel row, one
// row per ratio, and the undownsampled pool.
func (p *Pool) Grid() []Row {
	rows := make([]Row, 0, len(Ratios)+2)
	rows = append(rows, Row{})
	for _, ratio := range Ratios {
		rows = append(rows, statsFromCounts(ratio, p.sampleCounts(ratio)))
	}
	rows = append(rows, statsFromCounts(1, p.sampleCounts(1)))
	return rows
}

// Optimal returns the index of the row with maximum sequencing
// saturation, the first such row on ties.
func Optimal(rows []Row) int {
	best := 0
	for i, row := range rows {
		if row.Saturation > rows[best].Saturation {
			best = i
		}
	}
	return best
}
