// Package umi tabulates UMIs per composite barcode and collapses
// UMIs that look like sequencing errors of more abundant neighbors.
package umi

import (
	"sort"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/traverse"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/fbcount/util"
)

const (
	// maxCorrectDist bounds the Hamming distance between a collapsed
	// UMI and its parent.
	maxCorrectDist = 1
	// abundanceRatio is the directional-rule ratio: a UMI may only be
	// absorbed by a parent at least ten times as abundant.
	abundanceRatio = 10
)

// Correct computes the collapse mapping for one composite barcode's
// UMI counts: child UMI -> parent UMI. A UMI u collapses into a more
// abundant UMI p when count(u) <= count(p)/abundanceRatio and the two
// are within Hamming distance maxCorrectDist. The rule is single
// pass: a UMI that has been claimed as a child neither re-parents nor
// adopts children of its own.
func Correct(counts map[string]int) map[string]string {
	type entry struct {
		umi   string
		count int
	}
	ascending := make([]entry, 0, len(counts))
	for u, c := range counts {
		ascending = append(ascending, entry{u, c})
	}
	sort.Slice(ascending, func(i, j int) bool {
		if ascending[i].count != ascending[j].count {
			return ascending[i].count < ascending[j].count
		}
		return ascending[i].umi < ascending[j].umi
	})

	parents := map[string]string{}
	for hi := len(ascending) - 1; hi >= 0; hi-- {
		parent := ascending[hi]
		if _, claimed := parents[parent.umi]; claimed {
			continue
		}
		threshold := parent.count / abundanceRatio
		for _, child := range ascending {
			if _, claimed := parents[child.umi]; claimed {
				continue
			}
			if child.count > threshold {
				// Ascending order: no later child can satisfy the rule.
				break
			}
			if util.HammingWithin(child.umi, parent.umi, maxCorrectDist) {
				parents[child.umi] = parent.umi
			}
		}
	}
	return parents
}

// Apply folds each child's reads into its parent and drops the
// children. Read totals are conserved.
func Apply(counts map[string]int, parents map[string]string) map[string]int {
	corrected := make(map[string]int, len(counts)-len(parents))
	for u, c := range counts {
		if _, claimed := parents[u]; !claimed {
			corrected[u] = c
		}
	}
	for child, parent := range parents {
		corrected[parent] += counts[child]
	}
	return corrected
}

const correctionShards = 256

// CorrectTable corrects every composite barcode of the table.
// Barcodes are independent; they are sharded by hash and corrected in
// parallel. It returns the corrected table and the per-barcode
// collapse mappings (barcodes with no collapses omitted).
func CorrectTable(tbl Table) (Table, map[string]map[string]string, error) {
	shards := make([][]string, correctionShards)
	for bc := range tbl {
		i := int(seahash.Sum64(gunsafe.StringToBytes(bc)) % correctionShards)
		shards[i] = append(shards[i], bc)
	}
	correctedShards := make([]Table, correctionShards)
	parentShards := make([]map[string]map[string]string, correctionShards)
	err := traverse.Each(correctionShards, func(i int) error {
		corrected := Table{}
		parents := map[string]map[string]string{}
		for _, bc := range shards[i] {
			p := Correct(tbl[bc])
			corrected[bc] = Apply(tbl[bc], p)
			if len(p) > 0 {
				parents[bc] = p
			}
		}
		correctedShards[i] = corrected
		parentShards[i] = parents
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	corrected := make(Table, len(tbl))
	parents := map[string]map[string]string{}
	for i := range correctedShards {
		for bc, umis := range correctedShards[i] {
			corrected[bc] = umis
		}
		for bc, p := range parentShards[i] {
			parents[bc] = p
		}
	}
	return corrected, parents, nil
}
