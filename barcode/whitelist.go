// Package barcode corrects raw barcode segments against fixed
// whitelists. For every read it decides a corrected sequence (or
// gives up) together with a quality tier recording how the decision
// was reached, and persists the per-read decision map consumed by the
// read rewriting stage.
package barcode

import (
	"bufio"
	"io"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
)

// Whitelist is the set of permitted sequences for one barcode
// segment, indexed in sorted order, together with an empirical prior
// over its members.
type Whitelist struct {
	seqs   []string
	idx    map[string]int
	seqLen int
	prior  []float64
}

// LoadWhitelist reads a whitelist file: one sequence per line, lines
// containing '#' anywhere ignored. All sequences must have the same
// length. The prior starts out uniform.
func LoadWhitelist(r io.Reader) (*Whitelist, error) {
	seen := map[string]bool{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.ContainsRune(line, '#') {
			continue
		}
		seen[line] = true
	}
	if scanner.Err() != nil {
		return nil, errors.E(scanner.Err(), "read whitelist")
	}
	if len(seen) == 0 {
		return nil, errors.New("empty whitelist")
	}
	w := &Whitelist{
		seqs: make([]string, 0, len(seen)),
		idx:  make(map[string]int, len(seen)),
	}
	for seq := range seen {
		w.seqs = append(w.seqs, seq)
	}
	sort.Strings(w.seqs)
	w.seqLen = len(w.seqs[0])
	for i, seq := range w.seqs {
		if len(seq) != w.seqLen {
			return nil, errors.E("whitelist sequences have inconsistent lengths:", w.seqs[0], "vs", seq)
		}
		w.idx[seq] = i
	}
	w.prior = make([]float64, len(w.seqs))
	for i := range w.prior {
		w.prior[i] = 1.0 / float64(len(w.seqs))
	}
	return w, nil
}

// Size returns the number of whitelist members.
func (w *Whitelist) Size() int { return len(w.seqs) }

// SeqLen returns the common length of the whitelist sequences.
func (w *Whitelist) SeqLen() int { return w.seqLen }

// Contains reports whether seq is a whitelist member.
func (w *Whitelist) Contains(seq string) bool {
	_, ok := w.idx[seq]
	return ok
}

// EstimatePrior replaces the prior with the smoothed empirical
// distribution of whitelist members among the pre-clipped candidates:
// prior[i] = (count[i] + 1) / Σ(count[j] + 1). Candidates that are
// not whitelist members contribute nothing.
func (w *Whitelist) EstimatePrior(clips map[string]Clipped) {
	counts := make([]int, len(w.seqs))
	for _, clip := range clips {
		if i, ok := w.idx[clip.Seq]; ok {
			counts[i]++
		}
	}
	total := 0.0
	for _, n := range counts {
		total += float64(n + 1)
	}
	for i, n := range counts {
		w.prior[i] = float64(n+1) / total
	}
}
