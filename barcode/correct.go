package barcode

import "math"

const (
	// maxCorrectDist bounds the Hamming distance explored when looking
	// for whitelist neighbors of a raw barcode.
	maxCorrectDist = 1
	// confidenceThreshold is the posterior mass a candidate must exceed
	// to be accepted as the correction.
	confidenceThreshold = 0.975
	// shiftCorrection is the number of extra leftward re-extraction
	// attempts when the upstream linker match failed.
	shiftCorrection = 2

	illuminaQualOffset = 33
	// Qualities are restricted to [minQual, maxQual] so that a single
	// base cannot dominate the error model.
	minQual = 3
	maxQual = 40
	// highQual is the clamped quality above which an exact whitelist
	// hit is accepted without evaluating the posterior.
	highQual = 24
)

const dnaAlphabet = "ACGT"

type correctStatus int

const (
	statusUncorrected correctStatus = iota
	statusCorrected
	statusFailed
)

// correct estimates the correct barcode for an observed sequence and
// its base qualities, given the whitelist and its prior. It returns
// the whitelist member whose posterior likelihood exceeds the
// confidence threshold, or fails. Corrections are considered out to
// Hamming distance maxCorrectDist; positions reading 'N' must differ.
func (w *Whitelist) correct(seq, qual string) (string, correctStatus) {
	if len(seq) == 0 || len(seq) != len(qual) {
		return "", statusFailed
	}
	qvs := make([]int, len(qual))
	for i := 0; i < len(qual); i++ {
		q := int(qual[i]) - illuminaQualOffset
		if q < minQual {
			q = minQual
		}
		if q > maxQual {
			q = maxQual
		}
		qvs[i] = q
	}

	var candidates []string
	var likelihoods []float64
	if idx, ok := w.idx[seq]; ok {
		allHigh := true
		for _, q := range qvs {
			if q <= highQual {
				allHigh = false
				break
			}
		}
		if allHigh {
			return seq, statusUncorrected
		}
		candidates = append(candidates, seq)
		likelihoods = append(likelihoods, w.prior[idx])
	}
	w.eachNeighbor(seq, qvs, func(neighbor string, idx, errQual int) {
		candidates = append(candidates, neighbor)
		likelihoods = append(likelihoods, w.prior[idx]*math.Pow(10, -float64(errQual)/10))
	})
	if len(candidates) == 0 {
		return "", statusFailed
	}

	total := 0.0
	for _, l := range likelihoods {
		total += l
	}
	best, bestPosterior := 0, 0.0
	for i, l := range likelihoods {
		if p := l / total; p > bestPosterior {
			best, bestPosterior = i, p
		}
	}
	if bestPosterior > confidenceThreshold {
		if candidates[best] == seq {
			return seq, statusUncorrected
		}
		return candidates[best], statusCorrected
	}
	return "", statusFailed
}

// eachNeighbor calls fn for every whitelist member at Hamming
// distance exactly maxCorrectDist from seq, with the member's index
// and the summed clamped quality of the differing positions. 'N'
// positions are forced to differ: with one 'N' all four bases are
// tried there and no other position may change; with more than one
// 'N' the distance bound is exceeded and there are no neighbors.
func (w *Whitelist) eachNeighbor(seq string, qvs []int, fn func(neighbor string, idx, errQual int)) {
	nPos := -1
	for i := 0; i < len(seq); i++ {
		if seq[i] == 'N' {
			if nPos >= 0 {
				return
			}
			nPos = i
		}
	}
	buf := []byte(seq)
	if nPos >= 0 {
		for j := 0; j < len(dnaAlphabet); j++ {
			buf[nPos] = dnaAlphabet[j]
			if idx, ok := w.idx[string(buf)]; ok {
				fn(string(buf), idx, qvs[nPos])
			}
		}
		return
	}
	for i := 0; i < len(buf); i++ {
		orig := buf[i]
		for j := 0; j < len(dnaAlphabet); j++ {
			if dnaAlphabet[j] == orig {
				continue
			}
			buf[i] = dnaAlphabet[j]
			if idx, ok := w.idx[string(buf)]; ok {
				fn(string(buf), idx, qvs[i])
			}
		}
		buf[i] = orig
	}
}
