// Package fasta reads feature-barcode reference data. A feature
// reference is FASTA-formatted, alternating ">label" lines with the
// feature-barcode sequences they name:
//
// >FB001
// ACGTACGT
// >FB002
// TTGGCCAA
//
// Because the pipeline translates observed sequences back to labels,
// the mapping is kept keyed by sequence.
package fasta

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Features maps feature-barcode sequences to their labels.
type Features struct {
	labelBySeq map[string]string
	labels     []string
}

// New parses feature-barcode FASTA data from r. Every non-header line
// is a feature sequence labeled by the preceding header.
func New(r io.Reader) (*Features, error) {
	f := &Features{labelBySeq: make(map[string]string)}
	scanner := bufio.NewScanner(r)
	var label string
	var haveLabel bool
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			label = line[1:]
			haveLabel = true
			f.labels = append(f.labels, label)
			continue
		}
		if !haveLabel {
			return nil, errors.Errorf("malformed feature FASTA: sequence %q precedes any label", line)
		}
		f.labelBySeq[line] = label
	}
	if scanner.Err() != nil {
		return nil, errors.Wrap(scanner.Err(), "couldn't read feature FASTA data")
	}
	return f, nil
}

// Label returns the label of the given feature-barcode sequence.
func (f *Features) Label(seq string) (string, bool) {
	label, ok := f.labelBySeq[seq]
	return label, ok
}

// Labels returns all labels, in the order of appearance in the FASTA
// file.
func (f *Features) Labels() []string {
	return f.labels
}

// Len returns the number of feature sequences.
func (f *Features) Len() int {
	return len(f.labelBySeq)
}
