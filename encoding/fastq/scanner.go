// Package fastq reads and writes the FASTQ read streams of this
// pipeline. Records are scanned into canonical read names plus
// sequence and quality; Open and Create handle gzip compression by
// path suffix.
package fastq

import (
	"bufio"
	"errors"
	"io"
)

var (
	// ErrTruncated is returned when a FASTQ file ends in the middle of
	// a four-line record.
	ErrTruncated = errors.New("truncated FASTQ record")
	// ErrInvalid is returned when record framing is broken: a missing
	// '@' or '+' marker, or sequence and quality of different lengths.
	ErrInvalid = errors.New("invalid FASTQ record")
	// ErrDiscordant is returned when the two files of a read pair hold
	// different numbers of records.
	ErrDiscordant = errors.New("discordant FASTQ pair")
)

var errEOF = errors.New("eof")

// A Read is one FASTQ record. Name is the canonical read name: the
// ID line with its '@', mate suffix, and comment removed.
type Read struct {
	Name, Seq, Qual string
}

// Scanner reads FASTQ records one at a time. The Scan method fills
// the next record, returning whether the scan succeeded; after it
// returns false, Err distinguishes end of input from a malformed
// stream. Scanners are not threadsafe.
type Scanner struct {
	b   *bufio.Scanner
	err error
}

// NewScanner constructs a Scanner reading raw FASTQ data from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{b: bufio.NewScanner(r)}
}

// Scan fills read with the next record. Each record must span
// exactly four lines: "@name", sequence, "+", and a quality string
// of the sequence's length.
func (s *Scanner) Scan(read *Read) bool {
	if s.err != nil {
		return false
	}
	var rec [4]string
	for i := range rec {
		if !s.b.Scan() {
			if s.err = s.b.Err(); s.err == nil {
				if i == 0 {
					s.err = errEOF
				} else {
					s.err = ErrTruncated
				}
			}
			return false
		}
		rec[i] = s.b.Text()
	}
	if len(rec[0]) == 0 || rec[0][0] != '@' || len(rec[2]) == 0 || rec[2][0] != '+' {
		s.err = ErrInvalid
		return false
	}
	if len(rec[1]) != len(rec[3]) {
		s.err = ErrInvalid
		return false
	}
	read.Name = CanonicalID(rec[0])
	read.Seq = rec[1]
	read.Qual = rec[3]
	return true
}

// Err returns the scanning error, if any.
func (s *Scanner) Err() error {
	if s.err == errEOF {
		return nil
	}
	return s.err
}

// PairScanner walks an R1/R2 file pair in lockstep.
type PairScanner struct {
	r1, r2 *Scanner
	err    error
}

// NewPairScanner creates a scanner over the given R1 and R2 readers.
func NewPairScanner(r1, r2 io.Reader) *PairScanner {
	return &PairScanner{r1: NewScanner(r1), r2: NewScanner(r2)}
}

// Scan fills the next record from each file. It reports discordance
// when one file ends cleanly before the other.
func (p *PairScanner) Scan(r1, r2 *Read) bool {
	ok1 := p.r1.Scan(r1)
	ok2 := p.r2.Scan(r2)
	if ok1 != ok2 && p.r1.Err() == nil && p.r2.Err() == nil {
		p.err = ErrDiscordant
	}
	return ok1 && ok2
}

// Err returns the scanning error, if any. It should be checked after
// Scan returns false.
func (p *PairScanner) Err() error {
	if err := p.r1.Err(); err != nil {
		return err
	}
	if err := p.r2.Err(); err != nil {
		return err
	}
	return p.err
}
