package fasta

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// InfoRecord is one row of a feature-barcode info file: a short code,
// the feature-barcode sequence, and a human-readable label.
type InfoRecord struct {
	Code string
	Seq  string
	Info string
}

// ReadInfo parses a tab-separated feature-barcode info file with rows
// of the form "Code \t FB-sequence \t Info-label".
func ReadInfo(r io.Reader) ([]InfoRecord, error) {
	var records []InfoRecord
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			return nil, errors.Errorf("malformed feature info row %q: want 3 tab-separated fields, got %d", line, len(fields))
		}
		records = append(records, InfoRecord{Code: fields[0], Seq: fields[1], Info: fields[2]})
	}
	if scanner.Err() != nil {
		return nil, errors.Wrap(scanner.Err(), "couldn't read feature info data")
	}
	return records, nil
}
