// Package config reads the JSON assay configuration that drives the
// pipeline: where each barcode segment and UMI segment lives on the
// read pair, the whitelist per barcode segment, and the feature
// reference files.
package config

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// BarcodeSegment describes one whitelisted barcode region on a raw
// read. Coordinates are a 0-based half-open interval [Start, End).
type BarcodeSegment struct {
	// Name is the segment name used in barcode_struct and in artifact
	// file names.
	Name string
	// Read is the raw read the segment is extracted from, "r1" or "r2".
	Read string
	// Start and End delimit the segment on the read.
	Start, End int
	// WhitelistPath locates the segment's whitelist file.
	WhitelistPath string
}

// Len returns the configured segment length.
func (s BarcodeSegment) Len() int { return s.End - s.Start }

// UMISegment describes one UMI region on a raw read. UMIs have no
// whitelist.
type UMISegment struct {
	Name       string
	Read       string
	Start, End int
}

// Len returns the configured segment length.
func (s UMISegment) Len() int { return s.End - s.Start }

// Config is the parsed assay configuration.
type Config struct {
	// Barcode1 are the segments forming the composite cell/sample
	// barcode, in concatenation order.
	Barcode1 []BarcodeSegment
	// Barcode2 are the segments forming the feature barcode, in
	// concatenation order.
	Barcode2 []BarcodeSegment
	// UMI are the UMI segments in concatenation order.
	UMI []UMISegment
	// FeatureBarcodePath locates the feature FASTA (">label" lines
	// alternating with feature-barcode sequences).
	FeatureBarcodePath string
	// FeatureInfoPath locates the tab-separated "Code FB Info" file.
	FeatureInfoPath string
}

// Segments returns all barcode segments, barcode1 segments first.
func (c *Config) Segments() []BarcodeSegment {
	segments := make([]BarcodeSegment, 0, len(c.Barcode1)+len(c.Barcode2))
	segments = append(segments, c.Barcode1...)
	return append(segments, c.Barcode2...)
}

// Barcode1Len returns the total length of the composite barcode1.
func (c *Config) Barcode1Len() int {
	n := 0
	for _, s := range c.Barcode1 {
		n += s.Len()
	}
	return n
}

// UMILen returns the total length of the concatenated UMI.
func (c *Config) UMILen() int {
	n := 0
	for _, s := range c.UMI {
		n += s.Len()
	}
	return n
}

// Barcode1Bounds returns the cumulative end offsets of the barcode1
// segments within the composite barcode1, used to render it with '+'
// separators.
func (c *Config) Barcode1Bounds() []int {
	bounds := make([]int, 0, len(c.Barcode1))
	n := 0
	for _, s := range c.Barcode1 {
		n += s.Len()
		bounds = append(bounds, n)
	}
	return bounds
}

type rawConfig struct {
	Barcode       map[string][]json.RawMessage `json:"barcode"`
	BarcodeStruct struct {
		Barcode1 []string `json:"barcode1"`
		Barcode2 []string `json:"barcode2"`
	} `json:"barcode_struct"`
	UMI                json.RawMessage `json:"umi"`
	FeatureBarcode     string          `json:"feature_barcode"`
	FeatureBarcodeInfo string          `json:"feature_barcode_info"`
}

// Parse parses JSON configuration data.
func Parse(data []byte) (*Config, error) {
	raw := rawConfig{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.E(err, "parse config")
	}
	c := &Config{
		FeatureBarcodePath: raw.FeatureBarcode,
		FeatureInfoPath:    raw.FeatureBarcodeInfo,
	}
	var err error
	if c.Barcode1, err = parseBarcodeSegments(raw.Barcode, raw.BarcodeStruct.Barcode1); err != nil {
		return nil, err
	}
	if c.Barcode2, err = parseBarcodeSegments(raw.Barcode, raw.BarcodeStruct.Barcode2); err != nil {
		return nil, err
	}
	if len(c.Barcode1) == 0 {
		return nil, errors.New("config: barcode_struct.barcode1 is empty")
	}
	if c.UMI, err = parseUMISegments(raw.UMI); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads and parses the configuration file at the given path.
func Load(ctx context.Context, path string) (*Config, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open config", path)
	}
	data, err := ioutil.ReadAll(f.Reader(ctx))
	if e := f.Close(ctx); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return nil, errors.E(err, "read config", path)
	}
	return Parse(data)
}

// parseBarcodeSegments resolves the named segments from the barcode
// map. Entries are arrays [read, start, end, _, _, whitelist].
func parseBarcodeSegments(barcode map[string][]json.RawMessage, names []string) ([]BarcodeSegment, error) {
	var segments []BarcodeSegment
	for _, name := range names {
		fields, ok := barcode[name]
		if !ok {
			return nil, errors.E("config: barcode segment not defined:", name)
		}
		if len(fields) < 6 {
			return nil, errors.E("config: barcode segment", name, "must have 6 fields")
		}
		s := BarcodeSegment{Name: name}
		if err := json.Unmarshal(fields[0], &s.Read); err != nil {
			return nil, errors.E(err, "config: barcode segment", name)
		}
		if err := json.Unmarshal(fields[1], &s.Start); err != nil {
			return nil, errors.E(err, "config: barcode segment", name)
		}
		if err := json.Unmarshal(fields[2], &s.End); err != nil {
			return nil, errors.E(err, "config: barcode segment", name)
		}
		if err := json.Unmarshal(fields[5], &s.WhitelistPath); err != nil {
			return nil, errors.E(err, "config: barcode segment", name)
		}
		if err := validateSegment(s.Name, s.Read, s.Start, s.End); err != nil {
			return nil, err
		}
		segments = append(segments, s)
	}
	return segments, nil
}

// parseUMISegments decodes the umi object with a token stream: the
// segments concatenate in declared order, and encoding/json maps do
// not preserve it.
func parseUMISegments(raw json.RawMessage) ([]UMISegment, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, errors.E(err, "config: parse umi")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("config: umi must be an object")
	}
	var segments []UMISegment
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.E(err, "config: parse umi")
		}
		name := tok.(string)
		var fields []json.RawMessage
		if err := dec.Decode(&fields); err != nil {
			return nil, errors.E(err, "config: umi segment", name)
		}
		if len(fields) < 3 {
			return nil, errors.E("config: umi segment", name, "must have 3 fields")
		}
		s := UMISegment{Name: name}
		if err := json.Unmarshal(fields[0], &s.Read); err != nil {
			return nil, errors.E(err, "config: umi segment", name)
		}
		if err := json.Unmarshal(fields[1], &s.Start); err != nil {
			return nil, errors.E(err, "config: umi segment", name)
		}
		if err := json.Unmarshal(fields[2], &s.End); err != nil {
			return nil, errors.E(err, "config: umi segment", name)
		}
		if err := validateSegment(s.Name, s.Read, s.Start, s.End); err != nil {
			return nil, err
		}
		segments = append(segments, s)
	}
	return segments, nil
}

func validateSegment(name, read string, start, end int) error {
	if read != "r1" && read != "r2" {
		return errors.E("config: segment", name, "read must be r1 or r2, got", read)
	}
	if start < 0 || end <= start {
		return errors.E("config: segment", name, "has invalid coordinates")
	}
	return nil
}
