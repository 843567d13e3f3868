// Package summary rolls per-sample pipeline artifacts up into
// cross-sample matrices: barcode validity per segment, headline UMI
// counts and sequencing saturation from the optimal downsample row,
// and per-feature UMI totals.
package summary

import (
	"bufio"
	"context"
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/fbcount/encoding/fasta"
	"github.com/grailbio/fbcount/saturation"
)

const (
	logsDir   = "00_logs"
	countsDir = "03_counts"
)

// Sample is one sample's collected summary values.
type Sample struct {
	Name string
	// Valid is barcode_valid_percent per barcode segment.
	Valid map[string]float64
	// UMICounts and Saturation come from the optimal downsample row.
	UMICounts  int
	Saturation float64
	// Features sums downsampled UMI counts per feature label.
	Features map[string]int
}

// Collect gathers one sample's summary from its artifact directories
// under root: {root}/{sample}/00_logs and {root}/{sample}/03_counts.
// A missing downsample grid leaves the headline numbers zero; the
// sample is still summarized.
func Collect(ctx context.Context, root, sample string, segments []string, infoByCode map[string]string) (Sample, error) {
	s := Sample{
		Name:     sample,
		Valid:    map[string]float64{},
		Features: map[string]int{},
	}
	for _, segment := range segments {
		path := filepath.Join(root, sample, logsDir, sample+"_"+segment+".barcode.info")
		valid, err := readValidPercent(ctx, path)
		if err != nil {
			return Sample{}, err
		}
		s.Valid[segment] = valid
	}

	gridPath := filepath.Join(root, sample, countsDir, sample+"_Downsample.tsv")
	rows, err := saturation.ReadFile(ctx, gridPath)
	if err != nil {
		log.Error.Printf("%s: no downsample grid: %v", sample, err)
	} else {
		optimal := rows[saturation.Optimal(rows)]
		s.UMICounts = optimal.UMIReads
		s.Saturation = optimal.Saturation
	}

	mapPath := filepath.Join(root, sample, countsDir, sample+"_per_bc_umi_count_after_downsample.map")
	if err := aggregateFeatures(ctx, mapPath, infoByCode, s.Features); err != nil {
		log.Error.Printf("%s: no downsampled count map: %v", sample, err)
	}
	return s, nil
}

// readValidPercent pulls barcode_valid_percent out of a segment's
// barcode.info document.
func readValidPercent(ctx context.Context, path string) (float64, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return 0, errors.E(err, "open", path)
	}
	data, err := ioutil.ReadAll(in.Reader(ctx))
	if e := in.Close(ctx); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return 0, errors.E(err, "read", path)
	}
	doc := struct {
		ValidPercent float64 `json:"barcode_valid_percent"`
	}{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, errors.E(err, "parse", path)
	}
	return doc.ValidPercent, nil
}

// aggregateFeatures sums the downsampled per-barcode UMI counts per
// feature. Map rows carry the feature reference label; it is
// translated to its info label when the info file defines one.
func aggregateFeatures(ctx context.Context, path string, infoByCode map[string]string, features map[string]int) error {
	in, err := file.Open(ctx, path)
	if err != nil {
		return errors.E(err, "open", path)
	}
	defer in.Close(ctx) // nolint: errcheck
	scanner := bufio.NewScanner(in.Reader(ctx))
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) != 3 {
			return errors.E("malformed count map row:", scanner.Text())
		}
		count, err := strconv.Atoi(fields[2])
		if err != nil {
			return errors.E(err, "malformed count map row:", scanner.Text())
		}
		label := fields[1]
		if info, ok := infoByCode[label]; ok {
			label = info
		}
		features[label] += count
	}
	return scanner.Err()
}

// InfoLabels maps feature codes to their info labels.
func InfoLabels(records []fasta.InfoRecord) map[string]string {
	labels := make(map[string]string, len(records))
	for _, rec := range records {
		labels[rec.Code] = rec.Info
	}
	return labels
}

// Write emits the four summary matrices into dir. Samples become
// columns or rows in name order.
func Write(ctx context.Context, dir string, samples []Sample, segments []string) error {
	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	if err := writeTSV(ctx, filepath.Join(dir, "summary_validation.tsv"),
		append([]string{"sample"}, segments...),
		func(w *tsv.Writer) error {
			for _, s := range sorted {
				w.WriteString(s.Name)
				for _, segment := range segments {
					w.WriteFloat64(s.Valid[segment], 'f', 2)
				}
				if err := w.EndLine(); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
		return err
	}

	if err := writeTSV(ctx, filepath.Join(dir, "summary_counts.tsv"),
		[]string{"sample", "UMI Counts"},
		func(w *tsv.Writer) error {
			for _, s := range sorted {
				w.WriteString(s.Name)
				w.WriteInt64(int64(s.UMICounts))
				if err := w.EndLine(); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
		return err
	}

	if err := writeTSV(ctx, filepath.Join(dir, "summary_saturation.tsv"),
		[]string{"sample", "Sequencing Saturation"},
		func(w *tsv.Writer) error {
			for _, s := range sorted {
				w.WriteString(s.Name)
				w.WriteFloat64(s.Saturation, 'f', 2)
				if err := w.EndLine(); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
		return err
	}

	featureSet := map[string]bool{}
	for _, s := range sorted {
		for label := range s.Features {
			featureSet[label] = true
		}
	}
	features := make([]string, 0, len(featureSet))
	for label := range featureSet {
		features = append(features, label)
	}
	sort.Strings(features)

	names := make([]string, len(sorted))
	for i, s := range sorted {
		names[i] = s.Name
	}
	return writeTSV(ctx, filepath.Join(dir, "summary_features.tsv"),
		append([]string{"feature"}, names...),
		func(w *tsv.Writer) error {
			for _, label := range features {
				w.WriteString(label)
				for _, s := range sorted {
					w.WriteInt64(int64(s.Features[label]))
				}
				if err := w.EndLine(); err != nil {
					return err
				}
			}
			return nil
		})
}

func writeTSV(ctx context.Context, path string, header []string, body func(*tsv.Writer) error) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	w := tsv.NewWriter(out.Writer(ctx))
	w.WriteString(strings.Join(header, "\t"))
	err = w.EndLine()
	if err == nil {
		err = body(w)
	}
	if err == nil {
		err = w.Flush()
	}
	if e := out.Close(ctx); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return errors.E(err, "write summary", path)
	}
	return nil
}
