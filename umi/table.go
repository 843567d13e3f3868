package umi

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/fbcount/encoding/fasta"
)

// WriteJSON persists the table as an indented JSON document with
// sorted keys.
func (t Table) WriteJSON(ctx context.Context, path string) error {
	data, err := json.MarshalIndent(t, "", "    ")
	if err != nil {
		return err
	}
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	_, err = out.Writer(ctx).Write(append(data, '\n'))
	if e := out.Close(ctx); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return errors.E(err, "write table", path)
	}
	return nil
}

// ReadJSON loads a table written by WriteJSON.
func ReadJSON(ctx context.Context, path string) (Table, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	data, err := ioutil.ReadAll(in.Reader(ctx))
	if e := in.Close(ctx); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return nil, errors.E(err, "read table", path)
	}
	tbl := Table{}
	if err := json.Unmarshal(data, &tbl); err != nil {
		return nil, errors.E(err, "parse table", path)
	}
	return tbl, nil
}

// RenderBarcode1 splits a composite barcode1 at the given cumulative
// segment bounds and joins the parts with '+'.
func RenderBarcode1(barcode1 string, bounds []int) string {
	if len(bounds) <= 1 {
		return barcode1
	}
	parts := make([]string, 0, len(bounds))
	start := 0
	for _, end := range bounds {
		if end > len(barcode1) {
			end = len(barcode1)
		}
		parts = append(parts, barcode1[start:end])
		start = end
	}
	return strings.Join(parts, "+")
}

// WriteCountMap writes per-barcode UMI-type counts as TSV rows of
// "barcode1 \t feature label \t count". Barcode1 segments are joined
// with '+'; the feature barcode is translated to its reference label.
// Rows are ordered by count (ties by barcode) ascending, or
// descending when descending is set.
func WriteCountMap(ctx context.Context, path string, typeCounts map[string]int, bounds []int, features *fasta.Features, descending bool) error {
	type row struct {
		barcode string
		count   int
	}
	rows := make([]row, 0, len(typeCounts))
	for bc, n := range typeCounts {
		rows = append(rows, row{bc, n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			if descending {
				return rows[i].count > rows[j].count
			}
			return rows[i].count < rows[j].count
		}
		return rows[i].barcode < rows[j].barcode
	})

	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	w := tsv.NewWriter(out.Writer(ctx))
	for _, r := range rows {
		parts := strings.SplitN(r.barcode, "_", 2)
		if len(parts) != 2 {
			return errors.E("malformed composite barcode:", r.barcode)
		}
		label, ok := features.Label(parts[1])
		if !ok {
			return errors.E("feature barcode not in reference:", parts[1])
		}
		w.WriteString(RenderBarcode1(parts[0], bounds))
		w.WriteString(label)
		w.WriteInt64(int64(r.count))
		if err := w.EndLine(); err != nil {
			return errors.E(err, "write", path)
		}
	}
	e := errors.Once{}
	e.Set(w.Flush())
	e.Set(out.Close(ctx))
	return e.Err()
}

// WriteCorrectionLog persists the UMI correction audit: the total
// read count and the per-barcode collapse mappings.
func WriteCorrectionLog(ctx context.Context, path string, totalReads int, parents map[string]map[string]string) error {
	doc := struct {
		TotalReads int                          `json:"total_reads"`
		Corrected  map[string]map[string]string `json:"correct_umi_stat"`
	}{totalReads, parents}
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return err
	}
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	_, err = out.Writer(ctx).Write(append(data, '\n'))
	if e := out.Close(ctx); e != nil && err == nil {
		err = e
	}
	return err
}
