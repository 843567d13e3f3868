package saturation

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
)

const header = "Downsample Ratio\tSequencing Saturation\tUMI Types\tUMI Counts\tDuplication Ratio"

// Write writes the downsample grid as TSV.
func Write(w io.Writer, rows []Row) error {
	out := tsv.NewWriter(w)
	out.WriteString(header)
	if err := out.EndLine(); err != nil {
		return err
	}
	for _, row := range rows {
		out.WriteFloat64(row.Ratio, 'g', -1)
		out.WriteFloat64(row.Saturation, 'f', 2)
		out.WriteInt64(int64(row.UMITypes))
		out.WriteInt64(int64(row.UMIReads))
		out.WriteFloat64(row.Duplication, 'f', 2)
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	return out.Flush()
}

// WriteFile writes the downsample grid to the given path.
func WriteFile(ctx context.Context, path string, rows []Row) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	err = Write(out.Writer(ctx), rows)
	if e := out.Close(ctx); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return errors.E(err, "write downsample grid", path)
	}
	return nil
}

// Read parses a downsample grid written by Write.
func Read(r io.Reader) ([]Row, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if scanner.Err() != nil {
			return nil, scanner.Err()
		}
		return nil, errors.New("empty downsample grid")
	}
	if scanner.Text() != header {
		return nil, errors.E("unexpected downsample grid header:", scanner.Text())
	}
	var rows []Row
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) != 5 {
			return nil, errors.E("malformed downsample grid row:", scanner.Text())
		}
		var row Row
		var err error
		if row.Ratio, err = strconv.ParseFloat(fields[0], 64); err != nil {
			return nil, errors.E(err, "parse downsample grid row")
		}
		if row.Saturation, err = strconv.ParseFloat(fields[1], 64); err != nil {
			return nil, errors.E(err, "parse downsample grid row")
		}
		if row.UMITypes, err = strconv.Atoi(fields[2]); err != nil {
			return nil, errors.E(err, "parse downsample grid row")
		}
		if row.UMIReads, err = strconv.Atoi(fields[3]); err != nil {
			return nil, errors.E(err, "parse downsample grid row")
		}
		if row.Duplication, err = strconv.ParseFloat(fields[4], 64); err != nil {
			return nil, errors.E(err, "parse downsample grid row")
		}
		rows = append(rows, row)
	}
	if scanner.Err() != nil {
		return nil, scanner.Err()
	}
	return rows, nil
}

// ReadFile reads a downsample grid from the given path.
func ReadFile(ctx context.Context, path string) ([]Row, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	rows, err := Read(in.Reader(ctx))
	if e := in.Close(ctx); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return nil, errors.E(err, "read downsample grid", path)
	}
	return rows, nil
}
