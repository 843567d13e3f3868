package fastq

import (
	"context"
	"io"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/klauspost/compress/gzip"
)

// Input is a FASTQ input file. Compressed inputs are transparently
// decompressed based on the path suffix.
type Input struct {
	path string
	f    file.File
	r    io.Reader
}

// Open opens the FASTQ file at the given path for reading.
func Open(ctx context.Context, path string) (*Input, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	var r io.Reader = f.Reader(ctx)
	if u := compress.NewReaderPath(r, path); u != nil {
		r = u
	}
	return &Input{path: path, f: f, r: r}, nil
}

// Read implements io.Reader.
func (in *Input) Read(p []byte) (int, error) { return in.r.Read(p) }

// Close closes the underlying file.
func (in *Input) Close(ctx context.Context) error {
	if err := in.f.Close(ctx); err != nil {
		return errors.E(err, "close", in.path)
	}
	return nil
}

// Output is a FASTQ output file. Paths ending in ".gz" are written
// gzip-compressed.
type Output struct {
	path string
	f    file.File
	w    io.Writer
	gz   *gzip.Writer
}

// Create creates the FASTQ file at the given path for writing.
func Create(ctx context.Context, path string) (*Output, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, errors.E(err, "create", path)
	}
	out := &Output{path: path, f: f, w: f.Writer(ctx)}
	if isGzipPath(path) {
		out.gz = gzip.NewWriter(out.w)
		out.w = out.gz
	}
	return out, nil
}

// Write implements io.Writer.
func (out *Output) Write(p []byte) (int, error) { return out.w.Write(p) }

// Close flushes any compressed stream and closes the underlying file.
func (out *Output) Close(ctx context.Context) error {
	e := errors.Once{}
	if out.gz != nil {
		if err := out.gz.Close(); err != nil {
			e.Set(errors.E(err, "gzip close", out.path))
		}
	}
	if err := out.f.Close(ctx); err != nil {
		e.Set(errors.E(err, "close", out.path))
	}
	return e.Err()
}

func isGzipPath(path string) bool {
	return len(path) > 3 && path[len(path)-3:] == ".gz"
}
