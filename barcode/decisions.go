package barcode

// Decision maps are persisted between the correction and rewriting
// stages as zstd-compressed recordio files of gob-encoded records,
// one per read.

import (
	"bytes"
	"context"
	"encoding/gob"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
)

const (
	// <decisionVersionHeader, decisionVersion> is stored in the
	// recordio header.
	decisionVersionHeader = "fbcountversion"
	decisionVersion       = "FBCOUNT_BC_V1"
)

type decisionRecord struct {
	Name string
	Seq  string
	Tier byte
}

// WriteDecisions persists a per-read decision map. Records are
// written in sorted name order so identical maps produce identical
// files.
func WriteDecisions(ctx context.Context, path string, decisions map[string]Decision) error {
	recordiozstd.Init()
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	w := recordio.NewWriter(out.Writer(ctx), recordio.WriterOpts{
		Transformers: []string{recordiozstd.Name},
	})
	w.AddHeader(decisionVersionHeader, decisionVersion)

	names := make([]string, 0, len(decisions))
	for name := range decisions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d := decisions[name]
		buf := bytes.Buffer{}
		if err := gob.NewEncoder(&buf).Encode(decisionRecord{Name: name, Seq: d.Seq, Tier: d.Tier}); err != nil {
			return errors.E(err, "encode decision", name)
		}
		w.Append(buf.Bytes())
	}
	e := errors.Once{}
	e.Set(w.Finish())
	e.Set(out.Close(ctx))
	if e.Err() != nil {
		return errors.E(e.Err(), "write decisions", path)
	}
	return nil
}

// ReadDecisions loads a decision map written by WriteDecisions.
func ReadDecisions(ctx context.Context, path string) (map[string]Decision, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	recordiozstd.Init()
	r := recordio.NewScanner(in.Reader(ctx), recordio.ScannerOpts{})
	versionFound := false
	for _, kv := range r.Header() {
		if kv.Key == decisionVersionHeader {
			if kv.Value.(string) != decisionVersion {
				return nil, errors.E("decision file version mismatch:", path,
					"got", kv.Value.(string), "want", decisionVersion)
			}
			versionFound = true
			break
		}
	}
	if !versionFound {
		return nil, errors.E(decisionVersionHeader, "not found in", path)
	}
	decisions := map[string]Decision{}
	for r.Scan() {
		rec := decisionRecord{}
		if err := gob.NewDecoder(bytes.NewReader(r.Get().([]byte))).Decode(&rec); err != nil {
			return nil, errors.E(err, "decode decision record", path)
		}
		decisions[rec.Name] = Decision{Seq: rec.Seq, Tier: rec.Tier}
	}
	e := errors.Once{}
	e.Set(r.Err())
	e.Set(in.Close(ctx))
	if e.Err() != nil {
		return nil, errors.E(e.Err(), "read decisions", path)
	}
	return decisions, nil
}
