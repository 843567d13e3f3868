package main

/*
fb-count is the UMI counting stage. It tabulates reads per (composite
barcode, UMI) from the normalized pair, collapses UMIs with the
directional abundance rule, and writes the raw and corrected tables
plus the per-barcode UMI-type count maps.
*/

import (
	"context"
	"flag"
	"path/filepath"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/fbcount/config"
	"github.com/grailbio/fbcount/encoding/fasta"
	"github.com/grailbio/fbcount/encoding/fastq"
	"github.com/grailbio/fbcount/umi"
)

var (
	sampleFlag = flag.String("sample", "", "Sample name")
	inDirFlag  = flag.String("input-dir", "", "Directory holding the normalized FASTQ pair")
	outDirFlag = flag.String("output-dir", "", "Output directory for UMI tables and count maps")
	configFlag = flag.String("config", "", "Assay configuration JSON")
)

func main() {
	shutdown := grail.Init()
	defer shutdown()
	for _, f := range []struct{ name, value string }{
		{"sample", *sampleFlag}, {"input-dir", *inDirFlag},
		{"output-dir", *outDirFlag}, {"config", *configFlag},
	} {
		if f.value == "" {
			log.Fatalf("missing required flag -%s", f.name)
		}
	}
	ctx := vcontext.Background()
	cfg, err := config.Load(ctx, *configFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}
	features, err := loadFeatures(ctx, cfg.FeatureBarcodePath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	r1, err := fastq.Open(ctx, filepath.Join(*inDirFlag, *sampleFlag+"_r1.fq.gz"))
	if err != nil {
		log.Fatalf("%v", err)
	}
	r2, err := fastq.Open(ctx, filepath.Join(*inDirFlag, *sampleFlag+"_r2.fq.gz"))
	if err != nil {
		log.Fatalf("%v", err)
	}
	total, raw, err := umi.Tabulate(r1, r2, cfg.Barcode1Len(), cfg.UMILen())
	e := errors.Once{}
	e.Set(err)
	e.Set(r1.Close(ctx))
	e.Set(r2.Close(ctx))
	if e.Err() != nil {
		log.Fatalf("%v", e.Err())
	}
	log.Printf("%s: tabulated %d reads over %d composite barcodes", *sampleFlag, total, len(raw))

	corrected, parents, err := umi.CorrectTable(raw)
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("%s: corrected UMIs for %d barcodes", *sampleFlag, len(parents))

	prefix := filepath.Join(*outDirFlag, *sampleFlag)
	bounds := cfg.Barcode1Bounds()
	for _, out := range []struct {
		path string
		run  func(string) error
	}{
		{prefix + "_dic_A.json", func(p string) error { return raw.WriteJSON(ctx, p) }},
		{prefix + "_dic_B.json", func(p string) error { return corrected.WriteJSON(ctx, p) }},
		{prefix + "_correct_umi.log", func(p string) error {
			return umi.WriteCorrectionLog(ctx, p, total, parents)
		}},
		{prefix + "_per_bc_umi_count_before_correct.map", func(p string) error {
			return umi.WriteCountMap(ctx, p, raw.TypeCounts(), bounds, features, false)
		}},
		{prefix + "_per_bc_umi_count_after_correct.map", func(p string) error {
			return umi.WriteCountMap(ctx, p, corrected.TypeCounts(), bounds, features, false)
		}},
	} {
		if err := out.run(out.path); err != nil {
			log.Fatalf("%v", err)
		}
	}
	log.Printf("%s: finished UMI counting", *sampleFlag)
}

func loadFeatures(ctx context.Context, path string) (*fasta.Features, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open feature reference", path)
	}
	features, err := fasta.New(in.Reader(ctx))
	if e := in.Close(ctx); e != nil && err == nil {
		err = e
	}
	return features, err
}
