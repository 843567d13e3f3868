package main

/*
fb-rewrite is the read rewriting stage. It combines the raw read pair
with the per-segment barcode decisions and emits the normalized
FASTQ pair: R1 = corrected barcode1 + UMI, R2 = corrected feature
barcode. Reads with any uncorrectable barcode segment are dropped.
*/

import (
	"flag"
	"path/filepath"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/fbcount/barcode"
	"github.com/grailbio/fbcount/config"
	"github.com/grailbio/fbcount/encoding/fastq"
	"github.com/grailbio/fbcount/rewrite"
)

var (
	sampleFlag = flag.String("sample", "", "Sample name")
	r1Flag     = flag.String("r1", "", "Raw R1 FASTQ, optionally gzipped")
	r2Flag     = flag.String("r2", "", "Raw R2 FASTQ, optionally gzipped")
	logDirFlag = flag.String("log-dir", "", "Directory holding the decision maps written by fb-correct")
	outDirFlag = flag.String("out-dir", "", "Output directory for the normalized FASTQ pair")
	configFlag = flag.String("config", "", "Assay configuration JSON")
)

func main() {
	shutdown := grail.Init()
	defer shutdown()
	for _, f := range []struct{ name, value string }{
		{"sample", *sampleFlag}, {"r1", *r1Flag}, {"r2", *r2Flag},
		{"log-dir", *logDirFlag}, {"out-dir", *outDirFlag}, {"config", *configFlag},
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

	loadMaps := func(segments []config.BarcodeSegment) []map[string]barcode.Decision {
		maps := make([]map[string]barcode.Decision, len(segments))
		for i, segment := range segments {
			path := filepath.Join(*logDirFlag, *sampleFlag+"_"+segment.Name+".barcode.rio")
			m, err := barcode.ReadDecisions(ctx, path)
			if err != nil {
				log.Fatalf("%v", err)
			}
			maps[i] = m
		}
		return maps
	}
	b1Maps := loadMaps(cfg.Barcode1)
	b2Maps := loadMaps(cfg.Barcode2)

	rawR1, err := fastq.Open(ctx, *r1Flag)
	if err != nil {
		log.Fatalf("%v", err)
	}
	rawR2, err := fastq.Open(ctx, *r2Flag)
	if err != nil {
		log.Fatalf("%v", err)
	}
	outR1, err := fastq.Create(ctx, filepath.Join(*outDirFlag, *sampleFlag+"_r1.fq.gz"))
	if err != nil {
		log.Fatalf("%v", err)
	}
	outR2, err := fastq.Create(ctx, filepath.Join(*outDirFlag, *sampleFlag+"_r2.fq.gz"))
	if err != nil {
		log.Fatalf("%v", err)
	}

	rw := rewrite.New(cfg, b1Maps, b2Maps)
	total, valid, err := rw.Run(rawR1, rawR2, outR1, outR2)
	e := errors.Once{}
	e.Set(err)
	e.Set(rawR1.Close(ctx))
	e.Set(rawR2.Close(ctx))
	e.Set(outR1.Close(ctx))
	e.Set(outR2.Close(ctx))
	if e.Err() != nil {
		log.Fatalf("%v", e.Err())
	}
	log.Printf("%s: total reads: %d, valid reads: %d", *sampleFlag, total, valid)
}
