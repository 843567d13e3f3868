package main

/*
fb-summary rolls completed samples up into cross-sample matrices. It
expects the per-sample layout produced by the earlier stages:

	{dir}/{sample}/00_logs/{sample}_{segment}.barcode.info
	{dir}/{sample}/03_counts/{sample}_Downsample.tsv
	{dir}/{sample}/03_counts/{sample}_per_bc_umi_count_after_downsample.map

and writes summary_{validation,counts,saturation,features}.tsv into
{dir}/00_summary.
*/

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/fbcount/config"
	"github.com/grailbio/fbcount/encoding/fasta"
	"github.com/grailbio/fbcount/summary"
)

var (
	samplesFlag = flag.String("samples", "", "Whitespace-separated sample names")
	dirFlag     = flag.String("dir", "", "Root directory holding the per-sample artifacts")
	configFlag  = flag.String("config", "", "Assay configuration JSON")
)

func main() {
	shutdown := grail.Init()
	defer shutdown()
	for _, f := range []struct{ name, value string }{
		{"samples", *samplesFlag}, {"dir", *dirFlag}, {"config", *configFlag},
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
	segments := []string{}
	for _, segment := range cfg.Segments() {
		segments = append(segments, segment.Name)
	}

	infoByCode := map[string]string{}
	if cfg.FeatureInfoPath != "" {
		records, err := loadInfo(ctx, cfg.FeatureInfoPath)
		if err != nil {
			log.Fatalf("%v", err)
		}
		infoByCode = summary.InfoLabels(records)
	}

	var samples []summary.Sample
	for _, name := range strings.Fields(*samplesFlag) {
		s, err := summary.Collect(ctx, *dirFlag, name, segments, infoByCode)
		if err != nil {
			log.Fatalf("%v", err)
		}
		samples = append(samples, s)
	}

	outDir := filepath.Join(*dirFlag, "00_summary")
	if err := os.MkdirAll(outDir, 0777); err != nil {
		log.Fatalf("%v", err)
	}
	if err := summary.Write(ctx, outDir, samples, segments); err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("summarized %d samples into %s", len(samples), outDir)
}

func loadInfo(ctx context.Context, path string) ([]fasta.InfoRecord, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open feature info", path)
	}
	records, err := fasta.ReadInfo(in.Reader(ctx))
	if e := in.Close(ctx); e != nil && err == nil {
		err = e
	}
	return records, err
}
