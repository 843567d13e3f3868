package main

/*
fb-saturate is the saturation estimation stage. It expands the
corrected UMI table into its read pool, downsamples it across the
fixed ratio grid, writes the grid, and persists the snapshot at the
optimal (maximum saturation) ratio for downstream aggregation.
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
	"github.com/grailbio/fbcount/saturation"
	"github.com/grailbio/fbcount/umi"
)

var (
	sampleFlag = flag.String("sample", "", "Sample name")
	inDirFlag  = flag.String("input-dir", "", "Directory holding the corrected UMI table")
	outDirFlag = flag.String("output-dir", "", "Output directory for the downsample grid and optimal snapshot")
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

	corrected, err := umi.ReadJSON(ctx, filepath.Join(*inDirFlag, *sampleFlag+"_dic_B.json"))
	if err != nil {
		log.Fatalf("%v", err)
	}
	pool := saturation.NewPool(corrected)
	log.Printf("%s: downsampling a pool of %d reads", *sampleFlag, pool.Size())
	rows := pool.Grid()

	prefix := filepath.Join(*outDirFlag, *sampleFlag)
	if err := saturation.WriteFile(ctx, prefix+"_Downsample.tsv", rows); err != nil {
		log.Fatalf("%v", err)
	}

	optimal := rows[saturation.Optimal(rows)]
	log.Printf("%s: optimal ratio %g: saturation %.2f%%, %d UMI reads, duplication %.2f%%",
		*sampleFlag, optimal.Ratio, optimal.Saturation, optimal.UMIReads, optimal.Duplication)

	snapshot := pool.SampleTable(optimal.Ratio)
	if err := snapshot.WriteJSON(ctx, prefix+"_dic_after_downsample.json"); err != nil {
		log.Fatalf("%v", err)
	}
	err = umi.WriteCountMap(ctx, prefix+"_per_bc_umi_count_after_downsample.map",
		snapshot.TypeCounts(), cfg.Barcode1Bounds(), features, true)
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("%s: finished saturation estimation", *sampleFlag)
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
