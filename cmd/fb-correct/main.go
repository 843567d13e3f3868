package main

/*
fb-correct is the barcode correction stage. For every configured
barcode segment it estimates an empirical prior from the pre-clipped
candidate FASTQ, decides a corrected barcode (and quality tier) for
every raw read, and persists the per-read decision map and correction
stats. Segments are independent and run in parallel.
*/

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/fbcount/barcode"
	"github.com/grailbio/fbcount/config"
	"github.com/grailbio/fbcount/encoding/fastq"
)

var (
	sampleFlag = flag.String("sample", "", "Sample name")
	fqDirFlag  = flag.String("fq-dir", "", "Directory holding the pre-clipped candidate FASTQs")
	r1Flag     = flag.String("r1", "", "Raw R1 FASTQ, optionally gzipped")
	r2Flag     = flag.String("r2", "", "Raw R2 FASTQ, optionally gzipped")
	logDirFlag = flag.String("log-dir", "", "Output directory for decision maps and correction stats")
	configFlag = flag.String("config", "", "Assay configuration JSON")
)

func main() {
	shutdown := grail.Init()
	defer shutdown()
	for _, f := range []struct{ name, value string }{
		{"sample", *sampleFlag}, {"fq-dir", *fqDirFlag}, {"r1", *r1Flag},
		{"r2", *r2Flag}, {"log-dir", *logDirFlag}, {"config", *configFlag},
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
	segments := cfg.Segments()
	err = traverse.Each(len(segments), func(i int) error {
		return correctSegment(ctx, segments[i])
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("%s: finished barcode correction for %d segments", *sampleFlag, len(segments))
}

func correctSegment(ctx context.Context, segment config.BarcodeSegment) error {
	wl, err := loadWhitelist(ctx, segment.WhitelistPath)
	if err != nil {
		return err
	}
	clipPath := filepath.Join(*fqDirFlag, fmt.Sprintf("%s_%s.fq.gz", *sampleFlag, segment.Name))
	if err := ensureFile(ctx, clipPath); err != nil {
		return err
	}
	in, err := fastq.Open(ctx, clipPath)
	if err != nil {
		return err
	}
	clips, err := barcode.ReadClipped(in)
	if e := in.Close(ctx); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return err
	}
	wl.EstimatePrior(clips)

	rawPath := *r1Flag
	if segment.Read == "r2" {
		rawPath = *r2Flag
	}
	raw, err := fastq.Open(ctx, rawPath)
	if err != nil {
		return err
	}
	corrector := barcode.NewCorrector(wl, clips, segment.Start, segment.End)
	decisions, stats, err := corrector.Process(raw)
	if e := raw.Close(ctx); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return err
	}

	prefix := filepath.Join(*logDirFlag, *sampleFlag+"_"+segment.Name)
	if err := barcode.WriteDecisions(ctx, prefix+".barcode.rio", decisions); err != nil {
		return err
	}
	if err := barcode.WriteStats(ctx, prefix+".barcode.info", stats); err != nil {
		return err
	}
	log.Printf("%s %s: %d reads, %.2f%% valid barcodes",
		*sampleFlag, segment.Name, stats.TotalReads, stats.ValidPercent())
	return nil
}

func loadWhitelist(ctx context.Context, path string) (*barcode.Whitelist, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	wl, err := barcode.LoadWhitelist(in.Reader(ctx))
	if e := in.Close(ctx); e != nil && err == nil {
		err = e
	}
	return wl, err
}

// ensureFile creates an empty pre-clipped placeholder when the
// upstream linker stage produced nothing for this segment, so the
// whole run can proceed with positional extraction only.
func ensureFile(ctx context.Context, path string) error {
	if _, err := file.Stat(ctx, path); err == nil {
		return nil
	}
	log.Printf("%s: missing pre-clipped file, creating empty placeholder", path)
	out, err := fastq.Create(ctx, path)
	if err != nil {
		return err
	}
	return out.Close(ctx)
}
