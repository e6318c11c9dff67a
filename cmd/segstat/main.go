// segstat inspects a segmentation manifest: it reports the train/valid/
// test partition sizes, optionally verifies that every referenced file
// exists and decodes, and optionally writes a mask-coverage histogram.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"segset/analysis"
	"segset/dataset"
	"segset/loader"
)

func main() {
	manifest := flag.String("manifest", "", "path to the image/mask manifest CSV")
	noHeader := flag.Bool("no-header", false, "treat the first manifest row as data")
	verify := flag.Bool("verify", false, "check that every image and mask exists and decodes")
	sampleLimit := flag.Int("sample-limit", 200, "maximum number of samples to scan for coverage stats")
	out := flag.String("out", "", "if set, write a mask-coverage histogram to this path (PNG)")
	batchSize := flag.Int("batch-size", loader.DefaultBatchSize, "batch size used when reporting batch counts")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed for the train shuffle")
	flag.Parse()

	if *manifest == "" {
		log.Fatalf("-manifest is required")
	}

	cfg := loader.DefaultConfig(*manifest)
	cfg.NoHeader = *noHeader
	cfg.BatchSize = *batchSize
	cfg.Rand = rand.New(rand.NewSource(*seed))

	loaders, err := loader.New(cfg)
	if err != nil {
		log.Fatalf("failed to open manifest %s: %v", *manifest, err)
	}

	total := loaders.Train.Len() + loaders.Valid.Len() + loaders.Test.Len()
	fmt.Printf("Samples: %d\n", total)
	fmt.Printf("  train: %d (%d batches)\n", loaders.Train.Len(), loaders.Train.Batches())
	fmt.Printf("  valid: %d (%d batches)\n", loaders.Valid.Len(), loaders.Valid.Batches())
	fmt.Printf("  test:  %d (%d batches)\n", loaders.Test.Len(), loaders.Test.Batches())

	if !*verify && *out == "" {
		return
	}

	ds, err := dataset.New(dataset.Config{ManifestPath: *manifest, NoHeader: *noHeader})
	if err != nil {
		log.Fatalf("failed to reopen manifest %s: %v", *manifest, err)
	}

	if *verify {
		log.Printf("Verifying %d samples...", ds.Len())
		if err := ds.Verify(true); err != nil {
			log.Fatalf("verification failed: %v", err)
		}
		log.Printf("All files present and decodable")
	}

	if *out != "" {
		limit := min(*sampleLimit, ds.Len())
		indices := make([]int, limit)
		for i := range indices {
			indices[i] = i
		}
		coverage, err := analysis.Coverage(ds, indices)
		if err != nil {
			log.Fatalf("coverage scan failed: %v", err)
		}
		if err := analysis.SaveCoverageHistogram(*out, coverage); err != nil {
			log.Fatalf("failed to write histogram: %v", err)
		}
		log.Printf("Coverage histogram over %d samples written to %s", limit, *out)
	}
}
