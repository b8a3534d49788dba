package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"customtex/internal/batch"
	"customtex/internal/cli"
	"customtex/internal/customs"
	"customtex/internal/texture"
	"customtex/internal/variant"
)

func main() {
	var common cli.Common
	common.Register(flag.CommandLine)
	outputDir := flag.String("output", "", "Output directory (default: <mixtape>-previews)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	maxSize := flag.Int("max", 0, "Longest preview edge in pixels (default: source size)")
	trim := flag.Bool("trim", false, "Crop transparent margins")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: texdump [flags] <mixtape dir or archive>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	src := flag.Arg(0)

	cfg, log, err := common.Load()
	if err != nil {
		cli.Fatal("%v", err)
	}
	mt, err := cli.Open(src, cfg, log)
	if err != nil {
		cli.Fatal("%v", err)
	}
	defer mt.Close()

	catalog, err := common.Catalog(mt.Dir)
	if err != nil {
		cli.Fatal("%v", err)
	}
	dirs, err := customs.Discover(mt.Dir)
	if err != nil {
		cli.Fatal("%v", err)
	}

	variants := variant.NewRegistry(catalog)
	var jobs []batch.Job
	for _, dir := range dirs.Textures {
		idx := texture.BuildIndex(dir, catalog, variants)
		for _, s := range idx.Skipped {
			log.Warn("skipping texture", "file", s.Local, "reason", s.Reason, "did_you_mean", s.Hint)
		}
		for _, f := range idx.Files {
			job := batch.Job{File: f}
			if f.Variant != variant.Base {
				job.Variant = variants.Name(f.Scene, f.Variant)
			}
			jobs = append(jobs, job)
		}
	}
	if len(jobs) == 0 {
		fmt.Println("No textures to preview.")
		return
	}

	if *outputDir == "" {
		*outputDir = filepath.Clean(src) + "-previews"
	}
	if *workers <= 0 {
		*workers = runtime.NumCPU()
	}
	fmt.Printf("Textures: %d, Workers: %d\n", len(jobs), *workers)
	fmt.Printf("Output: %s\n", *outputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()
	results := batch.Run(batch.Config{
		OutputDir: *outputDir,
		MaxSize:   *maxSize,
		Trim:      *trim,
		Workers:   *workers,
		Progress:  os.Stdout,
	}, jobs)

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", time.Since(start).Seconds())

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
			fmt.Printf("  %s: %s\n", r.Local, r.Error)
		}
	}
	fmt.Printf("Written: %d/%d\n", len(results)-failed, len(results))

	manifestPath := filepath.Join(*outputDir, "manifest.json")
	os.MkdirAll(*outputDir, 0o755)
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if failed > 0 {
		mt.Close()
		os.Exit(1)
	}
}
