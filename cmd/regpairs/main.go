package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gonum.org/v1/gonum/stat"

	"regpairs/internal/models"
	"regpairs/pkg/config"
	"regpairs/pkg/dataset"
	"regpairs/pkg/visualization"
)

func main() {
	configPath := flag.String("config", "regpairs.yaml", "YAML configuration file")
	kind := flag.String("kind", "", "Dataset kind: googledraw, mnist, brainmr or dirscan")
	root := flag.String("root", "", "Dataset root directory")
	split := flag.String("split", "", "Dataset split (train enables random augmentation)")
	height := flag.Int("height", -1, "Fixed target height for dirscan (0 scans the corpus)")
	width := flag.Int("width", -1, "Fixed target width for dirscan (0 scans the corpus)")
	previewDir := flag.String("preview-dir", "", "Directory to save moving|fixed preview strips")
	limit := flag.Int("limit", -1, "Number of samples to fetch and summarize")
	writeConfig := flag.Bool("write-config", false, "Write the effective configuration to -config and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags override the file
	if *kind != "" {
		cfg.Dataset.Kind = *kind
	}
	if *root != "" {
		cfg.Dataset.Root = *root
	}
	if *split != "" {
		cfg.Dataset.Split = *split
	}
	if *height >= 0 {
		cfg.Dataset.TargetHeight = *height
	}
	if *width >= 0 {
		cfg.Dataset.TargetWidth = *width
	}
	if *previewDir != "" {
		cfg.Output.PreviewDir = *previewDir
	}
	if *limit >= 0 {
		cfg.Output.Limit = *limit
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if *writeConfig {
		if err := config.SaveConfig(cfg, *configPath); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}
		fmt.Printf("Configuration written to %s\n", *configPath)
		return
	}

	if cfg.Dataset.Root == "" {
		flag.Usage()
		os.Exit(1)
	}

	startTime := time.Now()
	ds, err := dataset.Open(cfg.Dataset.Kind, cfg.Dataset.Root, cfg.DatasetOptions())
	if err != nil {
		log.Fatalf("Failed to open dataset: %v", err)
	}

	fmt.Printf("Dataset: %s (%s split)\n", cfg.Dataset.Kind, ds.Split())
	fmt.Printf("Root: %s\n", cfg.Dataset.Root)
	fmt.Printf("Pairs: %d\n", ds.Len())
	fmt.Printf("Target size: %v\n", ds.TargetSize())
	fmt.Printf("Opened in %.2f seconds\n\n", time.Since(startTime).Seconds())

	n := min(cfg.Output.Limit, ds.Len())
	samples := make([]*models.Sample, 0, n)
	for i := 0; i < n; i++ {
		sample, err := ds.Fetch(i)
		if err != nil {
			log.Printf("Warning: failed to fetch pair %d: %v", i, err)
			continue
		}
		samples = append(samples, sample)

		mMean, mStd := stat.MeanStdDev(sample.Moving.Data, nil)
		fMean, fStd := stat.MeanStdDev(sample.Fixed.Data, nil)
		fmt.Printf("[%d] %s -> %s  shape %v  moving %.3f±%.3f  fixed %.3f±%.3f  nS=%d\n",
			sample.Index, sample.Names[0], sample.Names[1], sample.Moving.Shape,
			mMean, mStd, fMean, fStd, sample.Aux)
	}

	if cfg.Output.PreviewDir != "" && len(samples) > 0 {
		fmt.Printf("\nSaving %d preview strips to: %s\n", len(samples), cfg.Output.PreviewDir)
		if err := visualization.SaveSampleSequence(samples, cfg.Output.PreviewDir); err != nil {
			log.Printf("Warning: failed to save previews: %v", err)
		}
	}
}
