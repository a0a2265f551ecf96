package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dvloznov/statement-extractor/internal/logger"
	"github.com/dvloznov/statement-extractor/internal/segment"
)

// segment renders a statement PDF into per-page text files that can later be
// fed to extract via -pages-dir. Useful for inspecting what the model sees.
func main() {
	log := logger.New()

	input := flag.String("input", "", "Statement PDF path")
	outDir := flag.String("output-dir", "pages", "Directory to write page_N.txt files into")
	flag.Parse()

	if *input == "" {
		log.Fatal().Msg("Error: -input is required")
	}

	ctx := logger.WithContext(context.Background(), log)

	pages, err := segment.NewPDFSegmenter().Segment(ctx, *input)
	if err != nil {
		log.Fatal().Err(err).Msg("Segmentation failed")
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("Error creating output directory")
	}

	for _, p := range pages {
		name := filepath.Join(*outDir, fmt.Sprintf("page_%d.txt", p.Index))
		if err := os.WriteFile(name, []byte(p.Text), 0o644); err != nil {
			log.Fatal().Err(err).Str("file", name).Msg("Error writing page file")
		}
	}

	fmt.Printf("Wrote %d pages to %s\n", len(pages), *outDir)
}
