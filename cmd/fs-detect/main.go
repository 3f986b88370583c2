package main

import (
	"errors"
	"flag"
	"io"
	"log"
	"os"

	"FloodSight/internal/config"
	"FloodSight/internal/engine/graph"
	"FloodSight/internal/model"
	"FloodSight/internal/report"
	"FloodSight/pkg/flowcsv"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration (optional)")
	filePath := flag.String("file", "-", "flow dump to process, - for stdin")
	delimiter := flag.String("delimiter", " ", "field delimiter in the flow dump")
	verbosity := flag.Int("verbosity", 0, "report verbosity 1-5 (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *verbosity > 0 {
		cfg.Report.Verbosity = *verbosity
	}

	params, err := cfg.GraphParams()
	if err != nil {
		log.Fatalf("Invalid engine parameters: %v", err)
	}
	g, err := graph.New(params)
	if err != nil {
		log.Fatalf("Failed to create graph: %v", err)
	}

	writers := []model.ResultWriter{report.NewTextWriter(os.Stdout, cfg.Report.Verbosity)}
	if cfg.Report.Gnuplot && cfg.Report.Verbosity >= report.VerboseBasic {
		dir := cfg.Report.OutputDir
		if dir == "" {
			dir = os.TempDir()
		}
		writers = append(writers, report.NewPlotWriter(dir))
	}

	reader, err := flowcsv.NewReader(*filePath)
	if err != nil {
		log.Fatalf("Failed to open flow dump: %v", err)
	}
	defer reader.Close()
	if len(*delimiter) > 0 {
		reader.SetDelimiter(rune((*delimiter)[0]))
	}

	attackers := 0
	for {
		record, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *flowcsv.ParseError
			if errors.As(err, &parseErr) {
				log.Printf("Skipping record: %v", parseErr)
				continue
			}
			log.Fatalf("Failed to read flow dump: %v", err)
		}

		result, err := g.Ingest(record)
		if err != nil {
			if errors.Is(err, graph.ErrInvalidRecord) {
				log.Printf("Skipping record: %v", err)
				continue
			}
			log.Fatalf("Ingestion failed: %v", err)
		}
		if result != nil {
			attackers += writeResult(writers, result)
		}
	}

	if final := g.Flush(); final != nil {
		attackers += writeResult(writers, final)
	}

	log.Printf("Processed %d hosts, skipped %d records, skipped %d windows.",
		g.HostCount(), g.SkippedRecords(), g.SkippedWindows())

	// Nonzero exit when attackers were found, so scripts can branch on it.
	if attackers > 0 {
		os.Exit(2)
	}
}

func writeResult(writers []model.ResultWriter, result *model.WindowResult) int {
	for _, w := range writers {
		if err := w.Write(result); err != nil {
			log.Printf("Failed to write result: %v", err)
		}
	}
	return len(result.Attackers())
}
