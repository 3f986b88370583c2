package main

import (
	"errors"
	"flag"
	"io"
	"log"

	"FloodSight/internal/config"
	"FloodSight/internal/probe"
	"FloodSight/pkg/flowcsv"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to YAML configuration")
	filePath := flag.String("file", "-", "flow dump to replay, - for stdin")
	delimiter := flag.String("delimiter", " ", "field delimiter in the flow dump")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	publisher, err := probe.NewPublisher(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect publisher: %v", err)
	}
	defer publisher.Close()

	reader, err := flowcsv.NewReader(*filePath)
	if err != nil {
		log.Fatalf("Failed to open flow dump: %v", err)
	}
	defer reader.Close()
	if len(*delimiter) > 0 {
		reader.SetDelimiter(rune((*delimiter)[0]))
	}

	published, skipped := 0, 0
	for {
		record, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *flowcsv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			log.Fatalf("Failed to read flow dump: %v", err)
		}
		if err := publisher.Publish(record); err != nil {
			log.Fatalf("Failed to publish record: %v", err)
		}
		published++
	}

	log.Printf("Replayed %d flow records (%d malformed lines skipped).", published, skipped)
}
