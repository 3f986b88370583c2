package main

import (
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"FloodSight/internal/config"
	"FloodSight/internal/engine/graph"
	"FloodSight/internal/metrics"
	"FloodSight/internal/model"
	"FloodSight/internal/probe"
	"FloodSight/internal/report"
	"FloodSight/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to YAML configuration")
	flag.Parse()

	log.Println("Starting fs-engine...")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
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
	if cfg.ClickHouse.Enabled {
		chWriter, err := storage.NewClickHouseWriter(cfg.ClickHouse)
		if err != nil {
			log.Fatalf("Failed to create ClickHouse writer: %v", err)
		}
		defer chWriter.Close()
		writers = append(writers, chWriter)
	}

	instruments, handler := metrics.NewEngine()
	if cfg.Metrics.ListenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", handler)
		go func() {
			log.Printf("Metrics endpoint on %s/metrics", cfg.Metrics.ListenAddr)
			if err := http.ListenAndServe(cfg.Metrics.ListenAddr, mux); err != nil {
				log.Printf("Metrics server stopped: %v", err)
			}
		}()
	}

	// The graph is single-writer: the subscriber delivers on NATS
	// goroutines, so records are funneled to the one ingesting goroutine.
	// The funnel also keeps a callback still in flight during shutdown from
	// sending into a torn-down pipeline.
	funnel := probe.NewFunnel(1000)
	done := make(chan struct{})

	subscriber, err := probe.NewSubscriber(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect subscriber: %v", err)
	}
	if err := subscriber.Start(funnel.Deliver); err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	go func() {
		defer close(done)
		funnel.Consume(func(flow *model.FlowRecord) {
			result, err := g.Ingest(flow)
			if err != nil {
				if errors.Is(err, graph.ErrInvalidRecord) {
					instruments.RecordsSkipped.Inc()
					return
				}
				log.Fatalf("Ingestion failed: %v", err)
			}
			instruments.FlowsIngested.Inc()
			instruments.TrackedHosts.Set(float64(g.HostCount()))
			if result != nil {
				publish(writers, instruments, result)
			}
		})
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutdown signal received, stopping engine...")
	subscriber.Close()
	funnel.Stop()
	<-done

	if final := g.Flush(); final != nil {
		publish(writers, instruments, final)
	}
	log.Println("Shutdown complete.")
}

func publish(writers []model.ResultWriter, instruments *metrics.Engine, result *model.WindowResult) {
	if result.Classified {
		instruments.WindowsClassified.Inc()
	} else {
		instruments.WindowsSkipped.Inc()
	}
	instruments.AttackersFlagged.Add(float64(len(result.Attackers())))

	for _, w := range writers {
		if err := w.Write(result); err != nil {
			log.Printf("Failed to write result: %v", err)
		}
	}
}
