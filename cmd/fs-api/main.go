package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"FloodSight/internal/config"
	"FloodSight/internal/query"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to YAML configuration")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if !cfg.ClickHouse.Enabled {
		log.Fatalf("ClickHouse is not enabled in config. API server cannot start.")
	}

	querier, err := query.NewClickHouseQuerier(cfg.ClickHouse)
	if err != nil {
		log.Fatalf("Failed to create querier: %v", err)
	}

	apiHandler := &APIHandler{querier: querier}

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/attackers", apiHandler.attackersHandler).Methods("GET")
	r.HandleFunc("/api/v1/windows/latest", apiHandler.latestWindowHandler).Methods("GET")

	server := &http.Server{
		Addr:    cfg.API.ListenAddr,
		Handler: r,
	}

	go func() {
		log.Printf("API server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", server.Addr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("API server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("API server exited.")
}

// APIHandler holds the dependencies for API handlers.
type APIHandler struct {
	querier query.Querier
}

// attackersHandler lists flagged hosts for a time range, defaulting to the
// last 24 hours. The since/until parameters accept RFC3339 or unix seconds.
func (h *APIHandler) attackersHandler(w http.ResponseWriter, r *http.Request) {
	until := time.Now()
	since := until.Add(-24 * time.Hour)

	var err error
	if v := r.URL.Query().Get("since"); v != "" {
		if since, err = parseTime(v); err != nil {
			http.Error(w, "bad since parameter: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	if v := r.URL.Query().Get("until"); v != "" {
		if until, err = parseTime(v); err != nil {
			http.Error(w, "bad until parameter: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	rows, err := h.querier.Attackers(r.Context(), since, until)
	if err != nil {
		http.Error(w, "query failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"attackers": rows})
}

// latestWindowHandler returns the most recent window summary.
func (h *APIHandler) latestWindowHandler(w http.ResponseWriter, r *http.Request) {
	row, err := h.querier.LatestWindow(r.Context())
	if err != nil {
		http.Error(w, "query failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if row == nil {
		http.Error(w, "no windows recorded yet", http.StatusNotFound)
		return
	}
	writeJSON(w, row)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0), nil
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
