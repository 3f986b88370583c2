package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"FloodSight/internal/engine/graph"
)

// EngineConfig holds the detection parameters.
type EngineConfig struct {
	Modes           []string `yaml:"modes"` // synflood, vertical, horizontal, all
	Track           string   `yaml:"track"` // dst (default) or src
	Clusters        int      `yaml:"clusters"`
	Interval        string   `yaml:"interval"`
	TimeWindow      string   `yaml:"time_window"`
	PortWindow      string   `yaml:"port_window"`
	FlushIter       int      `yaml:"flush_iter"`
	ExamThreshold   uint32   `yaml:"exam_threshold"`
	PortThreshold   int      `yaml:"port_threshold"`
	MinObservations int      `yaml:"min_observations"`
	MaxIterations   int      `yaml:"max_iterations"`
	HorizontalScale float64  `yaml:"horizontal_scale"`
}

// NATSConfig holds the flow transport settings.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// ClickHouseConfig holds the result store settings.
type ClickHouseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// APIConfig holds the query API settings.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// MetricsConfig holds the prometheus endpoint settings.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// ReportConfig holds the reporting settings.
type ReportConfig struct {
	Verbosity int    `yaml:"verbosity"` // 1..5
	OutputDir string `yaml:"output_dir"`
	Gnuplot   bool   `yaml:"gnuplot"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Engine     EngineConfig     `yaml:"engine"`
	NATS       NATSConfig       `yaml:"nats"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	API        APIConfig        `yaml:"api"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Report     ReportConfig     `yaml:"report"`
}

// LoadConfig reads the configuration from a YAML file and returns a Config
// struct with defaults applied.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every field at its default.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if len(c.Engine.Modes) == 0 {
		c.Engine.Modes = []string{"all"}
	}
	if c.Engine.Track == "" {
		c.Engine.Track = "dst"
	}
	if c.Engine.Clusters == 0 {
		c.Engine.Clusters = graph.DefaultClusters
	}
	if c.Engine.Interval == "" {
		c.Engine.Interval = graph.DefaultInterval.String()
	}
	if c.Engine.TimeWindow == "" {
		c.Engine.TimeWindow = graph.DefaultTimeWindow.String()
	}
	if c.Engine.PortWindow == "" {
		c.Engine.PortWindow = graph.DefaultPortWindow.String()
	}
	if c.Engine.ExamThreshold == 0 {
		c.Engine.ExamThreshold = graph.DefaultExamThreshold
	}
	if c.Engine.PortThreshold == 0 {
		c.Engine.PortThreshold = graph.DefaultPortThreshold
	}
	if c.Engine.MinObservations == 0 {
		c.Engine.MinObservations = graph.DefaultMinObservations
	}
	if c.Engine.MaxIterations == 0 {
		c.Engine.MaxIterations = graph.DefaultMaxIterations
	}
	if c.Engine.HorizontalScale == 0 {
		c.Engine.HorizontalScale = graph.DefaultHorizontalScale
	}
	if c.Report.Verbosity == 0 {
		c.Report.Verbosity = 1
	}
}

// GraphParams converts the engine section into graph parameters.
func (c *Config) GraphParams() (graph.Params, error) {
	p := graph.DefaultParams()

	var mode graph.Mode
	for _, m := range c.Engine.Modes {
		switch strings.ToLower(strings.TrimSpace(m)) {
		case "synflood":
			mode |= graph.ModeSynFlood
		case "vertical":
			mode |= graph.ModeVerticalScan
		case "horizontal":
			mode |= graph.ModeHorizontalScan
		case "all":
			mode = graph.ModeAll
		default:
			return p, fmt.Errorf("unknown detection mode %q", m)
		}
	}
	p.Mode = mode

	switch strings.ToLower(c.Engine.Track) {
	case "dst":
		p.Track = graph.TrackDst
	case "src":
		p.Track = graph.TrackSrc
	default:
		return p, fmt.Errorf("unknown track side %q, want dst or src", c.Engine.Track)
	}

	var err error
	if p.Interval, err = parseSeconds(c.Engine.Interval); err != nil {
		return p, fmt.Errorf("engine.interval: %w", err)
	}
	if p.TimeWindow, err = parseSeconds(c.Engine.TimeWindow); err != nil {
		return p, fmt.Errorf("engine.time_window: %w", err)
	}
	if p.PortWindow, err = parseSeconds(c.Engine.PortWindow); err != nil {
		return p, fmt.Errorf("engine.port_window: %w", err)
	}

	p.Clusters = c.Engine.Clusters
	p.FlushIter = c.Engine.FlushIter
	p.ExamThreshold = c.Engine.ExamThreshold
	p.PortThreshold = c.Engine.PortThreshold
	p.MinObservations = c.Engine.MinObservations
	p.MaxIterations = c.Engine.MaxIterations
	p.HorizontalScale = c.Engine.HorizontalScale

	return p, p.Validate()
}

// parseSeconds accepts either a Go duration string ("60s", "1h") or a bare
// number of seconds, matching the original CLI.
func parseSeconds(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	var secs int64
	if _, err := fmt.Sscanf(s, "%d", &secs); err != nil {
		return 0, fmt.Errorf("not a duration: %q", s)
	}
	return time.Duration(secs) * time.Second, nil
}
