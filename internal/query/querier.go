// Package query reads classification results back out of ClickHouse for
// the HTTP API.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"FloodSight/internal/config"
)

// AttackerRow is one flagged host as stored in ClickHouse.
type AttackerRow struct {
	WindowStart   time.Time `json:"window_start"`
	WindowEnd     time.Time `json:"window_end"`
	IP            string    `json:"ip"`
	Cluster       int32     `json:"cluster"`
	Distance      float64   `json:"distance"`
	Accesses      uint32    `json:"accesses"`
	SynTotal      float64   `json:"syn_total"`
	DistinctPorts uint16    `json:"distinct_ports"`
}

// WindowSummaryRow is one window's stored summary.
type WindowSummaryRow struct {
	WindowStart     time.Time `json:"window_start"`
	WindowEnd       time.Time `json:"window_end"`
	Window          uint32    `json:"window"`
	Classified      bool      `json:"classified"`
	AttackCluster   int32     `json:"attack_cluster"`
	Hosts           uint64    `json:"hosts"`
	Attackers       uint64    `json:"attackers"`
	SuspiciousPorts []uint16  `json:"suspicious_ports"`
	SkippedRecords  uint64    `json:"skipped_records"`
	SkippedWindows  uint64    `json:"skipped_windows"`
}

// Querier defines the interface for querying classification results.
type Querier interface {
	Attackers(ctx context.Context, since, until time.Time) ([]AttackerRow, error)
	LatestWindow(ctx context.Context) (*WindowSummaryRow, error)
}

// clickhouseQuerier implements the Querier interface for ClickHouse.
type clickhouseQuerier struct {
	conn clickhouse.Conn
}

// NewClickHouseQuerier creates a new querier for ClickHouse.
func NewClickHouseQuerier(cfg config.ClickHouseConfig) (Querier, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	return &clickhouseQuerier{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (clickhouse.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}
	return conn, nil
}

// Attackers returns the hosts flagged as attackers in windows overlapping
// [since, until].
func (q *clickhouseQuerier) Attackers(ctx context.Context, since, until time.Time) ([]AttackerRow, error) {
	rows, err := q.conn.Query(ctx, `
		SELECT WindowStart, WindowEnd, IP, Cluster, Distance, Accesses, SynTotal, DistinctPorts
		FROM host_classifications
		WHERE Attacker = 1 AND WindowEnd >= ? AND WindowStart <= ?
		ORDER BY WindowStart, IP
	`, since, until)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var out []AttackerRow
	for rows.Next() {
		var row AttackerRow
		if err := rows.Scan(&row.WindowStart, &row.WindowEnd, &row.IP, &row.Cluster,
			&row.Distance, &row.Accesses, &row.SynTotal, &row.DistinctPorts); err != nil {
			return nil, fmt.Errorf("failed to scan attacker row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// LatestWindow returns the most recent window summary, or nil if none
// exists yet.
func (q *clickhouseQuerier) LatestWindow(ctx context.Context) (*WindowSummaryRow, error) {
	rows, err := q.conn.Query(ctx, `
		SELECT WindowStart, WindowEnd, Window, Classified, AttackCluster,
		       Hosts, Attackers, SuspiciousPorts, SkippedRecords, SkippedWindows
		FROM window_summaries
		ORDER BY WindowStart DESC
		LIMIT 1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var row WindowSummaryRow
	var classified uint8
	if err := rows.Scan(&row.WindowStart, &row.WindowEnd, &row.Window, &classified,
		&row.AttackCluster, &row.Hosts, &row.Attackers, &row.SuspiciousPorts,
		&row.SkippedRecords, &row.SkippedWindows); err != nil {
		return nil, fmt.Errorf("failed to scan window summary: %w", err)
	}
	row.Classified = classified != 0
	return &row, nil
}
