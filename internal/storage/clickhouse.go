// Package storage persists window results to ClickHouse for the query API.
package storage

import (
	"context"
	"fmt"
	"log"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"FloodSight/internal/config"
	"FloodSight/internal/model"
)

const createHostsTableStatement = `
CREATE TABLE IF NOT EXISTS host_classifications (
    WindowStart   DateTime,
    WindowEnd     DateTime,
    Window        UInt32,
    IP            String,
    Cluster       Int32,
    Distance      Float64,
    Accesses      UInt32,
    SynTotal      Float64,
    DistinctPorts UInt16,
    Attacker      UInt8,
    VerticalScan  UInt8
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(WindowStart)
ORDER BY (WindowStart, IP);
`

const createWindowsTableStatement = `
CREATE TABLE IF NOT EXISTS window_summaries (
    WindowStart     DateTime,
    WindowEnd       DateTime,
    Window          UInt32,
    Classified      UInt8,
    AttackCluster   Int32,
    Hosts           UInt64,
    Attackers       UInt64,
    SuspiciousPorts Array(UInt16),
    SkippedRecords  UInt64,
    SkippedWindows  UInt64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(WindowStart)
ORDER BY WindowStart;
`

// ClickHouseWriter implements the model.ResultWriter interface for
// ClickHouse.
type ClickHouseWriter struct {
	conn driver.Conn
}

// NewClickHouseWriter connects and ensures the result tables exist.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (*ClickHouseWriter, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	for _, stmt := range []string{createHostsTableStatement, createWindowsTableStatement} {
		if err := conn.Exec(context.Background(), stmt); err != nil {
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}
	log.Println("Successfully connected to ClickHouse and ensured tables exist.")

	return &ClickHouseWriter{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
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

// Write inserts one window's host classifications and summary.
func (w *ClickHouseWriter) Write(result *model.WindowResult) error {
	ctx := context.Background()

	batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO host_classifications")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	for _, h := range result.Hosts {
		err = batch.Append(
			result.Start,
			result.End,
			uint32(result.Window),
			h.IP.String(),
			int32(h.Cluster),
			h.Distance,
			h.Accesses,
			h.SynTotal,
			uint16(h.DistinctPorts),
			boolToUInt8(h.Attacker),
			boolToUInt8(h.VerticalScan),
		)
		if err != nil {
			return fmt.Errorf("failed to append host to batch: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send host batch: %w", err)
	}

	ports := make([]uint16, 0, len(result.SuspiciousPorts))
	for _, p := range result.SuspiciousPorts {
		ports = append(ports, p.Port)
	}

	summary, err := w.conn.PrepareBatch(ctx, "INSERT INTO window_summaries")
	if err != nil {
		return fmt.Errorf("failed to prepare summary batch: %w", err)
	}
	err = summary.Append(
		result.Start,
		result.End,
		uint32(result.Window),
		boolToUInt8(result.Classified),
		int32(result.AttackCluster),
		uint64(len(result.Hosts)),
		uint64(len(result.Attackers())),
		ports,
		result.SkippedRecords,
		result.SkippedWindows,
	)
	if err != nil {
		return fmt.Errorf("failed to append summary to batch: %w", err)
	}
	if err := summary.Send(); err != nil {
		return fmt.Errorf("failed to send summary batch: %w", err)
	}

	log.Printf("Wrote window %d to ClickHouse: %d hosts, %d attackers.",
		result.Window, len(result.Hosts), len(result.Attackers()))
	return nil
}

// Close shuts down the connection.
func (w *ClickHouseWriter) Close() error {
	return w.conn.Close()
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
