// Package history records completed quote calculations for analytics.
// ClickHouse fits the write-heavy, append-only access pattern: one row
// per priced scenario, queried by aggregate reports only.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
)

// Entry is one priced scenario of a completed calculation.
type Entry struct {
	CalculationID uuid.UUID
	ScenarioID    string
	ServiceType   string
	Region        string
	BaseCost      float64
	FinalPrice    float64
	MarginRate    float64
	RiskScore     float64
	CreatedAt     time.Time
}

// Recorder persists calculation history.
type Recorder interface {
	Record(ctx context.Context, entries []Entry) error
	Close() error
}

// Config holds ClickHouse connection configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

// DefaultConfig returns default development configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     9000,
		Database: "movequote",
		Username: "default",
	}
}

// Store implements Recorder on ClickHouse.
type Store struct {
	conn clickhouse.Conn
}

// NewStore connects to ClickHouse.
func NewStore(cfg *Config) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// EnsureSchema creates the history table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS quote_history (
			calculation_id UUID,
			scenario_id String,
			service_type String,
			region String,
			base_cost Float64,
			final_price Float64,
			margin_rate Float64,
			risk_score Float64,
			created_at DateTime
		) ENGINE = MergeTree()
		ORDER BY (created_at, calculation_id)
	`
	return s.conn.Exec(ctx, query)
}

// Record batch-inserts one row per priced scenario.
func (s *Store) Record(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO quote_history (
			calculation_id, scenario_id, service_type, region,
			base_cost, final_price, margin_rate, risk_score, created_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare history batch: %w", err)
	}
	for _, e := range entries {
		if err := batch.Append(
			e.CalculationID,
			e.ScenarioID,
			e.ServiceType,
			e.Region,
			e.BaseCost,
			e.FinalPrice,
			e.MarginRate,
			e.RiskScore,
			e.CreatedAt,
		); err != nil {
			return fmt.Errorf("append history row: %w", err)
		}
	}
	return batch.Send()
}

// Nop is a Recorder that drops everything, used when history is not
// configured.
type Nop struct{}

func (Nop) Record(context.Context, []Entry) error { return nil }
func (Nop) Close() error                          { return nil }
