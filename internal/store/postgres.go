// Package store persists signed quotes so a client can come back to a
// previously issued price within its validity window.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"movequote/internal/secure"
)

// QuoteRecord is a persisted, signed quote.
type QuoteRecord struct {
	ID           uuid.UUID           `json:"id"`
	ServiceType  string              `json:"service_type"`
	Region       string              `json:"region"`
	BaseCost     float64             `json:"base_cost"`
	SecuredPrice secure.SecuredPrice `json:"secured_price"`
	CreatedAt    time.Time           `json:"created_at"`
}

// QuoteStore persists and retrieves signed quotes.
type QuoteStore interface {
	Save(ctx context.Context, rec QuoteRecord) error
	Get(ctx context.Context, id uuid.UUID) (*QuoteRecord, error)
	Close() error
}

// Postgres implements QuoteStore on PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a connection pool from a DSN.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(time.Hour)
	return &Postgres{db: db}, nil
}

// Ping checks database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// EnsureSchema creates the quotes table when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS quotes (
			id UUID PRIMARY KEY,
			service_type TEXT NOT NULL,
			region TEXT NOT NULL,
			base_cost NUMERIC(12,2) NOT NULL,
			secured_price JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

// Save inserts a quote record.
func (p *Postgres) Save(ctx context.Context, rec QuoteRecord) error {
	payload, err := json.Marshal(rec.SecuredPrice)
	if err != nil {
		return fmt.Errorf("marshal secured price: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO quotes (id, service_type, region, base_cost, secured_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.ID, rec.ServiceType, rec.Region, rec.BaseCost, payload, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert quote: %w", err)
	}
	return nil
}

// Get retrieves a quote record by id. Returns (nil, nil) when absent.
func (p *Postgres) Get(ctx context.Context, id uuid.UUID) (*QuoteRecord, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, service_type, region, base_cost, secured_price, created_at
		FROM quotes WHERE id = $1
	`, id)

	var rec QuoteRecord
	var payload []byte
	err := row.Scan(&rec.ID, &rec.ServiceType, &rec.Region, &rec.BaseCost, &payload, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if err := json.Unmarshal(payload, &rec.SecuredPrice); err != nil {
		return nil, fmt.Errorf("decode secured price: %w", err)
	}
	return &rec, nil
}
