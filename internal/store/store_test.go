package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

func TestApplyOptions(t *testing.T) {
	cfg, err := pgxpool.ParseConfig("postgres://u:p@localhost:5432/db")
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	applyOptions(cfg, Options{
		MaxConns:               12,
		MinConns:               3,
		MaxConnIdleTime:        time.Minute,
		MaxConnLifetime:        time.Hour,
		StatementCacheCapacity: 64,
	})
	if cfg.MaxConns != 12 || cfg.MinConns != 3 {
		t.Fatalf("pool sizes = %d/%d, want 12/3", cfg.MaxConns, cfg.MinConns)
	}
	if cfg.MaxConnIdleTime != time.Minute || cfg.MaxConnLifetime != time.Hour {
		t.Fatalf("pool lifetimes not applied")
	}
	if cfg.ConnConfig.DefaultQueryExecMode != pgx.QueryExecModeCacheStatement {
		t.Fatalf("exec mode = %v, want cache statement", cfg.ConnConfig.DefaultQueryExecMode)
	}
	if cfg.ConnConfig.StatementCacheCapacity != 64 {
		t.Fatalf("statement cache = %d, want 64", cfg.ConnConfig.StatementCacheCapacity)
	}
}

func TestNewInvalidURL(t *testing.T) {
	_, err := New(context.Background(), "://not-a-url", Options{Logger: zerolog.Nop()})
	if err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNilStore(t *testing.T) {
	var s *Store
	s.Close()
	if s.Stats() != nil {
		t.Fatalf("Stats() on nil store should be nil")
	}
	if err := s.HealthCheck(context.Background()); err == nil {
		t.Fatalf("HealthCheck() on nil store should fail")
	}
}
