package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"biogasd/internal/config"
	"biogasd/internal/model"
)

// Store persists readings and alerts for offline analysis. All writes are
// best-effort from the caller's point of view: the live session never
// blocks on them.
type Store interface {
	Init(ctx context.Context) error
	Close() error
	SaveReading(ctx context.Context, r model.Reading) error
	SaveAlert(ctx context.Context, alert model.Alert) error
}

func NewStore(cfg config.StorageConfig) (Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		return NewSQLite(cfg.DSN)
	case "postgres", "postgresql":
		return NewPostgres(cfg.DSN)
	default:
		return nil, errors.New("unsupported storage driver")
	}
}

type baseStore struct {
	db *sql.DB
}

func (b *baseStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
