package storage

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"biogasd/internal/model"
)

type postgresStore struct {
	baseStore
}

func NewPostgres(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "postgres://localhost:5432/biogasd?sslmode=disable"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &postgresStore{baseStore{db: db}}, nil
}

func (s *postgresStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS readings (
			id BIGSERIAL PRIMARY KEY,
			ts TIMESTAMPTZ NOT NULL,
			reading_id BIGINT NOT NULL,
			device_id TEXT NOT NULL,
			temperature DOUBLE PRECISION,
			pressure DOUBLE PRECISION,
			methane DOUBLE PRECISION,
			gas_consumption DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_readings_ts ON readings(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_readings_device ON readings(device_id)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id BIGSERIAL PRIMARY KEY,
			alert_id TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL,
			severity TEXT NOT NULL,
			message TEXT NOT NULL,
			reading_id BIGINT NOT NULL,
			device_id TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_ts ON alerts(ts)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *postgresStore) SaveReading(ctx context.Context, r model.Reading) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO readings (ts, reading_id, device_id, temperature, pressure, methane, gas_consumption)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.Timestamp.UTC(),
		r.ReadingID,
		r.DeviceID,
		nullFloat(r.Temperature),
		nullFloat(r.Pressure),
		nullFloat(r.Methane),
		nullFloat(r.GasConsumption),
	)
	return err
}

func (s *postgresStore) SaveAlert(ctx context.Context, alert model.Alert) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (alert_id, ts, severity, message, reading_id, device_id)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		alert.ID,
		alert.Timestamp.UTC(),
		string(alert.Severity),
		alert.Message,
		alert.ReadingID,
		alert.DeviceID,
	)
	return err
}
