package storage

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"biogasd/internal/model"
)

type sqliteStore struct {
	baseStore
}

func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:biogasd.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &sqliteStore{baseStore{db: db}}, nil
}

func (s *sqliteStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS readings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts TEXT NOT NULL,
			reading_id INTEGER NOT NULL,
			device_id TEXT NOT NULL,
			temperature REAL,
			pressure REAL,
			methane REAL,
			gas_consumption REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_readings_ts ON readings(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_readings_device ON readings(device_id)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			alert_id TEXT NOT NULL,
			ts TEXT NOT NULL,
			severity TEXT NOT NULL,
			message TEXT NOT NULL,
			reading_id INTEGER NOT NULL,
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

func (s *sqliteStore) SaveReading(ctx context.Context, r model.Reading) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO readings (ts, reading_id, device_id, temperature, pressure, methane, gas_consumption)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
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

func (s *sqliteStore) SaveAlert(ctx context.Context, alert model.Alert) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (alert_id, ts, severity, message, reading_id, device_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		alert.ID,
		alert.Timestamp.UTC(),
		string(alert.Severity),
		alert.Message,
		alert.ReadingID,
		alert.DeviceID,
	)
	return err
}
