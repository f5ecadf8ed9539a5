package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"clearoute/internal/domain/entity"
	"clearoute/internal/domain/port"
)

// legacyTimeLayout формат меток времени в базах, созданных прежним сервером.
const legacyTimeLayout = "2006-01-02 15:04:05"

// SQLiteObservationRepository журнал аудита в локальном файле SQLite.
type SQLiteObservationRepository struct {
	db  *sql.DB
	log *zap.Logger
}

// NewSQLiteObservationRepository открывает (или создаёт) файл базы и
// создаёт таблицу traffic_data, если её ещё нет. Вызывающий обязан закрыть хранилище.
func NewSQLiteObservationRepository(dbPath string, log *zap.Logger) (*SQLiteObservationRepository, error) {
	// Драйвер modernc.org написан на чистом Go и не требует CGO.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Вставки сериализуются на одном соединении.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	r := &SQLiteObservationRepository{db: db, log: log}
	if err := r.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migration: %w", err)
	}
	return r, nil
}

func (r *SQLiteObservationRepository) migrate() error {
	const stmt = `
CREATE TABLE IF NOT EXISTS traffic_data (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp TEXT NOT NULL,
    source    TEXT NOT NULL,
    potholes  INTEGER NOT NULL CHECK (potholes >= 0),
    quality   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_traffic_data_source ON traffic_data(source);
`
	if _, err := r.db.Exec(stmt); err != nil {
		return fmt.Errorf("create traffic_data table: %w", err)
	}
	r.log.Info("SQLite migration applied")
	return nil
}

// Append вставляет одну запись.
func (r *SQLiteObservationRepository) Append(ctx context.Context, obs entity.Observation) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO traffic_data (timestamp, source, potholes, quality) VALUES (?, ?, ?, ?)`,
		obs.Timestamp.UTC().Format(time.RFC3339Nano), obs.Source, obs.DefectCount, string(obs.Quality))
	if err != nil {
		return 0, &entity.StoreError{Op: "append", Err: fmt.Errorf("insert observation: %w", err)}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, &entity.StoreError{Op: "append", Err: fmt.Errorf("last insert id: %w", err)}
	}

	r.log.Debug("observation persisted",
		zap.Int64("id", id),
		zap.String("source", obs.Source),
		zap.Int("potholes", obs.DefectCount))
	return id, nil
}

// ListAll возвращает все записи, последние первыми.
func (r *SQLiteObservationRepository) ListAll(ctx context.Context) ([]entity.Observation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, timestamp, source, potholes, quality FROM traffic_data ORDER BY id DESC`)
	if err != nil {
		return nil, &entity.StoreError{Op: "list", Err: fmt.Errorf("query observations: %w", err)}
	}
	defer rows.Close()

	var out []entity.Observation
	for rows.Next() {
		var (
			obs     entity.Observation
			ts      string
			quality string
		)
		if err := rows.Scan(&obs.ID, &ts, &obs.Source, &obs.DefectCount, &quality); err != nil {
			return nil, &entity.StoreError{Op: "list", Err: fmt.Errorf("scan observation: %w", err)}
		}
		obs.Timestamp, err = parseTimestamp(ts)
		if err != nil {
			return nil, &entity.StoreError{Op: "list", Err: fmt.Errorf("observation %d: %w", obs.ID, err)}
		}
		obs.Quality = entity.Quality(quality)
		out = append(out, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, &entity.StoreError{Op: "list", Err: err}
	}
	return out, nil
}

// Clear удаляет все записи всех источников.
func (r *SQLiteObservationRepository) Clear(ctx context.Context) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM traffic_data`)
	if err != nil {
		return &entity.StoreError{Op: "clear", Err: fmt.Errorf("delete observations: %w", err)}
	}
	if n, err := res.RowsAffected(); err == nil {
		r.log.Info("audit history cleared", zap.Int64("rows", n))
	}
	return nil
}

// Close закрывает соединение с базой.
func (r *SQLiteObservationRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}
	ts, err := time.ParseInLocation(legacyTimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return ts, nil
}

var _ port.ObservationRepository = (*SQLiteObservationRepository)(nil)
