package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/speedwagon-io/nitrosense/internal/lib/logger/sl"
	"github.com/speedwagon-io/nitrosense/internal/model"
)

// Fixed-width UTC layout so recorded_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Entry is one journaled status sample.
type Entry struct {
	ID          string
	RecordedAt  time.Time
	CPUTemp     uint8
	GPUTemp     uint8
	SysTemp     uint8
	CPUFanSpeed uint16
	GPUFanSpeed uint16
	CPUMode     string
	GPUMode     string
	NitroMode   string
	Battery     string
	PluggedIn   bool
	Voltage     float64
}

// Journal appends GetStatus samples to a sqlite database and prunes rows
// older than maxAge at most once per pruneInterval.
type Journal struct {
	log           *slog.Logger
	db            *sql.DB
	maxAge        time.Duration
	pruneInterval time.Duration
	lastPrune     time.Time
	now           func() time.Time
}

func Open(log *slog.Logger, dbPath string, maxAge, pruneInterval time.Duration) (*Journal, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	j := &Journal{
		log:           log,
		db:            db,
		maxAge:        maxAge,
		pruneInterval: pruneInterval,
		now:           func() time.Time { return time.Now().UTC() },
	}

	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return j, nil
}

func (j *Journal) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS status_history (
			id TEXT PRIMARY KEY,
			recorded_at TEXT NOT NULL,
			cpu_temp INTEGER NOT NULL,
			gpu_temp INTEGER NOT NULL,
			sys_temp INTEGER NOT NULL,
			cpu_fan_speed INTEGER NOT NULL,
			gpu_fan_speed INTEGER NOT NULL,
			cpu_mode TEXT NOT NULL,
			gpu_mode TEXT NOT NULL,
			nitro_mode TEXT NOT NULL,
			battery_status TEXT NOT NULL,
			power_plugged_in INTEGER NOT NULL,
			voltage REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_status_history_recorded_at ON status_history(recorded_at);
	`
	_, err := j.db.Exec(query)
	return err
}

// Record stores s and prunes old rows when the prune interval has elapsed.
func (j *Journal) Record(ctx context.Context, s model.Status) error {
	id := uuid.New().String()
	now := j.now()

	query := `
		INSERT INTO status_history (id, recorded_at, cpu_temp, gpu_temp, sys_temp, cpu_fan_speed, gpu_fan_speed,
			cpu_mode, gpu_mode, nitro_mode, battery_status, power_plugged_in, voltage)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := j.db.ExecContext(ctx, query,
		id,
		now.Format(timeLayout),
		s.CPUTemp,
		s.GPUTemp,
		s.SysTemp,
		s.CPUFanSpeed,
		s.GPUFanSpeed,
		s.CPUMode.String(),
		s.GPUMode.String(),
		s.NitroMode.String(),
		s.BatteryStatus.String(),
		s.PowerPluggedIn,
		s.VoltageInfo.Voltage,
	)
	if err != nil {
		return fmt.Errorf("failed to store status: %w", err)
	}

	j.log.Debug("status recorded", slog.String("id", id))

	if now.Sub(j.lastPrune) >= j.pruneInterval {
		j.lastPrune = now
		if err := j.Cleanup(ctx, j.maxAge); err != nil {
			j.log.Warn("history prune failed", sl.Err(err))
		}
	}

	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, recorded_at, cpu_temp, gpu_temp, sys_temp, cpu_fan_speed, gpu_fan_speed,
			cpu_mode, gpu_mode, nitro_mode, battery_status, power_plugged_in, voltage
		FROM status_history
		ORDER BY recorded_at DESC
		LIMIT ?
	`

	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			recordedAt string
		)

		if err := rows.Scan(&e.ID, &recordedAt, &e.CPUTemp, &e.GPUTemp, &e.SysTemp, &e.CPUFanSpeed, &e.GPUFanSpeed,
			&e.CPUMode, &e.GPUMode, &e.NitroMode, &e.Battery, &e.PluggedIn, &e.Voltage); err != nil {
			j.log.Error("failed to scan row", sl.Err(err))
			continue
		}

		e.RecordedAt, err = time.Parse(timeLayout, recordedAt)
		if err != nil {
			j.log.Error("failed to parse timestamp", sl.Err(err))
			continue
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (j *Journal) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := j.now().Add(-maxAge).Format(timeLayout)

	result, err := j.db.ExecContext(ctx, "DELETE FROM status_history WHERE recorded_at < ?", cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}

	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		j.log.Info("pruned history entries", slog.Int64("deleted", deleted))
	}

	return nil
}

func (j *Journal) Count(ctx context.Context) (int64, error) {
	var count int64
	err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM status_history").Scan(&count)
	return count, err
}

func (j *Journal) Close() error {
	return j.db.Close()
}
