/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package db pkg/db/db.go provides the SQLite device store.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/mfreeman451/netmon/pkg/logger"
	"github.com/mfreeman451/netmon/pkg/models"
	"go.uber.org/multierr"
)

const (
	// Maximum number of history points to keep per device.
	maxHistoryPoints = 1000

	defaultBusyTimeout = 250 * time.Millisecond
	maxOpenConns       = 4

	seedName     = "Google"
	seedAddress  = "8.8.8.8"
	seedLocation = "Internet"
	seedType     = "DNS"

	// SQL statements for database initialization.
	createTablesSQL = `
	CREATE TABLE IF NOT EXISTS devices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		ip_address TEXT NOT NULL,
		location TEXT,
		type TEXT,
		last_status TEXT,
		last_checked TIMESTAMP,
		snmp_status TEXT,
		ping_status TEXT
	);

	-- Overall status transitions
	CREATE TABLE IF NOT EXISTS status_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		device_id INTEGER NOT NULL,
		status TEXT NOT NULL,
		method TEXT,
		timestamp TIMESTAMP NOT NULL,
		FOREIGN KEY (device_id) REFERENCES devices(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_devices_ip_address
		ON devices(ip_address);
	CREATE INDEX IF NOT EXISTS idx_status_log_device_time
		ON status_log(device_id, timestamp);
	`

	selectDeviceColumns = `
		SELECT id, name, ip_address, location, type,
		       ping_status, snmp_status, last_status, last_checked
		FROM devices`
)

// SQLiteStore is the Store backed by a single sqlite database in WAL mode.
// Writes are serialized through one mutex so at most one write transaction
// is in flight.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex
	retry   retrier
	logger  logger.Logger
}

// New opens the database, enables WAL and creates the schema.
func New(ctx context.Context, opts Options, log logger.Logger) (*SQLiteStore, error) {
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = defaultBusyTimeout
	}

	sqlDB, err := sql.Open("sqlite3", dsn(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedOpenDB, err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)

	s := &SQLiteStore{
		db:     sqlDB,
		logger: log.WithComponent("store"),
		retry: retrier{
			count:   opts.RetryCount,
			delay:   opts.RetryDelay,
			onRetry: opts.OnRetry,
		},
	}

	if err := s.init(ctx, opts.Seed); err != nil {
		_ = sqlDB.Close()

		return nil, err
	}

	return s, nil
}

func dsn(opts Options) string {
	q := url.Values{}
	q.Set("_busy_timeout", fmt.Sprint(opts.BusyTimeout.Milliseconds()))
	q.Set("_foreign_keys", "on")
	q.Set("_txlock", "immediate")
	q.Set("_loc", "UTC")

	return "file:" + opts.Path + "?" + q.Encode()
}

func (s *SQLiteStore) init(ctx context.Context, seed bool) error {
	var mode string
	if err := s.db.QueryRowContext(ctx, "PRAGMA journal_mode=WAL").Scan(&mode); err != nil {
		return fmt.Errorf("%w: %w", errFailedToEnableWAL, err)
	}

	if !strings.EqualFold(mode, "wal") {
		return fmt.Errorf("%w: journal mode is %s", errFailedToEnableWAL, mode)
	}

	if _, err := s.db.ExecContext(ctx, createTablesSQL); err != nil {
		return fmt.Errorf("%w: %w", errFailedToInit, err)
	}

	if err := s.migrate(ctx); err != nil {
		return fmt.Errorf("%w: %w", errFailedToInit, err)
	}

	if seed {
		return s.ensureSeedDevice(ctx)
	}

	return nil
}

// ensureSeedDevice adds a well-known public resolver when no device exists.
func (s *SQLiteStore) ensureSeedDevice(ctx context.Context) error {
	return s.write(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM devices").Scan(&count); err != nil {
			return fmt.Errorf("%w: %w", errFailedToQuery, err)
		}

		if count > 0 {
			return nil
		}

		_, err := tx.ExecContext(ctx,
			"INSERT INTO devices (name, ip_address, location, type) VALUES (?, ?, ?, ?)",
			seedName, seedAddress, seedLocation, seedType)
		if err != nil {
			return fmt.Errorf("%w: %w", errFailedToInsert, err)
		}

		s.logger.Info().Str("address", seedAddress).Msg("Seeded default device")

		return nil
	})
}

// write runs fn in a transaction under the writer lock, retrying the
// whole transaction while the database is busy.
func (s *SQLiteStore) write(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return s.retry.do(ctx, func() error {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%w: %w", errFailedToBeginTx, err)
		}

		if err := fn(tx); err != nil {
			rollbackOnError(tx, err, s.logger)

			return err
		}

		return tx.Commit()
	})
}

func rollbackOnError(tx *sql.Tx, err error, log logger.Logger) {
	if err == nil {
		return
	}

	if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
		log.Error().Err(rbErr).Msg("Error rolling back transaction")
	}
}

// WriteStatus records one device's cycle outcome. When the overall status
// changed the transition is appended to the history in the same transaction.
func (s *SQLiteStore) WriteStatus(ctx context.Context, update *models.StatusUpdate) error {
	return s.write(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE devices
			SET ping_status = ?,
			    snmp_status = ?,
			    last_status = ?,
			    last_checked = ?
			WHERE id = ?
		`, string(update.PingStatus), string(update.SNMPStatus), string(update.OverallStatus),
			update.Timestamp.UTC(), update.DeviceID)
		if err != nil {
			return fmt.Errorf("%w device status: %w", errFailedToUpdate, err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w device status: %w", errFailedToUpdate, err)
		}

		if n == 0 {
			return fmt.Errorf("%w: %d", ErrDeviceNotFound, update.DeviceID)
		}

		if !update.Transition {
			return nil
		}

		return addStatusLog(ctx, tx, update)
	})
}

func addStatusLog(ctx context.Context, tx *sql.Tx, update *models.StatusUpdate) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO status_log (device_id, status, method, timestamp)
		VALUES (?, ?, ?, ?)
	`, update.DeviceID, string(update.OverallStatus), method(update), update.Timestamp.UTC()); err != nil {
		return fmt.Errorf("%w status log: %w", errFailedToInsert, err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM status_log
		WHERE device_id = ?
		  AND id NOT IN (
			SELECT id FROM status_log
			WHERE device_id = ?
			ORDER BY id DESC
			LIMIT ?
		  )
	`, update.DeviceID, update.DeviceID, maxHistoryPoints); err != nil {
		return fmt.Errorf("failed to prune status log: %w", err)
	}

	return nil
}

// method names the probe kinds that succeeded in the recorded cycle.
func method(update *models.StatusUpdate) string {
	var kinds []string

	if update.PingStatus == models.ProbeStatusSuccess {
		kinds = append(kinds, string(models.ProbePing))
	}

	if update.SNMPStatus == models.ProbeStatusSuccess {
		kinds = append(kinds, string(models.ProbeSNMP))
	}

	if len(kinds) == 0 {
		return "none"
	}

	return strings.Join(kinds, ",")
}

// ReadAllDevices returns every device ordered by id.
func (s *SQLiteStore) ReadAllDevices(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device

	err := s.retry.do(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, selectDeviceColumns+" ORDER BY id")
		if err != nil {
			return fmt.Errorf("%w devices: %w", errFailedToQuery, err)
		}
		defer closeRows(rows, s.logger)

		devices = devices[:0]

		for rows.Next() {
			d, err := scanDevice(rows)
			if err != nil {
				return err
			}

			devices = append(devices, *d)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return devices, nil
}

// GetDevice returns one device by id.
func (s *SQLiteStore) GetDevice(ctx context.Context, id int64) (*models.Device, error) {
	var device *models.Device

	err := s.retry.do(ctx, func() error {
		d, err := scanDevice(s.db.QueryRowContext(ctx, selectDeviceColumns+" WHERE id = ?", id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %d", ErrDeviceNotFound, id)
		}

		device = d

		return err
	})
	if err != nil {
		return nil, err
	}

	return device, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDevice(row scanner) (*models.Device, error) {
	var (
		d                                  models.Device
		location, devType, ping, snmp, ovr sql.NullString
		lastChecked                        sql.NullTime
	)

	if err := row.Scan(&d.ID, &d.Name, &d.Address, &location, &devType,
		&ping, &snmp, &ovr, &lastChecked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("%w device: %w", errFailedToScan, err)
	}

	d.Location = location.String
	d.Type = devType.String
	d.PingStatus = models.ProbeStatus(ping.String)
	d.SNMPStatus = models.ProbeStatus(snmp.String)
	d.OverallStatus = models.ParseReachabilityState(ovr.String)

	if lastChecked.Valid {
		d.LastChecked = lastChecked.Time.UTC()
	}

	return &d, nil
}

// StatusHistory returns up to limit recorded transitions, newest first.
func (s *SQLiteStore) StatusHistory(ctx context.Context, id int64, limit int) ([]models.StatusHistoryPoint, error) {
	if limit <= 0 || limit > maxHistoryPoints {
		limit = maxHistoryPoints
	}

	if _, err := s.GetDevice(ctx, id); err != nil {
		return nil, err
	}

	var points []models.StatusHistoryPoint

	err := s.retry.do(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT status, method, timestamp
			FROM status_log
			WHERE device_id = ?
			ORDER BY id DESC
			LIMIT ?
		`, id, limit)
		if err != nil {
			return fmt.Errorf("%w status log: %w", errFailedToQuery, err)
		}
		defer closeRows(rows, s.logger)

		points = points[:0]

		for rows.Next() {
			var (
				p      models.StatusHistoryPoint
				status string
				method sql.NullString
			)

			if err := rows.Scan(&status, &method, &p.Timestamp); err != nil {
				return fmt.Errorf("%w status log: %w", errFailedToScan, err)
			}

			p.Status = models.ParseReachabilityState(status)
			p.Method = method.String
			p.Timestamp = p.Timestamp.UTC()
			points = append(points, p)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return points, nil
}

// AddDevice registers a device and returns its id. Ids are assigned by the
// database and never reused.
func (s *SQLiteStore) AddDevice(ctx context.Context, device *models.Device) (int64, error) {
	if err := validateDevice(device); err != nil {
		return 0, err
	}

	var id int64

	err := s.write(ctx, func(tx *sql.Tx) error {
		var err error

		id, err = insertDevice(ctx, tx, device)

		return err
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

func validateDevice(device *models.Device) error {
	if device == nil {
		return fmt.Errorf("%w: nil device", ErrInvalidDevice)
	}

	device.Name = strings.TrimSpace(device.Name)
	device.Address = strings.TrimSpace(device.Address)

	if device.Name == "" || device.Address == "" {
		return fmt.Errorf("%w: name and address are required", ErrInvalidDevice)
	}

	return nil
}

func insertDevice(ctx context.Context, tx *sql.Tx, device *models.Device) (int64, error) {
	result, err := tx.ExecContext(ctx,
		"INSERT INTO devices (name, ip_address, location, type) VALUES (?, ?, ?, ?)",
		device.Name, device.Address, device.Location, device.Type)
	if err != nil {
		return 0, fmt.Errorf("%w device: %w", errFailedToInsert, err)
	}

	return result.LastInsertId()
}

// DeleteDevice removes a device and its history.
func (s *SQLiteStore) DeleteDevice(ctx context.Context, id int64) error {
	return s.write(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM status_log WHERE device_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete status log: %w", err)
		}

		result, err := tx.ExecContext(ctx, "DELETE FROM devices WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete device: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to delete device: %w", err)
		}

		if n == 0 {
			return fmt.Errorf("%w: %d", ErrDeviceNotFound, id)
		}

		return nil
	})
}

// Close checkpoints the WAL and closes the database.
func (s *SQLiteStore) Close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var err error

	if _, cpErr := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); cpErr != nil {
		err = multierr.Append(err, fmt.Errorf("failed to checkpoint: %w", cpErr))
	}

	return multierr.Append(err, s.db.Close())
}

func closeRows(rows *sql.Rows, log logger.Logger) {
	if err := rows.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close rows")
	}
}

// isBusy reports whether err is a transient lock condition.
func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}

	return false
}
