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

package db

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mfreeman451/netmon/pkg/models"
)

// CSV header names accepted by ImportDevicesCSV.
const (
	csvName     = "Name"
	csvAddress  = "IP Address"
	csvLocation = "Location"
	csvType     = "Type"
)

// ImportDevicesCSV adds devices from CSV data with a header row. Rows
// without a name or address are skipped, as are addresses that are already
// registered. The import runs in a single transaction.
func (s *SQLiteStore) ImportDevicesCSV(ctx context.Context, r io.Reader) (*ImportReport, error) {
	devices, report, err := parseDevicesCSV(r)
	if err != nil {
		return nil, err
	}

	var imported, skipped int

	var skippedErrs []string

	err = s.write(ctx, func(tx *sql.Tx) error {
		imported, skipped, skippedErrs = 0, 0, nil

		known, err := knownAddresses(ctx, tx)
		if err != nil {
			return err
		}

		for i := range devices {
			d := &devices[i]

			if known[d.Address] {
				skipped++
				skippedErrs = append(skippedErrs, fmt.Sprintf("%s (%s): address already registered", d.Name, d.Address))

				continue
			}

			if _, err := insertDevice(ctx, tx, d); err != nil {
				return err
			}

			known[d.Address] = true
			imported++
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	report.Imported = imported
	report.Skipped += skipped
	report.Errors = append(report.Errors, skippedErrs...)

	s.logger.Info().
		Int("imported", report.Imported).
		Int("skipped", report.Skipped).
		Msg("Imported devices from CSV")

	return report, nil
}

func knownAddresses(ctx context.Context, tx *sql.Tx) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, "SELECT ip_address FROM devices")
	if err != nil {
		return nil, fmt.Errorf("%w addresses: %w", errFailedToQuery, err)
	}
	defer func() { _ = rows.Close() }()

	known := make(map[string]bool)

	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("%w addresses: %w", errFailedToScan, err)
		}

		known[addr] = true
	}

	return known, rows.Err()
}

// parseDevicesCSV reads every row up front so that a malformed file is
// rejected before any write.
func parseDevicesCSV(r io.Reader) ([]models.Device, *ImportReport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ImportReport{}, nil
	}

	if err != nil {
		return nil, nil, fmt.Errorf("%w: header: %w", ErrInvalidCSV, err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	for _, required := range []string{csvName, csvAddress} {
		if _, ok := index[required]; !ok {
			return nil, nil, fmt.Errorf("%w: missing column %q", ErrInvalidCSV, required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}

		return strings.TrimSpace(record[i])
	}

	report := &ImportReport{}

	var devices []models.Device

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, nil, fmt.Errorf("%w: line %d: %w", ErrInvalidCSV, line, err)
		}

		d := models.Device{
			Name:     field(record, csvName),
			Address:  field(record, csvAddress),
			Location: field(record, csvLocation),
			Type:     field(record, csvType),
		}

		if d.Name == "" || d.Address == "" {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: name and address are required", line))

			continue
		}

		devices = append(devices, d)
	}

	return devices, report, nil
}
