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
	"fmt"
)

// deviceColumns lists columns that databases written by older releases may
// lack, with the definition used to add them.
var deviceColumns = []struct {
	name string
	def  string
}{
	{"location", "TEXT"},
	{"type", "TEXT"},
	{"last_status", "TEXT"},
	{"last_checked", "TIMESTAMP"},
	{"snmp_status", "TEXT"},
	{"ping_status", "TEXT"},
}

// migrate adds any missing device columns in place.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	existing, err := s.tableColumns(ctx, "devices")
	if err != nil {
		return err
	}

	for _, col := range deviceColumns {
		if existing[col.name] {
			continue
		}

		s.logger.Info().Str("column", col.name).Msg("Running migration: adding device column")

		stmt := fmt.Sprintf("ALTER TABLE devices ADD COLUMN %s %s", col.name, col.def)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to add column %s: %w", col.name, err)
		}
	}

	return nil
}

func (s *SQLiteStore) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("%w table info: %w", errFailedToQuery, err)
	}
	defer closeRows(rows, s.logger)

	columns := make(map[string]bool)

	for rows.Next() {
		var (
			cid        int
			name, ctyp string
			notNull    int
			dflt       interface{}
			pk         int
		)

		if err := rows.Scan(&cid, &name, &ctyp, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("%w table info: %w", errFailedToScan, err)
		}

		columns[name] = true
	}

	return columns, rows.Err()
}
