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

import "time"

// Options configures a SQLiteStore.
type Options struct {
	Path       string
	RetryCount int
	RetryDelay time.Duration

	// BusyTimeout is how long sqlite itself waits on a lock before
	// reporting the database as busy.
	BusyTimeout time.Duration

	// Seed inserts a default device when the devices table is empty.
	Seed bool

	// OnRetry is called each time an operation is retried.
	OnRetry func(err error)
}

// ImportReport summarizes a CSV device import.
type ImportReport struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}
