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

// Package db pkg/db/interfaces.go
package db

import (
	"context"
	"io"

	"github.com/mfreeman451/netmon/pkg/models"
)

//go:generate mockgen -destination=mock_db.go -package=db github.com/mfreeman451/netmon/pkg/db Store

// Store is the persistent store for devices and their status.
type Store interface {
	// Device reads.

	ReadAllDevices(ctx context.Context) ([]models.Device, error)
	GetDevice(ctx context.Context, id int64) (*models.Device, error)
	StatusHistory(ctx context.Context, id int64, limit int) ([]models.StatusHistoryPoint, error)

	// Writes. Every write is serialized and retried while the database is busy.

	WriteStatus(ctx context.Context, update *models.StatusUpdate) error
	AddDevice(ctx context.Context, device *models.Device) (int64, error)
	DeleteDevice(ctx context.Context, id int64) error
	ImportDevicesCSV(ctx context.Context, r io.Reader) (*ImportReport, error)

	Close() error
}
