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

package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/mfreeman451/netmon/pkg/db"
	"github.com/mfreeman451/netmon/pkg/logger"
	"github.com/mfreeman451/netmon/pkg/models"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// DeviceRequest registers a new device.
type DeviceRequest struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Location string `json:"location"`
	Type     string `json:"type"`
}

// DeviceCreated is returned after a device was registered.
type DeviceCreated struct {
	ID int64 `json:"id"`
}

// AckResponse reports whether the device is acknowledged after the request.
// Acknowledging a device that is not Unreachable succeeds with
// Acknowledged false.
type AckResponse struct {
	DeviceID     int64 `json:"device_id"`
	Acknowledged bool  `json:"acknowledged"`
}

// StreamMessage is one frame on the websocket event stream.
type StreamMessage struct {
	Type      string           `json:"type"`
	Kind      models.EventKind `json:"kind,omitempty"`
	Data      models.Event     `json:"data,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

type APIServer struct {
	router         *mux.Router
	engine         Engine
	store          db.Store
	latency        LatencySource
	events         EventSource
	metricsHandler http.Handler
	logger         logger.Logger

	mu     sync.Mutex
	server *http.Server
	done   chan struct{}
	once   sync.Once
}
