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

// Package api serves the device snapshot, operator actions and the live
// event stream over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/mfreeman451/netmon/pkg/db"
	httpx "github.com/mfreeman451/netmon/pkg/http"
	"github.com/mfreeman451/netmon/pkg/logger"
	"github.com/mfreeman451/netmon/pkg/models"
	"github.com/mfreeman451/netmon/pkg/poller"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 60 * time.Second
	defaultHistoryLimit = 100
	maxImportSize       = 10 << 20
)

// WithLatency serves per-device latency samples.
func WithLatency(source LatencySource) func(*APIServer) {
	return func(s *APIServer) {
		s.latency = source
	}
}

// WithEventStream enables the websocket event stream.
func WithEventStream(source EventSource) func(*APIServer) {
	return func(s *APIServer) {
		s.events = source
	}
}

// WithMetricsHandler mounts a Prometheus handler on /metrics.
func WithMetricsHandler(h http.Handler) func(*APIServer) {
	return func(s *APIServer) {
		s.metricsHandler = h
	}
}

func NewAPIServer(engine Engine, store db.Store, log logger.Logger, options ...func(*APIServer)) *APIServer {
	s := &APIServer{
		router: mux.NewRouter(),
		engine: engine,
		store:  store,
		logger: log.WithComponent("api"),
		done:   make(chan struct{}),
	}

	for _, o := range options {
		o(s)
	}

	s.setupRoutes()

	return s
}

func (s *APIServer) setupRoutes() {
	s.router.Use(httpx.CommonMiddleware)
	s.router.Use(httpx.LoggingMiddleware(s.logger))

	s.router.HandleFunc("/api/devices", s.getDevices).Methods(http.MethodGet)
	s.router.HandleFunc("/api/devices", s.addDevice).Methods(http.MethodPost)
	s.router.HandleFunc("/api/devices/import", s.importDevices).Methods(http.MethodPost)
	s.router.HandleFunc("/api/devices/{id:[0-9]+}", s.getDevice).Methods(http.MethodGet)
	s.router.HandleFunc("/api/devices/{id:[0-9]+}", s.deleteDevice).Methods(http.MethodDelete)
	s.router.HandleFunc("/api/devices/{id:[0-9]+}/ack", s.acknowledgeDevice).Methods(http.MethodPost)
	s.router.HandleFunc("/api/devices/{id:[0-9]+}/history", s.getDeviceHistory).Methods(http.MethodGet)
	s.router.HandleFunc("/api/devices/{id:[0-9]+}/latency", s.getDeviceLatency).Methods(http.MethodGet)

	if s.events != nil {
		s.router.HandleFunc("/api/events/ws", s.handleEventStream).Methods(http.MethodGet)
	}

	if s.metricsHandler != nil {
		s.router.Handle("/metrics", s.metricsHandler).Methods(http.MethodGet)
	}
}

// Handler returns the routed handler.
func (s *APIServer) Handler() http.Handler {
	return s.router
}

// Start serves on addr until Shutdown is called.
func (s *APIServer) Start(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown stops the server and closes open event streams.
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.once.Do(func() { close(s.done) })

	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	return srv.Shutdown(ctx)
}

func (s *APIServer) getDevices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot(), s.logger)
}

// getDevice serves the polled view, falling back to the stored record for
// devices registered since the last tick.
func (s *APIServer) getDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	for _, v := range s.engine.Snapshot() {
		if v.ID == id {
			writeJSON(w, http.StatusOK, v, s.logger)
			return
		}
	}

	d, err := s.store.GetDevice(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.DeviceView{Device: *d}, s.logger)
}

func (s *APIServer) addDevice(w http.ResponseWriter, r *http.Request) {
	var req DeviceRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id, err := s.store.AddDevice(r.Context(), &models.Device{
		Name:     req.Name,
		Address:  req.Address,
		Location: req.Location,
		Type:     req.Type,
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.logger.Info().Int64("device_id", id).Str("address", req.Address).Msg("Device registered")

	writeJSON(w, http.StatusCreated, DeviceCreated{ID: id}, s.logger)
}

func (s *APIServer) deleteDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteDevice(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.logger.Info().Int64("device_id", id).Msg("Device deleted")

	w.WriteHeader(http.StatusNoContent)
}

func (s *APIServer) importDevices(w http.ResponseWriter, r *http.Request) {
	report, err := s.store.ImportDevicesCSV(r.Context(), http.MaxBytesReader(w, r.Body, maxImportSize))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.logger.Info().
		Int("imported", report.Imported).
		Int("skipped", report.Skipped).
		Msg("Devices imported")

	writeJSON(w, http.StatusOK, report, s.logger)
}

func (s *APIServer) acknowledgeDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	acked, err := s.engine.AcknowledgeDevice(r.Context(), id)

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, AckResponse{DeviceID: id, Acknowledged: acked}, s.logger)
	case errors.Is(err, poller.ErrStopped):
		writeError(w, "monitoring is stopped", http.StatusServiceUnavailable)
	default:
		s.logger.Error().Err(err).Int64("device_id", id).Msg("Acknowledge failed")
		writeError(w, "acknowledge failed", http.StatusInternalServerError)
	}
}

func (s *APIServer) getDeviceHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	limit := defaultHistoryLimit

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}

		limit = n
	}

	history, err := s.store.StatusHistory(r.Context(), id, limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, history, s.logger)
}

func (s *APIServer) getDeviceLatency(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	points := []models.MetricPoint{}

	if s.latency != nil {
		if m := s.latency.GetMetrics(id); m != nil {
			points = m
		}
	}

	writeJSON(w, http.StatusOK, points, s.logger)
}

func (s *APIServer) writeStoreError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &maxErr):
		writeError(w, "request body too large", http.StatusRequestEntityTooLarge)
	case errors.Is(err, db.ErrDeviceNotFound):
		writeError(w, "device not found", http.StatusNotFound)
	case errors.Is(err, db.ErrInvalidDevice), errors.Is(err, db.ErrInvalidCSV):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, db.ErrStoreUnavailable):
		s.logger.Error().Err(err).Msg("Store unavailable")
		writeError(w, "store unavailable", http.StatusServiceUnavailable)
	default:
		s.logger.Error().Err(err).Msg("Store request failed")
		writeError(w, "internal server error", http.StatusInternalServerError)
	}
}

func deviceID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, "invalid device id", http.StatusBadRequest)
		return 0, false
	}

	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, log logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Message: message, Status: statusCode}); err != nil {
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
