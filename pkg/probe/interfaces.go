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

// Package probe implements single reachability checks against one address.
package probe

//go:generate mockgen -destination=mock_probe.go -package=probe github.com/mfreeman451/netmon/pkg/probe Probe

import (
	"context"
	"time"

	"github.com/mfreeman451/netmon/pkg/models"
)

// Probe performs one reachability check. Check never returns an error:
// every failure mode is reported as a ProbeResult with Success false and
// a diagnostic. Wall time is bounded by timeout * attempts.
type Probe interface {
	Kind() models.ProbeKind
	Check(ctx context.Context, address string, timeout time.Duration, attempts int) models.ProbeResult
}
