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

package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/mfreeman451/netmon/pkg/models"
)

type safeProbe struct {
	Probe
}

// Safe wraps p so that a panic inside Check becomes a failed result.
func Safe(p Probe) Probe {
	if _, ok := p.(safeProbe); ok {
		return p
	}

	return safeProbe{Probe: p}
}

func (s safeProbe) Check(ctx context.Context, address string, timeout time.Duration, attempts int) (result models.ProbeResult) {
	defer func() {
		if r := recover(); r != nil {
			result = models.ProbeResult{
				Kind:       s.Kind(),
				Success:    false,
				Diagnostic: fmt.Sprintf("Offline, probe error: %v", r),
				Timestamp:  time.Now(),
			}
		}
	}()

	return s.Probe.Check(ctx, address, timeout, attempts)
}
