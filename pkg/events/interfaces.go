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

package events

//go:generate mockgen -destination=mock_events.go -package=events github.com/mfreeman451/netmon/pkg/events Handler,Publisher

import (
	"context"

	"github.com/mfreeman451/netmon/pkg/models"
)

// Publisher accepts events from the engine. Implementations must not block.
type Publisher interface {
	Publish(e models.Event) bool
}

// Handler consumes events on the dispatcher's goroutine.
type Handler interface {
	Handle(ctx context.Context, e models.Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, e models.Event) error

func (f HandlerFunc) Handle(ctx context.Context, e models.Event) error {
	return f(ctx, e)
}
