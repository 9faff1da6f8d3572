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
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultRetryCount = 5
	defaultRetryDelay = 500 * time.Millisecond
)

// retrier re-runs an operation while sqlite reports the database as busy or
// locked. Any other error is returned immediately.
type retrier struct {
	count   int
	delay   time.Duration
	onRetry func(err error)
}

func (r retrier) do(ctx context.Context, op func() error) error {
	count := r.count
	if count < 1 {
		count = defaultRetryCount
	}

	delay := r.delay
	if delay < 0 {
		delay = defaultRetryDelay
	}

	operation := func() (struct{}, error) {
		err := op()
		if err == nil {
			return struct{}{}, nil
		}

		if !isBusy(err) {
			return struct{}{}, backoff.Permanent(err)
		}

		return struct{}{}, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewConstantBackOff(delay)),
		backoff.WithMaxTries(uint(count)),
		backoff.WithMaxElapsedTime(0),
	}

	if r.onRetry != nil {
		opts = append(opts, backoff.WithNotify(func(err error, _ time.Duration) {
			r.onRetry(err)
		}))
	}

	_, err := backoff.Retry(ctx, operation, opts...)
	if err != nil && isBusy(err) {
		return fmt.Errorf("%w after %d attempts: %w", ErrStoreUnavailable, count, err)
	}

	return err
}
