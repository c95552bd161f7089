// Package httputil provides HTTP utilities for the authoring protocol client.
//
// # Retry
//
// [Retry] wraps calls against the authoring service with bounded retry for
// transient failures:
//
//   - Network errors (connection refused, reset)
//   - Per-call timeouts
//
// Only errors wrapped in [RetryableError] are retried; protocol-level
// rejections (bad status, echo mismatches) are returned immediately, since
// repeating an apply call the service already answered would re-mutate the
// scene.
//
//	err := httputil.Retry(ctx, 4, time.Second, func() error {
//	    return client.Do(ctx, req)
//	})
package httputil
