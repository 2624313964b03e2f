// Package retry provides retry logic with exponential backoff and jitter.
//
// Basic usage:
//
//	err := retry.Retry(ctx, func(ctx context.Context) error {
//	    return someNetworkOperation()
//	})
//
// Advanced configuration:
//
//	config := retry.Config{
//	    MaxAttempts:    5,
//	    InitialDelay:   200 * time.Millisecond,
//	    MaxDelay:       10 * time.Second,
//	    MaxElapsedTime: 60 * time.Second,
//	    Jitter:         true,
//	    OnRetry: func(attempt int, err error, delay time.Duration) {
//	        log.Printf("Retry %d after %v: %v", attempt, delay, err)
//	    },
//	}
//	err := retry.Do(ctx, config, fn)
//
// The Now and After fields make the timing fully testable.
package retry
