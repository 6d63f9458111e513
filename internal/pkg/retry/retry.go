package retry

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Policy is a fixed-backoff retry policy.
type Policy struct {
	Name     string
	Attempts int // total attempts, including the first
	Backoff  time.Duration
	// Retryable decides whether an error is worth another attempt. Nil retries everything.
	Retryable func(error) bool
}

// Do runs op until it succeeds, returns a non-retryable error, or the attempts run out.
// The last error is returned as-is.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(ctx); err == nil {
			if attempt > 1 {
				log.Info().Str("op", p.Name).Int("attempt", attempt).Msg("succeeded after retry")
			}
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		log.Warn().Err(err).Str("op", p.Name).Int("attempt", attempt).Dur("backoff", p.Backoff).Msg("retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Backoff):
		}
	}
	log.Warn().Err(err).Str("op", p.Name).Int("attempts", attempts).Msg("retries exhausted")
	return err
}
