package collector

import (
	"context"
	"errors"
	"time"

	"ranked-tracker/internal/logger"
)

// ErrNoKeySource is returned when a key is rejected and nothing can supply a new one
var ErrNoKeySource = errors.New("collector: no key source configured")

// KeySource supplies replacement API keys, e.g. a Discord channel
type KeySource interface {
	WaitForKey(ctx context.Context, since time.Time) (string, error)
}

// KeyChecker validates a candidate key before it is used
type KeyChecker interface {
	ValidateKey(ctx context.Context, apiKey string) (bool, error)
}

// RecoverKey waits for a key posted after since that passes chk, hands it to
// apply and returns it. Rejected candidates are skipped; only keys posted
// after the rejection are considered next.
func RecoverKey(ctx context.Context, src KeySource, chk KeyChecker, since time.Time, apply func(string)) (string, error) {
	if src == nil {
		return "", ErrNoKeySource
	}
	log := logger.WithComponent("keys")

	for {
		key, err := src.WaitForKey(ctx, since)
		if err != nil {
			return "", err
		}

		if chk != nil {
			valid, err := chk.ValidateKey(ctx, key)
			if err != nil {
				log.WithError(err).Warn("Could not validate key, waiting for another")
				since = time.Now()
				continue
			}
			if !valid {
				log.Warn("Posted key was rejected, waiting for another")
				since = time.Now()
				continue
			}
		}

		log.Info("Valid key received")
		if apply != nil {
			apply(key)
		}
		return key, nil
	}
}
