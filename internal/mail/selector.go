// internal/mail/selector.go
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lending-notifier/internal/common/logger"
	"lending-notifier/internal/common/metrics"
)

// ErrNoTransportAvailable is returned when every configured transport failed
// verification. The caller must not attempt delivery.
var ErrNoTransportAvailable = errors.New("no mail transport available")

// Selector picks the first transport that passes verification, in fixed
// priority order. Every acquire re-verifies from the top of the list unless
// the optional short-lived health cache says a transport was recently live.
type Selector struct {
	transports []Transport
	cache      *HealthCache
	logger     logger.Logger
}

func NewSelector(transports []Transport, log logger.Logger) *Selector {
	return &Selector{
		transports: transports,
		logger:     log,
	}
}

// WithHealthCache enables the verify cache. TTL is bounded by the cache
// itself; a cache hit skips the handshake but a delivery failure must
// invalidate the entry (the Dispatcher does this).
func (s *Selector) WithHealthCache(cache *HealthCache) *Selector {
	s.cache = cache
	return s
}

// AcquireTransport returns the first transport whose verify handshake
// succeeds. Each candidate failure is logged and counted, never propagated;
// only total failure surfaces as ErrNoTransportAvailable.
func (s *Selector) AcquireTransport(ctx context.Context) (Transport, error) {
	var failures []string

	for _, t := range s.transports {
		if s.cache != nil {
			if live, err := s.cache.IsLive(ctx, t.Name()); err == nil && live {
				return t, nil
			}
		}

		if err := t.Verify(ctx); err != nil {
			metrics.TransportVerifyFailures.WithLabelValues(t.Name()).Inc()
			s.logger.Warn("transport verification failed", map[string]interface{}{
				"transport": t.Name(),
				"error":     err.Error(),
			})
			failures = append(failures, fmt.Sprintf("%s: %v", t.Name(), err))
			continue
		}

		if s.cache != nil {
			if err := s.cache.MarkLive(ctx, t.Name()); err != nil {
				s.logger.Warn("failed to cache transport health", map[string]interface{}{
					"transport": t.Name(),
					"error":     err.Error(),
				})
			}
		}

		return t, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNoTransportAvailable, strings.Join(failures, "; "))
}

// Invalidate drops any cached health entry for the named transport.
func (s *Selector) Invalidate(ctx context.Context, name string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, name)
	}
}
