package billing

import (
	"log/slog"
	"time"
)

// Option configures a Service instance.
type Option func(*Service)

// WithProvider attaches a payment provider for checkout and portal sessions.
func WithProvider(p Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.provider = p
		}
	}
}

// WithLogger sets the structured logger. Nil loggers are ignored.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock injects the time source, for tests. The function must return
// UTC times.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
