package services

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ngenohkevin/lending/internal/models"
)

// MaxBorrowDurationDays is the longest loan accepted unless configured otherwise.
const MaxBorrowDurationDays = 90

// DefaultCacheTTL is how long analytics rankings stay cached.
const DefaultCacheTTL = 60 * time.Second

var defaultFeePerDay = decimal.NewFromInt(1)

// settings holds the tunables shared by the services
type settings struct {
	now                func() time.Time
	maxDurationDays    int
	feePerDay          decimal.Decimal
	defaultBorrowLimit int32
	cacheTTL           time.Duration
	retryOptions       []RetryOption
}

func newSettings(opts []Option) settings {
	s := settings{
		now:                time.Now,
		maxDurationDays:    MaxBorrowDurationDays,
		feePerDay:          defaultFeePerDay,
		defaultBorrowLimit: models.DefaultMaxBorrowLimit,
		cacheTTL:           DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option configures a service.
type Option func(*settings)

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxDurationDays sets the longest loan Borrow accepts.
func WithMaxDurationDays(days int) Option {
	return func(s *settings) {
		if days > 0 {
			s.maxDurationDays = days
		}
	}
}

// WithFeePerDay sets the late fee charged per overdue day.
func WithFeePerDay(fee decimal.Decimal) Option {
	return func(s *settings) {
		if !fee.IsNegative() {
			s.feePerDay = fee
		}
	}
}

// WithDefaultBorrowLimit sets the limit given to borrowers registered without one.
func WithDefaultBorrowLimit(limit int32) Option {
	return func(s *settings) {
		if limit > 0 {
			s.defaultBorrowLimit = limit
		}
	}
}

// WithCacheTTL sets how long analytics results are cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *settings) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithRetryOptions sets a custom retry configuration for conflicting writes.
func WithRetryOptions(opts ...RetryOption) Option {
	return func(s *settings) {
		s.retryOptions = opts
	}
}
