package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// RefreshFunc is invoked on every interval and on every manual trigger.
type RefreshFunc func(ctx context.Context, at time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	Interval      time.Duration
	AlignToBucket bool
	StartupDelay  time.Duration
	// RunOnStart refreshes once before waiting for the first interval.
	RunOnStart bool
}

// Scheduler drives periodic record refreshes. Trigger requests an
// out-of-band refresh; requests made while one is pending are coalesced.
type Scheduler struct {
	opts    Options
	logger  zerolog.Logger
	trigger chan struct{}
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) (*Scheduler, error) {
	if opts.Interval <= 0 {
		return nil, errors.New("scheduler interval must be positive")
	}
	return &Scheduler{
		opts:    opts,
		logger:  logger.With().Str("component", "scheduler").Logger(),
		trigger: make(chan struct{}, 1),
	}, nil
}

// Trigger asks the running loop for an immediate refresh.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run blocks, invoking refresh at each interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, refresh RefreshFunc) error {
	if s.opts.StartupDelay > 0 {
		timer := time.NewTimer(s.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if s.opts.RunOnStart {
		s.execute(ctx, refresh, time.Now().UTC(), "startup")
	}

	next := s.nextTick(time.Now().UTC())
	for {
		delay := time.Until(next)
		if delay < 0 {
			next = s.nextTick(time.Now().UTC())
			delay = time.Until(next)
		}

		timer := time.NewTimer(delay)
		s.logger.Debug().Time("next_refresh", next).Msg("waiting for next refresh")

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-s.trigger:
			timer.Stop()
			s.execute(ctx, refresh, time.Now().UTC(), "manual")
			continue
		case <-timer.C:
		}

		s.execute(ctx, refresh, s.bucketStart(next), "interval")
		next = next.Add(s.opts.Interval)
	}
}

func (s *Scheduler) execute(ctx context.Context, refresh RefreshFunc, at time.Time, reason string) {
	s.logger.Debug().Time("at", at).Str("reason", reason).Msg("refreshing records")
	if err := refresh(ctx, at); err != nil {
		s.logger.Error().Err(err).Time("at", at).Str("reason", reason).Msg("refresh failed")
	}
}

func (s *Scheduler) nextTick(now time.Time) time.Time {
	if !s.opts.AlignToBucket {
		return now.Add(s.opts.Interval)
	}
	bucket := now.Truncate(s.opts.Interval)
	if !bucket.After(now) {
		bucket = bucket.Add(s.opts.Interval)
	}
	return bucket
}

func (s *Scheduler) bucketStart(t time.Time) time.Time {
	if !s.opts.AlignToBucket {
		return t
	}
	return t.Truncate(s.opts.Interval)
}
