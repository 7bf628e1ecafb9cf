package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"betdesk/internal/carousel"
	"betdesk/internal/metrics"
	"betdesk/internal/triage"
	"betdesk/internal/tween"
)

// ErrSessionNotFound is returned for unknown or closed session identifiers.
var ErrSessionNotFound = errors.New("dashboard: session not found")

// SessionOptions configure newly created sessions. A zero interpolation
// duration selects tween.DefaultDuration; a negative one disables easing.
type SessionOptions struct {
	PageSize              int
	InterpolationDuration time.Duration
	IdleTTL               time.Duration
	Clock                 func() time.Time
}

// Session is one user's triage state, carousel position and animated balance.
// Its context is cancelled on Close, which stops every animation bound to it.
type Session struct {
	ID        string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`

	Triage   *triage.Store       `json:"-"`
	Carousel *carousel.Window    `json:"-"`
	Balance  *tween.Interpolator `json:"-"`

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	lastSeen time.Time
}

// Context is cancelled when the session closes.
func (s *Session) Context() context.Context { return s.ctx }

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Sessions is the registry of open sessions.
type Sessions struct {
	opts    SessionOptions
	metrics *metrics.Metrics
	logger  zerolog.Logger
	balance func() float64

	mu    sync.RWMutex
	items map[string]*Session
}

// NewSessions builds an empty registry. balance seeds the animated balance of
// new sessions and may be nil.
func NewSessions(opts SessionOptions, balance func() float64, m *metrics.Metrics, logger zerolog.Logger) *Sessions {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.InterpolationDuration == 0 {
		opts.InterpolationDuration = tween.DefaultDuration
	}
	return &Sessions{
		opts:    opts,
		metrics: m,
		logger:  logger.With().Str("component", "sessions").Logger(),
		balance: balance,
		items:   make(map[string]*Session),
	}
}

// Create opens a new session.
func (r *Sessions) Create() *Session {
	now := r.opts.Clock()
	initial := 0.0
	if r.balance != nil {
		initial = r.balance()
	}

	storeOpts := []triage.Option{triage.WithClock(r.opts.Clock)}
	if r.metrics != nil {
		storeOpts = append(storeOpts, triage.WithObserver(r.metrics.TriageObserver()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		Triage:    triage.NewStore(storeOpts...),
		Carousel:  carousel.New(r.opts.PageSize),
		Balance: tween.New(initial,
			tween.WithDuration(r.opts.InterpolationDuration),
			tween.WithClock(r.opts.Clock),
		),
		ctx:      ctx,
		cancel:   cancel,
		lastSeen: now,
	}

	r.mu.Lock()
	r.items[sess.ID] = sess
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.Sessions.Inc()
	}
	r.logger.Debug().Str("session_id", sess.ID).Msg("session opened")
	return sess
}

// Get returns an open session and marks it as active.
func (r *Sessions) Get(id string) (*Session, error) {
	r.mu.RLock()
	sess, ok := r.items[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(r.opts.Clock())
	return sess, nil
}

// Close discards a session, stopping its animations.
func (r *Sessions) Close(id string) error {
	r.mu.Lock()
	sess, ok := r.items[id]
	delete(r.items, id)
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	r.release(sess)
	return nil
}

// Len reports the number of open sessions.
func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// SetBalance retargets the balance animation of every open session.
func (r *Sessions) SetBalance(v float64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, sess := range r.items {
		sess.Balance.SetTarget(v)
	}
}

// Sweep closes sessions idle for longer than the configured TTL and returns
// how many were closed. A zero TTL disables expiry.
func (r *Sessions) Sweep() int {
	if r.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.opts.Clock().Add(-r.opts.IdleTTL)

	r.mu.Lock()
	expired := make([]*Session, 0)
	for id, sess := range r.items {
		if sess.idleSince().Before(cutoff) {
			expired = append(expired, sess)
			delete(r.items, id)
		}
	}
	r.mu.Unlock()

	for _, sess := range expired {
		r.release(sess)
		r.logger.Info().Str("session_id", sess.ID).Msg("idle session expired")
	}
	return len(expired)
}

// RunJanitor sweeps idle sessions every interval until ctx is cancelled.
func (r *Sessions) RunJanitor(ctx context.Context, interval time.Duration) {
	if r.opts.IdleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// CloseAll discards every session.
func (r *Sessions) CloseAll() {
	r.mu.Lock()
	items := r.items
	r.items = make(map[string]*Session)
	r.mu.Unlock()
	for _, sess := range items {
		r.release(sess)
	}
}

func (r *Sessions) release(sess *Session) {
	sess.Balance.Stop()
	sess.cancel()
	if r.metrics != nil {
		r.metrics.ForgetTriage(sess.Triage.Counts())
		r.metrics.Sessions.Dec()
	}
	r.logger.Debug().Str("session_id", sess.ID).Msg("session closed")
}
