// Package tween eases displayed numbers from their previous value to a new
// target over a fixed duration.
package tween

import (
	"math"
	"sync"
	"time"
)

// DefaultDuration is the transition length used when none is configured.
const DefaultDuration = 800 * time.Millisecond

// Phase is the interpolator state.
type Phase int

const (
	Idle Phase = iota
	Animating
)

func (p Phase) String() string {
	if p == Animating {
		return "animating"
	}
	return "idle"
}

// Clock returns the current time.
type Clock func() time.Time

// EaseFunc maps linear progress in [0,1] onto eased progress in [0,1].
type EaseFunc func(float64) float64

// EaseInOutQuad accelerates through the first half and decelerates through the second.
func EaseInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	u := -2*t + 2
	return 1 - u*u/2
}

// Linear is the identity ease.
func Linear(t float64) float64 { return t }

// Option configures an Interpolator.
type Option func(*Interpolator)

// WithDuration sets the transition length. Non-positive durations jump straight to the target.
func WithDuration(d time.Duration) Option {
	return func(ip *Interpolator) { ip.duration = d }
}

// WithClock injects the time source.
func WithClock(c Clock) Option {
	return func(ip *Interpolator) {
		if c != nil {
			ip.now = c
		}
	}
}

// WithEase replaces the easing curve.
func WithEase(e EaseFunc) Option {
	return func(ip *Interpolator) {
		if e != nil {
			ip.ease = e
		}
	}
}

// Interpolator is a two-state machine: Idle shows the target, Animating eases
// from the value displayed when the target last changed towards the target.
type Interpolator struct {
	mu        sync.Mutex
	from      float64
	to        float64
	displayed float64
	startedAt time.Time
	duration  time.Duration
	phase     Phase
	now       Clock
	ease      EaseFunc
	changed   chan struct{}
}

// New builds an idle interpolator showing initial.
func New(initial float64, opts ...Option) *Interpolator {
	initial = Sanitize(initial)
	ip := &Interpolator{
		from:      initial,
		to:        initial,
		displayed: initial,
		duration:  DefaultDuration,
		now:       time.Now,
		ease:      EaseInOutQuad,
		changed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ip)
	}
	return ip
}

// Sanitize coerces NaN and infinities to zero so they never reach the display.
func Sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// SetTarget starts a transition to v from whatever is displayed right now. A
// transition already in flight is superseded, keeping the motion continuous.
func (ip *Interpolator) SetTarget(v float64) {
	v = Sanitize(v)

	ip.mu.Lock()
	defer ip.mu.Unlock()

	now := ip.now()
	current := ip.advance(now)
	if v == ip.to {
		return
	}

	ip.from = current
	ip.to = v
	ip.startedAt = now
	ip.phase = Animating
	if ip.duration <= 0 {
		ip.finish()
	}

	close(ip.changed)
	ip.changed = make(chan struct{})
}

// SetDuration changes the transition length. A transition in flight continues
// from the displayed value over the new duration, so the display never jumps.
func (ip *Interpolator) SetDuration(d time.Duration) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	ip.setDuration(d)
}

// setDuration rebases a running transition onto d. Caller holds mu.
func (ip *Interpolator) setDuration(d time.Duration) {
	if d == ip.duration {
		return
	}
	now := ip.now()
	current := ip.advance(now)
	ip.duration = d
	if ip.phase != Animating {
		return
	}
	ip.from = current
	ip.startedAt = now
	if d <= 0 {
		ip.finish()
	}
}

// Value returns the displayed value at the current clock time.
func (ip *Interpolator) Value() float64 {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	return ip.advance(ip.now())
}

// Frame returns the displayed value and whether another frame is needed.
func (ip *Interpolator) Frame() (float64, bool) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	v := ip.advance(ip.now())
	return v, ip.phase == Animating
}

// CurrentValue updates the duration and target when they differ from the
// current ones and returns the displayed value.
func (ip *Interpolator) CurrentValue(target float64, duration time.Duration) float64 {
	ip.mu.Lock()
	if duration > 0 {
		ip.setDuration(duration)
	}
	retarget := Sanitize(target) != ip.to
	ip.mu.Unlock()

	if retarget {
		ip.SetTarget(target)
	}
	return ip.Value()
}

// Stop freezes the display at its current value and goes idle.
func (ip *Interpolator) Stop() {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	current := ip.advance(ip.now())
	ip.from = current
	ip.to = current
	ip.phase = Idle
}

// Phase reports the state.
func (ip *Interpolator) Phase() Phase {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	ip.advance(ip.now())
	return ip.phase
}

// Target returns the value being animated towards.
func (ip *Interpolator) Target() float64 {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	return ip.to
}

// Changed returns a channel that is closed by the next target change. Every
// caller holding it is woken; fetch it again after each wake-up.
func (ip *Interpolator) Changed() <-chan struct{} {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	return ip.changed
}

// Progress returns linear progress of the current transition in [0,1].
func (ip *Interpolator) Progress() float64 {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	if ip.phase == Idle {
		return 1
	}
	return ip.progress(ip.now())
}

func (ip *Interpolator) progress(now time.Time) float64 {
	if ip.duration <= 0 {
		return 1
	}
	p := float64(now.Sub(ip.startedAt)) / float64(ip.duration)
	return math.Max(0, math.Min(1, p))
}

// advance moves the state machine to now. Caller holds mu.
func (ip *Interpolator) advance(now time.Time) float64 {
	if ip.phase == Idle {
		return ip.displayed
	}
	p := ip.progress(now)
	if p >= 1 {
		ip.finish()
		return ip.displayed
	}
	ip.displayed = ip.from + (ip.to-ip.from)*ip.ease(p)
	return ip.displayed
}

func (ip *Interpolator) finish() {
	ip.displayed = ip.to
	ip.from = ip.to
	ip.phase = Idle
}
