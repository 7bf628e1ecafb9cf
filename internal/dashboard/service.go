// Package dashboard keeps the latest record snapshot and the per-user
// sessions that triage and browse it.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"betdesk/internal/aggregate"
	"betdesk/internal/domain"
	"betdesk/internal/fetcher"
	"betdesk/internal/metrics"
	"betdesk/internal/scheduler"
)

const defaultLiveLimit = 500

// Options tune the projections served by the Service.
type Options struct {
	TopOpportunities int
	LiveLimit        int
	Bets             aggregate.BetOptions
}

// Snapshot is the record set of the latest refresh.
type Snapshot struct {
	Opportunities []domain.Opportunity `json:"opportunities"`
	Bets          []domain.Bet         `json:"bets"`
	RefreshedAt   time.Time            `json:"refreshed_at"`
}

// Stats is the statistics page payload.
type Stats struct {
	aggregate.Breakdown
	OpportunitiesByBookmaker []aggregate.Summary `json:"opportunities_by_bookmaker"`
	OpportunitiesBySport     []aggregate.Summary `json:"opportunities_by_sport"`
	RefreshedAt              time.Time           `json:"refreshed_at"`
}

// RefreshListener is told about every successful refresh.
type RefreshListener func(Snapshot)

// Service orchestrates fetching and projecting records.
type Service struct {
	source    fetcher.Source
	scheduler *scheduler.Scheduler
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	opts      Options

	mu        sync.RWMutex
	snapshot  Snapshot
	live      []domain.Opportunity
	listeners []RefreshListener
}

// New constructs the dashboard service. sched and m may be nil.
func New(source fetcher.Source, sched *scheduler.Scheduler, m *metrics.Metrics, opts Options, logger zerolog.Logger) *Service {
	if opts.LiveLimit <= 0 {
		opts.LiveLimit = defaultLiveLimit
	}
	return &Service{
		source:    source,
		scheduler: sched,
		metrics:   m,
		logger:    logger.With().Str("component", "dashboard").Logger(),
		opts:      opts,
	}
}

// OnRefresh registers a listener. Listeners run outside the service lock.
func (s *Service) OnRefresh(fn RefreshListener) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Run drives periodic refreshes until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.Refresh)
}

// RequestRefresh schedules an immediate refresh on the running loop, or
// refreshes synchronously when no loop is configured.
func (s *Service) RequestRefresh(ctx context.Context) error {
	if s.scheduler != nil {
		s.scheduler.Trigger()
		return nil
	}
	return s.Refresh(ctx, time.Now().UTC())
}

// Refresh fetches every record and swaps the snapshot. A failed fetch keeps
// the previous snapshot.
func (s *Service) Refresh(ctx context.Context, at time.Time) (err error) {
	if s.source == nil {
		return errors.New("record source not configured")
	}

	started := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveRefresh(started, err)
		}
	}()

	opps, err := s.source.FetchOpportunities(ctx)
	if err != nil {
		return fmt.Errorf("fetch opportunities: %w", err)
	}
	bets, err := s.source.FetchBets(ctx)
	if err != nil {
		return fmt.Errorf("fetch bets: %w", err)
	}

	snap := Snapshot{Opportunities: opps, Bets: bets, RefreshedAt: at}

	s.mu.Lock()
	s.snapshot = snap
	s.live = pruneLive(s.live, opps)
	listeners := append([]RefreshListener(nil), s.listeners...)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetRecords(len(opps), len(bets))
	}
	s.logger.Info().Time("at", at).
		Int("opportunities", len(opps)).
		Int("bets", len(bets)).
		Msg("records refreshed")

	for _, fn := range listeners {
		fn(snap)
	}
	return nil
}

// AddLive merges an opportunity received from the live stream. Opportunities
// already known, fetched or live, are ignored.
func (s *Service) AddLive(opp domain.Opportunity) bool {
	if opp.ID == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.knownLocked(string(opp.ID)) {
		return false
	}
	s.live = append(s.live, opp)
	if over := len(s.live) - s.opts.LiveLimit; over > 0 {
		s.live = append([]domain.Opportunity(nil), s.live[over:]...)
	}
	if s.metrics != nil {
		s.metrics.LiveMessages.Inc()
	}
	return true
}

// Snapshot returns the latest records.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Opportunity looks an opportunity up by identifier across fetched and live records.
func (s *Service) Opportunity(id string) (domain.Opportunity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.snapshot.Opportunities {
		if string(o.ID) == id {
			return o, true
		}
	}
	for _, o := range s.live {
		if string(o.ID) == id {
			return o, true
		}
	}
	return domain.Opportunity{}, false
}

// TopOpportunities merges fetched and live opportunities, orders them by edge
// (newest first on ties) and keeps the configured number.
func (s *Service) TopOpportunities() []domain.Opportunity {
	s.mu.RLock()
	merged := make([]domain.Opportunity, 0, len(s.snapshot.Opportunities)+len(s.live))
	merged = append(merged, s.snapshot.Opportunities...)
	merged = append(merged, s.live...)
	s.mu.RUnlock()

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].EdgePct != merged[j].EdgePct {
			return merged[i].EdgePct > merged[j].EdgePct
		}
		return merged[i].DetectedAt.After(merged[j].DetectedAt)
	})
	if n := s.opts.TopOpportunities; n > 0 && len(merged) > n {
		merged = merged[:n]
	}
	return merged
}

// Stats aggregates the snapshot along every axis. Opportunities count as a
// success once a bet references them.
func (s *Service) Stats() Stats {
	snap := s.Snapshot()
	opts := s.opts.Bets

	played := make(map[string]struct{}, len(snap.Bets))
	for _, b := range snap.Bets {
		if b.OpportunityID != nil {
			played[string(*b.OpportunityID)] = struct{}{}
		}
	}
	wasPlayed := func(o domain.Opportunity) bool {
		_, ok := played[string(o.ID)]
		return ok
	}

	places := opts.Places
	return Stats{
		Breakdown:                aggregate.BreakdownBets(snap.Bets, opts),
		OpportunitiesByBookmaker: aggregate.Finalize(aggregate.OpportunitiesByBookmaker(snap.Opportunities, wasPlayed), places),
		OpportunitiesBySport:     aggregate.Finalize(aggregate.OpportunitiesBySport(snap.Opportunities, wasPlayed), places),
		RefreshedAt:              snap.RefreshedAt,
	}
}

// Balance is the net profit of settled bets, the value behind the animated
// balance widget.
func (s *Service) Balance() float64 {
	snap := s.Snapshot()
	return aggregate.Summarize(snap.Bets, s.opts.Bets).NetProfitValue.InexactFloat64()
}

func (s *Service) knownLocked(id string) bool {
	for _, o := range s.snapshot.Opportunities {
		if string(o.ID) == id {
			return true
		}
	}
	for _, o := range s.live {
		if string(o.ID) == id {
			return true
		}
	}
	return false
}

// pruneLive drops live opportunities the latest fetch already returned.
func pruneLive(live, fetched []domain.Opportunity) []domain.Opportunity {
	if len(live) == 0 {
		return live
	}
	seen := make(map[domain.ID]struct{}, len(fetched))
	for _, o := range fetched {
		seen[o.ID] = struct{}{}
	}
	kept := live[:0]
	for _, o := range live {
		if _, dup := seen[o.ID]; !dup {
			kept = append(kept, o)
		}
	}
	return kept
}
