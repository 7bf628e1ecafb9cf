package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"betdesk/internal/domain"
	"betdesk/internal/fetcher"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	defaultOpportunityWindow = time.Hour
	defaultOpportunityLimit  = 500
	defaultBetLimit          = 5000
)

const (
	betColumns = `
        b.id,
        b.opportunity_id,
        b.sport_key,
        b.event_id,
        b.market_key,
        b.book_key,
        b.outcome_name,
        b.stake_amount::text,
        b.bet_price,
        b.placed_at,
        b.settled_at,
        b.result,
        b.payout_amount::text`

	listBetsBetweenSQL = `SELECT` + betColumns + `
    FROM bets b
    WHERE b.placed_at >= $1
      AND b.placed_at < $2
    ORDER BY b.placed_at;`

	listRecentBetsSQL = `SELECT` + betColumns + `
    FROM bets b
    ORDER BY b.placed_at DESC
    LIMIT $1;`

	countBetsSQL = `SELECT COUNT(*) FROM bets;`

	listOpportunitiesSQL = `SELECT
        o.id,
        o.opportunity_type,
        o.sport_key,
        o.event_id,
        o.market_key,
        o.edge_pct,
        o.fair_price,
        o.detected_at
    FROM opportunities o
    WHERE o.detected_at >= $1
    ORDER BY o.detected_at DESC
    LIMIT $2;`

	listLegsSQL = `SELECT
        l.opportunity_id,
        l.book_key,
        l.outcome_name,
        l.price,
        l.point,
        l.leg_edge_pct
    FROM opportunity_legs l
    WHERE l.opportunity_id = ANY($1)
    ORDER BY l.opportunity_id, l.id;`
)

// BetStore defines read access to placed bets.
type BetStore interface {
	ListBetsBetween(ctx context.Context, from, to time.Time) ([]domain.Bet, error)
	ListRecentBets(ctx context.Context, limit int) ([]domain.Bet, error)
	CountBets(ctx context.Context) (int64, error)
}

// OpportunityStore defines read access to detected opportunities.
type OpportunityStore interface {
	ListOpportunitiesSince(ctx context.Context, since time.Time, limit int) ([]domain.Opportunity, error)
}

// Store reads bets and opportunities from the betting database.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, now: time.Now}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// FetchBets implements fetcher.BetSource with the most recent bets.
func (s *Store) FetchBets(ctx context.Context) ([]domain.Bet, error) {
	return s.ListRecentBets(ctx, defaultBetLimit)
}

// FetchOpportunities implements fetcher.OpportunitySource with the
// opportunities detected during the last hour.
func (s *Store) FetchOpportunities(ctx context.Context) ([]domain.Opportunity, error) {
	return s.ListOpportunitiesSince(ctx, s.now().Add(-defaultOpportunityWindow), defaultOpportunityLimit)
}

// ListBetsBetween lists bets placed within [from, to).
func (s *Store) ListBetsBetween(ctx context.Context, from, to time.Time) ([]domain.Bet, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listBetsBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list bets between: %w", queryErr)
	}
	defer rows.Close()

	return collectBets(rows, 0)
}

// ListRecentBets lists the latest bets ordered by descending placement time.
func (s *Store) ListRecentBets(ctx context.Context, limit int) ([]domain.Bet, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentBetsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent bets: %w", queryErr)
	}
	defer rows.Close()

	return collectBets(rows, limit)
}

// CountBets counts stored bets.
func (s *Store) CountBets(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countBetsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count bets: %w", scanErr)
	}
	return count, nil
}

// ListOpportunitiesSince lists opportunities detected at or after since,
// newest first, with their legs attached.
func (s *Store) ListOpportunitiesSince(ctx context.Context, since time.Time, limit int) ([]domain.Opportunity, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listOpportunitiesSQL, since, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list opportunities: %w", queryErr)
	}

	opps := make([]domain.Opportunity, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		var (
			id        int64
			opp       domain.Opportunity
			fairPrice sql.NullInt32
		)
		if err := rows.Scan(
			&id,
			&opp.OpportunityType,
			&opp.SportKey,
			&opp.EventID,
			&opp.MarketKey,
			&opp.EdgePct,
			&fairPrice,
			&opp.DetectedAt,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		opp.ID = domain.IDFromInt(id)
		if fairPrice.Valid {
			price := int(fairPrice.Int32)
			opp.FairPrice = &price
		}
		opps = append(opps, opp)
		ids = append(ids, id)
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	if len(ids) == 0 {
		return opps, nil
	}

	legs, err := s.listLegs(ctx, pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range opps {
		opps[i].Legs = legs[ids[i]]
	}
	return opps, nil
}

func (s *Store) listLegs(ctx context.Context, pool *pgxpool.Pool, ids []int64) (map[int64][]domain.Leg, error) {
	rows, err := pool.Query(ctx, listLegsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("list opportunity legs: %w", err)
	}
	defer rows.Close()

	legs := make(map[int64][]domain.Leg, len(ids))
	for rows.Next() {
		var (
			oppID   int64
			leg     domain.Leg
			point   sql.NullFloat64
			legEdge sql.NullFloat64
		)
		if err := rows.Scan(&oppID, &leg.BookKey, &leg.OutcomeName, &leg.Price, &point, &legEdge); err != nil {
			return nil, fmt.Errorf("scan opportunity leg: %w", err)
		}
		if point.Valid {
			v := point.Float64
			leg.Point = &v
		}
		if legEdge.Valid {
			v := legEdge.Float64
			leg.EdgePct = &v
		}
		legs[oppID] = append(legs[oppID], leg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return legs, nil
}

func collectBets(rows pgx.Rows, capacity int) ([]domain.Bet, error) {
	bets := make([]domain.Bet, 0, capacity)
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		bets = append(bets, bet)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return bets, nil
}

func scanBet(rows pgx.Rows) (domain.Bet, error) {
	var (
		id            int64
		opportunityID sql.NullInt64
		stakeStr      string
		settledAt     sql.NullTime
		payoutStr     sql.NullString
		bet           domain.Bet
	)

	if err := rows.Scan(
		&id,
		&opportunityID,
		&bet.SportKey,
		&bet.EventID,
		&bet.MarketKey,
		&bet.BookKey,
		&bet.OutcomeName,
		&stakeStr,
		&bet.Price,
		&bet.PlacedAt,
		&settledAt,
		&bet.Result,
		&payoutStr,
	); err != nil {
		return domain.Bet{}, fmt.Errorf("scan bet: %w", err)
	}

	stake, err := decimal.NewFromString(stakeStr)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("parse stake amount: %w", err)
	}

	bet.ID = domain.IDFromInt(id)
	bet.Stake = stake
	if opportunityID.Valid {
		oid := domain.IDFromInt(opportunityID.Int64)
		bet.OpportunityID = &oid
	}
	if settledAt.Valid {
		ts := settledAt.Time
		bet.SettledAt = &ts
	}
	if payoutStr.Valid {
		payout, err := decimal.NewFromString(payoutStr.String)
		if err != nil {
			return domain.Bet{}, fmt.Errorf("parse payout amount: %w", err)
		}
		bet.Payout = &payout
	}

	return bet, nil
}

var (
	_ fetcher.Source   = (*Store)(nil)
	_ BetStore         = (*Store)(nil)
	_ OpportunityStore = (*Store)(nil)
)
