// Package domain holds the opportunity and bet records served by the betting
// backend together with the triage categories users assign to them.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Settlement results as reported by the backend.
const (
	ResultPending = "pending"
	ResultWin     = "win"
	ResultLoss    = "loss"
	ResultPush    = "push"
	ResultVoid    = "void"
)

// Entity is anything the triage store can track.
type Entity interface {
	EntityID() string
}

// ID is an external identifier. The backend emits numeric ids for bets and
// string ids for streamed opportunities, so both forms decode into a string.
type ID string

// UnmarshalJSON accepts JSON strings and numbers.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// IDFromInt formats a database serial as an ID.
func IDFromInt(v int64) ID {
	return ID(strconv.FormatInt(v, 10))
}

// Leg is one side of an opportunity at a single bookmaker.
type Leg struct {
	BookKey     string   `json:"book_key"`
	OutcomeName string   `json:"outcome_name"`
	Price       int      `json:"price"`
	Point       *float64 `json:"point,omitempty"`
	EdgePct     *float64 `json:"leg_edge_pct,omitempty"`
}

// Opportunity is a detected betting opportunity.
type Opportunity struct {
	ID              ID        `json:"id"`
	OpportunityType string    `json:"opportunity_type"`
	SportKey        string    `json:"sport_key"`
	EventID         string    `json:"event_id"`
	MarketKey       string    `json:"market_key"`
	HomeTeam        string    `json:"home_team,omitempty"`
	AwayTeam        string    `json:"away_team,omitempty"`
	EdgePct         float64   `json:"edge_pct"`
	FairPrice       *int      `json:"fair_price,omitempty"`
	DetectedAt      time.Time `json:"detected_at"`
	Legs            []Leg     `json:"legs"`
}

// EntityID implements Entity.
func (o Opportunity) EntityID() string { return string(o.ID) }

// BookKey returns the bookmaker of the first leg, or "" for leg-less records.
func (o Opportunity) BookKey() string {
	if len(o.Legs) == 0 {
		return ""
	}
	return o.Legs[0].BookKey
}

// Bet is a placed wager.
type Bet struct {
	ID            ID               `json:"id"`
	OpportunityID *ID              `json:"opportunity_id,omitempty"`
	SportKey      string           `json:"sport_key"`
	EventID       string           `json:"event_id"`
	MarketKey     string           `json:"market_key"`
	BookKey       string           `json:"book_key"`
	OutcomeName   string           `json:"outcome_name"`
	Stake         decimal.Decimal  `json:"stake_amount"`
	Price         int              `json:"bet_price"`
	PlacedAt      time.Time        `json:"placed_at"`
	SettledAt     *time.Time       `json:"settled_at,omitempty"`
	Result        string           `json:"result"`
	Payout        *decimal.Decimal `json:"payout_amount,omitempty"`
	Profit        *decimal.Decimal `json:"profit,omitempty"`
}

// EntityID implements Entity.
func (b Bet) EntityID() string { return string(b.ID) }

// Settled reports whether the bet has a final result.
func (b Bet) Settled() bool {
	switch b.Result {
	case ResultWin, ResultLoss, ResultPush, ResultVoid:
		return true
	}
	return false
}

// NetProfit returns the signed profit of the bet. An explicit profit wins;
// otherwise it is derived from the payout of a settled bet. Unsettled bets
// without a profit return nil.
func (b Bet) NetProfit() *decimal.Decimal {
	if b.Profit != nil {
		p := *b.Profit
		return &p
	}
	if b.Payout != nil && b.Settled() {
		p := b.Payout.Sub(b.Stake)
		return &p
	}
	if b.Result == ResultLoss {
		p := b.Stake.Neg()
		return &p
	}
	return nil
}

// Day returns the settlement time, falling back to the placement time.
func (b Bet) Day() time.Time {
	if b.SettledAt != nil && !b.SettledAt.IsZero() {
		return *b.SettledAt
	}
	return b.PlacedAt
}

var (
	_ Entity = Opportunity{}
	_ Entity = Bet{}
)
