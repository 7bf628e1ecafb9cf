package fetcher

import (
	"context"

	"betdesk/internal/domain"
)

// OpportunitySource retrieves the current opportunity list.
type OpportunitySource interface {
	FetchOpportunities(ctx context.Context) ([]domain.Opportunity, error)
}

// BetSource retrieves placed bets.
type BetSource interface {
	FetchBets(ctx context.Context) ([]domain.Bet, error)
}

// Source serves both record kinds.
type Source interface {
	OpportunitySource
	BetSource
}
