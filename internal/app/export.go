package app

import (
	"context"
	"errors"
	"time"

	"betdesk/internal/aggregate"
	"betdesk/internal/domain"
	"betdesk/internal/export"
	"betdesk/internal/storage"
)

// ExportOptions hold parameters for exporting bet statistics.
type ExportOptions struct {
	From     *time.Time
	To       *time.Time
	CSVPath  string
	PNGPath  string
	XLSXPath string
	MaxDays  int
}

// Export renders bet statistics as CSV, PNG and/or XLSX.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" && opts.XLSXPath == "" {
		return errors.New("at least one of --csv, --png or --xlsx must be provided")
	}

	opts.MaxDays = a.Config.ResolveMaxDays(opts.MaxDays)

	betOpts, err := a.betOptions()
	if err != nil {
		return err
	}

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}
	from := to.AddDate(0, 0, -opts.MaxDays)
	if opts.From != nil {
		from = opts.From.UTC()
	}
	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	bets, err := a.loadBets(ctx, from, to)
	if err != nil {
		return err
	}
	if len(bets) == 0 {
		a.Logger.Info().Msg("no bets found for export window")
		return nil
	}

	daily := export.DailyProfit(bets, betOpts, opts.MaxDays)
	a.Logger.Info().Int("bets", len(bets)).Int("days", len(daily)).Msg("exporting statistics")

	if opts.CSVPath != "" {
		if err := export.WriteCSV(opts.CSVPath, daily, betOpts.Places); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := export.WritePNG(opts.PNGPath, daily); err != nil {
			return err
		}
	}

	if opts.XLSXPath != "" {
		breakdown := aggregate.BreakdownBets(bets, betOpts)
		if err := export.WriteXLSX(opts.XLSXPath, export.Workbook{
			Overview: breakdown.Overview,
			Axes: []export.Axis{
				{Name: "By bookmaker", Summaries: breakdown.ByBookmaker},
				{Name: "By sport", Summaries: breakdown.BySport},
				{Name: "By day", Summaries: breakdown.ByDay},
			},
			Daily:  daily,
			Places: betOpts.Places,
		}); err != nil {
			return err
		}
	}

	return nil
}

// loadBets reads bets placed within [from, to). The database is queried by
// range; the backend list is filtered locally, keeping undated bets.
func (a *App) loadBets(ctx context.Context, from, to time.Time) ([]domain.Bet, error) {
	source, closeSource, err := a.openSource(ctx)
	if err != nil {
		return nil, err
	}
	defer closeSource()

	if store, ok := source.(storage.BetStore); ok {
		return store.ListBetsBetween(ctx, from, to)
	}

	all, err := source.FetchBets(ctx)
	if err != nil {
		return nil, err
	}
	return filterPlaced(all, from, to), nil
}

func filterPlaced(bets []domain.Bet, from, to time.Time) []domain.Bet {
	kept := make([]domain.Bet, 0, len(bets))
	for _, b := range bets {
		if b.PlacedAt.IsZero() || (!b.PlacedAt.Before(from) && b.PlacedAt.Before(to)) {
			kept = append(kept, b)
		}
	}
	return kept
}
