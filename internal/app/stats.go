package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"betdesk/internal/aggregate"
	"betdesk/internal/dashboard"
	"betdesk/internal/format"
)

// StatsOptions configure the stats command.
type StatsOptions struct {
	Out   io.Writer
	Limit int
	Sort  string
}

// Stats fetches records once and prints the overview and the three bet axes.
func (a *App) Stats(ctx context.Context, opts StatsOptions) error {
	betOpts, err := a.betOptions()
	if err != nil {
		return err
	}

	source, closeSource, err := a.openSource(ctx)
	if err != nil {
		return err
	}
	defer closeSource()

	dash := dashboard.New(source, nil, nil, dashboard.Options{Bets: betOpts}, a.Logger)
	if err := dash.Refresh(ctx, time.Now().UTC()); err != nil {
		return err
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return renderStats(out, dash.Stats(), opts)
}

func renderStats(out io.Writer, stats dashboard.Stats, opts StatsOptions) error {
	ov := stats.Overview
	if ov.TotalBets == 0 {
		fmt.Fprintln(out, "no bets found")
		return nil
	}

	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Bets\tSettled\tPending\tW-L-P\tStaked\tNet profit\tROI\tWin rate")
	fmt.Fprintf(writer, "%d\t%d\t%d\t%d-%d-%d\t%s\t%s\t%s\t%s\n",
		ov.TotalBets,
		ov.Settled,
		ov.Pending,
		ov.Wins, ov.Losses, ov.Pushes,
		ov.Staked,
		ov.NetProfit,
		optionalPercent(ov.ROIPct, false),
		optionalPercent(ov.WinRate, true),
	)
	if err := writer.Flush(); err != nil {
		return err
	}

	sections := []struct {
		title     string
		summaries []aggregate.Summary
		keepOrder bool
	}{
		{"By bookmaker", stats.ByBookmaker, false},
		{"By sport", stats.BySport, false},
		{"By day", stats.ByDay, true},
	}
	for _, section := range sections {
		rows := append([]aggregate.Summary(nil), section.summaries...)
		if !section.keepOrder {
			sortSummaries(rows, opts.Sort)
		}
		if opts.Limit > 0 && len(rows) > opts.Limit {
			if section.keepOrder {
				rows = rows[len(rows)-opts.Limit:]
			} else {
				rows = rows[:opts.Limit]
			}
		}
		if err := renderSummaries(out, section.title, rows); err != nil {
			return err
		}
	}
	return nil
}

func renderSummaries(out io.Writer, title string, rows []aggregate.Summary) error {
	fmt.Fprintf(out, "\n%s\n", title)
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Key\tBets\tWins\tWin rate\tProfit")
	for _, s := range rows {
		fmt.Fprintf(writer, "%s\t%d\t%d\t%s\t%s\n",
			sanitizeInline(s.Key),
			s.Count,
			s.SuccessCount,
			optionalPercent(s.WinRate, true),
			s.Profit,
		)
	}
	return writer.Flush()
}

func sortSummaries(rows []aggregate.Summary, by string) {
	switch strings.ToLower(by) {
	case "count":
		aggregate.SortByCount(rows)
	case "key":
	default:
		aggregate.SortByProfit(rows)
	}
}

// optionalPercent renders nil as "-". Ratios are scaled by 100 first.
func optionalPercent(v *decimal.Decimal, ratio bool) string {
	if v == nil {
		return "-"
	}
	if ratio {
		return format.Percent(v, 1)
	}
	return format.Money(v, 2) + "%"
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
