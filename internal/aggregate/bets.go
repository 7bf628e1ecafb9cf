package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"betdesk/internal/domain"
)

// DayLayout is the key format of the per-day axis.
const DayLayout = "2006-01-02"

// BetOptions parameterise the bet axes.
type BetOptions struct {
	WinResult string
	Location  *time.Location
	Places    int32
}

func (o BetOptions) normalized() BetOptions {
	if o.WinResult == "" {
		o.WinResult = domain.ResultWin
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Places < 0 {
		o.Places = 2
	}
	return o
}

func (o BetOptions) won() Predicate[domain.Bet] {
	return func(b domain.Bet) bool { return b.Result == o.WinResult }
}

func betProfit(b domain.Bet) *decimal.Decimal { return b.NetProfit() }

// BetsByBookmaker groups bets by book key, folding case and accents.
func BetsByBookmaker(bets []domain.Bet, opts BetOptions) map[string]*Bucket {
	opts = opts.normalized()
	return Aggregate(bets, Normalized(func(b domain.Bet) string { return b.BookKey }), opts.won(), betProfit)
}

// BetsBySport groups bets by sport key.
func BetsBySport(bets []domain.Bet, opts BetOptions) map[string]*Bucket {
	opts = opts.normalized()
	return Aggregate(bets, Normalized(func(b domain.Bet) string { return b.SportKey }), opts.won(), betProfit)
}

// BetsByDay groups bets by the local calendar date they settled on, falling
// back to the placement date.
func BetsByDay(bets []domain.Bet, opts BetOptions) map[string]*Bucket {
	opts = opts.normalized()
	return Aggregate(bets, func(b domain.Bet) string {
		day := b.Day()
		if day.IsZero() {
			return ""
		}
		return day.In(opts.Location).Format(DayLayout)
	}, opts.won(), betProfit)
}

// OpportunitiesByBookmaker groups opportunities by the book of their first leg.
// success decides which opportunities count towards the success tally.
func OpportunitiesByBookmaker(opps []domain.Opportunity, success Predicate[domain.Opportunity]) map[string]*Bucket {
	return Aggregate(opps, Normalized(func(o domain.Opportunity) string { return o.BookKey() }), success, nil)
}

// OpportunitiesBySport groups opportunities by sport key.
func OpportunitiesBySport(opps []domain.Opportunity, success Predicate[domain.Opportunity]) map[string]*Bucket {
	return Aggregate(opps, Normalized(func(o domain.Opportunity) string { return o.SportKey }), success, nil)
}

// Overview is the headline block of the stats page.
type Overview struct {
	TotalBets int              `json:"total_bets"`
	Settled   int              `json:"settled"`
	Pending   int              `json:"pending"`
	Wins      int              `json:"wins"`
	Losses    int              `json:"losses"`
	Pushes    int              `json:"pushes"`
	Staked    string           `json:"staked"`
	NetProfit string           `json:"net_profit"`
	ROIPct    *decimal.Decimal `json:"roi_pct,omitempty"`
	WinRate   *decimal.Decimal `json:"win_rate,omitempty"`

	NetProfitValue decimal.Decimal `json:"-"`
}

// Summarize computes the overview. ROI is profit over the stake of settled
// bets; win rate only considers decided (win/loss) bets.
func Summarize(bets []domain.Bet, opts BetOptions) Overview {
	opts = opts.normalized()

	var ov Overview
	staked := decimal.Zero
	profit := decimal.Zero
	for _, b := range bets {
		ov.TotalBets++
		if !b.Settled() {
			ov.Pending++
			continue
		}
		ov.Settled++
		staked = staked.Add(b.Stake)
		if p := b.NetProfit(); p != nil {
			profit = profit.Add(*p)
		}
		switch {
		case b.Result == opts.WinResult:
			ov.Wins++
		case b.Result == domain.ResultLoss:
			ov.Losses++
		case b.Result == domain.ResultPush:
			ov.Pushes++
		}
	}

	ov.Staked = staked.StringFixed(opts.Places)
	ov.NetProfit = profit.StringFixed(opts.Places)
	ov.NetProfitValue = profit
	if staked.IsPositive() {
		roi := profit.Div(staked).Mul(decimal.NewFromInt(100)).Round(opts.Places)
		ov.ROIPct = &roi
	}
	if decided := ov.Wins + ov.Losses; decided > 0 {
		rate := decimal.NewFromInt(int64(ov.Wins)).Div(decimal.NewFromInt(int64(decided)))
		ov.WinRate = &rate
	}
	return ov
}

// Breakdown bundles the overview with the three bet axes.
type Breakdown struct {
	Overview    Overview  `json:"overview"`
	ByBookmaker []Summary `json:"by_bookmaker"`
	BySport     []Summary `json:"by_sport"`
	ByDay       []Summary `json:"by_day"`
}

// BreakdownBets computes every bet view in one call.
func BreakdownBets(bets []domain.Bet, opts BetOptions) Breakdown {
	opts = opts.normalized()
	return Breakdown{
		Overview:    Summarize(bets, opts),
		ByBookmaker: Finalize(BetsByBookmaker(bets, opts), opts.Places),
		BySport:     Finalize(BetsBySport(bets, opts), opts.Places),
		ByDay:       Finalize(BetsByDay(bets, opts), opts.Places),
	}
}
