package aggregate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"betdesk/internal/domain"
)

func money(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func bet(id, book, sport, result string, profit *decimal.Decimal) domain.Bet {
	return domain.Bet{
		ID:       domain.ID(id),
		BookKey:  book,
		SportKey: sport,
		Result:   result,
		Stake:    decimal.NewFromInt(10),
		Profit:   profit,
	}
}

func TestAggregateByBookmakerScenario(t *testing.T) {
	bets := []domain.Bet{
		bet("1", "A", "nba", domain.ResultWin, money(10)),
		bet("2", "A", "nba", domain.ResultWin, money(10)),
		bet("3", "A", "nfl", domain.ResultLoss, money(-5)),
		bet("4", "B", "nba", domain.ResultWin, money(20)),
	}

	buckets := BetsByBookmaker(bets, BetOptions{Places: 2})
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}

	a := buckets["A"]
	if a == nil || a.Count != 3 || a.SuccessCount != 2 || !a.ProfitSum.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("unexpected bucket A: %#v", a)
	}
	b := buckets["B"]
	if b == nil || b.Count != 1 || b.SuccessCount != 1 || !b.ProfitSum.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected bucket B: %#v", b)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	buckets := Aggregate[domain.Bet](nil, func(b domain.Bet) string { return b.BookKey }, nil, nil)
	if buckets == nil || len(buckets) != 0 {
		t.Fatalf("empty input should yield an empty map, got %#v", buckets)
	}
}

func TestAggregateCountInvariantAndUnknownBucket(t *testing.T) {
	bets := []domain.Bet{
		bet("1", "", "nba", domain.ResultWin, nil),
		bet("2", "  ", "nba", domain.ResultLoss, money(-10)),
		bet("3", "Bet365", "nba", domain.ResultWin, nil),
		bet("4", "bet365 ", "", domain.ResultPending, nil),
		bet("5", "Bétway", "nhl", domain.ResultLoss, money(-10)),
	}

	byBook := BetsByBookmaker(bets, BetOptions{})
	if TotalCount(byBook) != len(bets) {
		t.Fatalf("bucket counts must sum to input length: %d vs %d", TotalCount(byBook), len(bets))
	}
	if byBook[Unknown] == nil || byBook[Unknown].Count != 2 {
		t.Fatalf("blank bookmakers should land in the unknown bucket: %#v", byBook[Unknown])
	}
	if byBook["Bet365"] == nil || byBook["Bet365"].Count != 2 {
		t.Fatalf("bookmaker spellings should share the first-seen label: %#v", byBook)
	}
	if byBook["Bétway"] == nil || len(byBook) != 3 {
		t.Fatalf("unexpected bookmaker buckets: %#v", byBook)
	}

	bySport := BetsBySport(bets, BetOptions{})
	if TotalCount(bySport) != len(bets) {
		t.Fatalf("sport counts must sum to input length")
	}

	// Missing profit still counts but contributes zero.
	if !byBook["Bet365"].ProfitSum.IsZero() {
		t.Fatalf("nil profits should add zero, got %s", byBook["Bet365"].ProfitSum)
	}
}

func TestAggregateKeepsCallerKeys(t *testing.T) {
	bets := []domain.Bet{
		bet("1", "A", "", "", nil),
		bet("2", "B", "", "", nil),
		bet("3", "Bet365", "", "", nil),
		bet("4", "bet365", "", "", nil),
		bet("5", " ", "", "", nil),
	}

	buckets := Aggregate(bets, func(b domain.Bet) string { return b.BookKey }, nil, nil)
	for _, key := range []string{"A", "B", "Bet365", "bet365", Unknown} {
		if buckets[key] == nil || buckets[key].Count != 1 {
			t.Fatalf("bucket %q missing or wrong: %#v", key, buckets)
		}
	}
	if len(buckets) != 5 {
		t.Fatalf("groups must equal the distinct input keys, got %d", len(buckets))
	}

	summaries := Finalize(BetsByBookmaker(bets, BetOptions{}), 2)
	keys := make([]string, 0, len(summaries))
	for _, s := range summaries {
		keys = append(keys, s.Key)
	}
	if len(keys) != 4 || keys[0] != "A" || keys[2] != "Bet365" {
		t.Fatalf("display keys should keep the caller's spelling: %v", keys)
	}
}

func TestNormalizeKey(t *testing.T) {
	if got := NormalizeKey("  Bétway   Sports "); got != "betway sports" {
		t.Fatalf("NormalizeKey = %q", got)
	}
	if got := NormalizeKey("   "); got != "" {
		t.Fatalf("blank input should fold to empty, got %q", got)
	}
}

func TestFinalizeWinRateAndProfitFormatting(t *testing.T) {
	buckets := map[string]*Bucket{
		"a":     {Key: "a", Count: 3, SuccessCount: 2, ProfitSum: decimal.RequireFromString("15.456")},
		"empty": {Key: "empty"},
	}

	summaries := Finalize(buckets, 2)
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	a := summaries[0]
	if a.Key != "a" || a.Profit != "15.46" {
		t.Fatalf("unexpected summary: %#v", a)
	}
	if a.WinRate == nil || a.WinRate.StringFixed(4) != "0.6667" {
		t.Fatalf("unexpected win rate: %v", a.WinRate)
	}
	if summaries[1].WinRate != nil {
		t.Fatal("win rate must be omitted for empty buckets")
	}
}

func TestSortHelpers(t *testing.T) {
	summaries := []Summary{
		{Key: "a", Count: 1, ProfitValue: decimal.NewFromInt(5)},
		{Key: "b", Count: 3, ProfitValue: decimal.NewFromInt(-1)},
		{Key: "c", Count: 2, ProfitValue: decimal.NewFromInt(9)},
	}

	SortByProfit(summaries)
	if summaries[0].Key != "c" || summaries[2].Key != "b" {
		t.Fatalf("unexpected profit order: %v", summaries)
	}
	SortByCount(summaries)
	if summaries[0].Key != "b" || summaries[2].Key != "a" {
		t.Fatalf("unexpected count order: %v", summaries)
	}
}

func TestBetsByDayUsesLocalDate(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	settled := time.Date(2024, 3, 2, 2, 0, 0, 0, time.UTC) // 2024-03-01 21:00 local

	bets := []domain.Bet{
		{ID: "1", Result: domain.ResultWin, PlacedAt: settled.Add(-time.Hour), SettledAt: &settled, Profit: money(5)},
		{ID: "2", Result: domain.ResultPending, PlacedAt: time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)},
		{ID: "3", Result: domain.ResultPending},
	}

	days := BetsByDay(bets, BetOptions{Location: loc})
	if days["2024-03-01"] == nil || days["2024-03-01"].Count != 2 {
		t.Fatalf("expected two bets on 2024-03-01: %#v", days)
	}
	if days[Unknown] == nil || days[Unknown].Count != 1 {
		t.Fatalf("bets without any timestamp belong to unknown: %#v", days)
	}
}

func TestSummarize(t *testing.T) {
	bets := []domain.Bet{
		bet("1", "A", "nba", domain.ResultWin, money(10)),
		bet("2", "A", "nba", domain.ResultLoss, money(-10)),
		bet("3", "A", "nba", domain.ResultWin, money(10)),
		bet("4", "A", "nba", domain.ResultPush, money(0)),
		bet("5", "A", "nba", domain.ResultPending, nil),
	}

	ov := Summarize(bets, BetOptions{Places: 2})
	if ov.TotalBets != 5 || ov.Settled != 4 || ov.Pending != 1 {
		t.Fatalf("unexpected tallies: %#v", ov)
	}
	if ov.Wins != 2 || ov.Losses != 1 || ov.Pushes != 1 {
		t.Fatalf("unexpected results: %#v", ov)
	}
	if ov.NetProfit != "10.00" || ov.Staked != "40.00" {
		t.Fatalf("unexpected money: %s / %s", ov.NetProfit, ov.Staked)
	}
	if ov.ROIPct == nil || ov.ROIPct.String() != "25" {
		t.Fatalf("unexpected roi: %v", ov.ROIPct)
	}
	if ov.WinRate == nil || ov.WinRate.StringFixed(4) != "0.6667" {
		t.Fatalf("unexpected win rate: %v", ov.WinRate)
	}

	empty := Summarize(nil, BetOptions{Places: 2})
	if empty.ROIPct != nil || empty.WinRate != nil {
		t.Fatal("empty overview must omit ratios")
	}
}

func TestOpportunityAxes(t *testing.T) {
	opps := []domain.Opportunity{
		{ID: "o1", SportKey: "nba", Legs: []domain.Leg{{BookKey: "fanduel"}}},
		{ID: "o2", SportKey: "nba", Legs: []domain.Leg{{BookKey: "draftkings"}, {BookKey: "fanduel"}}},
		{ID: "o3", SportKey: "nfl"},
	}
	played := func(o domain.Opportunity) bool { return o.ID == "o2" }

	byBook := OpportunitiesByBookmaker(opps, played)
	if TotalCount(byBook) != 3 || byBook[Unknown] == nil {
		t.Fatalf("unexpected bookmaker buckets: %#v", byBook)
	}
	if byBook["draftkings"].SuccessCount != 1 {
		t.Fatalf("success predicate not applied: %#v", byBook["draftkings"])
	}

	bySport := OpportunitiesBySport(opps, nil)
	if bySport["nba"].Count != 2 || bySport["nfl"].Count != 1 {
		t.Fatalf("unexpected sport buckets: %#v", bySport)
	}
}
