package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"betdesk/internal/aggregate"
	"betdesk/internal/domain"
)

func dayBet(id string, day int, result string, stake, payout int64) domain.Bet {
	settled := time.Date(2024, 6, day, 18, 0, 0, 0, time.UTC)
	p := decimal.NewFromInt(payout)
	return domain.Bet{
		ID:        domain.ID(id),
		BookKey:   "fanduel",
		SportKey:  "basketball_nba",
		Stake:     decimal.NewFromInt(stake),
		PlacedAt:  settled.Add(-2 * time.Hour),
		SettledAt: &settled,
		Result:    result,
		Payout:    &p,
	}
}

func sampleBets() []domain.Bet {
	return []domain.Bet{
		dayBet("1", 1, domain.ResultWin, 10, 25),
		dayBet("2", 1, domain.ResultLoss, 10, 0),
		dayBet("3", 2, domain.ResultLoss, 20, 0),
		dayBet("4", 3, domain.ResultWin, 10, 30),
		{ID: "5", Stake: decimal.NewFromInt(5)},
	}
}

var opts = aggregate.BetOptions{Location: time.UTC, Places: 2}

func TestDailyProfit(t *testing.T) {
	points := DailyProfit(sampleBets(), opts, 0)
	if len(points) != 3 {
		t.Fatalf("expected 3 dated days, got %d", len(points))
	}
	want := []struct {
		day        string
		profit     string
		cumulative string
	}{
		{"2024-06-01", "5.00", "5.00"},
		{"2024-06-02", "-20.00", "-15.00"},
		{"2024-06-03", "20.00", "5.00"},
	}
	for i, w := range want {
		p := points[i]
		if p.Day.Format(aggregate.DayLayout) != w.day || p.Profit.StringFixed(2) != w.profit || p.Cumulative.StringFixed(2) != w.cumulative {
			t.Fatalf("point %d: got %s %s %s", i, p.Day.Format(aggregate.DayLayout), p.Profit.StringFixed(2), p.Cumulative.StringFixed(2))
		}
	}

	recent := DailyProfit(sampleBets(), opts, 2)
	if len(recent) != 2 || recent[0].Cumulative.StringFixed(2) != "-15.00" {
		t.Fatalf("max days should keep the latest days with running totals: %+v", recent)
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "daily.csv")
	if err := WriteCSV(path, DailyProfit(sampleBets(), opts, 0), 2); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 4 || records[0][0] != "day" || records[1][3] != "0.5000" || records[3][5] != "5.00" {
		t.Fatalf("unexpected csv: %v", records)
	}
}

func TestWritePNG(t *testing.T) {
	dir := t.TempDir()
	points := DailyProfit(sampleBets(), opts, 0)

	if err := WritePNG(filepath.Join(dir, "one.png"), points[:1]); err == nil {
		t.Fatal("single day chart should be rejected")
	}

	path := filepath.Join(dir, "daily.png")
	if err := WritePNG(path, points); err != nil {
		t.Fatalf("write png: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Fatalf("png not written: %v", err)
	}
}

func TestWriteXLSX(t *testing.T) {
	bets := sampleBets()
	breakdown := aggregate.BreakdownBets(bets, opts)
	path := filepath.Join(t.TempDir(), "stats.xlsx")

	err := WriteXLSX(path, Workbook{
		Overview: breakdown.Overview,
		Axes: []Axis{
			{Name: "By bookmaker", Summaries: breakdown.ByBookmaker},
			{Name: "By sport", Summaries: breakdown.BySport},
		},
		Daily:  DailyProfit(bets, opts, 0),
		Places: 2,
	})
	if err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 4 || sheets[0] != "Overview" {
		t.Fatalf("unexpected sheets: %v", sheets)
	}
	total, err := f.GetCellValue("Overview", "B1")
	if err != nil || total != "5" {
		t.Fatalf("total bets cell = %q (%v)", total, err)
	}
	rows, err := f.GetRows("By bookmaker")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 || rows[1][0] != "fanduel" {
		t.Fatalf("unexpected bookmaker rows: %v", rows)
	}
}
