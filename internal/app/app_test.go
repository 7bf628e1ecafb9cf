package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"betdesk/internal/config"
	"betdesk/internal/domain"
)

const betsPayload = `{"bets": [
	{"id": 1, "book_key": "fanduel", "sport_key": "basketball_nba", "stake_amount": "10", "bet_price": 120, "result": "win", "payout_amount": "22", "placed_at": "2024-06-01T10:00:00Z", "settled_at": "2024-06-01T20:00:00Z"},
	{"id": 2, "book_key": "draftkings", "sport_key": "basketball_nba", "stake_amount": "10", "bet_price": -110, "result": "loss", "payout_amount": "0", "placed_at": "2024-06-02T10:00:00Z", "settled_at": "2024-06-02T20:00:00Z"},
	{"id": 3, "book_key": "fanduel", "sport_key": "icehockey_nhl", "stake_amount": "5", "bet_price": 150, "result": "pending", "placed_at": "2024-06-03T10:00:00Z"}
]}`

func newTestApp(t *testing.T) *App {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bets":
			_, _ = w.Write([]byte(betsPayload))
		case "/opportunities":
			_, _ = w.Write([]byte(`[]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Backend: config.BackendConfig{BaseURL: srv.URL, RequestTimeout: time.Second},
		Display: config.DisplayConfig{ProfitPlaces: 2, WinResult: "win", Timezone: "UTC", CarouselPageSize: 3},
		Export:  config.ExportConfig{MaxDays: 30},
	}
	return NewApp(cfg, zerolog.Nop())
}

func TestStatsPrintsTables(t *testing.T) {
	a := newTestApp(t)
	var out bytes.Buffer
	if err := a.Stats(context.Background(), StatsOptions{Out: &out}); err != nil {
		t.Fatalf("stats: %v", err)
	}

	text := out.String()
	for _, want := range []string{"By bookmaker", "By sport", "By day", "fanduel", "2024-06-01", "50.0%"} {
		if !strings.Contains(text, want) {
			t.Fatalf("stats output missing %q:\n%s", want, text)
		}
	}
	if strings.Index(text, "fanduel") > strings.Index(text, "draftkings") {
		t.Fatalf("bookmakers should be ordered by profit:\n%s", text)
	}
}

func TestExportWritesFiles(t *testing.T) {
	a := newTestApp(t)
	dir := t.TempDir()
	to := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	opts := ExportOptions{
		To:       &to,
		CSVPath:  filepath.Join(dir, "daily.csv"),
		XLSXPath: filepath.Join(dir, "stats.xlsx"),
	}
	if err := a.Export(context.Background(), opts); err != nil {
		t.Fatalf("export: %v", err)
	}
	for _, path := range []string{opts.CSVPath, opts.XLSXPath} {
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Fatalf("%s not written: %v", path, err)
		}
	}
	csvData, _ := os.ReadFile(opts.CSVPath)
	if !strings.Contains(string(csvData), "2024-06-02,1,0,0.0000,-10.00,2.00") {
		t.Fatalf("unexpected csv:\n%s", csvData)
	}
}

func TestExportValidation(t *testing.T) {
	a := newTestApp(t)
	if err := a.Export(context.Background(), ExportOptions{}); err == nil {
		t.Fatal("export without outputs should fail")
	}
	from := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)
	if err := a.Export(context.Background(), ExportOptions{From: &from, To: &to, CSVPath: "x.csv"}); err == nil {
		t.Fatal("inverted window should fail")
	}
}

func TestFilterPlaced(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	bets := []domain.Bet{
		{ID: "in", PlacedAt: from, Stake: decimal.NewFromInt(1)},
		{ID: "edge", PlacedAt: to},
		{ID: "before", PlacedAt: from.Add(-time.Second)},
		{ID: "undated"},
	}
	kept := filterPlaced(bets, from, to)
	if len(kept) != 2 || kept[0].ID != "in" || kept[1].ID != "undated" {
		t.Fatalf("unexpected filter result: %v", kept)
	}
}
