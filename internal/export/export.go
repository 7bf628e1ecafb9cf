// Package export writes bet statistics to CSV, PNG and XLSX files.
package export

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"betdesk/internal/aggregate"
	"betdesk/internal/domain"
)

// DailyPoint is one day of the profit curve.
type DailyPoint struct {
	Day          time.Time
	Bets         int
	Wins         int
	Profit       decimal.Decimal
	Cumulative   decimal.Decimal
	WinRate      *decimal.Decimal
	ProfitString string
}

// DailyProfit builds the per-day profit curve in chronological order. Bets
// without a usable date are skipped. When maxDays is positive only the most
// recent maxDays days are kept, the cumulative column still starting from the
// first dated bet.
func DailyProfit(bets []domain.Bet, opts aggregate.BetOptions, maxDays int) []DailyPoint {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	summaries := aggregate.Finalize(aggregate.BetsByDay(bets, opts), opts.Places)
	points := make([]DailyPoint, 0, len(summaries))
	for _, s := range summaries {
		if s.Key == aggregate.Unknown {
			continue
		}
		day, err := time.ParseInLocation(aggregate.DayLayout, s.Key, loc)
		if err != nil {
			continue
		}
		points = append(points, DailyPoint{
			Day:          day,
			Bets:         s.Count,
			Wins:         s.SuccessCount,
			Profit:       s.ProfitValue,
			WinRate:      s.WinRate,
			ProfitString: s.Profit,
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Day.Before(points[j].Day) })

	running := decimal.Zero
	for i := range points {
		running = running.Add(points[i].Profit)
		points[i].Cumulative = running
	}

	if maxDays > 0 && len(points) > maxDays {
		points = points[len(points)-maxDays:]
	}
	return points
}

// WriteCSV writes the daily curve with a header row.
func WriteCSV(path string, points []DailyPoint, places int32) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"day", "bets", "wins", "win_rate", "profit", "cumulative_profit"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, p := range points {
		winRate := ""
		if p.WinRate != nil {
			winRate = p.WinRate.StringFixed(4)
		}
		record := []string{
			p.Day.Format(aggregate.DayLayout),
			strconv.Itoa(p.Bets),
			strconv.Itoa(p.Wins),
			winRate,
			p.Profit.StringFixed(places),
			p.Cumulative.StringFixed(places),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WritePNG renders daily and cumulative profit. At least two days are needed
// to draw a time axis.
func WritePNG(path string, points []DailyPoint) error {
	if len(points) < 2 {
		return errors.New("chart needs at least two days of data")
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(points))
	daily := make([]float64, len(points))
	cumulative := make([]float64, len(points))
	for i, p := range points {
		x[i] = p.Day
		daily[i] = p.Profit.InexactFloat64()
		cumulative[i] = p.Cumulative.InexactFloat64()
	}

	moneyFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Cumulative profit",
			ValueFormatter: moneyFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Daily profit",
			ValueFormatter: moneyFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Cumulative",
				XValues: x,
				YValues: cumulative,
			},
			chart.TimeSeries{
				Name:    "Daily",
				XValues: x,
				YValues: daily,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
