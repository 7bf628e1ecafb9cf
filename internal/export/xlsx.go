package export

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"betdesk/internal/aggregate"
)

const defaultSheet = "Sheet1"

// Workbook is the content of the XLSX export.
type Workbook struct {
	Overview aggregate.Overview
	Axes     []Axis
	Daily    []DailyPoint
	Places   int32
}

// Axis is one summary table, written to its own sheet.
type Axis struct {
	Name      string
	Summaries []aggregate.Summary
}

// WriteXLSX writes an overview sheet, one sheet per axis and the daily curve.
func WriteXLSX(path string, wb Workbook) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, "Overview"); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeOverview(f, "Overview", wb.Overview); err != nil {
		return err
	}

	for _, axis := range wb.Axes {
		if _, err := f.NewSheet(axis.Name); err != nil {
			return fmt.Errorf("create sheet %s: %w", axis.Name, err)
		}
		if err := writeSummaries(f, axis.Name, axis.Summaries); err != nil {
			return err
		}
	}

	if len(wb.Daily) > 0 {
		if _, err := f.NewSheet("Daily"); err != nil {
			return fmt.Errorf("create sheet Daily: %w", err)
		}
		if err := writeDaily(f, "Daily", wb.Daily, wb.Places); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeOverview(f *excelize.File, sheet string, ov aggregate.Overview) error {
	rows := [][]interface{}{
		{"Total bets", ov.TotalBets},
		{"Settled", ov.Settled},
		{"Pending", ov.Pending},
		{"Wins", ov.Wins},
		{"Losses", ov.Losses},
		{"Pushes", ov.Pushes},
		{"Staked", ov.Staked},
		{"Net profit", ov.NetProfit},
		{"ROI %", decimalOrBlank(ov.ROIPct, 2)},
		{"Win rate", decimalOrBlank(ov.WinRate, 4)},
	}
	return writeRows(f, sheet, rows)
}

func writeSummaries(f *excelize.File, sheet string, summaries []aggregate.Summary) error {
	rows := make([][]interface{}, 0, len(summaries)+1)
	rows = append(rows, []interface{}{"Key", "Count", "Successes", "Win rate", "Profit"})
	for _, s := range summaries {
		rows = append(rows, []interface{}{s.Key, s.Count, s.SuccessCount, decimalOrBlank(s.WinRate, 4), s.Profit})
	}
	return writeRows(f, sheet, rows)
}

func writeDaily(f *excelize.File, sheet string, points []DailyPoint, places int32) error {
	rows := make([][]interface{}, 0, len(points)+1)
	rows = append(rows, []interface{}{"Day", "Bets", "Wins", "Profit", "Cumulative"})
	for _, p := range points {
		rows = append(rows, []interface{}{
			p.Day.Format(aggregate.DayLayout),
			p.Bets,
			p.Wins,
			p.Profit.StringFixed(places),
			p.Cumulative.StringFixed(places),
		})
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func decimalOrBlank(d *decimal.Decimal, places int32) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(places)
}
