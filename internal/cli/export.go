package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"betdesk/internal/app"
)

var (
	exportFrom     string
	exportTo       string
	exportPNGPath  string
	exportCSVPath  string
	exportXLSXPath string
	exportMaxDays  int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export daily profit as CSV/PNG and summary tables as XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			PNGPath:  exportPNGPath,
			CSVPath:  exportCSVPath,
			XLSXPath: exportXLSXPath,
			MaxDays:  exportMaxDays,
		}

		if exportFrom != "" {
			from, err := parseDateFlag(exportFrom)
			if err != nil {
				return fmt.Errorf("invalid --from value: %w", err)
			}
			opts.From = &from
		}

		if exportTo != "" {
			to, err := parseDateFlag(exportTo)
			if err != nil {
				return fmt.Errorf("invalid --to value: %w", err)
			}
			opts.To = &to
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

// parseDateFlag accepts RFC3339 timestamps or plain dates.
func parseDateFlag(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Start (RFC3339 or YYYY-MM-DD, inclusive)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "End (RFC3339 or YYYY-MM-DD, exclusive)")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write the daily profit chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write daily profit CSV")
	exportCmd.Flags().StringVar(&exportXLSXPath, "xlsx", "", "Path to write the XLSX workbook")
	exportCmd.Flags().IntVar(&exportMaxDays, "max-days", 0, "Days to export (defaults to config)")
}
