package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"betdesk/internal/app"
)

var (
	statsLimit int
	statsSort  string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print bet statistics by bookmaker, sport and day",
	RunE: func(cmd *cobra.Command, args []string) error {
		if statsLimit < 0 {
			return fmt.Errorf("--limit cannot be negative")
		}
		switch statsSort {
		case "profit", "count", "key":
		default:
			return fmt.Errorf("--sort must be one of profit, count, key")
		}

		return getApp().Stats(cmd.Context(), app.StatsOptions{
			Out:   cmd.OutOrStdout(),
			Limit: statsLimit,
			Sort:  statsSort,
		})
	},
}

func init() {
	statsCmd.Flags().IntVar(&statsLimit, "limit", 0, "Rows per table (0 shows all)")
	statsCmd.Flags().StringVar(&statsSort, "sort", "profit", "Order of the bookmaker and sport tables: profit, count or key")
}
