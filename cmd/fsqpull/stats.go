package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"fsqpull/pkg/config"
	"fsqpull/pkg/logger"
	"fsqpull/pkg/store"
)

var (
	statsDBPath string
	statsRecent int
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats <user-id>",
	Short: "Show pull statistics for a user",
	Long: `Show aggregate statistics for a user's pulled check-ins: totals,
unique places, and the first and last check-in dates, plus the most
recent check-ins with their place names.`,
	Args: cobra.ExactArgs(1),
	Run:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsDBPath, "db-path", "", "path to the SQLite database")
	statsCmd.Flags().IntVar(&statsRecent, "recent", 10, "number of recent check-ins to show")
}

func runStats(cmd *cobra.Command, args []string) {
	userID := args[0]

	flags := globalFlags()
	if statsDBPath != "" {
		flags["db-path"] = statsDBPath
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	if err := logger.Initialize(&logger.Config{Level: cfg.Logging.Level, File: cfg.Logging.File}); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.Database.Path, logger.GetLogger())
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open database:", err)
		os.Exit(1)
	}
	defer st.Close()

	userStats, err := st.UserStatsFor(userID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to query stats:", err)
		os.Exit(1)
	}
	if userStats == nil {
		fmt.Printf("No data for user %s. Run 'fsqpull pull' first.\n", userID)
		return
	}

	fmt.Printf("User %s\n", userStats.FoursquareUserID)
	fmt.Printf("  Check-ins:     %d\n", userStats.TotalCheckins)
	fmt.Printf("  Unique places: %d\n", userStats.UniquePlaces)
	if userStats.FirstCheckinDate != nil && userStats.LastCheckinDate != nil {
		fmt.Printf("  First:         %s\n", formatUnix(*userStats.FirstCheckinDate))
		fmt.Printf("  Last:          %s\n", formatUnix(*userStats.LastCheckinDate))
	}

	if statsRecent <= 0 {
		return
	}

	rows, err := st.CheckinsWithPlaces(userID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to query check-ins:", err)
		os.Exit(1)
	}
	if len(rows) == 0 {
		return
	}
	if len(rows) > statsRecent {
		rows = rows[:statsRecent]
	}

	fmt.Println("\nRecent check-ins:")
	for _, row := range rows {
		name := "(unknown place)"
		if row.PlaceName != nil && *row.PlaceName != "" {
			name = *row.PlaceName
		}
		fmt.Printf("  %s  %s\n", formatUnix(row.CreatedAt), name)
	}
}

func formatUnix(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04")
}
