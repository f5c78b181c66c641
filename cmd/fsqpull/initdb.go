package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fsqpull/pkg/config"
	"fsqpull/pkg/logger"
	"fsqpull/pkg/store"
)

var (
	initDBPath  string
	initDBForce bool
)

// initdbCmd represents the initdb command
var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the local database schema",
	Long: `Create the SQLite tables, indexes, and reporting views used by the
sync engine. Running it against an existing database is safe: existing
tables and data are left untouched.

With --force the schema is dropped and recreated, destroying all pulled
data including the sync watermarks.`,
	Example: `  # Create the schema
  fsqpull initdb

  # Recreate from scratch, discarding all data
  fsqpull initdb --force`,
	Run: runInitDB,
}

func init() {
	rootCmd.AddCommand(initdbCmd)
	initdbCmd.Flags().StringVar(&initDBPath, "db-path", "", "path to the SQLite database")
	initdbCmd.Flags().BoolVar(&initDBForce, "force", false, "drop and recreate the schema")
}

func runInitDB(cmd *cobra.Command, args []string) {
	flags := globalFlags()
	if initDBPath != "" {
		flags["db-path"] = initDBPath
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

	if initDBForce {
		fmt.Printf("This will DELETE all data in %s. Continue? (yes/N): ", cfg.Database.Path)
		reader := bufio.NewReader(os.Stdin)
		input, _ := reader.ReadString('\n')
		if strings.TrimSpace(input) != "yes" {
			fmt.Println("Aborted.")
			return
		}
		if err := st.Drop(); err != nil {
			fmt.Fprintln(os.Stderr, "failed to drop schema:", err)
			os.Exit(1)
		}
	}

	if err := st.Migrate(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to create schema:", err)
		os.Exit(1)
	}

	if err := st.VerifySchema(); err != nil {
		fmt.Fprintln(os.Stderr, "schema verification failed:", err)
		os.Exit(1)
	}

	fmt.Printf("Database ready at %s\n", cfg.Database.Path)
}
