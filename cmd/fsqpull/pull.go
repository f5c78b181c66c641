package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"fsqpull/pkg/auth"
	"fsqpull/pkg/config"
	"fsqpull/pkg/foursquare"
	"fsqpull/pkg/logger"
	"fsqpull/pkg/places"
	"fsqpull/pkg/puller"
	"fsqpull/pkg/store"
)

var (
	pullDBPath     string
	pullServiceKey string
	pullPageSize   int
	pullAccount    string
	pullToken      string
)

// pullCmd represents the pull command
var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull new check-ins into the local database",
	Long: `Pull fetches your check-in history newest-first, stops at the first
check-in already pulled by a previous run, and records everything new in
the local SQLite database. Place details are fetched once per venue and
cached forever.

The first run pulls the full history. Later runs only fetch what is new
since the recorded high-water mark.`,
	Example: `  # Pull using the stored default account
  fsqpull pull

  # Pull a specific stored account into a custom database
  fsqpull pull --account 12345 --db-path ~/checkins.db

  # Pull with an explicit token, no stored credentials needed
  fsqpull pull --token "$TOKEN" --service-key "$FOURSQUARE_API_KEY"`,
	Run: runPull,
}

func init() {
	rootCmd.AddCommand(pullCmd)
	pullCmd.Flags().StringVar(&pullDBPath, "db-path", "", "path to the SQLite database")
	pullCmd.Flags().StringVar(&pullServiceKey, "service-key", "", "Places API service key")
	pullCmd.Flags().IntVar(&pullPageSize, "page-size", 0, "check-ins per API page")
	pullCmd.Flags().StringVar(&pullAccount, "account", "", "stored account to pull (defaults to the only stored account)")
	pullCmd.Flags().StringVar(&pullToken, "token", "", "OAuth access token (bypasses stored credentials)")
}

func runPull(cmd *cobra.Command, args []string) {
	flags := globalFlags()
	if pullDBPath != "" {
		flags["db-path"] = pullDBPath
	}
	if pullServiceKey != "" {
		flags["service-key"] = pullServiceKey
	}
	if pullPageSize > 0 {
		flags["page-size"] = pullPageSize
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
	log := logger.GetLogger()

	client := foursquare.NewClient(cfg, log)

	accessToken, userID, serviceKey, err := resolveCredentials(cfg, client, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to resolve credentials:", err)
		os.Exit(1)
	}
	if serviceKey == "" {
		fmt.Fprintln(os.Stderr, "missing Places API service key: set FOURSQUARE_API_KEY or use --service-key")
		os.Exit(1)
	}

	st, err := store.Open(cfg.Database.Path, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open database:", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to prepare database schema:", err)
		os.Exit(1)
	}

	resolver := places.New(st, client, serviceKey, log)
	engine := puller.New(cfg, client, st, resolver, log)

	stats, err := engine.Pull(userID, accessToken)
	if err != nil {
		fmt.Fprintln(os.Stderr, "pull failed:", err)
		os.Exit(1)
	}

	total, err := st.CountCheckins(userID)
	if err != nil {
		total = -1
	}

	fmt.Printf("Pulled %d new check-ins (%d new places, %d API requests, %s)\n",
		stats.CheckinsPulled, stats.PlacesPulled, stats.APIRequests, stats.Duration.Round(10*time.Millisecond))
	if total >= 0 {
		fmt.Printf("Database now holds %d check-ins for user %s\n", total, userID)
	}
}

// resolveCredentials produces the access token, user identifier, and service
// key for this run. Precedence: --token flag, then stored credentials, then
// the interactive OAuth flow (which stores the result for next time).
func resolveCredentials(cfg *config.Config, client *foursquare.Client, log logger.Logger) (accessToken, userID, serviceKey string, err error) {
	serviceKey = cfg.Foursquare.ServiceKey

	if pullToken != "" {
		userID, err = client.Self(pullToken)
		if err != nil {
			return "", "", "", fmt.Errorf("token rejected by API: %w", err)
		}
		return pullToken, userID, serviceKey, nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return "", "", "", err
	}

	var account *auth.Account
	if pullAccount != "" {
		account, err = manager.Retrieve(pullAccount)
	} else {
		account, err = manager.RetrieveDefault()
	}

	if err == nil && account != nil {
		if serviceKey == "" {
			serviceKey = account.ServiceKey
		}
		return account.AccessToken, account.UserID, serviceKey, nil
	}

	// No stored credentials: fall through to the browser flow.
	if cfg.Foursquare.ClientID == "" || cfg.Foursquare.ClientSecret == "" {
		return "", "", "", fmt.Errorf("no stored credentials and no OAuth app configured: run 'fsqpull auth login' or set CLIENT_ID and CLIENT_SECRET")
	}

	provider := &auth.InteractiveProvider{
		Authenticator: auth.NewAuthenticator(cfg.Foursquare, log),
		In:            os.Stdin,
		Out:           os.Stderr,
	}
	accessToken, err = provider.ObtainUserToken()
	if err != nil {
		return "", "", "", err
	}

	userID, err = client.Self(accessToken)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to identify authorized user: %w", err)
	}

	storeErr := manager.Store(&auth.Account{
		UserID:      userID,
		AccessToken: accessToken,
		ServiceKey:  serviceKey,
	})
	if storeErr != nil {
		log.WithError(storeErr).Warn("failed to store credentials, they will be requested again next run")
	}

	return accessToken, userID, serviceKey, nil
}
