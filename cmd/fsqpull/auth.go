package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"fsqpull/pkg/auth"
	"fsqpull/pkg/config"
	"fsqpull/pkg/foursquare"
	"fsqpull/pkg/logger"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Foursquare credentials",
	Long: `Manage stored Foursquare credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Never share your credentials or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize access and store credentials securely",
	Long: `Run the OAuth authorization flow and store the resulting token in the
system keychain or encrypted file.

You will be shown an authorization URL to open in your browser. After
approving access, paste the redirect URL back into the terminal. The
Places API service key is read separately, hidden as you type.

Requires CLIENT_ID and CLIENT_SECRET for your registered Foursquare app,
via environment variables, a .env file, or the config file.`,
	Example: `  # Interactive login
  fsqpull auth login`,
	Run: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [user-id]",
	Short: "Remove stored credentials",
	Long: `Remove stored Foursquare credentials.

If no user id is provided, you will be shown a list of stored accounts
to choose from. You can also remove all accounts at once.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored Foursquare accounts with sanitized credential information.`,
	Run:   runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	if err := logger.Initialize(&logger.Config{Level: cfg.Logging.Level, File: cfg.Logging.File}); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	log := logger.GetLogger()

	if cfg.Foursquare.ClientID == "" || cfg.Foursquare.ClientSecret == "" {
		fmt.Fprintln(os.Stderr, "missing OAuth app credentials: set CLIENT_ID and CLIENT_SECRET")
		os.Exit(1)
	}

	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize credential manager:", err)
		os.Exit(1)
	}

	provider := &auth.InteractiveProvider{
		Authenticator: auth.NewAuthenticator(cfg.Foursquare, log),
		In:            os.Stdin,
		Out:           os.Stdout,
	}

	accessToken, err := provider.ObtainUserToken()
	if err != nil {
		fmt.Fprintln(os.Stderr, "authorization failed:", err)
		os.Exit(1)
	}

	client := foursquare.NewClient(cfg, log)
	userID, err := client.Self(accessToken)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to identify authorized user:", err)
		os.Exit(1)
	}
	fmt.Printf("\nAuthorized as Foursquare user %s\n", userID)

	serviceKey := cfg.Foursquare.ServiceKey
	if serviceKey == "" {
		fmt.Print("\nPlaces API service key (press Enter to skip): ")
		serviceKey, err = readSecret()
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to read service key:", err)
			os.Exit(1)
		}
	}

	account := &auth.Account{
		UserID:      userID,
		AccessToken: accessToken,
		ServiceKey:  serviceKey,
	}

	if err := manager.Store(account); err != nil {
		fmt.Fprintln(os.Stderr, "failed to store credentials:", err)
		os.Exit(1)
	}

	fmt.Println("\nCredentials stored successfully.")
	fmt.Println("\nPull your check-in history with:")
	fmt.Println("  $ fsqpull pull")
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize credential manager:", err)
		os.Exit(1)
	}

	if len(args) > 0 {
		userID := args[0]
		if err := manager.Delete(userID); err != nil {
			fmt.Fprintln(os.Stderr, "failed to remove account:", err)
			os.Exit(1)
		}
		fmt.Println("Account removed:", userID)
		return
	}

	accounts, err := manager.List()
	if err != nil || len(accounts) == 0 {
		fmt.Fprintln(os.Stderr, "no stored accounts found")
		return
	}

	reader := bufio.NewReader(os.Stdin)

	if len(accounts) == 1 {
		account := accounts[0]
		fmt.Printf("Remove account '%s'? (y/N): ", account.UserID)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
		if err := manager.Delete(account.UserID); err != nil {
			fmt.Fprintln(os.Stderr, "failed to remove account:", err)
			os.Exit(1)
		}
		fmt.Println("Account removed:", account.UserID)
		return
	}

	fmt.Println("Select account to remove:")
	for i, account := range accounts {
		fmt.Printf("  %d. %s\n", i+1, account.UserID)
	}
	fmt.Printf("  %d. Remove all accounts\n", len(accounts)+1)
	fmt.Printf("  0. Cancel\n\n")
	fmt.Print("Choice: ")
	input, _ := reader.ReadString('\n')

	var choice int
	fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)

	switch {
	case choice == 0:
		return
	case choice == len(accounts)+1:
		fmt.Print("Remove ALL accounts? This cannot be undone! (yes/N): ")
		confirm, _ := reader.ReadString('\n')
		if strings.TrimSpace(confirm) != "yes" {
			return
		}
		if err := manager.DeleteAll(); err != nil {
			fmt.Fprintln(os.Stderr, "failed to remove all accounts:", err)
			os.Exit(1)
		}
		fmt.Println("All accounts removed")
	case choice > 0 && choice <= len(accounts):
		account := accounts[choice-1]
		if err := manager.Delete(account.UserID); err != nil {
			fmt.Fprintln(os.Stderr, "failed to remove account:", err)
			os.Exit(1)
		}
		fmt.Println("Account removed:", account.UserID)
	default:
		fmt.Fprintln(os.Stderr, "invalid choice")
		os.Exit(1)
	}
}

func runList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize credential manager:", err)
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to list accounts:", err)
		os.Exit(1)
	}

	if len(accounts) == 0 {
		fmt.Println("No stored accounts. Use 'fsqpull auth login' to add one.")
		return
	}

	fmt.Println("Stored accounts:")
	fmt.Println()
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. User ID: %s\n", i+1, sanitized.UserID)
		fmt.Printf("   Access Token: %s\n", sanitized.AccessToken)
		if account.ServiceKey != "" {
			fmt.Printf("   Service Key: %s\n", sanitized.ServiceKey)
		}
		fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
}

// readSecret reads a value from stdin without echoing
func readSecret() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
