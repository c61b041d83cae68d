// Package cmd implements the roster CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lumahq/roster/config"
	"github.com/lumahq/roster/credentials"
	"github.com/lumahq/roster/pkg/buildinfo"
	"github.com/lumahq/roster/pkg/directory"
	"github.com/lumahq/roster/pkg/logging"
	"github.com/lumahq/roster/pkg/observability"
	"github.com/lumahq/roster/pkg/presence"
	"github.com/lumahq/roster/pkg/roster"

	goredis "github.com/redis/go-redis/v9"
)

// Global flags and state.
var (
	outputFormat string
	debug        bool

	// cfg holds the loaded configuration.
	cfg *config.Config

	// logger is the shared CLI logger.
	logger logging.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "roster",
	Short: "Roster CLI - meeting participant extraction and reconciliation",
	Long: `roster extracts participant identities from meeting transcripts,
matches them against the corporate directory, and reconciles contact
lists into a deduplicated roster with live presence.

COMMON WORKFLOWS:
  Extract a transcript:  roster extract ./transcript.txt
  Reconcile a CSV:       roster batch ./contacts.csv
  Store a token:         roster auth login --token <token>`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// version and help never need configuration.
		if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return err
		}

		if debug {
			cfg.Debug = true
		}
		if outputFormat != "" {
			cfg.OutputFormat = config.OutputFormat(outputFormat)
			if !cfg.OutputFormat.IsValid() {
				return fmt.Errorf("invalid output format: %q", outputFormat)
			}
		}

		level := logging.LevelInfo
		if cfg.Debug {
			level = logging.LevelDebug
		}
		logger = logging.NewLogger(&logging.Config{
			Level:      level,
			Component:  "roster-cli",
			JSONFormat: !term.IsTerminal(int(os.Stderr.Fd())),
		})

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format (text or json)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newExtractCommand())
	rootCmd.AddCommand(newBatchCommand())
	rootCmd.AddCommand(newAuthCommand())
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// directoryToken resolves the bearer token for directory requests.
// ROSTER_DIRECTORY_TOKEN wins so CI never needs a keyring.
func directoryToken() (string, error) {
	if token := os.Getenv("ROSTER_DIRECTORY_TOKEN"); token != "" {
		return token, nil
	}

	store, err := credentials.NewStore()
	if err != nil {
		return "", fmt.Errorf("opening credential store: %w", err)
	}

	token, err := store.ActiveToken()
	if errors.Is(err, credentials.ErrNoCredentials) {
		return "", errors.New("no directory token stored; run 'roster auth login' or set ROSTER_DIRECTORY_TOKEN")
	}
	return token, err
}

// buildEngine wires the composition root: directory client, presence
// cache (Redis when configured, in-process otherwise), and the engine.
func buildEngine() (*roster.Engine, error) {
	token, err := directoryToken()
	if err != nil {
		return nil, err
	}

	client := directory.NewHTTPClient(directory.HTTPOptions{
		BaseURL: cfg.DirectoryURL,
		Token:   directory.StaticToken(token),
		Timeout: cfg.Timeout,
		Logger:  logger,
	})

	var store presence.Store
	if cfg.Presence.Redis.IsConfigured() {
		store = presence.NewRedisStore(goredis.NewClient(&goredis.Options{
			Addr:     cfg.Presence.Redis.Addr,
			Password: cfg.Presence.Redis.Password,
			DB:       cfg.Presence.Redis.DB,
		}), cfg.Presence.TTL)
	}

	cache := presence.NewCache(client, presence.Options{
		TTL:       cfg.Presence.TTL,
		ChunkSize: cfg.Presence.ChunkSize,
		Store:     store,
		Logger:    logger,
	})

	return roster.NewEngine(roster.Options{
		Directory:       client,
		Presence:        cache,
		InternalDomains: cfg.InternalDomains,
		Logger:          logger,
		Metrics:         observability.DefaultMetrics(),
	}), nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the roster CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "roster %s\n", buildinfo.String())
		},
	}
}
