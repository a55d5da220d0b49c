package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/DebasishBarai/remind-me/config"
	"github.com/DebasishBarai/remind-me/db"
	"github.com/DebasishBarai/remind-me/logging"
	"github.com/DebasishBarai/remind-me/metrics"
	"github.com/DebasishBarai/remind-me/models"
	"github.com/DebasishBarai/remind-me/services"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "remindme",
	Short:   "RemindMe - scheduled WhatsApp reminders",
	Version: Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and the reminder dispatcher",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := db.Open(cfg.DatabaseURL, cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Migrate(cmd.Context()); err != nil {
			return err
		}
		log.Info().Str("dialect", store.Dialect()).Msg("Database schema verified")
		return nil
	},
}

var setTierCmd = &cobra.Command{
	Use:   "set-tier <email> <free|basic|premium>",
	Short: "Change a user's subscription tier",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tier, ok := models.ParseTier(args[1])
		if !ok {
			return fmt.Errorf("unknown tier %q", args[1])
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := db.Open(cfg.DatabaseURL, cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		user, err := store.FindUserByEmail(ctx, args[0])
		if err != nil {
			return err
		}
		if err := store.UpdateUserTier(ctx, user.ID, tier); err != nil {
			return err
		}
		metrics.TierChanges.WithLabelValues(string(tier), "admin").Inc()
		log.Info().Str("user_id", user.ID).Str("email", user.Email).
			Str("from", string(user.SubscriptionTier)).Str("to", string(tier)).
			Msg("Subscription tier changed")
		return nil
	},
}

var linkTimeout time.Duration

var linkWhatsAppCmd = &cobra.Command{
	Use:   "link-whatsapp [phone]",
	Short: "Link this server as a WhatsApp companion device",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		phone := ""
		if len(args) == 1 {
			phone = args[0]
		} else {
			fmt.Fprint(cmd.OutOrStdout(), "Phone number (with country code): ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil {
				return fmt.Errorf("read phone number: %w", err)
			}
			phone = strings.TrimSpace(line)
		}
		if phone == "" {
			return fmt.Errorf("phone number is required")
		}

		ctx := cmd.Context()
		sender, err := services.NewWhatsAppSender(ctx, cfg.WhatsAppStoreDialect, cfg.WhatsAppStoreDSN, log.Logger)
		if err != nil {
			return err
		}
		defer sender.Close()

		if sender.Linked() {
			fmt.Fprintln(cmd.OutOrStdout(), "Device already linked")
			return nil
		}
		err = sender.Pair(ctx, phone, linkTimeout, func(code string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Enter this code on your phone (Linked devices > Link with phone number): %s\n", code)
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Device linked")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "RemindMe %s\n", Version)
		if GitCommit != "unknown" {
			fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", GitCommit)
		}
	},
}

func init() {
	linkWhatsAppCmd.Flags().DurationVar(&linkTimeout, "timeout", 3*time.Minute, "how long to wait for the phone to confirm")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(setTierCmd)
	rootCmd.AddCommand(linkWhatsAppCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (*config.Config, error) {
	logging.Init(logging.Config{Format: "auto", Level: "info", Component: "remindme"})

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel, Component: "remindme"})
	return cfg, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
