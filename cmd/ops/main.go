package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"ideanest-backend/internal/application/investments"
	"ideanest-backend/internal/application/settlement"
	"ideanest-backend/internal/application/sweeper"
	"ideanest-backend/internal/config"
	"ideanest-backend/internal/infrastructure/chain"
	"ideanest-backend/internal/infrastructure/database"
	"ideanest-backend/internal/infrastructure/storage"
	"ideanest-backend/internal/pkg/logging"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ops",
		Short:         "Operator tasks for the IdeaNest API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newSweepCommand())
	cmd.AddCommand(newChainStatusCommand())
	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Env)
	return cfg, nil
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database url is not set for APP_ENV=%s", cfg.Env)
	}
	return database.Open(cfg.DatabaseURL)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the service tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			if err := database.AutoMigrate(db); err != nil {
				return err
			}
			log.Info().Int("tables", len(database.Models())).Msg("migration complete")
			return nil
		},
	}
}

func newSweepCommand() *cobra.Command {
	var grace time.Duration

	cmd := &cobra.Command{
		Use:   "sweep-documents",
		Short: "Delete stored MOU documents no investment refers to",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("grace") {
				grace = cfg.DocumentSweepGrace
			}
			ctx := commandContext(cmd)
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			objects, err := storage.Open(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			s := &sweeper.Sweeper{Store: objects, Keys: &investments.Store{DB: db}, Grace: grace}
			res, err := s.Sweep(ctx)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	cmd.Flags().DurationVar(&grace, "grace", 24*time.Hour, "Keep unreferenced objects younger than this")
	return cmd
}

func newChainStatusCommand() *cobra.Command {
	var walletURL string

	cmd := &cobra.Command{
		Use:   "chain-status",
		Short: "Connect to the wallet provider and report the escrow contract state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if walletURL == "" {
				walletURL = cfg.Chain.WalletRPCURL
			}
			ctx, cancel := context.WithTimeout(commandContext(cmd), time.Minute)
			defer cancel()

			client, err := chain.Dial(ctx, walletURL)
			if err != nil {
				return err
			}
			defer client.Close()
			adapter, err := settlement.New(client, settlement.Config{
				ChainID:         cfg.Chain.ChainID,
				ChainName:       cfg.Chain.ChainName,
				RPCURL:          cfg.Chain.PublicRPCURL,
				ExplorerURL:     cfg.Chain.ExplorerURL,
				ContractAddress: cfg.Chain.ContractAddress,
			}, nil)
			if err != nil {
				return err
			}
			out := map[string]interface{}{"connected": adapter.Connect(ctx)}
			out["status"] = adapter.Status()
			if n, err := adapter.InvestmentCounter(ctx); err == nil {
				out["investment_counter"] = n.String()
			} else {
				out["investment_counter_error"] = err.Error()
			}
			return printJSON(out)
		},
	}
	cmd.Flags().StringVar(&walletURL, "wallet", "", "Wallet JSON-RPC URL (defaults to WALLET_RPC_URL)")
	return cmd
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
