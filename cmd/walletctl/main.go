package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/pocket-wallet/internal/auth"
	"github.com/josh-kwaku/pocket-wallet/internal/config"
	"github.com/josh-kwaku/pocket-wallet/internal/domain"
	"github.com/josh-kwaku/pocket-wallet/internal/logging"
	"github.com/josh-kwaku/pocket-wallet/internal/present"
	"github.com/josh-kwaku/pocket-wallet/internal/repository"
	"github.com/josh-kwaku/pocket-wallet/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

type cli struct {
	cfg     *config.Config
	envFile string
	driver  string
	dir     string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:               "walletctl",
		Short:             "Maintenance commands for the wallet store",
		SilenceUsage:      true,
		PersistentPreRunE: c.setupConfig,
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", "", "dotenv file to load (default .env)")
	root.PersistentFlags().StringVar(&c.driver, "driver", "", "override STORE_DRIVER")
	root.PersistentFlags().StringVar(&c.dir, "dir", "", "override STORE_DIR")

	root.AddCommand(c.migrateCmd(), c.resetCmd(), c.showCmd())
	return root
}

func (c *cli) setupConfig(cmd *cobra.Command, _ []string) error {
	var files []string
	if c.envFile != "" {
		files = append(files, c.envFile)
	}

	cfg, err := config.Load(files...)
	if err != nil {
		return err
	}
	if c.driver != "" {
		cfg.StoreDriver = c.driver
	}
	if c.dir != "" {
		cfg.StoreDir = c.dir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.Init("walletctl", cfg.LogLevel, "development")
	c.cfg = cfg
	return nil
}

func (c *cli) migrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations to the postgres store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.StoreDriver != repository.DriverPostgres {
				return fmt.Errorf("migrate: store driver is %q, not postgres", c.cfg.StoreDriver)
			}
			if dir == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				if dir, err = repository.FindMigrationsDir(wd); err != nil {
					return err
				}
			}

			opts := c.cfg.StoreOptions()
			db, err := repository.NewPostgresDB(cmd.Context(), opts.DatabaseURL, opts.Pool)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := repository.ApplyMigrations(cmd.Context(), db, dir)
			if err != nil {
				return err
			}
			for _, f := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), "applied", f)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "migrations", "", "migrations directory (default: nearest ./migrations)")
	return cmd
}

func (c *cli) resetCmd() *cobra.Command {
	var samples, hashPIN bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Overwrite the stored wallet with the default account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeStore, err := repository.OpenStore(cmd.Context(), c.cfg.StoreOptions())
			if err != nil {
				return err
			}
			defer closeStore()

			snap := &domain.Snapshot{Account: domain.DefaultAccount()}
			if hashPIN {
				hashed, err := auth.HashPIN(snap.Account.PIN)
				if err != nil {
					return err
				}
				snap.Account.PIN = hashed
			}
			if samples {
				snap.Transactions = service.SampleTransactions(time.Now(), c.cfg.Location())
			}
			if err := store.Save(cmd.Context(), snap); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "reset %s wallet %q: balance %s, %d transactions\n",
				c.cfg.StoreDriver, c.cfg.StoreKey, present.Money(snap.Account.Balance), len(snap.Transactions))
			return nil
		},
	}
	cmd.Flags().BoolVar(&samples, "samples", true, "include the sample transaction history")
	cmd.Flags().BoolVar(&hashPIN, "hash-pin", false, "store the PIN as a bcrypt hash; browser clients cannot read it back")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored account and recent transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeStore, err := repository.OpenStore(cmd.Context(), c.cfg.StoreOptions())
			if err != nil {
				return err
			}
			defer closeStore()

			snap, err := store.Load(cmd.Context(), domain.DefaultAccount())
			if errors.Is(err, domain.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "no wallet stored")
				return nil
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s) balance %s\n", snap.Account.Name, snap.Account.Phone, present.Money(snap.Account.Balance))

			format := present.NewFormatter(c.cfg.Location())
			recs := snap.Transactions
			if limit > 0 && limit < len(recs) {
				recs = recs[:limit]
			}
			for _, r := range format.Records(recs) {
				fmt.Fprintf(out, "%s  %-10s %12s  %s  %s\n", r.ID, r.Type, r.AmountDisplay, r.Date, r.Title)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of transactions to print, 0 for all")
	return cmd
}
