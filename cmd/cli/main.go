package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/farmledger/internal/adapter/journal"
	"github.com/iho/farmledger/internal/app"
	"github.com/iho/farmledger/internal/domain"
	"github.com/iho/farmledger/internal/infrastructure/config"
	"github.com/iho/farmledger/internal/infrastructure/logger"
	"github.com/iho/farmledger/internal/infrastructure/postgres"
	"github.com/iho/farmledger/internal/usecase"
)

type cli struct {
	out     io.Writer
	cfg     *config.Config
	logger  zerolog.Logger
	timeout time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	rootCmd := &cobra.Command{
		Use:           "farmledger",
		Short:         "FarmLedger admin tool",
		Long:          `Administrative commands for the FarmLedger ledger: migrations, reconciliation, withdrawals and accrual.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			c.cfg = cfg
			c.logger = logger.New(logger.Config{
				Output: os.Stderr,
				Level:  cfg.LogLevel,
				Format: "console",
			})
			log.Logger = c.logger
			return nil
		},
	}
	rootCmd.PersistentFlags().DurationVar(&c.timeout, "timeout", 2*time.Minute, "Command timeout")

	rootCmd.AddCommand(
		c.migrateCmd(),
		c.reconcileCmd(),
		c.withdrawalCmd(),
		c.accrueCmd(),
		c.balanceCmd(),
		c.accountCmd(),
		c.sponsorCmd(),
		c.ticksCmd(),
	)

	return rootCmd
}

// withApp connects, runs fn and disconnects.
func (c *cli) withApp(cmd *cobra.Command, opts app.Options, fn func(ctx context.Context, a *app.App) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	defer cancel()

	a, err := app.New(ctx, c.cfg, c.logger, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func (c *cli) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return postgres.RunMigrations(c.cfg.DatabaseURL, c.cfg.MigrationsPath)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return postgres.RunMigrationsDown(c.cfg.DatabaseURL, c.cfg.MigrationsPath)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				version, dirty, err := postgres.MigrationVersion(c.cfg.DatabaseURL, c.cfg.MigrationsPath)
				if err != nil {
					return err
				}
				return printJSON(c.out, map[string]any{"version": version, "dirty": dirty})
			},
		},
	)

	return cmd
}

func (c *cli) reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [account-id]",
		Short: "Recompute balances from entries and report differences",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, app.Options{}, func(ctx context.Context, a *app.App) error {
				if len(args) == 1 {
					result, err := a.Engine.Reconciliation.Reconcile(ctx, args[0])
					if result != nil {
						if perr := printJSON(c.out, result); perr != nil {
							return perr
						}
					}
					return err
				}

				report, err := a.Engine.Reconciliation.ReconcileAll(ctx)
				if report != nil {
					if perr := printJSON(c.out, report); perr != nil {
						return perr
					}
				}
				return err
			})
		},
	}
}

func (c *cli) withdrawalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdrawal",
		Short: "Withdrawal review",
	}

	var reason string
	reject := &cobra.Command{
		Use:   "reject <withdrawal-id>",
		Short: "Reject a pending withdrawal and refund it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if reason == "" {
				return errors.New("--reason is required")
			}
			return c.withApp(cmd, app.Options{}, func(ctx context.Context, a *app.App) error {
				w, err := a.Engine.Withdrawals.Reject(ctx, args[0], reason)
				if err != nil {
					return err
				}
				return printJSON(c.out, w)
			})
		},
	}
	reject.Flags().StringVar(&reason, "reason", "", "Rejection reason shown to the user")

	var limit int
	list := &cobra.Command{
		Use:   "pending",
		Short: "List pending withdrawals, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, app.Options{}, func(ctx context.Context, a *app.App) error {
				pending, err := a.Engine.Withdrawals.ListPending(ctx, limit, 0)
				if err != nil {
					return err
				}
				return printJSON(c.out, pending)
			})
		},
	}
	list.Flags().IntVar(&limit, "limit", 50, "Maximum rows")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "approve <withdrawal-id>",
			Short: "Approve a pending withdrawal",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(cmd, app.Options{}, func(ctx context.Context, a *app.App) error {
					w, err := a.Engine.Withdrawals.Approve(ctx, args[0])
					if err != nil {
						return err
					}
					if err := printJSON(c.out, w); err != nil {
						return err
					}
					if w.State == domain.WithdrawalStateRejected {
						return fmt.Errorf("withdrawal %s rejected: %s", w.ID, w.Reason)
					}
					return nil
				})
			},
		},
		reject,
		list,
	)

	return cmd
}

func (c *cli) accrueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accrue",
		Short: "Accrual operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "once",
		Short: "Run one accrual tick now, honouring the worker lease",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, app.Options{WithRedis: true, WithJournal: true}, func(ctx context.Context, a *app.App) error {
				report, ran, err := a.AccrualWorker().RunOnce(ctx)
				if err != nil {
					return err
				}
				if !ran {
					return errors.New("another worker holds the accrual lease")
				}
				return printJSON(c.out, report)
			})
		},
	})

	return cmd
}

func (c *cli) balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Show every currency balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, app.Options{}, func(ctx context.Context, a *app.App) error {
				balances, err := a.Engine.Balances.ListBalances(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(c.out, balances)
			})
		},
	}
}

func (c *cli) accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account management",
	}

	var sponsor string
	create := &cobra.Command{
		Use:   "create <account-id>",
		Short: "Create an account, optionally under a sponsor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := usecase.CreateAccountInput{ID: args[0]}
			if sponsor != "" {
				input.SponsorID = &sponsor
			}
			return c.withApp(cmd, app.Options{}, func(ctx context.Context, a *app.App) error {
				account, err := a.Engine.Sponsors.CreateAccount(ctx, input)
				if err != nil {
					return err
				}
				return printJSON(c.out, account)
			})
		},
	}
	create.Flags().StringVar(&sponsor, "sponsor", "", "Sponsor account id")

	var (
		currency string
		amount   string
		reason   string
	)
	adjust := &cobra.Command{
		Use:   "adjust <account-id>",
		Short: "Post a manual adjustment; negative amounts debit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid --amount: %w", err)
			}
			input := usecase.CreditInput{
				AccountID:   args[0],
				Amount:      value.Abs(),
				Currency:    domain.Currency(currency),
				Kind:        domain.EntryKindAdjustment,
				Description: reason,
			}
			return c.withApp(cmd, app.Options{}, func(ctx context.Context, a *app.App) error {
				var entry *domain.LedgerEntry
				if value.IsNegative() {
					entry, err = a.Engine.Balances.Debit(ctx, usecase.DebitInput(input))
				} else {
					entry, err = a.Engine.Balances.Credit(ctx, input)
				}
				if err != nil {
					return err
				}
				return printJSON(c.out, entry)
			})
		},
	}
	adjust.Flags().StringVar(&currency, "currency", string(domain.CurrencyPoints), "Currency code")
	adjust.Flags().StringVar(&amount, "amount", "", "Signed amount")
	adjust.Flags().StringVar(&reason, "reason", "", "Description stored on the entry")
	_ = adjust.MarkFlagRequired("amount")

	cmd.AddCommand(create, adjust)
	return cmd
}

func (c *cli) sponsorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sponsor",
		Short: "Referral graph",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <account-id> <sponsor-id>",
			Short: "Attach a sponsor to an account that has none",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(cmd, app.Options{}, func(ctx context.Context, a *app.App) error {
					if err := a.Engine.Sponsors.SetSponsor(ctx, args[0], args[1]); err != nil {
						return err
					}
					return printJSON(c.out, map[string]string{"account_id": args[0], "sponsor_id": args[1]})
				})
			},
		},
		&cobra.Command{
			Use:   "chain <account-id>",
			Short: "Show the sponsor chain, nearest first",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(cmd, app.Options{}, func(ctx context.Context, a *app.App) error {
					chain, err := a.Engine.Sponsors.SponsorChain(ctx, args[0])
					if err != nil {
						return err
					}
					return printJSON(c.out, chain)
				})
			},
		},
	)

	return cmd
}

func (c *cli) ticksCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "ticks",
		Short: "Show recent accrual ticks from the local journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := journal.NewTickJournal(c.cfg.JournalDir)
			if err != nil {
				return err
			}
			defer j.Close()

			records, err := j.Recent(limit)
			if err != nil {
				return err
			}
			return printJSON(c.out, records)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 12, "Number of ticks")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
