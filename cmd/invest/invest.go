package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/invest-contract/contracts/invest/investconst"
	"github.com/nspcc-dev/invest-contract/deploy"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/gas"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newStartCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Open the contract for deposits (owner only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			b, _, err := a.connect(ctx, true, true)
			if err != nil {
				return err
			}
			defer b.close()

			started, err := b.reader().IsStarted()
			if err != nil {
				return fmt.Errorf("check started flag: %w", err)
			}
			if started {
				a.log.Info("contract is already started", zap.Stringer("contract", b.contract))
				return nil
			}

			tx, vub, err := b.contractActor().Start()
			if err = deploy.AwaitHALT(ctx, b.actor, tx, vub, err); err != nil {
				return fmt.Errorf("start contract: %w", err)
			}

			a.log.Info("contract started", zap.Stringer("tx", tx))

			return nil
		},
	}
}

func newInvestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "invest <amount>",
		Short: "Deposit GAS into the contract",
		Long: `Invest transfers the given amount of GAS (decimal, e.g. 1.5) to the contract.
Dividends owed for the previous deposits are paid off by the same transaction.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseDeposit(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			b, _, err := a.connect(ctx, true, true)
			if err != nil {
				return err
			}
			defer b.close()

			tx, vub, err := gas.New(b.actor).Transfer(b.actor.Sender(), b.contract, amount, nil)
			if err = deploy.AwaitHALT(ctx, b.actor, tx, vub, err); err != nil {
				return fmt.Errorf("deposit: %w", err)
			}

			a.log.Info("deposit accepted",
				zap.Stringer("tx", tx),
				zap.String("amount", formatGAS(amount)))

			return nil
		},
	}
}

// parseDeposit decodes decimal GAS amount and checks it against the minimal
// investment.
func parseDeposit(s string) (*big.Int, error) {
	amount, err := fixedn.FromString(s, gasDecimals)
	if err != nil {
		return nil, fmt.Errorf("invalid GAS amount '%s': %w", s, err)
	}

	if amount.Cmp(big.NewInt(investconst.MinInvestment)) < 0 {
		return nil, fmt.Errorf("deposit must be at least %s GAS", formatGAS(big.NewInt(investconst.MinInvestment)))
	}

	return amount, nil
}

func newClaimCmd(a *app) *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim accrued dividends of the configured account",
		Long: `Claim pays off dividends accrued for the whole elapsed periods. With --schedule
the command keeps running and claims on the given cron schedule (e.g.
"@daily" or "0 5 * * *") until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			b, _, err := a.connect(ctx, true, true)
			if err != nil {
				return err
			}
			defer b.close()

			c := &claimer{
				log:    a.log,
				reader: b.reader(),
				claim: func(ctx context.Context) error {
					tx, vub, err := b.contractActor().ClaimDividends(b.actor.Sender())
					if err = deploy.AwaitHALT(ctx, b.actor, tx, vub, err); err != nil {
						return err
					}
					a.log.Info("dividends claimed", zap.Stringer("tx", tx))
					return nil
				},
				investor: b.actor.Sender(),
			}

			if schedule == "" {
				return c.run(ctx)
			}

			return c.schedule(ctx, schedule)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule for periodic claims")

	return cmd
}
