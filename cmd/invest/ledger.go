package main

import (
	"fmt"
	"io"
	"math/big"

	"github.com/nspcc-dev/invest-contract/common"
	"github.com/nspcc-dev/invest-contract/contracts/invest/investconst"
	"github.com/nspcc-dev/invest-contract/dump"
	investrpc "github.com/nspcc-dev/invest-contract/rpc/invest"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/spf13/cobra"
)

// gasDecimals is the GAS token precision.
const gasDecimals = 8

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print global contract state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, _, err := a.connect(cmd.Context(), true, false)
			if err != nil {
				return err
			}
			defer b.close()

			r := b.reader()

			st, recs, err := dump.Collect(r)
			if err != nil {
				return err
			}

			ver, err := r.Version()
			if err != nil {
				return fmt.Errorf("get contract version: %w", err)
			}

			printState(cmd.OutOrStdout(), st, ver.Int64())

			if err = dump.CheckConsistency(st, recs); err != nil {
				return fmt.Errorf("inconsistent ledger: %w", err)
			}

			return nil
		},
	}
}

func newInvestorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "investor <address>",
		Short: "Print ledger record of the investor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			investor, err := parseHash160(args[0])
			if err != nil {
				return err
			}

			b, _, err := a.connect(cmd.Context(), true, false)
			if err != nil {
				return err
			}
			defer b.close()

			r := b.reader()

			balance, err := r.Balances(investor)
			if err != nil {
				return fmt.Errorf("get balance: %w", err)
			}

			t, err := r.Time(investor)
			if err != nil {
				return fmt.Errorf("get accrual time: %w", err)
			}

			claimable, err := r.IsAutorizedPayment(investor)
			if err != nil {
				return fmt.Errorf("check claim availability: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Investor:  %s\n", address.Uint160ToString(investor))
			fmt.Fprintf(w, "Balance:   %s GAS\n", formatGAS(balance))
			fmt.Fprintf(w, "Time:      %s\n", t)
			fmt.Fprintf(w, "Claimable: %t\n", claimable)

			return nil
		},
	}
}

func newInvestorsCmd(a *app) *cobra.Command {
	var batch int

	cmd := &cobra.Command{
		Use:   "investors",
		Short: "List all investor records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, _, err := a.connect(cmd.Context(), true, false)
			if err != nil {
				return err
			}
			defer b.close()

			recs, err := b.reader().ListInvestors(batch)
			if err != nil {
				return err
			}

			printInvestors(cmd.OutOrStdout(), recs)

			return nil
		},
	}

	cmd.Flags().IntVar(&batch, "batch", investrpc.DefaultIteratorBatch, "number of records requested per iterator call")

	return cmd
}

func printState(w io.Writer, st dump.State, ver int64) {
	fmt.Fprintf(w, "Contract:          %s\n", address.Uint160ToString(st.Contract))
	fmt.Fprintf(w, "Version:           %s\n", formatVersion(ver))
	fmt.Fprintf(w, "Owner:             %s\n", address.Uint160ToString(st.Owner))
	fmt.Fprintf(w, "Marketing main:    %s\n", address.Uint160ToString(st.MarketingMain))
	fmt.Fprintf(w, "Marketing reserve: %s\n", address.Uint160ToString(st.MarketingReserve))
	fmt.Fprintf(w, "Started:           %t\n", st.Started)
	fmt.Fprintf(w, "Value locked:      %s GAS\n", formatGAS(st.TotalValueLocked))
	fmt.Fprintf(w, "Investors:         %s\n", st.TotalInvestors)
	fmt.Fprintf(w, "Dividends paid:    %s GAS\n", formatGAS(st.TotalDividends))
	fmt.Fprintf(w, "Last payment:      %s\n", st.LastPayment)
	fmt.Fprintf(w, "Level:             %s of %d\n", st.Level, investconst.Levels)
	fmt.Fprintf(w, "Percent:           %s\n", formatPercent(st.Percent))
}

func printInvestors(w io.Writer, recs []investrpc.InvestorRecord) {
	for i := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", address.Uint160ToString(recs[i].Investor), formatGAS(recs[i].Balance), recs[i].Time)
	}
}

func formatGAS(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return fixedn.ToString(v, gasDecimals)
}

// formatPercent formats parts-per-ten-thousand value as a percentage.
func formatPercent(v *big.Int) string {
	if v == nil {
		return "0%"
	}
	// PercentBase is 100% with two decimal places
	return fixedn.ToString(v, 2) + "%"
}

func formatVersion(v int64) string {
	return fmt.Sprintf("%d.%d.%d", v/1_000_000, v/1_000%1_000, v%1_000)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version of the contract sources",
		Args:  cobra.NoArgs,
		// no config needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), formatVersion(common.Version))
		},
	}
}
