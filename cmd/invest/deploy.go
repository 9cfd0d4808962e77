package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nspcc-dev/invest-contract/contracts"
	"github.com/nspcc-dev/invest-contract/deploy"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type deployOptions struct {
	compiled string
	src      string

	marketingMain    string
	marketingReserve string

	update bool
	start  bool
}

func newDeployCmd(a *app) *cobra.Command {
	var opts deployOptions

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy (or update) the contract from the configured account",
		Long: `Deploy compiles contract sources (or reads already compiled contract) and
deploys it from the configured account. Already deployed contract is updated
only if --update is set and its NEF differs from the local one. The update is
rejected by the contract unless the local sources carry a newer version than
the deployed one (see VERSION), so a changed NEF with the same version fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.deploy(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.compiled, "compiled", "", "directory with compiled contract.nef and manifest.json")
	f.StringVar(&opts.src, "src", contracts.InvestDir, "directory with contract sources")
	f.StringVar(&opts.marketingMain, "marketing-main", "", "main marketing fee receiver (default is network config value)")
	f.StringVar(&opts.marketingReserve, "marketing-reserve", "", "reserve marketing fee receiver (default is network config value)")
	f.BoolVar(&opts.update, "update", false, "update already deployed contract if it differs (local version must be newer)")
	f.BoolVar(&opts.start, "start", false, "start the contract after deployment")
	cmd.MarkFlagsMutuallyExclusive("compiled", "src")

	return cmd
}

func (a *app) deploy(cmd *cobra.Command, opts deployOptions) error {
	ctx := cmd.Context()

	ctr, err := loadContract(opts)
	if err != nil {
		return err
	}

	b, n, err := a.connect(ctx, false, true)
	if err != nil {
		return err
	}
	defer b.close()

	mMain, err := marketingAddress(opts.marketingMain, n.MarketingMain)
	if err != nil {
		return fmt.Errorf("main marketing address: %w", err)
	}

	mReserve, err := marketingAddress(opts.marketingReserve, n.MarketingReserve)
	if err != nil {
		return fmt.Errorf("reserve marketing address: %w", err)
	}

	h, err := deploy.Deploy(ctx, deploy.Prm{
		Logger:           a.log,
		Blockchain:       b.rpc,
		LocalAccount:     b.account,
		Contract:         ctr,
		MarketingMain:    mMain,
		MarketingReserve: mReserve,
		Update:           opts.update,
		Start:            opts.start,
	})
	if err != nil {
		return err
	}

	a.log.Info("contract is ready", zap.Stringer("contract", h))
	fmt.Fprintln(cmd.OutOrStdout(), address.Uint160ToString(h))

	return nil
}

func loadContract(opts deployOptions) (contracts.Contract, error) {
	if opts.compiled != "" {
		return contracts.Read(os.DirFS(opts.compiled), ".")
	}
	return contracts.Compile(opts.src)
}

func marketingAddress(flagValue, cfgValue string) (util.Uint160, error) {
	if flagValue == "" {
		flagValue = cfgValue
	}
	if flagValue == "" {
		return util.Uint160{}, errors.New("not specified")
	}
	return parseHash160(flagValue)
}
