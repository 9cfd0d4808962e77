package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const defaultEnvFile = ".env"

// app groups global options and resources shared by the commands.
type app struct {
	cfgPath string
	envFile string
	network string
	verbose bool

	cfg config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := new(app)

	root := &cobra.Command{
		Use:           "invest",
		Short:         "Investment contract management tool",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Flags().Changed("env-file"))
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	a.bindFlags(root.PersistentFlags())

	root.AddCommand(
		newDeployCmd(a),
		newStartCmd(a),
		newStatusCmd(a),
		newInvestorCmd(a),
		newInvestorsCmd(a),
		newInvestCmd(a),
		newClaimCmd(a),
		newDumpCmd(a),
		newVersionCmd(),
	)

	return root
}

func (a *app) bindFlags(pf *pflag.FlagSet) {
	pf.StringVarP(&a.cfgPath, "config", "c", "", "path to YAML configuration file")
	pf.StringVar(&a.envFile, "env-file", defaultEnvFile, "path to dotenv file with secrets")
	pf.StringVarP(&a.network, "network", "n", "", "network name from the configuration (default is 'network' config value)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
}

// setup loads secrets, configuration and logger.
func (a *app) setup(envRequired bool) error {
	if err := loadEnv(a.envFile, envRequired); err != nil {
		return err
	}

	cfg, err := loadConfig(a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.verbose {
		a.log, err = zap.NewDevelopment()
	} else {
		a.log, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	return nil
}

// connect dials the selected network. Caller must close the result.
func (a *app) connect(ctx context.Context, needContract, needAccount bool) (*remoteBlockchain, networkConfig, error) {
	n, err := a.cfg.selectNetwork(a.network)
	if err != nil {
		return nil, n, err
	}

	b, err := newRemoteBlockchain(ctx, n, a.log, needContract)
	if err != nil {
		return nil, n, err
	}

	if needAccount {
		if err = b.withAccount(n); err != nil {
			b.close()
			return nil, n, err
		}
	}

	return b, n, nil
}
