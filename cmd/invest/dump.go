package main

import (
	"fmt"
	"os"

	"github.com/nspcc-dev/invest-contract/dump"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newDumpCmd(a *app) *cobra.Command {
	var dir, label string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Save ledger snapshot into the local directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if label == "" {
				label = a.network
				if label == "" {
					label = a.cfg.Network
				}
			}

			b, _, err := a.connect(cmd.Context(), true, false)
			if err != nil {
				return err
			}
			defer b.close()

			height, err := b.rpc.GetBlockCount()
			if err != nil {
				return fmt.Errorf("get number of the latest block: %w", err)
			}

			if err = os.MkdirAll(dir, 0700); err != nil {
				return fmt.Errorf("create dump dir: %w", err)
			}

			id := dump.ID{Label: label, Block: height}
			if err = dump.Write(dir, id, b.reader()); err != nil {
				return err
			}

			a.log.Info("ledger is dumped", zap.String("dir", dir), zap.Stringer("id", id))

			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "testdata", "directory to save the dump into")
	cmd.Flags().StringVar(&label, "label", "", "dump label (default is network name)")

	return cmd
}
