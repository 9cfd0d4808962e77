package dump

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/util"
)

// ID is a unique identifier of the dump prepared according to the model
// described in the current package.
type ID struct {
	// Label of the dump source (e.g. testnet, mainnet).
	Label string
	// Blockchain height at which the state was pulled.
	Block uint32
}

// String returns hyphen-separated ID fields.
func (x ID) String() string {
	return x.Label + sep + strconv.FormatUint(uint64(x.Block), 10)
}

// decodes ID fields from the hyphen-separated string.
func (x *ID) decodeString(s string) error {
	ss := strings.Split(s, sep)
	if len(ss) < 2 {
		return fmt.Errorf("expected '%s'-separated string with at least 2 items", sep)
	}

	n, err := strconv.ParseUint(ss[1], 10, 32)
	if err != nil {
		return fmt.Errorf("decode block number from '%s': %w", ss[1], err)
	}

	x.Label = ss[0]
	x.Block = uint32(n)

	return nil
}

// State is a global state of the contract ledger.
type State struct {
	Contract         util.Uint160 `json:"contract"`
	Owner            util.Uint160 `json:"owner"`
	MarketingMain    util.Uint160 `json:"marketingMain"`
	MarketingReserve util.Uint160 `json:"marketingReserve"`
	Started          bool         `json:"started"`
	TotalValueLocked *big.Int     `json:"totalValueLocked"`
	TotalInvestors   *big.Int     `json:"totalInvestors"`
	TotalDividends   *big.Int     `json:"totalDividends"`
	LastPayment      *big.Int     `json:"lastPayment"`
	Level            *big.Int     `json:"level"`
	Percent          *big.Int     `json:"percent"`
}

// dumpStreams groups data streams for ledger state and investor records.
type dumpStreams struct {
	state, investors io.ReadWriteCloser
}

// close closes all streams.
func (x *dumpStreams) close() {
	_ = x.investors.Close()
	_ = x.state.Close()
}

const (
	// word separator used in dump file naming
	sep = "-"
	// suffix of file with ledger state
	stateFileSuffix = "state.json"
	// suffix of file with investor records
	investorsFileSuffix = "investors.csv"
)

// initDumpStreams opens data streams for the dump files located in the
// specified directory. If read flag is set, streams are read-only. Otherwise,
// files must not exist, and streams are write only.
func initDumpStreams(d *dumpStreams, dir string, id ID, read bool) error {
	var err error

	pathInvestors := filepath.Join(dir, strings.Join([]string{id.String(), investorsFileSuffix}, sep))
	if !read {
		if err = checkFileNotExists(pathInvestors); err != nil {
			return err
		}
	}

	pathState := filepath.Join(dir, strings.Join([]string{id.String(), stateFileSuffix}, sep))
	if !read {
		if err = checkFileNotExists(pathState); err != nil {
			return err
		}
	}

	var flag int
	var perm os.FileMode

	if read {
		flag = os.O_RDONLY
	} else {
		flag = os.O_CREATE | os.O_WRONLY
		perm = 0600
	}

	d.investors, err = os.OpenFile(pathInvestors, flag, perm)
	if err != nil {
		return fmt.Errorf("open file with investor records: %w", err)
	}

	d.state, err = os.OpenFile(pathState, flag, perm)
	if err != nil {
		_ = d.investors.Close()
		return fmt.Errorf("open file with ledger state: %w", err)
	}

	return nil
}
