package dump

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/big"
	"path/filepath"
	"strings"

	investrpc "github.com/nspcc-dev/invest-contract/rpc/invest"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
)

// IterateDumps iterates over all ledger dumps collected by the Creator model
// in the specified directory, and passes ID and Reader of each dump into f.
func IterateDumps(dir string, f func(ID, *Reader)) error {
	var id ID
	var r Reader
	var streams dumpStreams

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, e error) error {
		if errors.Is(e, fs.ErrNotExist) {
			return nil
		}
		if e != nil {
			return e
		}

		if d.IsDir() {
			return nil
		}

		name := d.Name()

		if !strings.HasSuffix(name, stateFileSuffix) {
			return nil
		}

		err := id.decodeString(name)
		if err != nil {
			return fmt.Errorf("decode dump ID from file name '%s': %w", d.Name(), err)
		}

		err = initDumpStreams(&streams, dir, id, true)
		if err != nil {
			return fmt.Errorf("init dump streams ('%s'): %w", name, err)
		}

		err = r.fromDumpStreams(streams.state, streams.investors)
		streams.close()
		if err != nil {
			return fmt.Errorf("init dump reader ('%s'): %w", name, err)
		}

		f(id, &r)

		return nil
	})
}

// Reader reads ledger collected in the superior dump.
type Reader struct {
	state     State
	investors []investrpc.InvestorRecord
}

func (x *Reader) fromDumpStreams(rState, rInvestors io.Reader) error {
	x.state = State{}
	x.investors = x.investors[:0]

	err := json.NewDecoder(rState).Decode(&x.state)
	if err != nil {
		return fmt.Errorf("decode ledger state from JSON: %w", err)
	}

	var rec []string

	_csv := csv.NewReader(rInvestors)
	_csv.FieldsPerRecord = 3
	_csv.ReuseRecord = true

	for {
		rec, err = _csv.Read()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read next CSV record: %w", err)
		}

		var r investrpc.InvestorRecord
		var ok bool

		// out-of-range safety guaranteed by csv settings
		r.Investor, err = address.StringToUint160(rec[0])
		if err != nil {
			return fmt.Errorf("decode investor address: %w", err)
		}

		r.Balance, ok = new(big.Int).SetString(rec[1], 10)
		if !ok {
			return fmt.Errorf("invalid investor balance '%s'", rec[1])
		}

		r.Time, ok = new(big.Int).SetString(rec[2], 10)
		if !ok {
			return fmt.Errorf("invalid investor time '%s'", rec[2])
		}

		x.investors = append(x.investors, r)
	}
}

// State returns global ledger state from the superior dump.
func (x *Reader) State() State {
	return x.state
}

// IterateInvestors iterates over all investor records from the superior dump
// and passes them into f.
func (x *Reader) IterateInvestors(f func(investrpc.InvestorRecord)) {
	for i := range x.investors {
		f(x.investors[i])
	}
}
