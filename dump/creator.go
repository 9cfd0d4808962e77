package dump

import (
	"encoding/csv"
	"encoding/json"
	"fmt"

	investrpc "github.com/nspcc-dev/invest-contract/rpc/invest"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
)

// Creator dumps the contract ledger. Output file format:
//
//	'<label>-<block>-state.json': JSON object of the global ledger state
//	'<label>-<block>-investors.csv': CSV of investor records
//
// Investor CSV records are 'address,balance,time' where address is Neo
// address of the investor, balance and time are decimal integers.
//
// Use IterateDumps to access existing dumps.
type Creator struct {
	dumpStreams

	state State

	investorsCSV *csv.Writer
}

// NewCreator returns Creator which dumps ledger into given directory. The
// dump is identified by specified ID. Resulting Creator should be closed when
// finished working with it.
//
// NewCreator fails if dump with provided ID already exists.
func NewCreator(dir string, id ID) (*Creator, error) {
	var res Creator

	err := initDumpStreams(&res.dumpStreams, dir, id, false)
	if err != nil {
		return nil, err
	}

	res.investorsCSV = csv.NewWriter(res.dumpStreams.investors)

	return &res, nil
}

// SetState sets global ledger state of the resulting dump. State should be
// flushed via Flush method.
func (x *Creator) SetState(st State) {
	x.state = st
}

// AddInvestor writes investor record into the resulting dump.
func (x *Creator) AddInvestor(rec investrpc.InvestorRecord) error {
	err := x.investorsCSV.Write([]string{
		address.Uint160ToString(rec.Investor),
		rec.Balance.String(),
		rec.Time.String(),
	})
	if err != nil {
		return fmt.Errorf("write investor record as CSV data: %w", err)
	}

	return nil
}

// Flush flushes accumulated dump to the file system.
func (x *Creator) Flush() error {
	jEnc := json.NewEncoder(x.dumpStreams.state)
	jEnc.SetIndent("", " ")

	err := jEnc.Encode(x.state)
	if err != nil {
		return fmt.Errorf("encode ledger state to JSON: %w", err)
	}

	x.investorsCSV.Flush()

	err = x.investorsCSV.Error()
	if err != nil {
		return fmt.Errorf("flush CSV data: %w", err)
	}

	return nil
}

// Close releases underlying resources of the Creator and makes it unusable.
func (x *Creator) Close() {
	x.close()
}
