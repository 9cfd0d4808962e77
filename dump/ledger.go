package dump

import (
	"errors"
	"fmt"
	"math/big"

	investrpc "github.com/nspcc-dev/invest-contract/rpc/invest"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Ledger is a read-only view of the deployed investment contract.
// *investrpc.ContractReader implements it.
type Ledger interface {
	Hash() util.Uint160
	Owner() (util.Uint160, error)
	MarketingMain() (util.Uint160, error)
	MarketingReserve() (util.Uint160, error)
	IsStarted() (bool, error)
	TotalValueLocked() (*big.Int, error)
	TotalInvestors() (*big.Int, error)
	TotalDividends() (*big.Int, error)
	LastPayment() (*big.Int, error)
	CurrentLevel() (*big.Int, error)
	CurrentPercent() (*big.Int, error)
	ListInvestors(batch int) ([]investrpc.InvestorRecord, error)
}

// ErrLedgerChanged is returned by Collect when the ledger counters change
// while investor records are being listed.
var ErrLedgerChanged = errors.New("ledger changed during collection")

// Collect pulls global state and all investor records from the ledger.
//
// The snapshot is not atomic: counters and records are read by separate
// calls which may be served at different heights. Collect re-reads the
// counters after listing the records and returns ErrLedgerChanged if they
// differ, in which case collection can be repeated.
func Collect(l Ledger) (State, []investrpc.InvestorRecord, error) {
	var (
		st  = State{Contract: l.Hash()}
		err error
	)

	for _, f := range []struct {
		name string
		get  func() error
	}{
		{"owner", func() (err error) { st.Owner, err = l.Owner(); return }},
		{"marketing main", func() (err error) { st.MarketingMain, err = l.MarketingMain(); return }},
		{"marketing reserve", func() (err error) { st.MarketingReserve, err = l.MarketingReserve(); return }},
		{"started flag", func() (err error) { st.Started, err = l.IsStarted(); return }},
		{"total value locked", func() (err error) { st.TotalValueLocked, err = l.TotalValueLocked(); return }},
		{"total investors", func() (err error) { st.TotalInvestors, err = l.TotalInvestors(); return }},
		{"total dividends", func() (err error) { st.TotalDividends, err = l.TotalDividends(); return }},
		{"last payment", func() (err error) { st.LastPayment, err = l.LastPayment(); return }},
		{"current level", func() (err error) { st.Level, err = l.CurrentLevel(); return }},
		{"current percent", func() (err error) { st.Percent, err = l.CurrentPercent(); return }},
	} {
		if err = f.get(); err != nil {
			return State{}, nil, fmt.Errorf("get %s: %w", f.name, err)
		}
	}

	recs, err := l.ListInvestors(investrpc.DefaultIteratorBatch)
	if err != nil {
		return State{}, nil, fmt.Errorf("list investors: %w", err)
	}

	tvl, err := l.TotalValueLocked()
	if err != nil {
		return State{}, nil, fmt.Errorf("get total value locked: %w", err)
	}

	investors, err := l.TotalInvestors()
	if err != nil {
		return State{}, nil, fmt.Errorf("get total investors: %w", err)
	}

	if tvl.Cmp(st.TotalValueLocked) != 0 || investors.Cmp(st.TotalInvestors) != 0 {
		return State{}, nil, ErrLedgerChanged
	}

	return st, recs, nil
}

// CheckConsistency verifies that the global counters of the state agree with
// the investor records: total value locked is the sum of all balances and
// the number of investors equals the number of records. Both must come from
// the same Collect call.
func CheckConsistency(st State, recs []investrpc.InvestorRecord) error {
	if st.TotalInvestors == nil || st.TotalValueLocked == nil {
		return fmt.Errorf("incomplete state")
	}

	if st.TotalInvestors.Cmp(big.NewInt(int64(len(recs)))) != 0 {
		return fmt.Errorf("total investors %s differs from the number of records %d", st.TotalInvestors, len(recs))
	}

	sum := new(big.Int)
	for i := range recs {
		if recs[i].Balance == nil {
			return fmt.Errorf("record %d: missing balance", i)
		}
		sum.Add(sum, recs[i].Balance)
	}

	if sum.Cmp(st.TotalValueLocked) != 0 {
		return fmt.Errorf("total value locked %s differs from the sum of balances %s", st.TotalValueLocked, sum)
	}

	return nil
}

// Write collects the ledger and stores it as a new dump in the given
// directory.
func Write(dir string, id ID, l Ledger) error {
	st, recs, err := Collect(l)
	if err != nil {
		return err
	}

	c, err := NewCreator(dir, id)
	if err != nil {
		return fmt.Errorf("init dump creator: %w", err)
	}
	defer c.Close()

	c.SetState(st)
	for i := range recs {
		if err = c.AddInvestor(recs[i]); err != nil {
			return err
		}
	}

	if err = c.Flush(); err != nil {
		return fmt.Errorf("flush dump: %w", err)
	}

	return nil
}
