package invest_test

import (
	"math/big"
	"testing"

	"github.com/nspcc-dev/invest-contract/contracts/invest/investconst"
	"github.com/nspcc-dev/neo-go/pkg/core/interop/storage"
	"github.com/nspcc-dev/neo-go/pkg/core/native/nativenames"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/neotest/chain"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

const ctrPath = "."

type investContract struct {
	e     *neotest.Executor
	hash  util.Uint160
	owner *neotest.ContractInvoker

	marketingMain    util.Uint160
	marketingReserve util.Uint160
}

func newExecutor(t *testing.T) *neotest.Executor {
	bc, acc := chain.NewSingle(t)
	return neotest.NewExecutor(t, bc, acc, acc)
}

func newInvestContract(t *testing.T) *investContract {
	e := newExecutor(t)

	c := &investContract{
		e:                e,
		marketingMain:    util.Uint160{0x01, 0x02, 0x03},
		marketingReserve: util.Uint160{0x04, 0x05, 0x06},
	}

	ctr := neotest.CompileFile(t, e.CommitteeHash, ctrPath, "config.yml")
	e.DeployContract(t, ctr, []any{c.marketingMain, c.marketingReserve})

	c.hash = ctr.Hash
	c.owner = e.CommitteeInvoker(ctr.Hash)

	return c
}

func newStartedInvestContract(t *testing.T) *investContract {
	c := newInvestContract(t)
	c.owner.Invoke(t, stackitem.Null{}, "start")
	return c
}

// deposit transfers GAS from the investor to the contract.
func (c *investContract) deposit(t *testing.T, investor neotest.Signer, amount int64) util.Uint256 {
	gasInv := c.e.NewInvoker(c.e.NativeHash(t, nativenames.Gas), investor)
	return gasInv.Invoke(t, true, "transfer", investor.ScriptHash(), c.hash, amount, nil)
}

func (c *investContract) depositFail(t *testing.T, investor neotest.Signer, amount int64, msg string) {
	gasInv := c.e.NewInvoker(c.e.NativeHash(t, nativenames.Gas), investor)
	gasInv.InvokeFail(t, msg, "transfer", investor.ScriptHash(), c.hash, amount, nil)
}

func (c *investContract) claim(t *testing.T, investor neotest.Signer) util.Uint256 {
	return c.e.NewInvoker(c.hash, investor).Invoke(t, stackitem.Null{}, "claimDividends", investor.ScriptHash())
}

func (c *investContract) claimFail(t *testing.T, investor neotest.Signer, msg string) {
	c.e.NewInvoker(c.hash, investor).InvokeFail(t, msg, "claimDividends", investor.ScriptHash())
}

// skipPeriods adds an empty block shifted by n dividend periods from the top one.
func (c *investContract) skipPeriods(t *testing.T, n int) {
	b := c.e.NewUnsignedBlock(t)
	b.Timestamp = c.e.TopBlock(t).Timestamp + uint64(n*investconst.DividendsTime)
	require.NoError(t, c.e.Chain.AddBlock(c.e.SignBlock(b)))
}

func (c *investContract) getInt(t *testing.T, method string, args ...any) int64 {
	s, err := c.owner.TestInvoke(t, method, args...)
	require.NoError(t, err)
	return s.Pop().BigInt().Int64()
}

func (c *investContract) getBool(t *testing.T, method string, args ...any) bool {
	s, err := c.owner.TestInvoke(t, method, args...)
	require.NoError(t, err)
	return s.Pop().Bool()
}

func (c *investContract) gasBalance(t *testing.T, acc util.Uint160) int64 {
	s, err := c.e.CommitteeInvoker(c.e.NativeHash(t, nativenames.Gas)).TestInvoke(t, "balanceOf", acc)
	require.NoError(t, err)
	return s.Pop().BigInt().Int64()
}

type event struct {
	name     string
	investor util.Uint160
	amount   int64
}

// contractEvents returns notifications of the given contract from the
// execution result, all of them must have (Hash160, Integer) arguments.
func contractEvents(t *testing.T, aer *state.AppExecResult, h util.Uint160) []event {
	var res []event
	for _, ev := range aer.Events {
		if !ev.ScriptHash.Equals(h) {
			continue
		}

		arr := ev.Item.Value().([]stackitem.Item)
		require.Len(t, arr, 2)

		b, err := arr[0].TryBytes()
		require.NoError(t, err)
		investor, err := util.Uint160DecodeBytesBE(b)
		require.NoError(t, err)

		amount, err := arr[1].TryInteger()
		require.NoError(t, err)

		res = append(res, event{name: ev.Name, investor: investor, amount: amount.Int64()})
	}
	return res
}

type gasTransfer struct {
	from, to util.Uint160
	amount   *big.Int
}

func gasTransfers(t *testing.T, c *investContract, aer *state.AppExecResult) []gasTransfer {
	gasHash := c.e.NativeHash(t, nativenames.Gas)

	var res []gasTransfer
	for _, ev := range aer.Events {
		if !ev.ScriptHash.Equals(gasHash) || ev.Name != "Transfer" {
			continue
		}

		arr := ev.Item.Value().([]stackitem.Item)
		var tr gasTransfer
		if b, err := arr[0].TryBytes(); err == nil {
			tr.from, _ = util.Uint160DecodeBytesBE(b)
		}
		if b, err := arr[1].TryBytes(); err == nil {
			tr.to, _ = util.Uint160DecodeBytesBE(b)
		}
		amount, err := arr[2].TryInteger()
		require.NoError(t, err)
		tr.amount = amount

		res = append(res, tr)
	}
	return res
}

func iteratorToArray(iter *storage.Iterator) []stackitem.Item {
	stackItems := make([]stackitem.Item, 0)
	for iter.Next() {
		stackItems = append(stackItems, iter.Value())
	}
	return stackItems
}
