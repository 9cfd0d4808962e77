package invest_test

import (
	"math/big"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/invest-contract/common"
	"github.com/nspcc-dev/invest-contract/contracts/invest/investconst"
	"github.com/nspcc-dev/neo-go/pkg/core/interop/storage"
	"github.com/nspcc-dev/neo-go/pkg/core/native/nativenames"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

const (
	gas = investconst.GAS

	reinvestorPath = "../../internal/testcontracts/reinvestor"
)

func TestDeploy(t *testing.T) {
	c := newInvestContract(t)

	c.owner.Invoke(t, stackitem.NewByteArray(c.marketingMain.BytesBE()), "marketingMain")
	c.owner.Invoke(t, stackitem.NewByteArray(c.marketingReserve.BytesBE()), "marketingReserve")
	c.owner.Invoke(t, stackitem.NewByteArray(c.e.CommitteeHash.BytesBE()), "owner")
	c.owner.Invoke(t, false, "isStarted")
	c.owner.Invoke(t, 0, "totalValueLocked")
	c.owner.Invoke(t, 0, "totalPercents")
	c.owner.Invoke(t, 0, "totalDividends")
	c.owner.Invoke(t, 0, "totalInvestors")
	c.owner.Invoke(t, 0, "lastPayment")
	c.owner.Invoke(t, 1, "currentLevel")
	c.owner.Invoke(t, 325, "currentPercent")
	c.owner.Invoke(t, investconst.DividendsTime, "dividendsTime")
	c.owner.Invoke(t, investconst.MinInvestment, "minInvestment")
	c.owner.Invoke(t, investconst.MarketingFee, "marketingFee")
	c.owner.Invoke(t, common.Version, "version")

	for l := 1; l <= investconst.Levels; l++ {
		require.EqualValues(t, investconst.Threshold(l), c.getInt(t, "levelThreshold", l))
		require.EqualValues(t, investconst.Percent(l), c.getInt(t, "levelPercent", l))
	}
	require.Zero(t, c.getInt(t, "levelPercent", investconst.Levels+1))
}

func TestDeployInvalidArgs(t *testing.T) {
	e := newExecutor(t)
	ctr := neotest.CompileFile(t, e.CommitteeHash, ctrPath, "config.yml")

	e.DeployContractCheckFAULT(t, ctr, []any{[]byte{1, 2, 3}, util.Uint160{}},
		"incorrect length of marketing addresses")
}

func TestStart(t *testing.T) {
	c := newInvestContract(t)
	acc := c.e.NewAccount(t)

	c.e.NewInvoker(c.hash, acc).InvokeFail(t, investconst.ErrNotOwner, "start")
	c.owner.Invoke(t, false, "isStarted")

	c.owner.Invoke(t, stackitem.Null{}, "start")
	c.owner.Invoke(t, true, "isStarted")

	// Repeated start is a no-op.
	c.owner.Invoke(t, stackitem.Null{}, "start")
	c.owner.Invoke(t, true, "isStarted")
}

func TestDepositNotStarted(t *testing.T) {
	c := newInvestContract(t)
	acc := c.e.NewAccount(t)

	c.depositFail(t, acc, investconst.MinInvestment, investconst.ErrNotStarted)
	c.claimFail(t, acc, investconst.ErrNotStarted)

	require.Zero(t, c.gasBalance(t, c.hash))
	require.Zero(t, c.getInt(t, "totalValueLocked"))
	require.Zero(t, c.getInt(t, "totalInvestors"))
}

func TestDepositBelowMinimum(t *testing.T) {
	c := newStartedInvestContract(t)
	acc := c.e.NewAccount(t)

	c.depositFail(t, acc, investconst.MinInvestment-1, investconst.ErrInvalidDeposit)

	require.Zero(t, c.gasBalance(t, c.hash))
	require.Zero(t, c.gasBalance(t, c.marketingMain))
	require.Zero(t, c.getInt(t, "totalValueLocked"))
	require.Zero(t, c.getInt(t, "totalInvestors"))
	require.Zero(t, c.getInt(t, "balances", acc.ScriptHash()))
}

func TestMinimalDeposit(t *testing.T) {
	c := newStartedInvestContract(t)
	acc := c.e.NewAccount(t)

	h := c.deposit(t, acc, investconst.MinInvestment)
	aer := c.e.CheckHalt(t, h)

	require.Equal(t, []event{
		{"NewInvestor", acc.ScriptHash(), investconst.MinInvestment},
		{"NewDeposit", acc.ScriptHash(), investconst.MinInvestment},
	}, contractEvents(t, aer, c.hash))

	fee := int64(investconst.MinInvestment / 20)

	require.EqualValues(t, investconst.MinInvestment, c.getInt(t, "balances", acc.ScriptHash()))
	require.EqualValues(t, investconst.MinInvestment, c.getInt(t, "totalValueLocked"))
	require.EqualValues(t, 1, c.getInt(t, "totalInvestors"))
	require.EqualValues(t, c.e.TopBlock(t).Timestamp, c.getInt(t, "time", acc.ScriptHash()))
	require.Equal(t, fee, c.gasBalance(t, c.marketingMain))
	require.Equal(t, fee, c.gasBalance(t, c.marketingReserve))
	require.Equal(t, investconst.MinInvestment-2*fee, c.gasBalance(t, c.hash))
	require.Zero(t, c.getInt(t, "lastPayment"))
}

func TestClaimWithoutDeposit(t *testing.T) {
	c := newStartedInvestContract(t)
	acc := c.e.NewAccount(t)

	c.claimFail(t, acc, investconst.ErrDepositNotFound)
	c.depositFail(t, acc, 0, investconst.ErrDepositNotFound)

	c.skipPeriods(t, 1)
	c.claimFail(t, acc, investconst.ErrDepositNotFound)
}

func TestClaimWitness(t *testing.T) {
	c := newStartedInvestContract(t)
	acc := c.e.NewAccount(t)
	other := c.e.NewAccount(t)

	c.deposit(t, acc, 10*gas)
	c.skipPeriods(t, 1)

	c.e.NewInvoker(c.hash, other).InvokeFail(t, common.ErrWitnessFailed, "claimDividends", acc.ScriptHash())
	require.True(t, c.getBool(t, "isAutorizedPayment", acc.ScriptHash()))
}

func TestClaimDividends(t *testing.T) {
	c := newStartedInvestContract(t)
	acc := c.e.NewAccount(t)

	c.deposit(t, acc, 10*gas)

	require.False(t, c.getBool(t, "isAutorizedPayment", acc.ScriptHash()))
	c.claimFail(t, acc, investconst.ErrTooEarly)

	c.skipPeriods(t, 1)

	require.True(t, c.getBool(t, "isAutorizedPayment", acc.ScriptHash()))
	require.True(t, c.getBool(t, "isAutorizedPayment", acc.ScriptHash()))

	const owed = 32_500_000

	h := c.claim(t, acc)
	aer := c.e.CheckHalt(t, h)

	require.Equal(t, []event{
		{"PayOffDividends", acc.ScriptHash(), owed},
	}, contractEvents(t, aer, c.hash))

	transfers := gasTransfers(t, c, aer)
	require.Len(t, transfers, 1)
	require.Equal(t, c.hash, transfers[0].from)
	require.Equal(t, acc.ScriptHash(), transfers[0].to)
	require.EqualValues(t, owed, transfers[0].amount.Int64())

	now := int64(c.e.TopBlock(t).Timestamp)

	require.EqualValues(t, owed, c.getInt(t, "totalDividends"))
	require.EqualValues(t, owed, c.getInt(t, "totalPercents"))
	require.Equal(t, now, c.getInt(t, "lastPayment"))
	require.Equal(t, now, c.getInt(t, "time", acc.ScriptHash()))
	require.EqualValues(t, 10*gas, c.getInt(t, "balances", acc.ScriptHash()))
	require.EqualValues(t, 10*gas, c.getInt(t, "totalValueLocked"))

	require.False(t, c.getBool(t, "isAutorizedPayment", acc.ScriptHash()))
	c.claimFail(t, acc, investconst.ErrTooEarly)
}

func TestClaimSeveralPeriods(t *testing.T) {
	c := newStartedInvestContract(t)
	acc := c.e.NewAccount(t)

	c.deposit(t, acc, 10*gas)
	c.skipPeriods(t, 3)

	aer := c.e.CheckHalt(t, c.claim(t, acc))
	require.Equal(t, []event{
		{"PayOffDividends", acc.ScriptHash(), 3 * 32_500_000},
	}, contractEvents(t, aer, c.hash))
}

func TestClaimByZeroTransfer(t *testing.T) {
	c := newStartedInvestContract(t)
	acc := c.e.NewAccount(t)

	c.deposit(t, acc, 10*gas)
	c.depositFail(t, acc, 0, investconst.ErrTooEarly)

	c.skipPeriods(t, 1)

	aer := c.e.CheckHalt(t, c.deposit(t, acc, 0))
	require.Equal(t, []event{
		{"PayOffDividends", acc.ScriptHash(), 32_500_000},
	}, contractEvents(t, aer, c.hash))
	require.EqualValues(t, 10*gas, c.getInt(t, "balances", acc.ScriptHash()))
}

func TestDepositPaysOffDividends(t *testing.T) {
	c := newStartedInvestContract(t)
	acc := c.e.NewAccount(t)

	c.deposit(t, acc, 10*gas)
	c.skipPeriods(t, 1)

	aer := c.e.CheckHalt(t, c.deposit(t, acc, 5*gas))
	require.Equal(t, []event{
		{"PayOffDividends", acc.ScriptHash(), 32_500_000},
		{"NewDeposit", acc.ScriptHash(), 5 * gas},
	}, contractEvents(t, aer, c.hash))

	require.EqualValues(t, 15*gas, c.getInt(t, "balances", acc.ScriptHash()))
	require.EqualValues(t, 1, c.getInt(t, "totalInvestors"))
	require.False(t, c.getBool(t, "isAutorizedPayment", acc.ScriptHash()))
}

func TestClaimAfterReinvest(t *testing.T) {
	c := newStartedInvestContract(t)
	acc := c.e.NewAccount(t)

	c.deposit(t, acc, 10*gas)
	c.skipPeriods(t, 1)

	first := contractEvents(t, c.e.CheckHalt(t, c.claim(t, acc)), c.hash)
	require.Len(t, first, 1)

	aer := c.e.CheckHalt(t, c.deposit(t, acc, 5*gas))
	require.Equal(t, []event{
		{"NewDeposit", acc.ScriptHash(), 5 * gas},
	}, contractEvents(t, aer, c.hash))

	c.skipPeriods(t, 1)

	second := contractEvents(t, c.e.CheckHalt(t, c.claim(t, acc)), c.hash)
	require.Len(t, second, 1)

	require.Greater(t, second[0].amount, first[0].amount)
	require.EqualValues(t, 48_750_000, second[0].amount)
	require.Equal(t, first[0].amount+second[0].amount, c.getInt(t, "totalDividends"))
}

func TestLevels(t *testing.T) {
	c := newStartedInvestContract(t)
	accs := []neotest.Signer{c.e.NewAccount(t), c.e.NewAccount(t), c.e.NewAccount(t)}

	for i, tc := range []struct {
		investor int
		amount   int64
	}{
		{0, 10 * gas},
		{0, 13 * gas},
		{1, 22 * gas},
		{1, 22 * gas},
		{2, 22 * gas},
		{2, 23 * gas},
	} {
		c.deposit(t, accs[tc.investor], tc.amount)

		level := i + 1
		require.EqualValues(t, level, c.getInt(t, "currentLevel"))
		require.EqualValues(t, investconst.Percent(level), c.getInt(t, "currentPercent"))
	}

	var sum int64
	for _, acc := range accs {
		sum += c.getInt(t, "balances", acc.ScriptHash())
	}
	require.EqualValues(t, 112*gas, sum)
	require.Equal(t, sum, c.getInt(t, "totalValueLocked"))
	require.EqualValues(t, len(accs), c.getInt(t, "totalInvestors"))
}

func TestDividendsUseCurrentLevel(t *testing.T) {
	c := newStartedInvestContract(t)
	early := c.e.NewAccount(t)
	late := c.e.NewAccount(t)

	c.deposit(t, early, 10*gas)
	c.skipPeriods(t, 1)

	// 40 GAS in total switches the contract to the third level.
	c.deposit(t, late, 30*gas)
	require.EqualValues(t, 3, c.getInt(t, "currentLevel"))

	aer := c.e.CheckHalt(t, c.claim(t, early))
	require.Equal(t, []event{
		{"PayOffDividends", early.ScriptHash(), 10 * gas * 375 / 10000},
	}, contractEvents(t, aer, c.hash))
}

func TestInvestors(t *testing.T) {
	c := newStartedInvestContract(t)
	acc1 := c.e.NewAccount(t)
	acc2 := c.e.NewAccount(t)

	s, err := c.owner.TestInvoke(t, "investors")
	require.NoError(t, err)
	require.Empty(t, iteratorToArray(s.Pop().Value().(*storage.Iterator)))

	c.deposit(t, acc1, 1*gas)
	t1 := c.e.TopBlock(t).Timestamp
	c.deposit(t, acc2, 2*gas)
	t2 := c.e.TopBlock(t).Timestamp

	s, err = c.owner.TestInvoke(t, "investors")
	require.NoError(t, err)

	items := iteratorToArray(s.Pop().Value().(*storage.Iterator))
	require.Len(t, items, 2)

	expected := map[string][2]int64{
		string(acc1.ScriptHash().BytesBE()): {1 * gas, int64(t1)},
		string(acc2.ScriptHash().BytesBE()): {2 * gas, int64(t2)},
	}

	for _, item := range items {
		kv := item.Value().([]stackitem.Item)
		require.Len(t, kv, 2)

		key, err := kv[0].TryBytes()
		require.NoError(t, err)

		exp, ok := expected[string(key)]
		require.True(t, ok)

		rec := kv[1].Value().([]stackitem.Item)
		require.Len(t, rec, 2)

		balance, err := rec[0].TryInteger()
		require.NoError(t, err)
		require.Zero(t, balance.Cmp(big.NewInt(exp[0])))

		tm, err := rec[1].TryInteger()
		require.NoError(t, err)
		require.Zero(t, tm.Cmp(big.NewInt(exp[1])))
	}
}

func TestUpdateAccess(t *testing.T) {
	c := newInvestContract(t)
	acc := c.e.NewAccount(t)

	c.e.NewInvoker(c.hash, acc).InvokeFail(t, "only owner can update contract", "update", []byte{}, []byte{}, nil)
}

func TestNonGASPayment(t *testing.T) {
	c := newStartedInvestContract(t)

	neoInv := c.e.CommitteeInvoker(c.e.NativeHash(t, nativenames.Neo))
	neoInv.InvokeFail(t, "ABORT", "transfer", c.e.CommitteeHash, c.hash, 1, nil)

	require.Zero(t, c.getInt(t, "totalValueLocked"))
	require.Zero(t, c.getInt(t, "totalInvestors"))
}

func TestClaimInvalidInvestor(t *testing.T) {
	c := newStartedInvestContract(t)
	acc := c.e.NewAccount(t)

	c.e.NewInvoker(c.hash, acc).InvokeFail(t, investconst.ErrInvalidInvestor, "claimDividends", []byte{1, 2, 3})
}

func TestDividendsTransferFailure(t *testing.T) {
	c := newStartedInvestContract(t)
	acc := c.e.NewAccount(t)

	c.deposit(t, acc, 10*gas)
	tm := c.getInt(t, "time", acc.ScriptHash())

	// 28 periods owe 9.1 GAS while the contract keeps 9 GAS after fees.
	c.skipPeriods(t, 28)
	require.Less(t, c.gasBalance(t, c.hash), int64(28*32_500_000))

	c.claimFail(t, acc, investconst.ErrDividendsTransfer)
	c.depositFail(t, acc, 0, investconst.ErrDividendsTransfer)

	require.EqualValues(t, 10*gas, c.getInt(t, "balances", acc.ScriptHash()))
	require.EqualValues(t, 10*gas, c.getInt(t, "totalValueLocked"))
	require.Equal(t, tm, c.getInt(t, "time", acc.ScriptHash()))
	require.Zero(t, c.getInt(t, "totalDividends"))
	require.Zero(t, c.getInt(t, "lastPayment"))
	require.True(t, c.getBool(t, "isAutorizedPayment", acc.ScriptHash()))
}

func TestDepositFromPaymentCallback(t *testing.T) {
	c := newStartedInvestContract(t)

	// Reinvestor deposits 2 GAS back whenever it receives dividends.
	ctr := neotest.CompileFile(t, c.e.CommitteeHash, reinvestorPath, filepath.Join(reinvestorPath, "config.yml"))
	c.e.DeployContract(t, ctr, []any{c.hash, 2 * gas})
	investor := ctr.Hash

	gasInv := c.e.CommitteeInvoker(c.e.NativeHash(t, nativenames.Gas))
	gasInv.Invoke(t, true, "transfer", c.e.CommitteeHash, investor, 20*gas, nil)

	inv := c.e.CommitteeInvoker(investor)
	inv.Invoke(t, stackitem.Null{}, "invest", 10*gas)

	c.skipPeriods(t, 1)

	aer := c.e.CheckHalt(t, inv.Invoke(t, stackitem.Null{}, "invest", 1*gas))
	require.Equal(t, []event{
		{"NewDeposit", investor, 2 * gas},
		{"PayOffDividends", investor, 32_500_000},
		{"NewDeposit", investor, 1 * gas},
	}, contractEvents(t, aer, c.hash))

	require.EqualValues(t, 13*gas, c.getInt(t, "balances", investor))
	require.EqualValues(t, 13*gas, c.getInt(t, "totalValueLocked"))
	require.EqualValues(t, 1, c.getInt(t, "totalInvestors"))
	require.EqualValues(t, 32_500_000, c.getInt(t, "totalDividends"))
}
