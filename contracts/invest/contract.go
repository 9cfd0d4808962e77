package invest

import (
	"github.com/nspcc-dev/invest-contract/common"
	"github.com/nspcc-dev/invest-contract/contracts/invest/investconst"
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/iterator"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// Investor structure stores ledger record of each investor.
type Investor struct {
	// Deposited amount
	Balance int
	// Last accrual checkpoint
	Time int
}

const (
	ownerKey            = "owner"
	marketingMainKey    = "marketingMain"
	marketingReserveKey = "marketingReserve"
	startedKey          = "started"
	tvlKey              = "tvl"
	investorsKey        = "investors"
	dividendsKey        = "dividends"
	lastPaymentKey      = "lastPayment"

	investorPrefix = 'i'
)

// nolint:deadcode,unused
func _deploy(data any, isUpdate bool) {
	ctx := storage.GetContext()
	if isUpdate {
		args := data.([]any)
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	args := data.(struct {
		marketingMain    interop.Hash160
		marketingReserve interop.Hash160
	})

	if len(args.marketingMain) != interop.Hash160Len || len(args.marketingReserve) != interop.Hash160Len {
		panic("incorrect length of marketing addresses")
	}

	tx := runtime.GetScriptContainer()

	storage.Put(ctx, ownerKey, tx.Sender)
	storage.Put(ctx, marketingMainKey, args.marketingMain)
	storage.Put(ctx, marketingReserveKey, args.marketingReserve)

	runtime.Log("invest contract initialized")
}

// Update method updates contract source code and manifest. It can be invoked
// only by contract owner.
func Update(nefFile, manifest []byte, data any) {
	ctx := storage.GetReadOnlyContext()
	if !common.HasUpdateAccess(storage.Get(ctx, ownerKey).(interop.Hash160)) {
		panic("only owner can update contract")
	}

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, nefFile, manifest, common.AppendVersion(data))
	runtime.Log("invest contract updated")
}

// Start opens the contract for deposits. It can be invoked only by contract
// owner. Start of the already started contract does nothing.
func Start() {
	ctx := storage.GetContext()

	owner := storage.Get(ctx, ownerKey).(interop.Hash160)
	if !runtime.CheckWitness(owner) {
		panic(investconst.ErrNotOwner)
	}

	if storage.Get(ctx, startedKey) != nil {
		return
	}

	storage.Put(ctx, startedKey, true)
	runtime.Log("invest contract started")
}

// OnNEP17Payment is a callback for NEP-17 compatible native GAS contract.
// Non-zero payment is a deposit of the sender, zero payment is a claim of
// dividends. Owed dividends are paid out before every deposit.
func OnNEP17Payment(from interop.Hash160, amount int, data any) {
	caller := runtime.GetCallingScriptHash()
	if !caller.Equals(gas.Hash) {
		common.AbortWithMessage(investconst.ErrGASOnly)
	}

	if len(from) != interop.Hash160Len {
		panic(investconst.ErrInvalidInvestor)
	}

	ctx := storage.GetContext()
	processPayment(ctx, from, amount)
}

// ClaimDividends pays out dividends owed to the investor. It fails if the
// investor has no deposit or the current dividends period is not over yet.
// Method requires investor witness.
func ClaimDividends(investor interop.Hash160) {
	if len(investor) != interop.Hash160Len {
		panic(investconst.ErrInvalidInvestor)
	}

	common.CheckWitness(investor)

	ctx := storage.GetContext()
	processPayment(ctx, investor, 0)
}

// processPayment settles owed dividends and applies the deposit. All ledger
// changes are stored before any GAS leaves the contract, so payments made
// from the receivers' callbacks see the up-to-date ledger.
func processPayment(ctx storage.Context, investor interop.Hash160, amount int) {
	if storage.Get(ctx, startedKey) == nil {
		panic(investconst.ErrNotStarted)
	}

	if amount != 0 && amount < investconst.MinInvestment {
		panic(investconst.ErrInvalidDeposit)
	}

	key := investorKey(investor)
	data := storage.Get(ctx, key)
	firstDeposit := data == nil

	if firstDeposit && amount == 0 {
		panic(investconst.ErrDepositNotFound)
	}

	rec := Investor{}
	if !firstDeposit {
		rec = std.Deserialize(data.([]byte)).(Investor)
	}

	now := runtime.GetTime()
	periods := investconst.ElapsedPeriods(rec.Time, now)

	if amount == 0 && periods == 0 {
		panic(investconst.ErrTooEarly)
	}

	payOff := !firstDeposit && periods > 0
	owed := 0

	if payOff {
		owed = accrueDividends(ctx, rec, periods, now)
		rec.Time = now
	}

	if amount != 0 {
		if firstDeposit {
			storage.Put(ctx, investorsKey, common.GetInt(ctx, investorsKey)+1)
		}

		rec.Balance += amount
		rec.Time = now
		storage.Put(ctx, tvlKey, common.GetInt(ctx, tvlKey)+amount)
	}

	common.SetSerialized(ctx, key, rec)

	if payOff {
		common.TransferGAS(investor, owed, investconst.ErrDividendsTransfer)
		runtime.Notify("PayOffDividends", investor, owed)
	}

	if amount == 0 {
		return
	}

	if firstDeposit {
		runtime.Notify("NewInvestor", investor, amount)
	}

	fee := investconst.MarketingShare(amount)
	common.TransferGAS(storage.Get(ctx, marketingMainKey).(interop.Hash160), fee, investconst.ErrMarketingTransfer)
	common.TransferGAS(storage.Get(ctx, marketingReserveKey).(interop.Hash160), fee, investconst.ErrMarketingTransfer)

	runtime.Notify("NewDeposit", investor, amount)
}

// accrueDividends returns dividends owed for the elapsed periods at the
// current level and accounts them in the global counters.
func accrueDividends(ctx storage.Context, rec Investor, periods, now int) int {
	percent := investconst.Percent(investconst.Level(common.GetInt(ctx, tvlKey)))
	owed := investconst.Dividends(rec.Balance, percent, periods)

	storage.Put(ctx, dividendsKey, common.GetInt(ctx, dividendsKey)+owed)
	storage.Put(ctx, lastPaymentKey, now)

	return owed
}

// MarketingMain method returns the main marketing account.
func MarketingMain() interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, marketingMainKey).(interop.Hash160)
}

// MarketingReserve method returns the reserve marketing account.
func MarketingReserve() interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, marketingReserveKey).(interop.Hash160)
}

// Owner method returns the account which deployed the contract.
func Owner() interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, ownerKey).(interop.Hash160)
}

// IsStarted method returns true if the contract accepts deposits.
func IsStarted() bool {
	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, startedKey) != nil
}

// TotalValueLocked method returns sum of all investor balances.
func TotalValueLocked() int {
	ctx := storage.GetReadOnlyContext()
	return common.GetInt(ctx, tvlKey)
}

// TotalDividends method returns amount of dividends paid out to all investors.
func TotalDividends() int {
	ctx := storage.GetReadOnlyContext()
	return common.GetInt(ctx, dividendsKey)
}

// TotalPercents is the same as TotalDividends.
func TotalPercents() int {
	return TotalDividends()
}

// TotalInvestors method returns the number of accounts that have ever
// deposited.
func TotalInvestors() int {
	ctx := storage.GetReadOnlyContext()
	return common.GetInt(ctx, investorsKey)
}

// LastPayment method returns time of the latest dividends payout or 0 if
// nothing has been paid yet.
func LastPayment() int {
	ctx := storage.GetReadOnlyContext()
	return common.GetInt(ctx, lastPaymentKey)
}

// CurrentLevel method returns level of the current TVL.
func CurrentLevel() int {
	return investconst.Level(TotalValueLocked())
}

// CurrentPercent method returns dividends percent of the current level.
func CurrentPercent() int {
	return investconst.Percent(CurrentLevel())
}

// Balances method returns deposited amount of the investor.
func Balances(investor interop.Hash160) int {
	ctx := storage.GetReadOnlyContext()
	return getInvestor(ctx, investor).Balance
}

// Time method returns the last accrual checkpoint of the investor.
func Time(investor interop.Hash160) int {
	ctx := storage.GetReadOnlyContext()
	return getInvestor(ctx, investor).Time
}

// IsAutorizedPayment method returns true if ClaimDividends invocation for the
// investor would succeed now.
func IsAutorizedPayment(investor interop.Hash160) bool {
	ctx := storage.GetReadOnlyContext()

	data := storage.Get(ctx, investorKey(investor))
	if data == nil {
		return false
	}

	rec := std.Deserialize(data.([]byte)).(Investor)

	return investconst.ElapsedPeriods(rec.Time, runtime.GetTime()) > 0
}

// Investors method returns iterator over all investor records. Iterator
// values are key-value pairs where key is investor address and value is
// the serialized Investor structure.
func Investors() iterator.Iterator {
	ctx := storage.GetReadOnlyContext()
	return storage.Find(ctx, []byte{investorPrefix}, storage.RemovePrefix|storage.DeserializeValues)
}

// DividendsTime method returns length of the dividends period in milliseconds.
func DividendsTime() int {
	return investconst.DividendsTime
}

// MinInvestment method returns minimal accepted deposit.
func MinInvestment() int {
	return investconst.MinInvestment
}

// MarketingFee method returns deposit share sent to each marketing account,
// in 1/10000.
func MarketingFee() int {
	return investconst.MarketingFee
}

// LevelThreshold method returns minimal TVL of the level.
func LevelThreshold(level int) int {
	return investconst.Threshold(level)
}

// LevelPercent method returns dividends percent of the level.
func LevelPercent(level int) int {
	return investconst.Percent(level)
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

func getInvestor(ctx storage.Context, investor interop.Hash160) Investor {
	data := storage.Get(ctx, investorKey(investor))
	if data != nil {
		return std.Deserialize(data.([]byte)).(Investor)
	}

	return Investor{}
}

func investorKey(investor interop.Hash160) []byte {
	return append([]byte{investorPrefix}, investor...)
}
