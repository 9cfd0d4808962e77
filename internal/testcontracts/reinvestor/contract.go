package reinvestor

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

const (
	investKey = "invest"
	amountKey = "amount"
)

// nolint:deadcode,unused
func _deploy(data any, isUpdate bool) {
	if isUpdate {
		return
	}

	args := data.(struct {
		invest interop.Hash160
		amount int
	})

	ctx := storage.GetContext()
	storage.Put(ctx, investKey, args.invest)
	storage.Put(ctx, amountKey, args.amount)
}

// Invest deposits GAS of the contract into the investment contract.
func Invest(amount int) {
	invest := storage.Get(storage.GetReadOnlyContext(), investKey).(interop.Hash160)
	if !gas.Transfer(runtime.GetExecutingScriptHash(), invest, amount, nil) {
		panic("deposit failed")
	}
}

// OnNEP17Payment deposits the configured amount back every time the
// investment contract pays.
func OnNEP17Payment(from interop.Hash160, amount int, data any) {
	if !runtime.GetCallingScriptHash().Equals(gas.Hash) {
		panic("GAS only")
	}

	ctx := storage.GetReadOnlyContext()
	if !from.Equals(storage.Get(ctx, investKey).(interop.Hash160)) {
		return
	}

	Invest(storage.Get(ctx, amountKey).(int))
}
