package common

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/util"
)

// AbortWithMessage calls `runtime.Log` with passed message
// and calls `ABORT` opcode.
func AbortWithMessage(msg string) {
	runtime.Log(msg)
	util.Abort()
}

// TransferGAS sends GAS from the executing contract to the receiver. It panics
// with the given message if GAS contract refuses the transfer, so the whole
// transaction is reverted.
func TransferGAS(to interop.Hash160, amount int, errMsg string) {
	if !gas.Transfer(runtime.GetExecutingScriptHash(), to, amount, nil) {
		panic(errMsg)
	}
}
