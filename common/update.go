package common

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
)

// HasUpdateAccess returns true if contract can be updated by the
// transaction signers, i.e. it is witnessed by the contract owner.
func HasUpdateAccess(owner interop.Hash160) bool {
	return runtime.CheckWitness(owner)
}
