package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nspcc-dev/invest-contract/contracts"
	investrpc "github.com/nspcc-dev/invest-contract/rpc/invest"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/management"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"go.uber.org/zap"
)

// Blockchain groups services provided by particular Neo blockchain network
// that are required for contract deployment.
type Blockchain interface {
	// RPCActor groups functions needed to compose and send transactions to the
	// blockchain.
	actor.RPCActor

	// GetContractStateByHash returns network state of the smart contract by its
	// address. GetContractStateByHash returns error with 'Unknown contract'
	// substring if requested contract is missing.
	GetContractStateByHash(util.Uint160) (*state.Contract, error)
}

// Prm groups all parameters of the contract deployment procedure.
type Prm struct {
	// Writes progress into the log.
	Logger *zap.Logger

	// Particular Neo blockchain instance.
	Blockchain Blockchain

	// Local process account used for transaction signing (must be unlocked).
	// The account becomes contract owner.
	LocalAccount *wallet.Account

	// Compiled contract.
	Contract contracts.Contract

	// Receivers of the marketing fee.
	MarketingMain    util.Uint160
	MarketingReserve util.Uint160

	// Update already deployed contract if its NEF differs from the local one.
	Update bool

	// Start the contract after deployment.
	Start bool
}

// errMissingContract is returned by chainOps when the contract is not deployed.
var errMissingContract = errors.New("contract is not deployed")

// chainOps groups on-chain operations performed by the deployment procedure.
type chainOps interface {
	contractState(h util.Uint160) (*state.Contract, error)
	isStarted(h util.Uint160) (bool, error)
	deploy(c contracts.Contract, data []any) (util.Uint256, uint32, error)
	update(h util.Uint160, c contracts.Contract) (util.Uint256, uint32, error)
	start(h util.Uint160) (util.Uint256, uint32, error)
	wait(ctx context.Context, tx util.Uint256, vub uint32, err error) error
}

// Deploy deploys the investment contract to the blockchain represented by
// Prm.Blockchain from Prm.LocalAccount and returns its address.
//
// Deploy is idempotent: already deployed contract is left as is (or updated
// if Prm.Update is set and NEF differs), already started contract is not
// started again.
func Deploy(ctx context.Context, prm Prm) (util.Uint160, error) {
	act, err := actor.NewSimple(prm.Blockchain, prm.LocalAccount)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("init transaction sender from local account: %w", err)
	}

	return deploy(ctx, prm, prm.LocalAccount.ScriptHash(), &rpcChainOps{
		blockchain: prm.Blockchain,
		actor:      act,
	})
}

func deploy(ctx context.Context, prm Prm, sender util.Uint160, ops chainOps) (util.Uint160, error) {
	if prm.MarketingMain.Equals(util.Uint160{}) || prm.MarketingReserve.Equals(util.Uint160{}) {
		return util.Uint160{}, errors.New("marketing accounts must be set")
	}

	h := prm.Contract.Hash(sender)
	l := prm.Logger.With(zap.Stringer("contract", h))

	l.Info("checking contract state on the chain...")

	st, err := ops.contractState(h)
	switch {
	case errors.Is(err, errMissingContract):
		l.Info("contract is missing on the chain, deploying...")

		tx, vub, err := ops.deploy(prm.Contract, []any{prm.MarketingMain, prm.MarketingReserve})
		err = ops.wait(ctx, tx, vub, err)
		if err != nil {
			return h, fmt.Errorf("deploy contract: %w", err)
		}

		l.Info("contract successfully deployed")
	case err != nil:
		return h, fmt.Errorf("get contract state: %w", err)
	case st.NEF.Checksum == prm.Contract.NEF.Checksum:
		l.Info("contract is already deployed and up-to-date")
	case !prm.Update:
		l.Warn("contract on the chain differs from the local one, update is disabled",
			zap.Uint32("chain checksum", st.NEF.Checksum),
			zap.Uint32("local checksum", prm.Contract.NEF.Checksum))
	default:
		l.Info("contract on the chain differs from the local one, updating...")

		tx, vub, err := ops.update(h, prm.Contract)
		err = ops.wait(ctx, tx, vub, err)
		if err != nil {
			return h, fmt.Errorf("update contract: %w", err)
		}

		l.Info("contract successfully updated")
	}

	if !prm.Start {
		return h, nil
	}

	started, err := ops.isStarted(h)
	if err != nil {
		return h, fmt.Errorf("check contract is started: %w", err)
	}

	if started {
		l.Info("contract is already started")
		return h, nil
	}

	l.Info("starting contract...")

	tx, vub, err := ops.start(h)
	err = ops.wait(ctx, tx, vub, err)
	if err != nil {
		return h, fmt.Errorf("start contract: %w", err)
	}

	l.Info("contract successfully started")

	return h, nil
}

type rpcChainOps struct {
	blockchain Blockchain
	actor      *actor.Actor
}

func (x *rpcChainOps) contractState(h util.Uint160) (*state.Contract, error) {
	st, err := x.blockchain.GetContractStateByHash(h)
	if err != nil {
		if strings.Contains(err.Error(), "Unknown contract") {
			return nil, errMissingContract
		}
		return nil, err
	}
	return st, nil
}

func (x *rpcChainOps) isStarted(h util.Uint160) (bool, error) {
	return investrpc.NewReader(x.actor, h).IsStarted()
}

func (x *rpcChainOps) deploy(c contracts.Contract, data []any) (util.Uint256, uint32, error) {
	return management.New(x.actor).Deploy(&c.NEF, &c.Manifest, data)
}

func (x *rpcChainOps) update(h util.Uint160, c contracts.Contract) (util.Uint256, uint32, error) {
	bNEF, err := c.NEF.Bytes()
	if err != nil {
		return util.Uint256{}, 0, fmt.Errorf("encode NEF: %w", err)
	}

	jManifest, err := json.Marshal(c.Manifest)
	if err != nil {
		return util.Uint256{}, 0, fmt.Errorf("encode manifest: %w", err)
	}

	return investrpc.New(x.actor, h).Update(bNEF, jManifest, nil)
}

func (x *rpcChainOps) start(h util.Uint160) (util.Uint256, uint32, error) {
	return investrpc.New(x.actor, h).Start()
}

func (x *rpcChainOps) wait(ctx context.Context, tx util.Uint256, vub uint32, err error) error {
	return AwaitHALT(ctx, x.actor, tx, vub, err)
}

// Waiter is a part of actor.Actor used to wait for transaction acceptance.
type Waiter interface {
	Wait(h util.Uint256, vub uint32, err error) (*state.AppExecResult, error)
}

// AwaitHALT waits for the transaction to be accepted and checks that it ends
// with HALT state.
func AwaitHALT(ctx context.Context, w Waiter, tx util.Uint256, vub uint32, err error) error {
	if err != nil {
		return fmt.Errorf("send transaction: %w", err)
	}

	if err = ctx.Err(); err != nil {
		return err
	}

	res, err := w.Wait(tx, vub, nil)
	if err != nil {
		return fmt.Errorf("wait for transaction %s: %w", tx.StringLE(), err)
	}

	if res.VMState != vmstate.Halt {
		return fmt.Errorf("transaction %s failed with %s state: %s", tx.StringLE(), res.VMState, res.FaultException)
	}

	return nil
}
