package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/avast/retry-go/v4"
	investrpc "github.com/nspcc-dev/invest-contract/rpc/invest"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"go.uber.org/zap"
)

const (
	envPrivateKey     = "PRIVATE_KEY"
	envWalletPassword = "WALLET_PASSWORD"
)

var errMissingAccount = errors.New("neither PRIVATE_KEY nor wallet is configured")

// remoteBlockchain wraps RPC connection to the Neo network with the contract
// bindings needed by the commands.
type remoteBlockchain struct {
	rpc      *rpcclient.Client
	contract util.Uint160

	// set by withAccount only
	account *wallet.Account
	actor   *actor.Actor
}

// dial connects to the network RPC endpoint. Failed attempts are retried
// according to the network config.
func dial(ctx context.Context, n networkConfig, log *zap.Logger) (*rpcclient.Client, error) {
	return retry.DoWithData(func() (*rpcclient.Client, error) {
		c, err := rpcclient.New(ctx, n.Endpoint, rpcclient.Options{
			DialTimeout:    n.DialTimeout,
			RequestTimeout: n.DialTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("RPC client dial: %w", err)
		}

		if err = c.Init(); err != nil {
			c.Close()
			return nil, fmt.Errorf("RPC client init: %w", err)
		}

		return c, nil
	},
		retry.Context(ctx),
		retry.Attempts(n.RetryAttempts),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			log.Debug("failed to connect RPC endpoint",
				zap.String("endpoint", n.Endpoint),
				zap.Uint("attempt", attempt+1),
				zap.Uint("max_attempts", n.RetryAttempts),
				zap.Error(err))
		}),
	)
}

// newRemoteBlockchain dials the network and resolves contract address. The
// contract is optional when needContract is false.
func newRemoteBlockchain(ctx context.Context, n networkConfig, log *zap.Logger, needContract bool) (*remoteBlockchain, error) {
	var (
		res remoteBlockchain
		err error
	)

	if needContract {
		res.contract, err = n.contractHash()
		if err != nil {
			return nil, err
		}
	}

	res.rpc, err = dial(ctx, n, log)
	if err != nil {
		return nil, err
	}

	return &res, nil
}

// withAccount loads local account and creates transaction actor.
func (x *remoteBlockchain) withAccount(n networkConfig) error {
	acc, err := loadAccount(n)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}

	x.actor, err = actor.NewSimple(x.rpc, acc)
	if err != nil {
		return fmt.Errorf("init actor: %w", err)
	}
	x.account = acc

	return nil
}

func (x *remoteBlockchain) reader() *investrpc.ContractReader {
	return investrpc.NewReader(invoker.New(x.rpc, nil), x.contract)
}

func (x *remoteBlockchain) contractActor() *investrpc.Contract {
	return investrpc.New(x.actor, x.contract)
}

func (x *remoteBlockchain) close() {
	x.rpc.Close()
}

// loadAccount returns account from PRIVATE_KEY variable or from the wallet
// file decrypted with WALLET_PASSWORD.
func loadAccount(n networkConfig) (*wallet.Account, error) {
	if wif := os.Getenv(envPrivateKey); wif != "" {
		acc, err := wallet.NewAccountFromWIF(wif)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", envPrivateKey, err)
		}
		return acc, nil
	}

	if n.Wallet == "" {
		return nil, errMissingAccount
	}

	w, err := wallet.NewWalletFromFile(n.Wallet)
	if err != nil {
		return nil, fmt.Errorf("open wallet: %w", err)
	}

	h := w.GetChangeAddress()
	if n.Account != "" {
		h, err = parseHash160(n.Account)
		if err != nil {
			return nil, err
		}
	}

	acc := w.GetAccount(h)
	if acc == nil {
		return nil, fmt.Errorf("account %s not found in wallet %s", h.StringLE(), n.Wallet)
	}

	if err = acc.Decrypt(os.Getenv(envWalletPassword), w.Scrypt); err != nil {
		return nil, fmt.Errorf("decrypt account: %w", err)
	}

	return acc, nil
}
