// Package invest contains RPC wrappers for SecretInvest contract.
package invest

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// NewInvestorEvent represents "NewInvestor" event emitted by the contract.
type NewInvestorEvent struct {
	Investor util.Uint160
	Amount   *big.Int
}

// NewDepositEvent represents "NewDeposit" event emitted by the contract.
type NewDepositEvent struct {
	Investor util.Uint160
	Amount   *big.Int
}

// PayOffDividendsEvent represents "PayOffDividends" event emitted by the contract.
type PayOffDividendsEvent struct {
	Investor util.Uint160
	Amount   *big.Int
}

// Invoker is used by ContractReader to call various safe methods.
type Invoker interface {
	Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error)
	CallAndExpandIterator(contract util.Uint160, method string, maxItems int, params ...any) (*result.Invoke, error)
	TerminateSession(sessionID uuid.UUID) error
	TraverseIterator(sessionID uuid.UUID, iterator *result.Iterator, num int) ([]stackitem.Item, error)
}

// Actor is used by Contract to call state-changing methods.
type Actor interface {
	Invoker

	MakeCall(contract util.Uint160, method string, params ...any) (*transaction.Transaction, error)
	MakeRun(script []byte) (*transaction.Transaction, error)
	MakeUnsignedCall(contract util.Uint160, method string, attrs []transaction.Attribute, params ...any) (*transaction.Transaction, error)
	MakeUnsignedRun(script []byte, attrs []transaction.Attribute) (*transaction.Transaction, error)
	SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error)
	SendRun(script []byte) (util.Uint256, uint32, error)
}

// ContractReader implements safe contract methods.
type ContractReader struct {
	invoker Invoker
	hash    util.Uint160
}

// Contract implements all contract methods.
type Contract struct {
	ContractReader
	actor Actor
	hash  util.Uint160
}

// NewReader creates an instance of ContractReader using provided contract hash and the given Invoker.
func NewReader(invoker Invoker, hash util.Uint160) *ContractReader {
	return &ContractReader{invoker, hash}
}

// New creates an instance of Contract using provided contract hash and the given Actor.
func New(actor Actor, hash util.Uint160) *Contract {
	return &Contract{ContractReader{actor, hash}, actor, hash}
}

// Hash returns address of the contract.
func (c *ContractReader) Hash() util.Uint160 {
	return c.hash
}

// Balances invokes `balances` method of contract.
func (c *ContractReader) Balances(investor util.Uint160) (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "balances", investor))
}

// CurrentLevel invokes `currentLevel` method of contract.
func (c *ContractReader) CurrentLevel() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "currentLevel"))
}

// CurrentPercent invokes `currentPercent` method of contract.
func (c *ContractReader) CurrentPercent() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "currentPercent"))
}

// DividendsTime invokes `dividendsTime` method of contract.
func (c *ContractReader) DividendsTime() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "dividendsTime"))
}

// Investors invokes `investors` method of contract.
func (c *ContractReader) Investors() (uuid.UUID, result.Iterator, error) {
	return unwrap.SessionIterator(c.invoker.Call(c.hash, "investors"))
}

// InvestorsExpanded is similar to Investors (uses the same contract
// method), but can be useful if the server used doesn't support sessions and
// doesn't expand iterators. It creates a script that will get the specified
// number of result items from the iterator right in the VM and return them to
// you. It's only limited by VM stack and GAS available for RPC invocations.
func (c *ContractReader) InvestorsExpanded(_numOfIteratorItems int) ([]stackitem.Item, error) {
	return unwrap.Array(c.invoker.CallAndExpandIterator(c.hash, "investors", _numOfIteratorItems))
}

// IsAutorizedPayment invokes `isAutorizedPayment` method of contract.
func (c *ContractReader) IsAutorizedPayment(investor util.Uint160) (bool, error) {
	return unwrap.Bool(c.invoker.Call(c.hash, "isAutorizedPayment", investor))
}

// IsStarted invokes `isStarted` method of contract.
func (c *ContractReader) IsStarted() (bool, error) {
	return unwrap.Bool(c.invoker.Call(c.hash, "isStarted"))
}

// LastPayment invokes `lastPayment` method of contract.
func (c *ContractReader) LastPayment() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "lastPayment"))
}

// LevelPercent invokes `levelPercent` method of contract.
func (c *ContractReader) LevelPercent(level *big.Int) (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "levelPercent", level))
}

// LevelThreshold invokes `levelThreshold` method of contract.
func (c *ContractReader) LevelThreshold(level *big.Int) (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "levelThreshold", level))
}

// MarketingFee invokes `marketingFee` method of contract.
func (c *ContractReader) MarketingFee() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "marketingFee"))
}

// MarketingMain invokes `marketingMain` method of contract.
func (c *ContractReader) MarketingMain() (util.Uint160, error) {
	return unwrap.Uint160(c.invoker.Call(c.hash, "marketingMain"))
}

// MarketingReserve invokes `marketingReserve` method of contract.
func (c *ContractReader) MarketingReserve() (util.Uint160, error) {
	return unwrap.Uint160(c.invoker.Call(c.hash, "marketingReserve"))
}

// MinInvestment invokes `minInvestment` method of contract.
func (c *ContractReader) MinInvestment() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "minInvestment"))
}

// Owner invokes `owner` method of contract.
func (c *ContractReader) Owner() (util.Uint160, error) {
	return unwrap.Uint160(c.invoker.Call(c.hash, "owner"))
}

// Time invokes `time` method of contract.
func (c *ContractReader) Time(investor util.Uint160) (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "time", investor))
}

// TotalDividends invokes `totalDividends` method of contract.
func (c *ContractReader) TotalDividends() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "totalDividends"))
}

// TotalInvestors invokes `totalInvestors` method of contract.
func (c *ContractReader) TotalInvestors() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "totalInvestors"))
}

// TotalPercents invokes `totalPercents` method of contract.
func (c *ContractReader) TotalPercents() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "totalPercents"))
}

// TotalValueLocked invokes `totalValueLocked` method of contract.
func (c *ContractReader) TotalValueLocked() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "totalValueLocked"))
}

// Version invokes `version` method of contract.
func (c *ContractReader) Version() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "version"))
}

// ClaimDividends creates a transaction invoking `claimDividends` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) ClaimDividends(investor util.Uint160) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "claimDividends", investor)
}

// ClaimDividendsTransaction creates a transaction invoking `claimDividends` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) ClaimDividendsTransaction(investor util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "claimDividends", investor)
}

// ClaimDividendsUnsigned creates a transaction invoking `claimDividends` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) ClaimDividendsUnsigned(investor util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "claimDividends", nil, investor)
}

// Start creates a transaction invoking `start` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Start() (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "start")
}

// StartTransaction creates a transaction invoking `start` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) StartTransaction() (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "start")
}

// StartUnsigned creates a transaction invoking `start` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) StartUnsigned() (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "start", nil)
}

// Update creates a transaction invoking `update` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Update(nefFile []byte, manifest []byte, data any) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "update", nefFile, manifest, data)
}

// UpdateTransaction creates a transaction invoking `update` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) UpdateTransaction(nefFile []byte, manifest []byte, data any) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "update", nefFile, manifest, data)
}

// UpdateUnsigned creates a transaction invoking `update` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) UpdateUnsigned(nefFile []byte, manifest []byte, data any) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "update", nil, nefFile, manifest, data)
}

// NewInvestorEventsFromApplicationLog retrieves a set of all emitted events
// with "NewInvestor" name from the provided [result.ApplicationLog].
func NewInvestorEventsFromApplicationLog(log *result.ApplicationLog) ([]*NewInvestorEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*NewInvestorEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != "NewInvestor" {
				continue
			}
			event := new(NewInvestorEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize NewInvestorEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to NewInvestorEvent or
// returns an error if it's not possible to do to so.
func (e *NewInvestorEvent) FromStackItem(item *stackitem.Array) error {
	var err error
	e.Investor, e.Amount, err = investorAmountFromStackItem(item)
	return err
}

// NewDepositEventsFromApplicationLog retrieves a set of all emitted events
// with "NewDeposit" name from the provided [result.ApplicationLog].
func NewDepositEventsFromApplicationLog(log *result.ApplicationLog) ([]*NewDepositEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*NewDepositEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != "NewDeposit" {
				continue
			}
			event := new(NewDepositEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize NewDepositEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to NewDepositEvent or
// returns an error if it's not possible to do to so.
func (e *NewDepositEvent) FromStackItem(item *stackitem.Array) error {
	var err error
	e.Investor, e.Amount, err = investorAmountFromStackItem(item)
	return err
}

// PayOffDividendsEventsFromApplicationLog retrieves a set of all emitted events
// with "PayOffDividends" name from the provided [result.ApplicationLog].
func PayOffDividendsEventsFromApplicationLog(log *result.ApplicationLog) ([]*PayOffDividendsEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*PayOffDividendsEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != "PayOffDividends" {
				continue
			}
			event := new(PayOffDividendsEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize PayOffDividendsEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to PayOffDividendsEvent or
// returns an error if it's not possible to do to so.
func (e *PayOffDividendsEvent) FromStackItem(item *stackitem.Array) error {
	var err error
	e.Investor, e.Amount, err = investorAmountFromStackItem(item)
	return err
}

// investorAmountFromStackItem decodes (Hash160, Integer) pair shared by all
// contract events.
func investorAmountFromStackItem(item *stackitem.Array) (util.Uint160, *big.Int, error) {
	if item == nil {
		return util.Uint160{}, nil, errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return util.Uint160{}, nil, errors.New("not an array")
	}
	if len(arr) != 2 {
		return util.Uint160{}, nil, errors.New("wrong number of structure elements")
	}

	investor, err := uint160FromStackItem(arr[0])
	if err != nil {
		return util.Uint160{}, nil, fmt.Errorf("field Investor: %w", err)
	}

	amount, err := arr[1].TryInteger()
	if err != nil {
		return util.Uint160{}, nil, fmt.Errorf("field Amount: %w", err)
	}

	return investor, amount, nil
}

func uint160FromStackItem(item stackitem.Item) (util.Uint160, error) {
	b, err := item.TryBytes()
	if err != nil {
		return util.Uint160{}, err
	}
	u, err := util.Uint160DecodeBytesBE(b)
	if err != nil {
		return util.Uint160{}, err
	}
	return u, nil
}
