package invest

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// DefaultIteratorBatch is the number of items requested per iterator
// traversal call.
const DefaultIteratorBatch = 100

// ErrTruncatedIterator is returned when the RPC server works without sessions
// and expands less iterator items than the contract has.
var ErrTruncatedIterator = errors.New("iterator values are truncated by the RPC server")

// InvestorRecord is a ledger record of a single investor returned by the
// `investors` iterator.
type InvestorRecord struct {
	Investor util.Uint160
	Balance  *big.Int
	// Last accrual checkpoint in milliseconds.
	Time *big.Int
}

// FromStackItem retrieves fields of InvestorRecord from the key-value
// structure produced by the contract iterator.
func (r *InvestorRecord) FromStackItem(item stackitem.Item) error {
	kv, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not a key-value structure")
	}
	if len(kv) != 2 {
		return errors.New("wrong number of key-value elements")
	}

	var err error
	r.Investor, err = uint160FromStackItem(kv[0])
	if err != nil {
		return fmt.Errorf("field Investor: %w", err)
	}

	arr, ok := kv[1].Value().([]stackitem.Item)
	if !ok {
		return errors.New("record is not an array")
	}
	if len(arr) != 2 {
		return errors.New("wrong number of record elements")
	}

	r.Balance, err = arr[0].TryInteger()
	if err != nil {
		return fmt.Errorf("field Balance: %w", err)
	}

	r.Time, err = arr[1].TryInteger()
	if err != nil {
		return fmt.Errorf("field Time: %w", err)
	}

	return nil
}

// InvestorRecords converts iterator items into investor records.
func InvestorRecords(items []stackitem.Item) ([]InvestorRecord, error) {
	res := make([]InvestorRecord, len(items))
	for i := range items {
		if err := res[i].FromStackItem(items[i]); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	return res, nil
}

// ListInvestors reads all investor records. Iterator is traversed by batch
// items per call if the server supports sessions, otherwise values expanded
// by the server are used. In the latter case ErrTruncatedIterator is returned
// if the server has cut the values by its limit. Non-positive batch means
// DefaultIteratorBatch.
func (c *ContractReader) ListInvestors(batch int) ([]InvestorRecord, error) {
	if batch <= 0 {
		batch = DefaultIteratorBatch
	}

	sess, iter, err := c.Investors()
	if err != nil {
		return nil, fmt.Errorf("open investors iterator: %w", err)
	}

	if sessionless(sess, iter) {
		if iter.Truncated {
			return nil, ErrTruncatedIterator
		}
		return InvestorRecords(iter.Values)
	}

	defer func() { _ = c.invoker.TerminateSession(sess) }()

	var items []stackitem.Item
	for {
		batchItems, err := c.invoker.TraverseIterator(sess, &iter, batch)
		if err != nil {
			return nil, fmt.Errorf("traverse investors iterator: %w", err)
		}

		items = append(items, batchItems...)

		if len(batchItems) < batch {
			break
		}
	}

	return InvestorRecords(items)
}

// sessionless reports whether the iterator values were expanded by the
// server instead of being bound to a session.
func sessionless(sess uuid.UUID, iter result.Iterator) bool {
	return sess == uuid.Nil || iter.ID == nil
}
