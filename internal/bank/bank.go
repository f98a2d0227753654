package bank

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/swissborg/galactica-credential-ledger/internal/store"
	"github.com/swissborg/galactica-credential-ledger/internal/taskqueue"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must not be negative")
)

// Bank moves value between accounts held in the balance ledger. Deposits and
// reads go through the same queue as credential operations.
type Bank struct {
	store store.Store
	queue *taskqueue.Queue
}

func New(s store.Store, q *taskqueue.Queue) *Bank {
	return &Bank{store: s, queue: q}
}

// Transfer debits from and credits to inside tx, so it commits or rolls back
// together with whatever else tx does.
func (b *Bank) Transfer(tx store.Tx, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	balances := tx.Balances()

	fromBalance, err := balances.Get(from)
	if err != nil {
		return fmt.Errorf("read balance of %s: %w", from, err)
	}
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from, fromBalance, amount)
	}
	if err := balances.Set(from, fromBalance.Sub(fromBalance, amount)); err != nil {
		return fmt.Errorf("debit %s: %w", from, err)
	}

	toBalance, err := balances.Get(to)
	if err != nil {
		return fmt.Errorf("read balance of %s: %w", to, err)
	}
	if err := balances.Set(to, toBalance.Add(toBalance, amount)); err != nil {
		return fmt.Errorf("credit %s: %w", to, err)
	}

	return nil
}

// Deposit credits account with amount and returns the new balance.
func (b *Bank) Deposit(ctx context.Context, account common.Address, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}

	return taskqueue.Run(ctx, b.queue, func() (*big.Int, error) {
		var balance *big.Int
		err := b.store.Update(func(tx store.Tx) error {
			current, err := tx.Balances().Get(account)
			if err != nil {
				return fmt.Errorf("read balance of %s: %w", account, err)
			}
			balance = current.Add(current, amount)
			return tx.Balances().Set(account, balance)
		})
		if err != nil {
			return nil, err
		}
		return balance, nil
	})
}

func (b *Bank) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	return taskqueue.Run(ctx, b.queue, func() (*big.Int, error) {
		var balance *big.Int
		err := b.store.View(func(tx store.Tx) error {
			var err error
			balance, err = tx.Balances().Get(account)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("read balance of %s: %w", account, err)
		}
		return balance, nil
	})
}
