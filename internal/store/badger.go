package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/dgraph-io/badger/v4"
	"github.com/ethereum/go-ethereum/common"

	"github.com/swissborg/galactica-credential-ledger/internal/models"
)

// BadgerStore keeps the ledgers in a badger database.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens a badger database at path, or an in-memory one when path is empty.
func OpenBadger(path string) (*BadgerStore, error) {
	opt := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opt = opt.WithInMemory(true)
	}

	db, err := badger.Open(opt)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Update(fn func(tx Tx) error) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return fn(badgerTx{txn: txn})
	})
}

func (s *BadgerStore) View(fn func(tx Tx) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		return fn(badgerTx{txn: txn, readOnly: true})
	})
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

type badgerTx struct {
	txn      *badger.Txn
	readOnly bool
}

func (t badgerTx) Requests() RequestLedger       { return badgerRequests(t) }
func (t badgerTx) Credentials() CredentialLedger { return badgerCredentials(t) }
func (t badgerTx) Balances() BalanceLedger       { return badgerBalances(t) }

// get copies the value at key out of the transaction; a missing key yields nil, false.
func (t badgerTx) get(key []byte) ([]byte, bool, error) {
	item, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("error retrieving key: %w", err)
	}

	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, false, fmt.Errorf("error copying value: %w", err)
	}
	return val, true, nil
}

func (t badgerTx) set(key, val []byte) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if err := t.txn.Set(key, val); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

func (t badgerTx) delete(key []byte) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if err := t.txn.Delete(key); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

type badgerRequests badgerTx

func (r badgerRequests) Get(key models.RequestKey) (string, bool, error) {
	val, ok, err := badgerTx(r).get(requestKey(key))
	if err != nil || !ok {
		return "", ok, err
	}
	return string(val), true, nil
}

func (r badgerRequests) Put(key models.RequestKey, metadata string) error {
	return badgerTx(r).set(requestKey(key), []byte(metadata))
}

func (r badgerRequests) Delete(key models.RequestKey) error {
	return badgerTx(r).delete(requestKey(key))
}

type badgerCredentials badgerTx

func (c badgerCredentials) List(holder common.Address) ([]models.Credential, error) {
	val, ok, err := badgerTx(c).get(credentialKey(holder))
	if err != nil {
		return nil, err
	}

	credentials := []models.Credential{}
	if !ok {
		return credentials, nil
	}
	if err := json.Unmarshal(val, &credentials); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	return credentials, nil
}

func (c badgerCredentials) Append(credential models.Credential) error {
	credentials, err := c.List(credential.IssuedTo)
	if err != nil {
		return err
	}

	b, err := json.Marshal(append(credentials, credential))
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	return badgerTx(c).set(credentialKey(credential.IssuedTo), b)
}

type badgerBalances badgerTx

func (b badgerBalances) Get(account common.Address) (*big.Int, error) {
	val, ok, err := badgerTx(b).get(balanceKey(account))
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(big.Int), nil
	}

	balance, ok := new(big.Int).SetString(string(val), 10)
	if !ok {
		return nil, fmt.Errorf("corrupt balance for %s: %q", account, val)
	}
	return balance, nil
}

func (b badgerBalances) Set(account common.Address, amount *big.Int) error {
	return badgerTx(b).set(balanceKey(account), []byte(amount.String()))
}
