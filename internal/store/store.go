package store

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/swissborg/galactica-credential-ledger/internal/models"
)

// ErrReadOnly is returned when a write is attempted inside a View transaction.
var ErrReadOnly = errors.New("write in read-only transaction")

// RequestLedger holds pending credential requests.
type RequestLedger interface {
	// Get returns the metadata stored for key and whether the request exists.
	Get(key models.RequestKey) (string, bool, error)
	// Put creates or overwrites the request at key.
	Put(key models.RequestKey, metadata string) error
	Delete(key models.RequestKey) error
}

// CredentialLedger holds issued credentials per holder, in issuance order.
type CredentialLedger interface {
	// List returns the holder's credentials. A holder with none gets an empty slice.
	List(holder common.Address) ([]models.Credential, error)
	// Append adds the credential to the end of its holder's sequence.
	Append(credential models.Credential) error
}

// BalanceLedger holds account balances in the platform's smallest unit.
type BalanceLedger interface {
	// Get returns the balance of account, zero when it was never credited.
	Get(account common.Address) (*big.Int, error)
	Set(account common.Address, amount *big.Int) error
}

// Tx is a view of all ledgers inside one transaction.
type Tx interface {
	Requests() RequestLedger
	Credentials() CredentialLedger
	Balances() BalanceLedger
}

// Store runs functions inside transactions. Update commits all writes made by
// fn when it returns nil and discards every one of them otherwise.
type Store interface {
	Update(fn func(tx Tx) error) error
	View(fn func(tx Tx) error) error
	Close() error
}
