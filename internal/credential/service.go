// Package credential implements the two-phase request/issue protocol: a holder
// asks an issuer for a credential and pays the fee, the issuer fulfils the ask
// and the credential is recorded against the holder.
package credential

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"

	"github.com/swissborg/galactica-credential-ledger/internal/metrics"
	"github.com/swissborg/galactica-credential-ledger/internal/models"
	"github.com/swissborg/galactica-credential-ledger/internal/store"
	"github.com/swissborg/galactica-credential-ledger/internal/taskqueue"
)

// MinFee is the smallest value, in the platform's smallest unit, a request must carry.
var MinFee = big.NewInt(2_000_000_000_000)

// Call is the execution context of a public operation.
type Call struct {
	Caller common.Address
	// Value is the payment attached to the call.
	Value *big.Int
}

// IdentityChecker is consulted for both parties of every write.
type IdentityChecker interface {
	HasIdentity(ctx context.Context, account common.Address) bool
}

// Transferer moves value inside the caller's transaction.
type Transferer interface {
	Transfer(tx store.Tx, from, to common.Address, amount *big.Int) error
}

type Option func(*Service)

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

type Service struct {
	store    store.Store
	identity IdentityChecker
	bank     Transferer
	queue    *taskqueue.Queue
	metrics  *metrics.Metrics
	clock    func() time.Time

	// only touched from the queue
	lastTimestamp time.Time
}

func NewService(
	st store.Store,
	identity IdentityChecker,
	bank Transferer,
	queue *taskqueue.Queue,
	opts ...Option,
) *Service {
	s := &Service{
		store:    st,
		identity: identity,
		bank:     bank,
		queue:    queue,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestCredential records call.Caller's ask to issuer for a credential of
// credType and forwards the attached fee to issuer. A repeated request for the
// same issuer and type replaces the earlier metadata.
func (s *Service) RequestCredential(
	ctx context.Context,
	call Call,
	issuer common.Address,
	credType models.CredentialType,
	metadata string,
) error {
	return s.exec(ctx, metrics.OpRequestCredential, func() error {
		if !credType.Valid() {
			return fmt.Errorf("%w: %d", ErrInvalidCredentialType, uint8(credType))
		}

		if !s.verified(ctx, call.Caller, issuer) {
			return ErrIdentityRequired
		}

		if call.Value == nil || call.Value.Cmp(MinFee) < 0 {
			return ErrInsufficientFee
		}

		key := models.RequestKey{Holder: call.Caller, Issuer: issuer, Type: credType}

		return s.store.Update(func(tx store.Tx) error {
			if err := tx.Requests().Put(key, metadata); err != nil {
				return fmt.Errorf("store credential request: %w", err)
			}

			// the request write is discarded with the transaction if this fails
			if err := s.bank.Transfer(tx, call.Caller, issuer, call.Value); err != nil {
				return fmt.Errorf("%w: %w", ErrTransferFailed, err)
			}

			return nil
		})
	}, log.Fields{
		"holder":         call.Caller.Hex(),
		"issuer":         issuer.Hex(),
		"credentialType": credType.String(),
		"fee":            valueString(call.Value),
	})
}

// IssueCredential fulfils holder's pending request to call.Caller for credType.
// The credential is appended and the request removed in one transaction.
func (s *Service) IssueCredential(
	ctx context.Context,
	call Call,
	holder common.Address,
	credType models.CredentialType,
) error {
	return s.exec(ctx, metrics.OpIssueCredential, func() error {
		if !credType.Valid() {
			return fmt.Errorf("%w: %d", ErrInvalidCredentialType, uint8(credType))
		}

		if !s.verified(ctx, call.Caller, holder) {
			return ErrIdentityRequired
		}

		key := models.RequestKey{Holder: holder, Issuer: call.Caller, Type: credType}

		err := s.store.Update(func(tx store.Tx) error {
			metadata, ok, err := tx.Requests().Get(key)
			if err != nil {
				return fmt.Errorf("read credential request: %w", err)
			}
			if !ok {
				return ErrNoRequest
			}

			credential := models.Credential{
				IssuedTo:       holder,
				IssuedBy:       call.Caller,
				CredentialType: credType,
				Metadata:       metadata,
				Timestamp:      s.now(),
			}

			if err := tx.Credentials().Append(credential); err != nil {
				return fmt.Errorf("append credential: %w", err)
			}

			if err := tx.Requests().Delete(key); err != nil {
				return fmt.Errorf("delete credential request: %w", err)
			}

			return nil
		})
		if err == nil {
			s.metrics.IncIssued(credType.String())
		}
		return err
	}, log.Fields{
		"holder":         holder.Hex(),
		"issuer":         call.Caller.Hex(),
		"credentialType": credType.String(),
	})
}

// GetCredentials returns holder's credentials in issuance order. A holder
// without credentials gets an empty slice; err is only set when the store fails.
func (s *Service) GetCredentials(ctx context.Context, holder common.Address) ([]models.Credential, error) {
	var credentials []models.Credential

	err := s.exec(ctx, metrics.OpGetCredentials, func() error {
		return s.store.View(func(tx store.Tx) error {
			var err error
			credentials, err = tx.Credentials().List(holder)
			if err != nil {
				return fmt.Errorf("list credentials: %w", err)
			}
			return nil
		})
	}, nil)
	if err != nil {
		return nil, err
	}

	return credentials, nil
}

// PendingRequest returns the metadata of an outstanding request, if any.
func (s *Service) PendingRequest(ctx context.Context, key models.RequestKey) (string, bool, error) {
	var (
		metadata string
		found    bool
	)

	err := s.exec(ctx, metrics.OpPendingRequest, func() error {
		return s.store.View(func(tx store.Tx) error {
			var err error
			metadata, found, err = tx.Requests().Get(key)
			if err != nil {
				return fmt.Errorf("read credential request: %w", err)
			}
			return nil
		})
	}, nil)
	if err != nil {
		return "", false, err
	}

	return metadata, found, nil
}

// exec runs op on the queue so operations never interleave. Writes are logged
// with fields when fields is non-nil.
func (s *Service) exec(ctx context.Context, operation string, op func() error, fields log.Fields) error {
	started := time.Now()

	_, err := taskqueue.Run(ctx, s.queue, func() (struct{}, error) {
		return struct{}{}, op()
	})

	outcome := Outcome(err)
	s.metrics.Observe(operation, outcome, started)

	if fields != nil {
		entry := log.WithFields(fields).WithField("outcome", outcome)
		if err != nil {
			entry.WithError(err).Warn(operation)
		} else {
			entry.Info(operation)
		}
	}

	return err
}

func (s *Service) verified(ctx context.Context, accounts ...common.Address) bool {
	for _, account := range accounts {
		if !s.identity.HasIdentity(ctx, account) {
			return false
		}
	}
	return true
}

// now never goes backwards, even if the wall clock does.
func (s *Service) now() time.Time {
	t := s.clock().UTC()
	if t.Before(s.lastTimestamp) {
		t = s.lastTimestamp
	}
	s.lastTimestamp = t
	return t
}

func valueString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
