// Package identity provides the identity verification capability consulted
// before a credential is requested or issued.
package identity

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/swissborg/galactica-credential-ledger/config"
)

// Checker reports whether an account holds a verified identity.
// Implementations must not mutate ledger state.
type Checker interface {
	HasIdentity(ctx context.Context, account common.Address) bool
}

// Stub accepts every account.
type Stub struct{}

func (Stub) HasIdentity(context.Context, common.Address) bool { return true }

// Allowlist accepts only the configured accounts.
type Allowlist map[common.Address]struct{}

func NewAllowlist(accounts ...common.Address) Allowlist {
	a := make(Allowlist, len(accounts))
	for _, account := range accounts {
		a[account] = struct{}{}
	}
	return a
}

func (a Allowlist) HasIdentity(_ context.Context, account common.Address) bool {
	_, ok := a[account]
	return ok
}

// New builds the checker selected by cfg.Mode. The returned close func
// releases any connection the checker holds.
func New(ctx context.Context, cfg config.Identity) (Checker, func(), error) {
	switch cfg.Mode {
	case config.IdentityModeStub, "":
		return Stub{}, func() {}, nil
	case config.IdentityModeAllowlist:
		return NewAllowlist(cfg.Allowlist...), func() {}, nil
	case config.IdentityModeGuardian:
		g, err := DialGuardianRegistry(ctx, cfg.Node, cfg.RegistryAddress)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown identity mode %q", cfg.Mode)
	}
}
