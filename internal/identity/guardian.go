package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/galactica-corp/guardians-sdk/pkg/contracts"
	log "github.com/sirupsen/logrus"
)

const dialTimeout = 2 * time.Minute

// CheckTimeout bounds a single whitelist lookup.
var CheckTimeout = 5 * time.Second

// GuardianRegistry treats an account as verified when it is whitelisted in
// the guardian registry that backs the zkCertificate registry.
type GuardianRegistry struct {
	ethClient *ethclient.Client
	guardians *contracts.GuardianRegistry
}

func DialGuardianRegistry(ctx context.Context, rpcURL string, registryAddress common.Address) (*GuardianRegistry, error) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	ethClient, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("connect to ethereum node: %w", err)
	}

	registry, err := contracts.NewZkCertificateRegistry(registryAddress, ethClient)
	if err != nil {
		ethClient.Close()
		return nil, fmt.Errorf("load record registry: %w", err)
	}

	guardianRegistryAddress, err := registry.GuardianRegistry(&bind.CallOpts{Context: ctx})
	if err != nil {
		ethClient.Close()
		return nil, fmt.Errorf("retrieve guardian registry address: %w", err)
	}

	guardians, err := contracts.NewGuardianRegistry(guardianRegistryAddress, ethClient)
	if err != nil {
		ethClient.Close()
		return nil, fmt.Errorf("bind guardian registry contract: %w", err)
	}

	return &GuardianRegistry{ethClient: ethClient, guardians: guardians}, nil
}

// HasIdentity reports false when the registry cannot be reached within CheckTimeout.
func (g *GuardianRegistry) HasIdentity(ctx context.Context, account common.Address) bool {
	ctx, cancel := context.WithTimeout(ctx, CheckTimeout)
	defer cancel()

	guardian, err := g.guardians.Guardians(&bind.CallOpts{Context: ctx}, account)
	if err != nil {
		log.WithError(err).
			WithField("account", account.Hex()).
			Error("retrieve guardian whitelist status")
		return false
	}
	return guardian.Whitelisted
}

func (g *GuardianRegistry) Close() {
	g.ethClient.Close()
}
