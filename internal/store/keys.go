package store

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/swissborg/galactica-credential-ledger/internal/models"
)

var (
	requestPrefix    = []byte("req/")
	credentialPrefix = []byte("cred/")
	balancePrefix    = []byte("bal/")
)

// requestKey lays out holder, issuer and type back to back so every field has a fixed width.
func requestKey(key models.RequestKey) []byte {
	b := make([]byte, 0, len(requestPrefix)+2*common.AddressLength+1)
	b = append(b, requestPrefix...)
	b = append(b, key.Holder.Bytes()...)
	b = append(b, key.Issuer.Bytes()...)
	return append(b, byte(key.Type))
}

func credentialKey(holder common.Address) []byte {
	return accountKey(credentialPrefix, holder)
}

func balanceKey(account common.Address) []byte {
	return accountKey(balancePrefix, account)
}

func accountKey(prefix []byte, account common.Address) []byte {
	b := make([]byte, 0, len(prefix)+common.AddressLength)
	b = append(b, prefix...)
	return append(b, account.Bytes()...)
}
