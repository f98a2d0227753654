package store

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swissborg/galactica-credential-ledger/internal/models"
)

var (
	holder = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	issuer = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	badgerStore, err := OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = badgerStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"badger": badgerStore,
	}
}

func TestRequestLedger(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			key := models.RequestKey{Holder: holder, Issuer: issuer, Type: models.Education}

			require.NoError(t, s.View(func(tx Tx) error {
				_, ok, err := tx.Requests().Get(key)
				assert.False(t, ok)
				return err
			}))

			require.NoError(t, s.Update(func(tx Tx) error {
				return tx.Requests().Put(key, "first")
			}))
			require.NoError(t, s.Update(func(tx Tx) error {
				return tx.Requests().Put(key, "second")
			}))

			require.NoError(t, s.View(func(tx Tx) error {
				metadata, ok, err := tx.Requests().Get(key)
				assert.True(t, ok)
				assert.Equal(t, "second", metadata)

				other := key
				other.Type = models.Certification
				_, ok, _ = tx.Requests().Get(other)
				assert.False(t, ok, "type is part of the key")
				return err
			}))

			require.NoError(t, s.Update(func(tx Tx) error {
				if err := tx.Requests().Delete(key); err != nil {
					return err
				}
				_, ok, err := tx.Requests().Get(key)
				assert.False(t, ok, "delete visible inside the transaction")
				return err
			}))

			require.NoError(t, s.View(func(tx Tx) error {
				_, ok, err := tx.Requests().Get(key)
				assert.False(t, ok)
				return err
			}))
		})
	}
}

func TestCredentialLedgerKeepsOrder(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

			require.NoError(t, s.View(func(tx Tx) error {
				creds, err := tx.Credentials().List(holder)
				assert.NotNil(t, creds)
				assert.Empty(t, creds)
				return err
			}))

			for i, meta := range []string{"a", "b", "a"} {
				cred := models.Credential{
					IssuedTo:       holder,
					IssuedBy:       issuer,
					CredentialType: models.SkillEndorsement,
					Metadata:       meta,
					Timestamp:      ts.Add(time.Duration(i) * time.Second),
				}
				require.NoError(t, s.Update(func(tx Tx) error {
					return tx.Credentials().Append(cred)
				}))
			}

			require.NoError(t, s.View(func(tx Tx) error {
				creds, err := tx.Credentials().List(holder)
				require.Len(t, creds, 3)
				assert.Equal(t, "a", creds[0].Metadata)
				assert.Equal(t, "b", creds[1].Metadata)
				assert.Equal(t, "a", creds[2].Metadata)
				assert.True(t, creds[2].Timestamp.Equal(ts.Add(2*time.Second)))
				assert.Equal(t, issuer, creds[0].IssuedBy)
				return err
			}))
		})
	}
}

func TestUpdateRollsBackOnError(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			key := models.RequestKey{Holder: holder, Issuer: issuer, Type: models.WorkExperience}
			boom := errors.New("boom")

			err := s.Update(func(tx Tx) error {
				if err := tx.Requests().Put(key, "meta"); err != nil {
					return err
				}
				if err := tx.Balances().Set(issuer, big.NewInt(10)); err != nil {
					return err
				}
				if err := tx.Credentials().Append(models.Credential{IssuedTo: holder}); err != nil {
					return err
				}
				return boom
			})
			require.ErrorIs(t, err, boom)

			require.NoError(t, s.View(func(tx Tx) error {
				_, ok, err := tx.Requests().Get(key)
				require.NoError(t, err)
				assert.False(t, ok)

				balance, err := tx.Balances().Get(issuer)
				require.NoError(t, err)
				assert.Zero(t, balance.Sign())

				creds, err := tx.Credentials().List(holder)
				assert.Empty(t, creds)
				return err
			}))
		})
	}
}

func TestViewIsReadOnly(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			err := s.View(func(tx Tx) error {
				return tx.Requests().Put(models.RequestKey{Holder: holder}, "x")
			})
			assert.ErrorIs(t, err, ErrReadOnly)

			err = s.View(func(tx Tx) error {
				return tx.Balances().Set(holder, big.NewInt(1))
			})
			assert.ErrorIs(t, err, ErrReadOnly)
		})
	}
}

func TestBalances(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
			require.True(t, ok)

			require.NoError(t, s.Update(func(tx Tx) error {
				return tx.Balances().Set(holder, huge)
			}))

			require.NoError(t, s.View(func(tx Tx) error {
				balance, err := tx.Balances().Get(holder)
				assert.Equal(t, 0, huge.Cmp(balance))
				return err
			}))
		})
	}
}

func TestRequestKeyLayout(t *testing.T) {
	k := requestKey(models.RequestKey{Holder: holder, Issuer: issuer, Type: models.SkillEndorsement})
	require.Len(t, k, len(requestPrefix)+2*common.AddressLength+1)
	assert.Equal(t, byte(models.SkillEndorsement), k[len(k)-1])
	assert.Equal(t, holder.Bytes(), k[len(requestPrefix):len(requestPrefix)+common.AddressLength])
}

func TestBadgerOnDiskSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	key := models.RequestKey{Holder: holder, Issuer: issuer, Type: models.Certification}
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	s, err := OpenBadger(dir)
	require.NoError(t, err)

	require.NoError(t, s.Update(func(tx Tx) error {
		if err := tx.Requests().Put(key, "pending"); err != nil {
			return err
		}
		if err := tx.Balances().Set(issuer, big.NewInt(2_000_000_000_000)); err != nil {
			return err
		}
		return tx.Credentials().Append(models.Credential{
			IssuedTo:       holder,
			IssuedBy:       issuer,
			CredentialType: models.Education,
			Metadata:       "BSc CS",
			Timestamp:      ts,
		})
	}))
	require.NoError(t, s.Close())

	reopened, err := OpenBadger(dir)
	require.NoError(t, err)
	defer reopened.Close()

	require.NoError(t, reopened.View(func(tx Tx) error {
		metadata, ok, err := tx.Requests().Get(key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "pending", metadata)

		balance, err := tx.Balances().Get(issuer)
		require.NoError(t, err)
		assert.Equal(t, int64(2_000_000_000_000), balance.Int64())

		creds, err := tx.Credentials().List(holder)
		require.NoError(t, err)
		require.Len(t, creds, 1)
		assert.Equal(t, "BSc CS", creds[0].Metadata)
		assert.Equal(t, models.Education, creds[0].CredentialType)
		assert.True(t, creds[0].Timestamp.Equal(ts))
		return nil
	}))
}
