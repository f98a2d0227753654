package api

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github.com/stasundr/decimal"

	"github.com/swissborg/galactica-credential-ledger/internal/credential"
)

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrParsAddress, s)
	}
	return common.HexToAddress(s), nil
}

// parseAmount reads a non-negative decimal string in the smallest monetary unit.
func parseAmount(s string) (*big.Int, error) {
	dec, ok := decimal.NewDecimalFromString(s)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrParsAmount, s)
	}
	amount := dec.ToBig()
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrParsAmount, s)
	}
	return amount, nil
}

// callFrom builds the execution context of a write from the caller header
// and the attached value.
func callFrom(c echo.Context, value *big.Int) (credential.Call, error) {
	header := c.Request().Header.Get(CallerHeader)
	if !common.IsHexAddress(header) {
		return credential.Call{}, fmt.Errorf("%w: %q", ErrParsCaller, header)
	}
	return credential.Call{
		Caller: common.HexToAddress(header),
		Value:  value,
	}, nil
}

// shortHex keeps the 0x prefix and the first six hex digits of addr for logs.
func shortHex(addr common.Address) string {
	s := addr.Hex()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
