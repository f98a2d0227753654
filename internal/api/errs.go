package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/swissborg/galactica-credential-ledger/internal/bank"
	"github.com/swissborg/galactica-credential-ledger/internal/credential"
)

var (
	ErrParsReq         = fmt.Errorf("parsing request failed")
	ErrParsCaller      = fmt.Errorf("parsing caller address failed")
	ErrParsAddress     = fmt.Errorf("parsing account address failed")
	ErrParsCredType    = fmt.Errorf("parsing credential type failed")
	ErrParsAmount      = fmt.Errorf("parsing amount failed")
	ErrRequestNotFound = fmt.Errorf("credential request not found")
	ErrReadCredentials = fmt.Errorf("reading credentials failed")
	ErrReadBalance     = fmt.Errorf("reading balance failed")
	ErrDeposit         = fmt.Errorf("deposit failed")
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, credential.ErrIdentityRequired):
		return http.StatusForbidden
	case errors.Is(err, credential.ErrInsufficientFee):
		return http.StatusPaymentRequired
	case errors.Is(err, credential.ErrNoRequest):
		return http.StatusNotFound
	case errors.Is(err, credential.ErrTransferFailed):
		return http.StatusConflict
	case errors.Is(err, credential.ErrInvalidCredentialType), errors.Is(err, bank.ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
