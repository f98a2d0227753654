package api

import (
	"github.com/swissborg/galactica-credential-ledger/internal/models"
)

const (
	RequestStatusPending RequestStatus = "PENDING"
	RequestStatusIssued  RequestStatus = "ISSUED"
)

// CallerHeader carries the address of the account performing a write.
const CallerHeader = "X-Caller"

type ErrorResp struct {
	Error string `json:"error"`
}

type RequestStatus string

type RequestCredentialRequest struct {
	Issuer         string `json:"issuer" validate:"required,eth_addr"`
	CredentialType string `json:"credential_type" validate:"required"`
	Metadata       string `json:"metadata" validate:"lte=1024"`
	// Value is the attached fee as a decimal string.
	Value string `json:"value" validate:"required,number"`
}

type IssueCredentialRequest struct {
	User           string `json:"user" validate:"required,eth_addr"`
	CredentialType string `json:"credential_type" validate:"required"`
}

type StatusResponse struct {
	Status RequestStatus `json:"status"`
}

type GetCredentialsResponse struct {
	Credentials []models.Credential `json:"credentials"`
}

type PendingRequestResponse struct {
	Holder         string                `json:"holder"`
	Issuer         string                `json:"issuer"`
	CredentialType models.CredentialType `json:"credential_type"`
	Metadata       string                `json:"metadata"`
	Status         RequestStatus         `json:"status"`
}

type DepositRequest struct {
	Account string `json:"account" validate:"required,eth_addr"`
	Amount  string `json:"amount" validate:"required,number"`
}

type BalanceResponse struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}
