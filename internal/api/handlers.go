package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/swissborg/galactica-credential-ledger/internal/bank"
	"github.com/swissborg/galactica-credential-ledger/internal/credential"
	"github.com/swissborg/galactica-credential-ledger/internal/models"
)

type Handlers struct {
	service *credential.Service
	bank    *bank.Bank
}

func NewHandlers(service *credential.Service, bank *bank.Bank) *Handlers {
	return &Handlers{
		service: service,
		bank:    bank,
	}
}

func (h *Handlers) RequestCredential(c echo.Context) error {
	var req RequestCredentialRequest

	if err := c.Bind(&req); err != nil {
		log.WithError(err).Error("bind request credential request")
		return c.JSON(http.StatusBadRequest, ErrorResp{
			Error: fmt.Sprintf("%v: %v", err, ErrParsReq),
		})
	}

	if err := c.Validate(req); err != nil {
		log.WithError(err).Error("validate request credential request")
		return c.JSON(http.StatusBadRequest, ErrorResp{
			Error: err.Error(),
		})
	}

	credType, err := models.ParseCredentialType(req.CredentialType)
	if err != nil {
		return badRequest(c, err, ErrParsCredType)
	}

	issuer, err := parseAddress(req.Issuer)
	if err != nil {
		return badRequest(c, err, ErrParsAddress)
	}

	fee, err := parseAmount(req.Value)
	if err != nil {
		return badRequest(c, err, ErrParsAmount)
	}

	call, err := callFrom(c, fee)
	if err != nil {
		return badRequest(c, err, ErrParsCaller)
	}

	log.
		WithField("holder", shortHex(call.Caller)).
		WithField("issuer", shortHex(issuer)).
		WithField("credentialType", credType).
		Info("request")

	if err := h.service.RequestCredential(c.Request().Context(), call, issuer, credType, req.Metadata); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, StatusResponse{
		Status: RequestStatusPending,
	})
}

func (h *Handlers) IssueCredential(c echo.Context) error {
	var req IssueCredentialRequest

	if err := c.Bind(&req); err != nil {
		log.WithError(err).Error("bind issue credential request")
		return c.JSON(http.StatusBadRequest, ErrorResp{
			Error: fmt.Sprintf("%v: %v", err, ErrParsReq),
		})
	}

	if err := c.Validate(req); err != nil {
		log.WithError(err).Error("validate issue credential request")
		return c.JSON(http.StatusBadRequest, ErrorResp{
			Error: err.Error(),
		})
	}

	credType, err := models.ParseCredentialType(req.CredentialType)
	if err != nil {
		return badRequest(c, err, ErrParsCredType)
	}

	holder, err := parseAddress(req.User)
	if err != nil {
		return badRequest(c, err, ErrParsAddress)
	}

	call, err := callFrom(c, nil)
	if err != nil {
		return badRequest(c, err, ErrParsCaller)
	}

	log.
		WithField("holder", shortHex(holder)).
		WithField("issuer", shortHex(call.Caller)).
		WithField("credentialType", credType).
		Info("issue")

	if err := h.service.IssueCredential(c.Request().Context(), call, holder, credType); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, StatusResponse{
		Status: RequestStatusIssued,
	})
}

func (h *Handlers) GetCredentials(c echo.Context) error {
	holder, err := parseAddress(c.Param("user"))
	if err != nil {
		return badRequest(c, err, ErrParsAddress)
	}

	credentials, err := h.service.GetCredentials(c.Request().Context(), holder)
	if err != nil {
		log.WithError(err).Error(ErrReadCredentials)
		return c.JSON(http.StatusInternalServerError, ErrorResp{
			Error: fmt.Sprintf("%v: %v", ErrReadCredentials, err),
		})
	}

	return c.JSON(http.StatusOK, GetCredentialsResponse{
		Credentials: credentials,
	})
}

func (h *Handlers) GetPendingRequest(c echo.Context) error {
	holder, err := parseAddress(c.Param("holder"))
	if err != nil {
		return badRequest(c, err, ErrParsAddress)
	}

	issuer, err := parseAddress(c.Param("issuer"))
	if err != nil {
		return badRequest(c, err, ErrParsAddress)
	}

	credType, err := models.ParseCredentialType(c.Param("type"))
	if err != nil {
		return badRequest(c, err, ErrParsCredType)
	}

	metadata, found, err := h.service.PendingRequest(c.Request().Context(), models.RequestKey{
		Holder: holder,
		Issuer: issuer,
		Type:   credType,
	})
	if err != nil {
		return serviceError(c, err)
	}

	if !found {
		return c.JSON(http.StatusNotFound, ErrorResp{
			Error: ErrRequestNotFound.Error(),
		})
	}

	return c.JSON(http.StatusOK, PendingRequestResponse{
		Holder:         holder.Hex(),
		Issuer:         issuer.Hex(),
		CredentialType: credType,
		Metadata:       metadata,
		Status:         RequestStatusPending,
	})
}

func (h *Handlers) Deposit(c echo.Context) error {
	var req DepositRequest

	if err := c.Bind(&req); err != nil {
		log.WithError(err).Error("bind deposit request")
		return c.JSON(http.StatusBadRequest, ErrorResp{
			Error: fmt.Sprintf("%v: %v", err, ErrParsReq),
		})
	}

	if err := c.Validate(req); err != nil {
		log.WithError(err).Error("validate deposit request")
		return c.JSON(http.StatusBadRequest, ErrorResp{
			Error: err.Error(),
		})
	}

	account, err := parseAddress(req.Account)
	if err != nil {
		return badRequest(c, err, ErrParsAddress)
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return badRequest(c, err, ErrParsAmount)
	}

	balance, err := h.bank.Deposit(c.Request().Context(), account, amount)
	if err != nil {
		log.WithError(err).Error(ErrDeposit)
		return c.JSON(statusFor(err), ErrorResp{
			Error: fmt.Sprintf("%v: %v", ErrDeposit, err),
		})
	}

	log.
		WithField("account", shortHex(account)).
		WithField("amount", amount.String()).
		Info("deposit")

	return c.JSON(http.StatusOK, BalanceResponse{
		Account: account.Hex(),
		Balance: balance.String(),
	})
}

func (h *Handlers) GetBalance(c echo.Context) error {
	account, err := parseAddress(c.Param("account"))
	if err != nil {
		return badRequest(c, err, ErrParsAddress)
	}

	balance, err := h.bank.Balance(c.Request().Context(), account)
	if err != nil {
		log.WithError(err).Error(ErrReadBalance)
		return c.JSON(http.StatusInternalServerError, ErrorResp{
			Error: fmt.Sprintf("%v: %v", ErrReadBalance, err),
		})
	}

	return c.JSON(http.StatusOK, BalanceResponse{
		Account: account.Hex(),
		Balance: balance.String(),
	})
}

func badRequest(c echo.Context, err, kind error) error {
	log.WithError(err).Error(kind)
	return c.JSON(http.StatusBadRequest, ErrorResp{
		Error: err.Error(),
	})
}

func serviceError(c echo.Context, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("credential operation")
	}
	return c.JSON(status, ErrorResp{
		Error: err.Error(),
	})
}
