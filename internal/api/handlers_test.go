package api

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swissborg/galactica-credential-ledger/internal/bank"
	"github.com/swissborg/galactica-credential-ledger/internal/credential"
	"github.com/swissborg/galactica-credential-ledger/internal/identity"
	"github.com/swissborg/galactica-credential-ledger/internal/metrics"
	"github.com/swissborg/galactica-credential-ledger/internal/models"
	"github.com/swissborg/galactica-credential-ledger/internal/store"
	"github.com/swissborg/galactica-credential-ledger/internal/taskqueue"
)

const (
	holderHex = "0x00000000000000000000000000000000000000A1"
	issuerHex = "0x00000000000000000000000000000000000000B2"
	outsider  = "0x00000000000000000000000000000000000000C3"
)

var minFee = credential.MinFee.String()

func newTestEcho(t *testing.T, checker credential.IdentityChecker) *echo.Echo {
	t.Helper()

	st := store.NewMemoryStore()
	queue := taskqueue.NewQueue()
	t.Cleanup(queue.Close)

	reg := prometheus.NewRegistry()
	b := bank.New(st, queue)
	svc := credential.NewService(st, checker, b, queue, credential.WithMetrics(metrics.New(reg)))

	return NewServer(svc, b, reg).makeEcho()
}

func do(t *testing.T, e *echo.Echo, method, path, caller, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if caller != "" {
		req.Header.Set(CallerHeader, caller)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func fund(t *testing.T, e *echo.Echo, account string) {
	t.Helper()
	amount := new(big.Int).Mul(credential.MinFee, big.NewInt(10)).String()
	rec := do(t, e, http.MethodPost, "/accounts/deposit", "", `{"account":"`+account+`","amount":"`+amount+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func requestBody(issuer, credType, metadata, value string) string {
	b, _ := json.Marshal(RequestCredentialRequest{
		Issuer:         issuer,
		CredentialType: credType,
		Metadata:       metadata,
		Value:          value,
	})
	return string(b)
}

func issueBody(user, credType string) string {
	b, _ := json.Marshal(IssueCredentialRequest{User: user, CredentialType: credType})
	return string(b)
}

func TestRequestIssueAndGet(t *testing.T) {
	e := newTestEcho(t, identity.Stub{})
	fund(t, e, holderHex)

	rec := do(t, e, http.MethodPost, "/credentials/request", holderHex, requestBody(issuerHex, "Education", "BSc CS", minFee))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"status":"PENDING"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = do(t, e, http.MethodGet, "/requests/"+holderHex+"/"+issuerHex+"/Education", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pending PendingRequestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	assert.Equal(t, "BSc CS", pending.Metadata)
	assert.Equal(t, models.Education, pending.CredentialType)

	rec = do(t, e, http.MethodPost, "/credentials/issue", issuerHex, issueBody(holderHex, "Education"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"status":"ISSUED"}`, rec.Body.String())

	rec = do(t, e, http.MethodPost, "/credentials/issue", issuerHex, issueBody(holderHex, "Education"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, e, http.MethodGet, "/credentials/"+holderHex, "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp GetCredentialsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Credentials, 1)
	assert.Equal(t, common.HexToAddress(holderHex), resp.Credentials[0].IssuedTo)
	assert.Equal(t, common.HexToAddress(issuerHex), resp.Credentials[0].IssuedBy)
	assert.Equal(t, models.Education, resp.Credentials[0].CredentialType)
	assert.Equal(t, "BSc CS", resp.Credentials[0].Metadata)

	rec = do(t, e, http.MethodGet, "/accounts/"+issuerHex+"/balance", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"balance":"`+minFee+`"`)
}

func TestGetCredentialsEmpty(t *testing.T) {
	e := newTestEcho(t, identity.Stub{})

	rec := do(t, e, http.MethodGet, "/credentials/"+outsider, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"credentials":[]}`, rec.Body.String())
}

func TestPendingRequestNotFound(t *testing.T) {
	e := newTestEcho(t, identity.Stub{})

	rec := do(t, e, http.MethodGet, "/requests/"+holderHex+"/"+issuerHex+"/Education", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, e, http.MethodGet, "/requests/"+holderHex+"/"+issuerHex+"/Diploma", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorStatuses(t *testing.T) {
	allow := identity.NewAllowlist(common.HexToAddress(holderHex), common.HexToAddress(issuerHex))

	tests := []struct {
		name   string
		method string
		path   string
		caller string
		body   string
		want   int
	}{
		{
			name:   "fee below minimum",
			method: http.MethodPost, path: "/credentials/request", caller: holderHex,
			body: requestBody(issuerHex, "Education", "m", "1"),
			want: http.StatusPaymentRequired,
		},
		{
			name:   "issuer without identity",
			method: http.MethodPost, path: "/credentials/request", caller: holderHex,
			body: requestBody(outsider, "Education", "m", minFee),
			want: http.StatusForbidden,
		},
		{
			name:   "holder cannot pay",
			method: http.MethodPost, path: "/credentials/request", caller: issuerHex,
			body: requestBody(holderHex, "Education", "m", minFee),
			want: http.StatusConflict,
		},
		{
			name:   "missing caller",
			method: http.MethodPost, path: "/credentials/request",
			body: requestBody(issuerHex, "Education", "m", minFee),
			want: http.StatusBadRequest,
		},
		{
			name:   "unknown credential type",
			method: http.MethodPost, path: "/credentials/request", caller: holderHex,
			body: requestBody(issuerHex, "Diploma", "m", minFee),
			want: http.StatusBadRequest,
		},
		{
			name:   "negative fee",
			method: http.MethodPost, path: "/credentials/request", caller: holderHex,
			body: requestBody(issuerHex, "Education", "m", "-"+minFee),
			want: http.StatusBadRequest,
		},
		{
			name:   "metadata too long",
			method: http.MethodPost, path: "/credentials/request", caller: holderHex,
			body: requestBody(issuerHex, "Education", strings.Repeat("x", 1025), minFee),
			want: http.StatusBadRequest,
		},
		{
			name:   "malformed issuer",
			method: http.MethodPost, path: "/credentials/request", caller: holderHex,
			body: requestBody("issuer", "Education", "m", minFee),
			want: http.StatusBadRequest,
		},
		{
			name:   "issue without request",
			method: http.MethodPost, path: "/credentials/issue", caller: issuerHex,
			body: issueBody(holderHex, "Certification"),
			want: http.StatusNotFound,
		},
		{
			name:   "issue by outsider",
			method: http.MethodPost, path: "/credentials/issue", caller: outsider,
			body: issueBody(holderHex, "Certification"),
			want: http.StatusForbidden,
		},
		{
			name:   "bad holder in path",
			method: http.MethodGet, path: "/credentials/nobody",
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho(t, allow)
			fund(t, e, holderHex)

			rec := do(t, e, tt.method, tt.path, tt.caller, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())

			if tt.want != http.StatusOK {
				var resp ErrorResp
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.NotEmpty(t, resp.Error)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEcho(t, identity.Stub{})

	_ = do(t, e, http.MethodPost, "/credentials/issue", issuerHex, issueBody(holderHex, "Education"))

	rec := do(t, e, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `credential_ledger_operations_total{operation="issue_credential",outcome="no_request"} 1`)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, statusFor(credential.ErrIdentityRequired))
	assert.Equal(t, http.StatusPaymentRequired, statusFor(credential.ErrInsufficientFee))
	assert.Equal(t, http.StatusNotFound, statusFor(credential.ErrNoRequest))
	assert.Equal(t, http.StatusConflict, statusFor(credential.ErrTransferFailed))
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("%w: 9", credential.ErrInvalidCredentialType)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}

func TestShortHex(t *testing.T) {
	assert.Equal(t, "0x000000", shortHex(common.HexToAddress(holderHex)))
	assert.Len(t, shortHex(common.HexToAddress(issuerHex)), len("0x")+6)
}
