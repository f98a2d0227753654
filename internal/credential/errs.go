package credential

import "errors"

// The closed set of domain failures. Anything else returned by the service is
// an infrastructure failure wrapping the underlying error.
var (
	ErrIdentityRequired = errors.New("identity required")
	ErrInsufficientFee  = errors.New("insufficient fee")
	ErrNoRequest        = errors.New("no matching credential request")
	ErrTransferFailed   = errors.New("fee transfer failed")
)

// ErrInvalidCredentialType rejects a type outside the defined set before any
// identity, fee or store step runs.
var ErrInvalidCredentialType = errors.New("invalid credential type")

// Outcome names err for logs and metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrIdentityRequired):
		return "identity_required"
	case errors.Is(err, ErrInsufficientFee):
		return "insufficient_fee"
	case errors.Is(err, ErrNoRequest):
		return "no_request"
	case errors.Is(err, ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, ErrInvalidCredentialType):
		return "invalid_input"
	default:
		return "error"
	}
}
