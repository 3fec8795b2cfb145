package payments

import "errors"

// Failure taxonomy for the reconciliation pipeline. Every failure is terminal
// for the current webhook call; the provider's redelivery is the only retry.
var (
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrMalformedEvent      = errors.New("malformed payment event")
	ErrUnknownAmount       = errors.New("no credit tier configured for amount")
	ErrMissingIdentity     = errors.New("payment event carries no user identity")
	ErrUserNotFound        = errors.New("user not found")
	ErrPersistence         = errors.New("persistence failure")
	ErrInsufficientCredits = errors.New("insufficient credits")
)
