package payments

import (
	"encoding/json"
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// VerifyEvent authenticates a webhook delivery and returns the parsed event.
// Verification runs over the exact raw bytes received; callers must never
// re-serialize the body before handing it in.
func VerifyEvent(rawBody []byte, signatureHeader, secret string) (stripe.Event, error) {
	if strings.TrimSpace(signatureHeader) == "" || strings.TrimSpace(secret) == "" {
		return stripe.Event{}, fmt.Errorf("%w: missing signature or secret", ErrInvalidSignature)
	}
	event, err := webhook.ConstructEventWithOptions(rawBody, signatureHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return event, nil
}

// CheckoutEvent is the normalized shape of a completed checkout session.
type CheckoutEvent struct {
	EventID           string
	SessionID         string
	AmountTotal       int64
	Currency          string
	ClientReferenceID string
	CustomerEmail     string
}

// ParseCheckoutEvent extracts the purchase fields from a verified
// checkout.session.completed event.
func ParseCheckoutEvent(event stripe.Event) (*CheckoutEvent, error) {
	if event.Data == nil {
		return nil, fmt.Errorf("%w: event carries no data object", ErrMalformedEvent)
	}
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	// The billing email from customer_details is the durable identifier;
	// customer_email is only set when the session was created with one.
	email := strings.TrimSpace(sess.CustomerEmail)
	if sess.CustomerDetails != nil && strings.TrimSpace(sess.CustomerDetails.Email) != "" {
		email = strings.TrimSpace(sess.CustomerDetails.Email)
	}

	return &CheckoutEvent{
		EventID:           event.ID,
		SessionID:         sess.ID,
		AmountTotal:       sess.AmountTotal,
		Currency:          string(sess.Currency),
		ClientReferenceID: strings.TrimSpace(sess.ClientReferenceID),
		CustomerEmail:     email,
	}, nil
}
