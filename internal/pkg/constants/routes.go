package constants

// Static route constants
const (
	StripeWebhookRoute = "/webhooks/stripe"
	HealthRoute        = "/healthz"
)
