package payments

import (
	"fmt"
	"log"

	"github.com/agentfox/agentfox/app/models"
	"github.com/agentfox/agentfox/internal/pkg/env"
	stripe "github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
)

// Config carries the orchestrator's static configuration. It is passed in at
// construction so tests can run with fake secrets and tier tables.
type Config struct {
	Provider      string
	WebhookSecret string
	Tiers         TierTable
}

// ConfigFromEnv builds the production configuration.
func ConfigFromEnv() Config {
	return Config{
		Provider:      models.PaymentProviderStripe,
		WebhookSecret: env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		Tiers:         DefaultTierTable(),
	}
}

// Service sequences a webhook delivery through signature verification, event
// filtering, dedup, amount resolution, user resolution and the ledger update.
// Every failure is terminal for the call; redelivery is the provider's job.
type Service struct {
	cfg      Config
	repo     Repository
	resolver *UserResolver
	ledger   *Ledger
}

// NewService creates a reconciliation service from an injected repository.
func NewService(cfg Config, repo Repository) *Service {
	return &Service{
		cfg:      cfg,
		repo:     repo,
		resolver: NewUserResolver(repo),
		ledger:   NewLedger(repo),
	}
}

// NewServiceFromDB creates a reconciliation service from a GORM DB handle.
func NewServiceFromDB(cfg Config, db *gorm.DB) *Service {
	return NewService(cfg, NewRepository(db))
}

// NewLedgerFromDB exposes the shared balance-update discipline to other
// flows (agent run debits) without the webhook machinery.
func NewLedgerFromDB(db *gorm.DB) *Ledger {
	return NewLedger(NewRepository(db))
}

// Result describes the outcome of a fully handled webhook delivery.
type Result struct {
	EventID      string
	EventType    string
	Ignored      bool
	Duplicate    bool
	UserID       uint
	CreditsAdded int64
	NewTotal     int64
}

// Reconcile processes one inbound webhook delivery end to end. All storage
// calls are synchronous; the provider's delivery timeout bounds the request.
func (s *Service) Reconcile(rawBody []byte, signatureHeader string) (*Result, error) {
	event, err := VerifyEvent(rawBody, signatureHeader, s.cfg.WebhookSecret)
	if err != nil {
		return nil, err
	}

	res := &Result{EventID: event.ID, EventType: string(event.Type)}

	// Only completed checkouts grant credits. Everything else is
	// acknowledged so the provider stops redelivering it.
	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		res.Ignored = true
		return res, nil
	}

	created, stored, err := s.repo.CreateWebhookEventIfNotExists(&models.PaymentWebhookEvent{
		Provider:        s.cfg.Provider,
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		PayloadJSON:     string(rawBody),
		SignatureValid:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: record webhook event: %v", ErrPersistence, err)
	}
	if !created && !stored.RetryEligible() {
		// The insert is the claim. A pre-existing row either belongs to a
		// delivery still in flight (no processed_at yet) or finished cleanly;
		// granting here would credit the same event twice.
		res.Duplicate = true
		return res, nil
	}

	checkout, err := ParseCheckoutEvent(event)
	if err != nil {
		return nil, s.fail(stored.ID, err)
	}

	credits, err := s.cfg.Tiers.Resolve(checkout.AmountTotal)
	if err != nil {
		// Likely drift between checkout pricing and the tier table.
		log.Printf("payments: no tier for event %s: amount %d %s", event.ID, checkout.AmountTotal, checkout.Currency)
		return nil, s.fail(stored.ID, err)
	}

	user, err := s.resolver.Resolve(checkout.ClientReferenceID, checkout.CustomerEmail)
	if err != nil {
		log.Printf("payments: user resolution failed for event %s (ref=%q email=%q): %v",
			event.ID, checkout.ClientReferenceID, checkout.CustomerEmail, err)
		return nil, s.fail(stored.ID, err)
	}

	newTotal, err := s.ledger.AddCredits(user.ID, credits)
	if err != nil {
		return nil, s.fail(stored.ID, err)
	}

	if err := s.repo.CreateCreditTransaction(
		models.NewCreditTransaction(user.ID, credits, newTotal, models.CreditSourcePurchase, event.ID),
	); err != nil {
		// The balance is already durable; a missing journal row is an
		// operator inconvenience, not a processing failure.
		log.Printf("payments: journal write failed for event %s: %v", event.ID, err)
	}
	if err := s.repo.MarkWebhookProcessed(stored.ID, ""); err != nil {
		log.Printf("payments: mark processed failed for event %s: %v", event.ID, err)
	}

	res.UserID = user.ID
	res.CreditsAdded = credits
	res.NewTotal = newTotal
	log.Printf("payments: event %s granted %d credits to user %d (balance now %d)",
		event.ID, credits, user.ID, newTotal)
	return res, nil
}

func (s *Service) fail(eventRowID uint, err error) error {
	if markErr := s.repo.MarkWebhookProcessed(eventRowID, err.Error()); markErr != nil {
		log.Printf("payments: failed to store processing error for event row %d: %v", eventRowID, markErr)
	}
	return err
}
