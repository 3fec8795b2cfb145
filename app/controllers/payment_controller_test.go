package controllers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/agentfox/agentfox/app/models"
	"github.com/agentfox/agentfox/internal/pkg/payments"
)

const webhookTestSecret = "whsec_controller_test"

func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func checkoutEventBody(eventID string, amountTotal int64, clientRef, email string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_ctl",
				"amount_total": %d,
				"currency": "aed",
				"client_reference_id": %q,
				"customer_details": { "email": %q }
			}
		}
	}`, eventID, amountTotal, clientRef, email))
}

// webhookTestRepo is an in-memory payments.Repository so the handler can be
// exercised through fiber's test transport.
type webhookTestRepo struct {
	mu          sync.Mutex
	users       map[uint]*models.User
	events      map[string]*models.PaymentWebhookEvent
	journal     []*models.CreditTransaction
	nextEventID uint
}

func newWebhookTestRepo(users ...*models.User) *webhookTestRepo {
	r := &webhookTestRepo{
		users:  make(map[uint]*models.User),
		events: make(map[string]*models.PaymentWebhookEvent),
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *webhookTestRepo) FindUserByID(id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *webhookTestRepo) FindUserByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *webhookTestRepo) GetCredits(userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return u.Credits, nil
}

func (r *webhookTestRepo) UpdateCreditsConditional(userID uint, current, next int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || u.Credits != current {
		return false, nil
	}
	u.Credits = next
	return true, nil
}

func (r *webhookTestRepo) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := event.Provider + "/" + event.ProviderEventID
	if stored, ok := r.events[key]; ok {
		cp := *stored
		return false, &cp, nil
	}
	r.nextEventID++
	event.ID = r.nextEventID
	r.events[key] = event
	cp := *event
	return true, &cp, nil
}

func (r *webhookTestRepo) MarkWebhookProcessed(id uint, processingError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			return nil
		}
	}
	return fmt.Errorf("event row %d not found", id)
}

func (r *webhookTestRepo) CreateCreditTransaction(tx *models.CreditTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.journal = append(r.journal, tx)
	return nil
}

func newWebhookTestApp(repo payments.Repository) *fiber.App {
	svc := payments.NewService(payments.Config{
		Provider:      models.PaymentProviderStripe,
		WebhookSecret: webhookTestSecret,
		Tiers:         payments.DefaultTierTable(),
	}, repo)

	app := fiber.New()
	app.Post("/webhooks/stripe", NewStripeWebhookHandler(svc))
	return app
}

func postWebhook(t *testing.T, app *fiber.App, body []byte, signature string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("POST", "/webhooks/stripe", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, raw)
	}
	return resp.StatusCode, parsed
}

func TestStripeWebhook_MissingSignatureHeader(t *testing.T) {
	app := newWebhookTestApp(newWebhookTestRepo())

	status, body := postWebhook(t, app, checkoutEventBody("evt_h_1", 999, "1", ""), "")

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Missing stripe signature", body["error"])
}

func TestStripeWebhook_InvalidSignature(t *testing.T) {
	app := newWebhookTestApp(newWebhookTestRepo())
	payload := checkoutEventBody("evt_h_2", 999, "1", "")

	status, body := postWebhook(t, app, payload, signPayload(payload, "whsec_wrong"))

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.NotEmpty(t, body["error"])
}

func TestStripeWebhook_SuccessfulPurchase(t *testing.T) {
	repo := newWebhookTestRepo(&models.User{ID: 1, Email: "buyer@example.com", Credits: 5})
	app := newWebhookTestApp(repo)
	payload := checkoutEventBody("evt_h_3", 999, "1", "buyer@example.com")

	status, body := postWebhook(t, app, payload, signPayload(payload, webhookTestSecret))

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(10), body["creditsAdded"])
	assert.Equal(t, float64(15), body["newTotal"])
}

func TestStripeWebhook_UserNotFound(t *testing.T) {
	app := newWebhookTestApp(newWebhookTestRepo())
	payload := checkoutEventBody("evt_h_4", 999, "42", "ghost@example.com")

	status, body := postWebhook(t, app, payload, signPayload(payload, webhookTestSecret))

	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "User not found in database", body["error"])
}

func TestStripeWebhook_UnknownAmount(t *testing.T) {
	repo := newWebhookTestRepo(&models.User{ID: 1, Credits: 0})
	app := newWebhookTestApp(repo)
	payload := checkoutEventBody("evt_h_5", 700, "1", "")

	status, body := postWebhook(t, app, payload, signPayload(payload, webhookTestSecret))

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.NotEmpty(t, body["error"])
}

func TestStripeWebhook_IgnoredEventType(t *testing.T) {
	app := newWebhookTestApp(newWebhookTestRepo())
	payload := []byte(`{"id": "evt_h_6", "type": "payment_intent.created", "data": {"object": {}}}`)

	status, body := postWebhook(t, app, payload, signPayload(payload, webhookTestSecret))

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Nil(t, body["creditsAdded"])
}

func TestStripeWebhook_DuplicateDelivery(t *testing.T) {
	repo := newWebhookTestRepo(&models.User{ID: 1, Email: "buyer@example.com", Credits: 0})
	app := newWebhookTestApp(repo)
	payload := checkoutEventBody("evt_h_7", 4999, "1", "buyer@example.com")
	signature := signPayload(payload, webhookTestSecret)

	status, _ := postWebhook(t, app, payload, signature)
	assert.Equal(t, fiber.StatusOK, status)

	status, body := postWebhook(t, app, payload, signature)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["duplicate"])

	balance, err := repo.GetCredits(1)
	assert.NoError(t, err)
	assert.Equal(t, int64(50), balance)
}
