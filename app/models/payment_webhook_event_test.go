package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPaymentWebhookEventState(t *testing.T) {
	now := time.Now()

	inFlight := &PaymentWebhookEvent{}
	assert.False(t, inFlight.ProcessedClean())
	assert.False(t, inFlight.RetryEligible(), "a claimed but unfinished row must not be reprocessed")

	clean := &PaymentWebhookEvent{ProcessedAt: &now}
	assert.True(t, clean.ProcessedClean())
	assert.False(t, clean.RetryEligible())

	failed := &PaymentWebhookEvent{ProcessedAt: &now, ProcessingError: "user not found"}
	assert.False(t, failed.ProcessedClean())
	assert.True(t, failed.RetryEligible())
}
