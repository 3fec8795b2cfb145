package models

import (
	"time"

	"github.com/google/uuid"
)

// Credit transaction sources.
const (
	CreditSourcePurchase = "purchase"
	CreditSourceAgentRun = "agent_run"
	CreditSourceSignup   = "signup"
)

// CreditTransaction journals every balance change for operator diagnosis.
// Delta is positive for grants and negative for debits.
type CreditTransaction struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Reference    string    `gorm:"type:varchar(36);uniqueIndex" json:"reference"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Delta        int64     `gorm:"not null" json:"delta"`
	BalanceAfter int64     `gorm:"not null" json:"balance_after"`
	Source       string    `gorm:"type:varchar(30);not null;index" json:"source"`
	SourceRef    string    `gorm:"type:varchar(191);default:'';index" json:"source_ref"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// NewCreditTransaction builds a journal row with a fresh reference.
func NewCreditTransaction(userID uint, delta, balanceAfter int64, source, sourceRef string) *CreditTransaction {
	return &CreditTransaction{
		Reference:    uuid.NewString(),
		UserID:       userID,
		Delta:        delta,
		BalanceAfter: balanceAfter,
		Source:       source,
		SourceRef:    sourceRef,
	}
}
