package payments

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// LedgerStore is the minimal storage surface for balance updates. The
// conditional write must be atomic at the storage layer (guarded UPDATE).
type LedgerStore interface {
	GetCredits(userID uint) (int64, error)
	UpdateCreditsConditional(userID uint, current, next int64) (bool, error)
}

const maxBalanceAttempts = 5

// Ledger applies credit grants and debits with optimistic concurrency.
// A write is accepted only if the balance is unchanged since the read;
// a rejected write triggers a re-read and reapply. A blind read-then-write
// would lose updates under concurrent grants to the same account.
type Ledger struct {
	store LedgerStore
}

// NewLedger creates a ledger over a balance store.
func NewLedger(store LedgerStore) *Ledger {
	return &Ledger{store: store}
}

// AddCredits durably increases a user's balance by grant and returns the new
// balance. The grant must be positive.
func (l *Ledger) AddCredits(userID uint, grant int64) (int64, error) {
	if grant <= 0 {
		return 0, fmt.Errorf("credit grant must be positive, got %d", grant)
	}
	return l.apply(userID, grant)
}

// SpendCredits debits cost from a user's balance, failing with
// ErrInsufficientCredits when the balance cannot cover it. Debits share the
// conditional-update discipline with grants.
func (l *Ledger) SpendCredits(userID uint, cost int64) (int64, error) {
	if cost <= 0 {
		return 0, fmt.Errorf("credit cost must be positive, got %d", cost)
	}
	return l.apply(userID, -cost)
}

func (l *Ledger) apply(userID uint, delta int64) (int64, error) {
	for attempt := 0; attempt < maxBalanceAttempts; attempt++ {
		current, err := l.store.GetCredits(userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, ErrUserNotFound
			}
			return 0, fmt.Errorf("%w: read balance: %v", ErrPersistence, err)
		}

		next := current + delta
		if next < 0 {
			return 0, ErrInsufficientCredits
		}

		ok, err := l.store.UpdateCreditsConditional(userID, current, next)
		if err != nil {
			return 0, fmt.Errorf("%w: write balance: %v", ErrPersistence, err)
		}
		if ok {
			return next, nil
		}
		// Guard rejected the write: someone else changed the balance
		// between our read and write. Re-read and reapply.
	}
	return 0, fmt.Errorf("%w: balance update contention for user %d", ErrPersistence, userID)
}
