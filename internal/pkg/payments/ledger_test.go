package payments

import (
	"errors"
	"sync"
	"testing"

	"gorm.io/gorm"
)

type fakeLedgerStore struct {
	mu      sync.Mutex
	credits map[uint]int64
	// beforeWrite runs between the read and the conditional write,
	// outside the lock, to force interleavings.
	beforeWrite func(attempt int)
	attempt     int
}

func newFakeLedgerStore(userID uint, balance int64) *fakeLedgerStore {
	return &fakeLedgerStore{credits: map[uint]int64{userID: balance}}
}

func (s *fakeLedgerStore) GetCredits(userID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.credits[userID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (s *fakeLedgerStore) UpdateCreditsConditional(userID uint, current, next int64) (bool, error) {
	if s.beforeWrite != nil {
		s.mu.Lock()
		attempt := s.attempt
		s.attempt++
		s.mu.Unlock()
		s.beforeWrite(attempt)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.credits[userID] != current {
		return false, nil
	}
	s.credits[userID] = next
	return true, nil
}

func TestLedgerAddCredits(t *testing.T) {
	store := newFakeLedgerStore(1, 0)
	ledger := NewLedger(store)

	newTotal, err := ledger.AddCredits(1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newTotal != 10 {
		t.Fatalf("newTotal = %d, want 10", newTotal)
	}
}

func TestLedgerAddCredits_RejectsNonPositiveGrant(t *testing.T) {
	ledger := NewLedger(newFakeLedgerStore(1, 0))
	if _, err := ledger.AddCredits(1, 0); err == nil {
		t.Fatal("expected error for zero grant")
	}
	if _, err := ledger.AddCredits(1, -5); err == nil {
		t.Fatal("expected error for negative grant")
	}
}

func TestLedgerAddCredits_UnknownUser(t *testing.T) {
	ledger := NewLedger(newFakeLedgerStore(1, 0))
	if _, err := ledger.AddCredits(2, 10); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestLedger_ConcurrentGrantsDoNotLoseUpdates(t *testing.T) {
	const startBalance = 100
	for i := 0; i < 200; i++ {
		store := newFakeLedgerStore(1, startBalance)
		ledger := NewLedger(store)

		var wg sync.WaitGroup
		grants := []int64{10, 50}
		errs := make([]error, len(grants))
		for gi, g := range grants {
			wg.Add(1)
			go func(gi int, g int64) {
				defer wg.Done()
				_, errs[gi] = ledger.AddCredits(1, g)
			}(gi, g)
		}
		wg.Wait()

		for gi, err := range errs {
			if err != nil {
				t.Fatalf("grant %d failed: %v", gi, err)
			}
		}
		final, _ := store.GetCredits(1)
		if final != startBalance+10+50 {
			t.Fatalf("final balance = %d, want %d", final, startBalance+10+50)
		}
	}
}

func TestLedger_RetriesAfterRejectedWrite(t *testing.T) {
	store := newFakeLedgerStore(1, 100)
	ledger := NewLedger(store)

	// Simulate a concurrent debit landing between our read and write:
	// the first conditional write must be rejected and reapplied on a
	// fresh read.
	store.beforeWrite = func(attempt int) {
		if attempt == 0 {
			store.mu.Lock()
			store.credits[1] -= 30
			store.mu.Unlock()
		}
	}

	newTotal, err := ledger.AddCredits(1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newTotal != 80 {
		t.Fatalf("newTotal = %d, want 80 (100 - 30 + 10)", newTotal)
	}
}

func TestLedger_ContentionExhaustionIsPersistenceError(t *testing.T) {
	store := newFakeLedgerStore(1, 100)
	ledger := NewLedger(store)

	// Every write loses the race.
	store.beforeWrite = func(int) {
		store.mu.Lock()
		store.credits[1]++
		store.mu.Unlock()
	}

	if _, err := ledger.AddCredits(1, 10); !errors.Is(err, ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
}

func TestLedgerSpendCredits(t *testing.T) {
	store := newFakeLedgerStore(1, 100)
	ledger := NewLedger(store)

	newTotal, err := ledger.SpendCredits(1, 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newTotal != 75 {
		t.Fatalf("newTotal = %d, want 75", newTotal)
	}
}

func TestLedgerSpendCredits_Insufficient(t *testing.T) {
	store := newFakeLedgerStore(1, 20)
	ledger := NewLedger(store)

	if _, err := ledger.SpendCredits(1, 25); !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}
	balance, _ := store.GetCredits(1)
	if balance != 20 {
		t.Fatalf("balance changed to %d on failed debit", balance)
	}
}

func TestLedger_ConcurrentGrantAndDebit(t *testing.T) {
	for i := 0; i < 200; i++ {
		store := newFakeLedgerStore(1, 100)
		ledger := NewLedger(store)

		var wg sync.WaitGroup
		wg.Add(2)
		var grantErr, debitErr error
		go func() {
			defer wg.Done()
			_, grantErr = ledger.AddCredits(1, 50)
		}()
		go func() {
			defer wg.Done()
			_, debitErr = ledger.SpendCredits(1, 40)
		}()
		wg.Wait()

		if grantErr != nil || debitErr != nil {
			t.Fatalf("grant err = %v, debit err = %v", grantErr, debitErr)
		}
		final, _ := store.GetCredits(1)
		if final != 110 {
			t.Fatalf("final balance = %d, want 110", final)
		}
	}
}
