package payments

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/agentfox/agentfox/app/models"
	"gorm.io/gorm"
)

// UserLookup is the account store surface the resolver needs.
type UserLookup interface {
	FindUserByID(id uint) (*models.User, error)
	FindUserByEmail(email string) (*models.User, error)
}

// UserResolver locates the paying user from the identifiers a payment event
// carries. The client reference id set at checkout is tried first; the
// purchaser's billing email is the fallback, since the client reference may
// be absent (anonymous checkout) or stale.
type UserResolver struct {
	store UserLookup
}

// NewUserResolver creates a resolver over an account store.
func NewUserResolver(store UserLookup) *UserResolver {
	return &UserResolver{store: store}
}

type lookupStrategy struct {
	name string
	run  func() (*models.User, error)
}

// Resolve returns exactly one account, short-circuiting on the first
// strategy that finds one. With no identifier at all it fails with
// ErrMissingIdentity before touching the store.
func (r *UserResolver) Resolve(clientReferenceID, email string) (*models.User, error) {
	strategies := r.strategies(clientReferenceID, email)
	if len(strategies) == 0 {
		return nil, ErrMissingIdentity
	}

	for _, s := range strategies {
		user, err := s.run()
		if err == nil {
			return user, nil
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		return nil, fmt.Errorf("%w: %s lookup: %v", ErrPersistence, s.name, err)
	}
	return nil, ErrUserNotFound
}

func (r *UserResolver) strategies(clientReferenceID, email string) []lookupStrategy {
	var out []lookupStrategy
	if ref := strings.TrimSpace(clientReferenceID); ref != "" {
		out = append(out, lookupStrategy{name: "id", run: func() (*models.User, error) {
			id, err := strconv.ParseUint(ref, 10, 32)
			if err != nil || id == 0 {
				// A garbage reference counts as a stale identifier, not a
				// store error; fall through to the email strategy.
				return nil, gorm.ErrRecordNotFound
			}
			return r.store.FindUserByID(uint(id))
		}})
	}
	if addr := strings.TrimSpace(email); addr != "" {
		out = append(out, lookupStrategy{name: "email", run: func() (*models.User, error) {
			return r.store.FindUserByEmail(addr)
		}})
	}
	return out
}
