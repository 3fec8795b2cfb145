package repository

import (
	"github.com/agentfox/agentfox/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	GetCredits(id uint) (int64, error)
	// UpdateCreditsConditional writes the new balance only if the stored
	// balance still equals current. Returns false when the guard rejected
	// the write (concurrent modification).
	UpdateCreditsConditional(id uint, current, next int64) (bool, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// AgentRepository defines the interface for catalog listings
type AgentRepository interface {
	Create(agent *models.Agent) error
	GetByID(id uint) (*models.Agent, error)
	GetActive(category, query string) ([]models.Agent, error)
	Update(agent *models.Agent) error
	Count() (int64, error)
}

// CreditTransactionRepository journals balance changes
type CreditTransactionRepository interface {
	Create(tx *models.CreditTransaction) error
	ListByUser(userID uint, offset, limit int) ([]models.CreditTransaction, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User              UserRepository
	Agent             AgentRepository
	CreditTransaction CreditTransactionRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:              NewUserRepository(db),
		Agent:             NewAgentRepository(db),
		CreditTransaction: NewCreditTransactionRepository(db),
	}
}
