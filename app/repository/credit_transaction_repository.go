package repository

import (
	"github.com/agentfox/agentfox/app/models"
	"gorm.io/gorm"
)

// creditTransactionRepository implements the CreditTransactionRepository interface
type creditTransactionRepository struct {
	db *gorm.DB
}

// NewCreditTransactionRepository creates a new credit transaction repository instance
func NewCreditTransactionRepository(db *gorm.DB) CreditTransactionRepository {
	return &creditTransactionRepository{db: db}
}

// Create journals a balance change
func (r *creditTransactionRepository) Create(tx *models.CreditTransaction) error {
	return r.db.Create(tx).Error
}

// ListByUser returns a user's journal entries, newest first
func (r *creditTransactionRepository) ListByUser(userID uint, offset, limit int) ([]models.CreditTransaction, error) {
	var txs []models.CreditTransaction
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&txs).Error
	return txs, err
}
