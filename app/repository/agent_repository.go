package repository

import (
	"strings"

	"github.com/agentfox/agentfox/app/models"
	"gorm.io/gorm"
)

// agentRepository implements the AgentRepository interface
type agentRepository struct {
	db *gorm.DB
}

// NewAgentRepository creates a new agent repository instance
func NewAgentRepository(db *gorm.DB) AgentRepository {
	return &agentRepository{db: db}
}

// Create creates a new agent listing
func (r *agentRepository) Create(agent *models.Agent) error {
	return r.db.Create(agent).Error
}

// GetByID retrieves an agent by its ID
func (r *agentRepository) GetByID(id uint) (*models.Agent, error) {
	var agent models.Agent
	err := r.db.First(&agent, id).Error
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

// GetActive lists active agents, optionally filtered by category and a
// name/description search term.
func (r *agentRepository) GetActive(category, query string) ([]models.Agent, error) {
	q := r.db.Where("is_active = ?", true)
	category = strings.TrimSpace(category)
	if category != "" && category != "all" {
		q = q.Where("category = ?", category)
	}
	if search := strings.TrimSpace(query); search != "" {
		pattern := "%" + search + "%"
		q = q.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}
	var agents []models.Agent
	err := q.Order("id ASC").Find(&agents).Error
	return agents, err
}

// Update updates an existing agent listing
func (r *agentRepository) Update(agent *models.Agent) error {
	return r.db.Save(agent).Error
}

// Count returns the total number of agents
func (r *agentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Agent{}).Count(&count).Error
	return count, err
}
