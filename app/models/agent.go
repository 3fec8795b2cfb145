package models

import (
	"time"

	"gorm.io/gorm"
)

// Agent is a catalog listing. Running an agent debits its cost in credits
// from the calling user.
type Agent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(150);uniqueIndex" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"type:varchar(50);index" json:"category"`
	Cost        int64     `gorm:"not null" json:"cost"`
	Rating      float64   `gorm:"type:decimal(3,1);default:0" json:"rating"`
	Reviews     int64     `gorm:"default:0" json:"reviews"`
	Initials    string    `gorm:"type:varchar(4)" json:"initials"`
	RunCount    int64     `gorm:"default:0" json:"run_count"`
	IsActive    bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// DefaultAgents is the seed catalog.
func DefaultAgents() []Agent {
	return []Agent{
		{Name: "Smart Customer Support Agent", Description: "Automates customer inquiries with intelligent responses, reducing response time by 80% while maintaining high satisfaction rates.", Category: "customer-service", Cost: 25, Rating: 4.9, Reviews: 2300, Initials: "CS"},
		{Name: "Data Analysis Agent", Description: "Processes complex datasets and generates actionable insights with automated reporting and visualization capabilities.", Category: "analytics", Cost: 45, Rating: 4.8, Reviews: 1800, Initials: "DA"},
		{Name: "Content Writing Agent", Description: "Creates high-quality, engaging content across multiple formats while maintaining brand voice and SEO optimization.", Category: "content", Cost: 35, Rating: 4.7, Reviews: 3100, Initials: "CW"},
		{Name: "Email Automation Agent", Description: "Manages email campaigns with personalized content, smart scheduling, and performance tracking for maximum engagement.", Category: "email", Cost: 30, Rating: 4.9, Reviews: 2700, Initials: "EA"},
		{Name: "Sales Assistant Agent", Description: "Qualifies leads, schedules meetings, and provides sales insights to accelerate your sales pipeline and close deals faster.", Category: "sales", Cost: 40, Rating: 4.6, Reviews: 1900, Initials: "SA"},
		{Name: "Task Automation Agent", Description: "Streamlines repetitive workflows across multiple platforms, saving hours of manual work with intelligent automation.", Category: "utilities", Cost: 20, Rating: 4.8, Reviews: 4200, Initials: "TA"},
		{Name: "Weather Reporter Agent", Description: "Get detailed weather reports for any location worldwide with current conditions, forecasts, and weather alerts.", Category: "utilities", Cost: 15, Rating: 4.9, Reviews: 1650, Initials: "WR"},
	}
}

// SeedAgents inserts the default catalog, skipping agents that already exist.
func SeedAgents(db *gorm.DB) error {
	for _, agent := range DefaultAgents() {
		if err := db.Where("name = ?", agent.Name).FirstOrCreate(&agent).Error; err != nil {
			return err
		}
	}
	return nil
}
