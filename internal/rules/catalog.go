package rules

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"instagram-dm-automation-go/internal/models"
)

// Catalog provides per-account snapshots of enabled automation rules
type Catalog struct {
	db *gorm.DB
}

// NewCatalog creates a rule catalog backed by the given database
func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// Active returns the enabled rules for an account in evaluation order:
// priority descending, creation order ascending as the tie-breaker. The
// returned slice is a point-in-time copy; concurrent rule edits are not
// visible to an evaluation already in flight.
func (c *Catalog) Active(ctx context.Context, accountID uint) ([]models.AutomationRule, error) {
	var rules []models.AutomationRule
	err := c.db.WithContext(ctx).
		Where("instagram_account_id = ? AND enabled = ?", accountID, true).
		Order("priority desc, created_at asc, id asc").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load active rules: %w", err)
	}
	return rules, nil
}
