package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campusops/meetgen-api/internal/models"
)

// ConflictRuleRepository reads the optional conflict policy records.
type ConflictRuleRepository struct {
	db *sqlx.DB
}

// NewConflictRuleRepository creates a new conflict rule repository.
func NewConflictRuleRepository(db *sqlx.DB) *ConflictRuleRepository {
	return &ConflictRuleRepository{db: db}
}

const conflictRuleColumns = `id, name, conflict_type, severity, blocking, auto_resolvable, priority, version, active, effective_from, effective_to, created_at, updated_at`

// ListActive returns active rules ordered by priority. Effective-window
// checks happen in the service because they depend on the meeting date.
func (r *ConflictRuleRepository) ListActive(ctx context.Context) ([]models.ConflictRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM conflict_rules WHERE active = true ORDER BY priority DESC, version DESC`, conflictRuleColumns)
	var rules []models.ConflictRule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("list active conflict rules: %w", err)
	}
	return rules, nil
}
