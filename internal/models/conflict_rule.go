package models

import "time"

// ConflictRule is an optional, versioned policy record per conflict type.
// It gates whether findings of its type are recorded and supplies scoring
// metadata. Detection itself is always performed by the concrete per-type
// detectors; rules carry no condition language.
type ConflictRule struct {
	ID             string           `db:"id" json:"id"`
	Name           string           `db:"name" json:"name"`
	ConflictType   ConflictType     `db:"conflict_type" json:"conflict_type"`
	Severity       ConflictSeverity `db:"severity" json:"severity"`
	Blocking       bool             `db:"blocking" json:"blocking"`
	AutoResolvable bool             `db:"auto_resolvable" json:"auto_resolvable"`
	Priority       int              `db:"priority" json:"priority"`
	Version        int              `db:"version" json:"version"`
	Active         bool             `db:"active" json:"active"`
	EffectiveFrom  *time.Time       `db:"effective_from" json:"effective_from,omitempty"`
	EffectiveTo    *time.Time       `db:"effective_to" json:"effective_to,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// AppliesAt reports whether the rule is active and inside its effective window.
func (r *ConflictRule) AppliesAt(t time.Time) bool {
	if !r.Active {
		return false
	}
	if r.EffectiveFrom != nil && t.Before(*r.EffectiveFrom) {
		return false
	}
	if r.EffectiveTo != nil && t.After(*r.EffectiveTo) {
		return false
	}
	return true
}
