package search

import (
	"slices"

	"github.com/joshu-sajeev/researchindex/internal/config"
	"github.com/joshu-sajeev/researchindex/internal/models"
)

// Visibility restricts which items a caller may see. An empty list allows
// every value of that attribute.
type Visibility struct {
	Statuses     []config.ResearchStatus
	AccessLevels []config.AccessLevel
}

// PublicVisibility is the anonymous search surface: approved items only.
func PublicVisibility() Visibility {
	return Visibility{Statuses: []config.ResearchStatus{config.ResearchStatusApproved}}
}

// AdminVisibility sees every status and access level.
func AdminVisibility() Visibility {
	return Visibility{}
}

func (v Visibility) Allows(r *models.Research) bool {
	if len(v.Statuses) > 0 && !slices.Contains(v.Statuses, r.Status) {
		return false
	}
	if len(v.AccessLevels) > 0 && !slices.Contains(v.AccessLevels, r.AccessLevel) {
		return false
	}
	return true
}

// StatusValues returns the allowed statuses as plain strings.
func (v Visibility) StatusValues() []string {
	out := make([]string, len(v.Statuses))
	for i, s := range v.Statuses {
		out[i] = string(s)
	}
	return out
}

func (v Visibility) AccessValues() []string {
	out := make([]string, len(v.AccessLevels))
	for i, a := range v.AccessLevels {
		out[i] = string(a)
	}
	return out
}
