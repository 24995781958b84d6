package types

import (
	"regexp"
	"time"
)

// Group statuses.
const (
	GroupStatusActive   = "active"
	GroupStatusArchived = "archived"
)

// Plan names. Each plan carries a default limit table; per-group overrides
// live in GroupSettings.Limits.
const (
	PlanFree    = "free"
	PlanStarter = "starter"
	PlanPro     = "pro"
)

// Metered resources tracked against plan limits.
const (
	ResourceThings      = "things"
	ResourceConnections = "connections"
	ResourceKnowledge   = "knowledge"
	ResourceMembers     = "members"
	ResourceStorageMB   = "storage_mb"
)

// planLimits is the per-plan resource ceiling table.
var planLimits = map[string]map[string]int{
	PlanFree: {
		ResourceThings:      100,
		ResourceConnections: 500,
		ResourceKnowledge:   200,
		ResourceMembers:     3,
		ResourceStorageMB:   100,
	},
	PlanStarter: {
		ResourceThings:      5000,
		ResourceConnections: 25000,
		ResourceKnowledge:   10000,
		ResourceMembers:     10,
		ResourceStorageMB:   2048,
	},
	PlanPro: {
		ResourceThings:      100000,
		ResourceConnections: 500000,
		ResourceKnowledge:   200000,
		ResourceMembers:     100,
		ResourceStorageMB:   51200,
	},
}

// PlanLimit returns the ceiling for a resource under a plan. An explicit
// override in settings wins over the plan table. Returns 0 and false when
// neither defines the resource.
func PlanLimit(settings GroupSettings, resource string) (int, bool) {
	if settings.Limits != nil {
		if v, ok := settings.Limits[resource]; ok {
			return v, true
		}
	}
	plan := settings.Plan
	if plan == "" {
		plan = PlanFree
	}
	limits, ok := planLimits[plan]
	if !ok {
		return 0, false
	}
	v, ok := limits[resource]
	return v, ok
}

// GroupSettings holds visibility, membership policy, and plan data.
type GroupSettings struct {
	Visibility string         `json:"visibility,omitempty"` // public, private
	JoinPolicy string         `json:"join_policy,omitempty"` // open, invite, closed
	Plan       string         `json:"plan,omitempty"`
	Limits     map[string]int `json:"limits,omitempty"` // explicit per-group overrides
}

// Group is a multi-tenant container with hierarchy and plan-based limits.
type Group struct {
	GroupID       string         `json:"group_id"`
	Slug          string         `json:"slug"`
	Name          string         `json:"name"`
	Type          string         `json:"type"`
	ParentGroupID string         `json:"parent_group_id,omitempty"`
	Settings      GroupSettings  `json:"settings"`
	Status        string         `json:"status"`
	Usage         map[string]int `json:"usage,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// GroupPatch describes a partial group update.
type GroupPatch struct {
	Name          *string        `json:"name,omitempty"`
	Status        *string        `json:"status,omitempty"`
	ParentGroupID *string        `json:"parent_group_id,omitempty"`
	Settings      *GroupSettings `json:"settings,omitempty"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidSlug reports whether s is a well-formed group slug.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Validate checks creation invariants that need no backend access.
func (g *Group) Validate() error {
	if g.Name == "" {
		return NewValidationFailed("name", "name must not be empty")
	}
	if !ValidSlug(g.Slug) {
		return NewValidationFailed("slug", "slug must be lowercase alphanumeric with hyphens")
	}
	if g.Settings.Plan != "" {
		if _, ok := planLimits[g.Settings.Plan]; !ok {
			return NewValidationFailed("plan", "unrecognized plan: "+g.Settings.Plan)
		}
	}
	return nil
}
