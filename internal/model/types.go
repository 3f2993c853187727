// Package model defines shared data structures.
package model

import "strings"

// Kind identifies which entity list a view or request works on.
type Kind string

// Entity kinds.
const (
	KindBooth Kind = "booth"
	KindWard  Kind = "ward"
)

// ParseKind normalizes a user supplied kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "booth", "booths":
		return KindBooth, true
	case "ward", "wards":
		return KindWard, true
	default:
		return "", false
	}
}

// ScopeName returns the parent unit a kind is listed under.
func (k Kind) ScopeName() string {
	if k == KindWard {
		return "localbody"
	}
	return "assembly"
}

// TargetName returns the unit a kind is bulk-assigned to.
func (k Kind) TargetName() string {
	if k == KindWard {
		return "assembly"
	}
	return "localbody"
}

// Verdict classes supplied by the backend swing projection.
const (
	VerdictMajority          = "MAJORITY"
	VerdictPossibleWithSwing = "POSSIBLE_WITH_SWING"
	VerdictHard              = "HARD"
)

// Verdict is the backend's precomputed swing classification. It is opaque
// here: rendered, never recomputed.
type Verdict struct {
	Winnable   bool     `json:"winnable"`
	GapPercent *float64 `json:"gap_percent"`
	Class      string   `json:"verdict"`
}

// Entity is a booth or ward as delivered by the entity list fetch.
type Entity struct {
	ID           int64    `json:"id"`
	Kind         Kind     `json:"kind"`
	Number       string   `json:"number"`
	Suffix       string   `json:"suffix"`
	Name         string   `json:"name"`
	ParentID     int64    `json:"parent_id"`
	AssignedID   *int64   `json:"assigned_id"`
	AssignedName string   `json:"assigned_name"`
	AssignedType string   `json:"assigned_type"`
	Verdict      *Verdict `json:"verdict,omitempty"`
}

// DisplayNumber joins the number and its suffix ("12" + "A").
func (e Entity) DisplayNumber() string {
	return e.Number + e.Suffix
}

// Option is a named unit used to populate target and scope choices.
type Option struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Number string `json:"number,omitempty"`
	Type   string `json:"type,omitempty"`
}

// VoteRow is one alliance's votes in one entity.
type VoteRow struct {
	EntityID     int64
	EntityNumber string
	EntitySuffix string
	EntityLabel  string
	Alliance     string
	Votes        int64
}

// MutationRequest is the single batched payload of a bulk mutation.
// A nil Target clears the assignment.
type MutationRequest struct {
	EntityIDs []int64 `json:"entity_ids" validate:"required,min=1,dive,gt=0"`
	Target    *int64  `json:"target" validate:"omitempty,gt=0"`
}

// MutationResult is the server's confirmation of a bulk mutation.
type MutationResult struct {
	Message string `json:"message"`
}
