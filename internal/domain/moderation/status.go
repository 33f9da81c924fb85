// Package moderation implements the status state machine shared by performers
// and support events: review, resubmission, batch review, and the permission
// rules around them.
package moderation

import "fmt"

// Status is the moderation lifecycle state of a performer or support event.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	// StatusExists marks a performer submission as a duplicate of an already
	// approved record. Performers only.
	StatusExists Status = "exists"
)

// ParseStatus validates a raw status string.
func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusPending, StatusApproved, StatusRejected, StatusExists:
		return Status(value), nil
	}
	return "", fmt.Errorf("unknown status %q", value)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusExists:
		return true
	}
	return false
}

// Kind identifies which entity collection an operation targets.
type Kind string

const (
	KindPerformers Kind = "performers"
	KindEvents     Kind = "events"
)

// Collection returns the document-store collection name for the kind.
func (k Kind) Collection() string {
	switch k {
	case KindPerformers:
		return "performers"
	case KindEvents:
		return "supportEvents"
	}
	return string(k)
}

// Role is the verified caller role supplied by the auth provider.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Actor is the verified identity performing an operation. The core trusts it;
// token verification happened upstream.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// reviewTargets lists the statuses an admin review may assign, per kind.
func reviewTargets(kind Kind) []Status {
	if kind == KindPerformers {
		return []Status{StatusApproved, StatusRejected, StatusExists}
	}
	return []Status{StatusApproved, StatusRejected}
}

// CanReview reports whether a review transition from -> to is legal for kind.
// Admins may decide pending items and revisit earlier approve/reject
// decisions; exists is terminal (the record is a duplicate marker) and is
// only ever assigned to a pending performer.
func CanReview(kind Kind, from, to Status) bool {
	if from == StatusExists || to == from {
		return false
	}
	if to == StatusExists {
		return kind == KindPerformers && from == StatusPending
	}
	for _, target := range reviewTargets(kind) {
		if to == target {
			return true
		}
	}
	return false
}

// CanResubmit reports whether an item may go back to pending. Only rejected
// items can be resubmitted; approved and exists are terminal.
func CanResubmit(from Status) bool {
	return from == StatusRejected
}

// CanEdit reports whether actor may apply field updates to an item. Admins
// edit anything; creators edit their own items only while still under
// moderation (pending or rejected).
func CanEdit(actor Actor, createdBy string, status Status) bool {
	if actor.IsAdmin() {
		return true
	}
	if actor.UserID != createdBy {
		return false
	}
	return status == StatusPending || status == StatusRejected
}
