package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"calshare/core/entity"

	"github.com/google/uuid"
)

// Permission is the access level a user holds on an event. Levels are totally
// ordered: view < edit < admin < owner.
type Permission string

const (
	PermissionView  Permission = "view"
	PermissionEdit  Permission = "edit"
	PermissionAdmin Permission = "admin"
	PermissionOwner Permission = "owner"
)

var permissionRank = map[Permission]int{
	PermissionView:  1,
	PermissionEdit:  2,
	PermissionAdmin: 3,
	PermissionOwner: 4,
}

func (p Permission) Valid() bool {
	_, ok := permissionRank[p]
	return ok
}

func (p Permission) Rank() int {
	return permissionRank[p]
}

// AtLeast reports whether p grants everything min grants.
func (p Permission) AtLeast(min Permission) bool {
	return permissionRank[p] >= permissionRank[min]
}

func ParsePermission(s string) (Permission, bool) {
	p := Permission(s)
	return p, p.Valid()
}

// ReasonKind identifies why an access edge exists.
type ReasonKind string

const (
	ReasonKindOwner        ReasonKind = "owner"
	ReasonKindDirectInvite ReasonKind = "direct_invite"
	ReasonKindLabel        ReasonKind = "label"
)

// Reason is one justification for an access edge. Each reason carries its own
// permission snapshot; the edge permission is always the max across reasons.
type Reason struct {
	Kind       ReasonKind `json:"kind"`
	LabelID    *uuid.UUID `json:"label_id,omitempty"`
	Permission Permission `json:"permission"`
}

func OwnerReason() Reason {
	return Reason{Kind: ReasonKindOwner, Permission: PermissionOwner}
}

func DirectInviteReason(p Permission) Reason {
	return Reason{Kind: ReasonKindDirectInvite, Permission: p}
}

func LabelReason(labelID uuid.UUID, p Permission) Reason {
	return Reason{Kind: ReasonKindLabel, LabelID: &labelID, Permission: p}
}

// Matches reports whether two reasons refer to the same justification,
// ignoring the permission snapshot.
func (r Reason) Matches(other Reason) bool {
	if r.Kind != other.Kind {
		return false
	}
	if r.Kind != ReasonKindLabel {
		return true
	}
	if r.LabelID == nil || other.LabelID == nil {
		return false
	}
	return *r.LabelID == *other.LabelID
}

// Reasons is the justification set of an access edge, stored as JSONB.
type Reasons []Reason

func (rs Reasons) Value() (driver.Value, error) {
	return json.Marshal(rs)
}

func (rs *Reasons) Scan(value any) error {
	if value == nil {
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, rs)
}

func (rs Reasons) Index(r Reason) int {
	for i, existing := range rs {
		if existing.Matches(r) {
			return i
		}
	}
	return -1
}

func (rs Reasons) Has(r Reason) bool {
	return rs.Index(r) >= 0
}

func (rs Reasons) HasKind(kind ReasonKind) bool {
	for _, r := range rs {
		if r.Kind == kind {
			return true
		}
	}
	return false
}

// MaxPermission returns the highest permission among the reasons. An empty
// set has no permission; callers must delete the edge instead.
func (rs Reasons) MaxPermission() Permission {
	max := Permission("")
	for _, r := range rs {
		if r.Permission.Rank() > max.Rank() {
			max = r.Permission
		}
	}
	return max
}

// AccessEdge links a user to an event. Exactly one edge may exist per
// (user, event) pair, and it exists iff Reasons is non-empty.
type AccessEdge struct {
	UserID     uuid.UUID  `db:"user_id" json:"user_id"`
	EventID    uuid.UUID  `db:"event_id" json:"event_id"`
	Permission Permission `db:"permission" json:"permission"`
	Reasons    Reasons    `db:"reasons" json:"reasons"`
	entity.BaseEntity
}
