package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"calshare/core/entity"

	"github.com/google/uuid"
)

// RelationshipType is the state of a directed user-to-user edge.
type RelationshipType string

const (
	RelationshipFollowing RelationshipType = "following"
	RelationshipFriend    RelationshipType = "friend"
	RelationshipBlocked   RelationshipType = "blocked"
)

func (t RelationshipType) Valid() bool {
	switch t {
	case RelationshipFollowing, RelationshipFriend, RelationshipBlocked:
		return true
	}
	return false
}

// Live reports whether the edge represents an active social connection.
func (t RelationshipType) Live() bool {
	return t == RelationshipFollowing || t == RelationshipFriend
}

// UUIDList is a JSONB-stored set of label ids attached to an edge.
type UUIDList []uuid.UUID

func (l UUIDList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]uuid.UUID{})
	}
	return json.Marshal(l)
}

func (l *UUIDList) Scan(value any) error {
	if value == nil {
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, l)
}

func (l UUIDList) Contains(id uuid.UUID) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

func (l UUIDList) Remove(id uuid.UUID) UUIDList {
	out := make(UUIDList, 0, len(l))
	for _, v := range l {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// RelationshipEdge is a directed edge between two users. At most one edge
// exists per ordered pair. Labels are only meaningful on edges owned by the
// label owner: they classify which of the owner's contacts a label covers.
type RelationshipEdge struct {
	FromUserID uuid.UUID        `db:"from_user_id" json:"from_user_id"`
	ToUserID   uuid.UUID        `db:"to_user_id" json:"to_user_id"`
	Type       RelationshipType `db:"type" json:"type"`
	Labels     UUIDList         `db:"labels" json:"labels"`
	entity.BaseEntity
}
