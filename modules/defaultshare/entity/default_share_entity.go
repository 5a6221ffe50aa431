package entity

import (
	"calshare/core/entity"
	accessEntity "calshare/modules/access/entity"

	"github.com/google/uuid"
)

// DefaultShare binds a relationship label to an event: a standing rule that
// users carrying the label get DefaultPermission on the event. Membership is
// evaluated when the rule is created or updated, not continuously.
type DefaultShare struct {
	LabelID           uuid.UUID               `db:"label_id" json:"label_id"`
	EventID           uuid.UUID               `db:"event_id" json:"event_id"`
	DefaultPermission accessEntity.Permission `db:"default_permission" json:"default_permission"`
	entity.BaseEntity
}
