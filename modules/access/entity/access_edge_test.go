package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPermissionOrdering(t *testing.T) {
	assert.True(t, PermissionOwner.AtLeast(PermissionAdmin))
	assert.True(t, PermissionAdmin.AtLeast(PermissionEdit))
	assert.True(t, PermissionEdit.AtLeast(PermissionView))
	assert.True(t, PermissionView.AtLeast(PermissionView))
	assert.False(t, PermissionView.AtLeast(PermissionEdit))
	assert.False(t, PermissionEdit.AtLeast(PermissionOwner))
}

func TestParsePermission(t *testing.T) {
	p, ok := ParsePermission("edit")
	assert.True(t, ok)
	assert.Equal(t, PermissionEdit, p)

	_, ok = ParsePermission("superuser")
	assert.False(t, ok)

	_, ok = ParsePermission("")
	assert.False(t, ok)
}

func TestReasonMatchesIgnoresPermissionSnapshot(t *testing.T) {
	labelID := uuid.New()
	assert.True(t, LabelReason(labelID, PermissionView).Matches(LabelReason(labelID, PermissionAdmin)))
	assert.False(t, LabelReason(labelID, PermissionView).Matches(LabelReason(uuid.New(), PermissionView)))
	assert.True(t, DirectInviteReason(PermissionView).Matches(DirectInviteReason(PermissionEdit)))
	assert.False(t, DirectInviteReason(PermissionView).Matches(OwnerReason()))
}

func TestReasonsMaxPermission(t *testing.T) {
	labelID := uuid.New()

	reasons := Reasons{LabelReason(labelID, PermissionView)}
	assert.Equal(t, PermissionView, reasons.MaxPermission())

	reasons = append(reasons, DirectInviteReason(PermissionAdmin))
	assert.Equal(t, PermissionAdmin, reasons.MaxPermission())

	reasons = append(reasons, OwnerReason())
	assert.Equal(t, PermissionOwner, reasons.MaxPermission())
}

func TestReasonsIndexAndHas(t *testing.T) {
	labelID := uuid.New()
	reasons := Reasons{OwnerReason(), LabelReason(labelID, PermissionView)}

	assert.Equal(t, 1, reasons.Index(LabelReason(labelID, PermissionAdmin)))
	assert.Equal(t, -1, reasons.Index(DirectInviteReason(PermissionView)))
	assert.True(t, reasons.Has(OwnerReason()))
	assert.True(t, reasons.HasKind(ReasonKindOwner))
	assert.False(t, reasons.HasKind(ReasonKindDirectInvite))
}
