package service

import (
	"context"
	"testing"

	"calshare/core/database"
	"calshare/core/errors"
	"calshare/modules/access/dto"
	"calshare/modules/access/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTransaction(ctx context.Context, fn func(tx database.Executor) error) error {
	return fn(nil)
}

type fakeAccessRepo struct {
	edges  []*entity.AccessEdge
	events map[uuid.UUID]bool
	users  map[uuid.UUID]bool
}

func newFakeAccessRepo() *fakeAccessRepo {
	return &fakeAccessRepo{
		events: make(map[uuid.UUID]bool),
		users:  make(map[uuid.UUID]bool),
	}
}

func (r *fakeAccessRepo) find(userID, eventID uuid.UUID) *entity.AccessEdge {
	for _, e := range r.edges {
		if e.UserID == userID && e.EventID == eventID {
			return e
		}
	}
	return nil
}

func (r *fakeAccessRepo) Get(ctx context.Context, userID, eventID uuid.UUID) (*entity.AccessEdge, error) {
	e := r.find(userID, eventID)
	if e == nil {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (r *fakeAccessRepo) GetForUpdate(ctx context.Context, tx database.Executor, userID, eventID uuid.UUID) (*entity.AccessEdge, error) {
	return r.Get(ctx, userID, eventID)
}

func (r *fakeAccessRepo) Insert(ctx context.Context, tx database.Executor, edge *entity.AccessEdge) error {
	edge.ID = uuid.New()
	copied := *edge
	r.edges = append(r.edges, &copied)
	return nil
}

func (r *fakeAccessRepo) Update(ctx context.Context, tx database.Executor, edge *entity.AccessEdge) error {
	for i, e := range r.edges {
		if e.ID == edge.ID {
			copied := *edge
			r.edges[i] = &copied
			return nil
		}
	}
	return nil
}

func (r *fakeAccessRepo) Delete(ctx context.Context, tx database.Executor, id uuid.UUID) error {
	for i, e := range r.edges {
		if e.ID == id {
			r.edges = append(r.edges[:i], r.edges[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeAccessRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]entity.AccessEdge, error) {
	var out []entity.AccessEdge
	for _, e := range r.edges {
		if e.EventID == eventID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeAccessRepo) hasLabelReason(e *entity.AccessEdge, labelID uuid.UUID) bool {
	return e.Reasons.Has(entity.LabelReason(labelID, entity.PermissionView))
}

func (r *fakeAccessRepo) ListByLabelForUpdate(ctx context.Context, tx database.Executor, labelID uuid.UUID) ([]entity.AccessEdge, error) {
	var out []entity.AccessEdge
	for _, e := range r.edges {
		if r.hasLabelReason(e, labelID) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeAccessRepo) ListByLabelAndEventForUpdate(ctx context.Context, tx database.Executor, labelID, eventID uuid.UUID) ([]entity.AccessEdge, error) {
	var out []entity.AccessEdge
	for _, e := range r.edges {
		if e.EventID == eventID && r.hasLabelReason(e, labelID) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeAccessRepo) DeleteByEvent(ctx context.Context, tx database.Executor, eventID uuid.UUID) error {
	var kept []*entity.AccessEdge
	for _, e := range r.edges {
		if e.EventID != eventID {
			kept = append(kept, e)
		}
	}
	r.edges = kept
	return nil
}

func (r *fakeAccessRepo) EventExists(ctx context.Context, eventID uuid.UUID) (bool, error) {
	return r.events[eventID], nil
}

func (r *fakeAccessRepo) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	return r.users[userID], nil
}

func newTestService(repo *fakeAccessRepo) *AccessService {
	return NewAccessService(fakeTxRunner{}, repo, nil)
}

func TestGrantCreatesEdge(t *testing.T) {
	repo := newFakeAccessRepo()
	svc := newTestService(repo)
	userID, eventID := uuid.New(), uuid.New()

	edge, appErr := svc.Grant(context.Background(), nil, userID, eventID, entity.DirectInviteReason(entity.PermissionEdit))
	require.Nil(t, appErr)
	require.NotNil(t, edge)
	assert.Equal(t, entity.PermissionEdit, edge.Permission)
	assert.Len(t, edge.Reasons, 1)
	assert.NotNil(t, repo.find(userID, eventID))
}

func TestGrantLowerReasonNeverDowngrades(t *testing.T) {
	repo := newFakeAccessRepo()
	svc := newTestService(repo)
	userID, eventID, labelID := uuid.New(), uuid.New(), uuid.New()

	_, appErr := svc.Grant(context.Background(), nil, userID, eventID, entity.DirectInviteReason(entity.PermissionAdmin))
	require.Nil(t, appErr)

	edge, appErr := svc.Grant(context.Background(), nil, userID, eventID, entity.LabelReason(labelID, entity.PermissionView))
	require.Nil(t, appErr)
	assert.Equal(t, entity.PermissionAdmin, edge.Permission)
	assert.Len(t, edge.Reasons, 2)
}

func TestGrantRefreshesExistingReasonSnapshot(t *testing.T) {
	repo := newFakeAccessRepo()
	svc := newTestService(repo)
	userID, eventID := uuid.New(), uuid.New()

	_, appErr := svc.Grant(context.Background(), nil, userID, eventID, entity.DirectInviteReason(entity.PermissionView))
	require.Nil(t, appErr)

	edge, appErr := svc.Grant(context.Background(), nil, userID, eventID, entity.DirectInviteReason(entity.PermissionEdit))
	require.Nil(t, appErr)
	assert.Len(t, edge.Reasons, 1)
	assert.Equal(t, entity.PermissionEdit, edge.Permission)
}

func TestGrantIsNoOpOnOwnerEdge(t *testing.T) {
	repo := newFakeAccessRepo()
	svc := newTestService(repo)
	ownerID, eventID, labelID := uuid.New(), uuid.New(), uuid.New()

	_, appErr := svc.Grant(context.Background(), nil, ownerID, eventID, entity.OwnerReason())
	require.Nil(t, appErr)

	edge, appErr := svc.Grant(context.Background(), nil, ownerID, eventID, entity.LabelReason(labelID, entity.PermissionView))
	require.Nil(t, appErr)
	assert.Equal(t, entity.PermissionOwner, edge.Permission)
	require.Len(t, edge.Reasons, 1)
	assert.Equal(t, entity.ReasonKindOwner, edge.Reasons[0].Kind)

	stored := repo.find(ownerID, eventID)
	require.NotNil(t, stored)
	assert.Len(t, stored.Reasons, 1)
}

func TestRevokeOwnerIsRejected(t *testing.T) {
	repo := newFakeAccessRepo()
	svc := newTestService(repo)

	appErr := svc.Revoke(context.Background(), nil, uuid.New(), uuid.New(), entity.OwnerReason())
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidOperation, appErr.Code)
}

func TestRevokeLastReasonDeletesEdge(t *testing.T) {
	repo := newFakeAccessRepo()
	svc := newTestService(repo)
	userID, eventID := uuid.New(), uuid.New()

	_, appErr := svc.Grant(context.Background(), nil, userID, eventID, entity.DirectInviteReason(entity.PermissionView))
	require.Nil(t, appErr)

	appErr = svc.Revoke(context.Background(), nil, userID, eventID, entity.DirectInviteReason(entity.PermissionView))
	require.Nil(t, appErr)
	assert.Nil(t, repo.find(userID, eventID))
}

func TestRevokeRecomputesPermissionFromRemainingReasons(t *testing.T) {
	repo := newFakeAccessRepo()
	svc := newTestService(repo)
	userID, eventID, labelID := uuid.New(), uuid.New(), uuid.New()

	_, appErr := svc.Grant(context.Background(), nil, userID, eventID, entity.DirectInviteReason(entity.PermissionAdmin))
	require.Nil(t, appErr)
	_, appErr = svc.Grant(context.Background(), nil, userID, eventID, entity.LabelReason(labelID, entity.PermissionView))
	require.Nil(t, appErr)

	appErr = svc.Revoke(context.Background(), nil, userID, eventID, entity.DirectInviteReason(entity.PermissionAdmin))
	require.Nil(t, appErr)

	edge := repo.find(userID, eventID)
	require.NotNil(t, edge)
	assert.Equal(t, entity.PermissionView, edge.Permission)
	assert.Len(t, edge.Reasons, 1)
}

func TestRevokeMissingReasonIsNotFound(t *testing.T) {
	repo := newFakeAccessRepo()
	svc := newTestService(repo)
	userID, eventID := uuid.New(), uuid.New()

	_, appErr := svc.Grant(context.Background(), nil, userID, eventID, entity.LabelReason(uuid.New(), entity.PermissionView))
	require.Nil(t, appErr)

	appErr = svc.Revoke(context.Background(), nil, userID, eventID, entity.DirectInviteReason(entity.PermissionView))
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}

func TestAuthorizeDistinguishesMissingEventFromMissingAccess(t *testing.T) {
	repo := newFakeAccessRepo()
	svc := newTestService(repo)
	callerID, eventID := uuid.New(), uuid.New()

	appErr := svc.Authorize(context.Background(), callerID, eventID, entity.PermissionView)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)

	repo.events[eventID] = true
	appErr = svc.Authorize(context.Background(), callerID, eventID, entity.PermissionView)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)
}

func TestAuthorizeChecksMinimumPermission(t *testing.T) {
	repo := newFakeAccessRepo()
	svc := newTestService(repo)
	callerID, eventID := uuid.New(), uuid.New()
	repo.events[eventID] = true

	_, appErr := svc.Grant(context.Background(), nil, callerID, eventID, entity.DirectInviteReason(entity.PermissionEdit))
	require.Nil(t, appErr)

	assert.Nil(t, svc.Authorize(context.Background(), callerID, eventID, entity.PermissionView))
	assert.Nil(t, svc.Authorize(context.Background(), callerID, eventID, entity.PermissionEdit))

	appErr = svc.Authorize(context.Background(), callerID, eventID, entity.PermissionAdmin)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)
}

func TestShareEventRejectsOwnerPermission(t *testing.T) {
	repo := newFakeAccessRepo()
	svc := newTestService(repo)
	callerID, eventID := uuid.New(), uuid.New()
	repo.events[eventID] = true

	req := &dto.ShareEventRequest{Shares: []dto.ShareEntry{{UserID: uuid.New(), Permission: "owner"}}}
	_, appErr := svc.ShareEvent(context.Background(), callerID, eventID, req)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidOperation, appErr.Code)
}

func TestShareEventRefusesToTouchOwnerEdge(t *testing.T) {
	repo := newFakeAccessRepo()
	svc := newTestService(repo)
	ownerID, adminID, eventID := uuid.New(), uuid.New(), uuid.New()
	repo.events[eventID] = true
	repo.users[ownerID] = true

	_, appErr := svc.Grant(context.Background(), nil, ownerID, eventID, entity.OwnerReason())
	require.Nil(t, appErr)
	_, appErr = svc.Grant(context.Background(), nil, adminID, eventID, entity.DirectInviteReason(entity.PermissionAdmin))
	require.Nil(t, appErr)

	req := &dto.ShareEventRequest{Shares: []dto.ShareEntry{{UserID: ownerID, Permission: "view"}}}
	_, appErr = svc.ShareEvent(context.Background(), adminID, eventID, req)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidOperation, appErr.Code)
}

func TestUnshareEventKeepsEdgeWithOtherReasons(t *testing.T) {
	repo := newFakeAccessRepo()
	svc := newTestService(repo)
	ownerID, targetID, eventID, labelID := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	repo.events[eventID] = true
	repo.users[targetID] = true

	_, appErr := svc.Grant(context.Background(), nil, ownerID, eventID, entity.OwnerReason())
	require.Nil(t, appErr)
	_, appErr = svc.Grant(context.Background(), nil, targetID, eventID, entity.DirectInviteReason(entity.PermissionEdit))
	require.Nil(t, appErr)
	_, appErr = svc.Grant(context.Background(), nil, targetID, eventID, entity.LabelReason(labelID, entity.PermissionView))
	require.Nil(t, appErr)

	appErr = svc.UnshareEvent(context.Background(), ownerID, eventID, &dto.UnshareEventRequest{UserIDs: []uuid.UUID{targetID}})
	require.Nil(t, appErr)

	edge := repo.find(targetID, eventID)
	require.NotNil(t, edge)
	assert.Equal(t, entity.PermissionView, edge.Permission)
	assert.Len(t, edge.Reasons, 1)
	assert.Equal(t, entity.ReasonKindLabel, edge.Reasons[0].Kind)
}

func TestRevokeLabelForEventDeletesSoleReasonEdges(t *testing.T) {
	repo := newFakeAccessRepo()
	svc := newTestService(repo)
	soloID, mixedID, eventID, labelID := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	_, appErr := svc.Grant(context.Background(), nil, soloID, eventID, entity.LabelReason(labelID, entity.PermissionView))
	require.Nil(t, appErr)
	_, appErr = svc.Grant(context.Background(), nil, mixedID, eventID, entity.LabelReason(labelID, entity.PermissionView))
	require.Nil(t, appErr)
	_, appErr = svc.Grant(context.Background(), nil, mixedID, eventID, entity.DirectInviteReason(entity.PermissionEdit))
	require.Nil(t, appErr)

	appErr = svc.RevokeLabelForEvent(context.Background(), nil, labelID, eventID)
	require.Nil(t, appErr)

	assert.Nil(t, repo.find(soloID, eventID))
	mixed := repo.find(mixedID, eventID)
	require.NotNil(t, mixed)
	assert.Equal(t, entity.PermissionEdit, mixed.Permission)
	assert.Len(t, mixed.Reasons, 1)
}

func TestReapplyLabelPermissionRecomputesEdges(t *testing.T) {
	repo := newFakeAccessRepo()
	svc := newTestService(repo)
	userID, eventID, labelID := uuid.New(), uuid.New(), uuid.New()

	_, appErr := svc.Grant(context.Background(), nil, userID, eventID, entity.LabelReason(labelID, entity.PermissionView))
	require.Nil(t, appErr)

	appErr = svc.ReapplyLabelPermission(context.Background(), nil, labelID, eventID, entity.PermissionAdmin)
	require.Nil(t, appErr)

	edge := repo.find(userID, eventID)
	require.NotNil(t, edge)
	assert.Equal(t, entity.PermissionAdmin, edge.Permission)
}
