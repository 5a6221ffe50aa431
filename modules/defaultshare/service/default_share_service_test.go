package service

import (
	"context"
	"testing"

	"calshare/core/database"
	"calshare/core/errors"
	"calshare/modules/defaultshare/entity"

	accessEntity "calshare/modules/access/entity"
	accessSvc "calshare/modules/access/service"
	labelEntity "calshare/modules/label/entity"
	relEntity "calshare/modules/relationship/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTransaction(ctx context.Context, fn func(tx database.Executor) error) error {
	return fn(nil)
}

type fakeAccessRepo struct {
	edges  []*accessEntity.AccessEdge
	events map[uuid.UUID]bool
	users  map[uuid.UUID]bool
}

func newFakeAccessRepo() *fakeAccessRepo {
	return &fakeAccessRepo{
		events: make(map[uuid.UUID]bool),
		users:  make(map[uuid.UUID]bool),
	}
}

func (r *fakeAccessRepo) find(userID, eventID uuid.UUID) *accessEntity.AccessEdge {
	for _, e := range r.edges {
		if e.UserID == userID && e.EventID == eventID {
			return e
		}
	}
	return nil
}

func (r *fakeAccessRepo) Get(ctx context.Context, userID, eventID uuid.UUID) (*accessEntity.AccessEdge, error) {
	e := r.find(userID, eventID)
	if e == nil {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (r *fakeAccessRepo) GetForUpdate(ctx context.Context, tx database.Executor, userID, eventID uuid.UUID) (*accessEntity.AccessEdge, error) {
	return r.Get(ctx, userID, eventID)
}

func (r *fakeAccessRepo) Insert(ctx context.Context, tx database.Executor, edge *accessEntity.AccessEdge) error {
	edge.ID = uuid.New()
	copied := *edge
	r.edges = append(r.edges, &copied)
	return nil
}

func (r *fakeAccessRepo) Update(ctx context.Context, tx database.Executor, edge *accessEntity.AccessEdge) error {
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

func (r *fakeAccessRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]accessEntity.AccessEdge, error) {
	var out []accessEntity.AccessEdge
	for _, e := range r.edges {
		if e.EventID == eventID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeAccessRepo) ListByLabelForUpdate(ctx context.Context, tx database.Executor, labelID uuid.UUID) ([]accessEntity.AccessEdge, error) {
	var out []accessEntity.AccessEdge
	for _, e := range r.edges {
		if e.Reasons.Has(accessEntity.LabelReason(labelID, accessEntity.PermissionView)) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeAccessRepo) ListByLabelAndEventForUpdate(ctx context.Context, tx database.Executor, labelID, eventID uuid.UUID) ([]accessEntity.AccessEdge, error) {
	var out []accessEntity.AccessEdge
	for _, e := range r.edges {
		if e.EventID == eventID && e.Reasons.Has(accessEntity.LabelReason(labelID, accessEntity.PermissionView)) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeAccessRepo) DeleteByEvent(ctx context.Context, tx database.Executor, eventID uuid.UUID) error {
	var kept []*accessEntity.AccessEdge
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

type fakeLabelRepo struct {
	labels map[uuid.UUID]*labelEntity.RelationshipLabel
}

func (r *fakeLabelRepo) Insert(ctx context.Context, label *labelEntity.RelationshipLabel) error {
	label.ID = uuid.New()
	r.labels[label.ID] = label
	return nil
}

func (r *fakeLabelRepo) GetByID(ctx context.Context, id uuid.UUID) (*labelEntity.RelationshipLabel, error) {
	return r.labels[id], nil
}

func (r *fakeLabelRepo) GetByIDForUpdate(ctx context.Context, tx database.Executor, id uuid.UUID) (*labelEntity.RelationshipLabel, error) {
	return r.labels[id], nil
}

func (r *fakeLabelRepo) Update(ctx context.Context, label *labelEntity.RelationshipLabel) error {
	r.labels[label.ID] = label
	return nil
}

func (r *fakeLabelRepo) Delete(ctx context.Context, tx database.Executor, id uuid.UUID) error {
	delete(r.labels, id)
	return nil
}

func (r *fakeLabelRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]labelEntity.RelationshipLabel, error) {
	var out []labelEntity.RelationshipLabel
	for _, l := range r.labels {
		if l.OwnerID == ownerID {
			out = append(out, *l)
		}
	}
	return out, nil
}

type fakeRelationshipRepo struct {
	edges []*relEntity.RelationshipEdge
}

func (r *fakeRelationshipRepo) addMember(ownerID, memberID, labelID uuid.UUID) {
	edge := &relEntity.RelationshipEdge{
		FromUserID: ownerID,
		ToUserID:   memberID,
		Type:       relEntity.RelationshipFollowing,
		Labels:     relEntity.UUIDList{labelID},
	}
	edge.ID = uuid.New()
	r.edges = append(r.edges, edge)
}

func (r *fakeRelationshipRepo) Get(ctx context.Context, fromUserID, toUserID uuid.UUID) (*relEntity.RelationshipEdge, error) {
	return nil, nil
}

func (r *fakeRelationshipRepo) GetForUpdate(ctx context.Context, tx database.Executor, fromUserID, toUserID uuid.UUID) (*relEntity.RelationshipEdge, error) {
	return nil, nil
}

func (r *fakeRelationshipRepo) Insert(ctx context.Context, tx database.Executor, edge *relEntity.RelationshipEdge) error {
	edge.ID = uuid.New()
	r.edges = append(r.edges, edge)
	return nil
}

func (r *fakeRelationshipRepo) Update(ctx context.Context, tx database.Executor, edge *relEntity.RelationshipEdge) error {
	return nil
}

func (r *fakeRelationshipRepo) Delete(ctx context.Context, tx database.Executor, id uuid.UUID) error {
	return nil
}

func (r *fakeRelationshipRepo) ListByType(ctx context.Context, fromUserID uuid.UUID, relType relEntity.RelationshipType) ([]relEntity.RelationshipEdge, error) {
	return nil, nil
}

func (r *fakeRelationshipRepo) ListFollowers(ctx context.Context, toUserID uuid.UUID) ([]relEntity.RelationshipEdge, error) {
	return nil, nil
}

func (r *fakeRelationshipRepo) ListLabelMembers(ctx context.Context, q database.Executor, ownerID, labelID uuid.UUID) ([]uuid.UUID, error) {
	var members []uuid.UUID
	for _, e := range r.edges {
		if e.FromUserID == ownerID && e.Type.Live() && e.Labels.Contains(labelID) {
			members = append(members, e.ToUserID)
		}
	}
	return members, nil
}

func (r *fakeRelationshipRepo) StripLabel(ctx context.Context, tx database.Executor, labelID uuid.UUID) error {
	for _, e := range r.edges {
		e.Labels = e.Labels.Remove(labelID)
	}
	return nil
}

func (r *fakeRelationshipRepo) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	return true, nil
}

type fakeShareRepo struct {
	shares []*entity.DefaultShare
}

func (r *fakeShareRepo) find(labelID, eventID uuid.UUID) *entity.DefaultShare {
	for _, s := range r.shares {
		if s.LabelID == labelID && s.EventID == eventID {
			return s
		}
	}
	return nil
}

func (r *fakeShareRepo) Get(ctx context.Context, labelID, eventID uuid.UUID) (*entity.DefaultShare, error) {
	s := r.find(labelID, eventID)
	if s == nil {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *fakeShareRepo) GetForUpdate(ctx context.Context, tx database.Executor, labelID, eventID uuid.UUID) (*entity.DefaultShare, error) {
	return r.Get(ctx, labelID, eventID)
}

func (r *fakeShareRepo) Insert(ctx context.Context, tx database.Executor, share *entity.DefaultShare) error {
	share.ID = uuid.New()
	copied := *share
	r.shares = append(r.shares, &copied)
	return nil
}

func (r *fakeShareRepo) UpdatePermission(ctx context.Context, tx database.Executor, share *entity.DefaultShare) error {
	for i, s := range r.shares {
		if s.ID == share.ID {
			copied := *share
			r.shares[i] = &copied
			return nil
		}
	}
	return nil
}

func (r *fakeShareRepo) Delete(ctx context.Context, tx database.Executor, id uuid.UUID) error {
	for i, s := range r.shares {
		if s.ID == id {
			r.shares = append(r.shares[:i], r.shares[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeShareRepo) ListByLabel(ctx context.Context, labelID uuid.UUID) ([]entity.DefaultShare, error) {
	var out []entity.DefaultShare
	for _, s := range r.shares {
		if s.LabelID == labelID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeShareRepo) DeleteByLabel(ctx context.Context, tx database.Executor, labelID uuid.UUID) error {
	var kept []*entity.DefaultShare
	for _, s := range r.shares {
		if s.LabelID != labelID {
			kept = append(kept, s)
		}
	}
	r.shares = kept
	return nil
}

func (r *fakeShareRepo) DeleteByEvent(ctx context.Context, tx database.Executor, eventID uuid.UUID) error {
	var kept []*entity.DefaultShare
	for _, s := range r.shares {
		if s.EventID != eventID {
			kept = append(kept, s)
		}
	}
	r.shares = kept
	return nil
}

type testEnv struct {
	svc        *DefaultShareService
	accessRepo *fakeAccessRepo
	shareRepo  *fakeShareRepo
	relRepo    *fakeRelationshipRepo
	labels     *fakeLabelRepo
	ownerID    uuid.UUID
	eventID    uuid.UUID
	labelID    uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	accessRepo := newFakeAccessRepo()
	shareRepo := &fakeShareRepo{}
	relRepo := &fakeRelationshipRepo{}
	labels := &fakeLabelRepo{labels: make(map[uuid.UUID]*labelEntity.RelationshipLabel)}

	access := accessSvc.NewAccessService(fakeTxRunner{}, accessRepo, nil)
	svc := NewDefaultShareService(fakeTxRunner{}, shareRepo, labels, relRepo, access)

	ownerID, eventID := uuid.New(), uuid.New()
	accessRepo.events[eventID] = true

	label := &labelEntity.RelationshipLabel{OwnerID: ownerID, Name: "family", Slug: "family"}
	require.NoError(t, labels.Insert(context.Background(), label))

	_, appErr := access.Grant(context.Background(), nil, ownerID, eventID, accessEntity.OwnerReason())
	require.Nil(t, appErr)

	return &testEnv{
		svc:        svc,
		accessRepo: accessRepo,
		shareRepo:  shareRepo,
		relRepo:    relRepo,
		labels:     labels,
		ownerID:    ownerID,
		eventID:    eventID,
		labelID:    label.ID,
	}
}

func TestCreatePropagatesToCurrentMembers(t *testing.T) {
	env := newTestEnv(t)
	memberA, memberB := uuid.New(), uuid.New()
	env.relRepo.addMember(env.ownerID, memberA, env.labelID)
	env.relRepo.addMember(env.ownerID, memberB, env.labelID)

	share, granted, appErr := env.svc.Create(context.Background(), env.ownerID, env.labelID, env.eventID, "edit")
	require.Nil(t, appErr)
	require.NotNil(t, share)
	assert.Equal(t, accessEntity.PermissionEdit, share.DefaultPermission)
	assert.Len(t, granted, 2)

	for _, memberID := range []uuid.UUID{memberA, memberB} {
		edge := env.accessRepo.find(memberID, env.eventID)
		require.NotNil(t, edge)
		assert.Equal(t, accessEntity.PermissionEdit, edge.Permission)
		require.Len(t, edge.Reasons, 1)
		assert.Equal(t, accessEntity.ReasonKindLabel, edge.Reasons[0].Kind)
	}
}

func TestCreateIsNotRetroactive(t *testing.T) {
	env := newTestEnv(t)
	early := uuid.New()
	env.relRepo.addMember(env.ownerID, early, env.labelID)

	_, granted, appErr := env.svc.Create(context.Background(), env.ownerID, env.labelID, env.eventID, "view")
	require.Nil(t, appErr)
	assert.Len(t, granted, 1)

	late := uuid.New()
	env.relRepo.addMember(env.ownerID, late, env.labelID)

	assert.NotNil(t, env.accessRepo.find(early, env.eventID))
	assert.Nil(t, env.accessRepo.find(late, env.eventID))
}

func TestCreateLeavesOwnerEdgeUntouched(t *testing.T) {
	env := newTestEnv(t)
	adminID := uuid.New()

	access := accessSvc.NewAccessService(fakeTxRunner{}, env.accessRepo, nil)
	_, appErr := access.Grant(context.Background(), nil, adminID, env.eventID, accessEntity.DirectInviteReason(accessEntity.PermissionAdmin))
	require.Nil(t, appErr)

	adminLabel := &labelEntity.RelationshipLabel{OwnerID: adminID, Name: "hosts", Slug: "hosts"}
	require.NoError(t, env.labels.Insert(context.Background(), adminLabel))
	env.relRepo.addMember(adminID, env.ownerID, adminLabel.ID)

	_, _, appErr = env.svc.Create(context.Background(), adminID, adminLabel.ID, env.eventID, "view")
	require.Nil(t, appErr)

	edge := env.accessRepo.find(env.ownerID, env.eventID)
	require.NotNil(t, edge)
	assert.Equal(t, accessEntity.PermissionOwner, edge.Permission)
	require.Len(t, edge.Reasons, 1)
	assert.Equal(t, accessEntity.ReasonKindOwner, edge.Reasons[0].Kind)
}

func TestCreateRejectsOwnerPermission(t *testing.T) {
	env := newTestEnv(t)

	_, _, appErr := env.svc.Create(context.Background(), env.ownerID, env.labelID, env.eventID, "owner")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidOperation, appErr.Code)
}

func TestCreateRejectsUnknownPermission(t *testing.T) {
	env := newTestEnv(t)

	_, _, appErr := env.svc.Create(context.Background(), env.ownerID, env.labelID, env.eventID, "superuser")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
}

func TestCreateRequiresLabelOwnership(t *testing.T) {
	env := newTestEnv(t)
	stranger := uuid.New()

	_, _, appErr := env.svc.Create(context.Background(), stranger, env.labelID, env.eventID, "view")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)
}

func TestCreateDuplicateIsRejected(t *testing.T) {
	env := newTestEnv(t)

	_, _, appErr := env.svc.Create(context.Background(), env.ownerID, env.labelID, env.eventID, "view")
	require.Nil(t, appErr)

	_, _, appErr = env.svc.Create(context.Background(), env.ownerID, env.labelID, env.eventID, "edit")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrAlreadyExists, appErr.Code)
}

func TestUpdateReappliesPermissionToLabelEdges(t *testing.T) {
	env := newTestEnv(t)
	memberID := uuid.New()
	env.relRepo.addMember(env.ownerID, memberID, env.labelID)

	_, _, appErr := env.svc.Create(context.Background(), env.ownerID, env.labelID, env.eventID, "view")
	require.Nil(t, appErr)

	share, appErr := env.svc.Update(context.Background(), env.ownerID, env.labelID, env.eventID, "admin")
	require.Nil(t, appErr)
	assert.Equal(t, accessEntity.PermissionAdmin, share.DefaultPermission)

	edge := env.accessRepo.find(memberID, env.eventID)
	require.NotNil(t, edge)
	assert.Equal(t, accessEntity.PermissionAdmin, edge.Permission)
}

func TestUpdateMissingShareIsNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, appErr := env.svc.Update(context.Background(), env.ownerID, env.labelID, env.eventID, "view")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}

func TestDeleteRevokesLabelAccess(t *testing.T) {
	env := newTestEnv(t)
	soloID, mixedID := uuid.New(), uuid.New()
	env.relRepo.addMember(env.ownerID, soloID, env.labelID)
	env.relRepo.addMember(env.ownerID, mixedID, env.labelID)

	access := accessSvc.NewAccessService(fakeTxRunner{}, env.accessRepo, nil)
	_, appErr := access.Grant(context.Background(), nil, mixedID, env.eventID, accessEntity.DirectInviteReason(accessEntity.PermissionEdit))
	require.Nil(t, appErr)

	_, _, appErr = env.svc.Create(context.Background(), env.ownerID, env.labelID, env.eventID, "view")
	require.Nil(t, appErr)

	appErr = env.svc.Delete(context.Background(), env.ownerID, env.labelID, env.eventID)
	require.Nil(t, appErr)

	assert.Nil(t, env.shareRepo.find(env.labelID, env.eventID))
	assert.Nil(t, env.accessRepo.find(soloID, env.eventID))

	mixed := env.accessRepo.find(mixedID, env.eventID)
	require.NotNil(t, mixed)
	assert.Equal(t, accessEntity.PermissionEdit, mixed.Permission)
	require.Len(t, mixed.Reasons, 1)
	assert.Equal(t, accessEntity.ReasonKindDirectInvite, mixed.Reasons[0].Kind)
}

func TestListByLabelRequiresOwnership(t *testing.T) {
	env := newTestEnv(t)

	_, appErr := env.svc.ListByLabel(context.Background(), uuid.New(), env.labelID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)
}
