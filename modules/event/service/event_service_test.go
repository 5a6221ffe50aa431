package service

import (
	"context"
	"testing"
	"time"

	"calshare/core/database"
	"calshare/core/errors"
	"calshare/modules/event/dto"
	"calshare/modules/event/entity"

	accessEntity "calshare/modules/access/entity"
	accessSvc "calshare/modules/access/service"
	dsEntity "calshare/modules/defaultshare/entity"

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
	return nil, nil
}

func (r *fakeAccessRepo) ListByLabelAndEventForUpdate(ctx context.Context, tx database.Executor, labelID, eventID uuid.UUID) ([]accessEntity.AccessEdge, error) {
	return nil, nil
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

// fakeEventRepo mirrors inserts and deletes into the access repo's event set
// so authorization sees the same world as storage.
type fakeEventRepo struct {
	events map[uuid.UUID]*entity.Event
	access *fakeAccessRepo
}

func newFakeEventRepo(access *fakeAccessRepo) *fakeEventRepo {
	return &fakeEventRepo{
		events: make(map[uuid.UUID]*entity.Event),
		access: access,
	}
}

func (r *fakeEventRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	e, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (r *fakeEventRepo) Insert(ctx context.Context, tx database.Executor, event *entity.Event) error {
	event.ID = uuid.New()
	copied := *event
	r.events[event.ID] = &copied
	r.access.events[event.ID] = true
	return nil
}

func (r *fakeEventRepo) Update(ctx context.Context, tx database.Executor, event *entity.Event) error {
	copied := *event
	r.events[event.ID] = &copied
	return nil
}

func (r *fakeEventRepo) Delete(ctx context.Context, tx database.Executor, id uuid.UUID) error {
	delete(r.events, id)
	delete(r.access.events, id)
	return nil
}

func (r *fakeEventRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.Event, error) {
	var out []entity.Event
	for _, e := range r.events {
		if e.OwnerID == ownerID {
			out = append(out, *e)
		}
	}
	return out, nil
}

type fakeShareRepo struct {
	shares []*dsEntity.DefaultShare
}

func (r *fakeShareRepo) add(labelID, eventID uuid.UUID) {
	share := &dsEntity.DefaultShare{
		LabelID:           labelID,
		EventID:           eventID,
		DefaultPermission: accessEntity.PermissionView,
	}
	share.ID = uuid.New()
	r.shares = append(r.shares, share)
}

func (r *fakeShareRepo) Get(ctx context.Context, labelID, eventID uuid.UUID) (*dsEntity.DefaultShare, error) {
	return nil, nil
}

func (r *fakeShareRepo) GetForUpdate(ctx context.Context, tx database.Executor, labelID, eventID uuid.UUID) (*dsEntity.DefaultShare, error) {
	return nil, nil
}

func (r *fakeShareRepo) Insert(ctx context.Context, tx database.Executor, share *dsEntity.DefaultShare) error {
	return nil
}

func (r *fakeShareRepo) UpdatePermission(ctx context.Context, tx database.Executor, share *dsEntity.DefaultShare) error {
	return nil
}

func (r *fakeShareRepo) Delete(ctx context.Context, tx database.Executor, id uuid.UUID) error {
	return nil
}

func (r *fakeShareRepo) ListByLabel(ctx context.Context, labelID uuid.UUID) ([]dsEntity.DefaultShare, error) {
	return nil, nil
}

func (r *fakeShareRepo) DeleteByLabel(ctx context.Context, tx database.Executor, labelID uuid.UUID) error {
	return nil
}

func (r *fakeShareRepo) DeleteByEvent(ctx context.Context, tx database.Executor, eventID uuid.UUID) error {
	var kept []*dsEntity.DefaultShare
	for _, s := range r.shares {
		if s.EventID != eventID {
			kept = append(kept, s)
		}
	}
	r.shares = kept
	return nil
}

type eventTestEnv struct {
	svc        *EventService
	eventRepo  *fakeEventRepo
	accessRepo *fakeAccessRepo
	shareRepo  *fakeShareRepo
	access     *accessSvc.AccessService
}

func newEventTestEnv() *eventTestEnv {
	accessRepo := newFakeAccessRepo()
	eventRepo := newFakeEventRepo(accessRepo)
	shareRepo := &fakeShareRepo{}
	access := accessSvc.NewAccessService(fakeTxRunner{}, accessRepo, nil)

	return &eventTestEnv{
		svc:        NewEventService(fakeTxRunner{}, eventRepo, accessRepo, shareRepo, access),
		eventRepo:  eventRepo,
		accessRepo: accessRepo,
		shareRepo:  shareRepo,
		access:     access,
	}
}

func validCreateRequest() *dto.CreateEventRequest {
	start := time.Now().Add(time.Hour)
	return &dto.CreateEventRequest{
		Title:     "Team lunch",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}
}

func TestCreateGrantsOwnerAccess(t *testing.T) {
	env := newEventTestEnv()
	ownerID := uuid.New()

	event, appErr := env.svc.Create(context.Background(), ownerID, validCreateRequest())
	require.Nil(t, appErr)
	require.NotNil(t, event)

	edge := env.accessRepo.find(ownerID, event.ID)
	require.NotNil(t, edge)
	assert.Equal(t, accessEntity.PermissionOwner, edge.Permission)
	require.Len(t, edge.Reasons, 1)
	assert.Equal(t, accessEntity.ReasonKindOwner, edge.Reasons[0].Kind)
}

func TestCreateValidatesTimes(t *testing.T) {
	env := newEventTestEnv()
	start := time.Now()

	cases := []struct {
		name string
		req  *dto.CreateEventRequest
	}{
		{"missing title", &dto.CreateEventRequest{Title: "  ", StartTime: start, EndTime: start.Add(time.Hour)}},
		{"missing times", &dto.CreateEventRequest{Title: "Lunch"}},
		{"start equals end", &dto.CreateEventRequest{Title: "Lunch", StartTime: start, EndTime: start}},
		{"start after end", &dto.CreateEventRequest{Title: "Lunch", StartTime: start.Add(time.Hour), EndTime: start}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, appErr := env.svc.Create(context.Background(), uuid.New(), tc.req)
			require.NotNil(t, appErr)
			assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
		})
	}
}

func TestGetByIDRequiresViewAccess(t *testing.T) {
	env := newEventTestEnv()
	ownerID, stranger := uuid.New(), uuid.New()

	event, appErr := env.svc.Create(context.Background(), ownerID, validCreateRequest())
	require.Nil(t, appErr)

	got, appErr := env.svc.GetByID(context.Background(), ownerID, event.ID)
	require.Nil(t, appErr)
	assert.Equal(t, event.ID, got.ID)

	_, appErr = env.svc.GetByID(context.Background(), stranger, event.ID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)
}

func TestGetByIDMissingEventIsNotFound(t *testing.T) {
	env := newEventTestEnv()

	_, appErr := env.svc.GetByID(context.Background(), uuid.New(), uuid.New())
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}

func TestUpdateRequiresAdminAccess(t *testing.T) {
	env := newEventTestEnv()
	ownerID, viewerID := uuid.New(), uuid.New()

	event, appErr := env.svc.Create(context.Background(), ownerID, validCreateRequest())
	require.Nil(t, appErr)

	_, appErr = env.access.Grant(context.Background(), nil, viewerID, event.ID, accessEntity.DirectInviteReason(accessEntity.PermissionView))
	require.Nil(t, appErr)

	req := &dto.UpdateEventRequest{
		Title:     "Moved lunch",
		StartTime: event.StartTime,
		EndTime:   event.EndTime,
	}
	_, appErr = env.svc.Update(context.Background(), viewerID, event.ID, req)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)

	updated, appErr := env.svc.Update(context.Background(), ownerID, event.ID, req)
	require.Nil(t, appErr)
	assert.Equal(t, "Moved lunch", updated.Title)
}

func TestDeleteIsOwnerOnly(t *testing.T) {
	env := newEventTestEnv()
	ownerID, adminID := uuid.New(), uuid.New()

	event, appErr := env.svc.Create(context.Background(), ownerID, validCreateRequest())
	require.Nil(t, appErr)

	_, appErr = env.access.Grant(context.Background(), nil, adminID, event.ID, accessEntity.DirectInviteReason(accessEntity.PermissionAdmin))
	require.Nil(t, appErr)

	appErr = env.svc.Delete(context.Background(), adminID, event.ID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)

	require.Nil(t, env.svc.Delete(context.Background(), ownerID, event.ID))
}

func TestDeleteCascadesSharesAndAccess(t *testing.T) {
	env := newEventTestEnv()
	ownerID, guestID := uuid.New(), uuid.New()

	event, appErr := env.svc.Create(context.Background(), ownerID, validCreateRequest())
	require.Nil(t, appErr)

	_, appErr = env.access.Grant(context.Background(), nil, guestID, event.ID, accessEntity.DirectInviteReason(accessEntity.PermissionView))
	require.Nil(t, appErr)
	env.shareRepo.add(uuid.New(), event.ID)

	require.Nil(t, env.svc.Delete(context.Background(), ownerID, event.ID))

	got, err := env.eventRepo.GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, env.accessRepo.edges)
	assert.Empty(t, env.shareRepo.shares)
}
