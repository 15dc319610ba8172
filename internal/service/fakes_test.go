package service

import (
	"context"
	"time"

	"github.com/muniworks/land-office/internal/ago"
	"github.com/muniworks/land-office/internal/domain"
	"github.com/muniworks/land-office/internal/queue"
	"github.com/muniworks/land-office/internal/repository"
)

type fakeEntityRepo struct {
	create           func(ctx context.Context, e *domain.Entity) error
	getByID          func(ctx context.Context, id string) (*domain.Entity, error)
	list             func(ctx context.Context, params repository.EntityListParams) ([]domain.Entity, int64, error)
	transitionStatus func(ctx context.Context, id string, expected domain.Status, updates repository.EntityUpdates) (bool, error)
	updateFields     func(ctx context.Context, id string, updates repository.EntityUpdates) error
}

func (f *fakeEntityRepo) Create(ctx context.Context, e *domain.Entity) error {
	return f.create(ctx, e)
}

func (f *fakeEntityRepo) GetByID(ctx context.Context, id string) (*domain.Entity, error) {
	return f.getByID(ctx, id)
}

func (f *fakeEntityRepo) List(ctx context.Context, params repository.EntityListParams) ([]domain.Entity, int64, error) {
	return f.list(ctx, params)
}

func (f *fakeEntityRepo) TransitionStatus(ctx context.Context, id string, expected domain.Status, updates repository.EntityUpdates) (bool, error) {
	return f.transitionStatus(ctx, id, expected, updates)
}

func (f *fakeEntityRepo) UpdateFields(ctx context.Context, id string, updates repository.EntityUpdates) error {
	return f.updateFields(ctx, id, updates)
}

type fakeUserRepo struct {
	getByID           func(ctx context.Context, id string) (*domain.User, error)
	getByIDs          func(ctx context.Context, ids []string) (map[string]domain.User, error)
	listActiveByRoles func(ctx context.Context, roles []domain.Role) ([]domain.User, error)
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return f.getByID(ctx, id)
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, ids []string) (map[string]domain.User, error) {
	return f.getByIDs(ctx, ids)
}

func (f *fakeUserRepo) ListActiveByRoles(ctx context.Context, roles []domain.Role) ([]domain.User, error) {
	return f.listActiveByRoles(ctx, roles)
}

type fakeAuditRepo struct {
	createBatch  func(ctx context.Context, entries []domain.AuditLogEntry) error
	listByEntity func(ctx context.Context, kind domain.EntityKind, entityID string) ([]domain.AuditLogEntry, error)
}

func (f *fakeAuditRepo) CreateBatch(ctx context.Context, entries []domain.AuditLogEntry) error {
	return f.createBatch(ctx, entries)
}

func (f *fakeAuditRepo) ListByEntity(ctx context.Context, kind domain.EntityKind, entityID string) ([]domain.AuditLogEntry, error) {
	return f.listByEntity(ctx, kind, entityID)
}

type fakeActivityRepo struct {
	create       func(ctx context.Context, entry *domain.ActivityLogEntry) error
	listByEntity func(ctx context.Context, kind domain.EntityKind, entityID string) ([]domain.ActivityLogEntry, error)
}

func (f *fakeActivityRepo) Create(ctx context.Context, entry *domain.ActivityLogEntry) error {
	return f.create(ctx, entry)
}

func (f *fakeActivityRepo) ListByEntity(ctx context.Context, kind domain.EntityKind, entityID string) ([]domain.ActivityLogEntry, error) {
	return f.listByEntity(ctx, kind, entityID)
}

type fakeNotificationRepo struct {
	createBatch func(ctx context.Context, notifications []domain.Notification) error
	getByID     func(ctx context.Context, id string) (*domain.Notification, error)
	markRead    func(ctx context.Context, id string, recipientID string) error
	markAllRead func(ctx context.Context, recipientID string) (int64, error)
	unreadCount func(ctx context.Context, recipientID string) (int64, error)
	list        func(ctx context.Context, params repository.NotificationListParams) ([]domain.Notification, int64, error)
}

func (f *fakeNotificationRepo) CreateBatch(ctx context.Context, notifications []domain.Notification) error {
	return f.createBatch(ctx, notifications)
}

func (f *fakeNotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	return f.getByID(ctx, id)
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, id string, recipientID string) error {
	return f.markRead(ctx, id, recipientID)
}

func (f *fakeNotificationRepo) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	return f.markAllRead(ctx, recipientID)
}

func (f *fakeNotificationRepo) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return f.unreadCount(ctx, recipientID)
}

func (f *fakeNotificationRepo) List(ctx context.Context, params repository.NotificationListParams) ([]domain.Notification, int64, error) {
	return f.list(ctx, params)
}

type fakeSyncRetryRepo struct {
	create            func(ctx context.Context, record *domain.SyncRetryRecord) error
	getByID           func(ctx context.Context, id string) (*domain.SyncRetryRecord, error)
	getOpenByProperty func(ctx context.Context, propertyID string) (*domain.SyncRetryRecord, error)
	update            func(ctx context.Context, record *domain.SyncRetryRecord) error
	markRetrying      func(ctx context.Context, id string) (bool, error)
	getDue            func(ctx context.Context, now time.Time, limit int) ([]domain.SyncRetryRecord, error)
	listByProperty    func(ctx context.Context, propertyID string) ([]domain.SyncRetryRecord, error)
}

func (f *fakeSyncRetryRepo) Create(ctx context.Context, record *domain.SyncRetryRecord) error {
	return f.create(ctx, record)
}

func (f *fakeSyncRetryRepo) GetByID(ctx context.Context, id string) (*domain.SyncRetryRecord, error) {
	return f.getByID(ctx, id)
}

func (f *fakeSyncRetryRepo) GetOpenByProperty(ctx context.Context, propertyID string) (*domain.SyncRetryRecord, error) {
	return f.getOpenByProperty(ctx, propertyID)
}

func (f *fakeSyncRetryRepo) Update(ctx context.Context, record *domain.SyncRetryRecord) error {
	return f.update(ctx, record)
}

func (f *fakeSyncRetryRepo) MarkRetrying(ctx context.Context, id string) (bool, error) {
	return f.markRetrying(ctx, id)
}

func (f *fakeSyncRetryRepo) GetDue(ctx context.Context, now time.Time, limit int) ([]domain.SyncRetryRecord, error) {
	return f.getDue(ctx, now, limit)
}

func (f *fakeSyncRetryRepo) ListByProperty(ctx context.Context, propertyID string) ([]domain.SyncRetryRecord, error) {
	return f.listByProperty(ctx, propertyID)
}

type fakePublisher struct {
	publish func(ctx context.Context, queueName string, event queue.TransitionEvent) error
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, event queue.TransitionEvent) error {
	return f.publish(ctx, queueName, event)
}

func (f *fakePublisher) Close() error { return nil }

type fakeSyncClient struct {
	sync func(ctx context.Context, req ago.SyncRequest) (*ago.SyncResult, error)
}

func (f *fakeSyncClient) Sync(ctx context.Context, req ago.SyncRequest) (*ago.SyncResult, error) {
	return f.sync(ctx, req)
}

// entityFixture returns a minimal valid entity tests mutate as needed.
func entityFixture(kind domain.EntityKind, status domain.Status) *domain.Entity {
	return &domain.Entity{
		ID:            "entity-1",
		ReferenceCode: "PROP-2026-ABCD1234",
		Kind:          kind,
		Name:          "14 Main St",
		Status:        status,
		CreatedBy:     "user-owner",
		AgoSyncStatus: domain.SyncStatusNone,
	}
}
