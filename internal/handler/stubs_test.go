package handler

import (
	"bytes"
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/muniworks/land-office/internal/auth"
	"github.com/muniworks/land-office/internal/domain"
	"github.com/muniworks/land-office/internal/repository"
	"github.com/muniworks/land-office/internal/service"
	"github.com/muniworks/land-office/internal/transport"
)

type stubEntityService struct {
	createFn      func(ctx context.Context, actor domain.Actor, input service.CreateEntityInput) (*domain.Entity, error)
	updateDraftFn func(ctx context.Context, actor domain.Actor, entityID string, input service.UpdateEntityInput) (*domain.Entity, error)
	getFn         func(ctx context.Context, entityID string) (*domain.Entity, error)
	listFn        func(ctx context.Context, params repository.EntityListParams) ([]domain.Entity, int64, error)
}

func (s *stubEntityService) Create(ctx context.Context, actor domain.Actor, input service.CreateEntityInput) (*domain.Entity, error) {
	if s.createFn != nil {
		return s.createFn(ctx, actor, input)
	}
	return nil, errors.New("not implemented")
}

func (s *stubEntityService) UpdateDraft(ctx context.Context, actor domain.Actor, entityID string, input service.UpdateEntityInput) (*domain.Entity, error) {
	if s.updateDraftFn != nil {
		return s.updateDraftFn(ctx, actor, entityID, input)
	}
	return nil, errors.New("not implemented")
}

func (s *stubEntityService) Get(ctx context.Context, entityID string) (*domain.Entity, error) {
	if s.getFn != nil {
		return s.getFn(ctx, entityID)
	}
	return nil, domain.ErrNotFound
}

func (s *stubEntityService) List(ctx context.Context, params repository.EntityListParams) ([]domain.Entity, int64, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return nil, 0, nil
}

type stubWorkflowService struct {
	submitFn    func(ctx context.Context, actor domain.Actor, entityID string) error
	approveFn   func(ctx context.Context, actor domain.Actor, entityID string) error
	rejectFn    func(ctx context.Context, actor domain.Actor, entityID string, feedback string) error
	archiveFn   func(ctx context.Context, actor domain.Actor, entityID string) error
	unarchiveFn func(ctx context.Context, actor domain.Actor, entityID string) error
}

func (s *stubWorkflowService) Submit(ctx context.Context, actor domain.Actor, entityID string) error {
	if s.submitFn != nil {
		return s.submitFn(ctx, actor, entityID)
	}
	return errors.New("not implemented")
}

func (s *stubWorkflowService) Approve(ctx context.Context, actor domain.Actor, entityID string) error {
	if s.approveFn != nil {
		return s.approveFn(ctx, actor, entityID)
	}
	return errors.New("not implemented")
}

func (s *stubWorkflowService) Reject(ctx context.Context, actor domain.Actor, entityID string, feedback string) error {
	if s.rejectFn != nil {
		return s.rejectFn(ctx, actor, entityID, feedback)
	}
	return errors.New("not implemented")
}

func (s *stubWorkflowService) Archive(ctx context.Context, actor domain.Actor, entityID string) error {
	if s.archiveFn != nil {
		return s.archiveFn(ctx, actor, entityID)
	}
	return errors.New("not implemented")
}

func (s *stubWorkflowService) Unarchive(ctx context.Context, actor domain.Actor, entityID string) error {
	if s.unarchiveFn != nil {
		return s.unarchiveFn(ctx, actor, entityID)
	}
	return errors.New("not implemented")
}

type stubLogService struct {
	listActivityFn func(ctx context.Context, entityID string) ([]domain.ActivityLogEntry, error)
	listAuditFn    func(ctx context.Context, entityID string) ([]domain.AuditLogEntry, error)
}

func (s *stubLogService) ListActivity(ctx context.Context, entityID string) ([]domain.ActivityLogEntry, error) {
	if s.listActivityFn != nil {
		return s.listActivityFn(ctx, entityID)
	}
	return nil, nil
}

func (s *stubLogService) ListAudit(ctx context.Context, entityID string) ([]domain.AuditLogEntry, error) {
	if s.listAuditFn != nil {
		return s.listAuditFn(ctx, entityID)
	}
	return nil, nil
}

type stubNotificationService struct {
	listFn        func(ctx context.Context, actor domain.Actor, filter domain.ReadFilter, page int, pageSize int) ([]domain.Notification, int64, error)
	markReadFn    func(ctx context.Context, notificationID string, actor domain.Actor) error
	markAllReadFn func(ctx context.Context, actor domain.Actor) (int64, error)
	unreadCountFn func(ctx context.Context, actor domain.Actor) (int64, error)
}

func (s *stubNotificationService) List(ctx context.Context, actor domain.Actor, filter domain.ReadFilter, page int, pageSize int) ([]domain.Notification, int64, error) {
	if s.listFn != nil {
		return s.listFn(ctx, actor, filter, page, pageSize)
	}
	return nil, 0, nil
}

func (s *stubNotificationService) MarkRead(ctx context.Context, notificationID string, actor domain.Actor) error {
	if s.markReadFn != nil {
		return s.markReadFn(ctx, notificationID, actor)
	}
	return nil
}

func (s *stubNotificationService) MarkAllRead(ctx context.Context, actor domain.Actor) (int64, error) {
	if s.markAllReadFn != nil {
		return s.markAllReadFn(ctx, actor)
	}
	return 0, nil
}

func (s *stubNotificationService) UnreadCount(ctx context.Context, actor domain.Actor) (int64, error) {
	if s.unreadCountFn != nil {
		return s.unreadCountFn(ctx, actor)
	}
	return 0, nil
}

type stubSyncService struct {
	attemptSyncFn func(ctx context.Context, propertyID string, actorID string) error
	listRetriesFn func(ctx context.Context, propertyID string) ([]domain.SyncRetryRecord, error)
}

func (s *stubSyncService) AttemptSync(ctx context.Context, propertyID string, actorID string) error {
	if s.attemptSyncFn != nil {
		return s.attemptSyncFn(ctx, propertyID, actorID)
	}
	return nil
}

func (s *stubSyncService) ListRetries(ctx context.Context, propertyID string) ([]domain.SyncRetryRecord, error) {
	if s.listRetriesFn != nil {
		return s.listRetriesFn(ctx, propertyID)
	}
	return nil, nil
}

type stubSweeper struct {
	sweepOnceFn func(ctx context.Context) (int, error)
}

func (s *stubSweeper) SweepOnce(ctx context.Context) (int, error) {
	if s.sweepOnceFn != nil {
		return s.sweepOnceFn(ctx)
	}
	return 0, nil
}

func newTestApp(t *testing.T, actor domain.Actor) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.NewErrorHandler(nil),
	})
	app.Use(func(c *fiber.Ctx) error {
		if actor.ID != "" {
			auth.SetActor(c, actor)
		}
		return c.Next()
	})

	return app
}

func passthroughGuard(c *fiber.Ctx) error { return c.Next() }

func performRequest(t *testing.T, app *fiber.App, method string, path string, body string) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	_ = resp.Body.Close()

	return resp, respBody
}

type stubConnector struct {
	pingErr error
}

func (c stubConnector) Connect(context.Context) (driver.Conn, error) {
	return stubConn(c), nil
}

func (c stubConnector) Driver() driver.Driver {
	return stubDriver(c)
}

type stubDriver struct {
	pingErr error
}

func (d stubDriver) Open(string) (driver.Conn, error) {
	return stubConn(d), nil
}

type stubConn struct {
	pingErr error
}

func (c stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not implemented") }
func (c stubConn) Close() error                        { return nil }
func (c stubConn) Begin() (driver.Tx, error)           { return nil, errors.New("not implemented") }
func (c stubConn) Ping(context.Context) error          { return c.pingErr }

type stubRedisHook struct {
	pingErr error
}

func (h stubRedisHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h stubRedisHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if strings.EqualFold(cmd.Name(), "ping") {
			if h.pingErr != nil {
				cmd.SetErr(h.pingErr)
				return h.pingErr
			}
			cmd.SetErr(nil)
			return nil
		}
		cmd.SetErr(nil)
		return nil
	}
}

func (h stubRedisHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			cmd.SetErr(nil)
		}
		return nil
	}
}

func newStubRedisClient(pingErr error) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:         "127.0.0.1:6379",
		DialTimeout:  time.Millisecond,
		ReadTimeout:  time.Millisecond,
		WriteTimeout: time.Millisecond,
	})
	rdb.AddHook(stubRedisHook{pingErr: pingErr})
	return rdb
}
