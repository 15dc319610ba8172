package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/muniworks/land-office/internal/auth"
	"github.com/muniworks/land-office/internal/domain"
)

type SyncService interface {
	AttemptSync(ctx context.Context, propertyID string, actorID string) error
	ListRetries(ctx context.Context, propertyID string) ([]domain.SyncRetryRecord, error)
}

type SweepRunner interface {
	SweepOnce(ctx context.Context) (int, error)
}

type SyncHandler struct {
	sync    SyncService
	sweeper SweepRunner
}

func NewSyncHandler(sync SyncService, sweeper SweepRunner) (*SyncHandler, error) {
	if sync == nil {
		return nil, fmt.Errorf("sync service is required")
	}
	if sweeper == nil {
		return nil, fmt.Errorf("sweeper is required")
	}
	return &SyncHandler{sync: sync, sweeper: sweeper}, nil
}

func RegisterSyncRoutes(router fiber.Router, sync SyncService, sweeper SweepRunner, writeGuard fiber.Handler) error {
	h, err := NewSyncHandler(sync, sweeper)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/properties/:id/sync", writeGuard, h.TriggerSync)
	v1.Get("/properties/:id/retries", h.ListRetries)
	v1.Post("/sync/sweep", writeGuard, h.RunSweep)

	return nil
}

type retryRecordResponse struct {
	ID            string     `json:"id"`
	PropertyID    string     `json:"propertyId"`
	AttemptNumber int        `json:"attemptNumber"`
	Status        string     `json:"status"`
	LastAttemptAt time.Time  `json:"lastAttemptAt"`
	NextRetryAt   *time.Time `json:"nextRetryAt,omitempty"`
	LastError     *string    `json:"lastError,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (h *SyncHandler) TriggerSync(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	if actor.Role != domain.RoleApprover && actor.Role != domain.RoleAdministrator {
		return fmt.Errorf("%w: role %s may not trigger synchronization", domain.ErrForbidden, actor.Role)
	}

	id := strings.TrimSpace(c.Params("id"))
	if err := h.sync.AttemptSync(c.Context(), id, actor.ID); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(transitionResponse{
		Success: true,
		Message: "property synchronized",
	})
}

func (h *SyncHandler) ListRetries(c *fiber.Ctx) error {
	records, err := h.sync.ListRetries(c.Context(), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return err
	}

	responses := make([]retryRecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, retryRecordResponse{
			ID:            record.ID,
			PropertyID:    record.PropertyID,
			AttemptNumber: record.AttemptNumber,
			Status:        record.Status.String(),
			LastAttemptAt: record.LastAttemptAt,
			NextRetryAt:   record.NextRetryAt,
			LastError:     record.LastError,
			CreatedAt:     record.CreatedAt,
			UpdatedAt:     record.UpdatedAt,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": responses})
}

func (h *SyncHandler) RunSweep(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	if !actor.IsAdministrator() {
		return fmt.Errorf("%w: only administrators may run the sweep", domain.ErrForbidden)
	}

	attempted, err := h.sweeper.SweepOnce(c.Context())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"attempted": attempted})
}
