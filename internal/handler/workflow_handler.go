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

type WorkflowService interface {
	Submit(ctx context.Context, actor domain.Actor, entityID string) error
	Approve(ctx context.Context, actor domain.Actor, entityID string) error
	Reject(ctx context.Context, actor domain.Actor, entityID string, feedback string) error
	Archive(ctx context.Context, actor domain.Actor, entityID string) error
	Unarchive(ctx context.Context, actor domain.Actor, entityID string) error
}

type LogService interface {
	ListActivity(ctx context.Context, entityID string) ([]domain.ActivityLogEntry, error)
	ListAudit(ctx context.Context, entityID string) ([]domain.AuditLogEntry, error)
}

type WorkflowHandler struct {
	workflow WorkflowService
	logs     LogService
}

func NewWorkflowHandler(workflow WorkflowService, logs LogService) (*WorkflowHandler, error) {
	if workflow == nil {
		return nil, fmt.Errorf("workflow service is required")
	}
	if logs == nil {
		return nil, fmt.Errorf("log service is required")
	}
	return &WorkflowHandler{workflow: workflow, logs: logs}, nil
}

func RegisterWorkflowRoutes(router fiber.Router, workflow WorkflowService, logs LogService, writeGuard fiber.Handler) error {
	h, err := NewWorkflowHandler(workflow, logs)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/entities/:id/submit", writeGuard, h.SubmitEntity)
	v1.Post("/entities/:id/approve", writeGuard, h.ApproveEntity)
	v1.Post("/entities/:id/reject", writeGuard, h.RejectEntity)
	v1.Post("/entities/:id/archive", writeGuard, h.ArchiveEntity)
	v1.Get("/entities/:id/activity", h.ListActivity)
	v1.Get("/entities/:id/audit", h.ListAudit)

	return nil
}

type rejectRequest struct {
	Feedback string `json:"feedback"`
}

type archiveRequest struct {
	Unarchive bool `json:"unarchive"`
}

type transitionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type activityEntryResponse struct {
	ID        string            `json:"id"`
	Action    string            `json:"action"`
	ActorID   string            `json:"actorId"`
	ActorName string            `json:"actorName"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

type auditEntryResponse struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	FieldName *string   `json:"fieldName,omitempty"`
	OldValue  *string   `json:"oldValue,omitempty"`
	NewValue  *string   `json:"newValue,omitempty"`
	ActorID   string    `json:"actorId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *WorkflowHandler) SubmitEntity(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}

	if err := h.workflow.Submit(c.Context(), actor, strings.TrimSpace(c.Params("id"))); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(transitionResponse{
		Success: true,
		Message: "record submitted for approval",
	})
}

func (h *WorkflowHandler) ApproveEntity(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}

	if err := h.workflow.Approve(c.Context(), actor, strings.TrimSpace(c.Params("id"))); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(transitionResponse{
		Success: true,
		Message: "record approved",
	})
}

func (h *WorkflowHandler) RejectEntity(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}

	var req rejectRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.workflow.Reject(c.Context(), actor, strings.TrimSpace(c.Params("id")), req.Feedback); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(transitionResponse{
		Success: true,
		Message: "record rejected",
	})
}

func (h *WorkflowHandler) ArchiveEntity(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}

	var req archiveRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	id := strings.TrimSpace(c.Params("id"))
	if req.Unarchive {
		if err := h.workflow.Unarchive(c.Context(), actor, id); err != nil {
			return err
		}
		return c.Status(fiber.StatusOK).JSON(transitionResponse{
			Success: true,
			Message: "record restored from archive",
		})
	}

	if err := h.workflow.Archive(c.Context(), actor, id); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(transitionResponse{
		Success: true,
		Message: "record archived",
	})
}

func (h *WorkflowHandler) ListActivity(c *fiber.Ctx) error {
	entries, err := h.logs.ListActivity(c.Context(), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return err
	}

	responses := make([]activityEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, activityEntryResponse{
			ID:        entry.ID,
			Action:    entry.Action.String(),
			ActorID:   entry.ActorID,
			ActorName: entry.ActorName,
			Metadata:  entry.Metadata,
			CreatedAt: entry.CreatedAt,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": responses})
}

func (h *WorkflowHandler) ListAudit(c *fiber.Ctx) error {
	entries, err := h.logs.ListAudit(c.Context(), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return err
	}

	responses := make([]auditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, auditEntryResponse{
			ID:        entry.ID,
			Action:    entry.Action,
			FieldName: entry.FieldName,
			OldValue:  entry.OldValue,
			NewValue:  entry.NewValue,
			ActorID:   entry.ActorID,
			CreatedAt: entry.CreatedAt,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": responses})
}
