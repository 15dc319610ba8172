package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/muniworks/land-office/internal/auth"
	"github.com/muniworks/land-office/internal/domain"
	"github.com/muniworks/land-office/internal/repository"
	"github.com/muniworks/land-office/internal/service"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100
)

type EntityService interface {
	Create(ctx context.Context, actor domain.Actor, input service.CreateEntityInput) (*domain.Entity, error)
	UpdateDraft(ctx context.Context, actor domain.Actor, entityID string, input service.UpdateEntityInput) (*domain.Entity, error)
	Get(ctx context.Context, entityID string) (*domain.Entity, error)
	List(ctx context.Context, params repository.EntityListParams) ([]domain.Entity, int64, error)
}

type EntityHandler struct {
	service EntityService
}

func NewEntityHandler(service EntityService) (*EntityHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("entity service is required")
	}
	return &EntityHandler{service: service}, nil
}

func RegisterEntityRoutes(router fiber.Router, service EntityService, writeGuard fiber.Handler) error {
	h, err := NewEntityHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/entities", writeGuard, h.CreateEntity)
	v1.Get("/entities", h.ListEntities)
	v1.Get("/entities/:id", h.GetEntity)
	v1.Put("/entities/:id", writeGuard, h.UpdateEntity)

	return nil
}

type createEntityRequest struct {
	Kind       string            `json:"kind"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes"`
}

type updateEntityRequest struct {
	Name       *string           `json:"name"`
	Attributes map[string]string `json:"attributes"`
}

type entityResponse struct {
	ID                string            `json:"id"`
	ReferenceCode     string            `json:"referenceCode"`
	Kind              string            `json:"kind"`
	Name              string            `json:"name"`
	Attributes        map[string]string `json:"attributes"`
	Status            string            `json:"status"`
	CreatedBy         string            `json:"createdBy"`
	ApprovedBy        *string           `json:"approvedBy,omitempty"`
	SubmittedAt       *time.Time        `json:"submittedAt,omitempty"`
	RejectionFeedback *string           `json:"rejectionFeedback,omitempty"`
	SyncStatus        string            `json:"syncStatus"`
	SyncObjectID      *string           `json:"syncObjectId,omitempty"`
	SyncError         *string           `json:"syncError,omitempty"`
	LastSyncAt        *time.Time        `json:"lastSyncAt,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

type listEntitiesResponse struct {
	Data []entityResponse `json:"data"`
	Meta listMeta         `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

func (h *EntityHandler) CreateEntity(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}

	var req createEntityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	kind, err := domain.ParseEntityKindFromString(req.Kind)
	if err != nil {
		return err
	}

	created, err := h.service.Create(c.Context(), actor, service.CreateEntityInput{
		Kind:       kind,
		Name:       req.Name,
		Attributes: req.Attributes,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(toEntityResponse(created))
}

func (h *EntityHandler) UpdateEntity(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}

	var req updateEntityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updated, err := h.service.UpdateDraft(c.Context(), actor, strings.TrimSpace(c.Params("id")), service.UpdateEntityInput{
		Name:       req.Name,
		Attributes: req.Attributes,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(toEntityResponse(updated))
}

func (h *EntityHandler) GetEntity(c *fiber.Ctx) error {
	entity, err := h.service.Get(c.Context(), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(toEntityResponse(entity))
}

func (h *EntityHandler) ListEntities(c *fiber.Ctx) error {
	params, err := parseEntityListParams(c)
	if err != nil {
		return err
	}

	entities, total, err := h.service.List(c.Context(), params)
	if err != nil {
		return err
	}

	responses := make([]entityResponse, 0, len(entities))
	for i := range entities {
		responses = append(responses, toEntityResponse(&entities[i]))
	}

	return c.Status(fiber.StatusOK).JSON(listEntitiesResponse{
		Data: responses,
		Meta: listMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

func parseEntityListParams(c *fiber.Ctx) (repository.EntityListParams, error) {
	params := repository.EntityListParams{
		Page:     c.QueryInt("page", defaultPage),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
	}

	if params.Page < 1 {
		return repository.EntityListParams{}, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		return repository.EntityListParams{}, fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize)
	}

	if rawKind := strings.TrimSpace(c.Query("kind")); rawKind != "" {
		kind, err := domain.ParseEntityKindFromString(rawKind)
		if err != nil {
			return repository.EntityListParams{}, err
		}
		params.Kind = &kind
	}

	if rawStatus := strings.TrimSpace(c.Query("status")); rawStatus != "" {
		status, err := domain.ParseStatusFromString(rawStatus)
		if err != nil {
			return repository.EntityListParams{}, err
		}
		params.Status = &status
	}

	if createdBy := strings.TrimSpace(c.Query("createdBy")); createdBy != "" {
		params.CreatedBy = &createdBy
	}

	return params, nil
}

func toEntityResponse(e *domain.Entity) entityResponse {
	if e == nil {
		return entityResponse{}
	}

	return entityResponse{
		ID:                e.ID,
		ReferenceCode:     e.ReferenceCode,
		Kind:              e.Kind.String(),
		Name:              e.Name,
		Attributes:        e.Attributes,
		Status:            e.Status.String(),
		CreatedBy:         e.CreatedBy,
		ApprovedBy:        e.ApprovedBy,
		SubmittedAt:       e.SubmittedAt,
		RejectionFeedback: e.RejectionFeedback,
		SyncStatus:        e.AgoSyncStatus.String(),
		SyncObjectID:      e.AgoObjectID,
		SyncError:         e.AgoSyncError,
		LastSyncAt:        e.AgoLastSyncAt,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}
