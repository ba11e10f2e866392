package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/renren-chavez/MatchUpBack/internal/models"
	"github.com/renren-chavez/MatchUpBack/internal/services"
)

type blockingApplicationService interface {
	CreateBlocking(ctx context.Context, coachID int64, input services.CreateBlockingInput) (*models.Blocking, error)
	ListBlockings(ctx context.Context, coachID int64) ([]models.Blocking, error)
	DeleteBlocking(ctx context.Context, coachID, blockingID int64) error
	CreateRecurringBlocking(ctx context.Context, coachID int64, input services.CreateRecurringBlockingInput) (*models.RecurringBlocking, error)
	ListRecurringBlockings(ctx context.Context, coachID int64) ([]models.RecurringBlocking, error)
	DeleteRecurringBlocking(ctx context.Context, coachID, recurringID int64) error
}

type BlockingHandler struct {
	service  blockingApplicationService
	profiles coachProfileResolver
}

func NewBlockingHandler(service blockingApplicationService, profiles coachProfileResolver) *BlockingHandler {
	return &BlockingHandler{service: service, profiles: profiles}
}

type createBlockingRequest struct {
	BlockedDate string  `json:"blocked_date"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Reason      *string `json:"reason"`
}

func (h *BlockingHandler) CreateBlocking(c *fiber.Ctx) error {
	coachID, err := resolveCoachID(c, h.profiles)
	if err != nil {
		return mapCoachResolveError(c, err)
	}

	var req createBlockingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	blocking, err := h.service.CreateBlocking(c.Context(), coachID, services.CreateBlockingInput{
		BlockedDate: req.BlockedDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Reason:      req.Reason,
	})
	if err != nil {
		return mapBlockingError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"blocking": blocking})
}

func (h *BlockingHandler) ListBlockings(c *fiber.Ctx) error {
	coachID, err := resolveCoachID(c, h.profiles)
	if err != nil {
		return mapCoachResolveError(c, err)
	}

	blockings, err := h.service.ListBlockings(c.Context(), coachID)
	if err != nil {
		return mapBlockingError(c, err)
	}

	return c.JSON(fiber.Map{"blockings": blockings})
}

func (h *BlockingHandler) DeleteBlocking(c *fiber.Ctx) error {
	coachID, err := resolveCoachID(c, h.profiles)
	if err != nil {
		return mapCoachResolveError(c, err)
	}
	blockingID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || blockingID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid blocking id"})
	}

	if err := h.service.DeleteBlocking(c.Context(), coachID, blockingID); err != nil {
		return mapBlockingError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type createRecurringBlockingRequest struct {
	DayOfWeek int     `json:"day_of_week"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Reason    *string `json:"reason"`
}

func (h *BlockingHandler) CreateRecurringBlocking(c *fiber.Ctx) error {
	coachID, err := resolveCoachID(c, h.profiles)
	if err != nil {
		return mapCoachResolveError(c, err)
	}

	var req createRecurringBlockingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	recurring, err := h.service.CreateRecurringBlocking(c.Context(), coachID, services.CreateRecurringBlockingInput{
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
	})
	if err != nil {
		return mapBlockingError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"recurring_blocking": recurring})
}

func (h *BlockingHandler) ListRecurringBlockings(c *fiber.Ctx) error {
	coachID, err := resolveCoachID(c, h.profiles)
	if err != nil {
		return mapCoachResolveError(c, err)
	}

	recurrings, err := h.service.ListRecurringBlockings(c.Context(), coachID)
	if err != nil {
		return mapBlockingError(c, err)
	}

	return c.JSON(fiber.Map{"recurring_blockings": recurrings})
}

func (h *BlockingHandler) DeleteRecurringBlocking(c *fiber.Ctx) error {
	coachID, err := resolveCoachID(c, h.profiles)
	if err != nil {
		return mapCoachResolveError(c, err)
	}
	recurringID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || recurringID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid recurring blocking id"})
	}

	if err := h.service.DeleteRecurringBlocking(c.Context(), coachID, recurringID); err != nil {
		return mapBlockingError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func mapBlockingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Blocking not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to process blocking request"})
	}
}
