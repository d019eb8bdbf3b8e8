package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/middleware"
	"github.com/noah-isme/gema-assessment-api/internal/service"
	"github.com/noah-isme/gema-assessment-api/internal/utils"
)

// ScoreHandler exposes score inputs and final score aggregation.
type ScoreHandler struct {
	service service.ScoreService
	logger  zerolog.Logger
}

// NewScoreHandler builds a score handler.
func NewScoreHandler(service service.ScoreService, logger zerolog.Logger) *ScoreHandler {
	return &ScoreHandler{
		service: service,
		logger:  logger.With().Str("component", "score_handler").Logger(),
	}
}

// Register attaches the score routes.
func (h *ScoreHandler) Register(router fiber.Router) {
	tutor := middleware.RequireRole(middleware.RoleTutor, middleware.RoleAdmin)
	anyone := middleware.RequireRole(middleware.RoleStudent, middleware.RoleTutor, middleware.RoleAdmin)

	router.Post("/final-scores/recompute", tutor, h.recompute)
	router.Get("/final-scores", anyone, h.finalScores)
	router.Put("/skill-scores", tutor, h.upsertSkill)
	router.Put("/behavior-scores", tutor, h.upsertBehavior)
}

func (h *ScoreHandler) recompute(c *fiber.Ctx) error {
	var payload dto.RecomputeFinalScoresRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	scores, err := h.service.Recompute(withRequestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "final scores recomputed", scores)
}

func (h *ScoreHandler) finalScores(c *fiber.Ctx) error {
	studentID, err := parseQueryUint(c, "student_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	yearID, err := parseQueryUint(c, "academic_year_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if yearID == nil || *yearID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "academic_year_id is required")
	}

	if userRoleFromContext(c) == middleware.RoleStudent {
		self := userIDFromContext(c)
		if studentID != nil && *studentID != self {
			return utils.SendErrorWithCode(c, fiber.StatusForbidden, CodeForbidden, "students may only read their own scores", nil)
		}
		studentID = &self
	}
	if studentID == nil || *studentID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "student_id is required")
	}

	scores, err := h.service.GetFinalScores(withRequestContext(c), *studentID, *yearID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "final scores retrieved", scores)
}

func (h *ScoreHandler) upsertSkill(c *fiber.Ctx) error {
	var payload dto.SkillScoreRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	score, err := h.service.UpsertSkill(withRequestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "skill score saved", score)
}

func (h *ScoreHandler) upsertBehavior(c *fiber.Ctx) error {
	var payload dto.BehaviorScoreRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	score, err := h.service.UpsertBehavior(withRequestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "behavior score saved", score)
}
