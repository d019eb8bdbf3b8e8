package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/middleware"
	"github.com/noah-isme/gema-assessment-api/internal/service"
	"github.com/noah-isme/gema-assessment-api/internal/utils"
)

// AttemptHandler exposes the student attempt lifecycle.
type AttemptHandler struct {
	service service.AttemptService
	logger  zerolog.Logger
}

// NewAttemptHandler builds an attempt handler.
func NewAttemptHandler(service service.AttemptService, logger zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{
		service: service,
		logger:  logger.With().Str("component", "attempt_handler").Logger(),
	}
}

// Register attaches the attempt routes. answerLimiter throttles autosave writes and may be nil.
func (h *AttemptHandler) Register(router fiber.Router, answerLimiter fiber.Handler) {
	student := middleware.RequireRole(middleware.RoleStudent)
	if answerLimiter == nil {
		answerLimiter = func(c *fiber.Ctx) error { return c.Next() }
	}

	router.Post("/assessments/:id/attempts", student, h.start)
	router.Put("/attempts/:id/answers", student, answerLimiter, h.saveAnswer)
	router.Post("/attempts/:id/attachments", student, h.uploadAttachment)
	router.Get("/attempts/:id/timer", student, h.timer)
	router.Post("/attempts/:id/submit", student, h.submit)
}

func (h *AttemptHandler) start(c *fiber.Ctx) error {
	assessmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	attempt, err := h.service.Start(withRequestContext(c), assessmentID, userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	if attempt.Resumed {
		return utils.SendSuccess(c, "attempt resumed", attempt)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attempt started", attempt)
}

func (h *AttemptHandler) saveAnswer(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SaveAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	answer, err := h.service.SaveAnswer(withRequestContext(c), submissionID, userIDFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "answer saved", answer)
}

func (h *AttemptHandler) uploadAttachment(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	questionID, err := parseFormUint(c, "question_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, CodeInvalidUpload, "file is required", nil)
	}

	attachment, err := h.service.UploadAttachment(withRequestContext(c), submissionID, userIDFromContext(c), questionID, file)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attachment uploaded", attachment)
}

func (h *AttemptHandler) timer(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	timer, err := h.service.Timer(withRequestContext(c), submissionID, userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "timer retrieved", timer)
}

func (h *AttemptHandler) submit(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmitAttemptRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	result, err := h.service.Submit(withRequestContext(c), submissionID, userIDFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	message := "attempt submitted"
	if !result.Accepted {
		message = "attempt time expired, answers were not accepted"
	}
	return utils.SendSuccess(c, message, result)
}
