package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assessment-api/internal/middleware"
	"github.com/noah-isme/gema-assessment-api/internal/service"
	"github.com/noah-isme/gema-assessment-api/internal/utils"
)

// Rejection reasons returned in the code field of error responses.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNotYetOpen       = "NOT_YET_OPEN"
	CodeClosed           = "CLOSED"
	CodeAlreadySubmitted = "ALREADY_SUBMITTED"
	CodeAttemptExpired   = "ATTEMPT_EXPIRED"
	CodeNotGradable      = "NOT_GRADABLE"
	CodeAssessmentLocked = "ASSESSMENT_LOCKED"
	CodeInvalidScore     = "INVALID_SCORE"
	CodePendingAnswers   = "PENDING_ANSWERS"
	CodeInvalidQuestion  = "INVALID_QUESTION"
	CodeInvalidAnswer    = "INVALID_ANSWER"
	CodeNotFound         = "NOT_FOUND"
	CodeForbidden        = "FORBIDDEN"
	CodeInvalidUpload    = "INVALID_UPLOAD"
)

type errorMapping struct {
	target error
	status int
	code   string
	// detailed responses echo the wrapped error text instead of the sentinel's.
	detailed bool
}

var serviceErrors = []errorMapping{
	{target: service.ErrNotYetOpen, status: fiber.StatusConflict, code: CodeNotYetOpen},
	{target: service.ErrClosed, status: fiber.StatusConflict, code: CodeClosed},
	{target: service.ErrAlreadySubmitted, status: fiber.StatusConflict, code: CodeAlreadySubmitted},
	{target: service.ErrAttemptExpired, status: fiber.StatusConflict, code: CodeAttemptExpired},
	{target: service.ErrNotGradable, status: fiber.StatusConflict, code: CodeNotGradable},
	{target: service.ErrAssessmentLocked, status: fiber.StatusConflict, code: CodeAssessmentLocked},
	{target: service.ErrInvalidScore, status: fiber.StatusBadRequest, code: CodeInvalidScore, detailed: true},
	{target: service.ErrPendingAnswers, status: fiber.StatusBadRequest, code: CodePendingAnswers},
	{target: service.ErrInvalidQuestion, status: fiber.StatusBadRequest, code: CodeInvalidQuestion, detailed: true},
	{target: service.ErrQuestionNotFound, status: fiber.StatusBadRequest, code: CodeInvalidAnswer},
	{target: service.ErrInvalidOption, status: fiber.StatusBadRequest, code: CodeInvalidAnswer},
	{target: service.ErrAssessmentNotFound, status: fiber.StatusNotFound, code: CodeNotFound},
	{target: service.ErrSubmissionNotFound, status: fiber.StatusNotFound, code: CodeNotFound},
	{target: service.ErrNotSubmissionOwner, status: fiber.StatusForbidden, code: CodeForbidden},
	{target: service.ErrUploadMissing, status: fiber.StatusBadRequest, code: CodeInvalidUpload},
	{target: service.ErrUploadTooLarge, status: fiber.StatusRequestEntityTooLarge, code: CodeInvalidUpload},
	{target: service.ErrUploadTypeNotAllowed, status: fiber.StatusUnsupportedMediaType, code: CodeInvalidUpload},
}

// respondError translates service errors into the JSON error envelope.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, CodeValidationFailed, validationErrors.Error(), nil)
	}

	for _, mapping := range serviceErrors {
		if !errors.Is(err, mapping.target) {
			continue
		}
		message := mapping.target.Error()
		if mapping.detailed {
			message = err.Error()
		}
		return utils.SendErrorWithCode(c, mapping.status, mapping.code, message, nil)
	}

	requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := strings.TrimSpace(c.Params(name))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid " + name)
	}
	return uint(parsed), nil
}

func parseQueryUint(c *fiber.Ctx, key string) (*uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, errors.New("invalid " + key)
	}
	result := uint(parsed)
	return &result, nil
}

func parseFormUint(c *fiber.Ctx, key string) (*uint, error) {
	value := strings.TrimSpace(c.FormValue(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, errors.New("invalid " + key)
	}
	result := uint(parsed)
	return &result, nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return strings.ToLower(strings.TrimSpace(role))
		}
	}
	return ""
}

func withRequestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}
