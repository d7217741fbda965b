package api

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	apperrors "edugrant-workers/internal/common/errors"
	"edugrant-workers/internal/common/validation"
	"edugrant-workers/internal/recommend"
)

const readinessTimeout = 2 * time.Second

type errorBody struct {
	Code    string                       `json:"code"`
	Message string                       `json:"message"`
	Details []validation.ValidationError `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// unpersistedResponse carries a ranking whose persistence failed.
type unpersistedResponse struct {
	*recommend.Response
	Persisted bool      `json:"persisted"`
	Error     errorBody `json:"error"`
}

func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": s.opts.Name + " operational",
		"version": s.opts.Version,
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	status := fiber.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = fiber.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != fiber.StatusOK {
		state = "not_ready"
	}
	return c.Status(status).JSON(fiber.Map{"status": state, "checks": results})
}

func (s *Server) handlePredict(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		body = []byte("{}")
	}

	result := s.validator.ValidateJSON(body)
	if !result.Valid {
		stdErr := apperrors.NewInvalidRequestError(result.Error())
		return c.Status(apperrors.HTTPStatus(stdErr.Code)).JSON(errorResponse{Error: errorBody{
			Code:    string(stdErr.Code),
			Message: stdErr.Message,
			Details: result.Errors,
		}})
	}

	var req recommend.Request
	if err := json.Unmarshal(body, &req); err != nil {
		stdErr := apperrors.NewInvalidRequestError(err.Error())
		return c.Status(apperrors.HTTPStatus(stdErr.Code)).JSON(errorResponse{Error: errorBody{
			Code:    string(stdErr.Code),
			Message: stdErr.Message,
		}})
	}

	resp, err := s.service.Recommend(c.UserContext(), &req)
	if err == nil {
		return c.JSON(resp)
	}

	stdErr := recommend.Classify(err)
	status := apperrors.HTTPStatus(stdErr.Code)
	s.logger.Warn("recommendation request failed", map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"details":   stdErr.Details,
		"userId":    req.UserID,
		"status":    status,
		"requestId": c.Locals("requestid"),
	})

	if errors.Is(err, recommend.ErrSinkWrite) && resp != nil {
		return c.Status(status).JSON(unpersistedResponse{
			Response:  resp,
			Persisted: false,
			Error:     errorBody{Code: string(stdErr.Code), Message: stdErr.Message},
		})
	}
	return c.Status(status).JSON(errorResponse{Error: errorBody{Code: string(stdErr.Code), Message: stdErr.Message}})
}
