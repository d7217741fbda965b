// internal/workers/recommendation/rank-offers/handler.go
package rankoffers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "edugrant-workers/internal/common/errors"
	"edugrant-workers/internal/common/logger"
	"edugrant-workers/internal/common/validation"
	"edugrant-workers/internal/recommend"
)

const (
	TaskType = "rank-offers"
)

type Handler struct {
	config       *Config
	service      *recommend.Service
	validator    *validation.Validator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, service *recommend.Service, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service.WithTransport("zeebe"),
		validator:    validation.MustNewValidator(validation.RecommendationRequestSchema),
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

// Handle ranks offers for one job. The returned error has already been reported to the
// broker and only feeds worker metrics.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job.Variables)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	return h.completeJob(ctx, client, job, output)
}

func (h *Handler) parseInput(variables string) (*Input, error) {
	if result := h.validator.ValidateJSON([]byte(variables)); !result.Valid {
		return nil, apperrors.NewInvalidRequestError(result.Error())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, apperrors.NewInvalidRequestError("input cannot be nil")
	}

	resp, err := h.service.Recommend(ctx, input.Request())
	if err != nil {
		return nil, recommend.Classify(err)
	}

	return &Output{
		UserID:          resp.UserID,
		Count:           resp.Count,
		Recommendations: resp.Recommendations,
		Persisted:       resp.UserID != nil,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return err
	}
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
