// Package recommend runs one ranking request end to end: fetch the catalog, resolve the
// profile, rank, and persist.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "edugrant-workers/internal/common/errors"
	"edugrant-workers/internal/common/logger"
	"edugrant-workers/internal/common/metrics"

	"edugrant-workers/internal/catalog"
	"edugrant-workers/internal/models"
	"edugrant-workers/internal/profile"
	"edugrant-workers/internal/scoring"
	"edugrant-workers/internal/sink"
)

// Stage sentinels. Collaborator failures are wrapped with the stage they happened in.
var (
	ErrCatalogFetch = errors.New("CATALOG_FETCH_FAILED")
	ErrProfileFetch = errors.New("PROFILE_FETCH_FAILED")
	ErrSinkWrite    = errors.New("SINK_WRITE_FAILED")
)

// Recorder receives one observation per request.
type Recorder interface {
	RecordRecommendation(ctx context.Context, transport, outcome string, duration time.Duration)
}

type Service struct {
	catalog      catalog.Source
	profiles     profile.Store
	sink         sink.Sink
	engine       *scoring.Engine
	logger       logger.Logger
	recorder     Recorder
	transport    string
	defaultLimit int
}

func NewService(
	src catalog.Source,
	profiles profile.Store,
	out sink.Sink,
	engine *scoring.Engine,
	log logger.Logger,
	defaultLimit int,
) *Service {
	if out == nil {
		out = sink.NopSink{}
	}
	if defaultLimit <= 0 {
		defaultLimit = scoring.DefaultLimit
	}
	return &Service{
		catalog:      src,
		profiles:     profiles,
		sink:         out,
		engine:       engine,
		logger:       log.WithFields(map[string]interface{}{"component": "recommend"}),
		transport:    "direct",
		defaultLimit: defaultLimit,
	}
}

// WithRecorder attaches an extra observer, typically the OpenTelemetry meter.
func (s *Service) WithRecorder(r Recorder) *Service {
	c := *s
	c.recorder = r
	return &c
}

// WithTransport returns a copy whose metrics are labelled with the given transport.
func (s *Service) WithTransport(name string) *Service {
	c := *s
	c.transport = name
	c.logger = s.logger.WithFields(map[string]interface{}{"transport": name})
	return &c
}

func (s *Service) DefaultLimit() int {
	return s.defaultLimit
}

// Recommend ranks the catalog for the request. When persistence fails the full response
// is still returned together with an error wrapping ErrSinkWrite.
func (s *Service) Recommend(ctx context.Context, req *Request) (resp *Response, err error) {
	start := time.Now()
	defer func() {
		s.observe(ctx, start, err)
	}()

	if req == nil {
		req = &Request{}
	}
	limit := s.defaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must be >= 0, got %d", scoring.ErrInvalidLimit, limit)
	}

	offers, err := s.catalog.FetchCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogFetch, err)
	}
	if len(offers) == 0 {
		return nil, scoring.ErrCatalogEmpty
	}

	prof, err := s.resolveProfile(ctx, req)
	if err != nil {
		return nil, err
	}

	ranked, err := s.engine.Rank(ctx, prof, offers, limit)
	if err != nil {
		return nil, err
	}

	resp = &Response{Count: len(ranked), Recommendations: make([]Recommendation, 0, len(ranked))}
	for _, r := range ranked {
		resp.Recommendations = append(resp.Recommendations, Recommendation{
			ScholarshipID: r.OfferID,
			Score:         r.Score,
			Scholarship:   r.Offer,
		})
	}

	if req.UserID == "" {
		return resp, nil
	}
	userID := req.UserID
	resp.UserID = &userID

	if err := s.sink.PersistResults(ctx, userID, resp.Scored()); err != nil {
		s.logger.Error("failed to persist recommendations", map[string]interface{}{
			"userId": userID,
			"count":  resp.Count,
			"error":  err.Error(),
		})
		return resp, fmt.Errorf("%w: %w", ErrSinkWrite, err)
	}
	return resp, nil
}

func (s *Service) resolveProfile(ctx context.Context, req *Request) (models.Profile, error) {
	if req.UserID == "" {
		return req.Profile, nil
	}
	if s.profiles == nil {
		return nil, fmt.Errorf("%w: no profile store configured", ErrProfileFetch)
	}
	prof, err := s.profiles.FetchProfile(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: user %s: %w", ErrProfileFetch, req.UserID, err)
	}
	return prof, nil
}

func (s *Service) observe(ctx context.Context, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(Classify(err).Code)
	}
	duration := time.Since(start)

	metrics.RecommendationRequests.WithLabelValues(outcome).Inc()
	metrics.RecommendationDuration.WithLabelValues(s.transport).Observe(duration.Seconds())
	if s.recorder != nil {
		s.recorder.RecordRecommendation(ctx, s.transport, outcome, duration)
	}
}

// Classify maps a Recommend error onto the shared error codes.
func Classify(err error) *apperrors.StandardError {
	var stdErr *apperrors.StandardError
	switch {
	case errors.As(err, &stdErr):
		return stdErr
	case errors.Is(err, scoring.ErrCatalogEmpty):
		return apperrors.NewCatalogEmptyError()
	case errors.Is(err, scoring.ErrProfileMissing):
		return apperrors.NewProfileMissingError("profile has no usable attributes")
	case errors.Is(err, scoring.ErrInvalidLimit):
		return apperrors.NewInvalidRequestError(err.Error())
	case errors.Is(err, ErrSinkWrite):
		return apperrors.NewSinkWriteFailedError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError(stageOf(err), err)
	case errors.Is(err, ErrCatalogFetch):
		return apperrors.NewCatalogFetchFailedError(err)
	case errors.Is(err, ErrProfileFetch):
		return apperrors.NewProfileFetchFailedError("", err)
	case errors.Is(err, scoring.ErrScoringInternal):
		return apperrors.NewScoringInternalError(err)
	default:
		return apperrors.NewInternalError(err)
	}
}

func stageOf(err error) string {
	switch {
	case errors.Is(err, ErrCatalogFetch):
		return "catalog"
	case errors.Is(err, ErrProfileFetch):
		return "profile"
	default:
		return "scoring"
	}
}
