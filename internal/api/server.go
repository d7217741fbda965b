// Package api exposes the recommendation service over HTTP.
package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"edugrant-workers/internal/common/logger"
	"edugrant-workers/internal/common/validation"
	"edugrant-workers/internal/recommend"
)

type Options struct {
	Name         string
	Version      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  string
}

// ReadinessCheck reports whether a backing dependency is reachable.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	app       *fiber.App
	service   *recommend.Service
	validator *validation.Validator
	logger    logger.Logger
	opts      Options
	checks    map[string]ReadinessCheck
}

func NewServer(service *recommend.Service, opts Options, log logger.Logger) *Server {
	if opts.Name == "" {
		opts.Name = "EduGrant Finder API"
	}
	if opts.CORSOrigins == "" {
		opts.CORSOrigins = "*"
	}

	s := &Server{
		service:   service.WithTransport("http"),
		validator: validation.MustNewValidator(validation.RecommendationRequestSchema),
		logger:    log.WithFields(map[string]interface{}{"component": "api"}),
		opts:      opts,
		checks:    make(map[string]ReadinessCheck),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               opts.Name,
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	s.app.Use(s.requestLogger)
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: opts.CORSOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	s.app.Get("/", s.handleRoot)
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/ready", s.handleReady)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	s.app.Post("/predict", s.handlePredict)

	return s
}

// AddReadinessCheck registers a dependency checked by GET /ready.
func (s *Server) AddReadinessCheck(name string, check ReadinessCheck) {
	s.checks[name] = check
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", map[string]interface{}{"address": addr})
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}

	fields := map[string]interface{}{
		"method":     c.Method(),
		"path":       c.Path(),
		"status":     status,
		"durationMs": time.Since(start).Milliseconds(),
		"requestId":  c.Locals("requestid"),
	}
	if status >= fiber.StatusInternalServerError {
		s.logger.Warn("request completed", fields)
	} else {
		s.logger.Debug("request completed", fields)
	}
	return err
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if fe, ok := err.(*fiber.Error); ok {
		code = fe.Code
		message = fe.Message
	}
	return c.Status(code).JSON(errorResponse{Error: errorBody{Code: httpCode(code), Message: message}})
}

func httpCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	default:
		if status < fiber.StatusInternalServerError {
			return "BAD_REQUEST"
		}
		return "INTERNAL_ERROR"
	}
}
