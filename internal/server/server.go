// Package server exposes the evaluation pipeline over HTTP: an HTML form
// for learners and a small JSON API.
package server

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/abhisek/picwrite/internal/pipeline"
)

// Runner runs one evaluation and returns the JSON report.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (string, error)
}

// Options configures a Server.
type Options struct {
	Logger zerolog.Logger

	// Registry receives HTTP metrics and backs GET /metrics.
	// Default: a fresh registry.
	Registry *prometheus.Registry
}

// Server is the HTTP front end.
type Server struct {
	app      *fiber.App
	runner   Runner
	validate *validator.Validate
	logger   zerolog.Logger
}

// New builds the Fiber app and registers all routes.
func New(runner Runner, opts Options) *Server {
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		runner:   runner,
		validate: newValidator(),
		logger:   opts.Logger.With().Str("component", "server").Logger(),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "picwrite",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(recover.New())
	s.app.Use(correlationID())
	s.app.Use(observe(newHTTPMetrics(reg), s.logger))

	s.app.Get("/", s.index)
	s.app.Post("/evaluate", s.submitForm)
	s.app.Get("/health", s.health)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := s.app.Group("/api", cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET,POST,OPTIONS",
	}))
	api.Post("/evaluate", s.evaluateJSON)
	api.Get("/models", s.models)

	return s
}

// App exposes the underlying Fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves HTTP on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("listening")
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	return c.Status(code).JSON(errorResponse{Error: message})
}
