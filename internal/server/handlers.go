package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/abhisek/picwrite/internal/pipeline"
)

type errorResponse struct {
	Error string `json:"error"`
}

type modelsResponse struct {
	Default string           `json:"default"`
	Models  []pipeline.Model `json:"models"`
}

func (s *Server) index(c *fiber.Ctx) error {
	return s.sendPage(c, fiber.StatusOK, newPageData())
}

func (s *Server) submitForm(c *fiber.Ctx) error {
	data := newPageData()

	var req evaluateRequest
	if err := c.BodyParser(&req); err != nil {
		data.Error = "invalid form submission"
		return s.sendPage(c, fiber.StatusBadRequest, data)
	}
	req.normalize()

	data.ImageURL = req.ImageURL
	data.Paragraph = req.Paragraph
	if req.Model != "" {
		data.Model = req.Model
	}

	if err := s.validate.Struct(req); err != nil {
		data.Error = validationMessage(err)
		return s.sendPage(c, fiber.StatusBadRequest, data)
	}

	out, err := s.runner.Run(c.UserContext(), req.pipelineRequest())
	if err != nil {
		s.logger.Warn().Err(err).Str("correlation_id", getCorrelationID(c)).Msg("evaluation aborted")
		data.Error = "evaluation was interrupted, please try again"
		return s.sendPage(c, fiber.StatusServiceUnavailable, data)
	}

	data.Result = out
	return s.sendPage(c, fiber.StatusOK, data)
}

func (s *Server) evaluateJSON(c *fiber.Ctx) error {
	var req evaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	req.normalize()

	if err := s.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
	}

	out, err := s.runner.Run(c.UserContext(), req.pipelineRequest())
	if err != nil {
		s.logger.Warn().Err(err).Str("correlation_id", getCorrelationID(c)).Msg("evaluation aborted")
		return fiber.NewError(fiber.StatusServiceUnavailable, "evaluation was interrupted")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Status(fiber.StatusOK).SendString(out)
}

func (s *Server) models(c *fiber.Ctx) error {
	return c.JSON(modelsResponse{
		Default: pipeline.KnownModels[0].ID,
		Models:  pipeline.KnownModels,
	})
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) sendPage(c *fiber.Ctx, status int, data pageData) error {
	body, err := renderPage(data)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(body)
}
