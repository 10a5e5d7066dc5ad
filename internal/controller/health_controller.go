package controller

import (
	"symptom-checker-be/internal/pkg/serverutils"
	"symptom-checker-be/internal/repository/contract"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	sessions contract.SessionRepository
}

func NewHealthController(sessions contract.SessionRepository) IHealthController {
	return &healthController{sessions: sessions}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/healthz", c.Health)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("ok", fiber.Map{
		"live_sessions": c.sessions.Count(),
	}))
}
