package controller

import (
	"symptom-checker-be/internal/pkg/serverutils"
	"symptom-checker-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAssessmentController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler, secret string)
	Show(ctx *fiber.Ctx) error
	GetMine(ctx *fiber.Ctx) error
}

type assessmentController struct {
	service service.IAssessmentService
}

func NewAssessmentController(service service.IAssessmentService) IAssessmentController {
	return &assessmentController{service: service}
}

// RegisterRoutes mounts the assessment API. Listing always needs a signed
// in user, so it gets the strict middleware regardless of auth.
func (c *assessmentController) RegisterRoutes(r fiber.Router, auth fiber.Handler, secret string) {
	h := r.Group("/assessment/v1")
	h.Get("", serverutils.JwtMiddleware(secret), c.GetMine)
	h.Get(":id", auth, c.Show)
}

func (c *assessmentController) Show(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid assessment id")
	}

	res, err := c.service.Show(ctx.UserContext(), serverutils.UserID(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show assessment", res))
}

func (c *assessmentController) GetMine(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 20)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.service.GetMine(ctx.UserContext(), serverutils.UserID(ctx), limit, offset)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get assessments", res))
}
