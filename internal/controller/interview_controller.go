package controller

import (
	"symptom-checker-be/internal/dto"
	"symptom-checker-be/internal/pkg/serverutils"
	"symptom-checker-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IInterviewController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Start(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	SetDemographics(ctx *fiber.Ctx) error
	SubmitSymptoms(ctx *fiber.Ctx) error
	RequestStep(ctx *fiber.Ctx) error
	Answer(ctx *fiber.Ctx) error
	Select(ctx *fiber.Ctx) error
	Confirm(ctx *fiber.Ctx) error
	Extend(ctx *fiber.Ctx) error
	Finish(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
	Explain(ctx *fiber.Ctx) error
}

type interviewController struct {
	service service.IInterviewService
}

func NewInterviewController(service service.IInterviewService) IInterviewController {
	return &interviewController{service: service}
}

// RegisterRoutes mounts the interview API. The stream route is registered by
// the websocket handler because it authenticates from the query string.
func (c *interviewController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/interview/v1")
	h.Use(auth)
	h.Post("", c.Start)
	h.Get(":id", c.Show)
	h.Post(":id/demographics", c.SetDemographics)
	h.Post(":id/symptoms", c.SubmitSymptoms)
	h.Post(":id/step", c.RequestStep)
	h.Post(":id/answer", c.Answer)
	h.Post(":id/selection", c.Select)
	h.Post(":id/confirm", c.Confirm)
	h.Post(":id/extend", c.Extend)
	h.Post(":id/finish", c.Finish)
	h.Post(":id/reset", c.Reset)
	h.Post(":id/explanation", c.Explain)
}

func (c *interviewController) Start(ctx *fiber.Ctx) error {
	res, err := c.service.Start(ctx.UserContext(), serverutils.UserID(ctx))
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Interview started", res))
}

func (c *interviewController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.Show(ctx.UserContext(), serverutils.UserID(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show interview", res))
}

func (c *interviewController) SetDemographics(ctx *fiber.Ctx) error {
	var req dto.DemographicsRequest
	if err := bindRequest(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.SetDemographics(ctx.UserContext(), serverutils.UserID(ctx), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Demographics saved", res))
}

func (c *interviewController) SubmitSymptoms(ctx *fiber.Ctx) error {
	var req dto.SymptomsRequest
	if err := bindRequest(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.SubmitSymptoms(ctx.UserContext(), serverutils.UserID(ctx), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Symptoms submitted", res))
}

func (c *interviewController) RequestStep(ctx *fiber.Ctx) error {
	res, err := c.service.RequestStep(ctx.UserContext(), serverutils.UserID(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Diagnosis step completed", res))
}

func (c *interviewController) Answer(ctx *fiber.Ctx) error {
	var req dto.AnswerRequest
	if err := bindRequest(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Answer(ctx.UserContext(), serverutils.UserID(ctx), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Answer recorded", res))
}

func (c *interviewController) Select(ctx *fiber.Ctx) error {
	var req dto.SelectionRequest
	if err := bindRequest(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Select(ctx.UserContext(), serverutils.UserID(ctx), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Selection saved", res))
}

func (c *interviewController) Confirm(ctx *fiber.Ctx) error {
	res, err := c.service.Confirm(ctx.UserContext(), serverutils.UserID(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Selections confirmed", res))
}

func (c *interviewController) Extend(ctx *fiber.Ctx) error {
	res, err := c.service.Extend(ctx.UserContext(), serverutils.UserID(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Interview extended", res))
}

func (c *interviewController) Finish(ctx *fiber.Ctx) error {
	res, err := c.service.Finish(ctx.UserContext(), serverutils.UserID(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Interview finished", res))
}

func (c *interviewController) Reset(ctx *fiber.Ctx) error {
	res, err := c.service.Reset(ctx.UserContext(), serverutils.UserID(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Interview reset", res))
}

func (c *interviewController) Explain(ctx *fiber.Ctx) error {
	res, err := c.service.Explain(ctx.UserContext(), serverutils.UserID(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success generate explanation", res))
}

// bindRequest parses and validates the JSON body. Malformed JSON is a 400
// like any other request error.
func bindRequest(ctx *fiber.Ctx, req interface{}) error {
	if err := ctx.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return serverutils.ValidateRequest(req)
}
