package handler

import (
	"strings"

	"symptom-checker-be/internal/pkg/logger"
	"symptom-checker-be/internal/pkg/serverutils"
	"symptom-checker-be/internal/service"
	internalWS "symptom-checker-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// InterviewStreamHandler upgrades to a websocket that receives the leading
// conditions, emergencies and the final result of one interview.
type InterviewStreamHandler struct {
	service     service.IInterviewService
	hub         *internalWS.Hub
	secret      string
	requireAuth bool
	logger      logger.ILogger
}

func NewInterviewStreamHandler(svc service.IInterviewService, hub *internalWS.Hub, secret string, requireAuth bool, log logger.ILogger) *InterviewStreamHandler {
	return &InterviewStreamHandler{
		service:     svc,
		hub:         hub,
		secret:      secret,
		requireAuth: requireAuth,
		logger:      log,
	}
}

func (h *InterviewStreamHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/interview/v1/:id/stream", h.Stream)
}

// Stream authenticates before the upgrade. Browsers cannot set headers on a
// websocket handshake, so the token may also come as ?token=.
func (h *InterviewStreamHandler) Stream(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	tokenStr := c.Query("token")
	if tokenStr == "" {
		tokenStr = strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	}

	var userID string
	if tokenStr != "" {
		claims, err := serverutils.ParseToken(tokenStr, h.secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, err.Error()))
		}
		userID, _ = claims[serverutils.UserIDKey].(string)
	} else if h.requireAuth {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
	}

	sessionKey := c.Params("id")
	if err := h.service.Authorize(c.UserContext(), userID, sessionKey); err != nil {
		return err
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("StreamHandler", "Stream opened", map[string]interface{}{"session_key": sessionKey})
		internalWS.ServeWs(h.hub, conn, sessionKey)
		h.logger.Info("StreamHandler", "Stream closed", map[string]interface{}{"session_key": sessionKey})
	})(c)
}
