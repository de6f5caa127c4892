package handlers

import (
	"strings"

	"directory_backend/internal/logger"
	"directory_backend/internal/middleware"
	"directory_backend/internal/realtime"
	"directory_backend/internal/services"
	"directory_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSHandler - подписка на ленту изменений: /ws?topics=site_status,profile:<id>
type WSHandler struct {
	*BaseHandler
	hub         *realtime.Hub
	upgrader    websocket.Upgrader
	authService services.AuthService
}

func NewWSHandler(base *BaseHandler, hub *realtime.Hub, authService services.AuthService, allowOrigins []string) *WSHandler {
	return &WSHandler{
		BaseHandler: base,
		hub:         hub,
		upgrader:    realtime.NewUpgrader(allowOrigins),
		authService: authService,
	}
}

func (h *WSHandler) ServeWS(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	isAdmin := false
	if userID != "" {
		var err error
		if isAdmin, err = h.authService.IsAdmin(h.GetDB(c), userID); err != nil {
			logger.CtxWarn(ctx, "Admin check for websocket failed", "error", err)
		}
	}

	topics := make([]string, 0)
	for _, t := range strings.Split(c.Query("topics"), ",") {
		t = strings.TrimSpace(t)
		if t != "" && realtime.AllowedTopic(t, userID, isAdmin) {
			topics = append(topics, t)
		}
	}
	if len(topics) == 0 {
		apperrors.HandleError(c, apperrors.NewBadRequestError("No allowed topics requested"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		logger.CtxWarn(ctx, "Websocket upgrade failed", "error", err)
		return
	}

	clientID := uuid.NewString()
	logger.CtxDebug(ctx, "Websocket client connected", "client_id", clientID, "topics", topics)
	h.hub.Serve(conn, clientID, topics)
}
