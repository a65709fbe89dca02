package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/dialog-bot/internal/common"
	"github.com/suPer8Hu/dialog-bot/internal/httpapi/middleware"
	"github.com/suPer8Hu/dialog-bot/internal/session"
	"go.uber.org/zap"
)

const (
	ModeNormal = "normal"
	ModeAdmin  = "admin"
)

type sendMessageReq struct {
	Message   string `json:"message" binding:"required"`
	Mode      string `json:"mode" binding:"required,oneof=normal admin"`
	SessionID string `json:"session_id" binding:"required"`
}

type sendMessageResp struct {
	Message   string  `json:"message"`
	SQLQuery  *string `json:"sql_query"`
	SessionID string  `json:"session_id"`
}

func (h *Handler) SendChatMessage(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid request: message, mode (normal|admin) and session_id are required")
		return
	}

	uid := session.ToUserID(req.SessionID)
	log := h.Log.With(
		zap.Int64("user_id", uid),
		zap.String("mode", req.Mode),
		zap.String("request_id", middleware.GetRequestID(c)),
	)

	if req.Mode == ModeAdmin {
		if h.AdminSecret != "" && !middleware.AuthorizeAdmin(c, h.AdminSecret) {
			log.Warn("admin_mode_unauthorized")
			return
		}
		res := h.Admin.Process(c.Request.Context(), uid, req.Message)
		c.JSON(http.StatusOK, sendMessageResp{Message: res.Message, SQLQuery: res.SQL, SessionID: req.SessionID})
		return
	}

	reply, err := h.Chat.Reply(c.Request.Context(), uid, req.Message)
	if err != nil {
		log.Error("chat_processing_error", zap.String("op", "reply"), zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to process message")
		return
	}
	c.JSON(http.StatusOK, sendMessageResp{Message: reply, SessionID: req.SessionID})
}

type clearReq struct {
	SessionID string `json:"session_id" binding:"required"`
}

func (h *Handler) ClearChat(c *gin.Context) {
	var req clearReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid request: session_id is required")
		return
	}

	if err := h.Chat.Clear(c.Request.Context(), session.ToUserID(req.SessionID)); err != nil {
		h.Log.Error("chat_clear_error", zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to clear chat")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Chat history cleared"})
}

func (h *Handler) NewChatSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"session_id": session.NewToken()})
}
