package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/memorygarden/drawing-analyzer/pkg/gateway"
)

// UserHandler proxies account and game-result requests to the storage
// service.
type UserHandler struct {
	gateway *gateway.Client
	logger  *logrus.Logger
}

// NewUserHandler creates a UserHandler backed by the given gateway client.
func NewUserHandler(gw *gateway.Client, logger *logrus.Logger) *UserHandler {
	return &UserHandler{gateway: gw, logger: logger}
}

// RegisterRoutes registers the user routes.
func (h *UserHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/signup", h.Signup)
	router.POST("/login", h.Login)
	router.POST("/game/clear", h.SaveGameResult)
	router.GET("/game/result", h.LatestResults)
	router.GET("/health/db", h.CheckDBHealth)
}

// Signup forwards account creation to the storage service.
func (h *UserHandler) Signup(c *gin.Context) {
	var req gateway.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "잘못된 요청 형식입니다."})
		return
	}

	resp, err := h.gateway.Signup(c.Request.Context(), req)
	if err != nil {
		h.forwardError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", resp)
}

// Login forwards a credential check to the storage service.
func (h *UserHandler) Login(c *gin.Context) {
	var req gateway.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "잘못된 요청 형식입니다."})
		return
	}

	resp, err := h.gateway.Login(c.Request.Context(), req)
	if err != nil {
		h.forwardError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", resp)
}

// SaveGameResult forwards a stage result record to the storage service.
func (h *UserHandler) SaveGameResult(c *gin.Context) {
	var req gateway.GameResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "잘못된 요청 형식입니다."})
		return
	}

	resp, err := h.gateway.SaveGameResult(c.Request.Context(), req)
	if err != nil {
		h.forwardError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", resp)
}

// LatestResults proxies the storage service's plain-text result listing.
func (h *UserHandler) LatestResults(c *gin.Context) {
	text, err := h.gateway.LatestResults(c.Request.Context())
	if err != nil {
		h.forwardError(c, err)
		return
	}
	c.String(http.StatusOK, text)
}

// CheckDBHealth probes the storage service.
func (h *UserHandler) CheckDBHealth(c *gin.Context) {
	c.JSON(http.StatusOK, h.gateway.CheckHealth(c.Request.Context()))
}

// forwardError keeps the upstream HTTP status when the storage service
// answered, and reports 503 when it was unreachable.
func (h *UserHandler) forwardError(c *gin.Context, err error) {
	var statusErr *gateway.StatusError
	if errors.As(err, &statusErr) {
		c.JSON(statusErr.StatusCode, gin.H{"detail": statusErr.Detail})
		return
	}
	h.logger.WithError(err).Error("DB 서버 연결 실패")
	c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "DB 서버에 연결할 수 없습니다."})
}
