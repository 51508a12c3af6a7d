package handler

import (
	"context"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	drawinganalyzer "github.com/memorygarden/drawing-analyzer"
	"github.com/memorygarden/drawing-analyzer/internal/utils"
	"github.com/memorygarden/drawing-analyzer/pkg/gateway"
	"github.com/memorygarden/drawing-analyzer/pkg/types"
)

// AnalyzeHandler serves the drawing analysis endpoint.
type AnalyzeHandler struct {
	analyzer  *drawinganalyzer.DrawingAnalyzer
	uploadDir string
	logger    *logrus.Logger
}

// NewAnalyzeHandler creates an AnalyzeHandler storing uploads under uploadDir.
func NewAnalyzeHandler(analyzer *drawinganalyzer.DrawingAnalyzer, uploadDir string, logger *logrus.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzer:  analyzer,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// RegisterRoutes registers the analysis routes.
func (h *AnalyzeHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/analyze/", h.Analyze)
	router.GET("/health", h.CheckHealth)
}

// Analyze accepts a multipart form with stage, image and description, runs
// the pipeline and returns the analysis result. When a username field
// accompanies the form, a successful result is also stored through the
// gateway. The uploaded file is removed on every exit path.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	stageStr := c.PostForm("stage")
	stage, err := strconv.Atoi(stageStr)
	if err != nil {
		h.logger.Errorf("stage 파라미터 파싱 실패: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "stage는 정수여야 합니다."})
		return
	}

	description := c.PostForm("description")

	fh, err := c.FormFile("image")
	if err != nil {
		h.logger.Errorf("image 파일 누락: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "image 파일이 필요합니다."})
		return
	}
	if !utils.IsImageFile(fh.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "지원하지 않는 이미지 형식입니다."})
		return
	}

	savedPath, err := utils.SaveUpload(fh, h.uploadDir)
	if err != nil {
		h.logger.Errorf("업로드 저장 실패: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "업로드 파일을 저장할 수 없습니다."})
		return
	}
	defer os.Remove(savedPath)

	result := h.analyzer.AnalyzeStage(c.Request.Context(), savedPath, description, stage)

	if username := c.PostForm("username"); username != "" && result.Success {
		h.saveResult(c.Request.Context(), username, stage, result)
	}

	c.JSON(http.StatusOK, result)
}

// saveResult records a successful analysis under the player's account. The
// save is best-effort: a storage failure is logged and the analysis response
// still goes out.
func (h *AnalyzeHandler) saveResult(ctx context.Context, username string, stage int, result *types.Result) {
	gw := h.analyzer.Gateway()
	if gw == nil {
		return
	}

	_, err := gw.SaveGameResult(ctx, gateway.GameResultRequest{
		Username:          username,
		ResultText:        result.Interpretation,
		Emotion:           string(result.Emotion),
		EmotionConfidence: result.EmotionConfidence,
		StageNumber:       stage,
	})
	if err != nil {
		h.logger.WithError(err).WithField("username", username).Warn("분석 결과 저장 실패")
	}
}

// CheckHealth reports service liveness.
func (h *AnalyzeHandler) CheckHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
