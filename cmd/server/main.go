package main

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	drawinganalyzer "github.com/memorygarden/drawing-analyzer"
	"github.com/memorygarden/drawing-analyzer/internal/config"
	"github.com/memorygarden/drawing-analyzer/internal/handler"
	"github.com/memorygarden/drawing-analyzer/internal/utils"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.Info("그림 분석 서버 시작")

	cfg := loadConfig(logger)

	if err := utils.EnsureDir(cfg.Server.UploadDir); err != nil {
		logger.Fatalf("업로드 디렉토리 생성 실패: %v", err)
	}

	analyzer, err := drawinganalyzer.New(cfg, logger)
	if err != nil {
		logger.Fatalf("분석기 초기화 실패: %v", err)
	}

	if os.Getenv("ENVIRONMENT") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handler.NewAnalyzeHandler(analyzer, cfg.Server.UploadDir, logger).RegisterRoutes(router)
	handler.NewUserHandler(analyzer.Gateway(), logger).RegisterRoutes(router)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Drawing Analyzer API Server",
			"version": drawinganalyzer.Version,
			"status":  "running",
		})
	})

	logger.Infof("서버 주소: %s", cfg.Server.Addr)
	if err := router.Run(cfg.Server.Addr); err != nil {
		logger.Fatalf("서버 시작 실패: %v", err)
	}
}

// loadConfig reads the config file named by CONFIG_PATH, falling back to
// defaults with environment overrides when no file is present.
func loadConfig(logger *logrus.Logger) *config.Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = config.GetConfigPath()
	}

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		logger.WithError(err).Warnf("설정 파일을 읽을 수 없어 기본값 사용: %s", path)
		cfg = config.Default()
		cfg.ApplyEnv()
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("설정 검증 실패: %v", err)
	}
	return cfg
}
