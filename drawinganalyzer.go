// Package drawinganalyzer provides psychological drawing analysis for
// house-tree-person and person-in-rain assessments.
//
// This package combines object detection, spatial feature extraction and
// rule-based interpretation with an external vision-language model to turn
// a child's drawing into a structured interpretation and emotion estimate.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		drawinganalyzer "github.com/memorygarden/drawing-analyzer"
//	)
//
//	func main() {
//		// nil config uses the default local endpoints
//		da, err := drawinganalyzer.New(nil, nil)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		result := da.AnalyzeStage(context.Background(), "drawing.jpg", "비 오는 날 그림", 1)
//		fmt.Printf("emotion: %s (%.2f)\n", result.Emotion, result.EmotionConfidence)
//		fmt.Println(result.Interpretation)
//	}
//
// The package consists of four main components:
//
// 1. Confidence (pkg/confidence): Partitions detections into high/low tiers
// 2. Geometry (pkg/geometry): Extracts position and relative-size features
// 3. Interpret (pkg/interpret): HTP and PITR rule engines
// 4. Analysis (pkg/analysis): The confidence-branching pipeline
//
// Detection runs against an external model server (pkg/detector), and the
// expert interpretation comes from an Ollama or OpenAI-compatible
// vision-language model (pkg/gpt). Every analysis produces a well-formed
// result even when both collaborators are unreachable.
package drawinganalyzer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/memorygarden/drawing-analyzer/internal/config"
	"github.com/memorygarden/drawing-analyzer/pkg/analysis"
	"github.com/memorygarden/drawing-analyzer/pkg/client"
	"github.com/memorygarden/drawing-analyzer/pkg/detector"
	"github.com/memorygarden/drawing-analyzer/pkg/gateway"
	"github.com/memorygarden/drawing-analyzer/pkg/gpt"
	"github.com/memorygarden/drawing-analyzer/pkg/ollama"
	"github.com/memorygarden/drawing-analyzer/pkg/openai"
	"github.com/memorygarden/drawing-analyzer/pkg/types"
)

// Version of the drawing analyzer library
const Version = "1.0.0"

// DrawingAnalyzer provides a high-level interface over the full pipeline.
type DrawingAnalyzer struct {
	pipeline *analysis.Pipeline
	registry *detector.Registry
	gateway  *gateway.Client
	logger   *logrus.Logger
}

// New builds an analyzer from configuration. The interpreter backend is
// selected by cfg.Interpreter.Backend; an unknown backend is an error, but
// an unreachable one is not — the pipeline degrades per request instead.
func New(cfg *config.Config, logger *logrus.Logger) (*DrawingAnalyzer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.New()
	}

	chat, err := newChatClient(cfg)
	if err != nil {
		return nil, err
	}

	registry := detector.NewRegistry(func(modelID string) (detector.Detector, error) {
		return detector.NewHTTPDetector(cfg.Detector.BaseURL, modelID, cfg.DetectorTimeout(), logger), nil
	})

	analyzer := gpt.NewAnalyzer(chat, gpt.Config{
		Model:       cfg.Interpreter.Model,
		MaxTokens:   cfg.Interpreter.MaxTokens,
		Temperature: cfg.Interpreter.Temperature,
	}, logger)

	pipelineCfg := analysis.Config{
		HighThreshold: cfg.Confidence.HighThreshold,
		LowThreshold:  cfg.Confidence.LowThreshold,
		AssessmentModels: map[types.AssessmentType]string{
			types.AssessmentHTP:   cfg.Detector.Models["htp"],
			types.AssessmentPITR:  cfg.Detector.Models["pitr"],
			types.AssessmentQuest: cfg.Detector.Models["htp"],
		},
	}

	return &DrawingAnalyzer{
		pipeline: analysis.NewPipeline(registry, analyzer, pipelineCfg, logger),
		registry: registry,
		gateway:  gateway.NewClient(cfg.Gateway.BaseURL, cfg.GatewayTimeout(), logger),
		logger:   logger,
	}, nil
}

func newChatClient(cfg *config.Config) (client.ChatClient, error) {
	switch cfg.Interpreter.Backend {
	case "ollama":
		return ollama.NewClient(cfg.Interpreter.BaseURL, cfg.InterpreterTimeout())
	case "openai":
		return openai.NewClient(cfg.Interpreter.BaseURL, cfg.Interpreter.APIKey, cfg.InterpreterTimeout())
	default:
		return nil, fmt.Errorf("unknown interpreter backend %q", cfg.Interpreter.Backend)
	}
}

// AnalyzeStage analyzes a drawing for a game stage, deriving the assessment
// type from the stage number.
func (da *DrawingAnalyzer) AnalyzeStage(ctx context.Context, imagePath, description string, stage int) *types.Result {
	return da.pipeline.Analyze(ctx, imagePath, description, stage, types.AssessmentForStage(stage))
}

// Analyze analyzes a drawing with an explicit assessment type.
func (da *DrawingAnalyzer) Analyze(ctx context.Context, imagePath, description string, stage int, assessment types.AssessmentType) *types.Result {
	return da.pipeline.Analyze(ctx, imagePath, description, stage, assessment)
}

// Gateway exposes the result storage client for account and game-result
// operations.
func (da *DrawingAnalyzer) Gateway() *gateway.Client {
	return da.gateway
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
