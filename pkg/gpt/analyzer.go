// Package gpt adapts the external LLM interpreter to the analysis pipeline:
// it builds the vision/text prompts, enforces the vision→text fallback order,
// and normalizes replies onto the Ekman taxonomy.
package gpt

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/memorygarden/drawing-analyzer/pkg/client"
	"github.com/memorygarden/drawing-analyzer/pkg/processing"
	"github.com/memorygarden/drawing-analyzer/pkg/types"
)

// Request carries one drawing interpretation request. ImagePath is optional;
// when empty, or when the image cannot be read, the adapter works from the
// description and derived features alone.
type Request struct {
	Stage           int
	Assessment      types.AssessmentType
	DetectedObjects []string
	Description     string
	Positions       map[string]types.SpatialDescriptor
	Sizes           map[string]types.SpatialDescriptor
	ImagePath       string
}

// Config holds the model parameters for interpreter calls.
type Config struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Analyzer calls the external interpreter with a fixed fallback order:
// vision mode first when an image is available, then text mode, then a
// degraded default. It never returns an error to the caller.
type Analyzer struct {
	chat      client.ChatClient
	processor *processing.Processor
	logger    *logrus.Logger
	config    Config
}

// NewAnalyzer creates an Analyzer. A nil chat client disables external
// interpretation; every request then yields the degraded default.
func NewAnalyzer(chat client.ChatClient, cfg Config, logger *logrus.Logger) *Analyzer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Analyzer{
		chat:      chat,
		processor: processing.NewProcessor(),
		logger:    logger,
		config:    cfg,
	}
}

// Enabled reports whether an external interpreter is configured.
func (a *Analyzer) Enabled() bool { return a.chat != nil }

// AnalyzeDrawing interprets one drawing. Vision mode is used when an image
// reference is present and the backend accepts images; any vision failure
// silently retries in text mode. If both modes fail the result degrades to a
// fixed generic interpretation with happiness at the fallback confidence.
func (a *Analyzer) AnalyzeDrawing(ctx context.Context, req Request) types.InterpretationResult {
	if a.chat == nil {
		return types.InterpretationResult{
			Interpretation:    "GPT 분석이 비활성화되어 있습니다. API 키를 설정해주세요.",
			Emotion:           types.EmotionHappiness,
			EmotionConfidence: fallbackConfidence,
		}
	}

	if req.ImagePath != "" && a.chat.SupportsVision() {
		result, err := a.analyzeWithVision(ctx, req)
		if err == nil {
			return result
		}
		a.logger.WithError(err).Warn("vision 분석 실패, 텍스트 분석으로 폴백")
	}

	result, err := a.analyzeWithText(ctx, req)
	if err == nil {
		return result
	}
	a.logger.WithError(err).Error("GPT 분석 오류")

	return types.InterpretationResult{
		Interpretation:    fmt.Sprintf("GPT 분석 중 오류가 발생했습니다: %v", err),
		Emotion:           types.EmotionHappiness,
		EmotionConfidence: fallbackConfidence,
	}
}

func (a *Analyzer) analyzeWithVision(ctx context.Context, req Request) (types.InterpretationResult, error) {
	if _, err := os.Stat(req.ImagePath); err != nil {
		return types.InterpretationResult{}, fmt.Errorf("이미지 파일 없음: %w", err)
	}

	imgB64, err := a.processor.PrepareFileForModel(req.ImagePath)
	if err != nil {
		return types.InterpretationResult{}, fmt.Errorf("이미지 인코딩 오류: %w", err)
	}

	raw, err := a.chat.Chat(ctx, client.ChatRequest{
		Model:       a.config.Model,
		System:      visionSystemPrompt,
		Prompt:      buildVisionPrompt(req),
		ImageB64:    imgB64,
		MaxTokens:   a.config.MaxTokens,
		Temperature: a.config.Temperature,
	})
	if err != nil {
		return types.InterpretationResult{}, err
	}

	a.logger.Debug("GPT vision 분석 성공")
	result := ParseResponse(raw)
	result.UsedVision = true
	return result, nil
}

func (a *Analyzer) analyzeWithText(ctx context.Context, req Request) (types.InterpretationResult, error) {
	raw, err := a.chat.Chat(ctx, client.ChatRequest{
		Model:       a.config.Model,
		System:      textSystemPrompt,
		Prompt:      buildTextPrompt(req),
		MaxTokens:   a.config.MaxTokens,
		Temperature: a.config.Temperature,
	})
	if err != nil {
		return types.InterpretationResult{}, err
	}
	return ParseResponse(raw), nil
}
