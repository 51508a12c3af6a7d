// Package analysis implements the confidence-branching pipeline that turns
// one drawing submission into a well-formed interpretation result.
//
// The pipeline is a small state machine:
//
//	START → CLASSIFY → {RULE_BASED | GPT_ONLY | TEXT_ONLY} → MERGE → DONE
//
// with an absorbing ERROR state. A non-empty high-confidence tier selects
// the rule-based branch, a non-empty low tier selects vision-only analysis,
// and empty tiers fall through to text-only analysis — the universal
// fallback floor. Failures never abort the request: each branch degrades to
// the next lower-fidelity branch, and only an unrecoverable panic produces
// the terminal failed result.
package analysis

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/memorygarden/drawing-analyzer/pkg/confidence"
	"github.com/memorygarden/drawing-analyzer/pkg/detector"
	"github.com/memorygarden/drawing-analyzer/pkg/geometry"
	"github.com/memorygarden/drawing-analyzer/pkg/gpt"
	"github.com/memorygarden/drawing-analyzer/pkg/interpret"
	"github.com/memorygarden/drawing-analyzer/pkg/processing"
	"github.com/memorygarden/drawing-analyzer/pkg/types"
)

// Config carries the pipeline thresholds and the assessment→model binding.
type Config struct {
	HighThreshold float64
	LowThreshold  float64

	// AssessmentModels maps each assessment type to the detection model it
	// uses. Quest stages reuse the HTP model.
	AssessmentModels map[types.AssessmentType]string
}

// DefaultConfig returns the standard thresholds and model bindings.
func DefaultConfig() Config {
	return Config{
		HighThreshold: confidence.DefaultHighThreshold,
		LowThreshold:  confidence.DefaultLowThreshold,
		AssessmentModels: map[types.AssessmentType]string{
			types.AssessmentHTP:   "htp",
			types.AssessmentPITR:  "pitr",
			types.AssessmentQuest: "htp",
		},
	}
}

// Pipeline orchestrates detection, classification, rule interpretation and
// external interpretation for one request at a time. It holds no per-request
// state and is safe for concurrent use.
type Pipeline struct {
	registry *detector.Registry
	analyzer *gpt.Analyzer
	logger   *logrus.Logger
	config   Config
}

// NewPipeline wires the injected collaborators into a pipeline.
func NewPipeline(registry *detector.Registry, analyzer *gpt.Analyzer, cfg Config, logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = logrus.New()
	}
	if cfg.HighThreshold == 0 && cfg.LowThreshold == 0 {
		cfg = DefaultConfig()
	}
	return &Pipeline{
		registry: registry,
		analyzer: analyzer,
		logger:   logger,
		config:   cfg,
	}
}

// Analyze runs the full pipeline for one submission. The returned result is
// always well-formed: even the terminal failure path carries a message, a
// method tag and a valid emotion.
func (p *Pipeline) Analyze(ctx context.Context, imagePath, description string, stage int, assessment types.AssessmentType) (result *types.Result) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorf("분석 중 복구 불가 오류: %v", r)
			result = p.failedResult(stage, assessment, fmt.Sprintf("%v", r))
		}
	}()

	log := p.logger.WithFields(logrus.Fields{
		"stage":      stage,
		"assessment": assessment,
	})
	log.Info("신뢰도 기반 분기 분석 시작")

	tiers := p.classify(ctx, imagePath, assessment, log)

	switch {
	case len(tiers.High) > 0:
		log.WithField("count", len(tiers.High)).Info("높은 신뢰도 객체 발견, 규칙 기반 분석 수행")
		return p.ruleBased(ctx, tiers, imagePath, description, stage, assessment, log)

	case len(tiers.Low) > 0:
		log.WithField("count", len(tiers.Low)).Info("낮은 신뢰도 객체만 발견, GPT 기반 분석 수행")
		return p.gptBased(ctx, tiers.Low, imagePath, description, stage, assessment)

	default:
		log.Info("객체 탐지 실패, GPT 텍스트 분석만 수행")
		return p.textOnly(ctx, description, stage, assessment)
	}
}

// classify runs the detector and partitions its output. Detector problems —
// unreachable image, model load failure, upstream error, zero boxes — all
// collapse to empty tiers so the branch selection below degrades naturally.
func (p *Pipeline) classify(ctx context.Context, imagePath string, assessment types.AssessmentType, log *logrus.Entry) types.Tiers {
	if imagePath == "" {
		return types.Tiers{}
	}
	if _, err := os.Stat(imagePath); err != nil {
		log.WithError(err).Warn("이미지 파일을 찾을 수 없음")
		return types.Tiers{}
	}

	modelID, ok := p.config.AssessmentModels[assessment]
	if !ok {
		modelID = p.config.AssessmentModels[types.AssessmentQuest]
	}

	det, err := p.registry.Get(modelID)
	if err != nil {
		log.WithError(err).Warn("탐지 모델 로딩 실패")
		return types.Tiers{}
	}

	detected, err := det.Detect(ctx, imagePath, p.config.LowThreshold)
	if err != nil {
		log.WithError(err).Warn("객체 탐지 호출 실패")
		return types.Tiers{}
	}
	if detected.Empty() {
		return types.Tiers{}
	}

	return confidence.Classify(detected.Detections, p.config.HighThreshold, p.config.LowThreshold)
}

// ruleBased runs geometry extraction and the assessment's rule engine on the
// high tier, plus vision-assisted interpretation over everything that was
// not rejected. A failure inside this branch falls back to the GPT branch.
func (p *Pipeline) ruleBased(ctx context.Context, tiers types.Tiers, imagePath, description string, stage int, assessment types.AssessmentType, log *logrus.Entry) *types.Result {
	union := confidence.Union(tiers)
	detectedObjects := detectionStrings(union)

	descriptors := geometry.ExtractFromFile(tiers.High, imagePath)

	ruleBased := p.runRuleEngine(tiers.High, descriptors, imagePath, assessment)
	if ruleBased.Status == interpret.StatusInsufficient {
		log.WithField("reason", ruleBased.Reason).Warn("규칙 기반 분석에 필요한 필수 객체 부족")
	}

	gptResult := p.analyzer.AnalyzeDrawing(ctx, gpt.Request{
		Stage:           stage,
		Assessment:      assessment,
		DetectedObjects: detectedObjects,
		Description:     description,
		Positions:       descriptors,
		Sizes:           descriptors,
		ImagePath:       imagePath,
	})

	return &types.Result{
		Success:               true,
		Message:               "높은 신뢰도 객체 탐지 성공",
		AnalysisMethod:        types.MethodRuleBased,
		Stage:                 stage,
		AssessmentType:        assessment,
		DetectedObjects:       detectedObjects,
		HighConfidenceObjects: tiers.High,
		LowConfidenceObjects:  tiers.Low,
		PositionAnalysis:      descriptors,
		SizeAnalysis:          descriptors,
		RuleBased:             ruleBased,
		Interpretation:        combineInterpretations(ruleBased.Interpretations, gptResult.Interpretation),
		Emotion:               gptResult.Emotion,
		EmotionConfidence:     gptResult.EmotionConfidence,
	}
}

// runRuleEngine dispatches to the assessment-specific engine. Empty
// descriptors mean "no spatial features available": the engines then emit
// no statements and the structural section simply stays empty.
func (p *Pipeline) runRuleEngine(high []types.Detection, descriptors map[string]types.SpatialDescriptor, imagePath string, assessment types.AssessmentType) *types.RuleInterpretation {
	switch assessment {
	case types.AssessmentHTP:
		result := interpret.RunHTP(descriptors)
		return &result

	case types.AssessmentPITR:
		w, h, err := processing.ImageSize(imagePath)
		if err != nil {
			result := interpret.RunPresence(confidence.Labels(high), assessment)
			return &result
		}
		result := interpret.RunPITR(high, w, h)
		return &result

	default:
		result := interpret.RunPresence(confidence.Labels(high), assessment)
		return &result
	}
}

// gptBased covers the low-confidence-only branch: no rule engine, vision
// interpretation over the low tier alone.
func (p *Pipeline) gptBased(ctx context.Context, low []types.Detection, imagePath, description string, stage int, assessment types.AssessmentType) *types.Result {
	detectedObjects := detectionStrings(low)

	gptResult := p.analyzer.AnalyzeDrawing(ctx, gpt.Request{
		Stage:           stage,
		Assessment:      assessment,
		DetectedObjects: detectedObjects,
		Description:     description,
		ImagePath:       imagePath,
	})

	return &types.Result{
		Success:              true,
		Message:              "낮은 신뢰도 객체 탐지, GPT 기반 분석 완료",
		AnalysisMethod:       types.MethodGPTBased,
		Stage:                stage,
		AssessmentType:       assessment,
		DetectedObjects:      detectedObjects,
		LowConfidenceObjects: low,
		PositionAnalysis:     map[string]types.SpatialDescriptor{},
		SizeAnalysis:         map[string]types.SpatialDescriptor{},
		Interpretation:       gptResult.Interpretation,
		Emotion:              gptResult.Emotion,
		EmotionConfidence:    gptResult.EmotionConfidence,
	}
}

// textOnly is the fallback floor: description-based interpretation with
// empty object and feature sets.
func (p *Pipeline) textOnly(ctx context.Context, description string, stage int, assessment types.AssessmentType) *types.Result {
	gptResult := p.analyzer.AnalyzeDrawing(ctx, gpt.Request{
		Stage:       stage,
		Assessment:  assessment,
		Description: description,
	})

	return &types.Result{
		Success:           true,
		Message:           "객체 탐지 실패, 설명 기반 분석 완료",
		AnalysisMethod:    types.MethodTextOnly,
		Stage:             stage,
		AssessmentType:    assessment,
		DetectedObjects:   []string{},
		PositionAnalysis:  map[string]types.SpatialDescriptor{},
		SizeAnalysis:      map[string]types.SpatialDescriptor{},
		Interpretation:    gptResult.Interpretation,
		Emotion:           gptResult.Emotion,
		EmotionConfidence: gptResult.EmotionConfidence,
	}
}

// failedResult is the terminal ERROR state: still a well-formed result so
// downstream consumers never receive a null emotion.
func (p *Pipeline) failedResult(stage int, assessment types.AssessmentType, errText string) *types.Result {
	return &types.Result{
		Success:           false,
		Message:           "모든 분석 방법 실패",
		AnalysisMethod:    types.MethodFailed,
		Stage:             stage,
		AssessmentType:    assessment,
		DetectedObjects:   []string{},
		PositionAnalysis:  map[string]types.SpatialDescriptor{},
		SizeAnalysis:      map[string]types.SpatialDescriptor{},
		Interpretation:    fmt.Sprintf("분석 실패: %s", errText),
		Emotion:           types.EmotionHappiness,
		EmotionConfidence: 0.3,
		Error:             errText,
	}
}

// combineInterpretations merges rule statements and the expert free-text
// interpretation into one string, structural section first.
func combineInterpretations(statements []string, expert string) string {
	var combined []string

	if len(statements) > 0 {
		combined = append(combined, "【구조적 분석】")
		combined = append(combined, statements...)
	}
	if expert != "" {
		combined = append(combined, "\n【전문가 해석】", expert)
	}
	if len(combined) == 0 {
		return "분석이 완료되었습니다."
	}
	return strings.Join(combined, "\n")
}

func detectionStrings(detections []types.Detection) []string {
	out := make([]string, 0, len(detections))
	for _, det := range detections {
		out = append(out, det.String())
	}
	return out
}
