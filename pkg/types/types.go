package types

import (
	"encoding/json"
	"fmt"
	"math"
)

// Box is an axis-aligned bounding box in pixel coordinates.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width returns the horizontal extent of the box.
func (b Box) Width() float64 { return b.X2 - b.X1 }

// Height returns the vertical extent of the box.
func (b Box) Height() float64 { return b.Y2 - b.Y1 }

// Area returns the box area in square pixels.
func (b Box) Area() float64 { return b.Width() * b.Height() }

// Center returns the midpoint of the box.
func (b Box) Center() (float64, float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// Detection is one labeled box produced by the external object detector.
// Immutable, scoped to a single analysis call.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// String renders the detection the way it is echoed back to callers,
// e.g. "person(0.87)".
func (d Detection) String() string {
	return fmt.Sprintf("%s(%.2f)", d.Label, d.Confidence)
}

// Tiers is the total, disjoint partition of a detection list by confidence.
type Tiers struct {
	High     []Detection `json:"high_confidence"`
	Low      []Detection `json:"low_confidence"`
	Rejected []Detection `json:"rejected"`
}

// Horizontal is the coarse horizontal position of an object within its image.
type Horizontal string

const (
	HorizLeft   Horizontal = "left"
	HorizCenter Horizontal = "center"
	HorizRight  Horizontal = "right"
)

// Vertical is the coarse vertical position of an object within its image.
type Vertical string

const (
	VertUp     Vertical = "up"
	VertCenter Vertical = "center"
	VertDown   Vertical = "down"
)

// SizeLabel buckets an object's relative area for reporting.
type SizeLabel string

const (
	SizeSmall  SizeLabel = "small"
	SizeMedium SizeLabel = "medium"
	SizeLarge  SizeLabel = "large"
)

// SpatialDescriptor summarizes one detected object's position and size
// relative to its source image.
type SpatialDescriptor struct {
	Label         string     `json:"label"`
	RelX          float64    `json:"rel_x"`
	RelY          float64    `json:"rel_y"`
	Horizontal    Horizontal `json:"horizontal"`
	Vertical      Vertical   `json:"vertical"`
	PositionLabel string     `json:"position_label"`
	RelativeArea  float64    `json:"relative_area"`
	SizeLabel     SizeLabel  `json:"size_label"`
	SizeDesc      string     `json:"size_desc"`
	Width         float64    `json:"width"`
	Height        float64    `json:"height"`
}

// MarshalJSON reports RelativeArea rounded to four decimals. The struct
// field keeps the exact ratio because the rule engines compare it against
// cutoffs like 0.33, where rounding first would flip boundary cases.
func (d SpatialDescriptor) MarshalJSON() ([]byte, error) {
	type plain SpatialDescriptor
	p := plain(d)
	p.RelativeArea = math.Round(p.RelativeArea*10000) / 10000
	return json.Marshal(p)
}

// Emotion is one of Paul Ekman's six basic emotions. The taxonomy is closed:
// nothing outside these six values may ever be returned downstream.
type Emotion string

const (
	EmotionAnger     Emotion = "anger"
	EmotionDisgust   Emotion = "disgust"
	EmotionFear      Emotion = "fear"
	EmotionHappiness Emotion = "happiness"
	EmotionSadness   Emotion = "sadness"
	EmotionSurprise  Emotion = "surprise"
)

// EkmanEmotions lists the six emotions in their canonical order.
var EkmanEmotions = []Emotion{
	EmotionAnger,
	EmotionDisgust,
	EmotionFear,
	EmotionHappiness,
	EmotionSadness,
	EmotionSurprise,
}

// IsValid reports whether e belongs to the closed Ekman taxonomy.
func (e Emotion) IsValid() bool {
	for _, known := range EkmanEmotions {
		if e == known {
			return true
		}
	}
	return false
}

// Method names the analysis strategy that produced a result.
type Method string

const (
	MethodRuleBased Method = "rule_based_with_gpt_support"
	MethodGPTBased  Method = "gpt_based_analysis"
	MethodTextOnly  Method = "text_only_fallback"
	MethodFailed    Method = "failed"
)

// AssessmentType selects which rule engine and detection model apply.
type AssessmentType string

const (
	AssessmentHTP   AssessmentType = "htp"
	AssessmentPITR  AssessmentType = "pitr"
	AssessmentQuest AssessmentType = "quest"
)

// AssessmentForStage maps a game stage to its assessment type: stage 0 is
// the house-tree-person drawing, stage 1 the person-in-rain drawing, and
// every later stage a quest drawing.
func AssessmentForStage(stage int) AssessmentType {
	switch stage {
	case 0:
		return AssessmentHTP
	case 1:
		return AssessmentPITR
	default:
		return AssessmentQuest
	}
}

// InterpretationResult is the normalized output of the external interpreter.
// Constructed once per request and never mutated afterwards.
type InterpretationResult struct {
	Interpretation    string  `json:"interpretation"`
	Emotion           Emotion `json:"emotion"`
	EmotionConfidence float64 `json:"emotion_confidence"`
	UsedVision        bool    `json:"used_vision"`
}

// Severity is the three-level ordinal label derived from a stress score.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// RuleInterpretation is the output of a rule engine run.
type RuleInterpretation struct {
	Method          string   `json:"method"`
	Status          string   `json:"status,omitempty"`
	Interpretations []string `json:"interpretations"`
	DetectedObjects []string `json:"detected_objects,omitempty"`
	StressScore     *int     `json:"stress_score,omitempty"`
	Severity        Severity `json:"severity,omitempty"`
	Reason          string   `json:"reason,omitempty"`
}

// Result is the single, well-formed response returned for every analysis
// request, including terminal failures.
type Result struct {
	Success               bool                         `json:"success"`
	Message               string                       `json:"message"`
	AnalysisMethod        Method                       `json:"analysis_method"`
	Stage                 int                          `json:"stage"`
	AssessmentType        AssessmentType               `json:"analysis_type"`
	DetectedObjects       []string                     `json:"detected_objects"`
	HighConfidenceObjects []Detection                  `json:"high_confidence_objects,omitempty"`
	LowConfidenceObjects  []Detection                  `json:"low_confidence_objects,omitempty"`
	PositionAnalysis      map[string]SpatialDescriptor `json:"position_analysis"`
	SizeAnalysis          map[string]SpatialDescriptor `json:"size_analysis"`
	RuleBased             *RuleInterpretation          `json:"rule_based_interpretation,omitempty"`
	Interpretation        string                       `json:"interpretation"`
	Emotion               Emotion                      `json:"emotion"`
	EmotionConfidence     float64                      `json:"emotion_confidence"`
	Error                 string                       `json:"error,omitempty"`
}
