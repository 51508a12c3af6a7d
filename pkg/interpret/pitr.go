package interpret

import (
	"github.com/memorygarden/drawing-analyzer/pkg/geometry"
	"github.com/memorygarden/drawing-analyzer/pkg/types"
)

// Rule engine status values. StatusInsufficient is a distinct failure state:
// the required object pair was absent, which must surface as
// insufficient-evidence rather than a silent zero score.
const (
	StatusSuccess      = "success"
	StatusInsufficient = "insufficient_evidence"
)

// ScorerConfidenceFloor is the minimum confidence a detection needs to take
// part in PITR interpretation and stress scoring.
const ScorerConfidenceFloor = 0.4

// rainBox records the extents of one rain detection for the stress scorer.
type rainBox struct {
	width  float64
	height float64
	area   float64
}

// PersonInRainFeatures holds everything the PITR rules and the stress scorer
// inspect, built in one pass over the confidence-filtered detections.
type PersonInRainFeatures struct {
	// Persons keeps every person detection in order; the rules run once per
	// entry, so a drawing with two small persons repeats the small-person
	// statement twice.
	Persons []types.SpatialDescriptor

	HasRain       bool
	UmbrellaCount int

	CloudCount     int
	LightningCount int
	PuddleCount    int

	rainBoxes []rainBox
	imageArea float64
}

// NewPersonInRainFeatures filters detections at the scorer confidence floor
// and aggregates the per-class features.
func NewPersonInRainFeatures(detections []types.Detection, imgWidth, imgHeight int) PersonInRainFeatures {
	f := PersonInRainFeatures{imageArea: float64(imgWidth) * float64(imgHeight)}

	for _, det := range detections {
		if det.Confidence < ScorerConfidenceFloor {
			continue
		}

		switch det.Label {
		case "person":
			if d, ok := geometry.Extract([]types.Detection{det}, imgWidth, imgHeight)[det.Label]; ok {
				f.Persons = append(f.Persons, d)
			}
		case "rain":
			f.HasRain = true
			f.rainBoxes = append(f.rainBoxes, rainBox{
				width:  det.Box.Width(),
				height: det.Box.Height(),
				area:   det.Box.Area(),
			})
		case "umbrella":
			f.UmbrellaCount++
		case "cloud":
			f.CloudCount++
		case "lightning":
			f.LightningCount++
		case "puddle", "pool":
			f.PuddleCount++
		}
	}

	return f
}

type pitrRule struct {
	applies   func(f PersonInRainFeatures) bool
	statement string
}

// personRule is evaluated once per person detection, so its statements can
// repeat when the drawing holds several persons.
type personRule struct {
	applies   func(d types.SpatialDescriptor) bool
	statement string
}

// Position rules then size rules, in scoring-table order.
var pitrPersonRules = []personRule{
	{func(d types.SpatialDescriptor) bool { return d.Horizontal == types.HorizLeft },
		"소극적이며 우울감을 가지고 있음."},
	{func(d types.SpatialDescriptor) bool { return d.Horizontal == types.HorizRight },
		"이기적이며 공격적이고 분노가 높음."},
	{func(d types.SpatialDescriptor) bool { return d.Vertical == types.VertUp },
		"통찰력이 부족하고 현실과 동떨어진 낙천주의를 가짐."},
	{func(d types.SpatialDescriptor) bool { return d.Vertical == types.VertDown },
		"인간관계는 있으나 우울하고 위축됨."},
	{func(d types.SpatialDescriptor) bool { return d.RelativeArea <= 0.33 },
		"수축된 자아와 낮은 자존감을 가짐."},
	{func(d types.SpatialDescriptor) bool { return d.RelativeArea >= 0.67 },
		"자기를 증명하려는 경향이 있음."},
}

// umbrellaStatement is appended once per umbrella detection.
const umbrellaStatement = "방어기제를 나타내는 우산이 포함됨."

// Supplementary element rules evaluated after the stress score.
var pitrExtraRules = []pitrRule{
	{func(f PersonInRainFeatures) bool { return f.CloudCount >= 2 },
		"구름이 많이 그려져 정서적 혼란이나 우울감을 나타냄."},
	{func(f PersonInRainFeatures) bool { return f.LightningCount >= 2 },
		"번개가 많아 분노나 긴장 상태일 가능성이 있음."},
	{func(f PersonInRainFeatures) bool { return f.PuddleCount >= 2 },
		"고인 물이 많아 감정의 정체 또는 우울함이 반영됨."},
	{func(f PersonInRainFeatures) bool { return f.UmbrellaCount == 0 },
		"보호 자원이 부족하거나 스트레스를 무방비로 받고 있음."},
}

// StressScore accumulates the five sub-scores of the PITR stress table,
// each contributing 0, 1 or 2 points.
//
// Sub-score 5 repeats the rain-area-ratio check of sub-score 4 against a
// looser zero cutoff. The duplication comes straight from the scoring table
// and must stay as-is.
func (f PersonInRainFeatures) StressScore() int {
	score := 0

	// 1. rain expression count
	switch len(f.rainBoxes) {
	case 0:
		// 0 points
	case 1:
		score++
	default:
		score += 2
	}

	// 2. rain length (average box height)
	var avgHeight, avgWidth, totalArea float64
	if n := len(f.rainBoxes); n > 0 {
		for _, rb := range f.rainBoxes {
			avgHeight += rb.height
			avgWidth += rb.width
			totalArea += rb.area
		}
		avgHeight /= float64(n)
		avgWidth /= float64(n)
	}
	switch {
	case avgHeight <= 20:
	case avgHeight <= 50:
		score++
	default:
		score += 2
	}

	// 3. rain thickness (average box width)
	switch {
	case avgWidth <= 2:
	case avgWidth <= 5:
		score++
	default:
		score += 2
	}

	// 4. rain area ratio against the whole image
	var ratio float64
	if f.imageArea > 0 {
		ratio = totalArea / f.imageArea
	}
	switch {
	case ratio <= 0.33:
	case ratio <= 0.75:
		score++
	default:
		score += 2
	}

	// 5. second pass over the same ratio, zero-or-not cutoff
	switch {
	case ratio == 0:
	case ratio <= 0.75:
		score++
	default:
		score += 2
	}

	return score
}

// severity maps a stress score onto the three-level label and its statement.
func severity(score int) (types.Severity, string) {
	switch {
	case score >= 8:
		return types.SeverityHigh, "스트레스 수준: 상 (강한 스트레스 반응이 나타날 수 있음)"
	case score >= 5:
		return types.SeverityMedium, "스트레스 수준: 중 (일반적인 스트레스 반응)"
	default:
		return types.SeverityLow, "스트레스 수준: 하 (스트레스 반응이 낮거나 없음)"
	}
}

// RunPITR evaluates the Person-In-The-Rain rules and the stress scorer.
//
// Both person and rain must be present among the confidence-filtered
// detections; otherwise the engine reports StatusInsufficient with a reason
// instead of scoring, and the pipeline surfaces it as insufficient evidence.
func RunPITR(detections []types.Detection, imgWidth, imgHeight int) types.RuleInterpretation {
	features := NewPersonInRainFeatures(detections, imgWidth, imgHeight)

	if len(features.Persons) == 0 || !features.HasRain {
		return types.RuleInterpretation{
			Method: "pitr_interpreter",
			Status: StatusInsufficient,
			Reason: "필수 객체(person, rain)가 감지되지 않았습니다.",
		}
	}

	var statements []string
	for _, person := range features.Persons {
		for _, rule := range pitrPersonRules {
			if rule.applies(person) {
				statements = append(statements, rule.statement)
			}
		}
	}
	for i := 0; i < features.UmbrellaCount; i++ {
		statements = append(statements, umbrellaStatement)
	}

	score := features.StressScore()
	level, statement := severity(score)
	statements = append(statements, statement)

	for _, rule := range pitrExtraRules {
		if rule.applies(features) {
			statements = append(statements, rule.statement)
		}
	}

	return types.RuleInterpretation{
		Method:          "pitr_interpreter",
		Status:          StatusSuccess,
		Interpretations: statements,
		StressScore:     &score,
		Severity:        level,
	}
}
