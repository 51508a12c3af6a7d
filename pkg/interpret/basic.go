package interpret

import "github.com/memorygarden/drawing-analyzer/pkg/types"

type presenceRule struct {
	label     string
	statement string
}

// Label-presence statements used when no spatial features are available for
// the full rule tables, e.g. for quest stages analyzed with the HTP model.
var presenceRules = map[types.AssessmentType][]presenceRule{
	types.AssessmentHTP: {
		{"사람전체", "사람이 명확하게 그려져 있어 자아 표현이 잘 되고 있습니다."},
		{"집전체", "집이 표현되어 가정과 안정감에 대한 인식이 나타났습니다."},
		{"나무전체", "나무를 통해 성장과 생명력이 표현되었습니다."},
	},
	types.AssessmentPITR: {
		{"person", "사람이 그려져 스트레스 상황에서의 자아가 표현되었습니다."},
		{"rain", "비가 표현되어 스트레스 상황이 인식되고 있습니다."},
		{"umbrella", "우산이 있어 스트레스에 대한 대처 방안을 갖고 있습니다."},
	},
}

// RunPresence emits one canned statement per recognized label, in table
// order. When nothing matches it falls back to a single generic statement so
// the structural section is never empty for a detected drawing.
func RunPresence(labels []string, assessment types.AssessmentType) types.RuleInterpretation {
	seen := make(map[string]bool, len(labels))
	for _, label := range labels {
		seen[label] = true
	}

	var statements []string
	for _, rule := range presenceRules[assessment] {
		if seen[rule.label] {
			statements = append(statements, rule.statement)
		}
	}

	if len(statements) == 0 {
		statements = append(statements, "그림을 통한 표현이 이루어졌습니다.")
	}

	return types.RuleInterpretation{
		Method:          "rule_based",
		Status:          StatusSuccess,
		Interpretations: statements,
		DetectedObjects: labels,
	}
}
