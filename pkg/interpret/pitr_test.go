package interpret

import (
	"testing"

	"github.com/memorygarden/drawing-analyzer/pkg/types"
)

func pitrDet(label string, conf float64, x1, y1, x2, y2 float64) types.Detection {
	return types.Detection{
		Label:      label,
		Confidence: conf,
		Box:        types.Box{X1: x1, Y1: y1, X2: x2, Y2: y2},
	}
}

func TestRunPITRMissingRequiredObjects(t *testing.T) {
	tests := []struct {
		name       string
		detections []types.Detection
	}{
		{"no detections", nil},
		{"person without rain", []types.Detection{pitrDet("person", 0.9, 100, 100, 200, 300)}},
		{"rain without person", []types.Detection{pitrDet("rain", 0.9, 0, 0, 10, 40)}},
		{"person below confidence floor", []types.Detection{
			pitrDet("person", 0.3, 100, 100, 200, 300),
			pitrDet("rain", 0.9, 0, 0, 10, 40),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RunPITR(tt.detections, 640, 480)

			if result.Status != StatusInsufficient {
				t.Errorf("status = %s, want %s", result.Status, StatusInsufficient)
			}
			if result.Reason != "필수 객체(person, rain)가 감지되지 않았습니다." {
				t.Errorf("reason = %q", result.Reason)
			}
			if result.StressScore != nil {
				t.Error("insufficient evidence must not carry a stress score")
			}
		})
	}
}

func TestRunPITRSuccess(t *testing.T) {
	detections := []types.Detection{
		pitrDet("person", 0.9, 100, 200, 250, 450),
		pitrDet("rain", 0.8, 0, 0, 10, 60),
		pitrDet("rain", 0.7, 20, 0, 30, 60),
		pitrDet("umbrella", 0.85, 90, 150, 260, 220),
	}

	result := RunPITR(detections, 640, 480)

	if result.Status != StatusSuccess {
		t.Fatalf("status = %s, want %s", result.Status, StatusSuccess)
	}
	if result.Method != "pitr_interpreter" {
		t.Errorf("method = %s", result.Method)
	}
	if result.StressScore == nil {
		t.Fatal("stress score missing")
	}
	if !containsStatement(result.Interpretations, "방어기제를 나타내는 우산이 포함됨.") {
		t.Errorf("umbrella rule did not fire: %v", result.Interpretations)
	}
	if containsStatement(result.Interpretations, "보호 자원이 부족하거나 스트레스를 무방비로 받고 있음.") {
		t.Error("no-umbrella rule fired despite umbrella present")
	}
}

func TestStressScoreZeroRain(t *testing.T) {
	f := NewPersonInRainFeatures([]types.Detection{
		pitrDet("person", 0.9, 0, 0, 100, 200),
	}, 640, 480)

	if got := f.StressScore(); got != 0 {
		t.Errorf("stress score without rain = %d, want 0", got)
	}
}

func TestStressScoreComponents(t *testing.T) {
	tests := []struct {
		name string
		rain []types.Detection
		want int
	}{
		{
			// 1 rain (+1), height 10 (0), width 1 (0), tiny ratio (0), ratio>0 second pass (+1)
			name: "single faint streak",
			rain: []types.Detection{pitrDet("rain", 0.9, 0, 0, 1, 10)},
			want: 2,
		},
		{
			// 2 rains (+2), height 40 (+1), width 4 (+1), tiny ratio (0), second pass (+1)
			name: "two medium streaks",
			rain: []types.Detection{
				pitrDet("rain", 0.9, 0, 0, 4, 40),
				pitrDet("rain", 0.9, 10, 0, 14, 40),
			},
			want: 5,
		},
		{
			// 2 rains (+2), height 480 (+2), width 320 (+2), ratio 1.0 (+2), second pass (+2)
			name: "canvas-filling downpour",
			rain: []types.Detection{
				pitrDet("rain", 0.9, 0, 0, 320, 480),
				pitrDet("rain", 0.9, 320, 0, 640, 480),
			},
			want: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewPersonInRainFeatures(tt.rain, 640, 480)
			if got := f.StressScore(); got != tt.want {
				t.Errorf("stress score = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSeverityLevels(t *testing.T) {
	tests := []struct {
		score int
		want  types.Severity
	}{
		{0, types.SeverityLow},
		{4, types.SeverityLow},
		{5, types.SeverityMedium},
		{7, types.SeverityMedium},
		{8, types.SeverityHigh},
		{10, types.SeverityHigh},
	}

	for _, tt := range tests {
		level, statement := severity(tt.score)
		if level != tt.want {
			t.Errorf("severity(%d) = %s, want %s", tt.score, level, tt.want)
		}
		if statement == "" {
			t.Errorf("severity(%d) returned empty statement", tt.score)
		}
	}
}

func TestRunPITRSupplementaryElements(t *testing.T) {
	detections := []types.Detection{
		pitrDet("person", 0.9, 100, 200, 250, 450),
		pitrDet("rain", 0.8, 0, 0, 10, 60),
		pitrDet("cloud", 0.7, 0, 0, 100, 50),
		pitrDet("cloud", 0.7, 200, 0, 300, 50),
		pitrDet("puddle", 0.6, 0, 400, 100, 480),
		pitrDet("pool", 0.6, 200, 400, 300, 480),
	}

	result := RunPITR(detections, 640, 480)

	if !containsStatement(result.Interpretations, "구름이 많이 그려져 정서적 혼란이나 우울감을 나타냄.") {
		t.Errorf("cloud rule did not fire: %v", result.Interpretations)
	}
	if !containsStatement(result.Interpretations, "고인 물이 많아 감정의 정체 또는 우울함이 반영됨.") {
		t.Errorf("puddle rule did not count pool: %v", result.Interpretations)
	}
	if !containsStatement(result.Interpretations, "보호 자원이 부족하거나 스트레스를 무방비로 받고 있음.") {
		t.Errorf("no-umbrella rule did not fire: %v", result.Interpretations)
	}
}

func countStatement(statements []string, want string) int {
	n := 0
	for _, s := range statements {
		if s == want {
			n++
		}
	}
	return n
}

func TestRunPITRPerPersonStatements(t *testing.T) {
	// Two small persons on the left third: each contributes its own
	// position and size statements, so both repeat.
	detections := []types.Detection{
		pitrDet("person", 0.9, 10, 200, 60, 280),
		pitrDet("person", 0.8, 20, 210, 70, 290),
		pitrDet("rain", 0.9, 300, 0, 310, 60),
	}

	result := RunPITR(detections, 640, 480)

	if result.Status != StatusSuccess {
		t.Fatalf("status = %s, want %s", result.Status, StatusSuccess)
	}
	if got := countStatement(result.Interpretations, "소극적이며 우울감을 가지고 있음."); got != 2 {
		t.Errorf("left-person statement count = %d, want 2: %v", got, result.Interpretations)
	}
	if got := countStatement(result.Interpretations, "수축된 자아와 낮은 자존감을 가짐."); got != 2 {
		t.Errorf("small-person statement count = %d, want 2: %v", got, result.Interpretations)
	}
}

func TestRunPITRPersonPosition(t *testing.T) {
	// Person on the left third of a 300x300 canvas.
	detections := []types.Detection{
		pitrDet("person", 0.9, 0, 100, 60, 250),
		pitrDet("rain", 0.8, 100, 0, 110, 60),
	}

	result := RunPITR(detections, 300, 300)

	if !containsStatement(result.Interpretations, "소극적이며 우울감을 가지고 있음.") {
		t.Errorf("left-person rule did not fire: %v", result.Interpretations)
	}
}
