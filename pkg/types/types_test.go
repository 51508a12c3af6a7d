package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBoxGeometry(t *testing.T) {
	box := Box{X1: 10, Y1: 20, X2: 110, Y2: 70}

	if box.Width() != 100 || box.Height() != 50 {
		t.Errorf("size = %vx%v", box.Width(), box.Height())
	}
	if box.Area() != 5000 {
		t.Errorf("area = %v", box.Area())
	}

	cx, cy := box.Center()
	if cx != 60 || cy != 45 {
		t.Errorf("center = (%v, %v)", cx, cy)
	}
}

func TestDetectionString(t *testing.T) {
	det := Detection{Label: "person", Confidence: 0.873}
	if got := det.String(); got != "person(0.87)" {
		t.Errorf("String() = %q", got)
	}
}

func TestSpatialDescriptorMarshalRoundsArea(t *testing.T) {
	d := SpatialDescriptor{Label: "house", RelativeArea: 0.330039}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"relative_area":0.33,`) {
		t.Errorf("relative_area not rounded to four decimals: %s", data)
	}
	if d.RelativeArea != 0.330039 {
		t.Errorf("marshal mutated the descriptor: %v", d.RelativeArea)
	}
}

func TestEmotionIsValid(t *testing.T) {
	for _, e := range EkmanEmotions {
		if !e.IsValid() {
			t.Errorf("%s should be valid", e)
		}
	}

	for _, e := range []Emotion{"", "joy", "HAPPINESS", "긍정적"} {
		if e.IsValid() {
			t.Errorf("%q should be invalid", e)
		}
	}
}

func TestAssessmentForStage(t *testing.T) {
	tests := []struct {
		stage int
		want  AssessmentType
	}{
		{0, AssessmentHTP},
		{1, AssessmentPITR},
		{2, AssessmentQuest},
		{12, AssessmentQuest},
	}

	for _, tt := range tests {
		if got := AssessmentForStage(tt.stage); got != tt.want {
			t.Errorf("AssessmentForStage(%d) = %s, want %s", tt.stage, got, tt.want)
		}
	}
}
