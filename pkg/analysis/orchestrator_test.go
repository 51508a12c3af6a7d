package analysis

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/memorygarden/drawing-analyzer/pkg/client"
	"github.com/memorygarden/drawing-analyzer/pkg/detector"
	"github.com/memorygarden/drawing-analyzer/pkg/gpt"
	"github.com/memorygarden/drawing-analyzer/pkg/interpret"
	"github.com/memorygarden/drawing-analyzer/pkg/types"
)

// fakeDetector returns a scripted detection result.
type fakeDetector struct {
	detections []types.Detection
	err        error
	calls      int
}

func (f *fakeDetector) Detect(_ context.Context, _ string, _ float64) (*detector.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &detector.Result{Detections: f.detections}, nil
}

// fakeChat answers every interpreter call with the same structured reply.
type fakeChat struct {
	reply string
	err   error
}

func (f *fakeChat) SupportsVision() bool { return true }

func (f *fakeChat) Chat(_ context.Context, _ client.ChatRequest) (string, error) {
	return f.reply, f.err
}

const happyReply = `{"interpretation": "안정적인 정서가 드러납니다.", "emotion": "happiness", "emotion_confidence": 0.8}`

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestPipeline(t *testing.T, fd *fakeDetector, chat client.ChatClient) *Pipeline {
	t.Helper()

	registry := detector.NewRegistry(func(string) (detector.Detector, error) {
		return fd, nil
	})
	analyzer := gpt.NewAnalyzer(chat, gpt.Config{Model: "test"}, quietLogger())
	return NewPipeline(registry, analyzer, DefaultConfig(), quietLogger())
}

func writeTestImage(t *testing.T, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{230, 230, 230, 255})
		}
	}

	path := filepath.Join(t.TempDir(), "drawing.jpg")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatal(err)
	}
	return path
}

func boxed(label string, conf float64, x1, y1, x2, y2 float64) types.Detection {
	return types.Detection{
		Label:      label,
		Confidence: conf,
		Box:        types.Box{X1: x1, Y1: y1, X2: x2, Y2: y2},
	}
}

func TestAnalyzeHighConfidenceBranch(t *testing.T) {
	fd := &fakeDetector{detections: []types.Detection{
		boxed("집전체", 0.92, 0, 0, 20, 20),
		boxed("나무전체", 0.50, 40, 40, 60, 60),
	}}
	pipeline := newTestPipeline(t, fd, &fakeChat{reply: happyReply})

	result := pipeline.Analyze(context.Background(), writeTestImage(t, 64, 64), "우리 집", 0, types.AssessmentHTP)

	if !result.Success {
		t.Fatalf("result not successful: %+v", result)
	}
	if result.AnalysisMethod != types.MethodRuleBased {
		t.Errorf("method = %s, want %s", result.AnalysisMethod, types.MethodRuleBased)
	}
	if result.Message != "높은 신뢰도 객체 탐지 성공" {
		t.Errorf("message = %q", result.Message)
	}
	if len(result.HighConfidenceObjects) != 1 || result.HighConfidenceObjects[0].Label != "집전체" {
		t.Errorf("high tier = %v", result.HighConfidenceObjects)
	}
	if len(result.LowConfidenceObjects) != 1 {
		t.Errorf("low tier = %v", result.LowConfidenceObjects)
	}
	if result.RuleBased == nil || result.RuleBased.Method != "htp_interpreter" {
		t.Fatalf("rule interpretation = %+v", result.RuleBased)
	}
	if !strings.Contains(result.Interpretation, "【구조적 분석】") {
		t.Errorf("interpretation missing structural section:\n%s", result.Interpretation)
	}
	if !strings.Contains(result.Interpretation, "【전문가 해석】") {
		t.Errorf("interpretation missing expert section:\n%s", result.Interpretation)
	}
	if result.Emotion != types.EmotionHappiness || result.EmotionConfidence != 0.8 {
		t.Errorf("emotion = %s/%v", result.Emotion, result.EmotionConfidence)
	}
	if len(result.PositionAnalysis) == 0 {
		t.Error("high branch should carry position analysis")
	}
}

func TestAnalyzeLowConfidenceBranch(t *testing.T) {
	fd := &fakeDetector{detections: []types.Detection{
		boxed("person", 0.45, 10, 10, 30, 30),
	}}
	pipeline := newTestPipeline(t, fd, &fakeChat{reply: happyReply})

	result := pipeline.Analyze(context.Background(), writeTestImage(t, 64, 64), "사람", 0, types.AssessmentHTP)

	if result.AnalysisMethod != types.MethodGPTBased {
		t.Errorf("method = %s, want %s", result.AnalysisMethod, types.MethodGPTBased)
	}
	if result.Message != "낮은 신뢰도 객체 탐지, GPT 기반 분석 완료" {
		t.Errorf("message = %q", result.Message)
	}
	if result.RuleBased != nil {
		t.Errorf("low branch must not run the rule engine: %+v", result.RuleBased)
	}
	if len(result.PositionAnalysis) != 0 {
		t.Errorf("low branch carries position analysis: %v", result.PositionAnalysis)
	}
}

func TestAnalyzeTextOnlyBranch(t *testing.T) {
	fd := &fakeDetector{detections: nil}
	pipeline := newTestPipeline(t, fd, &fakeChat{reply: happyReply})

	result := pipeline.Analyze(context.Background(), writeTestImage(t, 64, 64), "빈 그림", 3, types.AssessmentQuest)

	if result.AnalysisMethod != types.MethodTextOnly {
		t.Errorf("method = %s, want %s", result.AnalysisMethod, types.MethodTextOnly)
	}
	if result.Message != "객체 탐지 실패, 설명 기반 분석 완료" {
		t.Errorf("message = %q", result.Message)
	}
	if len(result.DetectedObjects) != 0 {
		t.Errorf("text-only branch has detected objects: %v", result.DetectedObjects)
	}
}

func TestAnalyzeDetectorFailureDegradesToTextOnly(t *testing.T) {
	fd := &fakeDetector{err: errors.New("model server down")}
	pipeline := newTestPipeline(t, fd, &fakeChat{reply: happyReply})

	result := pipeline.Analyze(context.Background(), writeTestImage(t, 64, 64), "그림", 0, types.AssessmentHTP)

	if !result.Success {
		t.Fatal("detector failure must not fail the analysis")
	}
	if result.AnalysisMethod != types.MethodTextOnly {
		t.Errorf("method = %s, want %s", result.AnalysisMethod, types.MethodTextOnly)
	}
}

func TestAnalyzeMissingImageUsesTextOnly(t *testing.T) {
	fd := &fakeDetector{detections: []types.Detection{boxed("house", 0.9, 0, 0, 10, 10)}}
	pipeline := newTestPipeline(t, fd, &fakeChat{reply: happyReply})

	result := pipeline.Analyze(context.Background(), "no-such-file.jpg", "그림", 0, types.AssessmentHTP)

	if fd.calls != 0 {
		t.Errorf("detector called %d times for missing image", fd.calls)
	}
	if result.AnalysisMethod != types.MethodTextOnly {
		t.Errorf("method = %s, want %s", result.AnalysisMethod, types.MethodTextOnly)
	}
}

func TestAnalyzePITRInsufficientEvidence(t *testing.T) {
	// High-confidence detections but no person/rain pair: the rule engine
	// reports insufficient evidence while the analysis still succeeds.
	fd := &fakeDetector{detections: []types.Detection{
		boxed("umbrella", 0.9, 0, 0, 20, 20),
	}}
	pipeline := newTestPipeline(t, fd, &fakeChat{reply: happyReply})

	result := pipeline.Analyze(context.Background(), writeTestImage(t, 64, 64), "우산", 1, types.AssessmentPITR)

	if !result.Success {
		t.Fatal("insufficient rule evidence must not fail the analysis")
	}
	if result.AnalysisMethod != types.MethodRuleBased {
		t.Errorf("method = %s, want %s", result.AnalysisMethod, types.MethodRuleBased)
	}
	if result.RuleBased == nil || result.RuleBased.Status != interpret.StatusInsufficient {
		t.Fatalf("rule interpretation = %+v, want insufficient evidence", result.RuleBased)
	}
	if result.RuleBased.Reason == "" {
		t.Error("insufficient evidence must carry a reason")
	}
}

func TestAnalyzePITRStressScore(t *testing.T) {
	fd := &fakeDetector{detections: []types.Detection{
		boxed("person", 0.9, 20, 20, 40, 60),
		boxed("rain", 0.8, 0, 0, 4, 30),
		boxed("rain", 0.7, 10, 0, 14, 30),
	}}
	pipeline := newTestPipeline(t, fd, &fakeChat{reply: happyReply})

	result := pipeline.Analyze(context.Background(), writeTestImage(t, 64, 64), "비", 1, types.AssessmentPITR)

	if result.RuleBased == nil || result.RuleBased.StressScore == nil {
		t.Fatalf("PITR result missing stress score: %+v", result.RuleBased)
	}
	if result.RuleBased.Severity == "" {
		t.Error("PITR result missing severity")
	}
}

func TestAnalyzeInterpreterFailureStillSucceeds(t *testing.T) {
	fd := &fakeDetector{detections: []types.Detection{
		boxed("집전체", 0.9, 0, 0, 20, 20),
	}}
	pipeline := newTestPipeline(t, fd, &fakeChat{err: errors.New("interpreter down")})

	result := pipeline.Analyze(context.Background(), writeTestImage(t, 64, 64), "집", 0, types.AssessmentHTP)

	if !result.Success {
		t.Fatal("interpreter failure must degrade, not fail")
	}
	if result.Emotion != types.EmotionHappiness || result.EmotionConfidence != 0.3 {
		t.Errorf("degraded emotion = %s/%v, want happiness/0.3", result.Emotion, result.EmotionConfidence)
	}
	if !strings.Contains(result.Interpretation, "【구조적 분석】") {
		t.Errorf("structural statements lost on interpreter failure:\n%s", result.Interpretation)
	}
	if !result.Emotion.IsValid() {
		t.Error("result emotion must always be a valid Ekman emotion")
	}
}

func TestCombineInterpretations(t *testing.T) {
	tests := []struct {
		name       string
		statements []string
		expert     string
		want       []string
		wantExact  string
	}{
		{
			name:       "both sections",
			statements: []string{"진술 하나.", "진술 둘."},
			expert:     "전문가 소견.",
			want:       []string{"【구조적 분석】", "진술 하나.", "【전문가 해석】", "전문가 소견."},
		},
		{
			name:      "expert only",
			expert:    "전문가 소견.",
			want:      []string{"【전문가 해석】"},
			wantExact: "",
		},
		{
			name:       "statements only",
			statements: []string{"진술."},
			want:       []string{"【구조적 분석】", "진술."},
		},
		{
			name:      "both empty",
			wantExact: "분석이 완료되었습니다.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := combineInterpretations(tt.statements, tt.expert)

			if tt.wantExact != "" && got != tt.wantExact {
				t.Errorf("combined = %q, want %q", got, tt.wantExact)
			}
			for _, fragment := range tt.want {
				if !strings.Contains(got, fragment) {
					t.Errorf("combined output missing %q:\n%s", fragment, got)
				}
			}
		})
	}

	// Expert-only output must not carry an empty structural heading.
	if got := combineInterpretations(nil, "소견"); strings.Contains(got, "【구조적 분석】") {
		t.Errorf("expert-only output has structural heading: %q", got)
	}
}
