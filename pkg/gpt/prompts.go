package gpt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/memorygarden/drawing-analyzer/pkg/types"
)

// visionSystemPrompt is used when the drawing itself is attached to the
// request. It demands a longer interpretation than the text-only prompt.
const visionSystemPrompt = `당신은 조현병 회복기 환자를 위한 심리 미술 치료 전문가입니다.
환자가 그린 그림을 직접 보고 분석하여 심리 상태를 파악하고 적절한 피드백을 제공합니다.

**이미지 분석 시 중점 사항:**
1. 그림의 전체적인 구성과 색상 사용
2. 선의 굵기, 압력, 방향성
3. 공간 활용과 객체 배치
4. 세부 묘사의 정도와 완성도
5. 상징적 요소와 은유적 표현

**심리 분석 관점:**
- 긍정적이고 격려적인 톤으로 응답
- 환자의 감정 상태를 세심하게 파악
- 치료적 관점에서의 해석
- 구체적이고 실용적인 제안

**Ekman의 6가지 기본 감정 분석 기준:**
- anger: 분노, 짜증, 적대감이 드러나는 경우
- disgust: 혐오, 거부감, 불쾌감이 나타나는 경우
- fear: 두려움, 불안, 걱정이 명확히 드러나는 경우
- happiness: 기쁨, 만족, 즐거움, 희망이 표현되는 경우
- sadness: 슬픔, 우울, 상실감이 나타나는 경우
- surprise: 놀라움, 호기심, 새로운 발견이 드러나는 경우

응답은 반드시 다음 JSON 형식으로만 해주세요:
` + "```json" + `
{
    "interpretation": "이미지를 직접 보고 분석한 전문적 해석 (300자 이상)",
    "emotion": "anger/disgust/fear/happiness/sadness/surprise",
    "emotion_confidence": 0.0~1.0
}
` + "```"

// textSystemPrompt is the fallback prompt when no image can be attached.
const textSystemPrompt = `당신은 조현병 회복기 환자를 위한 심리 미술 치료 전문가입니다.
그림 분석을 통해 환자의 심리 상태를 파악하고 분석합니다.

분석 시 다음 사항을 고려해주세요:
1. 환자의 감정 상태를 세심하게 파악
2. 치료적 관점에서의 해석
3. 구체적이고 실용적인 제안

**Ekman의 6가지 기본 감정 분석 기준:**
- anger: 분노, 짜증, 적대감이 드러나는 경우
- disgust: 혐오, 거부감, 불쾌감이 나타나는 경우
- fear: 두려움, 불안, 걱정이 명확히 드러나는 경우
- happiness: 기쁨, 만족, 즐거움, 희망이 표현되는 경우
- sadness: 슬픔, 우울, 상실감이 나타나는 경우
- surprise: 놀라움, 호기심, 새로운 발견이 드러나는 경우

응답은 반드시 다음 JSON 형식으로만 해주세요:
` + "```json" + `
{
    "interpretation": "그림에 대한 전문적 해석 (200자 이상)",
    "emotion": "anger/disgust/fear/happiness/sadness/surprise",
    "emotion_confidence": 0.0~1.0
}
` + "```"

// stageContexts names the therapeutic goal of each program stage. Stage 0 is
// the fixed HTP assessment; stage 1 doubles as the PITR assessment when the
// request says so, otherwise it is quest stage 1.
var stageContexts = map[int]string{
	0:  "HTP 검사 - 기본적인 심리 상태 평가 (집-나무-사람 그리기)",
	1:  "Quest 1단계 - 현재 감정 인식: 구름을 통한 자아 표현",
	2:  "Quest 2단계 - 기분 표현: 태양과 구름으로 감정 시각화",
	3:  "Quest 3단계 - 자아 성찰: 나무를 통한 내면 탐색",
	4:  "Quest 4단계 - 일상 돌아보기: 길을 따라 하루 일과 표현",
	5:  "Quest 5단계 - 감정 구체화: 열매를 통한 감정 표현",
	6:  "Quest 6단계 - 관계 탐색: 소중한 사람들과의 관계 표현",
	7:  "Quest 7단계 - 마음의 안식: 꽃 정원으로 편안함 표현",
	8:  "Quest 8단계 - 소중한 기억: 별과 함께 특별한 순간 표현",
	9:  "Quest 9단계 - 미래 비전: 꿈꾸는 미래 공간 상상",
	10: "Quest 10단계 - 시간 여행: 과거-현재-미래의 나 표현",
	11: "Quest 11단계 - 공동체 의식: 이상적인 마을 구성",
	12: "Quest 12단계 - 성장 완성: 별과 꽃으로 여정 완성",
}

const pitrStageContext = "PITR 검사 - 스트레스 및 대처 능력 평가 (빗속의 사람 그리기)"

func stageContext(stage int, assessment types.AssessmentType) string {
	if assessment == types.AssessmentPITR && stage == 1 {
		return pitrStageContext
	}
	if ctx, ok := stageContexts[stage]; ok {
		return ctx
	}
	return "일반적인 그림 치료 단계"
}

// buildVisionPrompt assembles the user prompt for vision mode. Detector
// output is attached as reference material only; the model is asked to weigh
// the image itself over the detections.
func buildVisionPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("환자가 그린 그림을 이미지와 함께 분석해주세요.\n\n")
	fmt.Fprintf(&b, "**치료 단계**: %d단계\n", req.Stage)
	fmt.Fprintf(&b, "**환자의 그림 설명**: %s\n", req.Description)

	if len(req.DetectedObjects) > 0 {
		fmt.Fprintf(&b, "\n**AI 객체 탐지 결과 (참고용)**: %s", strings.Join(req.DetectedObjects, ", "))
	}
	if s := formatPositions(req.Positions); s != "" {
		fmt.Fprintf(&b, "\n**객체 위치 정보 (참고용)**: %s", s)
	}
	if s := formatSizes(req.Sizes); s != "" {
		fmt.Fprintf(&b, "\n**객체 크기 정보 (참고용)**: %s", s)
	}
	fmt.Fprintf(&b, "\n**단계별 치료 목표**: %s", stageContext(req.Stage, req.Assessment))

	b.WriteString(`

**분석 요청사항:**
1. 이미지를 직접 관찰하여 그림의 특징을 분석해주세요
2. 선의 세기, 색상, 구성, 완성도 등을 종합적으로 평가해주세요
3. AI가 탐지한 객체 정보는 참고만 하고, 실제 이미지에서 보이는 모든 요소를 고려해주세요
4. 환자의 설명에 대한 연관성도 분석해주세요
`)

	return b.String()
}

// buildTextPrompt assembles the user prompt for text mode.
func buildTextPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("환자가 그린 그림을 분석해주세요.\n\n")
	fmt.Fprintf(&b, "**치료 단계**: %d단계\n", req.Stage)
	fmt.Fprintf(&b, "**그림 설명**: %s\n", req.Description)
	fmt.Fprintf(&b, "**탐지된 객체들**: %s\n", strings.Join(req.DetectedObjects, ", "))

	if s := formatPositions(req.Positions); s != "" {
		fmt.Fprintf(&b, "\n**객체 위치 정보**: %s", s)
	}
	if s := formatSizes(req.Sizes); s != "" {
		fmt.Fprintf(&b, "\n**객체 크기 정보**: %s", s)
	}
	fmt.Fprintf(&b, "\n**단계별 치료 목표**: %s", stageContext(req.Stage, req.Assessment))

	return b.String()
}

func formatPositions(positions map[string]types.SpatialDescriptor) string {
	if len(positions) == 0 {
		return ""
	}
	parts := make([]string, 0, len(positions))
	for _, label := range sortedKeys(positions) {
		parts = append(parts, fmt.Sprintf("%s: %s", label, positions[label].PositionLabel))
	}
	return strings.Join(parts, ", ")
}

func formatSizes(sizes map[string]types.SpatialDescriptor) string {
	if len(sizes) == 0 {
		return ""
	}
	parts := make([]string, 0, len(sizes))
	for _, label := range sortedKeys(sizes) {
		d := sizes[label]
		parts = append(parts, fmt.Sprintf("%s: %s (면적 비율 %.4f)", label, d.SizeDesc, d.RelativeArea))
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]types.SpatialDescriptor) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
