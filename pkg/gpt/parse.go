package gpt

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/memorygarden/drawing-analyzer/pkg/types"
)

// Defaults applied by the parser. Structured responses missing a field get
// the 0.5 confidence; keyword-matched fallbacks get 0.4; a response with no
// recognizable emotion at all gets happiness at 0.3.
const (
	defaultInterpretation = "분석 결과를 파싱할 수 없습니다."

	structuredDefaultConfidence = 0.5
	keywordMatchConfidence      = 0.4
	fallbackConfidence          = 0.3
)

// emotionVocabulary maps looser emotion vocabulary onto the Ekman taxonomy.
// Checked in declaration order against the reported emotion first, then the
// interpretation text.
var emotionVocabulary = []struct {
	keyword string
	emotion types.Emotion
}{
	{"긍정적", types.EmotionHappiness},
	{"positive", types.EmotionHappiness},
	{"기쁨", types.EmotionHappiness},
	{"즐거움", types.EmotionHappiness},
	{"부정적", types.EmotionSadness},
	{"negative", types.EmotionSadness},
	{"우울", types.EmotionSadness},
	{"슬픔", types.EmotionSadness},
	{"불안", types.EmotionFear},
	{"두려움", types.EmotionFear},
	{"걱정", types.EmotionFear},
	{"분노", types.EmotionAnger},
	{"화남", types.EmotionAnger},
	{"짜증", types.EmotionAnger},
	{"놀라움", types.EmotionSurprise},
	{"신기함", types.EmotionSurprise},
	{"혐오", types.EmotionDisgust},
	{"거부감", types.EmotionDisgust},
}

// emotionKeywords drives the raw-text fallback scan. First match wins, in
// this declaration order.
var emotionKeywords = []struct {
	emotion  types.Emotion
	keywords []string
}{
	{types.EmotionAnger, []string{"분노", "화", "짜증", "적대", "anger"}},
	{types.EmotionDisgust, []string{"혐오", "거부", "불쾌", "disgust"}},
	{types.EmotionFear, []string{"두려움", "불안", "걱정", "fear", "anxiety"}},
	{types.EmotionHappiness, []string{"기쁨", "즐거움", "행복", "희망", "happiness", "positive"}},
	{types.EmotionSadness, []string{"슬픔", "우울", "상실", "sadness", "negative"}},
	{types.EmotionSurprise, []string{"놀라움", "신기", "호기심", "surprise"}},
}

// structuredResponse mirrors the JSON block the interpreter is asked to emit.
// Pointers distinguish missing fields from zero values.
type structuredResponse struct {
	Interpretation    string   `json:"interpretation"`
	Emotion           string   `json:"emotion"`
	EmotionConfidence *float64 `json:"emotion_confidence"`
}

// ParseResponse extracts the structured block from the interpreter's reply
// and normalizes it onto the closed six-emotion taxonomy. It never fails:
// a malformed reply degrades to a keyword scan of the raw text.
func ParseResponse(raw string) types.InterpretationResult {
	jsonText := extractJSONBlock(raw)

	var parsed structuredResponse
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return keywordFallback(raw)
	}

	interpretation := parsed.Interpretation
	if interpretation == "" {
		interpretation = defaultInterpretation
	}

	confidence := structuredDefaultConfidence
	if parsed.EmotionConfidence != nil {
		confidence = clamp01(*parsed.EmotionConfidence)
	}

	return types.InterpretationResult{
		Interpretation:    interpretation,
		Emotion:           normalizeEmotion(parsed.Emotion, interpretation),
		EmotionConfidence: confidence,
	}
}

// normalizeEmotion maps a reported emotion onto the Ekman taxonomy. Unknown
// vocabulary is resolved through the mapping table, first against the
// reported value, then against the interpretation text.
func normalizeEmotion(reported, interpretation string) types.Emotion {
	emotion := types.Emotion(strings.ToLower(strings.TrimSpace(reported)))
	if emotion.IsValid() {
		return emotion
	}

	for _, entry := range emotionVocabulary {
		if strings.Contains(string(emotion), entry.keyword) ||
			strings.Contains(interpretation, entry.keyword) {
			return entry.emotion
		}
	}
	return types.EmotionHappiness
}

// keywordFallback assigns an emotion by scanning the raw reply for known
// keywords. The raw text itself becomes the interpretation.
func keywordFallback(raw string) types.InterpretationResult {
	lower := strings.ToLower(raw)

	emotion := types.EmotionHappiness
	confidence := fallbackConfidence

	for _, entry := range emotionKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				emotion = entry.emotion
				confidence = keywordMatchConfidence
				break
			}
		}
		if confidence == keywordMatchConfidence {
			break
		}
	}

	return types.InterpretationResult{
		Interpretation:    raw,
		Emotion:           emotion,
		EmotionConfidence: confidence,
	}
}

var (
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment  = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailing     = regexp.MustCompile(`,(\s*[}\]])`)
)

// extractJSONBlock pulls the fenced json block out of a prose reply and
// sanitizes model quirks: code fences, comments, trailing commas, leading
// chatter around the outermost braces.
func extractJSONBlock(raw string) string {
	raw = strings.TrimSpace(raw)

	if idx := strings.Index(raw, "```json"); idx >= 0 {
		raw = raw[idx+len("```json"):]
		if end := strings.Index(raw, "```"); end >= 0 {
			raw = raw[:end]
		}
	} else if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
