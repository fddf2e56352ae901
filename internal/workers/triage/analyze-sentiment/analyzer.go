// internal/workers/triage/analyze-sentiment/analyzer.go
package analyzesentiment

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"ticket-triage/internal/common/metrics"
)

const (
	emotionWeight   = 0.2
	sentimentWeight = 0.1
	neutralFloor    = 0.5
	clearSentiment  = 0.4

	maxKeyPhrases   = 3
	longSentence    = 100
	phraseHalfWidth = 40
)

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	emotionRegexp = compileEmotionKeywords()
)

func compileEmotionKeywords() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp)
	for _, set := range emotionKeywords {
		for _, kw := range set.keywords {
			out[kw] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
		}
	}
	return out
}

// Analyze scores the emotions, sentiment and intensity of a ticket's subject and
// description. It is deterministic and has no failure path.
func Analyze(subject, description string) *Output {
	original := subject + " " + description
	text := strings.ToLower(original)

	emotions := detectEmotions(text)
	scores := scoreSentiment(text)
	primary := primarySentiment(scores)
	intensity := calculateIntensity(emotions, original)

	return &Output{
		OverallSentiment: primary,
		Score:            scores[primary],
		SentimentScores:  scores,
		Emotions:         emotions,
		Intensity:        intensity,
		KeyPhrases:       extractKeyPhrases(text, primary),
		Summary:          summarize(primary, emotions, intensity),
		Source:           metrics.SourceHeuristic,
	}
}

// detectEmotions counts whole-word keyword hits. Scores are capped at 1.0 per emotion and
// renormalized to sum to 1 only when their raw sum exceeds 1.
func detectEmotions(text string) map[string]float64 {
	emotions := make(map[string]float64)
	var total float64
	for _, set := range emotionKeywords {
		var score float64
		for _, kw := range set.keywords {
			if n := len(emotionRegexp[kw].FindAllStringIndex(text, -1)); n > 0 {
				score += float64(n) * emotionWeight
			}
		}
		if score > 0 {
			score = math.Min(1.0, score)
			emotions[set.name] = score
			total += score
		}
	}

	if total > 1 {
		for k, v := range emotions {
			emotions[k] = v / total
		}
	}
	return emotions
}

// scoreSentiment adds a fixed weight per keyword present and normalizes. When no category
// reaches clearSentiment, neutral is raised to neutralFloor and the scores may then sum past 1.
func scoreSentiment(text string) map[string]float64 {
	scores := make(map[string]float64, len(sentimentKeywords))
	var total float64
	for _, set := range sentimentKeywords {
		scores[set.name] = 0
		for _, kw := range set.keywords {
			if strings.Contains(text, kw) {
				scores[set.name] += sentimentWeight
			}
		}
		total += scores[set.name]
	}

	if total > 0 {
		for k, v := range scores {
			scores[k] = v / total
		}
	}

	if maxScore(scores) < clearSentiment {
		scores[SentimentNeutral] = math.Max(scores[SentimentNeutral], neutralFloor)
	}
	return scores
}

func primarySentiment(scores map[string]float64) string {
	best := sentimentKeywords[0].name
	for _, set := range sentimentKeywords[1:] {
		if scores[set.name] > scores[best] {
			best = set.name
		}
	}
	return best
}

// calculateIntensity works on the original-case text so shouted words are visible.
func calculateIntensity(emotions map[string]float64, text string) float64 {
	intensity := math.Min(0.3, float64(strings.Count(text, "!"))*0.1)

	var caps int
	for _, w := range strings.Fields(text) {
		if utf8.RuneCountInString(w) > 3 && isUpperWord(w) {
			caps++
		}
	}
	intensity += math.Min(0.3, float64(caps)*0.05)

	if len(emotions) > 0 {
		intensity += math.Min(0.4, maxScore(emotions)*0.4)
	}
	return math.Min(1.0, intensity)
}

// isUpperWord reports whether w has at least one letter and no lowercase letters.
func isUpperWord(w string) bool {
	cased := false
	for _, r := range w {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// extractKeyPhrases keeps up to three sentences that mention a keyword of the primary
// sentiment. Long sentences are cut to a window around the first keyword they contain.
func extractKeyPhrases(text, primary string) []string {
	keywords := sentimentKeywordsFor(primary)
	var phrases []string

	for _, sentence := range sentenceSplit.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		kw, found := firstKeyword(sentence, keywords)
		if !found {
			continue
		}

		if utf8.RuneCountInString(sentence) > longSentence {
			phrases = append(phrases, "..."+window(sentence, kw)+"...")
		} else {
			phrases = append(phrases, sentence)
		}
		if len(phrases) >= maxKeyPhrases {
			break
		}
	}
	return phrases
}

func firstKeyword(sentence string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(sentence, kw) {
			return kw, true
		}
	}
	return "", false
}

func window(sentence, kw string) string {
	runes := []rune(sentence)
	pos := utf8.RuneCountInString(sentence[:strings.Index(sentence, kw)])
	start := pos - phraseHalfWidth
	if start < 0 {
		start = 0
	}
	end := pos + phraseHalfWidth
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[start:end])
}

func summarize(sentiment string, emotions map[string]float64, intensity float64) string {
	level := "strong"
	switch {
	case intensity < 0.3:
		level = "mild"
	case intensity < 0.6:
		level = "moderate"
	}

	top := topEmotions(emotions, 2)
	var named string
	switch len(top) {
	case 1:
		named = top[0]
	case 2:
		named = top[0] + " and " + top[1]
	}

	switch sentiment {
	case SentimentPositive:
		return fmt.Sprintf("Customer exhibits %s positive sentiment%s.", level, withEmotions(named))
	case SentimentNegative:
		return fmt.Sprintf("Customer shows %s negative sentiment%s.", level, withEmotions(named))
	default:
		if named != "" {
			return fmt.Sprintf("Customer has a neutral tone but displays %s.", named)
		}
		return "Customer has a neutral and factual tone."
	}
}

func withEmotions(named string) string {
	if named == "" {
		return ""
	}
	return " with " + named
}

// topEmotions orders by score, keeping the fixed emotion order on ties.
func topEmotions(emotions map[string]float64, n int) []string {
	names := make([]string, 0, len(emotions))
	for _, set := range emotionKeywords {
		if _, ok := emotions[set.name]; ok {
			names = append(names, set.name)
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		return emotions[names[i]] > emotions[names[j]]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

func maxScore(scores map[string]float64) float64 {
	var best float64
	for _, v := range scores {
		if v > best {
			best = v
		}
	}
	return best
}
