// internal/workers/triage/analyze-sentiment/keywords.go
package analyzesentiment

type keywordSet struct {
	name     string
	keywords []string
}

// emotionKeywords are matched as whole words.
var emotionKeywords = []keywordSet{
	{"anger", []string{"angry", "furious", "annoyed", "irritated", "frustrated", "mad", "upset", "outraged"}},
	{"joy", []string{"happy", "pleased", "delighted", "satisfied", "excited", "glad", "grateful", "impressed"}},
	{"sadness", []string{"sad", "disappointed", "unhappy", "regret", "sorry", "depressed", "gloomy"}},
	{"fear", []string{"afraid", "worried", "concerned", "anxious", "nervous", "scared", "terrified"}},
	{"surprise", []string{"surprised", "shocked", "amazed", "astonished", "unexpected", "stunned"}},
	{"disgust", []string{"disgusted", "repulsed", "revolted", "dislike", "hate", "despise"}},
	{"confusion", []string{"confused", "perplexed", "bewildered", "unsure", "uncertain", "lost", "puzzled"}},
	{"urgency", []string{"urgent", "immediately", "asap", "critical", "emergency", "crucial", "deadline"}},
	{"trust", []string{"trust", "rely", "believe", "confidence", "faith", "assurance"}},
}

// sentimentKeywords are matched as substrings. Order decides ties between categories.
var sentimentKeywords = []keywordSet{
	{SentimentPositive, []string{
		"love", "great", "excellent", "good", "best", "awesome", "fantastic", "wonderful",
		"helpful", "works", "solved", "fixed", "resolved", "thanks", "thank you", "appreciate",
	}},
	{SentimentNegative, []string{
		"bad", "terrible", "awful", "horrible", "useless", "problem", "issue", "error", "bug",
		"glitch", "doesn't work", "failed", "failure", "poor", "disappointed", "waste", "broken",
		"crash", "not working",
	}},
	{SentimentNeutral, []string{
		"how", "what", "when", "where", "who", "which", "question", "information", "help",
		"assist", "details", "instructions", "guidance", "explain", "tell", "show",
	}},
}

func sentimentKeywordsFor(name string) []string {
	for _, set := range sentimentKeywords {
		if set.name == name {
			return set.keywords
		}
	}
	return nil
}
