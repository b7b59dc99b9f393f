package summarizer

import "strings"

const (
	// FallbackSentences is how many leading sentences the offline summary keeps.
	FallbackSentences = 2
	sentenceDelimiter = ". "
)

// Fallback shortens text to its first FallbackSentences sentences, splitting on ". ".
// It is pure and deterministic; text with fewer sentences is returned unchanged.
func Fallback(text string) string {
	if text == "" {
		return ""
	}
	parts := strings.SplitN(text, sentenceDelimiter, FallbackSentences+1)
	if len(parts) <= FallbackSentences {
		return text
	}
	return strings.Join(parts[:FallbackSentences], sentenceDelimiter)
}

// FallbackAll applies Fallback to each text, preserving order.
func FallbackAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = Fallback(t)
	}
	return out
}
