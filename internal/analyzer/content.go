package analyzer

import (
	"math"
	"strings"
	"unicode"

	"github.com/user/seo-audit-service/internal/entity"
)

func checkContent(p *page) (entity.ContentAnalysis, error) {
	return analyzeText(p.bodyText()), nil
}

func analyzeText(text string) entity.ContentAnalysis {
	words := strings.Fields(text)
	sentences := countSentences(text)
	return entity.ContentAnalysis{
		WordCount:        len(words),
		SentenceCount:    sentences,
		IsThinContent:    len(words) < thinContentWords,
		ReadabilityScore: fleschReadingEase(words, sentences),
	}
}

// countSentences counts runs of terminal punctuation. Text without any
// terminator still counts as one sentence.
func countSentences(text string) int {
	n := 0
	inTerminator := false
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			if !inTerminator {
				n++
			}
			inTerminator = true
		default:
			inTerminator = false
		}
	}
	if n == 0 && strings.TrimSpace(text) != "" {
		return 1
	}
	return n
}

// fleschReadingEase returns the Flesch reading-ease score clamped to 0..100
// and rounded to one decimal.
func fleschReadingEase(words []string, sentences int) float64 {
	if len(words) == 0 || sentences == 0 {
		return 0
	}
	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}
	wps := float64(len(words)) / float64(sentences)
	spw := float64(syllables) / float64(len(words))
	score := 206.835 - 1.015*wps - 84.6*spw
	score = math.Max(0, math.Min(100, score))
	return math.Round(score*10) / 10
}

// countSyllables approximates English syllables by counting vowel groups.
func countSyllables(word string) int {
	w := strings.ToLower(strings.TrimFunc(word, func(r rune) bool { return !unicode.IsLetter(r) }))
	if w == "" {
		return 0
	}
	count := 0
	prevVowel := false
	for _, r := range w {
		v := strings.ContainsRune("aeiouy", r)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}
	if strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") && count > 1 {
		count--
	}
	if count == 0 {
		count = 1
	}
	return count
}
