// Package wake implements fuzzy wake-phrase detection over noisy speech
// transcripts. Detection is tolerant of recognizer misspellings while
// rejecting unrelated speech that happens to share a word with the phrase.
package wake

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultThreshold is the minimum partial-ratio score treated as a
	// fuzzy wake-phrase hit.
	DefaultThreshold = 85

	// tokenRatio is the per-token similarity floor applied on top of a
	// fuzzy hit: every word of the canonical phrase must resemble some
	// word of the input this closely.
	tokenRatio = 60
)

// DefaultVariants are common recognizer misspellings of "hey robot"
// accepted verbatim.
var DefaultVariants = []string{
	"hey robat",
	"hay robot",
	"hey robert",
	"hey robo",
	"hai robot",
	"he robot",
}

// Detector matches transcripts against a canonical wake phrase and its
// known misrecognized variants. Safe for concurrent use; all state is
// set at construction.
type Detector struct {
	log         *logrus.Entry
	phrase      string
	phraseWords []string
	variants    []string
	threshold   int
}

// NewDetector builds a detector for the given phrase. Variants may be nil,
// in which case DefaultVariants apply when the phrase is the default one.
func NewDetector(logger *logrus.Logger, phrase string, variants []string, threshold int) *Detector {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if variants == nil && phrase == "hey robot" {
		variants = DefaultVariants
	}

	lowered := make([]string, 0, len(variants))
	for _, v := range variants {
		lowered = append(lowered, strings.ToLower(strings.TrimSpace(v)))
	}

	return &Detector{
		log:         logger.WithField("component", "wake_detector"),
		phrase:      phrase,
		phraseWords: strings.Fields(phrase),
		variants:    lowered,
		threshold:   threshold,
	}
}

// Matches reports whether the transcript contains the wake phrase. Exact
// containment of the phrase or a known variant always matches; otherwise
// the transcript must clear the fuzzy threshold and every phrase word must
// have a sufficiently similar input word.
func (d *Detector) Matches(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return false
	}

	words := strings.Fields(text)
	if len(words) < len(d.phraseWords) {
		return false
	}

	if strings.Contains(text, d.phrase) {
		return true
	}
	for _, v := range d.variants {
		if strings.Contains(text, v) {
			return true
		}
	}

	score := fuzzy.PartialRatio(d.phrase, text)
	if score < d.threshold {
		return false
	}

	// A high partial ratio alone passes phrases like "hey rob's report";
	// require each phrase word to resemble some input word too.
	for _, pw := range d.phraseWords {
		matched := false
		for _, w := range words {
			if fuzzy.Ratio(pw, w) >= tokenRatio {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	d.log.WithFields(logrus.Fields{
		"text":  text,
		"score": score,
	}).Debug("Fuzzy wake phrase match")
	return true
}

// Phrase returns the canonical lowercase wake phrase.
func (d *Detector) Phrase() string {
	return d.phrase
}
