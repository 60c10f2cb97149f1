package dialog

import (
	"github.com/sirupsen/logrus"

	"campus-robot/pkg/metrics"
	"campus-robot/pkg/nlu"
)

// Re-recognition pass outcomes recorded in metrics.
const (
	rerecognitionSkipped  = "skipped"
	rerecognitionFailed   = "failed"
	rerecognitionImproved = "improved"
	rerecognitionNoGain   = "no_improvement"
)

var entityScoreKeys = []string{
	nlu.EntityLocationScore,
	nlu.EntityFacultyScore,
	nlu.EntityDepartmentScore,
}

// maybeReRecognize runs a grammar-constrained second pass when the first
// parse matched an entity only weakly. The second pass can only refine
// entities: the original intent, confidence and raw text always stand,
// and a second pass that scores no better than the weak first-pass match
// changes nothing.
func (e *Engine) maybeReRecognize(parsed *nlu.ParsedIntent) *nlu.ParsedIntent {
	if !e.cfg.GrammarRerecognitionEnabled {
		return parsed
	}
	switch parsed.Intent {
	case nlu.IntentGreeting, nlu.IntentFarewell, nlu.IntentHelp, nlu.IntentUnknown:
		return parsed
	}

	grammar := e.parser.EntityGrammar(parsed.Intent)
	if len(grammar) == 0 {
		return parsed
	}

	// Absent scores count as strong: a missing entity is not a weak match
	// to repair. Only a sub-threshold fuzzy hit triggers the second pass.
	allStrong := true
	maxWeakScore := 0
	for _, key := range entityScoreKeys {
		score := parsed.ScoreOr(key, 100)
		if score < e.cfg.EntityStrongMatchThreshold {
			allStrong = false
		}
		if score < 100 && score > maxWeakScore {
			maxWeakScore = score
		}
	}
	if allStrong {
		countReRecognition(rerecognitionSkipped)
		return parsed
	}

	res, err := e.recognizer.RecognizeWithGrammar(grammar)
	if err != nil || res == nil || res.Text == "" {
		if err != nil {
			e.log.WithError(err).Debug("Grammar re-recognition unavailable")
		}
		countReRecognition(rerecognitionFailed)
		return parsed
	}

	reparsed := e.parser.Parse(res.Text)
	bestNewScore := 0
	for _, key := range entityScoreKeys {
		if score := reparsed.ScoreOr(key, 0); score > bestNewScore {
			bestNewScore = score
		}
	}

	if bestNewScore <= maxWeakScore {
		countReRecognition(rerecognitionNoGain)
		return parsed
	}

	e.log.WithFields(logrus.Fields{
		"first_pass_score":  maxWeakScore,
		"second_pass_score": bestNewScore,
	}).Debug("Grammar re-recognition improved entity match")
	countReRecognition(rerecognitionImproved)

	return &nlu.ParsedIntent{
		Intent:     parsed.Intent,
		Confidence: parsed.Confidence,
		Entities:   reparsed.Entities,
		RawText:    parsed.RawText,
	}
}

func countReRecognition(outcome string) {
	if metrics.ReRecognitions != nil {
		metrics.ReRecognitions.WithLabelValues(outcome).Inc()
	}
}
