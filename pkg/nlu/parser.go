package nlu

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultFuzzyThreshold is the minimum entity similarity score accepted by
// the extractor when no explicit threshold is configured.
const DefaultFuzzyThreshold = 70

// Parser turns a raw transcript into a classified, entity-annotated intent.
// It owns the full understanding pipeline: normalization, multi-pattern
// intent scoring, fuzzy entity extraction and conflict resolution.
type Parser struct {
	log             *logrus.Entry
	locationNames   []string
	facultyNames    []string
	departmentNames []string
	fuzzyThreshold  int
}

// NewParser creates a parser over the given candidate-name lists. The lists
// are supplied once at construction; the parser never queries a store
// per utterance.
func NewParser(logger *logrus.Logger, locations, faculty, departments []string, fuzzyThreshold int) *Parser {
	if fuzzyThreshold <= 0 {
		fuzzyThreshold = DefaultFuzzyThreshold
	}
	return &Parser{
		log:             logger.WithField("component", "intent_parser"),
		locationNames:   locations,
		facultyNames:    faculty,
		departmentNames: departments,
		fuzzyThreshold:  fuzzyThreshold,
	}
}

// Parse classifies the transcript and extracts entities. RawText always
// holds the original pre-normalization text.
func (p *Parser) Parse(text string) *ParsedIntent {
	rawText := strings.TrimSpace(text)
	if rawText == "" {
		return &ParsedIntent{Intent: IntentUnknown, Confidence: 0, RawText: rawText}
	}

	normalized := Normalize(rawText)
	intent, confidence := Classify(normalized)

	entities := make(map[string]interface{})
	if m, ok := bestFuzzyMatch(normalized, p.locationNames, p.fuzzyThreshold); ok {
		entities[EntityLocation] = m.name
		entities[EntityLocationScore] = m.score
	}
	if m, ok := bestFuzzyMatch(normalized, p.facultyNames, p.fuzzyThreshold); ok {
		entities[EntityFaculty] = m.name
		entities[EntityFacultyScore] = m.score
	}
	if m, ok := bestFuzzyMatch(normalized, p.departmentNames, p.fuzzyThreshold); ok {
		entities[EntityDepartment] = m.name
		entities[EntityDepartmentScore] = m.score
	}

	// No pattern matched but an entity did: infer the intent from the
	// strongest entity category, preferring location over faculty over
	// department.
	if intent == IntentUnknown && len(entities) > 0 {
		if score, ok := entities[EntityLocationScore].(int); ok {
			intent = IntentNavigation
			confidence = float64(score) / 100.0
		} else if score, ok := entities[EntityFacultyScore].(int); ok {
			intent = IntentFacultyInfo
			confidence = float64(score) / 100.0
		} else if score, ok := entities[EntityDepartmentScore].(int); ok {
			intent = IntentDepartmentInfo
			confidence = float64(score) / 100.0
		}
	}

	resolveEntityConflicts(intent, entities)

	parsed := &ParsedIntent{
		Intent:     intent,
		Confidence: confidence,
		Entities:   entities,
		RawText:    rawText,
	}

	p.log.WithFields(logrus.Fields{
		"intent":     parsed.Intent,
		"confidence": parsed.Confidence,
		"entities":   len(parsed.Entities),
	}).Debug("Parsed utterance")

	return parsed
}

// EntityGrammar returns the candidate phrases to constrain a second
// recognition pass with, based on the intent. Student names are unbounded,
// so student_lookup gets no grammar.
func (p *Parser) EntityGrammar(intent string) []string {
	var names []string
	switch intent {
	case IntentNavigation:
		names = p.locationNames
	case IntentFacultyInfo:
		names = p.facultyNames
	case IntentDepartmentInfo, IntentCampusInfo:
		names = p.departmentNames
	default:
		return nil
	}

	grammar := make([]string, 0, len(names))
	for _, name := range names {
		grammar = append(grammar, strings.ToLower(name))
	}
	return grammar
}
