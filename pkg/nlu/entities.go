package nlu

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// minTokenSetTokens is the minimum candidate token count before token-set
// similarity is considered. Short candidates under unordered-token matching
// produce false positives against unrelated long phrases.
const minTokenSetTokens = 3

// minDistinctiveTokenLen is the shortest candidate token that can identify
// its candidate on its own. Shorter tokens (acronyms, articles) are too
// ambiguous to credit as a full match.
const minDistinctiveTokenLen = 4

// entityMatch is one resolved candidate with its 0-100 similarity score.
type entityMatch struct {
	name  string
	score int
}

// bestFuzzyMatch finds the best-matching candidate within the text.
// A case-insensitive substring containment scores 100 and short-circuits,
// and a word of the text equal to a token found in only one candidate is
// credited the same way ("library" alone names Central Library). Otherwise
// candidates are scored by partial ratio, and candidates with three or
// more tokens additionally by token-set ratio (max of the two). Returns
// false when the best score is below the threshold.
func bestFuzzyMatch(text string, candidates []string, threshold int) (entityMatch, bool) {
	var best entityMatch
	textLower := strings.ToLower(text)
	textWords := make(map[string]struct{})
	for _, w := range strings.Fields(textLower) {
		textWords[w] = struct{}{}
	}
	distinctive := distinctiveTokens(candidates)

	for _, candidate := range candidates {
		candLower := strings.ToLower(candidate)
		if strings.Contains(textLower, candLower) {
			return entityMatch{name: candidate, score: 100}, true
		}

		score := fuzzy.PartialRatio(textLower, candLower)

		for _, tok := range strings.Fields(candLower) {
			if _, ok := distinctive[tok]; !ok {
				continue
			}
			if _, ok := textWords[tok]; ok {
				score = 100
				break
			}
		}

		if score < 100 && len(strings.Fields(candLower)) >= minTokenSetTokens {
			if tokenScore := fuzzy.TokenSetRatio(textLower, candLower); tokenScore > score {
				score = tokenScore
			}
		}

		if score > best.score {
			best = entityMatch{name: candidate, score: score}
		}
	}

	if best.score >= threshold {
		return best, true
	}
	return entityMatch{}, false
}

// distinctiveTokens collects tokens of minDistinctiveTokenLen or more
// characters that appear in exactly one candidate. Tokens shared between
// candidates ("main", "department") cannot identify either.
func distinctiveTokens(candidates []string) map[string]struct{} {
	counts := make(map[string]int)
	for _, candidate := range candidates {
		seen := make(map[string]struct{})
		for _, tok := range strings.Fields(strings.ToLower(candidate)) {
			if len(tok) < minDistinctiveTokenLen {
				continue
			}
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			counts[tok]++
		}
	}
	out := make(map[string]struct{}, len(counts))
	for tok, n := range counts {
		if n == 1 {
			out[tok] = struct{}{}
		}
	}
	return out
}

// resolveEntityConflicts drops one of location/department_name when both
// matched. Navigation keeps the location, department_info keeps the
// department; any other intent keeps the higher score, dropping the
// department on ties.
func resolveEntityConflicts(intent string, entities map[string]interface{}) {
	_, hasLoc := entities[EntityLocation]
	_, hasDept := entities[EntityDepartment]
	if !hasLoc || !hasDept {
		return
	}

	dropDept := func() {
		delete(entities, EntityDepartment)
		delete(entities, EntityDepartmentScore)
	}
	dropLoc := func() {
		delete(entities, EntityLocation)
		delete(entities, EntityLocationScore)
	}

	switch intent {
	case IntentNavigation:
		dropDept()
	case IntentDepartmentInfo:
		dropLoc()
	default:
		locScore, _ := entities[EntityLocationScore].(int)
		deptScore, _ := entities[EntityDepartmentScore].(int)
		if locScore >= deptScore {
			dropDept()
		} else {
			dropLoc()
		}
	}
}
