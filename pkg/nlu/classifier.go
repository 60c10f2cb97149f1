package nlu

import "regexp"

// intentPattern pairs an intent tag with its matching pattern and a
// specificity weight reflecting how distinctive the pattern is. The list
// is ordered; on equal confidence the earlier-listed pattern wins.
type intentPattern struct {
	intent string
	re     *regexp.Regexp
	weight float64
}

var intentPatterns = []intentPattern{
	{
		IntentNavigation,
		regexp.MustCompile(`(?i)\b(how\s+(?:do\s+i\s+)?(?:get|go|reach|find|walk|navigate)` +
			`|where\s+is|take\s+me\s+to|directions?\s+to` +
			`|way\s+to|route\s+to|path\s+to` +
			`|i\s+(?:want|need)\s+to\s+(?:go|get|reach|find))\b`),
		0.90,
	},
	{
		IntentFacultyInfo,
		regexp.MustCompile(`(?i)\b(who\s+is\s+(?:dr|prof|professor|doctor|the)` +
			`|faculty|professor|teacher|staff` +
			`|(?:dr|prof)\s*\.?\s*\w+` +
			`|office\s+(?:of|location|hours)` +
			`|hod|head\s+of\s+department` +
			`|principal|vice\s*-?\s*principal|dean|chairman|director)\b`),
		0.90,
	},
	{
		IntentStudentLookup,
		regexp.MustCompile(`(?i)\b(student|roll\s*number|which\s+(?:class|section|year)` +
			`|enroll|belongs?\s+to)\b`),
		0.85,
	},
	{
		IntentDepartmentInfo,
		regexp.MustCompile(`(?i)\b(department|(?:computer\s+science|ece|mechanical|civil|it` +
			`|electrical|electronics|management|mca|bca|commerce` +
			`|english|hindi|malayalam|hotel\s+management` +
			`|applied\s+science|humanities)` +
			`\s*(?:department|dept)?` +
			`|what\s+departments?` +
			`|which\s+college)\b`),
		0.85,
	},
	{
		IntentCampusInfo,
		regexp.MustCompile(`(?i)\b(tell\s+me\s+about` +
			`|(?:what|where)\s+(?:is|are)\s+the` +
			`|information\s+(?:about|on|regarding)` +
			`|do\s+you\s+have\s+(?:a\s+)?` +
			`|is\s+there\s+(?:a\s+|any\s+)?` +
			`|about\s+the` +
			`|hostel|library|admission|placement|canteen|cafeteria` +
			`|sports|lab|club|committee|seminar|workshop` +
			`|history|vision|mission|course|programme|program` +
			`|scholarship|fees?|facility|facilities|auditorium` +
			`|transportation|bus|nss|ncc)\b`),
		0.70,
	},
	{
		IntentGreeting,
		regexp.MustCompile(`(?i)\b(hello|hi|hey|good\s+(?:morning|afternoon|evening)` +
			`|greetings|howdy|what'?s?\s+up)\b`),
		0.60,
	},
	{
		IntentFarewell,
		regexp.MustCompile(`(?i)\b(bye|goodbye|see\s+you|thank(?:s|\s+you)|that'?s?\s+all` +
			`|done|no\s+more\s+questions)\b`),
		0.60,
	},
	{
		IntentHelp,
		regexp.MustCompile(`(?i)\b(help|what\s+can\s+you\s+do|options|menu` +
			`|capabilities|features)\b`),
		0.65,
	},
}

// Classify scores every pattern against the normalized text and returns the
// highest-scoring intent. Confidence is weight * (0.7 + 0.3*span_ratio)
// where span_ratio is the matched span length over the text length. A
// strictly-greater comparison keeps the earlier-listed pattern on ties.
// Returns IntentUnknown with confidence 0 when nothing matches.
func Classify(text string) (string, float64) {
	bestIntent := IntentUnknown
	bestConfidence := 0.0

	if len(text) == 0 {
		return bestIntent, bestConfidence
	}

	for _, p := range intentPatterns {
		match := p.re.FindString(text)
		if match == "" {
			continue
		}
		spanRatio := float64(len(match)) / float64(len(text))
		confidence := p.weight * (0.7 + 0.3*spanRatio)
		if confidence > bestConfidence {
			bestConfidence = confidence
			bestIntent = p.intent
		}
	}

	return bestIntent, bestConfidence
}
