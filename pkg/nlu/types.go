package nlu

// Intent tags produced by the classifier.
const (
	IntentNavigation     = "navigation"
	IntentFacultyInfo    = "faculty_info"
	IntentStudentLookup  = "student_lookup"
	IntentDepartmentInfo = "department_info"
	IntentCampusInfo     = "campus_info"
	IntentGreeting       = "greeting"
	IntentFarewell       = "farewell"
	IntentHelp           = "help"
	IntentUnknown        = "unknown"
)

// Entity keys. Each value key is paired with a score key; an extractor
// result contains either both or neither.
const (
	EntityLocation        = "location"
	EntityLocationScore   = "location_score"
	EntityFaculty         = "faculty_name"
	EntityFacultyScore    = "faculty_score"
	EntityDepartment      = "department_name"
	EntityDepartmentScore = "department_score"
)

// ParsedIntent is the result of parsing one utterance.
type ParsedIntent struct {
	Intent     string                 `json:"intent"`
	Confidence float64                `json:"confidence"`
	Entities   map[string]interface{} `json:"entities,omitempty"`
	RawText    string                 `json:"raw_text"`
}

// Entity returns the string value stored under key, if present.
func (p *ParsedIntent) Entity(key string) (string, bool) {
	v, ok := p.Entities[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Score returns the integer score stored under key, if present.
func (p *ParsedIntent) Score(key string) (int, bool) {
	v, ok := p.Entities[key]
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	return n, ok
}

// ScoreOr returns the score stored under key, or def when absent.
func (p *ParsedIntent) ScoreOr(key string, def int) int {
	if n, ok := p.Score(key); ok {
		return n
	}
	return def
}
