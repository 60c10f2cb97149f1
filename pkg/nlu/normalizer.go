package nlu

import (
	"regexp"
	"strings"
)

// correction is one entry of the transcript correction table: a garbled
// phrase the recognizer produces and the canonical phrase it stands for.
type correction struct {
	re        *regexp.Regexp
	canonical string
}

// Correction entries are applied in table order; later entries see the
// output of earlier ones.
var corrections = buildCorrections([][2]string{
	// Department acronyms
	{"see us", "CS"},
	{"see yes", "CS"},
	{"see as", "CS"},
	{"see s", "CS"},
	{"c s", "CS"},
	{"easy", "ECE"},
	{"e c e", "ECE"},
	{"ee see ee", "ECE"},
	{"i tea", "IT"},
	{"eye tea", "IT"},
	{"i t", "IT"},
	{"emmy see hey", "MCA"},
	{"em see a", "MCA"},
	{"m c a", "MCA"},
	{"bee see hey", "BCA"},
	{"b c a", "BCA"},
	{"bee see a", "BCA"},
	{"em bee hey", "MBA"},
	{"m b a", "MBA"},
	{"bee tech", "B.Tech"},
	{"em tech", "M.Tech"},
	// Titles and honorifics
	{"doc", "Dr."},
	{"doc to", "Doctor"},
	{"doc tar", "Doctor"},
	{"mister", "Mr."},
	{"miss is", "Mrs."},
	{"miss us", "Mrs."},
	// v/w confusion
	{"vhere", "where"},
	{"vhat", "what"},
	{"vhen", "when"},
	{"vhich", "which"},
	{"vho", "who"},
	{"vhy", "why"},
	{"vith", "with"},
	{"ve", "we"},
	{"vant", "want"},
	{"vork", "work"},
	{"vay", "way"},
	// th/t and th/d substitution
	{"tink", "think"},
	{"ting", "thing"},
	{"dat", "that"},
	{"dis", "this"},
	{"dere", "there"},
	{"dem", "them"},
	{"den", "then"},
	{"de", "the"},
	{"dey", "they"},
	{"wid", "with"},
	{"baat", "bath"},
	{"mout", "mouth"},
	// Campus terms
	{"liberry", "library"},
	{"libbary", "library"},
	{"hostle", "hostel"},
	{"hostall", "hostel"},
	{"affice", "office"},
	{"offis", "office"},
	{"can teen", "canteen"},
	{"kanteen", "canteen"},
	{"caffeteria", "cafeteria"},
	{"labortary", "laboratory"},
	{"labrotary", "laboratory"},
	{"auditoriyam", "auditorium"},
	{"semminar", "seminar"},
	{"placements", "placement"},
	{"admishun", "admission"},
	{"admishn", "admission"},
	{"depart meant", "department"},
	{"departmant", "department"},
	{"deparment", "department"},
	{"principel", "principal"},
	{"prinsiple", "principal"},
	{"prncipal", "principal"},
	{"professar", "professor"},
	{"profesar", "professor"},
	// College name variants
	{"lord's", "Lourdes"},
	{"lords", "Lourdes"},
	{"lourds", "Lourdes"},
	{"lowrdes", "Lourdes"},
	{"martha", "Matha"},
	{"mata", "Matha"},
	{"matta", "Matha"},
	// Common name garbles
	{"raja sh", "Rajesh"},
	{"rajash", "Rajesh"},
	{"sure esh", "Suresh"},
	{"suresh", "Suresh"},
	{"pree ya", "Priya"},
	{"preya", "Priya"},
	{"sun ill", "Sunil"},
	{"suneel", "Sunil"},
	{"kumar", "Kumar"},
	{"koomar", "Kumar"},
	{"sharme", "Sharma"},
	{"sharmah", "Sharma"},
})

func buildCorrections(pairs [][2]string) []correction {
	out := make([]correction, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, correction{
			re:        regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(p[0]) + `\b`),
			canonical: p[1],
		})
	}
	return out
}

// phoneticRule rewrites a single word. A rewrite is only accepted when the
// result, lower-cased, is in the known-vocabulary guard set; otherwise the
// word is left untouched so the rules cannot corrupt ordinary words.
type phoneticRule struct {
	re   *regexp.Regexp
	repl string
}

var phoneticRules = []phoneticRule{
	{regexp.MustCompile(`(?i)\bvh`), "wh"},
	{regexp.MustCompile(`(?i)\bv([aeiou])`), "w$1"},
	{regexp.MustCompile(`(?i)shun\b`), "tion"},
	{regexp.MustCompile(`(?i)mant\b`), "ment"},
	{regexp.MustCompile(`(?i)shion\b`), "sion"},
	{regexp.MustCompile(`(?i)\bd(is|at|ere|ey|em|en)\b`), "th$1"},
	{regexp.MustCompile(`(?i)iy(?:am|um)\b`), "ium"},
}

var knownVocabulary = toSet([]string{
	"where", "what", "when", "which", "who", "why", "with",
	"want", "way", "work", "we", "will", "well", "were",
	"think", "thing", "that", "this", "there", "them", "then", "the", "they",
	"mention", "department", "placement", "admission", "auditorium",
	"navigation", "direction", "location", "information",
	"question", "session", "permission", "decision",
	"management", "assessment", "environment", "development",
})

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

var abbreviations = buildCorrections([][2]string{
	{"cs", "Computer Science"},
	{"ece", "Electronics and Communication"},
	{"it", "Information Technology"},
	{"mca", "MCA"},
	{"bca", "BCA"},
	{"mech", "Mechanical"},
})

// Normalize rewrites a raw transcript to compensate for systematic
// recognition errors. Stages run in a fixed order: correction table,
// vocabulary-guarded phonetic substitution, then abbreviation expansion.
// The function is pure and deterministic.
func Normalize(text string) string {
	result := text
	for _, c := range corrections {
		result = c.re.ReplaceAllString(result, c.canonical)
	}
	result = applyPhonetics(result)
	for _, a := range abbreviations {
		result = a.re.ReplaceAllString(result, a.canonical)
	}
	return result
}

func applyPhonetics(text string) string {
	words := strings.Fields(text)
	for i, word := range words {
		for _, rule := range phoneticRules {
			candidate := rule.re.ReplaceAllString(word, rule.repl)
			if !strings.EqualFold(candidate, word) && knownVocabulary[strings.ToLower(candidate)] {
				words[i] = candidate
				break
			}
		}
	}
	return strings.Join(words, " ")
}
