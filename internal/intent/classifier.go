package intent

import "strings"

// RuleClassifier classifies queries against locale-keyed rule sets.
// It is stateless after construction and safe for concurrent use.
type RuleClassifier struct {
	rules    map[string]RuleSet
	fallback string
}

// Compile-time interface check.
var _ Classifier = (*RuleClassifier)(nil)

// NewRuleClassifier creates a classifier from the given rule sets.
// The first rule set is the fallback for undetected languages.
// With no rule sets, the built-in English and Polish sets are used.
func NewRuleClassifier(sets ...RuleSet) *RuleClassifier {
	if len(sets) == 0 {
		sets = []RuleSet{EnglishRules(), PolishRules()}
	}
	rules := make(map[string]RuleSet, len(sets))
	for _, rs := range sets {
		rules[rs.Language] = rs
	}
	return &RuleClassifier{rules: rules, fallback: sets[0].Language}
}

// Classify labels the query. An empty or unmatched query is casual.
func (c *RuleClassifier) Classify(query string) Result {
	query = strings.TrimSpace(query)
	lang := c.detectLanguage(query)

	rs, ok := c.rules[lang]
	if !ok {
		rs = c.rules[c.fallback]
	}

	res := Result{
		Intent:     IntentCasual,
		Complexity: scoreComplexity(query),
		Confidence: casualConfidence,
		Language:   lang,
	}
	if query == "" {
		res.Complexity = ComplexityLow
		return res
	}

	if label, matched := rs.Match(query); matched {
		res.Intent = label
		res.Confidence = matchedConfidence
	}
	return res
}

const (
	// matchedConfidence is reported when a pattern rule fired.
	matchedConfidence = 0.85
	// casualConfidence is reported for the default label.
	casualConfidence = 0.5
)

// polishMarkers are frequent Polish function words used when a query carries
// no diacritics (e.g. typed on a non-Polish keyboard).
var polishMarkers = []string{
	"jak", "czy", "ile", "nie", "masz", "jest", "twoje", "swoje",
	"czesc", "dzien", "dobry", "prosze",
}

// detectLanguage returns "pl" for queries with Polish diacritics or frequent
// Polish function words, otherwise the fallback language.
func (c *RuleClassifier) detectLanguage(query string) string {
	if query == "" {
		return c.fallback
	}
	if strings.ContainsAny(query, "ąćęłńóśźżĄĆĘŁŃÓŚŹŻ") {
		return "pl"
	}
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.Trim(word, "?!.,:;")
		for _, marker := range polishMarkers {
			if word == marker {
				return "pl"
			}
		}
	}
	return c.fallback
}
