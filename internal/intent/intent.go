// Package intent labels a user query with its pragmatic type and complexity
// tier. Classification is rule-based and locale-keyed: each supported
// language carries an ordered list of pattern rules, and the first matching
// rule wins. The classifier itself knows nothing about any language.
package intent

// Intent is the pragmatic type of a query.
type Intent string

// Intent labels, from most to least specific signal.
const (
	IntentFactual     Intent = "factual"
	IntentSynthesis   Intent = "synthesis"
	IntentExploration Intent = "exploration"
	IntentComparison  Intent = "comparison"
	IntentCasual      Intent = "casual"
)

// Complexity is the effort tier of a query.
type Complexity string

// Complexity tiers.
const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Result is the output of query classification.
type Result struct {
	Intent     Intent
	Complexity Complexity
	Confidence float64 // in [0,1]
	Language   string  // ISO 639-1 code of the detected language
}

// Classifier labels queries. Implementations must be pure: no side effects,
// safe for concurrent use, and fast enough to run on every turn.
type Classifier interface {
	Classify(query string) Result
}
