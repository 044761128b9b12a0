package intent

import (
	"regexp"
	"strings"
)

// Complexity indicators. Each contributes one point; a query scoring >= 3 is
// high complexity, >= 1 medium, otherwise low.
var (
	conjunctionPattern = regexp.MustCompile(`(?i)\b(and|or|plus|also|oraz|albo|lub|także|również)\b`)
	precisionPattern   = regexp.MustCompile(`(?i)(exact|specific|precisely|detail|dokładn|konkretn|szczegół)`)
	comparisonPattern  = regexp.MustCompile(`(?i)(compar|versus|vs|difference|porówn|różnic)`)
	topicPattern       = regexp.MustCompile(`(?i)(project|experience|skill|technolog|design|projekt|doświadczen|umiejętno)`)
)

const longQueryThreshold = 100 // characters

// scoreComplexity counts simple surface indicators of query complexity.
func scoreComplexity(query string) Complexity {
	score := 0
	if strings.Count(query, "?") > 1 {
		score++
	}
	if len(conjunctionPattern.FindAllString(query, 2)) >= 2 {
		score++
	}
	if precisionPattern.MatchString(query) {
		score++
	}
	if comparisonPattern.MatchString(query) {
		score++
	}
	if len(query) > longQueryThreshold {
		score++
	}
	if len(topicPattern.FindAllString(query, 2)) >= 2 {
		score++
	}

	switch {
	case score >= 3:
		return ComplexityHigh
	case score >= 1:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}
