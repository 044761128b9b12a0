package intent

import "regexp"

// Rule pairs an intent with the patterns that signal it.
type Rule struct {
	Intent   Intent
	Patterns []*regexp.Regexp
}

// RuleSet is an ordered list of rules for one language. Order is a priority
// policy: rules are tested first to last and the first match wins, so the
// most specific signals must come first. Queries matching no rule are casual.
type RuleSet struct {
	Language string
	Rules    []Rule
}

// Match returns the intent of the first rule whose pattern matches the query,
// or IntentCasual when nothing matches.
func (rs RuleSet) Match(query string) (Intent, bool) {
	for _, rule := range rs.Rules {
		for _, p := range rule.Patterns {
			if p.MatchString(query) {
				return rule.Intent, true
			}
		}
	}
	return IntentCasual, false
}

// PolishRules returns the built-in rule set for Polish queries.
//
// Factual is tested first: question words asking for counts, dates, and
// places are the most specific signal and win even when another category's
// pattern would also match. Bare "co" is deliberately absent from the
// factual patterns so capability questions ("co potrafisz...") fall through
// to synthesis.
func PolishRules() RuleSet {
	return RuleSet{
		Language: "pl",
		Rules: []Rule{
			{
				Intent: IntentFactual,
				Patterns: []*regexp.Regexp{
					regexp.MustCompile(`(?i)\b(ile|ilu|kiedy|gdzie|kto|czy|jaki|jaka|jakie|który|która|które|którym)\b`),
					regexp.MustCompile(`(?i)\b(w którym roku|od kiedy|jak długo|jak dawno)\b`),
				},
			},
			{
				Intent: IntentSynthesis,
				Patterns: []*regexp.Regexp{
					regexp.MustCompile(`(?i)\b(potrafisz|umiesz|oferujesz)\b`),
					regexp.MustCompile(`(?i)(umiejętno|kompetencj|mocne strony|czym się zajmujesz|kim jesteś)`),
				},
			},
			{
				Intent: IntentExploration,
				Patterns: []*regexp.Regexp{
					regexp.MustCompile(`(?i)\b(opowiedz|opisz|wyjaśnij|wytłumacz|dlaczego|czemu)\b`),
					regexp.MustCompile(`(?i)(jak wygląda|jak przebiega|histori)`),
				},
			},
			{
				Intent: IntentComparison,
				Patterns: []*regexp.Regexp{
					regexp.MustCompile(`(?i)\b(porównaj|porównanie|różnic|versus|vs\.?|kontra)\b`),
					regexp.MustCompile(`(?i)(w porównaniu|lepsze niż|gorsze niż)`),
				},
			},
		},
	}
}

// EnglishRules returns the built-in rule set for English queries.
// Same priority policy as PolishRules.
func EnglishRules() RuleSet {
	return RuleSet{
		Language: "en",
		Rules: []Rule{
			{
				Intent: IntentFactual,
				Patterns: []*regexp.Regexp{
					regexp.MustCompile(`(?i)\b(how (many|much|long|old)|when|where|which|who)\b`),
					regexp.MustCompile(`(?i)\b(what year|since when|did you)\b`),
				},
			},
			{
				Intent: IntentSynthesis,
				Patterns: []*regexp.Regexp{
					regexp.MustCompile(`(?i)\bwhat (can|do) you (do|offer|bring)\b`),
					regexp.MustCompile(`(?i)(skill|capabilit|competenc|strength|are you able)`),
				},
			},
			{
				Intent: IntentExploration,
				Patterns: []*regexp.Regexp{
					regexp.MustCompile(`(?i)\b(tell me about|describe|explain|walk me through|why)\b`),
					regexp.MustCompile(`(?i)(how does .+ work|the story (of|behind))`),
				},
			},
			{
				Intent: IntentComparison,
				Patterns: []*regexp.Regexp{
					regexp.MustCompile(`(?i)\b(compare|comparison|versus|vs\.?|difference)\b`),
					regexp.MustCompile(`(?i)(better than|worse than|compared (to|with)|against)`),
				},
			},
		},
	}
}
