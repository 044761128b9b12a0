package convmem

import (
	"sort"
	"strings"
)

// stopwords are high-frequency function words (Polish and English) that
// carry no topical signal.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		// Polish
		"jest", "jako", "masz", "mnie", "moje", "swoje", "twoje", "oraz",
		"albo", "jakie", "jaki", "jaka", "przez", "tego", "tym", "czym",
		"dla", "nie", "tak", "ale", "czy", "ile", "kiedy", "gdzie",
		// English
		"the", "and", "for", "you", "your", "have", "what", "how",
		"about", "with", "this", "that", "are", "can", "did", "does",
		"tell", "when", "where", "which", "who", "why",
	} {
		stopwords[w] = struct{}{}
	}
}

const minTopicLength = 4 // runes

// ExtractTopics pulls the topical terms from a message: lowercased words of
// at least four runes that are not stopwords, deduplicated, input order kept.
func ExtractTopics(content string) []string {
	seen := make(map[string]struct{})
	var topics []string
	for _, field := range strings.Fields(strings.ToLower(content)) {
		word := strings.Trim(field, "?!.,:;\"'()[]")
		if len([]rune(word)) < minTopicLength {
			continue
		}
		if _, stop := stopwords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		topics = append(topics, word)
	}
	return topics
}

// dominantTopics returns the top-n topics by frequency over the given
// messages. Ties break alphabetically so the result is deterministic.
func dominantTopics(messages []Message, n int) []string {
	counts := make(map[string]int)
	for _, m := range messages {
		for _, topic := range m.Topics {
			counts[topic]++
		}
	}

	topics := make([]string, 0, len(counts))
	for t := range counts {
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool {
		if counts[topics[i]] != counts[topics[j]] {
			return counts[topics[i]] > counts[topics[j]]
		}
		return topics[i] < topics[j]
	})

	if len(topics) > n {
		topics = topics[:n]
	}
	return topics
}

// topicOverlap is the relevance ratio between two topic sets:
// |intersection| / max(|a|, |b|, 1).
func topicOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	inter := 0
	for _, t := range b {
		if _, ok := set[t]; ok {
			inter++
		}
	}
	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	return float64(inter) / float64(denom)
}
