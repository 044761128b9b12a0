package pruner

import (
	"strings"

	"github.com/mkoziel/vitrine/internal/retrieval"
)

// qualityScore measures relevance of the kept chunks to the query as the
// mean share of query terms found in each chunk's text, floored to stay in
// (0,1]. Terms shorter than three runes carry no signal and are skipped.
func qualityScore(query string, kept []retrieval.SearchResult) float64 {
	if len(kept) == 0 {
		return scoreFloor
	}

	terms := queryTerms(query)
	if len(terms) == 0 {
		return defaultQuality
	}

	var sum float64
	for _, r := range kept {
		text := strings.ToLower(r.Chunk.Text)
		hits := 0
		for _, term := range terms {
			if strings.Contains(text, term) {
				hits++
			}
		}
		sum += float64(hits) / float64(len(terms))
	}

	return clampFloor(sum / float64(len(kept)))
}

// coherenceScore measures topical consistency across the kept set: the share
// of chunks carrying the dominant content type, blended with the mean
// pairwise tag overlap. A single chunk is perfectly coherent.
func coherenceScore(kept []retrieval.SearchResult) float64 {
	if len(kept) <= 1 {
		return 1
	}

	typeCounts := make(map[string]int)
	for _, r := range kept {
		typeCounts[string(r.Chunk.Metadata.ContentType)]++
	}
	dominant := 0
	for _, n := range typeCounts {
		if n > dominant {
			dominant = n
		}
	}
	typeShare := float64(dominant) / float64(len(kept))

	return clampFloor(0.6*typeShare + 0.4*meanTagOverlap(kept))
}

// meanTagOverlap is the average Jaccard similarity of tag sets over all
// chunk pairs. Pairs where either chunk has no tags count as zero overlap.
func meanTagOverlap(kept []retrieval.SearchResult) float64 {
	pairs := 0
	var sum float64
	for i := 0; i < len(kept); i++ {
		for j := i + 1; j < len(kept); j++ {
			pairs++
			sum += jaccard(kept[i].Chunk.Metadata.Tags, kept[j].Chunk.Metadata.Tags)
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	inter := 0
	union := len(set)
	for _, t := range b {
		if _, ok := set[t]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "?!.,:;\"'")
		if len([]rune(f)) >= 3 {
			terms = append(terms, f)
		}
	}
	return terms
}

func clampFloor(v float64) float64 {
	if v < scoreFloor {
		return scoreFloor
	}
	if v > 1 {
		return 1
	}
	return v
}
