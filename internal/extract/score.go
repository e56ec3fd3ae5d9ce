package extract

import "strings"

const (
	baseScore = 5
	maxScore  = 10
)

// Score applies the fixed additive quality rubric. The trigger phrases and
// weights are part of the contract, not tunable configuration.
//
// Starting at 5: +2 for structured data, +1 per recognized meta tag, +1 for
// a long body, +1 per quality signal phrase, +2 for the first reputable
// domain hit, +1 per keyword group, clamped to 10.
func Score(meta *Metadata, body, url string) int {
	score := baseScore

	if meta != nil {
		if meta.HasStructured() {
			score += 2
		}
		for _, key := range []string{"description", "keywords", "author", "og:description", "twitter:description"} {
			if meta.HasMetaKey(key) {
				score++
			}
		}
	}

	lowerBody := strings.ToLower(body)
	if len(body) > 1000 {
		score++
	}
	for _, signal := range qualitySignals {
		if strings.Contains(lowerBody, signal) {
			score++
		}
	}

	lowerURL := strings.ToLower(url)
	for _, domain := range reputableDomains {
		if strings.Contains(lowerURL, domain) {
			score += 2
			break
		}
	}

	for _, group := range qualityKeywordGroups {
		if containsAny(lowerBody, group...) {
			score++
		}
	}

	if score > maxScore {
		score = maxScore
	}
	return score
}
