package extract

import "strings"

// Classification holds the topic categories and data-type tags derived from
// an asset's text.
type Classification struct {
	Topics    []string
	DataTypes []string
}

// Classify maps body text, title, and URL to topic categories and data-type
// tags. Matching is plain case-insensitive substring search over the whole
// concatenated text; substring collisions inside unrelated words (e.g. "data"
// inside "database") are an accepted approximation of the heuristic, not a
// bug to correct.
func Classify(text, title, url string) Classification {
	haystack := strings.ToLower(title + " " + text + " " + url)

	topics := make([]string, 0, maxTopics)
	for _, cat := range topicCategories {
		if len(topics) == maxTopics {
			break
		}
		if anyKeyword(haystack, cat.Keywords) {
			topics = append(topics, cat.Name)
		}
	}
	if len(topics) == 0 {
		topics = []string{defaultClassification}
	}

	var dataTypes []string
	seen := make(map[string]bool)
	for _, ind := range dataTypeIndicators {
		if seen[ind.Label] {
			continue
		}
		if anyKeyword(haystack, ind.Keywords) {
			dataTypes = append(dataTypes, ind.Label)
			seen[ind.Label] = true
		}
	}
	if len(dataTypes) == 0 {
		dataTypes = []string{defaultClassification}
	}

	return Classification{Topics: topics, DataTypes: dataTypes}
}

func anyKeyword(haystack string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}
