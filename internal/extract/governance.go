package extract

import (
	"strings"

	"github.com/datalode/assetscout/internal/asset"
)

// AnalyzeGovernance matches text and topics against the fixed profile table.
// The first profile whose key appears in the text, or in any topic, wins.
// This is a closed lookup over three hardcoded profiles plus a default; it
// does not generalize.
func AnalyzeGovernance(text string, topics []string) asset.GovernanceProfile {
	lowerText := strings.ToLower(text)
	for _, profile := range governanceProfiles {
		if strings.Contains(lowerText, profile.Key) {
			return profile
		}
		for _, topic := range topics {
			if strings.Contains(strings.ToLower(topic), profile.Key) {
				return profile
			}
		}
	}
	return defaultGovernanceProfile
}
