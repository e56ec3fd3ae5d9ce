package extract

import (
	"strconv"
	"strings"

	"github.com/datalode/assetscout/internal/asset"
)

// FieldInput is the shared input to the single-purpose field extractors.
// Each extractor is a pure function over this value; none mutate it, so
// extractors are order-independent.
type FieldInput struct {
	Meta *Metadata
	Body string
	URL  string
}

// field applies the common precedence chain: structured data and meta tags
// are already merged into Meta with the right priority, so a recorded value
// wins over any text heuristic.
func (in FieldInput) field(key string) (string, bool) {
	if in.Meta == nil {
		return "", false
	}
	return in.Meta.Get(key)
}

// ExtractFormat determines the data format of the asset.
func ExtractFormat(in FieldInput) string {
	if v, ok := in.field("format"); ok {
		return v
	}
	lower := strings.ToLower(in.URL)
	switch {
	case strings.Contains(lower, ".csv"):
		return "CSV"
	case strings.Contains(lower, ".json"):
		return "JSON"
	case strings.Contains(lower, ".xlsx"), strings.Contains(lower, ".xls"):
		return "Excel"
	case strings.Contains(lower, ".pdf"):
		return "PDF"
	case strings.Contains(lower, ".xml"):
		return "XML"
	}
	return "Unknown"
}

// ExtractLicense recognizes exactly three canned phrases in free text;
// anything else not declared in metadata yields "Unknown".
func ExtractLicense(in FieldInput) string {
	if v, ok := in.field("license"); ok {
		return v
	}
	lower := strings.ToLower(in.Body)
	for _, lp := range licensePhrases {
		if strings.Contains(lower, lp.Phrase) {
			return lp.License
		}
	}
	return "Unknown"
}

// ExtractDepartment finds the custodian organization. The static domain
// table short-circuits any body-text heuristics; otherwise the four
// department patterns are tried in fixed order.
func ExtractDepartment(in FieldInput) string {
	lowerURL := strings.ToLower(in.URL)
	for _, entry := range domainOrganizations {
		if strings.Contains(lowerURL, entry.Domain) {
			return entry.Org
		}
	}
	for _, pattern := range departmentPatterns {
		if match := pattern.FindStringSubmatch(in.Body); match != nil {
			return strings.TrimSpace(match[1])
		}
	}
	return "Unknown"
}

// ExtractLastUpdated resolves the most recent known modification marker.
func ExtractLastUpdated(in FieldInput) string {
	if v, ok := in.field("lastModified"); ok {
		return v
	}
	if v, ok := in.field("publishedDate"); ok {
		return v
	}
	if match := updatedPattern.FindStringSubmatch(in.Body); match != nil {
		return match[1]
	}
	if match := isoDatePattern.FindStringSubmatch(in.Body); match != nil {
		return match[1]
	}
	return "Unknown"
}

// ExtractSize looks for a human-readable size declaration.
func ExtractSize(in FieldInput) string {
	if v, ok := in.field("size"); ok {
		return v
	}
	if match := sizePattern.FindStringSubmatch(in.Body); match != nil {
		return match[1] + " " + strings.ToUpper(match[2])
	}
	return "Unknown"
}

// ExtractRecords parses a declared record/row count, defaulting to zero.
func ExtractRecords(in FieldInput) int {
	if match := recordsPattern.FindStringSubmatch(in.Body); match != nil {
		digits := strings.ReplaceAll(match[1], ",", "")
		if n, err := strconv.Atoi(digits); err == nil {
			return n
		}
	}
	return 0
}

// ExtractVersion resolves a declared version string.
func ExtractVersion(in FieldInput) string {
	if v, ok := in.field("version"); ok {
		return v
	}
	if match := versionPattern.FindStringSubmatch(in.Body); match != nil {
		return match[1]
	}
	return "Unknown"
}

// ExtractTags collects keyword tags from metadata, split on commas.
func ExtractTags(in FieldInput) []string {
	raw, ok := in.field("keywords")
	if !ok {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// ExtractContactEmail returns the first email in document order, or empty.
func ExtractContactEmail(in FieldInput) string {
	return emailPattern.FindString(in.Body)
}

// ExtractAvailabilityStatus derives the access status from body markers,
// falling back to the governance profile's defaults.
func ExtractAvailabilityStatus(in FieldInput, profile asset.GovernanceProfile) asset.AvailabilityStatus {
	lower := strings.ToLower(in.Body)
	switch {
	case containsAny(lower, "restricted", "internal use only", "login required"):
		return asset.AvailabilityRestricted
	case containsAny(lower, "request access", "by request", "apply for access"):
		return asset.AvailabilityRequestRequired
	case containsAny(lower, "open data", "public domain", "publicly available", "free to download"):
		return asset.AvailabilityPublic
	case profile.IsReadilyAvailable:
		return asset.AvailabilityPublic
	default:
		return asset.AvailabilityRequestRequired
	}
}

// ExtractUpdateFrequency normalizes a declared cadence word.
func ExtractUpdateFrequency(in FieldInput) string {
	if match := frequencyPattern.FindStringSubmatch(in.Body); match != nil {
		return updateFrequencyLabels[strings.ToLower(match[1])]
	}
	return "Unknown"
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
