package extract

import (
	"regexp"

	"github.com/datalode/assetscout/internal/asset"
)

// The lookup tables below are fixed, read-only configuration data. They are
// initialized once at process start and shared by all concurrent extractions.

// topicCategory maps a named category to its trigger keywords. A category is
// included when any keyword appears as a case-insensitive substring of the
// concatenated title, body, and URL.
type topicCategory struct {
	Name     string
	Keywords []string
}

var topicCategories = []topicCategory{
	{"Population & Demographics", []string{"population", "demograph", "census", "migration", "birth rate", "mortality"}},
	{"Economics & Finance", []string{"economic", "economy", "finance", "gdp", "inflation", "price index", "monetary"}},
	{"Health & Medicine", []string{"health", "hospital", "disease", "medical", "medicare", "vaccin"}},
	{"Education & Training", []string{"education", "school", "university", "student", "literacy", "apprentice"}},
	{"Employment & Labour", []string{"employment", "unemployment", "labour force", "labor force", "wages", "workforce"}},
	{"Environment & Climate", []string{"environment", "climate", "emission", "pollution", "biodiversity", "rainfall"}},
	{"Housing & Construction", []string{"housing", "dwelling", "construction", "building approval", "rent", "property price"}},
	{"Transport & Infrastructure", []string{"transport", "traffic", "road", "railway", "vehicle", "infrastructure"}},
	{"Agriculture & Food", []string{"agriculture", "farm", "crop", "livestock", "fisheries", "food security"}},
	{"Crime & Justice", []string{"crime", "justice", "police", "offence", "court", "prison"}},
	{"Science & Technology", []string{"science", "research", "technology", "innovation", "patent"}},
	{"Government & Public Sector", []string{"government", "public sector", "budget", "taxation", "election"}},
	{"Industry & Trade", []string{"industry", "manufacturing", "retail", "export", "import", "business count"}},
	{"Tourism & Culture", []string{"tourism", "tourist", "culture", "arts", "heritage", "recreation"}},
}

// maxTopics caps the number of topic categories attached to one asset.
const maxTopics = 5

// defaultClassification is the sentinel returned when nothing matches.
const defaultClassification = "Information"

// dataTypeIndicator labels a data-type tag with its trigger keywords.
type dataTypeIndicator struct {
	Label    string
	Keywords []string
}

var dataTypeIndicators = []dataTypeIndicator{
	{"CSV", []string{"csv", "comma-separated"}},
	{"JSON", []string{"json"}},
	{"XML", []string{"xml"}},
	{"Excel", []string{"xlsx", "excel", "spreadsheet"}},
	{"PDF", []string{"pdf"}},
	{"API", []string{"api", "endpoint"}},
	{"Database", []string{"database", "sql"}},
	{"Tabular Data", []string{"tabular"}},
	{"Time Series", []string{"time series", "timeseries"}},
	{"Survey Data", []string{"survey", "questionnaire"}},
	{"Census Data", []string{"census"}},
	{"Geospatial Data", []string{"geospatial", "gis", "shapefile", "geojson"}},
	{"Statistical Data", []string{"statistics", "statistical"}},
	{"Demographic Data", []string{"population", "demograph"}},
	{"Health Data", []string{"health"}},
	{"Real-time Data", []string{"real-time", "realtime"}},
}

// domainOrganizations maps known host substrings to their custodian
// organizations. Checked before any text heuristics.
var domainOrganizations = []struct {
	Domain string
	Org    string
}{
	{"abs.gov.au", "Australian Bureau of Statistics"},
	{"data.gov.au", "Australian Government"},
	{"aihw.gov.au", "Australian Institute of Health and Welfare"},
	{"health.gov.au", "Department of Health and Aged Care"},
	{"rba.gov.au", "Reserve Bank of Australia"},
	{"treasury.gov.au", "The Treasury"},
	{"bom.gov.au", "Bureau of Meteorology"},
	{"csiro.au", "CSIRO"},
	{"ato.gov.au", "Australian Taxation Office"},
	{"education.gov.au", "Department of Education"},
	{"homeaffairs.gov.au", "Department of Home Affairs"},
	{"dewr.gov.au", "Department of Employment and Workplace Relations"},
	{"dcceew.gov.au", "Department of Climate Change, Energy, the Environment and Water"},
	{"infrastructure.gov.au", "Department of Infrastructure and Transport"},
	{"agriculture.gov.au", "Department of Agriculture, Fisheries and Forestry"},
	{"census.gov", "United States Census Bureau"},
	{"bls.gov", "U.S. Bureau of Labor Statistics"},
	{"cdc.gov", "Centers for Disease Control and Prevention"},
	{"data.gov", "U.S. General Services Administration"},
	{"ons.gov.uk", "Office for National Statistics"},
	{"nhs.uk", "National Health Service"},
	{"statcan.gc.ca", "Statistics Canada"},
	{"stats.govt.nz", "Stats NZ"},
	{"who.int", "World Health Organization"},
	{"oecd.org", "Organisation for Economic Co-operation and Development"},
	{"worldbank.org", "World Bank Group"},
	{"imf.org", "International Monetary Fund"},
	{"un.org", "United Nations"},
	{"ec.europa.eu", "Eurostat"},
	{"data.europa.eu", "European Union"},
}

// reputableDomains earn a fixed quality bonus. Only the first match counts.
var reputableDomains = []string{
	"abs.gov.au",
	"data.gov.au",
	"aihw.gov.au",
	"rba.gov.au",
	"bom.gov.au",
	"csiro.au",
	"census.gov",
	"bls.gov",
	"cdc.gov",
	"data.gov",
	"ons.gov.uk",
	"statcan.gc.ca",
	"stats.govt.nz",
	"who.int",
	"oecd.org",
	"worldbank.org",
	"imf.org",
	"un.org",
	"europa.eu",
	"nature.com",
}

// governanceProfiles is iterated in declaration order; the first profile
// whose key matches the text or a topic wins. An ordered slice, not a map,
// so the tie-break is deterministic.
var governanceProfiles = []asset.GovernanceProfile{
	{
		Key:                "health",
		Custodian:          "Department of Health and Aged Care",
		ContactEmail:       "datarequests@health.gov.au",
		IsReadilyAvailable: true,
		RequestRequired:    false,
		RequestProcess:     "Available through the national health data portal",
		ParentDataset:      "National Health Data Collection",
		RelatedSeries:      []string{"Hospital Statistics", "Disease Surveillance", "Medicare Statistics"},
	},
	{
		Key:                "population",
		Custodian:          "Australian Bureau of Statistics",
		ContactEmail:       "client.services@abs.gov.au",
		IsReadilyAvailable: true,
		RequestRequired:    false,
		RequestProcess:     "Available through the ABS data portal",
		ParentDataset:      "Census of Population and Housing",
		RelatedSeries:      []string{"Regional Population Estimates", "Migration Statistics"},
	},
	{
		Key:                "economic",
		Custodian:          "Australian Bureau of Statistics",
		ContactEmail:       "client.services@abs.gov.au",
		IsReadilyAvailable: true,
		RequestRequired:    false,
		RequestProcess:     "Available through the ABS data portal",
		ParentDataset:      "Australian National Accounts",
		RelatedSeries:      []string{"Consumer Price Index", "Labour Force Survey"},
	},
}

// defaultGovernanceProfile is returned when no profile key matches.
var defaultGovernanceProfile = asset.GovernanceProfile{
	Custodian:          "Unknown",
	IsReadilyAvailable: false,
	RequestRequired:    true,
	RequestProcess:     "Contact the data custodian to request access",
	RelatedSeries:      []string{},
}

// contentSelectors is the ranked list of containers tried by the
// main-content locator.
var contentSelectors = []string{
	"main",
	"article",
	".content",
	".main-content",
	"#content",
	"#main",
	".post-content",
	".entry-content",
	".article-content",
}

// departmentPatterns are tried in order; the first match's captured group is
// returned trimmed. Capitalized-word runs keep captures from swallowing the
// rest of the sentence.
var departmentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bDepartment of ((?:[A-Z][A-Za-z]+)(?:(?: and| the| of)? [A-Z][A-Za-z]+)*)`),
	regexp.MustCompile(`\bMinistry of ((?:[A-Z][A-Za-z]+)(?:(?: and| the| of)? [A-Z][A-Za-z]+)*)`),
	regexp.MustCompile(`\b(?:Bureau|Office|Agency) of ((?:[A-Z][A-Za-z]+)(?:(?: and| the| of)? [A-Z][A-Za-z]+)*)`),
	regexp.MustCompile(`\b([A-Z][A-Za-z]+(?: [A-Z][A-Za-z]+)?) Department\b`),
}

var (
	emailPattern     = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	sizePattern      = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s?(KB|MB|GB|TB)\b`)
	recordsPattern   = regexp.MustCompile(`(?i)\b([\d,]+)\s+(?:records|rows|entries|observations)\b`)
	versionPattern   = regexp.MustCompile(`(?i)\bversion\s+(\d+(?:\.\d+)*)`)
	updatedPattern   = regexp.MustCompile(`(?i)(?:last updated|updated on|updated)[:\s]+(\d{1,2} [A-Za-z]+ \d{4}|\d{4}-\d{2}-\d{2})`)
	isoDatePattern   = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	frequencyPattern = regexp.MustCompile(`(?i)\b(daily|weekly|monthly|quarterly|annually|annual|yearly)\b`)
)

// licensePhrases are the only license signals recognized in free text.
var licensePhrases = []struct {
	Phrase  string
	License string
}{
	{"creative commons", "Creative Commons"},
	{"open data", "Open Data Licence"},
	{"public domain", "Public Domain"},
}

// qualitySignals each add one point when present in the body text.
var qualitySignals = []string{
	"methodology",
	"documentation",
	"data source",
	"collection method",
	"quality assurance",
}

// qualityKeywordGroups each add one point when any member is present.
var qualityKeywordGroups = [][]string{
	{"research", "study", "analysis"},
	{"peer-reviewed", "journal"},
	{"university", "institute"},
	{"dataset", "data set"},
	{"statistics", "statistical"},
	{"api", "download"},
}

// updateFrequencyLabels normalizes matched frequency words.
var updateFrequencyLabels = map[string]string{
	"daily":     "Daily",
	"weekly":    "Weekly",
	"monthly":   "Monthly",
	"quarterly": "Quarterly",
	"annually":  "Annual",
	"annual":    "Annual",
	"yearly":    "Annual",
}
