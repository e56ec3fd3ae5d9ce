package extract

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datalode/assetscout/internal/asset"
)

type fakeClock struct {
	now time.Time
}

func (c fakeClock) Now() time.Time { return c.now }

func newTestPipeline() *Pipeline {
	frozen := fakeClock{now: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)}
	return New(Config{}, frozen, nil)
}

func TestPipeline_TotalOnEmptyInput(t *testing.T) {
	t.Parallel()

	p := newTestPipeline()
	got := p.Run(asset.RawDocument{URL: "https://example.com", Kind: asset.KindHTML}, "")

	assert.Equal(t, "No description available", got.Description)
	assert.Equal(t, "Data collection and statistical reporting", got.Purpose)
	assert.Equal(t, "No content summary available", got.ContentAnalysis.Summary)
	assert.Equal(t, "Unknown", got.Department)
	assert.Equal(t, "Unknown", got.Metadata.Format)
	assert.Equal(t, "Unknown", got.Metadata.License)
	assert.Equal(t, []string{"Information"}, got.ContentAnalysis.KeyTopics)
	assert.Equal(t, []string{"Information"}, got.ContentAnalysis.DataTypes)
	assert.Equal(t, []string{}, got.Metadata.Tags)
	assert.Equal(t, []string{}, got.Relationships.ChildDatasets)
	assert.Equal(t, 5, got.ContentAnalysis.QualityScore)
	assert.Equal(t, "2025-03-14T09:26:53Z", got.CollectionDate)
}

func TestPipeline_TotalOnGarbageBytes(t *testing.T) {
	t.Parallel()

	p := newTestPipeline()
	doc := asset.RawDocument{
		URL:  "https://example.com/x",
		Body: []byte{0x00, 0xff, 0xfe, 0x07},
		Kind: asset.KindHTML,
	}
	got := p.Run(doc, "")
	require.NotEmpty(t, got.Description)
	require.NotEmpty(t, got.ContentAnalysis.KeyTopics)
}

func TestPipeline_StructuredDescriptionWinsOverMeta(t *testing.T) {
	t.Parallel()

	html := `<html><head>
		<meta name="description" content="from the meta tag">
		<script type="application/ld+json">
		{"@type":"Dataset","description":"from the structured block"}
		</script>
	</head><body></body></html>`

	p := newTestPipeline()
	got := p.Run(asset.RawDocument{
		URL:  "https://example.com/ds",
		Body: []byte(html),
		Kind: asset.KindHTML,
	}, "")
	require.Equal(t, "from the structured block", got.Description)
}

func TestPipeline_TitlePrecedence(t *testing.T) {
	t.Parallel()

	html := `<html><head>
		<meta property="og:title" content="From OG">
		<title>From Title Tag</title>
	</head><body></body></html>`

	p := newTestPipeline()

	// A caller-supplied title is authoritative; it feeds the classifier.
	got := p.Run(asset.RawDocument{
		URL:  "https://example.com",
		Body: []byte(html),
		Kind: asset.KindHTML,
	}, "Hospital admissions 2024")
	assert.Contains(t, got.ContentAnalysis.KeyTopics, "Health & Medicine")
}

func TestPipeline_DepartmentAndCustodian(t *testing.T) {
	t.Parallel()

	body := "Quarterly release prepared by the Department of Transport. " +
		"Contact transport.data@example.gov.au for access." +
		repeatToLen(" road usage figures by corridor and vehicle class.", 220)

	html := `<html><body><main>` + body + `</main></body></html>`

	p := newTestPipeline()
	got := p.Run(asset.RawDocument{
		URL:  "https://example.gov.au/roads",
		Body: []byte(html),
		Kind: asset.KindHTML,
	}, "")

	assert.Equal(t, "Transport", got.Department)
	// No governance profile matches, so the department stands in as custodian.
	assert.Equal(t, "Transport", got.Availability.Custodian)
	assert.Equal(t, "transport.data@example.gov.au", got.Availability.ContactEmail)
}

func TestPipeline_GovernanceProfileFlowsThrough(t *testing.T) {
	t.Parallel()

	body := repeatToLen("national health survey coverage and hospital reporting. ", 260)
	html := `<html><body><main>` + body + `</main></body></html>`

	p := newTestPipeline()
	got := p.Run(asset.RawDocument{
		URL:  "https://example.gov.au/health",
		Body: []byte(html),
		Kind: asset.KindHTML,
	}, "")

	assert.Equal(t, "Department of Health and Aged Care", got.Availability.Custodian)
	assert.Equal(t, asset.AvailabilityPublic, got.Availability.Status)
	assert.NotEmpty(t, got.Relationships.RelatedSeries)
}

func TestPipeline_FrozenClockIsIdempotent(t *testing.T) {
	t.Parallel()

	html := `<html><head>
		<meta name="description" content="stable record">
		<meta name="keywords" content="census, population">
	</head><body><main>` +
		repeatToLen("census population counts by statistical area. ", 240) +
		`</main></body></html>`
	doc := asset.RawDocument{
		URL:  "https://data.abs.gov.au/census",
		Body: []byte(html),
		Kind: asset.KindHTML,
	}

	p := newTestPipeline()
	first, err := json.Marshal(p.Run(doc, "Census counts"))
	require.NoError(t, err)
	second, err := json.Marshal(p.Run(doc, "Census counts"))
	require.NoError(t, err)
	require.Equal(t, string(first), string(second))
}

func TestPipeline_CSV(t *testing.T) {
	t.Parallel()

	csvBody := "region,population,median_age\nNSW,8166000,39\nVIC,6681000,38\nQLD,5185000,38\n"

	p := newTestPipeline()
	got := p.Run(asset.RawDocument{
		URL:  "https://example.com/population.csv",
		Body: []byte(csvBody),
		Kind: asset.KindCSV,
	}, "State population extract")

	assert.Equal(t, "CSV", got.Metadata.Format)
	assert.Equal(t, 3, got.Metadata.Records)
	assert.Contains(t, got.ContentAnalysis.KeyTopics, "Population & Demographics")
}

func TestPipeline_CSVUnparseable(t *testing.T) {
	t.Parallel()

	p := newTestPipeline()
	got := p.Run(asset.RawDocument{
		URL:  "https://example.com/broken.csv",
		Body: []byte("\"unterminated"),
		Kind: asset.KindCSV,
	}, "")

	assert.Equal(t, "CSV", got.Metadata.Format)
	assert.Equal(t, 0, got.Metadata.Records)
}

func TestPipeline_JSONArrayRecords(t *testing.T) {
	t.Parallel()

	jsonBody := `[{"suburb":"Carlton"},{"suburb":"Fitzroy"},{"suburb":"Brunswick"}]`

	p := newTestPipeline()
	got := p.Run(asset.RawDocument{
		URL:  "https://example.com/suburbs.json",
		Body: []byte(jsonBody),
		Kind: asset.KindJSON,
	}, "Suburb list")

	assert.Equal(t, "JSON", got.Metadata.Format)
	assert.Equal(t, 3, got.Metadata.Records)
}

func TestPipeline_JSONObjectHasZeroRecords(t *testing.T) {
	t.Parallel()

	p := newTestPipeline()
	got := p.Run(asset.RawDocument{
		URL:  "https://example.com/meta.json",
		Body: []byte(`{"series":"cpi"}`),
		Kind: asset.KindJSON,
	}, "")
	assert.Equal(t, 0, got.Metadata.Records)
}

func TestPipeline_Defaulted(t *testing.T) {
	t.Parallel()

	p := newTestPipeline()
	got := p.Defaulted("https://unreachable.example.com/page")

	assert.Equal(t, "No description available", got.Description)
	assert.Equal(t, []string{"Information"}, got.ContentAnalysis.KeyTopics)
	assert.Equal(t, []string{"Information"}, got.ContentAnalysis.DataTypes)
	assert.Equal(t, "Unknown", got.Availability.Custodian)
	assert.Equal(t, asset.AvailabilityRequestRequired, got.Availability.Status)
	assert.Equal(t, "2025-03-14T09:26:53Z", got.CollectionDate)

	// The defaulted record must marshal cleanly for storage and publishing.
	_, err := json.Marshal(got)
	require.NoError(t, err)
}

func TestPipeline_QualityScoreBoundsThroughRun(t *testing.T) {
	t.Parallel()

	p := newTestPipeline()
	docs := []asset.RawDocument{
		{URL: "https://example.com", Kind: asset.KindHTML},
		{URL: "https://abs.gov.au/rich", Kind: asset.KindHTML, Body: []byte(
			`<html><head><meta name="description" content="d"><meta name="keywords" content="k">
			<script type="application/ld+json">{"@type":"Dataset"}</script></head>
			<body><main>` + repeatToLen("methodology documentation data source dataset statistics api research. ", 1200) + `</main></body></html>`)},
	}
	for _, doc := range docs {
		got := p.Run(doc, "")
		assert.GreaterOrEqual(t, got.ContentAnalysis.QualityScore, 0)
		assert.LessOrEqual(t, got.ContentAnalysis.QualityScore, 10)
	}
}

func TestPipeline_SummaryTruncation(t *testing.T) {
	t.Parallel()

	body := repeatToLen("population statistics for every region in the survey frame. ", 600)
	html := `<html><body><main>` + body + `</main></body></html>`

	p := newTestPipeline()
	got := p.Run(asset.RawDocument{
		URL:  "https://example.com",
		Body: []byte(html),
		Kind: asset.KindHTML,
	}, "")

	assert.LessOrEqual(t, len(got.ContentAnalysis.Summary), summaryMaxChars+3)
	assert.LessOrEqual(t, len(got.Description), descriptionMaxChars+3)
}

// repeatToLen repeats s until the result is at least n bytes long.
func repeatToLen(s string, n int) string {
	out := s
	for len(out) < n {
		out += s
	}
	return out
}
