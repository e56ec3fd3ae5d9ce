// Package extract implements the content extraction and heuristic scoring
// pipeline that turns a fetched document into a data asset record.
package extract

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/datalode/assetscout/internal/asset"
)

const (
	defaultDescription = "No description available"
	defaultPurpose     = "Data collection and statistical reporting"
	defaultSummary     = "No content summary available"

	descriptionMaxChars = 300
	summaryMaxChars     = 200
)

// Config carries the knobs on which callers of the pipeline may diverge.
// Zero values select the standard tables.
type Config struct {
	ContentSelectors []string
}

// Pipeline assembles extraction results from raw documents. It holds no
// mutable state; a single Pipeline serves unlimited concurrent callers.
type Pipeline struct {
	selectors []string
	clock     asset.Clock
	logger    *zap.Logger
}

// New constructs a Pipeline.
func New(cfg Config, clock asset.Clock, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	selectors := cfg.ContentSelectors
	if len(selectors) == 0 {
		selectors = contentSelectors
	}
	return &Pipeline{
		selectors: selectors,
		clock:     clock,
		logger:    logger,
	}
}

// Run derives a complete ExtractionResult from a fetched document. It never
// fails: unusable input degrades to defaults, field by field.
func (p *Pipeline) Run(doc asset.RawDocument, knownTitle string) asset.ExtractionResult {
	switch doc.Kind {
	case asset.KindCSV:
		return p.runCSV(doc, knownTitle)
	case asset.KindJSON:
		return p.runJSON(doc, knownTitle)
	default:
		return p.runHTML(doc, knownTitle)
	}
}

// Defaulted returns the fully-defaulted record used when the fetch itself
// failed; the caller always receives a well-formed result.
func (p *Pipeline) Defaulted(url string) asset.ExtractionResult {
	meta := newMetadata()
	return p.assemble(meta, "", url, "", Classification{
		Topics:    []string{defaultClassification},
		DataTypes: []string{defaultClassification},
	}, 0)
}

func (p *Pipeline) runHTML(doc asset.RawDocument, knownTitle string) asset.ExtractionResult {
	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		p.logger.Warn("html parse failed, using defaults",
			zap.String("url", doc.URL), zap.Error(err))
		return p.Defaulted(doc.URL)
	}

	meta := ExtractMetadata(parsed)
	body := locateMain(parsed, p.selectors)

	title := knownTitle
	if title == "" {
		title, _ = meta.Get("title")
	}
	if title == "" {
		title = normalizeSpace(parsed.Find("title").First().Text())
	}

	classification := Classify(body, title, doc.URL)
	return p.assemble(meta, body, doc.URL, title, classification, 0)
}

func (p *Pipeline) runCSV(doc asset.RawDocument, knownTitle string) asset.ExtractionResult {
	meta := newMetadata()
	records := 0
	header := ""

	reader := csv.NewReader(bytes.NewReader(doc.Body))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err == nil && len(rows) > 0 {
		header = strings.Join(rows[0], " ")
		records = len(rows) - 1
	}

	classification := Classify(header, knownTitle, doc.URL)
	result := p.assemble(meta, header, doc.URL, knownTitle, classification, records)
	result.Metadata.Format = "CSV"
	return result
}

func (p *Pipeline) runJSON(doc asset.RawDocument, knownTitle string) asset.ExtractionResult {
	meta := newMetadata()
	records := 0

	var payload any
	if err := json.Unmarshal(doc.Body, &payload); err == nil {
		if items, ok := payload.([]any); ok {
			records = len(items)
		}
	}

	// A bounded slice of the raw payload is enough signal for the keyword
	// classifier; JSON bodies carry field names, not prose.
	sample := string(doc.Body)
	if len(sample) > 4096 {
		sample = sample[:4096]
	}

	classification := Classify(sample, knownTitle, doc.URL)
	result := p.assemble(meta, sample, doc.URL, knownTitle, classification, records)
	result.Metadata.Format = "JSON"
	return result
}

// assemble fans the independent field extractors out over the shared input
// and folds everything into the final record.
func (p *Pipeline) assemble(
	meta *Metadata,
	body string,
	url string,
	title string,
	classification Classification,
	knownRecords int,
) asset.ExtractionResult {
	in := FieldInput{Meta: meta, Body: body, URL: url}

	profile := AnalyzeGovernance(body, classification.Topics)
	department := ExtractDepartment(in)

	description := defaultDescription
	if v, ok := meta.Get("description"); ok {
		description = v
	} else if body != "" {
		description = truncate(body, descriptionMaxChars)
	}

	summary := defaultSummary
	if body != "" {
		summary = truncate(body, summaryMaxChars)
	} else if description != defaultDescription {
		summary = truncate(description, summaryMaxChars)
	}

	records := ExtractRecords(in)
	if knownRecords > 0 {
		records = knownRecords
	}

	custodian := profile.Custodian
	if custodian == "Unknown" && department != "Unknown" {
		custodian = department
	}

	contactEmail := ExtractContactEmail(in)
	if contactEmail == "" {
		contactEmail = profile.ContactEmail
	}

	parentDataset := profile.ParentDataset
	if v, ok := meta.Get("parentDataset"); ok {
		parentDataset = v
	}
	childDatasets := meta.GetList("childDatasets")
	if childDatasets == nil {
		childDatasets = []string{}
	}

	return asset.ExtractionResult{
		Description:    description,
		CollectionDate: p.clock.Now().UTC().Format(time.RFC3339),
		Purpose:        defaultPurpose,
		Department:     department,
		Metadata: asset.AssetMetadata{
			Format:      ExtractFormat(in),
			Size:        ExtractSize(in),
			Records:     records,
			LastUpdated: ExtractLastUpdated(in),
			Version:     ExtractVersion(in),
			License:     ExtractLicense(in),
			Tags:        ExtractTags(in),
		},
		Availability: asset.Availability{
			Status:         ExtractAvailabilityStatus(in, profile),
			Custodian:      custodian,
			ContactEmail:   contactEmail,
			RequestProcess: profile.RequestProcess,
		},
		Relationships: asset.Relationships{
			ParentDataset: parentDataset,
			ChildDatasets: childDatasets,
			RelatedSeries: append([]string{}, profile.RelatedSeries...),
			Dependencies:  []string{},
			DerivedFrom:   []string{},
		},
		ContentAnalysis: asset.ContentAnalysis{
			Summary:         summary,
			KeyTopics:       classification.Topics,
			DataTypes:       classification.DataTypes,
			QualityScore:    Score(meta, body, url),
			UpdateFrequency: ExtractUpdateFrequency(in),
		},
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
