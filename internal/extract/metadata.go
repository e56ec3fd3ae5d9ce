package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Source priority for metadata fields. Once a field is written by a source,
// a lower-priority source never overwrites it. Structured data may overwrite
// meta-tag values; among structured blocks the last accepted one wins.
type metadataSource int

const (
	sourceNone metadataSource = iota
	sourceBody
	sourceMeta
	sourceStructured
)

// structuredTypes are the JSON-LD @type values whose blocks are accepted.
var structuredTypes = map[string]bool{
	"Dataset":     true,
	"DataCatalog": true,
	"Article":     true,
	"WebPage":     true,
}

// metaSynonyms maps raw meta-tag keys to normalized field names.
var metaSynonyms = map[string]string{
	"description":            "description",
	"og:description":         "description",
	"twitter:description":    "description",
	"keywords":               "keywords",
	"author":                 "author",
	"dc.creator":             "author",
	"article:published_time": "publishedDate",
	"dc.date":                "publishedDate",
	"article:modified_time":  "lastModified",
	"last-modified":          "lastModified",
	"og:title":               "title",
	"license":                "license",
	"dc.rights":              "license",
}

// Metadata is a normalized key-value view over meta tags and JSON-LD
// structured data, with first-writer-wins semantics across priority tiers.
type Metadata struct {
	values     map[string]string
	lists      map[string][]string
	sources    map[string]metadataSource
	rawMeta    map[string]bool
	structured map[string]any
}

func newMetadata() *Metadata {
	return &Metadata{
		values:     make(map[string]string),
		lists:      make(map[string][]string),
		sources:    make(map[string]metadataSource),
		rawMeta:    make(map[string]bool),
		structured: nil,
	}
}

// Get returns the normalized value for a field, if recorded.
func (m *Metadata) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// GetList returns a list-valued field such as childDatasets.
func (m *Metadata) GetList(key string) []string {
	return m.lists[key]
}

// HasMetaKey reports whether a raw meta-tag key (lowercased) was seen.
func (m *Metadata) HasMetaKey(raw string) bool {
	return m.rawMeta[raw]
}

// HasStructured reports whether an accepted JSON-LD block was found.
func (m *Metadata) HasStructured() bool {
	return m.structured != nil
}

// Structured exposes the fields of the last accepted JSON-LD block.
func (m *Metadata) Structured() map[string]any {
	return m.structured
}

func (m *Metadata) set(key, value string, src metadataSource) {
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return
	}
	prev := m.sources[key]
	// Structured data overwrites earlier structured blocks too (last block
	// wins); everything else is strictly first-writer-wins per tier.
	if src == sourceStructured {
		if prev > sourceStructured {
			return
		}
	} else if prev >= src {
		return
	}
	m.values[key] = value
	m.sources[key] = src
}

func (m *Metadata) setList(key string, values []string, src metadataSource) {
	if len(values) == 0 {
		return
	}
	prev := m.sources["list:"+key]
	if src != sourceStructured && prev >= src {
		return
	}
	m.lists[key] = values
	m.sources["list:"+key] = src
}

// ExtractMetadata walks meta tags first, then JSON-LD blocks, honoring the
// structured-data > meta-tag priority invariant.
func ExtractMetadata(doc *goquery.Document) *Metadata {
	m := newMetadata()
	extractMetaTags(doc, m)
	extractStructuredData(doc, m)
	return m
}

func extractMetaTags(doc *goquery.Document, m *Metadata) {
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		key, _ := s.Attr("name")
		if key == "" {
			key, _ = s.Attr("property")
		}
		content, _ := s.Attr("content")
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" || strings.TrimSpace(content) == "" {
			return
		}
		if !m.rawMeta[key] {
			m.rawMeta[key] = true
		}
		canonical, ok := metaSynonyms[key]
		if !ok {
			canonical = key
		}
		m.set(canonical, content, sourceMeta)
	})
}

func extractStructuredData(doc *goquery.Document, m *Metadata) {
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		var block map[string]any
		if err := json.Unmarshal([]byte(raw), &block); err != nil {
			// Malformed structured data is skipped silently; remaining
			// sources still apply.
			return
		}
		if !acceptedType(block["@type"]) {
			return
		}
		applyStructuredBlock(block, m)
	})
}

func acceptedType(v any) bool {
	switch t := v.(type) {
	case string:
		return structuredTypes[t]
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && structuredTypes[s] {
				return true
			}
		}
	}
	return false
}

func applyStructuredBlock(block map[string]any, m *Metadata) {
	m.structured = block

	m.set("description", asText(block["description"]), sourceStructured)
	m.set("author", nameOf(block["author"]), sourceStructured)
	m.set("publishedDate", asText(block["datePublished"]), sourceStructured)
	m.set("lastModified", asText(block["dateModified"]), sourceStructured)
	m.set("keywords", joinAny(block["keywords"]), sourceStructured)
	m.set("format", asText(block["encodingFormat"]), sourceStructured)
	m.set("license", licenseOf(block["license"]), sourceStructured)
	m.set("version", asText(block["version"]), sourceStructured)
	m.set("title", nameOf(block["name"]), sourceStructured)
	m.set("variables", joinAny(block["variableMeasured"]), sourceStructured)
	m.set("parentDataset", nameOf(block["isPartOf"]), sourceStructured)
	m.setList("childDatasets", namesOf(block["hasPart"]), sourceStructured)
}

// asText coerces a JSON-LD scalar to a string.
func asText(v any) string {
	s, _ := v.(string)
	return s
}

// nameOf handles values that may be a string or an object with a name/@id.
func nameOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if s := asText(t["name"]); s != "" {
			return s
		}
		return asText(t["@id"])
	}
	return ""
}

// licenseOf handles license values given as a string or a CreativeWork.
func licenseOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if s := asText(t["name"]); s != "" {
			return s
		}
		return asText(t["url"])
	}
	return ""
}

// joinAny flattens a string or string list into a comma-joined value.
func joinAny(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// namesOf extracts names from a list of strings or objects.
func namesOf(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if single := nameOf(v); single != "" {
			return []string{single}
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := nameOf(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
