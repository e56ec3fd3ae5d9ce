package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// minContainerChars is the minimum text length a container selector must
	// yield before it is accepted as the main content.
	minContainerChars = 200
	// minParagraphChars is the fallback threshold for a bare paragraph.
	minParagraphChars = 100
)

// LocateMainContent selects the most plausible main-content text. It tries
// the ranked container selectors first, then falls back to the first long
// paragraph. An empty string means "no signal", never an error.
func LocateMainContent(doc *goquery.Document) string {
	return locateMain(doc, contentSelectors)
}

// locateMain allows callers to supply their own ranked selector list.
func locateMain(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		text := normalizeSpace(sel.Text())
		if len(text) > minContainerChars {
			return text
		}
	}

	var fallback string
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := normalizeSpace(s.Text())
		if len(text) > minParagraphChars {
			fallback = text
			return false
		}
		return true
	})
	return fallback
}

// normalizeSpace collapses runs of whitespace into single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
