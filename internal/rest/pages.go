package rest

import (
	"encoding/json"
	"fmt"
	"strings"

	"resty.dev/v3"
)

// Page is one page of a listed collection plus the URL of the page after
// it, empty when the collection is exhausted.
type Page struct {
	Items []map[string]any
	Next  string
}

// PageExtractor pulls the items and the next-page indicator out of one list
// response. Pagination is discovered from response metadata, never assumed
// to be absent.
type PageExtractor func(resp *resty.Response, body []byte) (Page, error)

// LinkHeaderPages handles APIs that return a bare JSON array and advertise
// the next page through an RFC 5988 Link header (GitHub, GitLab). APIs that
// return plain arrays without the header simply produce a single page.
func LinkHeaderPages(resp *resty.Response, body []byte) (Page, error) {
	var items []map[string]any
	if err := json.Unmarshal(body, &items); err != nil {
		return Page{}, fmt.Errorf("parsing list response: %w", err)
	}
	return Page{Items: items, Next: nextFromLinkHeader(resp.Header().Get("Link"))}, nil
}

// EnvelopePages handles APIs that wrap results in an envelope object with
// an embedded next-page URL (the AWX style), e.g.
// {"results": [...], "next": "..."}. Envelope APIs that paginate by page
// counter instead wrap this and derive Next themselves, as the helpscout
// module does.
func EnvelopePages(itemsKey, nextKey string) PageExtractor {
	return func(resp *resty.Response, body []byte) (Page, error) {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return Page{}, fmt.Errorf("parsing list envelope: %w", err)
		}
		var page Page
		if raw, ok := envelope[itemsKey]; ok {
			if err := json.Unmarshal(raw, &page.Items); err != nil {
				return Page{}, fmt.Errorf("parsing %q items: %w", itemsKey, err)
			}
		}
		if raw, ok := envelope[nextKey]; ok {
			var next *string
			if err := json.Unmarshal(raw, &next); err != nil {
				return Page{}, fmt.Errorf("parsing %q indicator: %w", nextKey, err)
			}
			if next != nil {
				page.Next = *next
			}
		}
		return page, nil
	}
}

// nextFromLinkHeader extracts the rel="next" target from a Link header,
// returning "" when there is none.
func nextFromLinkHeader(header string) string {
	for _, part := range strings.Split(header, ",") {
		sections := strings.Split(part, ";")
		if len(sections) < 2 {
			continue
		}
		target := strings.Trim(strings.TrimSpace(sections[0]), "<>")
		for _, param := range sections[1:] {
			if strings.EqualFold(strings.TrimSpace(param), `rel="next"`) {
				return target
			}
		}
	}
	return ""
}
