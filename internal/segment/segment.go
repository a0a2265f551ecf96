// Package segment splits a multi-page statement into independent single-page
// text renderings. Segmenters are external collaborators behind a narrow
// interface: the extraction pipeline only requires one entry per physical
// page, in physical order, possibly empty for blank pages.
package segment

import "context"

// Page is one physical statement page rendered to text.
type Page struct {
	// Index is the 1-based physical page number.
	Index int

	// Text is the page's rendered text or markup. Empty for blank pages.
	Text string
}

// Segmenter renders a document into per-page text.
type Segmenter interface {
	Segment(ctx context.Context, input string) ([]Page, error)
}
