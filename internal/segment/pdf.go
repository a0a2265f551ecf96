package segment

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// PDFSegmenter renders a PDF page by page using the poppler tools
// (pdfinfo/pdftotext), preserving table layout with -layout.
type PDFSegmenter struct{}

var _ Segmenter = (*PDFSegmenter)(nil)

// NewPDFSegmenter creates a poppler-backed segmenter.
func NewPDFSegmenter() *PDFSegmenter {
	return &PDFSegmenter{}
}

// Segment splits the PDF at path into one text rendering per physical page.
func (p *PDFSegmenter) Segment(ctx context.Context, path string) ([]Page, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("segment: input not readable: %w", err)
	}

	total, err := pageCount(ctx, path)
	if err != nil {
		return nil, err
	}

	pages := make([]Page, 0, total)
	for n := 1; n <= total; n++ {
		text, err := renderPage(ctx, path, n)
		if err != nil {
			// A single unrenderable page is a page-level condition: emit it
			// empty and let the pipeline skip it.
			pages = append(pages, Page{Index: n})
			continue
		}
		pages = append(pages, Page{Index: n, Text: text})
	}
	return pages, nil
}

// pageCount reads the page count from pdfinfo output.
func pageCount(ctx context.Context, path string) (int, error) {
	out, err := exec.CommandContext(ctx, "pdfinfo", path).Output()
	if err != nil {
		return 0, fmt.Errorf("segment: pdfinfo %s: %w", path, err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
		if err != nil {
			return 0, fmt.Errorf("segment: parse page count %q: %w", line, err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("segment: pdfinfo output for %s has no page count", path)
}

// renderPage extracts a single page's text with layout preserved.
func renderPage(ctx context.Context, path string, page int) (string, error) {
	n := strconv.Itoa(page)
	out, err := exec.CommandContext(ctx, "pdftotext", "-layout", "-f", n, "-l", n, path, "-").Output()
	if err != nil {
		return "", fmt.Errorf("segment: pdftotext page %d of %s: %w", page, path, err)
	}
	return string(out), nil
}
