package segment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

// DirSegmenter treats a directory of pre-rendered page files (page_1.txt,
// page_2.txt, ...) as a segmented document. Useful when pages come from an
// external rendering step, and for tests.
type DirSegmenter struct{}

var _ Segmenter = (*DirSegmenter)(nil)

// NewDirSegmenter creates a segmenter over pre-rendered page files.
func NewDirSegmenter() *DirSegmenter {
	return &DirSegmenter{}
}

var pageFilePattern = regexp.MustCompile(`^page_(\d+)\.(txt|md)$`)

// Segment reads page_N.txt / page_N.md files from dir in page-number order.
// Gaps in numbering become empty pages so physical order is preserved.
func (d *DirSegmenter) Segment(ctx context.Context, dir string) ([]Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("segment: read page directory: %w", err)
	}

	byNumber := make(map[int]string)
	maxPage := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := pageFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			continue
		}
		byNumber[n] = filepath.Join(dir, e.Name())
		if n > maxPage {
			maxPage = n
		}
	}

	if maxPage == 0 {
		return nil, fmt.Errorf("segment: no page_N files found in %s", dir)
	}

	pages := make([]Page, 0, maxPage)
	for n := 1; n <= maxPage; n++ {
		path, ok := byNumber[n]
		if !ok {
			pages = append(pages, Page{Index: n})
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("segment: read %s: %w", path, err)
		}
		pages = append(pages, Page{Index: n, Text: string(data)})
	}
	return pages, nil
}
