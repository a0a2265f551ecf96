package segment

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var tableMarkdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// HasTable reports whether a page's markdown rendering contains a pipe table.
// The extraction prompt already handles non-table pages, so this is advisory:
// the pipeline uses it to log which pages look tabular, not to skip them.
func HasTable(markdown string) bool {
	doc := tableMarkdown.Parser().Parse(text.NewReader([]byte(markdown)))

	found := false
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if _, ok := n.(*east.Table); ok {
			found = true
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return found
}
