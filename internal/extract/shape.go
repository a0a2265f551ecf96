package extract

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Response shape contracts, enforced with JSON Schema before any field is
// touched. The model's output is untrusted: a response that is valid JSON but
// the wrong shape is a page-level failure, not something to work around
// downstream.
const (
	// First page: a keyed object carrying the transaction list.
	firstPageShape = `{
		"type": "object",
		"required": ["transactions"],
		"properties": {
			"transactions": {
				"type": "array",
				"items": {"type": ["object", "null"]}
			}
		}
	}`

	// Subsequent pages: a bare ordered list.
	nextPageShape = `{
		"type": "array",
		"items": {"type": ["object", "null"]}
	}`
)

var (
	firstPageSchema = mustCompileShape("first_page.json", firstPageShape)
	nextPageSchema  = mustCompileShape("next_page.json", nextPageShape)
)

func mustCompileShape(name, src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
		panic(fmt.Sprintf("extract: add shape %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}
