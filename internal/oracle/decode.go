package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
)

// Clean strips Markdown fences and surrounding prose from a model response,
// keeping only the outermost JSON value. The model is instructed not to wrap
// its output, but instructions are advisory.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	// Remove trailing ``` if present.
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// If there is still junk around the JSON, keep only the span between the
	// first opening bracket and its matching last closing bracket. The
	// response may be either an object or an array.
	objStart := strings.Index(s, "{")
	arrStart := strings.Index(s, "[")

	start, closer := objStart, "}"
	if objStart == -1 || (arrStart != -1 && arrStart < objStart) {
		start, closer = arrStart, "]"
	}

	if start != -1 {
		if end := strings.LastIndex(s, closer); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

// Decode cleans a raw model response and unmarshals it into v. If the cleaned
// text still is not valid JSON, a repair pass (unquoted keys, single quotes,
// trailing commas, unclosed brackets) is attempted before giving up.
func Decode(raw string, v any) error {
	clean := Clean(raw)
	if clean == "" {
		return fmt.Errorf("oracle: response contains no JSON")
	}

	firstErr := json.Unmarshal([]byte(clean), v)
	if firstErr == nil {
		return nil
	}

	repaired, err := jsonrepair.RepairJSON(clean)
	if err != nil {
		return fmt.Errorf("oracle: decode response: %w (repair also failed: %v)", firstErr, err)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("oracle: decode repaired response: %w", err)
	}
	return nil
}
