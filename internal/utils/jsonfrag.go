package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
)

// ErrNoJSON is returned when the text holds neither an embedded object nor a
// decodable document.
var ErrNoJSON = errors.New("no json found in text")

// Greedy: spans from the first '{' to the last '}' so nested objects survive.
var objectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// ExtractJSONObject returns the outermost {...} span embedded in text, such as
// an object wrapped in a markdown code fence.
func ExtractJSONObject(text string) (string, bool) {
	loc := objectPattern.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return text[loc[0]:loc[1]], true
}

// DecodeJSONFragment decodes the object embedded in text into v. When text
// has no embedded object the whole trimmed text is decoded instead.
func DecodeJSONFragment(text string, v any) error {
	text = strings.TrimSpace(text)

	if fragment, ok := ExtractJSONObject(text); ok {
		if err := json.Unmarshal([]byte(fragment), v); err != nil {
			return fmt.Errorf("failed to decode embedded json: %w", err)
		}
		return nil
	}

	// "null" decodes without error but carries no object.
	if text == "" || text == "null" {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("%w: %v", ErrNoJSON, err)
	}
	return nil
}
