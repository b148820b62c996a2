package engine

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var htmlField = regexp.MustCompile(`"html"\s*:\s*"`)

var previewUnescaper = strings.NewReplacer(
	`\n`, "\n",
	`\t`, "\t",
	`\"`, `"`,
	`\/`, "/",
	`\\`, `\`,
)

// partialHTML extracts the html argument from a possibly truncated
// write_presentation argument fragment. Slide decks are not previewed.
func partialHTML(args string) (string, bool) {
	if mode := gjson.Get(args, "mode"); mode.Exists() && mode.String() == "slides" {
		return "", false
	}

	loc := htmlField.FindStringIndex(args)
	if loc == nil {
		return "", false
	}
	raw := stringPrefix(args[loc[1]:])
	if raw == "" {
		return "", false
	}

	var html string
	if err := json.Unmarshal([]byte(`"`+raw+`"`), &html); err != nil {
		html = previewUnescaper.Replace(raw)
	}
	return html, true
}

// stringPrefix returns the body of a JSON string literal up to its closing
// quote, or all of it when the literal is still open. A dangling backslash is
// dropped.
func stringPrefix(s string) string {
	escaped := false
	for i := 0; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case s[i] == '\\':
			escaped = true
		case s[i] == '"':
			return s[:i]
		}
	}
	if escaped {
		return s[:len(s)-1]
	}
	return s
}
