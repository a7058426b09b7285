package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes every tag
var StrictPolicy = bluemonday.StrictPolicy()

// StripHTML removes all HTML tags from content
func StripHTML(s string) string {
	return StrictPolicy.Sanitize(s)
}

// PlainText renders an HTML body as readable text for a text/plain
// alternative part
func PlainText(body string) string {
	// Keep some structure before the tags disappear
	replacer := strings.NewReplacer(
		"<br>", "\n", "<br/>", "\n", "<br />", "\n",
		"</p>", "\n\n", "</div>", "\n", "</li>", "\n", "</tr>", "\n",
	)
	text := html.UnescapeString(StripHTML(replacer.Replace(body)))

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
