package source

import (
	"strings"
)

// Classify buckets an item as short-form or long-form content. The rule is
// deliberately crude and load-bearing: titles are matched case-sensitively
// on the "#shorts" tag, snippets case-insensitively on "short". Downstream
// consumers depend on exactly this behavior.
func Classify(title, snippet string) string {
	if strings.Contains(title, "#shorts") {
		return ContentShort
	}
	if strings.Contains(strings.ToLower(snippet), "short") {
		return ContentShort
	}
	return ContentLongform
}
