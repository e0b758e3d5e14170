package mdconv

import (
	"strings"

	enry "github.com/go-enry/go-enry/v2"
)

// detectCodeLanguage infers a fenced code block's language from its
// content alone, for the case described in spec §4.F where neither the
// <pre>/<code> class attribute nor options.code_language supplies one.
// Detection is heuristic and only consulted as a last resort; an
// "unknown" result degrades to no language tag rather than a guess that
// would mislabel the fence.
func detectCodeLanguage(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	lang := enry.GetLanguage("snippet", []byte(content))
	switch strings.ToLower(lang) {
	case "", "text", "other":
		return ""
	}
	return strings.ToLower(lang)
}
