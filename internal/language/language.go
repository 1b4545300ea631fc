package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var namer = display.English.Tags()

// Normalize canonicalizes a subtitle or dub language code ("en", "hi",
// "pt-BR"). ok is false for values that are not recognizable BCP 47 tags.
func Normalize(code string) (string, bool) {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return "", false
	}
	return tag.String(), true
}

// DisplayName returns the English display name for a language code, falling
// back to the raw code when it cannot be parsed. "en" yields "English".
func DisplayName(code string) string {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return code
	}
	if name := namer.Name(tag); name != "" {
		return name
	}
	return code
}

// DisplayNames maps each code in order to its display name.
func DisplayNames(codes []string) []string {
	out := make([]string, len(codes))
	for i, code := range codes {
		out[i] = DisplayName(code)
	}
	return out
}
