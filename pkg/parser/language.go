package parser

import (
	"path/filepath"
	"strings"
)

// Language is a script grammar build artifacts can be parsed with.
type Language int

const (
	// LanguageJavaScript covers bundled .js/.mjs/.cjs output.
	LanguageJavaScript Language = iota
	// LanguageTypeScript covers .ts artifacts emitted without transpiling.
	LanguageTypeScript
	// LanguageUnknown is anything else.
	LanguageUnknown
)

func (l Language) String() string {
	switch l {
	case LanguageJavaScript:
		return "javascript"
	case LanguageTypeScript:
		return "typescript"
	default:
		return "unknown"
	}
}

// DetectLanguage maps an artifact name to its grammar.
// Hot-update chunks are plain JavaScript.
func DetectLanguage(name string) Language {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".js", ".mjs", ".cjs":
		return LanguageJavaScript
	case ".ts", ".mts", ".cts":
		return LanguageTypeScript
	default:
		return LanguageUnknown
	}
}

// ParseLanguageString converts a configuration value to a Language.
func ParseLanguageString(lang string) Language {
	switch strings.ToLower(lang) {
	case "javascript", "js":
		return LanguageJavaScript
	case "typescript", "ts":
		return LanguageTypeScript
	default:
		return LanguageUnknown
	}
}
