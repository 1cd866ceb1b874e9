package chunk

import (
	"path/filepath"
	"strings"
)

// extensionLanguage maps file extensions to language tags, checked
// before falling back to a content sniff (§4.1 algorithm step 1).
var extensionLanguage = map[string]string{
	".rs":    "rust",
	".py":    "python",
	".pyi":   "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".go":    "go",
	".java":  "java",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".cxx":   "cpp",
	".hpp":   "cpp",
	".hh":    "cpp",
	".cs":    "csharp",
	".rb":    "ruby",
	".php":   "php",
	".swift": "swift",
	".kt":    "kotlin",
	".kts":   "kotlin",
}

// shebangLanguage maps interpreter names found in a leading "#!" line to
// a language tag, used by the content-sniff step for extensionless
// scripts.
var shebangLanguage = map[string]string{
	"python":  "python",
	"python3": "python",
	"ruby":    "ruby",
	"node":    "javascript",
}

// Registry is the set of registered per-language Strategy
// implementations (§4.1's "registry"). The generic fallback is not held
// here; the Engine supplies it.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds a registry holding exactly the given strategies,
// keyed by their Language tag.
func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: make(map[string]Strategy, len(strategies))}
	for _, s := range strategies {
		r.strategies[s.Language()] = s
	}
	return r
}

// SupportedLanguages implements the supported_languages() contract of
// §4.1, excluding "generic" which is not a real language tag.
func (r *Registry) SupportedLanguages() []string {
	out := make([]string, 0, len(r.strategies))
	for lang := range r.strategies {
		out = append(out, lang)
	}
	return out
}

// Lookup returns the strategy registered for lang, and whether it was found.
func (r *Registry) Lookup(lang string) (Strategy, bool) {
	s, ok := r.strategies[lang]
	return s, ok
}

// DetectLanguage implements detect_language(path, first_bytes): extension
// first, then a lightweight content sniff, else "" (None).
func (r *Registry) DetectLanguage(path string, firstBytes []byte) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extensionLanguage[ext]; ok {
		return lang
	}
	return sniffLanguage(firstBytes)
}

func sniffLanguage(firstBytes []byte) string {
	text := string(firstBytes)
	nl := strings.IndexByte(text, '\n')
	firstLine := text
	if nl >= 0 {
		firstLine = text[:nl]
	}
	if strings.HasPrefix(firstLine, "#!") {
		for interp, lang := range shebangLanguage {
			if strings.Contains(firstLine, interp) {
				return lang
			}
		}
	}
	switch {
	case strings.Contains(text, "package main"), strings.Contains(text, "func "):
		return "go"
	case strings.Contains(text, "def ") && strings.Contains(text, ":"):
		return "python"
	case strings.Contains(text, "#include"):
		return "c"
	}
	return ""
}
