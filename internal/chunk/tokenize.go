package chunk

import (
	"strings"
	"unicode"

	bleveunicode "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

// identifierTokenizer is the bleve Unicode word-boundary tokenizer reused
// for both identifier splitting and the generic strategy's paragraph
// tokenization — see SPEC_FULL.md §4.4 on why bleve's tokenizer is kept
// even though its relevance scoring is not.
var identifierTokenizer = bleveunicode.NewUnicodeTokenizer()

// Tokenize splits arbitrary source text on Unicode word boundaries using
// bleve's tokenizer, then further splits each resulting token on
// camelCase/snake_case/kebab-case identifier boundaries and lowercases
// everything, matching the "tokenization for BM25: identifier splitting
// at camelCase/snake_case boundaries" rule of §4.1's per-language
// registry.
func Tokenize(text string) []string {
	tokens := identifierTokenizer.Tokenize([]byte(text))
	var out []string
	for _, t := range tokens {
		out = append(out, splitIdentifier(string(t.Term))...)
	}
	return out
}

// splitIdentifier breaks one token into sub-words on case and separator
// boundaries: "HTTPServerConfig" -> "http","server","config";
// "max_chunk_chars" -> "max","chunk","chars".
func splitIdentifier(tok string) []string {
	var words []string
	var cur strings.Builder
	runes := []rune(tok)
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r):
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (nextLower && cur.Len() > 0 && unicode.IsUpper(runes[i-1])) {
				flush()
			}
			cur.WriteRune(unicode.ToLower(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	if len(words) == 0 {
		return nil
	}
	return words
}
