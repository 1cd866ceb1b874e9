package chunk

import (
	"sort"
	"strings"

	"github.com/sourcelens/semcode/internal/cerr"
	"github.com/sourcelens/semcode/internal/domain"
)

// Config holds the chunking.* options of §6.
type Config struct {
	MaxChunkChars int
	MinChunkChars int
	OverlapLines  int
}

// DefaultConfig matches the recognized-option defaults of §6.
func DefaultConfig() Config {
	return Config{MaxChunkChars: 2000, MinChunkChars: 100, OverlapLines: 0}
}

// Engine is the ChunkingEngine of §4.1.
type Engine struct {
	cfg      Config
	registry *Registry
}

// NewEngine builds a ChunkingEngine over the given registry.
func NewEngine(cfg Config, registry *Registry) *Engine {
	return &Engine{cfg: cfg, registry: registry}
}

// SupportedLanguages implements supported_languages().
func (e *Engine) SupportedLanguages() []string { return e.registry.SupportedLanguages() }

// DetectLanguage implements detect_language(path, first_bytes).
func (e *Engine) DetectLanguage(path string, firstBytes []byte) string {
	return e.registry.DetectLanguage(path, firstBytes)
}

// Chunk implements chunk(path, bytes, language_hint?) per the algorithm
// in §4.1. It never suspends (§5) and always terminates for any input.
func (e *Engine) Chunk(path string, content []byte, languageHint string) ([]domain.CodeChunk, error) {
	lang := languageHint
	if lang == "" {
		lang = e.registry.DetectLanguage(path, firstN(content, 512))
	}

	var strategy Strategy
	if lang != "" {
		s, ok := e.registry.Lookup(lang)
		if !ok {
			if languageHint != "" {
				return nil, cerr.New(cerr.Unsupported, "chunk", "unsupported language: "+languageHint).WithPath(path)
			}
			lang = "generic"
			strategy = genericStrategy{}
		} else {
			strategy = s
		}
	} else {
		lang = "generic"
		strategy = genericStrategy{}
	}

	boundaries, err := strategy.Boundaries(content)
	if err != nil {
		// Recoverable: fall through to generic splitting per §4.1 step 2.
		boundaries, _ = genericStrategy{}.Boundaries(content)
	}

	lines := newLineIndex(content)
	regions := fillGaps(boundaries, len(content), lines)
	windows := splitOversized(regions, content, e.cfg.MaxChunkChars)
	windows = coalesceSmall(windows, e.cfg.MinChunkChars, e.cfg.MaxChunkChars)

	chunks := make([]domain.CodeChunk, 0, len(windows))
	var prevContent string
	for _, w := range windows {
		body := string(content[w.ByteStart:w.ByteEnd])
		text := body
		if e.cfg.OverlapLines > 0 && prevContent != "" {
			text = trailingLines(prevContent, e.cfg.OverlapLines) + text
		}
		c := domain.CodeChunk{
			FilePath:  path,
			ByteStart: w.ByteStart,
			ByteEnd:   w.ByteEnd,
			StartLine: w.StartLine,
			EndLine:   w.EndLine,
			Language:  lang,
			Content:   text,
			Symbol:    w.Symbol,
			Kind:      w.Kind,
		}
		c.AssignID()
		if verr := c.Validate(); verr != nil {
			return nil, cerr.Wrap(cerr.ParseError, "chunk", "invalid chunk boundary", verr).WithPath(path)
		}
		chunks = append(chunks, c)
		prevContent = body
	}
	return chunks, nil
}

func firstN(b []byte, n int) []byte {
	if len(b) < n {
		return b
	}
	return b[:n]
}

// fillGaps sorts boundaries and inserts module-level Block regions for
// any byte range not covered by a recognized boundary, per §4.1 step 3's
// "module-level statements grouped into a single chunk".
func fillGaps(boundaries []Boundary, totalLen int, lines *lineIndex) []Boundary {
	sorted := make([]Boundary, len(boundaries))
	copy(sorted, boundaries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ByteStart < sorted[j].ByteStart })

	gap := func(start, end int) Boundary {
		return Boundary{
			ByteStart: start, ByteEnd: end,
			StartLine: lines.lineAt(start), EndLine: lines.lineAt(maxInt(start, end-1)),
			Kind: domain.ChunkKindBlock,
		}
	}

	var out []Boundary
	cursor := 0
	for _, b := range sorted {
		if b.ByteStart > cursor {
			out = append(out, gap(cursor, b.ByteStart))
		}
		out = append(out, b)
		if b.ByteEnd > cursor {
			cursor = b.ByteEnd
		}
	}
	if cursor < totalLen {
		out = append(out, gap(cursor, totalLen))
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// lineIndex maps a byte offset to its 1-based line number.
type lineIndex struct{ offsets []int }

func newLineIndex(content []byte) *lineIndex {
	offsets := []int{0}
	for i, b := range content {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return &lineIndex{offsets: offsets}
}

func (l *lineIndex) lineAt(byteOffset int) int {
	// binary search for the last offset <= byteOffset
	lo, hi := 0, len(l.offsets)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if l.offsets[mid] <= byteOffset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}

// splitOversized implements step 4: any region whose byte length exceeds
// maxChars is cut at line boundaries into sub-windows, never mid-token,
// by greedily packing lines until the next one would cross the limit.
func splitOversized(regions []Boundary, content []byte, maxChars int) []Boundary {
	var out []Boundary
	for _, r := range regions {
		if r.ByteEnd-r.ByteStart <= maxChars || maxChars <= 0 {
			out = append(out, r)
			continue
		}
		out = append(out, splitRegionByLines(r, content, maxChars)...)
	}
	return out
}

func splitRegionByLines(r Boundary, content []byte, maxChars int) []Boundary {
	region := content[r.ByteStart:r.ByteEnd]
	var windows []Boundary
	lineStart := 0
	windowStart := 0
	line := r.StartLine
	windowStartLine := line
	for i := 0; i <= len(region); i++ {
		atEnd := i == len(region)
		if atEnd || region[i] == '\n' {
			lineEnd := i
			if lineEnd-windowStart > maxChars && lineEnd > lineStart {
				// Current window (excluding this line) is non-empty; close it.
				windows = append(windows, Boundary{
					ByteStart: r.ByteStart + windowStart,
					ByteEnd:   r.ByteStart + lineStart,
					StartLine: windowStartLine,
					EndLine:   line - 1,
					Kind:      r.Kind,
					Symbol:    r.Symbol,
				})
				windowStart = lineStart
				windowStartLine = line
			}
			if atEnd {
				if lineEnd > windowStart {
					windows = append(windows, Boundary{
						ByteStart: r.ByteStart + windowStart,
						ByteEnd:   r.ByteStart + lineEnd,
						StartLine: windowStartLine,
						EndLine:   line,
						Kind:      r.Kind,
						Symbol:    r.Symbol,
					})
				}
				break
			}
			lineStart = i + 1
			line++
		}
	}
	if len(windows) == 0 {
		return []Boundary{r}
	}
	return windows
}

// coalesceSmall implements step 5: adjacent regions each below minChars
// merge while their running aggregate stays below maxChars.
func coalesceSmall(regions []Boundary, minChars, maxChars int) []Boundary {
	if minChars <= 0 || len(regions) == 0 {
		return regions
	}
	var out []Boundary
	cur := regions[0]
	for i := 1; i < len(regions); i++ {
		next := regions[i]
		curLen := cur.ByteEnd - cur.ByteStart
		nextLen := next.ByteEnd - next.ByteStart
		if curLen < minChars && nextLen < minChars && (curLen+nextLen) < maxChars && cur.ByteEnd == next.ByteStart {
			cur = Boundary{
				ByteStart: cur.ByteStart,
				ByteEnd:   next.ByteEnd,
				StartLine: cur.StartLine,
				EndLine:   next.EndLine,
				Kind:      domain.ChunkKindBlock,
				Symbol:    cur.Symbol,
			}
			continue
		}
		out = append(out, cur)
		cur = next
	}
	out = append(out, cur)
	return out
}

// trailingLines returns the last n lines of s, including their trailing
// newline, for prepending as overlap (§4.1 step 6).
func trailingLines(s string, n int) string {
	if n <= 0 || s == "" {
		return ""
	}
	trimmed := strings.TrimRight(s, "\n")
	lines := strings.Split(trimmed, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n") + "\n"
}
