package lang

import (
	"go/ast"
	"go/parser"
	"go/token"

	"github.com/sourcelens/semcode/internal/chunk"
	"github.com/sourcelens/semcode/internal/domain"
)

// goStrategy parses Go source with go/parser instead of tree-sitter: the
// pack carries grammar bindings for c/java/php/python/ruby/rust/typescript
// but none for Go, and the standard library's own parser is the
// idiomatic, zero-dependency way to walk Go syntax — the one boundary
// strategy in this package that is deliberately stdlib-only.
type goStrategy struct{}

// NewGo returns the Go chunking strategy.
func NewGo() chunk.Strategy { return goStrategy{} }

func (goStrategy) Language() string { return "go" }

func (goStrategy) AttachesLeadingComments() bool { return true }

func (goStrategy) Boundaries(content []byte) ([]chunk.Boundary, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", content, parser.ParseComments)
	if err != nil {
		// A partial tree may still be available; go/parser returns one
		// alongside the error for many syntax errors, so fall back to it
		// when present rather than discarding the file outright.
		if file == nil {
			return nil, err
		}
	}

	var out []chunk.Boundary
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			kind := domain.ChunkKindFunction
			symbol := d.Name.Name
			if d.Recv != nil && len(d.Recv.List) > 0 {
				kind = domain.ChunkKindMethod
				symbol = receiverName(d.Recv.List[0].Type) + "." + symbol
			}
			start, end := fset.Position(d.Pos()), fset.Position(d.End())
			docStart := start
			if d.Doc != nil {
				docStart = fset.Position(d.Doc.Pos())
			}
			out = append(out, chunk.Boundary{
				ByteStart: docStart.Offset,
				ByteEnd:   end.Offset,
				StartLine: docStart.Line,
				EndLine:   end.Line,
				Kind:      kind,
				Symbol:    symbol,
			})
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				kind := domain.ChunkKindBlock
				if _, ok := ts.Type.(*ast.StructType); ok {
					kind = domain.ChunkKindClass
				}
				if _, ok := ts.Type.(*ast.InterfaceType); ok {
					kind = domain.ChunkKindClass
				}
				start, end := fset.Position(d.Pos()), fset.Position(d.End())
				docStart := start
				if d.Doc != nil {
					docStart = fset.Position(d.Doc.Pos())
				}
				out = append(out, chunk.Boundary{
					ByteStart: docStart.Offset,
					ByteEnd:   end.Offset,
					StartLine: docStart.Line,
					EndLine:   end.Line,
					Kind:      kind,
					Symbol:    ts.Name.Name,
				})
			}
		}
	}
	return out, nil
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	default:
		return ""
	}
}
