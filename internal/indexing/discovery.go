package indexing

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/sourcelens/semcode/internal/cerr"
)

// fileWalker compiles the ignore-rule set of §4.5 step 3 and walks a root
// directory, grounded on the teacher's internal/indexer/discovery.go
// glob-compilation shape, generalized from a code/docs-pattern split
// (project-cortex indexes code and docs separately) to a single
// "everything not ignored" traversal, since this engine chunks every
// recognized source file uniformly rather than routing docs elsewhere.
type fileWalker struct {
	root     string
	patterns []glob.Glob
}

func newFileWalker(root string, extraDirs, extraGlobs []string) (*fileWalker, error) {
	w := &fileWalker{root: root}

	dirs := append([]string{}, defaultIgnoreDirs...)
	dirs = append(dirs, extraDirs...)
	for _, d := range dirs {
		for _, pattern := range []string{d, d + "/**", "**/" + d, "**/" + d + "/**"} {
			g, err := glob.Compile(pattern, '/')
			if err != nil {
				return nil, cerr.Wrap(cerr.InvalidInput, "discovery", "invalid ignore directory pattern", err)
			}
			w.patterns = append(w.patterns, g)
		}
	}
	for _, pattern := range extraGlobs {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, cerr.Wrap(cerr.InvalidInput, "discovery", "invalid ignore glob pattern", err)
		}
		w.patterns = append(w.patterns, g)
	}
	if gitignorePatterns, err := readGitignore(root); err == nil {
		for _, pattern := range gitignorePatterns {
			g, err := glob.Compile(pattern, '/')
			if err != nil {
				continue // a malformed .gitignore line is skipped, not fatal
			}
			w.patterns = append(w.patterns, g)
		}
	}
	return w, nil
}

// readGitignore loads the non-negated patterns of a root .gitignore file
// if present, dropping a leading "/". Each pattern is matched against the
// whole root-relative path, so a slash-free pattern such as "*.log" only
// matches at the top level. Every pattern gets a "/**" sibling
// so "node_modules" in .gitignore also matches its contents, matching the
// teacher's own shouldIgnore suffix trick in discovery.go.
func readGitignore(root string) ([]string, error) {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		line = strings.TrimPrefix(line, "/")
		patterns = append(patterns, line, line+"/**")
	}
	return patterns, nil
}

func (w *fileWalker) shouldIgnore(relPath string) bool {
	for _, p := range w.patterns {
		if p.Match(relPath) {
			return true
		}
	}
	return false
}

// Walk returns every non-ignored regular file under root, sorted by
// relative path for the deterministic emission order named by §4.5 step 3.
func (w *fileWalker) Walk() ([]string, error) {
	var files []string
	err := filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		relPath, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return relErr
		}
		relPath = filepath.ToSlash(relPath)
		if relPath == "." {
			return nil
		}
		if info.IsDir() {
			if w.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.shouldIgnore(relPath) {
			return nil
		}
		files = append(files, relPath)
		return nil
	})
	if err != nil {
		return nil, cerr.Wrap(cerr.IoError, "discovery", "failed to walk root directory", err).WithPath(w.root)
	}
	sort.Strings(files)
	return files, nil
}
