package assets

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"assetpack/internal/fileutil"
)

// Matcher tests slash-separated relative paths against exclude patterns.
// Patterns are anchored at the root and use path.Match syntax per segment;
// a "**" segment matches any number of segments, including none.
type Matcher struct {
	patterns [][]string
}

// NewMatcher compiles patterns. Backslashes are treated as separators.
func NewMatcher(patterns ...string) (*Matcher, error) {
	m := &Matcher{}
	for _, raw := range patterns {
		raw = strings.TrimSpace(strings.ReplaceAll(raw, "\\", "/"))
		if raw == "" {
			continue
		}
		var segments []string
		for _, seg := range strings.Split(strings.Trim(path.Clean(raw), "/"), "/") {
			// "**.cs" is shorthand for "**/*.cs".
			if strings.HasPrefix(seg, "**") && seg != "**" {
				segments = append(segments, "**", "*"+strings.TrimLeft(seg, "*"))
				continue
			}
			segments = append(segments, seg)
		}
		for _, seg := range segments {
			if _, err := path.Match(seg, ""); err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", raw, err)
			}
		}
		m.patterns = append(m.patterns, segments)
	}
	return m, nil
}

// Match reports whether rel matches any pattern.
func (m *Matcher) Match(rel string) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}
	name := strings.Split(strings.Trim(filepath.ToSlash(rel), "/"), "/")
	for _, pattern := range m.patterns {
		if matchSegments(pattern, name) {
			return true
		}
	}
	return false
}

func matchSegments(pattern, name []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(name); i++ {
				if matchSegments(rest, name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		ok, err := path.Match(pattern[0], name[0])
		if err != nil || !ok {
			return false
		}
		pattern, name = pattern[1:], name[1:]
	}
	return len(name) == 0
}

// DiscoverOptions controls Discover.
type DiscoverOptions struct {
	// Exclude lists root-anchored patterns; matching directories are pruned.
	Exclude []string
	// IncludeHidden keeps entries whose name starts with ".".
	IncludeHidden bool
}

// Discover walks root and returns the absolute path of every regular file
// that survives the filters, in lexical walk order.
func Discover(ctx context.Context, root string, opts DiscoverOptions) ([]string, error) {
	matcher, err := NewMatcher(opts.Exclude...)
	if err != nil {
		return nil, err
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == absRoot {
			return nil
		}
		rel, err := filepath.Rel(absRoot, p)
		if err != nil {
			return err
		}
		excluded := (!opts.IncludeHidden && fileutil.IsHidden(d.Name())) || matcher.Match(rel)
		if d.IsDir() {
			if excluded {
				return filepath.SkipDir
			}
			return nil
		}
		if excluded || !d.Type().IsRegular() {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover assets in %s: %w", root, err)
	}
	return files, nil
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
