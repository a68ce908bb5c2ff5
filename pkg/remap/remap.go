// Package remap rewrites the version segment embedded in version-qualified
// symbol paths.
//
// A path such as "net/minecraft/server/v1_8_R3/EntityPlayer" consists of a
// namespace root, a version segment matching v<d>_<d{1,2}>_R<d+>, and the
// remainder. A [Rule] replaces the first such segment that directly follows a
// recognized root with its target token and leaves everything else alone.
// Descriptors and generic signatures name several types; [Rule.RewriteSymbol]
// applies that first-match rewrite to each type path separately.
package remap

import (
	"regexp"
	"strings"
)

// SegmentPattern is the grammar of a version segment.
const SegmentPattern = `v\d_\d{1,2}_R\d+`

// DefaultRoots are the namespace roots whose version segment is rewritten.
var DefaultRoots = []string{"net/minecraft/server", "org/bukkit/craftbukkit"}

var segmentRe = regexp.MustCompile(`^` + SegmentPattern + `$`)

// IsSegment reports whether s is exactly one version segment.
func IsSegment(s string) bool {
	return segmentRe.MatchString(s)
}

// Matcher locates version segments under a fixed set of namespace roots.
// It is immutable and safe for concurrent use.
type Matcher struct {
	re *regexp.Regexp
}

// NewMatcher compiles a matcher for the given roots. With no roots,
// DefaultRoots is used. Roots are matched literally after NormalizeRoot.
func NewMatcher(roots ...string) *Matcher {
	if len(roots) == 0 {
		roots = DefaultRoots
	}
	quoted := make([]string, 0, len(roots))
	for _, r := range roots {
		quoted = append(quoted, regexp.QuoteMeta(NormalizeRoot(r)))
	}
	re := regexp.MustCompile(`(?:` + strings.Join(quoted, "|") + `)/(` + SegmentPattern + `)`)
	return &Matcher{re: re}
}

// NormalizeRoot strips leading and trailing slashes from a namespace root,
// so "/net/minecraft/server/" and "net/minecraft/server" are the same root.
func NormalizeRoot(root string) string {
	return strings.Trim(root, "/")
}

// Find returns the byte range of the first rewritable version segment in
// path, or ok=false.
func (m *Matcher) Find(path string) (start, end int, ok bool) {
	loc := m.re.FindStringSubmatchIndex(path)
	if loc == nil {
		return 0, 0, false
	}
	return loc[2], loc[3], true
}

// Rule returns the rewrite rule for target.
func (m *Matcher) Rule(target string) Rule {
	return Rule{m: m, target: target}
}

// Rule rewrites version segments to one target token.
type Rule struct {
	m      *Matcher
	target string
}

// Target returns the replacement segment.
func (r Rule) Target() string { return r.target }

// Rewrite replaces the first version segment found under a recognized root
// with the rule's target. Paths without a match are returned unchanged.
func (r Rule) Rewrite(path string) string {
	start, end, ok := r.m.Find(path)
	if !ok || path[start:end] == r.target {
		return path
	}
	return path[:start] + r.target + path[end:]
}

// RewriteSymbol rewrites every type path named by sym, which may be an
// internal name, a field or method descriptor, or a generic signature. Each
// type path gets its own first-match Rewrite.
func (r Rule) RewriteSymbol(sym string) string {
	if strings.IndexAny(sym, typeDelimiters) < 0 {
		return r.Rewrite(sym)
	}
	var b strings.Builder
	b.Grow(len(sym))
	start := 0
	for i := 0; i < len(sym); i++ {
		if strings.IndexByte(typeDelimiters, sym[i]) < 0 {
			continue
		}
		b.WriteString(r.Rewrite(sym[start:i]))
		b.WriteByte(sym[i])
		start = i + 1
	}
	b.WriteString(r.Rewrite(sym[start:]))
	return b.String()
}

// typeDelimiters end a type path in descriptors and signatures.
const typeDelimiters = ";<>():"

var defaultMatcher = NewMatcher()

// Rewrite rewrites path to target using DefaultRoots.
func Rewrite(path, target string) string {
	return defaultMatcher.Rule(target).Rewrite(path)
}
