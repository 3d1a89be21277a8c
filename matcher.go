package odns

import (
	"fmt"
	"regexp"
	"strings"
)

// NameMatcher decides whether a query name is covered by a rule. Names are
// compared case-insensitively and without the trailing root label, so
// "Hello.Example.com." and "hello.example.com" are equivalent.
type NameMatcher interface {
	Match(name string) bool
	fmt.Stringer
}

// Supported kinds of name matchers.
const (
	MatchExact  = "exact"
	MatchPrefix = "prefix"
	MatchDomain = "domain"
	MatchRegexp = "regexp"
)

// NewNameMatcher compiles a pattern of the given kind. An empty kind defaults
// to a regular expression.
func NewNameMatcher(kind, pattern string) (NameMatcher, error) {
	switch kind {
	case MatchExact:
		return exactMatcher(normalizeName(pattern)), nil
	case MatchPrefix:
		return prefixMatcher(strings.ToLower(pattern)), nil
	case MatchDomain:
		return domainMatcher(normalizeName(pattern)), nil
	case MatchRegexp, "":
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, err
		}
		return &regexpMatcher{re: re, pattern: pattern}, nil
	default:
		return nil, fmt.Errorf("unsupported match kind '%s'", kind)
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSuffix(name, "."))
}

// Matches the full name only.
type exactMatcher string

func (m exactMatcher) Match(name string) bool {
	return normalizeName(name) == string(m)
}

func (m exactMatcher) String() string {
	return fmt.Sprintf("exact(%s)", string(m))
}

// Matches names starting with the given string, not restricted to label
// boundaries. "hello.peteris" matches "hello.peteris.rocks".
type prefixMatcher string

func (m prefixMatcher) Match(name string) bool {
	return strings.HasPrefix(normalizeName(name), string(m))
}

func (m prefixMatcher) String() string {
	return fmt.Sprintf("prefix(%s)", string(m))
}

// Matches a domain and all its subdomains.
type domainMatcher string

func (m domainMatcher) Match(name string) bool {
	n := normalizeName(name)
	return n == string(m) || strings.HasSuffix(n, "."+string(m))
}

func (m domainMatcher) String() string {
	return fmt.Sprintf("domain(%s)", string(m))
}

type regexpMatcher struct {
	re      *regexp.Regexp
	pattern string
}

func (m *regexpMatcher) Match(name string) bool {
	return m.re.MatchString(strings.TrimSuffix(name, "."))
}

func (m *regexpMatcher) String() string {
	return fmt.Sprintf("regexp(%s)", m.pattern)
}
