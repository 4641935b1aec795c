package hyper

import (
	"regexp"
)

type linkEntry struct {
	links []*Link
	many  bool
}

// Links holds a resource's links by relation. Besides its literal name,
// each relation is reachable under its CURIE or URL suffix ("ns:widgets"
// is also "widgets") and under underscored variants of both.
type Links struct {
	ordered[linkEntry]
	rels []string
}

func newLinks() *Links {
	return &Links{ordered: newOrdered[linkEntry]()}
}

var (
	relSuffix   = regexp.MustCompile(`.+[:/#]([^:/#]+)$`)
	nonWordRuns = regexp.MustCompile(`\W+`)
)

// RelAliases returns the names a relation is registered under, literal
// name first.
func RelAliases(rel string) []string {
	names := []string{rel}
	if m := relSuffix.FindStringSubmatch(rel); m != nil {
		names = append(names, m[1])
	}
	for _, n := range names {
		if u := nonWordRuns.ReplaceAllString(n, "_"); u != n {
			names = append(names, u)
		}
	}

	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if n != "" && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// relShortName returns the CURIE or URL suffix of rel, or rel itself.
func relShortName(rel string) string {
	if m := relSuffix.FindStringSubmatch(rel); m != nil {
		return m[1]
	}
	return rel
}

// Set registers a single link under rel and its aliases.
func (l *Links) Set(rel string, link *Link) {
	l.register(rel, linkEntry{links: []*Link{link}})
}

// SetList registers a list of links under rel and its aliases.
func (l *Links) SetList(rel string, links []*Link) {
	l.register(rel, linkEntry{links: links, many: true})
}

// register stores the literal name unconditionally. Aliases never displace
// an existing entry.
func (l *Links) register(rel string, e linkEntry) {
	names := RelAliases(rel)
	if !l.isRel(rel) {
		l.rels = append(l.rels, rel)
	}
	l.set(names[0], e)
	for _, alias := range names[1:] {
		l.add(alias, e)
	}
}

func (l *Links) isRel(name string) bool {
	for _, r := range l.rels {
		if r == name {
			return true
		}
	}
	return false
}

// Get returns the first link registered under name, or nil.
func (l *Links) Get(name string) *Link {
	e, _ := l.get(name)
	if len(e.links) == 0 {
		return nil
	}
	return e.links[0]
}

// All returns every link registered under name.
func (l *Links) All(name string) []*Link {
	e, _ := l.get(name)
	return append([]*Link(nil), e.links...)
}

// Value returns the named entry as a *Link or a []*Link.
func (l *Links) Value(name string) (any, bool) {
	e, ok := l.get(name)
	if !ok {
		return nil, false
	}
	if e.many {
		return append([]*Link(nil), e.links...), true
	}
	return e.links[0], true
}

// Has reports whether any link is reachable under name.
func (l *Links) Has(name string) bool {
	return l.has(name)
}

// Rels returns the literal relation names in the order they were added.
func (l *Links) Rels() []string {
	return append([]string(nil), l.rels...)
}

// Keys returns every name a link is reachable under, aliases included.
func (l *Links) Keys() []string {
	return l.list()
}

// Len returns the number of literal relations.
func (l *Links) Len() int {
	return len(l.rels)
}
