// Package reply parses the labeled-line format the oracle is asked to answer in.
//
// A reply is free text containing segments of the form
//
//	LABEL ':' value
//
// where LABEL is one of a known set of labels (or an alias of one), matched
// case-insensitively at the start of the text or after any character that is
// not a letter, digit or underscore. Optional '*' and blanks may sit between
// the label and the colon, so markdown bold survives. A value runs up to the
// next label or the end of the text, so two labels may share a line.
// Segments may appear in any order; the first occurrence of a label wins and
// text outside segments is ignored.
package reply

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Label is a canonical field name and the other spellings accepted for it.
type Label struct {
	Name    string
	Aliases []string
}

// Grammar is a fixed set of labels to recognise.
type Grammar struct {
	canonical map[string]string // upper-case spelling -> canonical name
	spellings []string          // upper-case, longest first
}

// NewGrammar builds a grammar from labels. Names are normalised to upper case.
func NewGrammar(labels ...Label) *Grammar {
	g := &Grammar{canonical: map[string]string{}}
	for _, l := range labels {
		name := strings.ToUpper(strings.TrimSpace(l.Name))
		if name == "" {
			continue
		}
		for _, sp := range append([]string{l.Name}, l.Aliases...) {
			sp = strings.ToUpper(strings.TrimSpace(sp))
			if sp == "" {
				continue
			}
			if _, dup := g.canonical[sp]; !dup {
				g.canonical[sp] = name
				g.spellings = append(g.spellings, sp)
			}
		}
	}
	sort.SliceStable(g.spellings, func(i, j int) bool {
		return len(g.spellings[i]) > len(g.spellings[j])
	})
	return g
}

// Labels builds a grammar from plain names without aliases.
func Labels(names ...string) *Grammar {
	ls := make([]Label, len(names))
	for i, n := range names {
		ls[i] = Label{Name: n}
	}
	return NewGrammar(ls...)
}

// Enumerate expands prefixes into numbered labels PREFIX_1 .. PREFIX_n.
func Enumerate(n int, prefixes ...string) []string {
	var out []string
	for i := 1; i <= n; i++ {
		for _, p := range prefixes {
			out = append(out, strings.ToUpper(p)+"_"+strconv.Itoa(i))
		}
	}
	return out
}

// marker is one recognised label occurrence.
type marker struct {
	name       string
	start      int // index of the label's first byte
	valueStart int // index just past the colon
}

// scan finds every label occurrence in text, left to right.
func (g *Grammar) scan(text string) []marker {
	var out []marker
	prev := rune(-1)
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if prev == -1 || !isWordRune(prev) {
			if m, ok := g.matchAt(text, i); ok {
				out = append(out, m)
				prev = ':'
				i = m.valueStart
				continue
			}
		}
		prev = r
		i += size
	}
	return out
}

// matchAt tries every spelling at byte offset i, longest first.
func (g *Grammar) matchAt(text string, i int) (marker, bool) {
	for _, sp := range g.spellings {
		j, ok := prefixFold(text, i, sp)
		if !ok {
			continue
		}
		if j < len(text) {
			if r, _ := utf8.DecodeRuneInString(text[j:]); isWordRune(r) {
				continue
			}
		}
		for j < len(text) && (text[j] == ' ' || text[j] == '\t' || text[j] == '*') {
			j++
		}
		if j < len(text) && text[j] == ':' {
			return marker{name: g.canonical[sp], start: i, valueStart: j + 1}, true
		}
	}
	return marker{}, false
}

// prefixFold reports whether text[i:] starts with sp under Unicode case
// folding, and returns the byte offset just past the matched prefix.
func prefixFold(text string, i int, sp string) (int, bool) {
	j := i
	for _, want := range sp {
		if j >= len(text) {
			return 0, false
		}
		got, size := utf8.DecodeRuneInString(text[j:])
		if got != want && !strings.EqualFold(string(got), string(want)) {
			return 0, false
		}
		j += size
	}
	return j, true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
