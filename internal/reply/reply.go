package reply

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Reply holds the labeled values found in one oracle answer.
type Reply struct {
	Raw    string
	fields map[string]string
	order  []string
}

// Parse extracts the values of the grammar's labels from text.
func (g *Grammar) Parse(text string) Reply {
	r := Reply{Raw: text, fields: map[string]string{}}
	ms := g.scan(text)
	for k, m := range ms {
		end := len(text)
		if k+1 < len(ms) {
			end = ms[k+1].start
		}
		if _, seen := r.fields[m.name]; seen {
			continue
		}
		r.fields[m.name] = cleanValue(text[m.valueStart:end])
		r.order = append(r.order, m.name)
	}
	return r
}

// Parse is shorthand for Labels(labels...).Parse(text).
func Parse(text string, labels ...string) Reply {
	return Labels(labels...).Parse(text)
}

func cleanValue(v string) string {
	return strings.Trim(v, " \t\r\n*")
}

func key(label string) string {
	return strings.ToUpper(strings.TrimSpace(label))
}

// Found lists the labels present, in order of appearance.
func (r Reply) Found() []string {
	return append([]string(nil), r.order...)
}

// Has reports whether label appeared with a non-empty value.
func (r Reply) Has(label string) bool {
	return r.fields[key(label)] != ""
}

// Missing returns the labels from want that have no value.
func (r Reply) Missing(want ...string) []string {
	var out []string
	for _, l := range want {
		if !r.Has(l) {
			out = append(out, key(l))
		}
	}
	return out
}

// String returns the full value of label, or def when it is absent or empty.
func (r Reply) String(label, def string) string {
	if v := r.fields[key(label)]; v != "" {
		return v
	}
	return def
}

// Line returns the first non-empty line of label's value, or def.
// Choice labels use this so trailing chatter on later lines is ignored.
func (r Reply) Line(label, def string) string {
	for _, ln := range strings.Split(r.fields[key(label)], "\n") {
		if ln = cleanValue(ln); ln != "" {
			return ln
		}
	}
	return def
}

// Int returns the first whole number in label's value, or def when there is none.
func (r Reply) Int(label string, def int) int {
	n, ok := firstNumber(r.fields[key(label)])
	if !ok {
		return def
	}
	return int(n.IntPart())
}

// Money returns the first amount in label's value, or zero when there is none.
func (r Reply) Money(label string) decimal.Decimal {
	n, ok := firstNumber(r.fields[key(label)])
	if !ok {
		return decimal.Zero
	}
	return n
}
