package advisor

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rcliao/fleet-advisor/internal/reply"
)

// answer is one item named in an item-stage reply with the fields that
// belong to it.
type answer struct {
	rank   int
	label  string
	reason string
	extras map[string]string
}

// numbered expands l into l_1 .. l_n, aliases included.
func numbered(l reply.Label, n int) []reply.Label {
	if l.Name == "" || n <= 0 {
		return nil
	}
	spellings := append([]string{l.Name}, l.Aliases...)
	names := reply.Enumerate(n, spellings...)
	k := len(spellings)
	out := make([]reply.Label, n)
	for i := range out {
		out[i] = reply.Label{Name: names[i*k], Aliases: names[i*k+1 : (i+1)*k]}
	}
	return out
}

func rankedName(l reply.Label, i int) string {
	if l.Name == "" {
		return ""
	}
	return strings.ToUpper(l.Name) + "_" + strconv.Itoa(i)
}

func (l Labels) itemGrammar() *reply.Grammar {
	ls := []reply.Label{l.Item, l.Quantity, l.ItemReason, l.Upfront, l.Recurring, l.Priority}
	ls = append(ls, l.Extra...)
	for _, x := range append([]reply.Label{l.Item, l.ItemReason}, l.Extra...) {
		ls = append(ls, numbered(x, l.Ranked)...)
	}
	return reply.NewGrammar(ls...)
}

// itemFields are the fields a complete item-stage reply carries.
func (l Labels) itemFields() []string {
	if l.Ranked > 0 {
		return []string{rankedName(l.Item, 1), rankedName(l.ItemReason, 1), l.Priority.Name}
	}
	return []string{l.Item.Name, l.Quantity.Name, l.ItemReason.Name}
}

// readAnswers returns the answers in rep, the priority rank first and the
// rest in rank order. A reply without numbered answers yields the single
// unnumbered one.
func readAnswers(rep reply.Reply, l Labels) []answer {
	var out []answer
	for i := 1; i <= l.Ranked; i++ {
		label := rep.Line(rankedName(l.Item, i), "")
		if label == "" {
			continue
		}
		a := answer{rank: i, label: label, reason: rep.String(rankedName(l.ItemReason, i), "")}
		for _, x := range l.Extra {
			if v := rep.String(rankedName(x, i), ""); v != "" {
				if a.extras == nil {
					a.extras = map[string]string{}
				}
				a.extras[x.Name] = v
			}
		}
		out = append(out, a)
	}
	if len(out) == 0 {
		return []answer{{rank: 1, label: rep.Line(l.Item.Name, "")}}
	}

	if l.Priority.Name != "" {
		if p := rep.Int(l.Priority.Name, 0); p > 0 {
			sort.SliceStable(out, func(i, j int) bool {
				return out[i].rank == p && out[j].rank != p
			})
		}
	}
	return out
}
