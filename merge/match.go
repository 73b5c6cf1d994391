package merge

import "github.com/simonhull/vcc/tag"

// Pair couples a child of the generated tree with the same-named child of
// the original tree. Either side may be nil.
type Pair struct {
	Generated *tag.Node
	Original  *tag.Node
}

// MatchChildren pairs the children of generated with the tag children of
// original, in generated order. Text runs and unmatched tags get a nil
// Original. Tags that exist only in original are not returned.
func MatchChildren(generated, original *tag.Node) []Pair {
	pairs, _ := match(generated, original)
	return pairs
}

// match is MatchChildren that also returns the original tags no generated
// child claimed.
//
// Lookup is by exact tag name and the first original occurrence wins. A
// matched original is consumed, so a second generated sibling with the same
// name is treated as new rather than adopting the same region twice.
func match(generated, original *tag.Node) (pairs []Pair, orphans []*tag.Node) {
	lookup := make(map[string]*tag.Node)
	if original != nil {
		for _, c := range original.Children {
			if c.Kind != tag.KindTag {
				continue
			}
			if _, dup := lookup[c.Name]; !dup {
				lookup[c.Name] = c
			}
		}
	}

	pairs = make([]Pair, 0, len(generated.Children))
	claimed := make(map[*tag.Node]bool, len(lookup))
	for _, g := range generated.Children {
		p := Pair{Generated: g}
		if g.Kind == tag.KindTag {
			if o, ok := lookup[g.Name]; ok {
				p.Original = o
				claimed[o] = true
				delete(lookup, g.Name)
			}
		}
		pairs = append(pairs, p)
	}

	if original != nil {
		for _, c := range original.Children {
			if c.Kind == tag.KindTag && !claimed[c] {
				orphans = append(orphans, c)
			}
		}
	}
	return pairs, orphans
}
