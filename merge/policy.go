package merge

import (
	"fmt"
	"strings"

	"github.com/simonhull/vcc/tag"
)

// Decision is the outcome for a single matched pair.
type Decision int

const (
	Drop          Decision = iota // emit nothing
	TakeGenerated                 // emit the generated node verbatim
	TakeOriginal                  // emit the original node verbatim
	Reconcile                     // emit generated tags, resolve children recursively
)

func (d Decision) String() string {
	switch d {
	case Drop:
		return "drop"
	case TakeGenerated:
		return "take-generated"
	case TakeOriginal:
		return "take-original"
	case Reconcile:
		return "reconcile"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Decide applies the policy table to one pair. Schema drift is handled
// before modes are consulted: a tag missing from the generated tree is
// dropped and a tag missing from the original is taken as generated. A
// Reserve region that exists in both trees always keeps the original.
func Decide(p Pair, mode SyncMode, kind TagKind) Decision {
	switch {
	case p.Generated == nil:
		return Drop
	case p.Original == nil, p.Generated.Kind != tag.KindTag:
		return TakeGenerated
	case kind == Reserve:
		return TakeOriginal
	}

	switch mode {
	case Force:
		return TakeGenerated
	case NA, Full:
		return Reconcile
	case Demand, Skip:
		return TakeOriginal
	}
	panic(fmt.Sprintf("merge: unhandled sync mode %v", mode))
}

// Stats lists region names by what happened to them during a merge.
// Nested regions are reported as "outer/inner".
type Stats struct {
	Regenerated []string // present in both trees, generated text won
	Preserved   []string // present in both trees, original text kept
	Reconciled  []string // generated tags kept, children merged
	Added       []string // only in the generated tree
	Removed     []string // only in the original tree
}

// Drifted reports whether regions were added or removed.
func (s *Stats) Drifted() bool {
	return len(s.Added)+len(s.Removed) > 0
}

// Policy resolves a generated tree against an original tree.
type Policy struct {
	// Default is the mode for top-level tags that declare no sync attribute.
	Default SyncMode
	// Kind classifies tags; PrefixKind() is used when nil.
	Kind KindFunc
}

// Merge returns the reconciled text of generated's children against
// original's children. original may be nil, which takes everything from
// generated. stats may be nil.
func (p Policy) Merge(generated, original *tag.Node, stats *Stats) (string, error) {
	if p.Kind == nil {
		p.Kind = PrefixKind()
	}
	if stats == nil {
		stats = &Stats{}
	}

	var b strings.Builder
	b.Grow(len(generated.Full))
	if err := p.mergeChildren(&b, generated, original, p.Default, "", stats); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (p Policy) mergeChildren(b *strings.Builder, generated, original *tag.Node, inherited SyncMode, path string, stats *Stats) error {
	pairs, orphans := match(generated, original)

	for _, pair := range pairs {
		if err := p.resolve(b, pair, inherited, path, stats); err != nil {
			return err
		}
	}
	for _, o := range orphans {
		stats.Removed = append(stats.Removed, path+o.LocalName())
	}
	return nil
}

func (p Policy) resolve(b *strings.Builder, pair Pair, inherited SyncMode, path string, stats *Stats) error {
	g := pair.Generated
	if g.Kind != tag.KindTag {
		b.WriteString(g.Full)
		return nil
	}

	mode, err := declaredMode(g)
	if err != nil {
		return err
	}
	if mode == NA {
		mode = inherited
	}

	name := path + g.LocalName()
	switch Decide(pair, mode, p.Kind(g)) {
	case Drop:
	case TakeGenerated:
		b.WriteString(g.Full)
		if pair.Original == nil {
			stats.Added = append(stats.Added, name)
		} else {
			stats.Regenerated = append(stats.Regenerated, name)
		}
	case TakeOriginal:
		b.WriteString(pair.Original.Full)
		stats.Preserved = append(stats.Preserved, name)
	case Reconcile:
		if g.SelfClosing {
			b.WriteString(g.Full)
			stats.Reconciled = append(stats.Reconciled, name)
			return nil
		}
		b.WriteString(g.Open)
		if err := p.mergeChildren(b, g, pair.Original, mode, name+"/", stats); err != nil {
			return err
		}
		b.WriteString(g.Close)
		stats.Reconciled = append(stats.Reconciled, name)
	}
	return nil
}

// declaredMode reads the sync attribute of a tag.
func declaredMode(n *tag.Node) (SyncMode, error) {
	v, ok := n.Attr("sync")
	if !ok {
		return NA, nil
	}
	mode, err := ParseSyncMode(v)
	if err != nil {
		return NA, fmt.Errorf("<%s> at offset %d: %w", n.Name, n.Start, err)
	}
	return mode, nil
}
