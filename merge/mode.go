package merge

import (
	"fmt"
	"strings"

	"github.com/simonhull/vcc/tag"
)

// SyncMode is the per-region policy used when reconciling a regenerated
// document with the one on disk. The same values drive the gen attribute
// of the single-tag injection pass.
type SyncMode int

const (
	NA     SyncMode = iota // not declared; inherits from the enclosing region
	Force                  // always take the generated region
	Full                   // take generated tags, reconcile nested regions
	Demand                 // keep the original once it exists
	Skip                   // region is opaque and user-owned
)

// String returns the attribute spelling of the mode
func (m SyncMode) String() string {
	switch m {
	case NA:
		return "NA"
	case Force:
		return "FORCE"
	case Full:
		return "FULL"
	case Demand:
		return "DEMAND"
	case Skip:
		return "SKIP"
	default:
		return fmt.Sprintf("SyncMode(%d)", int(m))
	}
}

// ParseSyncMode converts an attribute or flag value into a SyncMode.
// Matching is case-insensitive and the empty string means NA.
func ParseSyncMode(s string) (SyncMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NA":
		return NA, nil
	case "FORCE":
		return Force, nil
	case "FULL":
		return Full, nil
	case "DEMAND":
		return Demand, nil
	case "SKIP":
		return Skip, nil
	default:
		return NA, fmt.Errorf("unknown sync mode %q (want FORCE, FULL, DEMAND or SKIP)", s)
	}
}

// TagKind says who owns a region by default.
type TagKind int

const (
	Replace TagKind = iota // generator-owned, always regenerated
	Reserve                // user-owned, preserved once written
)

func (k TagKind) String() string {
	switch k {
	case Replace:
		return "Replace"
	case Reserve:
		return "Reserve"
	default:
		return fmt.Sprintf("TagKind(%d)", int(k))
	}
}

// ParseTagKind converts "Replace" or "Reserve" (any case) into a TagKind.
func ParseTagKind(s string) (TagKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "replace":
		return Replace, nil
	case "reserve":
		return Reserve, nil
	default:
		return Replace, fmt.Errorf("unknown tag kind %q (want Replace or Reserve)", s)
	}
}

// KindFunc classifies a tag as Replace or Reserve.
type KindFunc func(n *tag.Node) TagKind

// DefaultReservePrefix marks user-owned regions by naming convention.
const DefaultReservePrefix = "custom"

// PrefixKind returns a KindFunc that treats tags whose local name starts with
// one of prefixes as Reserve. An explicit kind attribute on the tag wins.
// With no prefixes, DefaultReservePrefix is used.
func PrefixKind(prefixes ...string) KindFunc {
	if len(prefixes) == 0 {
		prefixes = []string{DefaultReservePrefix}
	}
	return func(n *tag.Node) TagKind {
		if v, ok := n.Attr("kind"); ok {
			if k, err := ParseTagKind(v); err == nil {
				return k
			}
		}
		local := n.LocalName()
		for _, p := range prefixes {
			if p != "" && strings.HasPrefix(local, p) {
				return Reserve
			}
		}
		return Replace
	}
}
