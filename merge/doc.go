// Package merge reconciles a freshly generated region tree with the tree
// parsed from the file currently on disk.
//
// Children are paired by tag name (MatchChildren) and every pair is resolved
// by Decide from two orthogonal inputs: the region's sync mode and its tag
// kind. The table, in priority order:
//
//	generated missing            drop (stale region)
//	original missing             generated (new region)
//	kind Reserve                 original
//	FORCE                        generated
//	FULL / undeclared            generated tags, children merged recursively
//	DEMAND, SKIP                 original
//
// Text between tags always comes from the generated tree. Regions taken
// verbatim from either side are copied with their exact spans, so merging a
// document against its own output is a fixed point.
package merge
