// Package history selects the commits relevant to a set of paths.
//
// For each path it gathers the rename-following commit log and the
// first-parent merges that touched the path, then keeps the entries of the
// full one-line history whose identifier belongs to the combined set. The
// result is ordered as the source repository orders it, not as the
// identifiers were collected.
package history
