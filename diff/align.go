// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package diff

// This file implements ordered-sequence alignment for parameter and
// output-block lists: a minimal edit script derived from the classic
// longest-common-subsequence dynamic program, with ties broken in
// favor of substitution so that a one-for-one change reports as one
// line instead of a delete plus an insert.

// OpKind classifies one step of an edit script.
type OpKind int

const (
	// OpEqual means the element is present on both sides.
	OpEqual OpKind = iota

	// OpDelete means the element is present only on the left side.
	OpDelete

	// OpInsert means the element is present only on the right side.
	OpInsert

	// OpReplace means a left element was substituted by a right
	// element at the same position.
	OpReplace
)

// EditOp is one step of an edit script.  Left is set for OpEqual,
// OpDelete, and OpReplace; Right is set for OpEqual, OpInsert, and
// OpReplace.
type EditOp struct {
	Kind  OpKind
	Left  string
	Right string
}

// Align computes a minimal edit script transforming left into right,
// in original sequence order.  Either side may be empty, in which
// case the script is all insertions or all deletions.
func Align(left, right []string) []EditOp {
	m, n := len(left), len(right)

	// dist[i][j] is the edit distance between left[:i] and
	// right[:j].
	dist := make([][]int, m+1)
	for i := range dist {
		dist[i] = make([]int, n+1)
		dist[i][0] = i
	}
	for j := 0; j <= n; j++ {
		dist[0][j] = j
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if left[i-1] == right[j-1] {
				dist[i][j] = dist[i-1][j-1]
				continue
			}
			best := dist[i-1][j-1] // substitution
			if dist[i-1][j] < best {
				best = dist[i-1][j] // deletion
			}
			if dist[i][j-1] < best {
				best = dist[i][j-1] // insertion
			}
			dist[i][j] = best + 1
		}
	}

	// Walk back from the corner, preferring matches, then
	// substitutions, then deletions, then insertions.
	var script []EditOp
	i, j := m, n
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && left[i-1] == right[j-1] && dist[i][j] == dist[i-1][j-1]:
			script = append(script, EditOp{Kind: OpEqual, Left: left[i-1], Right: right[j-1]})
			i--
			j--
		case i > 0 && j > 0 && dist[i][j] == dist[i-1][j-1]+1:
			script = append(script, EditOp{Kind: OpReplace, Left: left[i-1], Right: right[j-1]})
			i--
			j--
		case i > 0 && dist[i][j] == dist[i-1][j]+1:
			script = append(script, EditOp{Kind: OpDelete, Left: left[i-1]})
			i--
		default:
			script = append(script, EditOp{Kind: OpInsert, Right: right[j-1]})
			j--
		}
	}

	// The script was built back to front.
	for lo, hi := 0, len(script)-1; lo < hi; lo, hi = lo+1, hi-1 {
		script[lo], script[hi] = script[hi], script[lo]
	}
	return script
}

// Changed reports whether an edit script contains anything other
// than matches.
func Changed(script []EditOp) bool {
	for _, op := range script {
		if op.Kind != OpEqual {
			return true
		}
	}
	return false
}
