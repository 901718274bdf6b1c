// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlignEqual(t *testing.T) {
	script := Align([]string{"a", "b"}, []string{"a", "b"})
	assert.Equal(t, []EditOp{
		{Kind: OpEqual, Left: "a", Right: "a"},
		{Kind: OpEqual, Left: "b", Right: "b"},
	}, script)
	assert.False(t, Changed(script))
}

func TestAlignPrefersSubstitution(t *testing.T) {
	// One element changed in place must report as a single
	// substitution, not a delete plus an insert.
	script := Align(
		[]string{"region", "show", "limit"},
		[]string{"region", "show", "sort"})
	assert.Equal(t, []EditOp{
		{Kind: OpEqual, Left: "region", Right: "region"},
		{Kind: OpEqual, Left: "show", Right: "show"},
		{Kind: OpReplace, Left: "limit", Right: "sort"},
	}, script)
}

func TestAlignInsertDelete(t *testing.T) {
	script := Align([]string{"a", "b", "c"}, []string{"a", "c"})
	assert.Equal(t, []EditOp{
		{Kind: OpEqual, Left: "a", Right: "a"},
		{Kind: OpDelete, Left: "b"},
		{Kind: OpEqual, Left: "c", Right: "c"},
	}, script)

	script = Align([]string{"a", "c"}, []string{"a", "b", "c"})
	assert.Equal(t, []EditOp{
		{Kind: OpEqual, Left: "a", Right: "a"},
		{Kind: OpInsert, Right: "b"},
		{Kind: OpEqual, Left: "c", Right: "c"},
	}, script)
}

func TestAlignEmptySides(t *testing.T) {
	script := Align(nil, []string{"a", "b"})
	assert.Equal(t, []EditOp{
		{Kind: OpInsert, Right: "a"},
		{Kind: OpInsert, Right: "b"},
	}, script)

	script = Align([]string{"a"}, nil)
	assert.Equal(t, []EditOp{{Kind: OpDelete, Left: "a"}}, script)

	assert.Empty(t, Align(nil, nil))
}
