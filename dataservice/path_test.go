// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package dataservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParentOf(t *testing.T) {
	parent, ok := ParentOf("/")
	assert.False(t, ok)
	assert.Equal(t, "", parent)

	parent, ok = ParentOf("config")
	assert.True(t, ok)
	assert.Equal(t, "/", parent)

	parent, ok = ParentOf("config/list")
	assert.True(t, ok)
	assert.Equal(t, "config", parent)

	parent, ok = ParentOf("a/b/c")
	assert.True(t, ok)
	assert.Equal(t, "a/b", parent)
}

func TestValidatePath(t *testing.T) {
	good := []string{"/", "a", "a/b", "taxa/list", "single-page"}
	for _, path := range good {
		_, ok := validatePath(path)
		assert.True(t, ok, "path %q should be valid", path)
	}

	bad := []string{"", "/a", "a/", "a//b", "a?b", "a#b", "a/b?x=1"}
	for _, path := range bad {
		reason, ok := validatePath(path)
		assert.False(t, ok, "path %q should be invalid", path)
		assert.NotEmpty(t, reason)
	}
}
