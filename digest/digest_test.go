// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package digest

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stream(name, version string) *Digest {
	d := New()
	d.DS.Name = name
	d.DS.Version = version
	return d
}

func TestCondenseOverwrites(t *testing.T) {
	first := stream("wds", "1.1")
	first.Node["a"] = map[string]interface{}{"title": "Old"}
	first.Node["b"] = map[string]interface{}{"title": "Only in first"}

	second := stream("wds", "1.1")
	second.Node["a"] = map[string]interface{}{"title": "New"}

	merged, err := Condense([]*Digest{first, second})
	require.NoError(t, err)
	assert.Equal(t, "New", merged.Node["a"]["title"])
	assert.Equal(t, "Only in first", merged.Node["b"]["title"])
}

func TestCondenseErrorsAccumulate(t *testing.T) {
	first := stream("wds", "1.1")
	first.AddError("ctx1", "first message")

	second := stream("wds", "1.1")
	second.AddError("ctx1", "second message")
	second.AddError("ctx2", "another message")

	merged, err := Condense([]*Digest{first, second})
	require.NoError(t, err)
	// Error entries accumulate and are never overwritten.
	assert.Equal(t, "first message", merged.Errors["ctx1"])
	assert.Equal(t, "another message", merged.Errors["ctx2"])
}

func TestCondenseIdentityMismatch(t *testing.T) {
	_, err := Condense([]*Digest{stream("wds", "1.1"), stream("other", "1.1")})
	if assert.Error(t, err) {
		inc, ok := err.(Incompatible)
		require.True(t, ok)
		assert.Equal(t, "name", inc.Field)
	}
}

func TestCondenseVersionMismatch(t *testing.T) {
	_, err := Condense([]*Digest{stream("wds", "1.1"), stream("wds", "1.2")})
	if assert.Error(t, err) {
		inc, ok := err.(Incompatible)
		require.True(t, ok)
		assert.Equal(t, "version", inc.Field)
	}
}

func TestCondenseMissingVersionIsWarning(t *testing.T) {
	merged, err := Condense([]*Digest{stream("wds", ""), stream("wds", "1.2")})
	require.NoError(t, err)
	assert.Equal(t, "1.2", merged.DS.Version)

	merged, err = Condense([]*Digest{stream("wds", "1.2"), stream("wds", "")})
	require.NoError(t, err)
	assert.Equal(t, "1.2", merged.DS.Version)
}

func TestCondenseRejectsMalformed(t *testing.T) {
	_, err := Condense(nil)
	assert.Equal(t, ErrNoDigest, err)

	_, err = Condense([]*Digest{New()})
	assert.Equal(t, ErrNoDigest, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	d := stream("wds", "1.1")
	d.Node["config/list"] = map[string]interface{}{
		"title":  "List configurations",
		"output": []string{"basic", "detail"},
	}
	d.Block["basic"] = map[string]interface{}{
		"fields": []string{"id", "title"},
	}
	d.AddError("ctx", "message")

	data, err := Marshal(d)
	require.NoError(t, err)
	streams, err := UnmarshalStreams(data)
	require.NoError(t, err)
	require.Len(t, streams, 1)

	loaded := streams[0]
	assert.Equal(t, "wds", loaded.DS.Name)
	assert.Equal(t, "List configurations", loaded.Node["config/list"]["title"])
	assert.Equal(t, "message", loaded.Errors["ctx"])
}

func TestMultiStreamFile(t *testing.T) {
	first := stream("wds", "1.1")
	first.Node["a"] = map[string]interface{}{"title": "Old"}
	second := stream("wds", "1.1")
	second.Node["a"] = map[string]interface{}{"title": "New"}

	data, err := MarshalStreams([]*Digest{first, second})
	require.NoError(t, err)

	dir, err := ioutil.TempDir("", "digest")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	filename := filepath.Join(dir, "multi.yaml")
	require.NoError(t, ioutil.WriteFile(filename, data, 0666))

	merged, err := Load(filename)
	require.NoError(t, err)
	assert.Equal(t, "New", merged.Node["a"]["title"])
}

func TestUnmarshalEmpty(t *testing.T) {
	_, err := UnmarshalStreams(nil)
	assert.Equal(t, ErrNoDigest, err)
}
