// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package dataservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefineFormat(t *testing.T) {
	s := New("test", "1.0")
	format, err := s.DefineFormat("json", map[string]interface{}{
		"content_type": "application/json",
		"title":        "JSON",
		"uses_header":  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "json", format.Name)
	assert.Equal(t, "application/json", format.ContentType)
	assert.True(t, format.UsesHeader)
	assert.False(t, format.IsText)

	_, err = s.DefineFormat("json", nil)
	assert.IsType(t, DuplicateName{}, err)

	assert.Equal(t, []string{"json"}, s.FormatNames())
}

func TestDefineVocab(t *testing.T) {
	s := New("test", "1.0")
	vocab, err := s.DefineVocab("dwc", map[string]interface{}{
		"title":           "Darwin Core",
		"use_field_names": true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Darwin Core", vocab.Title)
	assert.True(t, vocab.UseFieldNames)

	_, err = s.DefineVocab("dwc", nil)
	assert.IsType(t, DuplicateName{}, err)
}

func TestDefineBlock(t *testing.T) {
	s := New("test", "1.0")
	block, err := s.DefineBlock("basic",
		map[string]interface{}{"name": "id", "vocab": "dwc"},
		map[string]interface{}{"name": "title"},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title"}, block.FieldNames())

	_, err = s.DefineBlock("bad", map[string]interface{}{"vocab": "dwc"})
	assert.Error(t, err)

	_, err = s.DefineBlock("basic")
	assert.IsType(t, DuplicateName{}, err)
}

func TestDefineSet(t *testing.T) {
	s := New("test", "1.0")
	set, err := s.DefineSet("extras",
		map[string]interface{}{"value": "loc", "maps_to": "location"},
		map[string]interface{}{"value": "old", "disabled": true},
	)
	require.NoError(t, err)
	require.Len(t, set.Values, 2)
	assert.Equal(t, "location", set.Values[0].MapsTo)
	assert.True(t, set.Values[1].Disabled)

	_, err = s.DefineSet("bad", map[string]interface{}{"maps_to": "x"})
	assert.Error(t, err)
}

func TestDefineRuleset(t *testing.T) {
	s := New("test", "1.0")
	rs, err := s.DefineRuleset("1.1:config:list",
		Rule{Param: "region", Validator: "string"},
		Rule{Param: "limit", Validator: "pos_int"},
		Rule{Allow: "1.1:common"},
	)
	require.NoError(t, err)
	assert.Len(t, rs.Rules, 3)

	// A rule must set exactly one of param, allow, require.
	_, err = s.DefineRuleset("bad", Rule{})
	assert.IsType(t, BadRule{}, err)
	_, err = s.DefineRuleset("bad", Rule{Param: "x", Allow: "y"})
	assert.IsType(t, BadRule{}, err)

	_, err = s.DefineRuleset("1.1:config:list")
	assert.IsType(t, DuplicateName{}, err)
}

func TestDefineSpecial(t *testing.T) {
	s := New("test", "1.0")
	require.NoError(t, s.DefineSpecial("limit", "limit"))
	require.NoError(t, s.DefineSpecial("vocab", "vocab"))
	assert.IsType(t, DuplicateName{}, s.DefineSpecial("limit", "max"))

	specials := s.Specials()
	assert.Equal(t, "limit", specials["limit"])

	// The returned table is a copy.
	specials["limit"] = "changed"
	assert.Equal(t, "limit", s.Specials()["limit"])
}
