// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package digest

import (
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcclenn/go-dataservice/dataservice"
)

// sampleService builds a small but fully cross-referenced
// configuration: nodes referring to blocks directly, to a value set
// whose values map to further blocks, and to rulesets that include
// other rulesets.
func sampleService(t *testing.T) *dataservice.Service {
	s := dataservice.New("sample", "1.1")
	noop := func(req *dataservice.Request) (interface{}, error) { return nil, nil }
	require.NoError(t, s.RegisterRole("main", map[string]dataservice.OperationFunc{
		"list": noop,
	}))

	_, err := s.DefineFormat("json", map[string]interface{}{
		"content_type": "application/json", "title": "JSON"})
	require.NoError(t, err)
	_, err = s.DefineFormat("txt", map[string]interface{}{
		"content_type": "text/plain", "title": "Text", "is_text": true})
	require.NoError(t, err)
	_, err = s.DefineVocab("default", map[string]interface{}{
		"title": "Default", "use_field_names": true})
	require.NoError(t, err)

	_, err = s.DefineBlock("basic",
		map[string]interface{}{"name": "id"},
		map[string]interface{}{"name": "title"})
	require.NoError(t, err)
	_, err = s.DefineBlock("detail",
		map[string]interface{}{"name": "description"})
	require.NoError(t, err)
	_, err = s.DefineBlock("location",
		map[string]interface{}{"name": "lng"},
		map[string]interface{}{"name": "lat"})
	require.NoError(t, err)

	_, err = s.DefineSet("extras",
		map[string]interface{}{"value": "loc", "maps_to": "location"},
		map[string]interface{}{"value": "detail", "maps_to": "detail"})
	require.NoError(t, err)

	_, err = s.DefineRuleset("1.1:common",
		dataservice.Rule{Param: "limit", Validator: "pos_int"},
		dataservice.Rule{Param: "offset", Validator: "pos_int"})
	require.NoError(t, err)
	_, err = s.DefineRuleset("1.1:config:list",
		dataservice.Rule{Param: "region", Validator: "string"},
		dataservice.Rule{Param: "show", Validator: "string"},
		dataservice.Rule{Allow: "1.1:common"})
	require.NoError(t, err)

	require.NoError(t, s.DefineSpecial("limit", "limit"))
	require.NoError(t, s.DefineSpecial("vocab", "vocab"))

	_, err = s.DefineNode("/", map[string]interface{}{
		"title":        "Root",
		"role":         "main",
		"allow_format": "json,txt",
	})
	require.NoError(t, err)
	_, err = s.DefineNode("config", map[string]interface{}{
		"title":  "Configuration",
		"output": "basic",
	})
	require.NoError(t, err)
	_, err = s.DefineNode("config/list", map[string]interface{}{
		"title":           "List configurations",
		"method":          "list",
		"output":          "basic,detail",
		"optional_output": "extras",
	})
	require.NoError(t, err)
	return s
}

func TestBuildTraversal(t *testing.T) {
	s := sampleService(t)
	s.Freeze()
	d := NewBuilderWithClock(s, clock.NewMock()).Build([]string{"/"})

	assert.Equal(t, "sample", d.DS.Name)
	assert.Equal(t, "1.1", d.DS.Version)
	assert.Equal(t, FormatVersion, d.WDSVersion)
	assert.Contains(t, d.DS.Format, "json")
	assert.Contains(t, d.DS.Vocab, "default")
	assert.Equal(t, "limit", d.DS.Special["limit"])

	// All three nodes, flattened.
	require.Contains(t, d.Node, "config/list")
	record := d.Node["config/list"]
	assert.Equal(t, "List configurations", record["title"])
	assert.Equal(t, "1.1:config:list", record["ruleset"])
	// Inherited attributes appear fully resolved.
	assert.Equal(t, []string{"json", "txt"}, record["allow_format"])

	// Directly referenced blocks, plus the one reached through the
	// value set's maps_to.
	assert.Contains(t, d.Block, "basic")
	assert.Contains(t, d.Block, "detail")
	assert.Contains(t, d.Block, "location")
	assert.Contains(t, d.Set, "extras")

	// The explicit ruleset and its transitive inclusion.
	assert.Contains(t, d.Ruleset, "1.1:config:list")
	assert.Contains(t, d.Ruleset, "1.1:common")

	assert.Empty(t, d.Errors)
}

func TestBuildDeterminism(t *testing.T) {
	s := sampleService(t)
	s.Freeze()
	clk := clock.NewMock()

	first := NewBuilderWithClock(s, clk).Build([]string{"/"})
	second := NewBuilderWithClock(s, clk).Build([]string{"/"})
	assert.Equal(t, first, second)
}

func TestBuildDanglingReferences(t *testing.T) {
	s := sampleService(t)
	_, err := s.DefineNode("broken", map[string]interface{}{
		"output":          "no_such_block",
		"optional_output": "no_such_set",
	})
	require.NoError(t, err)
	s.Freeze()

	d := NewBuilderWithClock(s, clock.NewMock()).Build([]string{"/"})

	// The walk continued: the broken node itself and everything
	// else is present.
	assert.Contains(t, d.Node, "broken")
	assert.Contains(t, d.Node, "config/list")

	assert.Equal(t, `block "no_such_block" is not defined`,
		d.Errors[`node "broken": output`])
	assert.Equal(t, `set "no_such_set" is not defined`,
		d.Errors[`node "broken": optional_output`])
}

func TestDerivedRulesetNames(t *testing.T) {
	s := sampleService(t)
	_, err := s.DefineNode("orphan", map[string]interface{}{
		"title":   "Orphan",
		"ruleset": "1.1:missing",
	})
	require.NoError(t, err)
	s.Freeze()

	d := NewBuilderWithClock(s, clock.NewMock()).Build([]string{"/"})

	// "config" has no ruleset attribute; its derived name records
	// but the absent ruleset is not an error, because intermediate
	// nodes routinely have no parameters of their own.
	assert.Equal(t, "1.1:config", d.Node["config"]["ruleset"])
	assert.NotContains(t, d.Ruleset, "1.1:config")
	assert.NotContains(t, d.Errors, `node "config": ruleset`)

	// A derived name that does resolve to a defined ruleset is
	// followed as usual.
	assert.Contains(t, d.Ruleset, "1.1:config:list")

	// An explicitly named ruleset must exist.
	assert.Equal(t, `ruleset "1.1:missing" is not defined`,
		d.Errors[`node "orphan": ruleset`])
}

func TestBuildUndefinedRoot(t *testing.T) {
	s := sampleService(t)
	s.Freeze()
	d := NewBuilderWithClock(s, clock.NewMock()).Build([]string{"nowhere"})
	assert.Empty(t, d.Node)
	assert.Contains(t, d.Errors, `root "nowhere"`)
}

func TestNodePattern(t *testing.T) {
	s := sampleService(t)
	_, err := s.DefineNode("regions", map[string]interface{}{
		"title": "Regions"})
	require.NoError(t, err)
	s.Freeze()

	b := NewBuilderWithClock(s, clock.NewMock())
	require.NoError(t, b.SetNodePattern("config*"))
	d := b.Build([]string{"/"})

	assert.Contains(t, d.Node, "config")
	assert.Contains(t, d.Node, "config/list")
	assert.NotContains(t, d.Node, "/")
	assert.NotContains(t, d.Node, "regions")

	// Referenced entities are included regardless of the pattern.
	assert.Contains(t, d.Block, "basic")
	assert.Contains(t, d.Ruleset, "1.1:common")
}

func TestCompileNodePattern(t *testing.T) {
	re, err := CompileNodePattern("list*")
	require.NoError(t, err)
	assert.True(t, re.MatchString("list"))
	assert.True(t, re.MatchString("lists/sub"))
	assert.False(t, re.MatchString("regions"))

	re, err = CompileNodePattern("a?c")
	require.NoError(t, err)
	assert.True(t, re.MatchString("abc"))
	assert.False(t, re.MatchString("abbc"))

	// Regexp metacharacters in the pattern are literal.
	re, err = CompileNodePattern("a.b")
	require.NoError(t, err)
	assert.False(t, re.MatchString("axb"))
	assert.True(t, re.MatchString("a.b"))
}

func TestDigestSharesNoState(t *testing.T) {
	s := sampleService(t)
	s.Freeze()
	d := NewBuilderWithClock(s, clock.NewMock()).Build([]string{"/"})

	// Mutating the digest must not change what a rebuild sees.
	d.Node["config/list"]["title"] = "tampered"
	listValue := d.Node["config/list"]["allow_format"].([]string)
	listValue[0] = "tampered"

	rebuilt := NewBuilderWithClock(s, clock.NewMock()).Build([]string{"/"})
	assert.Equal(t, "List configurations", rebuilt.Node["config/list"]["title"])
	assert.Equal(t, []string{"json", "txt"},
		rebuilt.Node["config/list"]["allow_format"])
}
