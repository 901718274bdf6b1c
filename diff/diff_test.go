// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package diff

import (
	"strings"
	"testing"

	"gopkg.in/check.v1"

	"github.com/mmcclenn/go-dataservice/digest"
)

func Test(t *testing.T) { check.TestingT(t) }

type DiffSuite struct{}

var _ = check.Suite(&DiffSuite{})

// baseDigest builds the "left" configuration snapshot the suite
// compares against.
func baseDigest() *digest.Digest {
	d := digest.New()
	d.DS.Name = "wds"
	d.DS.Version = "1.1"
	d.DS.Special = map[string]string{"vocab": "vocab"}
	d.DS.Format = map[string]map[string]interface{}{
		"json": {"content_type": "application/json", "title": "JSON"},
	}
	d.DS.Vocab = map[string]map[string]interface{}{
		"default": {"title": "Default"},
	}
	d.Node["list"] = map[string]interface{}{
		"title":   "List things",
		"method":  "list",
		"ruleset": "rs:list",
		"output":  []string{"basic"},
	}
	d.Ruleset["rs:list"] = map[string]interface{}{
		"rules": []map[string]interface{}{
			{"param": "region"},
			{"param": "show"},
			{"param": "limit"},
			{"allow": "rs:common"},
		},
	}
	d.Ruleset["rs:common"] = map[string]interface{}{
		"rules": []map[string]interface{}{
			{"param": "offset"},
			{"param": "vocab"},
		},
	}
	d.Block["basic"] = map[string]interface{}{
		"fields": []string{"id", "title"},
	}
	return d
}

// changedDigest builds the "right" snapshot: one parameter renamed,
// one field renamed, one format retitled, one extra node.
func changedDigest() *digest.Digest {
	d := baseDigest()
	d.DS.Format["json"]["title"] = "JSON v2"
	d.Ruleset["rs:list"] = map[string]interface{}{
		"rules": []map[string]interface{}{
			{"param": "region"},
			{"param": "show"},
			{"param": "sort"},
			{"allow": "rs:common"},
		},
	}
	d.Block["basic"] = map[string]interface{}{
		"fields": []string{"id", "name"},
	}
	d.Node["extra"] = map[string]interface{}{
		"title":  "Extra node",
		"method": "list",
	}
	return d
}

func (s *DiffSuite) TestSelfDiff(c *check.C) {
	d := baseDigest()
	report, err := Diff(d, d, AllAxes())
	c.Assert(err, check.IsNil)

	text := report.String()
	// Every requested axis reads "No difference."
	c.Check(strings.Count(text, "No difference."), check.Equals,
		len(report.Sections))
	c.Check(strings.Contains(text, "!!!"), check.Equals, false)
}

func (s *DiffSuite) TestNoLeftDigest(c *check.C) {
	_, err := Diff(digest.New(), baseDigest(), AllAxes())
	c.Check(err, check.Equals, digest.ErrNoDigest)
	_, err = Diff(nil, baseDigest(), AllAxes())
	c.Check(err, check.Equals, digest.ErrNoDigest)
}

func (s *DiffSuite) TestNoRightDigest(c *check.C) {
	_, err := Diff(baseDigest(), digest.New(), AllAxes())
	c.Check(err, check.Equals, digest.ErrNoDigest)
	_, err = Diff(baseDigest(), nil, AllAxes())
	c.Check(err, check.Equals, digest.ErrNoDigest)
}

func (s *DiffSuite) TestRightOnlyNode(c *check.C) {
	report, err := Diff(baseDigest(), changedDigest(),
		Options{Nodes: true, Params: true})
	c.Assert(err, check.IsNil)
	c.Assert(report.Sections, check.HasLen, 1)

	var extra *Entry
	for i, entry := range report.Sections[0].Entries {
		if entry.Key == "extra" {
			extra = &report.Sections[0].Entries[i]
		}
	}
	c.Assert(extra, check.NotNil)
	c.Check(extra.Kind, check.Equals, RightOnly)
	c.Check(extra.Title, check.Equals, "Extra node")
	// No parameter sub-diff without a left side to align against.
	c.Check(extra.Params, check.HasLen, 0)

	c.Check(strings.Contains(report.String(), "--- extra 'Extra node'"),
		check.Equals, true)
}

func (s *DiffSuite) TestParamSubstitution(c *check.C) {
	report, err := Diff(baseDigest(), changedDigest(),
		Options{Nodes: true, Params: true})
	c.Assert(err, check.IsNil)

	var list *Entry
	for i, entry := range report.Sections[0].Entries {
		if entry.Key == "list" {
			list = &report.Sections[0].Entries[i]
		}
	}
	c.Assert(list, check.NotNil)
	c.Check(list.Kind, check.Equals, Modified)

	// The special parameter "vocab" is skipped during ruleset
	// flattening; "offset" arrives through the rs:common include.
	c.Check(list.Params, check.DeepEquals, []EditOp{
		{Kind: OpEqual, Left: "region", Right: "region"},
		{Kind: OpEqual, Left: "show", Right: "show"},
		{Kind: OpReplace, Left: "limit", Right: "sort"},
		{Kind: OpEqual, Left: "offset", Right: "offset"},
	})

	text := report.String()
	c.Check(strings.Contains(text, "!!! limit | sort"), check.Equals, true)
}

func (s *DiffSuite) TestFieldDiff(c *check.C) {
	report, err := Diff(baseDigest(), changedDigest(),
		Options{Nodes: true, Blocks: true, Fields: true})
	c.Assert(err, check.IsNil)

	var list *Entry
	for i, entry := range report.Sections[0].Entries {
		if entry.Key == "list" {
			list = &report.Sections[0].Entries[i]
		}
	}
	c.Assert(list, check.NotNil)
	c.Assert(list.Fields, check.NotNil)
	c.Check(list.Fields["basic"], check.DeepEquals, []EditOp{
		{Kind: OpEqual, Left: "id", Right: "id"},
		{Kind: OpReplace, Left: "title", Right: "name"},
	})
}

func (s *DiffSuite) TestFormatAxis(c *check.C) {
	report, err := Diff(baseDigest(), changedDigest(), Options{Formats: true})
	c.Assert(err, check.IsNil)
	c.Assert(report.Sections, check.HasLen, 1)
	c.Assert(report.Sections[0].Entries, check.HasLen, 1)

	entry := report.Sections[0].Entries[0]
	c.Check(entry.Key, check.Equals, "json")
	c.Check(entry.Attrs, check.DeepEquals, []AttrDiff{
		{Attr: "title", Left: "JSON", Right: "JSON v2"},
	})

	text := report.String()
	c.Check(strings.Contains(text, "title : JSON | JSON v2"), check.Equals, true)
}

func (s *DiffSuite) TestSpecialsAxis(c *check.C) {
	left := baseDigest()
	right := changedDigest()
	right.DS.Special["datainfo"] = "datainfo"
	right.DS.Special["vocab"] = "vocabulary"

	report, err := Diff(left, right, Options{Specials: true})
	c.Assert(err, check.IsNil)
	entries := report.Sections[0].Entries
	c.Assert(entries, check.HasLen, 2)
	c.Check(entries[0].Key, check.Equals, "datainfo")
	c.Check(entries[0].Kind, check.Equals, RightOnly)
	c.Check(entries[1].Key, check.Equals, "vocab")
	c.Check(entries[1].Kind, check.Equals, Modified)
}

func (s *DiffSuite) TestNodePattern(c *check.C) {
	report, err := Diff(baseDigest(), changedDigest(),
		Options{Nodes: true, Params: true, NodePattern: "ex*"})
	c.Assert(err, check.IsNil)
	entries := report.Sections[0].Entries
	c.Assert(entries, check.HasLen, 1)
	c.Check(entries[0].Key, check.Equals, "extra")
}

func (s *DiffSuite) TestClassFilter(c *check.C) {
	left := baseDigest()
	left.Node["docs"] = map[string]interface{}{"title": "Old docs"}
	right := changedDigest()
	right.Node["docs"] = map[string]interface{}{"title": "New docs"}

	// Only operations requested: the doc node's change is not
	// reported.
	report, err := Diff(left, right, Options{Ops: true})
	c.Assert(err, check.IsNil)
	for _, entry := range report.Sections[0].Entries {
		c.Check(entry.Key, check.Not(check.Equals), "docs")
	}

	// The full node axis sees it.
	report, err = Diff(left, right, Options{Nodes: true})
	c.Assert(err, check.IsNil)
	found := false
	for _, entry := range report.Sections[0].Entries {
		if entry.Key == "docs" {
			found = true
		}
	}
	c.Check(found, check.Equals, true)
}

func (s *DiffSuite) TestComparisonMarkers(c *check.C) {
	report, err := Diff(baseDigest(), changedDigest(),
		Options{Nodes: true, Comparison: true})
	c.Assert(err, check.IsNil)
	text := report.String()
	c.Check(strings.Contains(text, ">>> extra"), check.Equals, true)
	c.Check(strings.Contains(text, "---"), check.Equals, false)
}

func (s *DiffSuite) TestLoadedDigestShapes(c *check.C) {
	// A digest that went through YAML serialization has different
	// concrete types for its nested values; the diff must not
	// care.
	left := baseDigest()
	data, err := digest.Marshal(left)
	c.Assert(err, check.IsNil)
	streams, err := digest.UnmarshalStreams(data)
	c.Assert(err, check.IsNil)
	loaded, err := digest.Condense(streams)
	c.Assert(err, check.IsNil)

	report, err := Diff(loaded, changedDigest(), AllAxes())
	c.Assert(err, check.IsNil)
	text := report.String()
	c.Check(strings.Contains(text, "!!! limit | sort"), check.Equals, true)
}
