// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package diff compares two configuration digests and reports what
// changed.  The left digest is conventionally the current
// configuration and the right one a previously saved snapshot.  The
// comparison runs one axis at a time (specials, vocabularies,
// formats, nodes), and node comparisons can recurse into parameter,
// output-block, and output-field sub-diffs.
package diff

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/mmcclenn/go-dataservice/digest"
)

// Options selects which axes a diff covers and how the report is
// decorated.
type Options struct {
	// Axis switches.
	DS       bool
	Specials bool
	Vocabs   bool
	Formats  bool
	Nodes    bool
	Ops      bool
	Pages    bool
	Dirs     bool

	// Node sub-diff switches.
	Params bool
	Blocks bool
	Fields bool

	// NodePattern restricts the node axis to paths matching a
	// glob-style pattern.
	NodePattern string

	// Comparison switches the one-sided markers from +++/--- to
	// <<</>>>, for comparing two peer configurations rather than
	// a configuration against its own history.
	Comparison bool
}

// AllAxes returns options with every axis and sub-diff enabled.
func AllAxes() Options {
	return Options{
		DS: true, Specials: true, Vocabs: true, Formats: true,
		Nodes: true, Params: true, Blocks: true, Fields: true,
	}
}

// nodeAxis reports whether any node-category axis is requested.
func (o Options) nodeAxis() bool {
	return o.Nodes || o.Ops || o.Pages || o.Dirs
}

// EntryKind classifies a reported entity.
type EntryKind int

const (
	// LeftOnly entities exist only in the left digest.
	LeftOnly EntryKind = iota

	// RightOnly entities exist only in the right digest.
	RightOnly

	// Modified entities exist on both sides with differences.
	Modified
)

// AttrDiff is one attribute whose scalar value differs between the
// two sides.
type AttrDiff struct {
	Attr  string
	Left  string
	Right string
}

// Entry is one reported entity within a section.
type Entry struct {
	Kind  EntryKind
	Key   string
	Title string

	Attrs  []AttrDiff
	Params []EditOp
	Blocks []EditOp

	// Fields maps a block name to the field-level edit script for
	// that block, for blocks appearing on both sides.
	Fields map[string][]EditOp
}

// Section is one axis of the report.
type Section struct {
	Title   string
	Entries []Entry
}

// Report is the full structured result of a diff.
type Report struct {
	LeftMark  string
	RightMark string
	Sections  []Section
}

// Fixed attribute lists per axis.  Only scalar-valued attributes
// participate in record comparison; anything else in a record is
// skipped.
var (
	formatAttrs = []string{
		"content_type", "default_vocab", "disposition", "doc_node",
		"is_text", "module", "title", "uses_header", "undocumented",
		"disabled",
	}
	vocabAttrs = []string{
		"title", "doc_node", "use_field_names", "undocumented",
		"disabled",
	}
	nodeAttrs = []string{
		"title", "method", "role", "arg", "file_path", "file_dir",
		"file_index", "ruleset", "default_format", "default_vocab",
		"default_limit", "default_header", "public_access",
		"doc_template", "output_label", "place", "usage",
	}
)

// Diff compares two digests.  Both sides must be present and carry
// their identity, or the diff fails with digest.ErrNoDigest: with no
// usable left side there is nothing to report against, and a missing
// right side would read as "everything was removed", which is never
// the truth.  Callers wanting to tell the user which input was bad
// should validate each digest as they load it; digest.Load already
// fails per file, so this check is a backstop.
func Diff(left, right *digest.Digest, opts Options) (*Report, error) {
	if !left.Valid() || !right.Valid() {
		return nil, digest.ErrNoDigest
	}

	report := &Report{LeftMark: "+++", RightMark: "---"}
	if opts.Comparison {
		report.LeftMark, report.RightMark = "<<<", ">>>"
	}

	if opts.DS {
		report.Sections = append(report.Sections, diffDS(left, right))
	}
	if opts.Specials {
		report.Sections = append(report.Sections, diffSpecials(left, right))
	}
	if opts.Vocabs {
		report.Sections = append(report.Sections,
			diffRecords("Vocabularies", left.DS.Vocab, right.DS.Vocab, vocabAttrs))
	}
	if opts.Formats {
		report.Sections = append(report.Sections,
			diffRecords("Formats", left.DS.Format, right.DS.Format, formatAttrs))
	}
	if opts.nodeAxis() {
		section, err := diffNodes(left, right, opts)
		if err != nil {
			return nil, err
		}
		report.Sections = append(report.Sections, *section)
	}
	return report, nil
}

func diffDS(left, right *digest.Digest) Section {
	section := Section{Title: "Data service"}
	entry := Entry{Kind: Modified, Key: left.DS.Name}
	if left.DS.Version != right.DS.Version {
		entry.Attrs = append(entry.Attrs, AttrDiff{
			Attr: "version", Left: left.DS.Version, Right: right.DS.Version})
	}
	keys := make(map[string]bool)
	for k := range left.DS.Attrs {
		keys[k] = true
	}
	for k := range right.DS.Attrs {
		keys[k] = true
	}
	for _, k := range sortedKeys(keys) {
		lv, rv := left.DS.Attrs[k], right.DS.Attrs[k]
		if lv != rv {
			entry.Attrs = append(entry.Attrs, AttrDiff{Attr: k, Left: lv, Right: rv})
		}
	}
	if len(entry.Attrs) > 0 {
		section.Entries = append(section.Entries, entry)
	}
	return section
}

func diffSpecials(left, right *digest.Digest) Section {
	section := Section{Title: "Special parameters"}
	keys := make(map[string]bool)
	for k := range left.DS.Special {
		keys[k] = true
	}
	for k := range right.DS.Special {
		keys[k] = true
	}
	for _, k := range sortedKeys(keys) {
		lv, inLeft := left.DS.Special[k]
		rv, inRight := right.DS.Special[k]
		switch {
		case inLeft && !inRight:
			section.Entries = append(section.Entries,
				Entry{Kind: LeftOnly, Key: k, Title: lv})
		case !inLeft && inRight:
			section.Entries = append(section.Entries,
				Entry{Kind: RightOnly, Key: k, Title: rv})
		case lv != rv:
			section.Entries = append(section.Entries, Entry{
				Kind: Modified, Key: k,
				Attrs: []AttrDiff{{Attr: "parameter", Left: lv, Right: rv}},
			})
		}
	}
	return section
}

// diffRecords compares one category of named records on a fixed
// attribute list.
func diffRecords(title string, left, right map[string]map[string]interface{},
	attrs []string) Section {

	section := Section{Title: title}
	keys := make(map[string]bool)
	for k := range left {
		keys[k] = true
	}
	for k := range right {
		keys[k] = true
	}
	for _, k := range sortedKeys(keys) {
		lrec, inLeft := left[k]
		rrec, inRight := right[k]
		switch {
		case inLeft && !inRight:
			section.Entries = append(section.Entries,
				Entry{Kind: LeftOnly, Key: k, Title: recordTitle(lrec)})
		case !inLeft && inRight:
			section.Entries = append(section.Entries,
				Entry{Kind: RightOnly, Key: k, Title: recordTitle(rrec)})
		default:
			if diffs := compareAttrs(lrec, rrec, attrs); len(diffs) > 0 {
				section.Entries = append(section.Entries,
					Entry{Kind: Modified, Key: k, Attrs: diffs})
			}
		}
	}
	return section
}

func diffNodes(left, right *digest.Digest, opts Options) (*Section, error) {
	section := &Section{Title: "Nodes"}

	var pattern *regexp.Regexp
	if opts.NodePattern != "" {
		var err error
		pattern, err = digest.CompileNodePattern(opts.NodePattern)
		if err != nil {
			return nil, err
		}
	}

	keys := make(map[string]bool)
	for k := range left.Node {
		keys[k] = true
	}
	for k := range right.Node {
		keys[k] = true
	}
	for _, path := range sortedKeys(keys) {
		if pattern != nil && !pattern.MatchString(path) {
			continue
		}
		lrec, inLeft := left.Node[path]
		rrec, inRight := right.Node[path]

		class := nodeClass(lrec)
		if !inLeft {
			class = nodeClass(rrec)
		}
		if !classSelected(class, opts) {
			continue
		}

		switch {
		case inLeft && !inRight:
			section.Entries = append(section.Entries,
				Entry{Kind: LeftOnly, Key: path, Title: recordTitle(lrec)})
		case !inLeft && inRight:
			// One-sided nodes get no sub-diffs; there is
			// nothing to align against.
			section.Entries = append(section.Entries,
				Entry{Kind: RightOnly, Key: path, Title: recordTitle(rrec)})
		default:
			entry := Entry{Kind: Modified, Key: path,
				Attrs: compareAttrs(lrec, rrec, nodeAttrs)}
			if opts.Params {
				entry.Params = diffParams(left, right, lrec, rrec)
			}
			if opts.Blocks {
				entry.Blocks = diffBlocks(lrec, rrec)
				if opts.Fields {
					entry.Fields = diffFields(left, right, entry.Blocks)
				}
			}
			if len(entry.Attrs) > 0 || Changed(entry.Params) ||
				Changed(entry.Blocks) || len(entry.Fields) > 0 {
				section.Entries = append(section.Entries, entry)
			}
		}
	}
	return section, nil
}

// diffParams aligns the flattened parameter lists of the two sides'
// rulesets.
func diffParams(left, right *digest.Digest, lrec, rrec map[string]interface{}) []EditOp {
	lparams := flattenParams(left, recordString(lrec, "ruleset"))
	rparams := flattenParams(right, recordString(rrec, "ruleset"))
	if lparams == nil && rparams == nil {
		return nil
	}
	return Align(lparams, rparams)
}

// diffBlocks aligns the two sides' output block lists.
func diffBlocks(lrec, rrec map[string]interface{}) []EditOp {
	lblocks := stringList(lrec["output"])
	rblocks := stringList(rrec["output"])
	if lblocks == nil && rblocks == nil {
		return nil
	}
	return Align(lblocks, rblocks)
}

// diffFields computes field-level edit scripts for every block that
// appears on both sides of a block alignment.
func diffFields(left, right *digest.Digest, blocks []EditOp) map[string][]EditOp {
	result := make(map[string][]EditOp)
	for _, op := range blocks {
		if op.Kind != OpEqual {
			continue
		}
		lrec, inLeft := left.Block[op.Left]
		rrec, inRight := right.Block[op.Right]
		if !inLeft || !inRight {
			continue
		}
		script := Align(stringList(lrec["fields"]), stringList(rrec["fields"]))
		if Changed(script) {
			result[op.Left] = script
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// flattenParams produces the ordered parameter-name sequence of one
// ruleset within one digest, inlining allow/require inclusions
// recursively and skipping parameters that match a special-parameter
// local name.  A missing ruleset flattens to nothing; the digest
// builder has already reported it.
func flattenParams(d *digest.Digest, rulesetName string) []string {
	if rulesetName == "" {
		return nil
	}
	specials := make(map[string]bool)
	for _, local := range d.DS.Special {
		specials[local] = true
	}
	visited := make(map[string]bool)
	var params []string
	var walk func(name string)
	walk = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		record, present := d.Ruleset[name]
		if !present {
			return
		}
		for _, rule := range recordRules(record) {
			switch {
			case rule["param"] != "":
				if !specials[rule["param"]] {
					params = append(params, rule["param"])
				}
			case rule["allow"] != "":
				walk(rule["allow"])
			case rule["require"] != "":
				walk(rule["require"])
			}
		}
	}
	walk(rulesetName)
	return params
}

// compareAttrs compares two records on a fixed attribute list,
// returning the attributes whose scalar values differ.  Non-scalar
// values do not participate.
func compareAttrs(lrec, rrec map[string]interface{}, attrs []string) []AttrDiff {
	var diffs []AttrDiff
	for _, attr := range attrs {
		lv, lok := scalarString(lrec[attr])
		rv, rok := scalarString(rrec[attr])
		if !lok || !rok {
			continue
		}
		if lv != rv {
			diffs = append(diffs, AttrDiff{Attr: attr, Left: lv, Right: rv})
		}
	}
	return diffs
}

// scalarString renders a scalar value for comparison and display.
// Absent values render as the empty string; non-scalar values are
// reported as not usable.
func scalarString(v interface{}) (string, bool) {
	switch value := v.(type) {
	case nil:
		return "", true
	case string:
		return value, true
	case bool, int, int64, float64:
		return fmt.Sprintf("%v", value), true
	}
	return "", false
}

// nodeClass classifies a node record as an operation, page,
// directory, or plain documentation node.  File dispositions win
// over an inherited operation method.
func nodeClass(record map[string]interface{}) string {
	switch {
	case recordString(record, "file_path") != "":
		return "page"
	case recordString(record, "file_dir") != "":
		return "dir"
	case recordString(record, "method") != "":
		return "op"
	}
	return "doc"
}

func classSelected(class string, opts Options) bool {
	if opts.Nodes {
		return true
	}
	switch class {
	case "op":
		return opts.Ops
	case "page":
		return opts.Pages
	case "dir":
		return opts.Dirs
	}
	return false
}

func recordString(record map[string]interface{}, key string) string {
	if record == nil {
		return ""
	}
	s, _ := record[key].(string)
	return s
}

func recordTitle(record map[string]interface{}) string {
	return recordString(record, "title")
}

// recordRules extracts the rule list from a ruleset record,
// tolerating both freshly-built records and records decoded from
// YAML.
func recordRules(record map[string]interface{}) []map[string]string {
	var out []map[string]string
	appendRule := func(raw map[string]string) {
		if len(raw) > 0 {
			out = append(out, raw)
		}
	}
	switch rules := record["rules"].(type) {
	case []map[string]interface{}:
		for _, rule := range rules {
			appendRule(stringifyRule(rule))
		}
	case []interface{}:
		for _, item := range rules {
			switch rule := item.(type) {
			case map[string]interface{}:
				appendRule(stringifyRule(rule))
			case map[interface{}]interface{}:
				converted := make(map[string]interface{}, len(rule))
				for k, v := range rule {
					if ks, ok := k.(string); ok {
						converted[ks] = v
					}
				}
				appendRule(stringifyRule(converted))
			}
		}
	}
	return out
}

func stringifyRule(rule map[string]interface{}) map[string]string {
	out := make(map[string]string, len(rule))
	for k, v := range rule {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// stringList coerces a digest value into a list of strings, the same
// tolerance recordRules applies.
func stringList(value interface{}) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func sortedKeys(keys map[string]bool) []string {
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
