// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package digest

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/mmcclenn/go-dataservice/dataservice"
)

// Builder walks a live service configuration and flattens it into a
// Digest.  The walk starts from one or more root node paths and
// follows every reference from the nodes it visits: output blocks,
// value sets and their maps_to targets, and parameter rulesets with
// their transitive inclusions.  A dangling reference never aborts
// the walk; it becomes an entry in the digest's errors category and
// the walk continues.
type Builder struct {
	service *dataservice.Service
	clock   clock.Clock
	pattern *regexp.Regexp

	digest  *Digest
	visited map[visitKey]bool
}

type visitKey struct {
	category string
	name     string
}

// NewBuilder creates a digest builder for a service, using the real
// system clock for the generation timestamp.
func NewBuilder(service *dataservice.Service) *Builder {
	return NewBuilderWithClock(service, clock.New())
}

// NewBuilderWithClock creates a digest builder with an explicit time
// source.  Tests that check digest determinism inject a mock clock
// here.
func NewBuilderWithClock(service *dataservice.Service, clk clock.Clock) *Builder {
	return &Builder{service: service, clock: clk}
}

// SetNodePattern restricts the node category to paths matching a
// glob-style pattern, where * matches any run of characters and ?
// matches one.  Entities referenced from a matching node are always
// included, pattern or not.
func (b *Builder) SetNodePattern(pattern string) error {
	re, err := CompileNodePattern(pattern)
	if err != nil {
		return err
	}
	b.pattern = re
	return nil
}

// CompileNodePattern compiles a glob-style node pattern to an
// anchored regular expression.
func CompileNodePattern(pattern string) (*regexp.Regexp, error) {
	var expr strings.Builder
	expr.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			expr.WriteString(".*")
		case '?':
			expr.WriteString(".")
		default:
			expr.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	expr.WriteString("$")
	return regexp.Compile(expr.String())
}

// Build produces a digest of every node at or below the given roots,
// plus everything those nodes reference.  Build never fails on bad
// references; the digest is always as complete as possible, with the
// problems recorded in its errors category.
func (b *Builder) Build(roots []string) *Digest {
	b.digest = New()
	b.visited = make(map[visitKey]bool)

	service := b.service
	b.digest.DS = DSRecord{
		Name:      service.Name(),
		Version:   service.Version(),
		Generated: b.clock.Now().UTC().Format(time.RFC3339),
		Special:   service.Specials(),
		Format:    make(map[string]map[string]interface{}),
		Vocab:     make(map[string]map[string]interface{}),
	}
	for _, name := range service.FormatNames() {
		format, _ := service.Format(name)
		b.digest.DS.Format[name] = formatRecord(format)
	}
	for _, name := range service.VocabNames() {
		vocab, _ := service.Vocab(name)
		b.digest.DS.Vocab[name] = vocabRecord(vocab)
	}

	for _, root := range roots {
		if _, defined := service.Node(root); !defined {
			b.digest.AddError(fmt.Sprintf("root %q", root), "node is not defined")
			continue
		}
		for _, path := range service.NodesUnder(root) {
			b.addNode(path)
		}
	}
	return b.digest
}

// addNode flattens one node into the digest, subject to the node
// pattern, and follows its references.
func (b *Builder) addNode(path string) {
	if b.pattern != nil && !b.pattern.MatchString(path) {
		return
	}
	if b.seen("node", path) {
		return
	}

	service := b.service
	record := make(map[string]interface{})
	for _, key := range service.Registry().Names() {
		if value := service.Resolve(path, key); value != nil {
			record[key] = digestValue(value)
		}
	}

	// The effective ruleset name is recorded even when it is
	// derived from the path rather than specified.
	rulesetName := service.RulesetName(path)
	if rulesetName != "" {
		record["ruleset"] = rulesetName
	}
	b.digest.Node[path] = record

	for _, key := range []string{"output", "summary"} {
		context := fmt.Sprintf("node %q: %s", path, key)
		for _, blockName := range stringList(record[key]) {
			b.addBlock(blockName, context)
		}
	}
	context := fmt.Sprintf("node %q: optional_output", path)
	for _, setName := range stringList(record["optional_output"]) {
		b.addSet(setName, context)
	}
	if rulesetName != "" {
		context := fmt.Sprintf("node %q: ruleset", path)
		if explicit, _ := service.Resolve(path, "ruleset").(string); explicit != "" {
			// An explicitly named ruleset must exist; addRuleset
			// reports it if it does not.
			b.addRuleset(rulesetName, context)
		} else if _, defined := service.Ruleset(rulesetName); defined {
			// A name derived from the path is only a convention.
			// Intermediate nodes with no parameters of their own
			// are normal, not dangling references.
			b.addRuleset(rulesetName, context)
		}
	}
}

// addBlock records one output block, if it exists.
func (b *Builder) addBlock(name, context string) {
	if b.seen("block", name) {
		return
	}
	block, defined := b.service.Block(name)
	if !defined {
		b.digest.AddError(context, fmt.Sprintf("block %q is not defined", name))
		return
	}
	record := map[string]interface{}{
		"fields": block.FieldNames(),
	}
	vocabs := make(map[string]string)
	for _, field := range block.Fields {
		if field.Vocab != "" {
			vocabs[field.Name] = field.Vocab
		}
	}
	if len(vocabs) > 0 {
		record["field_vocab"] = vocabs
	}
	b.digest.Block[name] = record
}

// addSet records one value set and follows its maps_to targets into
// the block category.
func (b *Builder) addSet(name, context string) {
	if b.seen("set", name) {
		return
	}
	set, defined := b.service.Set(name)
	if !defined {
		b.digest.AddError(context, fmt.Sprintf("set %q is not defined", name))
		return
	}
	values := make([]string, 0, len(set.Values))
	mapsTo := make(map[string]string)
	disabled := []string{}
	for _, value := range set.Values {
		values = append(values, value.Value)
		if value.MapsTo != "" {
			mapsTo[value.Value] = value.MapsTo
		}
		if value.Disabled {
			disabled = append(disabled, value.Value)
		}
	}
	record := map[string]interface{}{"values": values}
	if len(mapsTo) > 0 {
		record["maps_to"] = mapsTo
	}
	if len(disabled) > 0 {
		record["disabled"] = disabled
	}
	b.digest.Set[name] = record

	setContext := fmt.Sprintf("set %q", name)
	for _, value := range set.Values {
		if value.MapsTo != "" && !value.Disabled {
			b.addBlock(value.MapsTo, setContext)
		}
	}
}

// addRuleset records one ruleset and recurses into the rulesets it
// includes.  The visited set breaks cycles between mutually
// referential rulesets.
func (b *Builder) addRuleset(name, context string) {
	if b.seen("ruleset", name) {
		return
	}
	ruleset, defined := b.service.Ruleset(name)
	if !defined {
		b.digest.AddError(context, fmt.Sprintf("ruleset %q is not defined", name))
		return
	}
	rules := make([]map[string]interface{}, 0, len(ruleset.Rules))
	for _, rule := range ruleset.Rules {
		entry := make(map[string]interface{})
		switch {
		case rule.Param != "":
			entry["param"] = rule.Param
			if rule.Validator != "" {
				entry["valid"] = rule.Validator
			}
		case rule.Allow != "":
			entry["allow"] = rule.Allow
		case rule.Require != "":
			entry["require"] = rule.Require
		}
		rules = append(rules, entry)
	}
	b.digest.Ruleset[name] = map[string]interface{}{"rules": rules}

	included := fmt.Sprintf("ruleset %q", name)
	for _, rule := range ruleset.Rules {
		if rule.Allow != "" {
			b.addRuleset(rule.Allow, included)
		}
		if rule.Require != "" {
			b.addRuleset(rule.Require, included)
		}
	}
}

// seen marks a (category, name) pair visited, returning true if it
// already was.
func (b *Builder) seen(category, name string) bool {
	key := visitKey{category: category, name: name}
	if b.visited[key] {
		return true
	}
	b.visited[key] = true
	return false
}

// digestValue converts an effective attribute value into a form safe
// to store in a digest: slices are copied and sets become sorted
// slices, so the digest shares no mutable structure with the live
// configuration.
func digestValue(value interface{}) interface{} {
	switch v := value.(type) {
	case dataservice.StringSet:
		return v.Sorted()
	case []string:
		return append([]string(nil), v...)
	}
	return value
}

// stringList coerces a digest value into a list of strings.  It
// accepts both the []string a freshly-built digest holds and the
// []interface{} YAML loading produces.
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

func formatRecord(format *dataservice.Format) map[string]interface{} {
	record := map[string]interface{}{
		"content_type": format.ContentType,
		"title":        format.Title,
	}
	if format.DefaultVocab != "" {
		record["default_vocab"] = format.DefaultVocab
	}
	if format.Disposition != "" {
		record["disposition"] = format.Disposition
	}
	if format.DocNode != "" {
		record["doc_node"] = format.DocNode
	}
	if format.Module != "" {
		record["module"] = format.Module
	}
	if format.IsText {
		record["is_text"] = true
	}
	if format.UsesHeader {
		record["uses_header"] = true
	}
	if format.Undocumented {
		record["undocumented"] = true
	}
	if format.Disabled {
		record["disabled"] = true
	}
	return record
}

func vocabRecord(vocab *dataservice.Vocab) map[string]interface{} {
	record := map[string]interface{}{
		"title": vocab.Title,
	}
	if vocab.DocNode != "" {
		record["doc_node"] = vocab.DocNode
	}
	if vocab.UseFieldNames {
		record["use_field_names"] = true
	}
	if vocab.Undocumented {
		record["undocumented"] = true
	}
	if vocab.Disabled {
		record["disabled"] = true
	}
	return record
}
