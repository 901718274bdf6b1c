// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package dataservice

// This file holds the named entities a node can refer to: response
// formats, vocabularies, output blocks, value sets, parameter
// rulesets, and the special-parameter table.  Definitions arrive as
// loosely-typed maps, the way configuration files deliver them, and
// are decoded into typed records with mapstructure.

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Format describes one response serialization format.
type Format struct {
	Name         string `mapstructure:"name"`
	ContentType  string `mapstructure:"content_type"`
	DefaultVocab string `mapstructure:"default_vocab"`
	Disposition  string `mapstructure:"disposition"`
	DocNode      string `mapstructure:"doc_node"`
	Module       string `mapstructure:"module"`
	Title        string `mapstructure:"title"`
	IsText       bool   `mapstructure:"is_text"`
	UsesHeader   bool   `mapstructure:"uses_header"`
	Undocumented bool   `mapstructure:"undocumented"`
	Disabled     bool   `mapstructure:"disabled"`
}

// Vocab describes one field-name vocabulary.
type Vocab struct {
	Name          string `mapstructure:"name"`
	Title         string `mapstructure:"title"`
	DocNode       string `mapstructure:"doc_node"`
	UseFieldNames bool   `mapstructure:"use_field_names"`
	Undocumented  bool   `mapstructure:"undocumented"`
	Disabled      bool   `mapstructure:"disabled"`
}

// Field describes one output field within a block.
type Field struct {
	Name  string `mapstructure:"name"`
	Vocab string `mapstructure:"vocab"`
	Doc   string `mapstructure:"doc"`
}

// Block is a named, ordered list of output fields.
type Block struct {
	Name   string
	Fields []Field
}

// FieldNames returns the block's field names in order.
func (b *Block) FieldNames() []string {
	names := make([]string, len(b.Fields))
	for i, f := range b.Fields {
		names[i] = f.Name
	}
	return names
}

// SetValue is one permitted token in a value set.
type SetValue struct {
	Value        string `mapstructure:"value"`
	MapsTo       string `mapstructure:"maps_to"`
	Disabled     bool   `mapstructure:"disabled"`
	Undocumented bool   `mapstructure:"undocumented"`
}

// ValueSet is a named, ordered collection of permitted token values.
// Tokens may map to another value; the digest builder follows
// maps_to targets that name output blocks.
type ValueSet struct {
	Name   string
	Values []SetValue
}

// Rule is one entry in a parameter ruleset.  Exactly one of Param,
// Allow, or Require is set: a parameter rule, an optional inclusion
// of another ruleset by name, or a mandatory one.  Inclusions are
// always by name, never by reference, so a ruleset can be serialized
// without any symbol-table digging.
type Rule struct {
	Param     string `mapstructure:"param"`
	Validator string `mapstructure:"valid"`
	Allow     string `mapstructure:"allow"`
	Require   string `mapstructure:"require"`
}

// Ruleset is a named, ordered list of parameter-validation rules.
type Ruleset struct {
	Name  string
	Rules []Rule
}

// DefineFormat declares a response format from a loosely-typed
// definition map.
func (s *Service) DefineFormat(name string, def map[string]interface{}) (*Format, error) {
	if s.frozen {
		return nil, ErrFrozen
	}
	if _, present := s.formats[name]; present {
		return nil, DuplicateName{Category: "format", Name: name}
	}
	format := &Format{}
	if err := decodeEntity(def, format); err != nil {
		return nil, fmt.Errorf("format %q: %v", name, err)
	}
	format.Name = name
	s.formats[name] = format
	s.formatOrder = append(s.formatOrder, name)
	return format, nil
}

// DefineVocab declares a vocabulary from a loosely-typed definition
// map.
func (s *Service) DefineVocab(name string, def map[string]interface{}) (*Vocab, error) {
	if s.frozen {
		return nil, ErrFrozen
	}
	if _, present := s.vocabs[name]; present {
		return nil, DuplicateName{Category: "vocab", Name: name}
	}
	vocab := &Vocab{}
	if err := decodeEntity(def, vocab); err != nil {
		return nil, fmt.Errorf("vocab %q: %v", name, err)
	}
	vocab.Name = name
	s.vocabs[name] = vocab
	s.vocabOrder = append(s.vocabOrder, name)
	return vocab, nil
}

// DefineBlock declares an output block.  Each field definition is a
// loosely-typed map with at least a "name" key.
func (s *Service) DefineBlock(name string, fieldDefs ...map[string]interface{}) (*Block, error) {
	if s.frozen {
		return nil, ErrFrozen
	}
	if _, present := s.blocks[name]; present {
		return nil, DuplicateName{Category: "block", Name: name}
	}
	block := &Block{Name: name}
	for i, def := range fieldDefs {
		field := Field{}
		if err := decodeEntity(def, &field); err != nil {
			return nil, fmt.Errorf("block %q: field %d: %v", name, i, err)
		}
		if field.Name == "" {
			return nil, fmt.Errorf("block %q: field %d has no name", name, i)
		}
		block.Fields = append(block.Fields, field)
	}
	s.blocks[name] = block
	return block, nil
}

// DefineSet declares a value set.  Each value definition is a
// loosely-typed map with at least a "value" key.
func (s *Service) DefineSet(name string, valueDefs ...map[string]interface{}) (*ValueSet, error) {
	if s.frozen {
		return nil, ErrFrozen
	}
	if _, present := s.sets[name]; present {
		return nil, DuplicateName{Category: "set", Name: name}
	}
	set := &ValueSet{Name: name}
	for i, def := range valueDefs {
		value := SetValue{}
		if err := decodeEntity(def, &value); err != nil {
			return nil, fmt.Errorf("set %q: value %d: %v", name, i, err)
		}
		if value.Value == "" {
			return nil, fmt.Errorf("set %q: value %d has no token", name, i)
		}
		set.Values = append(set.Values, value)
	}
	s.sets[name] = set
	return set, nil
}

// DefineRuleset declares a parameter ruleset.  Rule validity is
// checked here; whether an included ruleset actually exists is not,
// since rulesets may be defined in any order and dangling inclusions
// are reported by the digest builder instead.
func (s *Service) DefineRuleset(name string, rules ...Rule) (*Ruleset, error) {
	if s.frozen {
		return nil, ErrFrozen
	}
	if _, present := s.rulesets[name]; present {
		return nil, DuplicateName{Category: "ruleset", Name: name}
	}
	for i, rule := range rules {
		count := 0
		if rule.Param != "" {
			count++
		}
		if rule.Allow != "" {
			count++
		}
		if rule.Require != "" {
			count++
		}
		if count != 1 {
			return nil, BadRule{Ruleset: name, Index: i}
		}
	}
	ruleset := &Ruleset{Name: name, Rules: append([]Rule(nil), rules...)}
	s.rulesets[name] = ruleset
	return ruleset, nil
}

// DefineSpecial declares one special parameter: a framework-level
// parameter (limit, offset, vocabulary selection, and so on) exposed
// under a service-local name.
func (s *Service) DefineSpecial(token, localName string) error {
	if s.frozen {
		return ErrFrozen
	}
	if _, present := s.specials[token]; present {
		return DuplicateName{Category: "special", Name: token}
	}
	s.specials[token] = localName
	return nil
}

// RulesetName computes the effective ruleset name for a node path:
// the node's resolved "ruleset" attribute if set, otherwise the path
// with every "/" replaced by ":" behind the configured prefix.
func (s *Service) RulesetName(path string) string {
	if v := s.Resolve(path, "ruleset"); v != nil {
		if str, ok := v.(string); ok && str != "" {
			return str
		}
	}
	if path == "/" {
		return ""
	}
	return s.rulesetPrefix + replaceSlashes(path)
}

func decodeEntity(def map[string]interface{}, out interface{}) error {
	config := mapstructure.DecoderConfig{Result: out}
	decoder, err := mapstructure.NewDecoder(&config)
	if err != nil {
		return err
	}
	return decoder.Decode(def)
}
