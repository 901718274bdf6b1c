// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package digest produces and manages configuration digests: fully
// dereferenced, serializable snapshots of a live dataservice
// configuration.  A digest is built once from a service, persisted
// as YAML, and later compared against another digest to produce a
// change report.  Digest files may contain several concatenated
// streams; Condense merges them into one.
package digest

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// FormatVersion is the value written to the _wds_version key of
// every digest this package produces.
const FormatVersion = "1.1"

// ErrNoDigest is returned when an input that should contain a digest
// is empty or is missing the minimal identity information.
var ErrNoDigest = errors.New("no digest present")

// Incompatible is returned from Condense when two digest streams
// cannot be merged because they disagree on identity.
type Incompatible struct {
	Field string
	Left  string
	Right string
}

func (err Incompatible) Error() string {
	return fmt.Sprintf("incompatible digests: %s %q vs %q",
		err.Field, err.Left, err.Right)
}

// DSRecord holds the service-level portion of a digest: the identity
// that ties the digest to one data service, plus the global format,
// vocabulary, and special-parameter tables.
type DSRecord struct {
	Name      string                            `yaml:"name"`
	Version   string                            `yaml:"version,omitempty"`
	Generated string                            `yaml:"generated,omitempty"`
	Attrs     map[string]string                 `yaml:"attrs,omitempty"`
	Special   map[string]string                 `yaml:"special,omitempty"`
	Format    map[string]map[string]interface{} `yaml:"format,omitempty"`
	Vocab     map[string]map[string]interface{} `yaml:"vocab,omitempty"`
}

// Digest is a flattened snapshot of one service configuration.  All
// of the maps are fully dereferenced copies; a digest never shares
// mutable structure with the live configuration it came from.
type Digest struct {
	DS         DSRecord                          `yaml:"ds"`
	Node       map[string]map[string]interface{} `yaml:"node,omitempty"`
	Block      map[string]map[string]interface{} `yaml:"block,omitempty"`
	Set        map[string]map[string]interface{} `yaml:"set,omitempty"`
	Ruleset    map[string]map[string]interface{} `yaml:"ruleset,omitempty"`
	Errors     map[string]string                 `yaml:"errors,omitempty"`
	WDSVersion string                            `yaml:"_wds_version"`
}

// New creates an empty digest with all category maps allocated.
func New() *Digest {
	return &Digest{
		Node:       make(map[string]map[string]interface{}),
		Block:      make(map[string]map[string]interface{}),
		Set:        make(map[string]map[string]interface{}),
		Ruleset:    make(map[string]map[string]interface{}),
		Errors:     make(map[string]string),
		WDSVersion: FormatVersion,
	}
}

// Valid reports whether the digest carries the minimal identity
// information required to work with it.
func (d *Digest) Valid() bool {
	return d != nil && d.DS.Name != ""
}

// AddError records a non-fatal problem found while building the
// digest, keyed by a context string describing where the problem was
// noticed.  An existing entry for the same context is kept.
func (d *Digest) AddError(context, message string) {
	if _, present := d.Errors[context]; !present {
		d.Errors[context] = message
	}
}

// Condense merges several digest streams, as read from one file,
// into a single digest.  All streams must name the same service; if
// two streams disagree on identity name, or both declare versions
// that differ, Condense fails with Incompatible.  A stream with no
// declared version merges with a warning.  Within each category,
// keys from later streams overwrite earlier ones, except the errors
// category, which only accumulates.
func Condense(streams []*Digest) (*Digest, error) {
	if len(streams) == 0 {
		return nil, ErrNoDigest
	}
	for _, stream := range streams {
		if !stream.Valid() {
			return nil, ErrNoDigest
		}
	}

	result := New()
	result.DS.Name = streams[0].DS.Name
	result.DS.Version = streams[0].DS.Version
	result.WDSVersion = streams[0].WDSVersion

	for _, stream := range streams {
		if stream.DS.Name != result.DS.Name {
			return nil, Incompatible{Field: "name",
				Left: result.DS.Name, Right: stream.DS.Name}
		}
		switch {
		case stream.DS.Version == "" || result.DS.Version == "":
			if stream.DS.Version != result.DS.Version {
				logrus.WithFields(logrus.Fields{
					"name": result.DS.Name,
				}).Warn("Merging digest streams with an undeclared version")
			}
			if result.DS.Version == "" {
				result.DS.Version = stream.DS.Version
			}
		case stream.DS.Version != result.DS.Version:
			return nil, Incompatible{Field: "version",
				Left: result.DS.Version, Right: stream.DS.Version}
		}

		if stream.DS.Generated != "" {
			result.DS.Generated = stream.DS.Generated
		}
		result.DS.Attrs = mergeStringMap(result.DS.Attrs, stream.DS.Attrs)
		result.DS.Special = mergeStringMap(result.DS.Special, stream.DS.Special)
		result.DS.Format = mergeRecordMap(result.DS.Format, stream.DS.Format)
		result.DS.Vocab = mergeRecordMap(result.DS.Vocab, stream.DS.Vocab)

		mergeCategory(result.Node, stream.Node)
		mergeCategory(result.Block, stream.Block)
		mergeCategory(result.Set, stream.Set)
		mergeCategory(result.Ruleset, stream.Ruleset)
		for context, message := range stream.Errors {
			result.AddError(context, message)
		}
	}
	return result, nil
}

func mergeCategory(into, from map[string]map[string]interface{}) {
	for key, record := range from {
		into[key] = record
	}
}

func mergeStringMap(into, from map[string]string) map[string]string {
	if len(from) == 0 {
		return into
	}
	if into == nil {
		into = make(map[string]string, len(from))
	}
	for key, value := range from {
		into[key] = value
	}
	return into
}

func mergeRecordMap(into, from map[string]map[string]interface{}) map[string]map[string]interface{} {
	if len(from) == 0 {
		return into
	}
	if into == nil {
		into = make(map[string]map[string]interface{}, len(from))
	}
	for key, record := range from {
		into[key] = record
	}
	return into
}
