// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package dataservice

import "sort"

// AttributeKind selects the composition rule an attribute uses when
// a node's local value meets an inherited one.
type AttributeKind int

const (
	// Scalar attributes override: a local value wins outright,
	// and an explicitly empty local value means "undefined, stop
	// inheriting".
	Scalar AttributeKind = iota

	// SetAttr attributes hold an unordered set of tokens.  A
	// local value whose tokens carry +/- signs edits the
	// inherited set; an unsigned local value replaces it.
	SetAttr

	// ListAttr attributes hold an ordered list of tokens.  Lists
	// never merge: the local list is used if present, otherwise
	// the inherited one.
	ListAttr

	// Hook attributes hold an ordered list of handler names.
	// They compose exactly like ListAttr.
	Hook

	// NonHeritable attributes never inherit; the effective value
	// is exactly the local value or undefined.
	NonHeritable
)

// String names an attribute kind for error messages and digests.
func (k AttributeKind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case SetAttr:
		return "set"
	case ListAttr:
		return "list"
	case Hook:
		return "hook"
	case NonHeritable:
		return "non-heritable"
	}
	return "unknown"
}

// Registry holds the attribute schema for node entities: which
// attribute names exist and what kind each one is.
type Registry struct {
	kinds map[string]AttributeKind
}

// NewRegistry creates an empty attribute registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]AttributeKind)}
}

// Add declares one attribute.  Redeclaring a name simply overwrites
// its kind; the registry is built once at startup and this is not
// worth an error path.
func (r *Registry) Add(name string, kind AttributeKind) {
	r.kinds[name] = kind
}

// Kind looks up the kind of an attribute name.
func (r *Registry) Kind(name string) (AttributeKind, bool) {
	k, ok := r.kinds[name]
	return k, ok
}

// Names returns every declared attribute name in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.kinds))
	for n := range r.kinds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// StandardNodeAttributes returns the built-in node attribute schema.
func StandardNodeAttributes() *Registry {
	r := NewRegistry()

	// Operation dispatch and file serving.
	r.Add("method", Scalar)
	r.Add("role", Scalar)
	r.Add("arg", Scalar)
	r.Add("file_path", Scalar)
	r.Add("file_dir", Scalar)
	r.Add("file_index", Scalar)

	// Parameter validation and output selection.
	r.Add("ruleset", Scalar)
	r.Add("output", ListAttr)
	r.Add("summary", ListAttr)
	r.Add("optional_output", ListAttr)
	r.Add("output_label", Scalar)

	// Response negotiation.
	r.Add("allow_method", SetAttr)
	r.Add("allow_format", SetAttr)
	r.Add("allow_vocab", SetAttr)
	r.Add("default_format", Scalar)
	r.Add("default_vocab", Scalar)
	r.Add("default_limit", Scalar)
	r.Add("default_header", Scalar)
	r.Add("public_access", Scalar)

	// Documentation.
	r.Add("doc_template", Scalar)
	r.Add("title", NonHeritable)
	r.Add("place", NonHeritable)
	r.Add("usage", NonHeritable)

	// Lifecycle hooks.
	r.Add("init_operation_hook", Hook)
	r.Add("post_configure_hook", Hook)

	return r
}
