// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package dataservice

import "sort"

// Node is one entry in the path tree.  It records the raw,
// directly-specified attribute values for its path; effective values
// come from Service.Resolve.  Nodes are immutable once defined.
type Node struct {
	service   *Service
	path      string
	attrs     map[string]interface{}
	definedAt string
}

// Path returns the node's path.
func (n *Node) Path() string { return n.path }

// DefinedAt returns the file:line of the DefineNode call that
// created this node, for use in error messages.
func (n *Node) DefinedAt() string { return n.definedAt }

// Attr returns the raw local value of one attribute, with no
// inheritance applied.  The second return is false if the attribute
// was never specified on this node; note that an attribute
// explicitly set to the empty string is present.
func (n *Node) Attr(key string) (interface{}, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

// AttrNames returns the names of the attributes directly specified
// on this node, in sorted order.
func (n *Node) AttrNames() []string {
	names := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the effective value of one attribute for this
// node's path.
func (n *Node) Resolve(key string) interface{} {
	return n.service.Resolve(n.path, key)
}
