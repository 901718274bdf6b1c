// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package dataservice

import (
	"errors"
	"fmt"
)

// ErrFrozen is returned from every Define call made after Freeze().
var ErrFrozen = errors.New("Service configuration is frozen")

// DuplicatePath is returned from DefineNode when the path has
// already been defined.  It carries the source location of the
// earlier definition so the configuration author can find it.
type DuplicatePath struct {
	Path      string
	DefinedAt string
}

func (err DuplicatePath) Error() string {
	if err.DefinedAt == "" {
		return fmt.Sprintf("node path %q is already defined", err.Path)
	}
	return fmt.Sprintf("node path %q is already defined (at %s)", err.Path, err.DefinedAt)
}

// InvalidPath is returned from DefineNode when the path string is
// malformed, or when its parent path has not been defined yet.
type InvalidPath struct {
	Path   string
	Reason string
}

func (err InvalidPath) Error() string {
	return fmt.Sprintf("invalid node path %q: %s", err.Path, err.Reason)
}

// UnknownAttribute is returned from DefineNode when an attribute key
// does not appear in the attribute registry.
type UnknownAttribute struct {
	Path string
	Key  string
}

func (err UnknownAttribute) Error() string {
	return fmt.Sprintf("node %q: unknown attribute %q", err.Path, err.Key)
}

// BadAttributeValue is returned from DefineNode when an attribute
// value has a type the attribute's kind cannot accept.
type BadAttributeValue struct {
	Path string
	Key  string
}

func (err BadAttributeValue) Error() string {
	return fmt.Sprintf("node %q: attribute %q has an unusable value type", err.Path, err.Key)
}

// StructuralConflict is returned from DefineNode when the attributes
// are individually valid but mutually inconsistent; for instance,
// when a node names both an operation method and a file path.
type StructuralConflict struct {
	Path   string
	Reason string
}

func (err StructuralConflict) Error() string {
	return fmt.Sprintf("node %q: %s", err.Path, err.Reason)
}

// DuplicateName is returned from the non-node Define calls when the
// entity name has already been used within its category.
type DuplicateName struct {
	Category string
	Name     string
}

func (err DuplicateName) Error() string {
	return fmt.Sprintf("%s %q is already defined", err.Category, err.Name)
}

// BadRule is returned from DefineRuleset when a rule does not have
// exactly one of its Param, Allow, or Require fields set.
type BadRule struct {
	Ruleset string
	Index   int
}

func (err BadRule) Error() string {
	return fmt.Sprintf("ruleset %q: rule %d must set exactly one of param, allow, require",
		err.Ruleset, err.Index)
}
