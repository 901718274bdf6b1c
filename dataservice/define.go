// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package dataservice

import (
	"fmt"
	"runtime"
	"strings"
)

// DefineNode declares one node at the given path.  Except for the
// root path "/", the parent path must already have been defined.
// The attribute map may hold string values for scalar, set, list,
// and non-heritable attributes, and string or []string values for
// list and hook attributes.
//
// DefineNode fails with DuplicatePath, InvalidPath,
// UnknownAttribute, BadAttributeValue, or StructuralConflict; all of
// these are configuration authoring bugs and none is recoverable.
func (s *Service) DefineNode(path string, attrs map[string]interface{}) (*Node, error) {
	if s.frozen {
		return nil, ErrFrozen
	}
	if reason, ok := validatePath(path); !ok {
		return nil, InvalidPath{Path: path, Reason: reason}
	}
	if earlier, present := s.nodes[path]; present {
		return nil, DuplicatePath{Path: path, DefinedAt: earlier.definedAt}
	}
	if parent, hasParent := ParentOf(path); hasParent {
		if _, present := s.nodes[parent]; !present {
			return nil, InvalidPath{Path: path,
				Reason: fmt.Sprintf("parent path %q is not defined", parent)}
		}
	}

	node := &Node{
		service:   s,
		path:      path,
		attrs:     make(map[string]interface{}, len(attrs)),
		definedAt: callerLocation(),
	}
	for key, value := range attrs {
		kind, known := s.registry.Kind(key)
		if !known {
			return nil, UnknownAttribute{Path: path, Key: key}
		}
		normalized, ok := normalizeAttrValue(kind, value)
		if !ok {
			return nil, BadAttributeValue{Path: path, Key: key}
		}
		node.attrs[key] = normalized
	}

	if err := s.checkStructure(node); err != nil {
		return nil, err
	}

	s.nodes[path] = node
	s.nodeOrder = append(s.nodeOrder, path)
	return node, nil
}

// RegisterRole installs the operation table for a handler role.  A
// node whose "role" attribute names this role may use any of the
// method names in the table as its "method" attribute.  Roles must
// be registered before the nodes that refer to them.
func (s *Service) RegisterRole(name string, ops map[string]OperationFunc) error {
	if s.frozen {
		return ErrFrozen
	}
	if _, present := s.roles[name]; present {
		return DuplicateName{Category: "role", Name: name}
	}
	s.roles[name] = ops
	return nil
}

// normalizeAttrValue checks an attribute value against its kind and
// puts it in canonical raw form: a string, or a []string for list
// and hook attributes given as slices.
func normalizeAttrValue(kind AttributeKind, value interface{}) (interface{}, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []string:
		if kind == ListAttr || kind == Hook {
			return append([]string(nil), v...), true
		}
	}
	return nil, false
}

// checkStructure enforces the cross-attribute consistency rules on a
// node about to be added to the tree.
func (s *Service) checkStructure(node *Node) error {
	path := node.path

	var disposition []string
	for _, key := range []string{"method", "file_path", "file_dir"} {
		if v, present := node.attrs[key]; present && v != "" {
			disposition = append(disposition, key)
		}
	}
	if len(disposition) > 1 {
		return StructuralConflict{Path: path,
			Reason: "more than one of method, file_path, file_dir is set: " +
				strings.Join(disposition, ", ")}
	}

	if _, present := node.attrs["file_index"]; present {
		if s.rawLookup(node, "file_dir") == "" {
			return StructuralConflict{Path: path,
				Reason: "file_index requires file_dir"}
		}
	}

	method := s.rawLookup(node, "method")
	if _, present := node.attrs["arg"]; present && method == "" {
		return StructuralConflict{Path: path,
			Reason: "arg requires an operation method"}
	}

	if method != "" {
		role := s.rawLookup(node, "role")
		if role == "" {
			return StructuralConflict{Path: path,
				Reason: fmt.Sprintf("method %q has no role to dispatch to", method)}
		}
		ops, known := s.roles[role]
		if !known {
			return StructuralConflict{Path: path,
				Reason: fmt.Sprintf("role %q is not registered", role)}
		}
		if _, implemented := ops[method]; !implemented {
			return StructuralConflict{Path: path,
				Reason: fmt.Sprintf("role %q does not implement method %q", role, method)}
		}
	}

	if err := s.checkAllowTokens(node, "allow_format", s.formats); err != nil {
		return err
	}
	if err := s.checkAllowVocabTokens(node); err != nil {
		return err
	}

	return nil
}

// checkAllowTokens verifies that every token added by an
// allow_format value names a defined format.  Tokens removed with a
// "-" sign are not checked; removing something that was never
// allowed is harmless.
func (s *Service) checkAllowTokens(node *Node, key string, formats map[string]*Format) error {
	raw, present := node.attrs[key]
	str, _ := raw.(string)
	if !present || str == "" {
		return nil
	}
	for _, token := range splitTokens(str) {
		name, sign := splitSign(token)
		if sign == '-' {
			continue
		}
		if _, known := formats[name]; !known {
			return StructuralConflict{Path: node.path,
				Reason: fmt.Sprintf("%s names undefined format %q", key, name)}
		}
	}
	return nil
}

func (s *Service) checkAllowVocabTokens(node *Node) error {
	raw, present := node.attrs["allow_vocab"]
	str, _ := raw.(string)
	if !present || str == "" {
		return nil
	}
	for _, token := range splitTokens(str) {
		name, sign := splitSign(token)
		if sign == '-' {
			continue
		}
		if _, known := s.vocabs[name]; !known {
			return StructuralConflict{Path: node.path,
				Reason: fmt.Sprintf("allow_vocab names undefined vocabulary %q", name)}
		}
	}
	return nil
}

// rawLookup finds the first raw string value for key on node or any
// of its ancestors.  This runs at definition time, before the
// resolver cache may be used, and applies no composition rules; it
// is only good enough for the structural checks, which all involve
// scalar attributes.  An explicitly empty value stops the walk.
func (s *Service) rawLookup(node *Node, key string) string {
	current := node
	for {
		if v, present := current.attrs[key]; present {
			str, _ := v.(string)
			return str
		}
		parent, hasParent := ParentOf(current.path)
		if !hasParent {
			return ""
		}
		next, present := s.nodes[parent]
		if !present {
			return ""
		}
		current = next
	}
}

// callerLocation reports the file:line of the caller's caller, which
// is the application code invoking DefineNode.
func callerLocation() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return ""
	}
	if i := strings.LastIndex(file, "/"); i >= 0 {
		file = file[i+1:]
	}
	return fmt.Sprintf("%s:%d", file, line)
}
