// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package dataservice

// This file is the attribute resolver: the algorithm that turns the
// raw values scattered along a path's inheritance chain into one
// effective value, and the memoization cache in front of it.

import (
	"sort"
	"strings"
)

// StringSet is the effective value of a set-kind attribute.
type StringSet map[string]bool

// Contains reports membership.
func (ss StringSet) Contains(token string) bool {
	return ss[token]
}

// Sorted returns the set's members in sorted order, which is the
// form the digest builder records.
func (ss StringSet) Sorted() []string {
	out := make([]string, 0, len(ss))
	for token := range ss {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

type cacheKey struct {
	path string
	key  string
}

// Resolve computes the effective value of one attribute for one node
// path.  The result is a string for scalar and non-heritable
// attributes, a StringSet for set attributes, a []string for list
// and hook attributes, or nil for "undefined".
//
// Results are memoized unconditionally: the first answer for a
// (path, key) pair is the answer for the life of the service, nil
// included.  Unknown attribute keys resolve to nil rather than
// failing, because documentation code probes optional attributes
// freely.
func (s *Service) Resolve(path, key string) interface{} {
	ck := cacheKey{path: path, key: key}

	s.cacheLock.RLock()
	value, cached := s.cache[ck]
	s.cacheLock.RUnlock()
	if cached {
		return value
	}

	value = s.resolveUncached(path, key)

	s.cacheLock.Lock()
	s.cache[ck] = value
	s.cacheLock.Unlock()
	return value
}

// ResolveRequest is a convenience overload of Resolve for callers
// holding a request object: it resolves against the request's node
// path, or the root path if the request does not carry one.
func (s *Service) ResolveRequest(req *Request, key string) interface{} {
	path := "/"
	if req != nil && req.NodePath != "" {
		path = req.NodePath
	}
	return s.Resolve(path, key)
}

func (s *Service) resolveUncached(path, key string) interface{} {
	kind, known := s.registry.Kind(key)
	if !known {
		return nil
	}

	var raw interface{}
	var present bool
	if node, defined := s.nodes[path]; defined {
		raw, present = node.attrs[key]
	}

	if kind == NonHeritable {
		if !present {
			return nil
		}
		if str, isString := raw.(string); isString {
			if str == "" {
				return nil
			}
			return str
		}
		return raw
	}

	// An explicitly empty local value means "stop inheriting, the
	// effective value is undefined".  This is different from the
	// attribute never having been specified at all.
	if present {
		if str, isString := raw.(string); isString && str == "" {
			return nil
		}
	}

	switch kind {
	case Scalar:
		if present {
			return raw
		}
		return s.inherited(path, key, kind)

	case SetAttr:
		var tokens []string
		if present {
			tokens = splitTokens(raw.(string))
		}
		if present && !anySigned(tokens) {
			// No +/- signs: the local set replaces the
			// inherited one entirely.
			result := make(StringSet, len(tokens))
			for _, token := range tokens {
				result[token] = true
			}
			return result
		}
		base := s.inherited(path, key, kind)
		if !present {
			return base
		}
		result := make(StringSet)
		if baseSet, isSet := base.(StringSet); isSet {
			for token := range baseSet {
				result[token] = true
			}
		}
		for _, token := range tokens {
			name, sign := splitSign(token)
			if sign == '-' {
				delete(result, name)
			} else {
				result[name] = true
			}
		}
		return result

	case ListAttr, Hook:
		if present {
			return rawList(raw)
		}
		return s.inherited(path, key, kind)
	}

	return nil
}

// inherited resolves the parent's effective value for key, or falls
// back at the root to the external configuration lookup and then the
// built-in defaults.
func (s *Service) inherited(path, key string, kind AttributeKind) interface{} {
	if parent, hasParent := ParentOf(path); hasParent {
		return s.Resolve(parent, key)
	}
	if s.configValue != nil {
		if v := s.configValue(key); v != nil {
			return coerceConfigValue(kind, v)
		}
	}
	return s.builtinDefault(key)
}

// builtinDefault supplies the framework defaults that apply when
// neither the tree nor the external configuration has an answer.
func (s *Service) builtinDefault(key string) interface{} {
	switch key {
	case "allow_method":
		return StringSet{"GET": true, "HEAD": true}
	case "allow_format":
		return namesAsSet(s.formatOrder)
	case "allow_vocab":
		return namesAsSet(s.vocabOrder)
	}
	return nil
}

// coerceConfigValue converts an externally-supplied configuration
// value into the effective-value type for the attribute kind.
func coerceConfigValue(kind AttributeKind, v interface{}) interface{} {
	str, isString := v.(string)
	if !isString {
		return v
	}
	switch kind {
	case SetAttr:
		result := make(StringSet)
		for _, token := range splitTokens(str) {
			name, _ := splitSign(token)
			result[name] = true
		}
		return result
	case ListAttr, Hook:
		return splitTokens(str)
	}
	return str
}

func namesAsSet(names []string) StringSet {
	if len(names) == 0 {
		return nil
	}
	result := make(StringSet, len(names))
	for _, name := range names {
		result[name] = true
	}
	return result
}

// splitTokens breaks a comma-separated raw value into trimmed,
// non-empty tokens.
func splitTokens(raw string) []string {
	var tokens []string
	for _, piece := range strings.Split(raw, ",") {
		piece = strings.TrimSpace(piece)
		if piece != "" {
			tokens = append(tokens, piece)
		}
	}
	return tokens
}

// splitSign strips an optional leading + or - from a token,
// returning the bare token and the sign (0 if unsigned).
func splitSign(token string) (string, byte) {
	if len(token) > 0 && (token[0] == '+' || token[0] == '-') {
		return token[1:], token[0]
	}
	return token, 0
}

// anySigned reports whether any token carries a + or - prefix.
func anySigned(tokens []string) bool {
	for _, token := range tokens {
		if _, sign := splitSign(token); sign != 0 {
			return true
		}
	}
	return false
}

// rawList converts a raw list or hook value into a fresh []string.
func rawList(raw interface{}) []string {
	switch v := raw.(type) {
	case string:
		return splitTokens(v)
	case []string:
		return append([]string(nil), v...)
	}
	return nil
}

func replaceSlashes(path string) string {
	return strings.Replace(path, "/", ":", -1)
}
