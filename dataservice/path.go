// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package dataservice

import "strings"

// ParentOf computes the parent of a node path.  This is pure string
// manipulation: the parent is the path with its last /-delimited
// segment removed, the parent of any single-segment path is the root
// path "/", and the root itself has no parent (ok is false).
func ParentOf(path string) (parent string, ok bool) {
	if path == "/" {
		return "", false
	}
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "/", true
	}
	return path[:i], true
}

// hasPathPrefix reports whether path lies strictly below root in the
// path hierarchy.
func hasPathPrefix(path, root string) bool {
	return strings.HasPrefix(path, root+"/")
}

// validatePath checks a node path for the syntactic rules: the
// literal root "/" is fine, and anything else must be a non-empty
// relative path with no leading, trailing, or doubled slash and no
// URL metacharacters.
func validatePath(path string) (reason string, ok bool) {
	if path == "/" {
		return "", true
	}
	switch {
	case path == "":
		return "empty path", false
	case strings.HasPrefix(path, "/"):
		return "leading slash", false
	case strings.HasSuffix(path, "/"):
		return "trailing slash", false
	case strings.Contains(path, "//"):
		return "doubled slash", false
	case strings.ContainsAny(path, "?#"):
		return "path contains ? or #", false
	}
	return "", true
}
