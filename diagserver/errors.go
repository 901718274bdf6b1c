// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package diagserver

import (
	"fmt"
	"net/http"
)

// statusError describes errors that know the HTTP status code they
// should be reported with.
type statusError interface {
	HTTPStatus() int
}

// UnknownDiagnostic is an error returned when the "show" parameter
// names a diagnostic this server does not provide.  The request
// fails; the server keeps running.
type UnknownDiagnostic struct {
	// Value holds the unrecognized "show" parameter value.
	Value string
}

func (err UnknownDiagnostic) Error() string {
	return fmt.Sprintf("unknown diagnostic %q", err.Value)
}

// HTTPStatus returns 400 Bad Request.
func (err UnknownDiagnostic) HTTPStatus() int {
	return http.StatusBadRequest
}

// NotFound is an error returned when a diagnostic names an entity
// that does not exist in the digest.
type NotFound struct {
	// Category holds the entity category, e.g. "node" or "block".
	Category string

	// Name holds the name that was asked for.
	Name string
}

func (err NotFound) Error() string {
	return fmt.Sprintf("no %s named %q", err.Category, err.Name)
}

// HTTPStatus returns 404 Not Found.
func (err NotFound) HTTPStatus() int {
	return http.StatusNotFound
}
