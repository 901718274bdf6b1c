// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package store provides a standard way to construct a digest
// archive based on command-line flags.  An archive keeps named,
// versioned digest snapshots so a configuration can be diffed
// against its own history.
package store

import (
	"errors"
	"strings"

	"github.com/mmcclenn/go-dataservice/digest"
	"github.com/mmcclenn/go-dataservice/pgstore"
)

// Archive is a place digest snapshots can be kept and retrieved.
type Archive interface {
	// Save stores one digest snapshot.  The digest must be
	// valid; its identity name and version key the snapshot.
	Save(d *digest.Digest) error

	// Load retrieves the most recent snapshot with the given
	// identity name and version.
	Load(name, version string) (*digest.Digest, error)

	// LoadLatest retrieves the most recent snapshot with the
	// given identity name, whatever its version.
	LoadLatest(name string) (*digest.Digest, error)

	// Versions lists the distinct versions stored for an
	// identity name.
	Versions(name string) ([]string, error)
}

// Store describes user-visible parameters to keep digest snapshots.
// This implements the flag.Value interface, and so a typical use is
//
//	archive := store.Store{Implementation: "file", Address: "."}
//	flag.Var(&archive, "archive", "impl:address of digest archive")
//	flag.Parse()
//	a, err := archive.Archive()
type Store struct {
	// Implementation holds the name of the implementation;
	// "file" or "postgres".
	Implementation string

	// Address holds an implementation-specific address: a
	// directory for "file", a connection string for "postgres".
	Address string
}

// Archive creates the described archive.  For the "postgres"
// implementation this opens a connection pool, so it should be
// called once and the result shared.
func (s *Store) Archive() (Archive, error) {
	switch s.Implementation {
	case "file":
		return NewFileArchive(s.Address)
	case "postgres":
		return pgstore.New(s.Address)
	}
	return nil, errors.New("unknown digest archive " + s.Implementation)
}

// String renders a store description as a string.
func (s *Store) String() string {
	if s.Address == "" {
		return s.Implementation
	}
	return s.Implementation + ":" + s.Address
}

// Set parses a string of the form "implementation:address" into an
// existing store description, checking that the implementation is
// one of the known ones.
func (s *Store) Set(param string) error {
	parts := strings.SplitN(param, ":", 2)
	impl := parts[0]
	switch impl {
	case "file", "postgres":
	default:
		return errors.New("unknown digest archive " + impl)
	}
	s.Implementation = impl
	if len(parts) > 1 {
		s.Address = parts[1]
	} else {
		s.Address = ""
	}
	return nil
}
