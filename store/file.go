// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package store

import (
	"encoding/base64"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mmcclenn/go-dataservice/digest"
)

// FileArchive keeps digest snapshots as YAML files in one directory.
// Each snapshot is a file named <name>-<version>-<n>.yaml, where n
// is a counter distinguishing repeated saves of the same version.
type FileArchive struct {
	dir string
}

// NewFileArchive opens (creating if needed) a directory-backed
// archive.  An empty address means the current directory.
func NewFileArchive(dir string) (*FileArchive, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return nil, err
	}
	return &FileArchive{dir: dir}, nil
}

// Save stores one digest snapshot.
func (fa *FileArchive) Save(d *digest.Digest) error {
	if !d.Valid() {
		return digest.ErrNoDigest
	}
	prefix := snapshotPrefix(d.DS.Name, d.DS.Version)
	existing, err := fa.matching(prefix)
	if err != nil {
		return err
	}
	filename := filepath.Join(fa.dir,
		fmt.Sprintf("%s%06d.yaml", prefix, len(existing)+1))
	return digest.Save(filename, d)
}

// Load retrieves the most recent snapshot for a name and version.
func (fa *FileArchive) Load(name, version string) (*digest.Digest, error) {
	return fa.newest(snapshotPrefix(name, version))
}

// LoadLatest retrieves the most recent snapshot for a name,
// whatever its version.
func (fa *FileArchive) LoadLatest(name string) (*digest.Digest, error) {
	return fa.newest(encodePart(name) + "-")
}

// Versions lists the distinct versions stored for a name.
func (fa *FileArchive) Versions(name string) ([]string, error) {
	files, err := fa.matching(encodePart(name) + "-")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var versions []string
	for _, file := range files {
		rest := strings.TrimPrefix(file, encodePart(name)+"-")
		// rest is <version>-<n>.yaml
		i := strings.LastIndex(rest, "-")
		if i < 0 {
			continue
		}
		version, err := decodePart(rest[:i])
		if err != nil {
			continue
		}
		if !seen[version] {
			seen[version] = true
			versions = append(versions, version)
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// newest loads the lexically last snapshot file with a prefix, which
// is the most recently saved one because of the counter suffix.
func (fa *FileArchive) newest(prefix string) (*digest.Digest, error) {
	files, err := fa.matching(prefix)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, digest.ErrNoDigest
	}
	sort.Strings(files)
	return digest.Load(filepath.Join(fa.dir, files[len(files)-1]))
}

func (fa *FileArchive) matching(prefix string) ([]string, error) {
	entries, err := ioutil.ReadDir(fa.dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, prefix) &&
			strings.HasSuffix(name, ".yaml") {
			files = append(files, name)
		}
	}
	return files, nil
}

func snapshotPrefix(name, version string) string {
	return encodePart(name) + "-" + encodePart(version) + "-"
}

// encodePart makes an identity component safe for use in a file
// name.  Anything outside the unreserved character set is base64
// encoded with a leading "." marker.
func encodePart(part string) string {
	safe := part != ""
	for _, c := range part {
		switch {
		case c == '_', c == '.',
			(c >= 'a' && c <= 'z'),
			(c >= 'A' && c <= 'Z'),
			(c >= '0' && c <= '9'):
			continue
		default:
			safe = false
		}
	}
	if safe && !strings.HasPrefix(part, ".") {
		return part
	}
	return "." + base64.RawURLEncoding.EncodeToString([]byte(part))
}

func decodePart(part string) (string, error) {
	if !strings.HasPrefix(part, ".") {
		return part, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(part[1:])
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
