// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package digest

import (
	"bytes"
	"io"
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

// Marshal serializes one digest as a YAML document.
func Marshal(d *Digest) ([]byte, error) {
	return yaml.Marshal(d)
}

// MarshalStreams serializes several digests as concatenated YAML
// documents separated by "---" markers, the on-disk digest file
// format.
func MarshalStreams(streams []*Digest) ([]byte, error) {
	var buf bytes.Buffer
	for i, stream := range streams {
		if i > 0 {
			buf.WriteString("---\n")
		}
		data, err := yaml.Marshal(stream)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}

// UnmarshalStreams reads every YAML document out of a digest file's
// contents.  An input with no documents at all yields ErrNoDigest.
func UnmarshalStreams(data []byte) ([]*Digest, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	var streams []*Digest
	for {
		stream := New()
		err := decoder.Decode(stream)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		streams = append(streams, stream)
	}
	if len(streams) == 0 {
		return nil, ErrNoDigest
	}
	return streams, nil
}

// Load reads a digest file and condenses its streams into a single
// digest.  This is a plain synchronous read; callers wanting to load
// several files concurrently can do so themselves.
func Load(filename string) (*Digest, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	streams, err := UnmarshalStreams(data)
	if err != nil {
		return nil, err
	}
	return Condense(streams)
}

// Save writes one digest to a file.
func Save(filename string, d *Digest) error {
	data, err := Marshal(d)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(filename, data, 0666)
}
