// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package diff

import (
	"bytes"
	"fmt"
	"io"
	"sort"
)

// separator underlines each section header.
const separator = "=============================="

// Write renders the report as sectioned plain text.
func (r *Report) Write(w io.Writer) error {
	for i, section := range r.Sections {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := r.writeSection(w, section); err != nil {
			return err
		}
	}
	return nil
}

// String renders the report to a string.
func (r *Report) String() string {
	var buf bytes.Buffer
	// bytes.Buffer writes cannot fail.
	_ = r.Write(&buf)
	return buf.String()
}

func (r *Report) writeSection(w io.Writer, section Section) error {
	if _, err := fmt.Fprintf(w, "%s:\n%s\n", section.Title, separator); err != nil {
		return err
	}
	if len(section.Entries) == 0 {
		_, err := fmt.Fprintln(w, "No difference.")
		return err
	}
	for _, entry := range section.Entries {
		if err := r.writeEntry(w, entry); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) writeEntry(w io.Writer, entry Entry) error {
	switch entry.Kind {
	case LeftOnly:
		_, err := fmt.Fprintf(w, "%s %s%s\n", r.LeftMark, entry.Key, titleSuffix(entry.Title))
		return err
	case RightOnly:
		_, err := fmt.Fprintf(w, "%s %s%s\n", r.RightMark, entry.Key, titleSuffix(entry.Title))
		return err
	}

	if _, err := fmt.Fprintf(w, "!!! %s\n", entry.Key); err != nil {
		return err
	}
	for _, attr := range entry.Attrs {
		if _, err := fmt.Fprintf(w, "    %s : %s | %s\n",
			attr.Attr, attr.Left, attr.Right); err != nil {
			return err
		}
	}
	if Changed(entry.Params) {
		if err := r.writeScript(w, "parameters", entry.Params); err != nil {
			return err
		}
	}
	if Changed(entry.Blocks) {
		if err := r.writeScript(w, "blocks", entry.Blocks); err != nil {
			return err
		}
	}
	blockNames := make([]string, 0, len(entry.Fields))
	for name := range entry.Fields {
		blockNames = append(blockNames, name)
	}
	sort.Strings(blockNames)
	for _, name := range blockNames {
		label := fmt.Sprintf("fields (%s)", name)
		if err := r.writeScript(w, label, entry.Fields[name]); err != nil {
			return err
		}
	}
	return nil
}

// writeScript renders one edit script, further indented under its
// entry with its own left/right markers.  Unchanged elements are not
// listed.
func (r *Report) writeScript(w io.Writer, label string, script []EditOp) error {
	if _, err := fmt.Fprintf(w, "    %s:\n", label); err != nil {
		return err
	}
	for _, op := range script {
		var err error
		switch op.Kind {
		case OpDelete:
			_, err = fmt.Fprintf(w, "      %s %s\n", r.LeftMark, op.Left)
		case OpInsert:
			_, err = fmt.Fprintf(w, "      %s %s\n", r.RightMark, op.Right)
		case OpReplace:
			_, err = fmt.Fprintf(w, "      !!! %s | %s\n", op.Left, op.Right)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func titleSuffix(title string) string {
	if title == "" {
		return ""
	}
	return fmt.Sprintf(" '%s'", title)
}
