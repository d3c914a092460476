// Package fdf accumulates form-field assignments and serializes them as an
// FDF 1.4 document for PDF form filling.
package fdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

const version = "1.4"

// Checkbox values understood by the receipt forms.
const (
	CheckboxOn  = "Oui"
	CheckboxOff = "Off"
)

// ErrClosed is returned by Err once an entry was added after Close.
var ErrClosed = errors.New("fdf: buffer is closed")

// EntryKind distinguishes checkbox and text assignments.
type EntryKind int

const (
	Text EntryKind = iota
	Checkbox
)

func (k EntryKind) String() string {
	if k == Checkbox {
		return "checkbox"
	}
	return "text"
}

// Entry is one field assignment. Value is already sanitized for text entries.
type Entry struct {
	Tag   string    `json:"tag"`
	Value string    `json:"value"`
	Kind  EntryKind `json:"-"`
}

// Line renders the entry the way it appears inside /Fields.
func (e Entry) Line() string {
	return "<</V(" + e.Value + ")/T(" + e.Tag + ")>>"
}

// Buffer is an ordered list of field assignments framed by the FDF header
// and footer. Entries keep insertion order.
type Buffer struct {
	filename string
	opened   bool
	closed   bool
	entries  []Entry
	err      error
}

// NewBuffer returns an empty buffer. Call Open before adding entries.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Open starts the document. filename is written to /F and /UF unchanged.
func (b *Buffer) Open(filename string) {
	b.filename = filename
	b.opened = true
	b.closed = false
	b.entries = nil
	b.err = nil
}

// AddCheckbox appends a checkbox entry set to Oui or Off.
func (b *Buffer) AddCheckbox(checked bool, tag string) {
	value := CheckboxOff
	if checked {
		value = CheckboxOn
	}
	b.add(Entry{Tag: tag, Value: value, Kind: Checkbox})
}

// AddText appends a sanitized text entry. Empty values or tags are ignored.
func (b *Buffer) AddText(value, tag string) {
	if value == "" || tag == "" {
		return
	}
	b.add(Entry{Tag: tag, Value: Sanitize(value), Kind: Text})
}

func (b *Buffer) add(e Entry) {
	if b.closed {
		if b.err == nil {
			b.err = fmt.Errorf("%w: cannot add %q", ErrClosed, e.Tag)
		}
		return
	}
	b.entries = append(b.entries, e)
}

// Close appends the footer. The buffer is read-only afterwards.
func (b *Buffer) Close() {
	b.closed = true
}

// Closed reports whether Close was called.
func (b *Buffer) Closed() bool {
	return b.closed
}

// Err returns the first write attempted after Close, if any.
func (b *Buffer) Err() error {
	return b.err
}

// Filename returns the name given to Open.
func (b *Buffer) Filename() string {
	return b.filename
}

// Entries returns a copy of the assignments in insertion order.
func (b *Buffer) Entries() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of entries.
func (b *Buffer) Len() int {
	return len(b.entries)
}

// Lines returns the document line by line: header when opened, entries,
// footer when closed.
func (b *Buffer) Lines() []string {
	lines := make([]string, 0, len(b.entries)+13)
	if b.opened {
		lines = append(lines,
			"%FDF-"+version,
			"%âãÏÓ",
			"1 0 obj",
			"<</FDF<<",
			"/F ("+b.filename+")",
			"/UF ("+b.filename+")",
			"/Type /Catalog",
			"/Fields[",
		)
	}
	for _, e := range b.entries {
		lines = append(lines, e.Line())
	}
	if b.closed {
		lines = append(lines,
			"]>>>>",
			"endobj",
			"trailer",
			"<</Root 1 0 R>>",
			"%%EOF",
		)
	}
	return lines
}

// String returns the document as UTF-8 text.
func (b *Buffer) String() string {
	var sb strings.Builder
	for _, line := range b.Lines() {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// WriteTo writes the document encoded as ISO-8859-1, one line per entry.
// Characters outside Latin-1 (only possible in tags or the file name) are
// replaced by the charset's substitute byte.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	enc := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())
	var total int64
	for _, line := range b.Lines() {
		encoded, err := enc.Bytes([]byte(line + "\n"))
		if err != nil {
			return total, fmt.Errorf("failed to encode FDF line: %w", err)
		}
		n, err := w.Write(encoded)
		total += int64(n)
		if err != nil {
			return total, fmt.Errorf("failed to write FDF line: %w", err)
		}
	}
	return total, nil
}

// Bytes returns the ISO-8859-1 encoded document.
func (b *Buffer) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := b.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes the encoded document to path, replacing any existing file.
func (b *Buffer) WriteFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create FDF file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close FDF file: %w", cerr)
		}
	}()

	if _, err = b.WriteTo(f); err != nil {
		return err
	}
	return nil
}
