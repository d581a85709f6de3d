// Package document provides the accumulated document a workflow builds up as
// the user moves through its steps.
//
// A [Document] maps section names (e.g. "organization", "brand", "candidates")
// to section values. The set of section names is fixed when the document is
// created with [New] and never grows or shrinks afterwards.
//
// Documents are immutable values: [Document.UpdateSection] returns a new
// Document and leaves the receiver untouched, so callers can rely on identity
// comparison ([Document.Version]) for change detection.
//
// Section values are either objects (map[string]any), which are updated by
// shallow merge, or any other value (lists, scalars), which are replaced.
// Values are copied on the way in and on the way out. Maps, []any and
// []string are copied recursively; other list types implement [Cloner].
package document

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync/atomic"
)

// ErrUnknownSection is returned when a section name is not part of the
// document's fixed section set. It indicates a caller bug, not user input.
var ErrUnknownSection = errors.New("unknown document section")

// Cloner is implemented by section values that know how to copy themselves,
// such as typed record lists.
type Cloner interface {
	CloneSection() any
}

// versions hands out document versions; every document value gets its own.
var versions atomic.Uint64

// Document is an immutable mapping from section name to section value.
//
// The zero value is an empty document with no sections. Use [New] to create
// a document with its section defaults.
type Document struct {
	sections map[string]any
	version  uint64
}

// New creates a [Document] whose section set is the key set of defaults.
//
// Object defaults are cloned so later changes to the caller's map do not
// leak into the document.
func New(defaults map[string]any) Document {
	sections := make(map[string]any, len(defaults))
	for name, value := range defaults {
		sections[name] = cloneValue(value)
	}
	return Document{sections: sections, version: versions.Add(1)}
}

// UpdateSection returns a new Document with partial merged into section name.
//
// When both the current section value and partial are objects, partial's keys
// are shallow-merged over the existing keys and unspecified keys are kept.
// Otherwise partial replaces the section value. Other sections are carried
// over untouched. Returns [ErrUnknownSection] if name is not a declared section.
func (d Document) UpdateSection(name string, partial any) (Document, error) {
	current, ok := d.sections[name]
	if !ok {
		return d, fmt.Errorf("%w: %s", ErrUnknownSection, name)
	}

	next := make(map[string]any, len(d.sections))
	for k, v := range d.sections {
		next[k] = v
	}

	existing, existingIsObject := current.(map[string]any)
	fields, partialIsObject := partial.(map[string]any)
	if existingIsObject && partialIsObject {
		merged := make(map[string]any, len(existing)+len(fields))
		for k, v := range existing {
			merged[k] = v
		}
		for k, v := range fields {
			merged[k] = cloneValue(v)
		}
		next[name] = merged
	} else {
		next[name] = cloneValue(partial)
	}

	return Document{sections: next, version: versions.Add(1)}, nil
}

// Section returns a copy of the current value of a section, so callers cannot
// mutate the document through the result.
func (d Document) Section(name string) (any, bool) {
	v, ok := d.sections[name]
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

// Object returns an object section, or nil if the section is missing or not
// an object. The result is a copy.
func (d Document) Object(name string) map[string]any {
	v, ok := d.sections[name].(map[string]any)
	if !ok {
		return nil
	}
	return cloneMap(v)
}

// Has reports whether name is one of the document's sections.
func (d Document) Has(name string) bool {
	_, ok := d.sections[name]
	return ok
}

// Names returns the section names in sorted order.
func (d Document) Names() []string {
	names := make([]string, 0, len(d.sections))
	for name := range d.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Version identifies this document value. Every [New] and
// [Document.UpdateSection] call yields a fresh version, including sibling
// updates of the same parent, so equal versions mean the same value.
func (d Document) Version() uint64 {
	return d.version
}

// Snapshot returns a copy of all sections, suitable for serialization.
func (d Document) Snapshot() map[string]any {
	out := make(map[string]any, len(d.sections))
	for k, v := range d.sections {
		out[k] = cloneValue(v)
	}
	return out
}

// Field returns a single field of an object section.
func (d Document) Field(section, key string) (any, bool) {
	obj, ok := d.sections[section].(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := obj[key]
	return cloneValue(v), ok
}

// String returns a string field of an object section with surrounding
// whitespace trimmed. Missing or non-string fields yield "".
func (d Document) String(section, key string) string {
	v, _ := d.Field(section, key)
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// Bool returns a boolean field of an object section. Missing or non-bool
// fields yield false.
func (d Document) Bool(section, key string) bool {
	v, _ := d.Field(section, key)
	b, _ := v.(bool)
	return b
}

// Strings returns a list field of an object section as strings.
// Both []string and []any (as decoded from JSON) are accepted; non-string
// elements are skipped.
func (d Document) Strings(section, key string) []string {
	v, _ := d.Field(section, key)
	return AsStrings(v)
}

// AsStrings converts a []string or []any value to []string, skipping
// non-string elements. Any other value yields nil.
func AsStrings(v any) []string {
	switch list := v.(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		if val == nil {
			return val
		}
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return slices.Clone(val)
	case Cloner:
		return val.CloneSection()
	}
	return v
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}
