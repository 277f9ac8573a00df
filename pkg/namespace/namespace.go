// Package namespace holds the validated identifier tables shared between the
// precompiler and the per-node code generators.
//
// A Namespace is strict: looking up a key that was never populated is an
// error, because it means either a node type lacks a capability it is being
// asked for or the precompiler forgot to allocate a name. Such problems must
// surface at compile time instead of producing code that references an
// undefined identifier.
package namespace

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Sigil prefixes a lookup key that would otherwise start with a digit.
// Looking up "$0" resolves to "0" when "$0" itself is not present.
const Sigil = "$"

// Absent is returned for introspection keys that are not populated.
const Absent = ""

// introspectionKeys are read by generic serialization and debug tooling.
// They resolve to Absent instead of failing.
var introspectionKeys = map[string]bool{
	"String":      true,
	"GoString":    true,
	"MarshalJSON": true,
	"toJSON":      true,
}

var validKey = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// NamespaceError reports a lookup of a key that was never populated, or an
// attempt to populate an invalid key.
type NamespaceError struct {
	Label  string
	Key    string
	Reason string
}

func (e *NamespaceError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "key not found"
	}
	return fmt.Sprintf("namespace %q: %s: %q", e.Label, reason, e.Key)
}

// Namespace is an immutable mapping from validated keys to values.
type Namespace struct {
	label   string
	entries map[string]string
}

// New validates every key and value and returns an immutable namespace holding a copy
// of entries.
func New(label string, entries map[string]string) (*Namespace, error) {
	copied := make(map[string]string, len(entries))
	for k, v := range entries {
		if !ValidKey(k) {
			return nil, &NamespaceError{Label: label, Key: k, Reason: "invalid key"}
		}
		if v == "" {
			return nil, &NamespaceError{Label: label, Key: k, Reason: "empty value"}
		}
		copied[k] = v
	}
	return &Namespace{label: label, entries: copied}, nil
}

// Empty returns a namespace with no entries.
func Empty(label string) *Namespace {
	return &Namespace{label: label, entries: map[string]string{}}
}

// ValidKey reports whether key only contains letters, digits and underscores.
func ValidKey(key string) bool {
	return validKey.MatchString(key)
}

// Label returns the namespace label used in error messages.
func (ns *Namespace) Label() string {
	return ns.label
}

// Get returns the value for key.
func (ns *Namespace) Get(key string) (string, error) {
	if v, ok := ns.entries[key]; ok {
		return v, nil
	}
	if strings.HasPrefix(key, Sigil) {
		if v, ok := ns.entries[strings.TrimPrefix(key, Sigil)]; ok {
			return v, nil
		}
	}
	if introspectionKeys[key] {
		return Absent, nil
	}
	return "", &NamespaceError{Label: ns.label, Key: key}
}

// MustGet is Get for callers that already checked Has. It panics on a
// missing key.
func (ns *Namespace) MustGet(key string) string {
	v, err := ns.Get(key)
	if err != nil {
		panic(err)
	}
	return v
}

// Has reports whether key (or its sigil-less form) is populated.
func (ns *Namespace) Has(key string) bool {
	if _, ok := ns.entries[key]; ok {
		return true
	}
	_, ok := ns.entries[strings.TrimPrefix(key, Sigil)]
	return ok
}

// Keys returns the populated keys in sorted order.
func (ns *Namespace) Keys() []string {
	keys := make([]string, 0, len(ns.entries))
	for k := range ns.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries.
func (ns *Namespace) Len() int {
	return len(ns.entries)
}

// Entries returns a copy of the backing map.
func (ns *Namespace) Entries() map[string]string {
	out := make(map[string]string, len(ns.entries))
	for k, v := range ns.entries {
		out[k] = v
	}
	return out
}

// MarshalJSON serializes exactly the backing entries.
func (ns *Namespace) MarshalJSON() ([]byte, error) {
	return json.Marshal(ns.entries)
}

func (ns *Namespace) String() string {
	parts := make([]string, 0, len(ns.entries))
	for _, k := range ns.Keys() {
		parts = append(parts, k+"="+ns.entries[k])
	}
	return ns.label + "{" + strings.Join(parts, ", ") + "}"
}
