package namespace

import (
	"fmt"
	"strings"
)

// Identifier kinds used when naming per-node variables.
const (
	KindIns   = "INS"
	KindOuts  = "OUTS"
	KindRcvs  = "RCVS"
	KindSnds  = "SNDS"
	KindState = "STATE"
)

// SanitizeIdentifier maps an arbitrary id to a valid identifier: characters
// outside [A-Za-z0-9_] become underscores and a leading digit gets an "n"
// prefix.
func SanitizeIdentifier(id string) string {
	var sb strings.Builder
	for _, r := range id {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	s := sb.String()
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		s = "n" + s
	}
	return s
}

// NodeVariable names a per-node variable, e.g. NodeVariable("osc", KindOuts,
// "0") is "osc_OUTS_0".
func NodeVariable(nodeID, kind, key string) string {
	return SanitizeIdentifier(nodeID) + "_" + kind + "_" + SanitizeKey(key)
}

// SanitizeKey maps a key to the namespace key alphabet without adding a
// prefix, so portlet "0" stays "0".
func SanitizeKey(key string) string {
	var sb strings.Builder
	for _, r := range key {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// CollisionError reports two distinct owners mapping to the same identifier.
type CollisionError struct {
	Identifier string
	First      string
	Second     string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("identifier collision: %q is generated for both %s and %s", e.Identifier, e.First, e.Second)
}

// Registry tracks generated identifiers so that collisions are detected
// instead of silently producing duplicate declarations.
type Registry struct {
	owners map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{owners: make(map[string]string)}
}

// Claim records identifier as owned by owner. Claiming the same identifier
// twice for the same owner is allowed.
func (r *Registry) Claim(identifier, owner string) error {
	if prev, ok := r.owners[identifier]; ok && prev != owner {
		return &CollisionError{Identifier: identifier, First: prev, Second: owner}
	}
	r.owners[identifier] = owner
	return nil
}

// Owner returns the owner of identifier.
func (r *Registry) Owner(identifier string) (string, bool) {
	owner, ok := r.owners[identifier]
	return owner, ok
}
