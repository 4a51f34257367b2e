// Package ident generates globally unique, device-independent entity
// identifiers. An identifier is a short type prefix joined to a random
// high-entropy token, e.g. "org_3f1c9a7e...". Identifiers carry no device
// or ordering information; ordering lives in the event log.
package ident

import (
	"strings"

	"github.com/google/uuid"
)

// Separator joins the prefix and the random token.
const Separator = "_"

// Well-known entity prefixes.
const (
	PrefixOrganization = "org"
	PrefixAccount      = "acct"
	PrefixContact      = "cont"
	PrefixNote         = "note"
	PrefixInteraction  = "intr"
	PrefixRelation     = "rel"
	PrefixEvent        = "evt"
	PrefixSnapshot     = "snap"
)

// New returns a fresh identifier with the given prefix.
// The token is a random UUIDv4 with the dashes stripped, giving 122 bits
// of entropy - collisions across devices are not a practical concern.
func New(prefix string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + Separator + token
}

// Prefix returns the type prefix of an identifier, or "" if the identifier
// has no separator.
func Prefix(id string) string {
	i := strings.Index(id, Separator)
	if i < 0 {
		return ""
	}
	return id[:i]
}

// Valid reports whether id has the shape prefix + separator + token with
// both parts non-empty. It does not check the token's entropy; foreign
// devices may use longer or shorter tokens.
func Valid(id string) bool {
	i := strings.Index(id, Separator)
	return i > 0 && i < len(id)-1
}
