// Package id provides utilities for generating URL-safe identifiers.
//
// Identifiers are generated using UUIDv4 bytes encoded as base32 (RFC 4648)
// with no padding. The resulting strings are 26 characters long, lowercase,
// and safe for use in URLs and file paths.
package id

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// New returns a new 26-character lowercase identifier.
func New() string {
	value := uuid.New()
	return strings.ToLower(encoding.EncodeToString(value[:]))
}
