// Package ident generates the boot-time replication identity. The
// source this server's spec was distilled from hard-coded a constant
// hex literal for master_replid; this resolves that into an actual
// pseudo-unique id generated once per process.
package ident

import (
	"strings"

	"github.com/google/uuid"
)

// NewReplicationID returns a fresh 40-hex-character id, the same
// length real Redis uses for master_replid. A single UUIDv4 only
// yields 32 hex digits, so two are concatenated and trimmed.
func NewReplicationID() string {
	a := strings.ReplaceAll(uuid.NewString(), "-", "")
	b := strings.ReplaceAll(uuid.NewString(), "-", "")
	return (a + b)[:40]
}
