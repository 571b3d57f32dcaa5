// Package command implements the dispatch table for PING, ECHO, GET,
// SET, INFO, and REPLCONF. PSYNC, the seventh command, has no entry
// here: internal/server recognizes it by name and handles it itself,
// since it takes over the raw socket, which a normal command handler
// never needs.
package command

import (
	"strings"

	"github.com/wangbo/goredis-server/internal/meta"
	"github.com/wangbo/goredis-server/internal/store"
)

// Deps bundles the shared state every handler may need. FromMaster is
// set only for frames arriving through replica ingestion (see
// SPEC_FULL.md §4.5 and §9's read-only-replica resolution).
type Deps struct {
	Store      *store.Store
	Meta       *meta.Meta
	FromMaster bool
}

// Handler executes one command's arguments and returns the exact
// reply bytes to write back to the connection.
type Handler func(d *Deps, args []string) []byte

// Table maps an upper-cased command name to its handler.
var Table = map[string]Handler{
	"PING":     handlePing,
	"ECHO":     handleEcho,
	"GET":      handleGet,
	"SET":      handleSet,
	"INFO":     handleInfo,
	"REPLCONF": handleReplconf,
}

// writeCommands names commands whose raw bytes a master republishes
// to its replicas after committing the mutation and replying OK.
var writeCommands = map[string]bool{
	"SET": true,
}

// IsWriteCommand reports whether cmd (any case) is a write command
// that should be propagated to replicas.
func IsWriteCommand(cmd string) bool {
	return writeCommands[strings.ToUpper(cmd)]
}

// Lookup returns the handler for cmd (any case), and whether one was
// found.
func Lookup(cmd string) (Handler, bool) {
	h, ok := Table[strings.ToUpper(cmd)]
	return h, ok
}
