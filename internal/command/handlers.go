package command

import (
	"strings"

	"github.com/wangbo/goredis-server/internal/meta"
	"github.com/wangbo/goredis-server/internal/resp"
	"github.com/wangbo/goredis-server/internal/store"
)

func handlePing(d *Deps, args []string) []byte {
	if len(args) == 0 {
		return resp.SimpleString("PONG")
	}
	return resp.SimpleString(args[0])
}

// handleEcho replies with a bulk string, the protocol-correct choice
// for binary transparency (see SPEC_FULL.md §9's open-question
// resolution; the source this spec was distilled from replied with a
// simple string instead).
func handleEcho(d *Deps, args []string) []byte {
	if len(args) == 0 {
		return resp.ErrorReply("ERR wrong number of arguments for 'echo' command")
	}
	return resp.BulkString([]byte(args[0]))
}

func handleGet(d *Deps, args []string) []byte {
	if len(args) != 1 {
		return resp.ErrorReply("ERR wrong number of arguments for 'get' command")
	}
	e, ok := d.Store.Get(args[0])
	if !ok {
		return resp.NullBulk()
	}
	return resp.BulkString(e.Value)
}

// handleSet implements SET <key> <value> [PX <ms>]. On a replica, a
// directly client-issued SET is rejected; a SET arriving through
// replica ingestion (FromMaster) is always applied.
func handleSet(d *Deps, args []string) []byte {
	if d.Meta.Role() == meta.RoleReplica && !d.FromMaster {
		return resp.ErrorReply("ERR READONLY You can't write against a read only replica.")
	}
	if len(args) != 2 && len(args) != 4 {
		return resp.ErrorReply("ERR wrong number of arguments for 'set' command")
	}

	key, value := args[0], args[1]
	d.Store.Insert(key, store.NewStringEntry([]byte(value), 0, false))

	if len(args) == 4 {
		if !strings.EqualFold(args[2], "PX") {
			return resp.ErrorReply("ERR syntax error")
		}
		if err := d.Store.SetTTL(key, args[3]); err != nil {
			return resp.ErrorReply("ERR value is not an integer or out of range")
		}
	}

	return resp.SimpleString("OK")
}

func handleInfo(d *Deps, args []string) []byte {
	return resp.BulkString([]byte(d.Meta.InfoReplication()))
}

// handleReplconf accepts and ignores its arguments; argument
// validation is explicitly deferred per SPEC_FULL.md §4.3.
func handleReplconf(d *Deps, args []string) []byte {
	return resp.SimpleString("OK")
}
