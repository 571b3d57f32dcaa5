// Package rdb renders the store's dataset into the opaque binary blob
// sent during a PSYNC full resync. The replica side never parses this
// payload back into its own store (hydrating replica state from a
// snapshot is persistence-adjacent machinery the spec scopes out); it
// exists so wire-level tooling against this server sees a real,
// well-formed RDB file rather than a canned fixture.
package rdb

import (
	"bytes"
	"encoding/binary"

	"github.com/wangbo/goredis-server/internal/store"
)

func expiresAtUnixMS(e store.Entry) int64 {
	return e.CreatedAt.Add(e.TTL).UnixMilli()
}

const (
	magic          = "REDIS0011"
	opcodeExpireMS = 0xFC
	opcodeSelectDB = 0xFE
	opcodeEOF      = 0xFF
	typeString     = 0
)

// Generate renders a snapshot of entries (as returned by
// store.Snapshot) into a complete RDB byte blob: header, a DB 0
// selector, one string-typed record per entry (with a millisecond
// expiry opcode when the entry has a TTL), an EOF marker, and an
// 8-byte checksum trailer. A checksum of all zero bytes is the
// real-Redis convention for "checksum verification disabled", so no
// CRC64 computation is needed.
func Generate(entries map[string]store.Entry) []byte {
	var buf bytes.Buffer
	buf.WriteString(magic)
	buf.WriteByte(opcodeSelectDB)
	writeLength(&buf, 0)

	for key, e := range entries {
		if e.HasTTL {
			buf.WriteByte(opcodeExpireMS)
			var ms [8]byte
			binary.LittleEndian.PutUint64(ms[:], uint64(expiresAtUnixMS(e)))
			buf.Write(ms[:])
		}
		buf.WriteByte(typeString)
		writeString(&buf, key)
		writeString(&buf, string(e.Value))
	}

	buf.WriteByte(opcodeEOF)
	buf.Write(make([]byte, 8)) // checksum disabled

	return buf.Bytes()
}

// Empty renders a dataset-free RDB blob, used when a master has
// nothing to hand a new replica.
func Empty() []byte {
	return Generate(nil)
}

func writeLength(buf *bytes.Buffer, n int) {
	if n < 64 {
		buf.WriteByte(byte(n))
		return
	}
	buf.WriteByte(0x80)
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(n))
	buf.Write(b[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeLength(buf, len(s))
	buf.WriteString(s)
}
