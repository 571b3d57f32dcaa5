package server

import (
	"fmt"
	"net"
	"sync"

	"github.com/wangbo/goredis-server/internal/logctx"
	"github.com/wangbo/goredis-server/internal/rdb"
	"github.com/wangbo/goredis-server/internal/resp"
)

// handlePSync implements the master-side full-resync path of
// SPEC_FULL.md §4.5: reply FULLRESYNC, send a snapshot RDB blob with
// no trailing CRLF, then subscribe the connection to the replication
// hub and forward every published write verbatim until the socket
// errors.
func (s *Server) handlePSync(conn net.Conn, writeMu *sync.Mutex) {
	remote := conn.RemoteAddr().String()

	writeMu.Lock()
	_, err := conn.Write(resp.SimpleString(fmt.Sprintf("FULLRESYNC %s %d", s.meta.ReplID(), s.meta.ReplOffset())))
	if err == nil {
		payload := rdb.Generate(s.store.Snapshot())
		_, err = conn.Write([]byte(fmt.Sprintf("$%d\r\n", len(payload))))
		if err == nil {
			_, err = conn.Write(payload)
		}
	}
	writeMu.Unlock()
	if err != nil {
		logctx.Warn("PSYNC full resync failed", "remote", remote, "error", err.Error())
		return
	}

	sub := s.hub.Subscribe()
	s.metrics.ReplicaAttached()
	logctx.Info("replica attached", "remote", remote)
	defer func() {
		s.hub.Unsubscribe(sub)
		s.metrics.ReplicaDetached()
		logctx.Info("replica detached", "remote", remote)
	}()

	for raw := range sub.Frames {
		writeMu.Lock()
		_, err := conn.Write(raw)
		writeMu.Unlock()
		if err != nil {
			return
		}
	}
}
