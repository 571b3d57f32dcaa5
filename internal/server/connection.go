package server

import (
	"bytes"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/wangbo/goredis-server/internal/command"
	"github.com/wangbo/goredis-server/internal/logctx"
	"github.com/wangbo/goredis-server/internal/resp"
)

const readBufferSize = 4096

// handleConnection runs the read/parse/dispatch/write loop for one
// accepted socket until the peer disconnects, a protocol error
// occurs, or the connection is promoted to a replication sender (at
// which point PSYNC handling takes over permanently).
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	logctx.Debug("client connected", "remote", remote)

	writeMu := &sync.Mutex{}
	decoder := resp.NewDecoder()
	buf := make([]byte, readBufferSize)
	deps := &command.Deps{Store: s.store, Meta: s.meta}

	for {
		frame, ok, err := decoder.Next()
		if err != nil {
			logctx.Warn("malformed frame, closing connection", "remote", remote, "error", err.Error())
			return
		}
		if !ok {
			n, err := conn.Read(buf)
			if err != nil {
				if err != io.EOF {
					logctx.Debug("read error, closing connection", "remote", remote, "error", err.Error())
				}
				return
			}
			if n == 0 {
				return
			}
			decoder.Feed(buf[:n])
			continue
		}

		s.metrics.CommandProcessed()

		if strings.EqualFold(frame.Name, "PSYNC") {
			s.handlePSync(conn, writeMu)
			return
		}

		reply := dispatch(deps, *frame)

		writeMu.Lock()
		_, werr := conn.Write(reply)
		writeMu.Unlock()
		if werr != nil {
			logctx.Debug("write error, closing connection", "remote", remote, "error", werr.Error())
			return
		}

		if command.IsWriteCommand(frame.Name) && s.meta.IsMaster() && isOKReply(reply) {
			s.hub.Publish(frame.Raw)
			s.meta.AddReplOffset(int64(len(frame.Raw)))
		}
	}
}

// dispatch looks up and runs a command handler, or produces the
// UnknownCommand reply the spec requires for an unrecognized name.
func dispatch(deps *command.Deps, frame resp.Frame) []byte {
	handler, ok := command.Lookup(frame.Name)
	if !ok {
		return resp.ErrorReply("ERR unknown command '" + frame.Name + "'")
	}
	return handler(deps, frame.Args)
}

func isOKReply(reply []byte) bool {
	return bytes.Equal(reply, []byte("+OK\r\n"))
}
