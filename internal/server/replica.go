package server

import (
	"context"
	"fmt"
	"net"

	"github.com/wangbo/goredis-server/internal/command"
	"github.com/wangbo/goredis-server/internal/logctx"
	"github.com/wangbo/goredis-server/internal/meta"
	"github.com/wangbo/goredis-server/internal/replication"
	"github.com/wangbo/goredis-server/internal/resp"
)

// startReplication performs the one-shot replica handshake against
// target and, on success, spawns the background goroutine that
// ingests the master's propagated command stream for the lifetime of
// ctx. A handshake failure is fatal to boot (SPEC_FULL.md §7,
// HandshakeFailed).
func (s *Server) startReplication(ctx context.Context, target *meta.ReplicaTarget) error {
	addr := fmt.Sprintf("%s:%d", target.Host, target.Port)
	conn, err := net.DialTimeout("tcp", addr, replication.DialTimeout)
	if err != nil {
		return fmt.Errorf("dialing master %s: %w", addr, err)
	}

	reader, err := replication.Handshake(conn, s.cfg.Port)
	if err != nil {
		conn.Close()
		return fmt.Errorf("handshake with master %s: %w", addr, err)
	}
	logctx.Info("replica handshake complete", "master", addr)

	deps := &command.Deps{Store: s.store, Meta: s.meta, FromMaster: true}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer conn.Close()

		err := replication.Run(ctx, conn, reader, func(frame resp.Frame) {
			s.metrics.CommandProcessed()
			if handler, ok := command.Lookup(frame.Name); ok {
				handler(deps, frame.Args)
			}
			s.meta.AddReplOffset(int64(len(frame.Raw)))
		})
		if err != nil && ctx.Err() == nil {
			logctx.Error("replication stream from master ended", "master", addr, "error", err.Error())
		}
	}()

	return nil
}
