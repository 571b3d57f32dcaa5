// Package server implements the TCP bootstrap and the per-connection
// read/parse/dispatch/write loop described in SPEC_FULL.md §4.4 and
// §4.6.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/wangbo/goredis-server/internal/config"
	"github.com/wangbo/goredis-server/internal/ident"
	"github.com/wangbo/goredis-server/internal/logctx"
	"github.com/wangbo/goredis-server/internal/meta"
	"github.com/wangbo/goredis-server/internal/metrics"
	"github.com/wangbo/goredis-server/internal/replication"
	"github.com/wangbo/goredis-server/internal/store"
)

// Server owns the listener and the shared state every connection
// handler reads from.
type Server struct {
	cfg     *config.Config
	store   *store.Store
	meta    *meta.Meta
	hub     *replication.Hub
	metrics *metrics.Counters

	listener net.Listener
	wg       sync.WaitGroup
}

// New builds a server around the given configuration. It wires a
// fresh store, replication hub, counters, and a boot-time replication
// id generated via internal/ident.
func New(cfg *config.Config) *Server {
	var replicaOf *meta.ReplicaTarget
	if cfg.ReplicaOf != nil {
		replicaOf = &meta.ReplicaTarget{Host: cfg.ReplicaOf.Host, Port: cfg.ReplicaOf.Port}
	}

	return &Server{
		cfg:     cfg,
		store:   store.New(),
		meta:    meta.New(cfg.Host, cfg.Port, ident.NewReplicationID(), replicaOf),
		hub:     replication.NewHub(),
		metrics: &metrics.Counters{},
	}
}

// Run binds the listener, starts the replica handshake if configured,
// and accepts connections until ctx is cancelled. It blocks until the
// listener is closed and every in-flight handler has drained.
func (s *Server) Run(ctx context.Context) error {
	if target := s.meta.ReplicaOf(); target != nil {
		if err := s.startReplication(ctx, target); err != nil {
			return fmt.Errorf("server: replica handshake failed: %w", err)
		}
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: failed to bind %s: %w", addr, err)
	}
	s.listener = ln
	logctx.Info("listening", "addr", addr, "role", s.meta.Role().String())

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
				return fmt.Errorf("server: accept: %w", err)
			}
		}

		s.metrics.ConnectionAccepted()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// Metrics exposes the running counters, primarily for tests and
// operator tooling.
func (s *Server) Metrics() *metrics.Counters {
	return s.metrics
}

// Meta exposes the shared metadata record, primarily for tests.
func (s *Server) Meta() *meta.Meta {
	return s.meta
}

// Store exposes the shared key/value store, primarily for tests.
func (s *Server) Store() *store.Store {
	return s.store
}

// Addr returns the bound listener address; valid only after Run has
// successfully started listening.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
