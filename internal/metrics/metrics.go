// Package metrics keeps small in-process counters for operator
// visibility: connections accepted, commands processed, and replicas
// currently attached. None of this is exposed over the wire; it
// supplements INFO-adjacent internals and is exercised directly by
// tests (see SPEC_FULL.md §4.11).
package metrics

import "sync/atomic"

// Counters holds the server's running counters. The zero value is
// ready to use.
type Counters struct {
	connectionsAccepted atomic.Int64
	commandsProcessed   atomic.Int64
	replicasAttached    atomic.Int64
}

// ConnectionAccepted records a newly accepted client socket.
func (c *Counters) ConnectionAccepted() {
	c.connectionsAccepted.Add(1)
}

// CommandProcessed records one dispatched command.
func (c *Counters) CommandProcessed() {
	c.commandsProcessed.Add(1)
}

// ReplicaAttached records a connection promoted to a replication
// sender.
func (c *Counters) ReplicaAttached() {
	c.replicasAttached.Add(1)
}

// ReplicaDetached records a replication sender disconnecting.
func (c *Counters) ReplicaDetached() {
	c.replicasAttached.Add(-1)
}

// ConnectionsAccepted returns the running total of accepted sockets.
func (c *Counters) ConnectionsAccepted() int64 {
	return c.connectionsAccepted.Load()
}

// CommandsProcessed returns the running total of dispatched commands.
func (c *Counters) CommandsProcessed() int64 {
	return c.commandsProcessed.Load()
}

// ReplicasAttached returns the number of replication senders currently
// attached.
func (c *Counters) ReplicasAttached() int64 {
	return c.replicasAttached.Load()
}
