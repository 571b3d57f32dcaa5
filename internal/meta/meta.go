// Package meta holds the single process-wide server metadata record:
// role, replication id and offset, and the address this instance is
// bound to. It is read far more often than written, so it is guarded
// by a read/write lock rather than the store's plain mutex.
package meta

import (
	"fmt"
	"sync"
)

// Role is the replication role of this instance.
type Role int

const (
	RoleMaster Role = iota
	RoleReplica
)

func (r Role) String() string {
	if r == RoleReplica {
		return "slave"
	}
	return "master"
}

// ReplicaTarget is the master this instance replicates from, parsed
// from --replicaof.
type ReplicaTarget struct {
	Host string
	Port int
}

// Meta is the shared, mutex-guarded server metadata record.
type Meta struct {
	mu sync.RWMutex

	role       Role
	replID     string
	replOffset int64
	host       string
	port       int
	replicaOf  *ReplicaTarget
}

// New builds the boot-time metadata record. replicaOf is nil for a
// master.
func New(host string, port int, replID string, replicaOf *ReplicaTarget) *Meta {
	role := RoleMaster
	if replicaOf != nil {
		role = RoleReplica
	}
	return &Meta{
		role:      role,
		replID:    replID,
		host:      host,
		port:      port,
		replicaOf: replicaOf,
	}
}

// Role returns the current replication role.
func (m *Meta) Role() Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.role
}

// IsMaster reports whether this instance is the master of its own
// replication stream (true even before any replica has attached).
func (m *Meta) IsMaster() bool {
	return m.Role() == RoleMaster
}

// ReplicaOf returns the configured master, or nil if this instance is
// a master.
func (m *Meta) ReplicaOf() *ReplicaTarget {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.replicaOf
}

// ReplID returns the 40-hex-char pseudo-unique replication id
// generated at boot.
func (m *Meta) ReplID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.replID
}

// ReplOffset returns the current replication offset.
func (m *Meta) ReplOffset() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.replOffset
}

// AddReplOffset advances the replication offset by delta bytes. Called
// by the master after each command it publishes to the replication
// hub, and by a replica after each command it ingests from its master.
func (m *Meta) AddReplOffset(delta int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replOffset += delta
}

// HostPort returns the host and port this instance is bound to.
func (m *Meta) HostPort() (string, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.host, m.port
}

// InfoReplication renders the body of "INFO replication": one field
// per line, CRLF-separated, the real-Redis convention (see
// SPEC_FULL.md open-question resolution for why this, rather than the
// source's space-joined fields, was chosen).
func (m *Meta) InfoReplication() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return fmt.Sprintf(
		"role:%s\r\nmaster_replid:%s\r\nmaster_repl_offset:%d\r\n",
		m.role, m.replID, m.replOffset,
	)
}
